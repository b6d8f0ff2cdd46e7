package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

func TestTemplateSynthesizer_Render(t *testing.T) {
	synth := NewTemplateSynthesizer()

	tests := []struct {
		name     string
		params   entities.EntityParams
		expected string
	}{
		{
			name: "all fields in priority order",
			params: entities.EntityParams{
				LEI: appleLEI, LegalName: "Apple Inc.", IndustryCode: "Technology Hardware",
				Jurisdiction: "US-CA", Status: "ACTIVE",
			},
			expected: "status: ACTIVE | industry: Technology Hardware | jurisdiction: US-CA | name: Apple Inc.",
		},
		{
			name:     "empty fields omitted",
			params:   entities.EntityParams{LEI: appleLEI, LegalName: "Apple Inc.", Status: "ACTIVE"},
			expected: "status: ACTIVE | name: Apple Inc.",
		},
		{
			name:     "unknown status omitted",
			params:   entities.EntityParams{LEI: appleLEI, LegalName: "Apple Inc.", Jurisdiction: "US", Status: "garbage"},
			expected: "jurisdiction: US | name: Apple Inc.",
		},
		{
			name:     "nothing but an lei",
			params:   entities.EntityParams{LEI: appleLEI},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, synth.Render(mustEntity(t, tt.params)))
		})
	}
}

func TestTemplateSynthesizer_Deterministic(t *testing.T) {
	synth := NewTemplateSynthesizer()
	params := entities.EntityParams{
		LEI: appleLEI, LegalName: "Apple Inc.", IndustryCode: "Technology Hardware",
		Jurisdiction: "US-CA", Status: "ACTIVE",
	}

	a := mustEntity(t, params)
	b := mustEntity(t, params)
	b.RawAttributes.Set("city", "Cupertino")

	first := synth.Render(a)
	for range 10 {
		assert.Equal(t, first, synth.Render(a))
	}
	assert.Equal(t, first, synth.Render(b), "raw attributes never reach the template")
}

func TestTemplateSynthesizer_PrefixFollowsRiskFields(t *testing.T) {
	synth := NewTemplateSynthesizer()

	active := mustEntity(t, entities.EntityParams{LEI: appleLEI, LegalName: "Acme", IndustryCode: "Banks", Jurisdiction: "GB", Status: "ACTIVE"})
	merged := mustEntity(t, entities.EntityParams{LEI: dellLEI, LegalName: "Acme", IndustryCode: "Banks", Jurisdiction: "GB", Status: "MERGED"})

	a, m := synth.Render(active), synth.Render(merged)
	assert.NotEqual(t, a, m)
	assert.True(t, strings.HasPrefix(a, "status: ACTIVE | industry: Banks"))
	assert.True(t, strings.HasPrefix(m, "status: MERGED | industry: Banks"))
	assert.True(t, strings.HasSuffix(a, "name: Acme"))
}

func TestTemplateSynthesizer_CustomOrder(t *testing.T) {
	fields, err := TemplateFields([]string{"Name", "jurisdiction"})
	require.NoError(t, err)

	synth := NewTemplateSynthesizer(WithFields(fields), WithDelimiter("; "))
	e := mustEntity(t, entities.EntityParams{LEI: appleLEI, LegalName: "Apple Inc.", Jurisdiction: "US-CA", Status: "ACTIVE"})

	assert.Equal(t, "name: Apple Inc.; jurisdiction: US-CA", synth.Render(e))
	assert.Equal(t, []string{FieldName, FieldJurisdiction}, synth.FieldNames())
}

func TestTemplateFields_Errors(t *testing.T) {
	_, err := TemplateFields(nil)
	assert.Error(t, err)

	_, err = TemplateFields([]string{"status", "revenue"})
	assert.ErrorContains(t, err, "unknown template field")

	_, err = TemplateFields([]string{"status", "STATUS"})
	assert.ErrorContains(t, err, "duplicate template field")
}

func TestTemplateSynthesizer_RenderQuery(t *testing.T) {
	synth := NewTemplateSynthesizer()
	assert.Equal(t, "name: Apple Inc", synth.RenderQuery("  Apple   Inc "))

	fields, err := TemplateFields([]string{FieldStatus})
	require.NoError(t, err)
	statusOnly := NewTemplateSynthesizer(WithFields(fields))
	assert.Equal(t, "Apple Inc", statusOnly.RenderQuery("Apple Inc"))
}

package services

import (
	"fmt"
	"strings"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// DefaultTemplateDelimiter separates labelled fields in a rendered template.
const DefaultTemplateDelimiter = " | "

// TemplateField is one labelled slot of the embedding template.
type TemplateField struct {
	Name  string
	Label string
	Value func(e *entities.Entity) string
}

// Template field names, usable in configuration to reorder the template.
const (
	FieldStatus       = "status"
	FieldIndustry     = "industry"
	FieldJurisdiction = "jurisdiction"
	FieldName         = "name"
)

var knownTemplateFields = map[string]TemplateField{
	FieldStatus: {
		Name:  FieldStatus,
		Label: "status",
		Value: func(e *entities.Entity) string {
			if !e.Status.IsKnown() {
				return ""
			}
			return e.Status.String()
		},
	},
	FieldIndustry: {
		Name:  FieldIndustry,
		Label: "industry",
		Value: func(e *entities.Entity) string { return e.IndustryCode },
	},
	FieldJurisdiction: {
		Name:  FieldJurisdiction,
		Label: "jurisdiction",
		Value: func(e *entities.Entity) string { return e.Jurisdiction },
	},
	FieldName: {
		Name:  FieldName,
		Label: "name",
		Value: func(e *entities.Entity) string { return e.LegalName },
	},
}

// DefaultTemplateOrder is the risk-based field priority: entities sharing
// status, industry and jurisdiction should embed closer together than ones
// that only differ in name spelling.
var DefaultTemplateOrder = []string{FieldStatus, FieldIndustry, FieldJurisdiction, FieldName}

// TemplateFields resolves field names to template fields, in order.
func TemplateFields(names []string) ([]TemplateField, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("template needs at least one field")
	}

	fields := make([]TemplateField, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		f, ok := knownTemplateFields[key]
		if !ok {
			return nil, fmt.Errorf("unknown template field %q", name)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate template field %q", name)
		}
		seen[key] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// TemplateSynthesizer renders entities into embedding text.
// Rendering is a pure function of the entity's field values.
type TemplateSynthesizer struct {
	fields    []TemplateField
	delimiter string
}

// TemplateOption configures a TemplateSynthesizer.
type TemplateOption func(*TemplateSynthesizer)

// WithFields overrides the field order.
func WithFields(fields []TemplateField) TemplateOption {
	return func(s *TemplateSynthesizer) {
		if len(fields) > 0 {
			s.fields = fields
		}
	}
}

// WithDelimiter overrides the field delimiter.
func WithDelimiter(delim string) TemplateOption {
	return func(s *TemplateSynthesizer) {
		if delim != "" {
			s.delimiter = delim
		}
	}
}

// NewTemplateSynthesizer creates a synthesizer using DefaultTemplateOrder
// unless overridden.
func NewTemplateSynthesizer(opts ...TemplateOption) *TemplateSynthesizer {
	fields, _ := TemplateFields(DefaultTemplateOrder)
	s := &TemplateSynthesizer{
		fields:    fields,
		delimiter: DefaultTemplateDelimiter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render returns the embedding text for e. Empty fields are left out
// entirely rather than rendered as empty labels.
func (s *TemplateSynthesizer) Render(e *entities.Entity) string {
	parts := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		v := strings.TrimSpace(f.Value(e))
		if v == "" {
			continue
		}
		parts = append(parts, f.Label+": "+v)
	}
	return strings.Join(parts, s.delimiter)
}

// RenderQuery renders free text as a name-only entity. The result lines up
// with the name slot of indexed documents. Without a name field configured
// the normalized text is returned as is.
func (s *TemplateSynthesizer) RenderQuery(text string) string {
	name := entities.NormalizeName(text)
	if rendered := s.Render(&entities.Entity{LegalName: name}); rendered != "" {
		return rendered
	}
	return name
}

// FieldNames returns the configured field order.
func (s *TemplateSynthesizer) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

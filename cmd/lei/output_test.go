package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

func appleResult() *handlers.ResolveResult {
	return &handlers.ResolveResult{
		Query: entities.ISINQuery("US0378331005"),
		Kind:  entities.QueryISIN,
		Candidates: []entities.MatchCandidate{
			{LEI: "HWUPKR0MPOU8FGXBT394", LegalName: "Apple Inc.", SimilarityScore: 1, MatchSource: entities.MatchExact, Rank: 1},
			{LEI: "549300TYE2QJ4WZ1WY79", LegalName: "Dell Technologies Inc.", SimilarityScore: 0.8731, MatchSource: entities.MatchSemantic, Rank: 2},
		},
	}
}

func TestWriteResolveJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResolveJSON(&buf, appleResult()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	assert.Equal(t, "US0378331005", parsed["query"])
	assert.Equal(t, "isin", parsed["kind"])
	assert.NotContains(t, parsed, "ambiguous_leis")

	candidates, ok := parsed["candidates"].([]any)
	require.True(t, ok)
	require.Len(t, candidates, 2)
	first := candidates[0].(map[string]any)
	assert.Equal(t, "HWUPKR0MPOU8FGXBT394", first["lei"])
	assert.Equal(t, "EXACT", first["match_source"])
	assert.Equal(t, 1.0, first["similarity_score"])
	assert.Equal(t, 1.0, first["rank"])
}

func TestWriteResolveJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := writeResolveJSON(&buf, &handlers.ResolveResult{Query: entities.ISINQuery("ZZ0000000000"), Kind: entities.QueryISIN})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"candidates": []`)
}

func TestWriteResolveText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResolveText(&buf, appleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "Apple Inc.")
	assert.Contains(t, lines[1], "EXACT")
	assert.Contains(t, lines[1], "1.0000")
	assert.Contains(t, lines[2], "0.8731")
}

func TestWriteResolveText_Ambiguous(t *testing.T) {
	result := appleResult()
	result.Ambiguity = &entities.AmbiguousMappingError{
		ISIN: "US0378331005",
		LEIs: []string{"549300TYE2QJ4WZ1WY79", "HWUPKR0MPOU8FGXBT394"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResolveText(&buf, result))
	assert.True(t, strings.HasPrefix(buf.String(), "Warning: US0378331005 maps to 2 LEIs"))
}

func TestWriteResolveText_NoMatches(t *testing.T) {
	var buf bytes.Buffer
	err := writeResolveText(&buf, &handlers.ResolveResult{Query: entities.NameQuery("Acme"), Kind: entities.QueryName})
	require.NoError(t, err)
	assert.Equal(t, "No matches for name \"Acme\".\n", buf.String())
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"init", "import", "index", "resolve", "enrich"})

	resolve, _, err := root.Find([]string{"resolve"})
	require.NoError(t, err)
	assert.Equal(t, "5", resolve.Flags().Lookup("top-k").DefValue)
}

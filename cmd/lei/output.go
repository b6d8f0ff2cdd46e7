package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ersonp/lei-resolver/internal/application/handlers"
	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// resolveOutput is the JSON shape of a resolution.
type resolveOutput struct {
	Query      string                    `json:"query"`
	Kind       entities.QueryKind        `json:"kind"`
	Ambiguous  []string                  `json:"ambiguous_leis,omitempty"`
	Candidates []entities.MatchCandidate `json:"candidates"`
}

func writeResolveJSON(w io.Writer, result *handlers.ResolveResult) error {
	out := resolveOutput{
		Query:      result.Query.Value,
		Kind:       result.Kind,
		Candidates: result.Candidates,
	}
	if out.Candidates == nil {
		out.Candidates = []entities.MatchCandidate{}
	}
	if result.Ambiguity != nil {
		out.Ambiguous = result.Ambiguity.LEIs
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResolveText(w io.Writer, result *handlers.ResolveResult) error {
	if len(result.Candidates) == 0 {
		_, err := fmt.Fprintf(w, "No matches for %s %q.\n", result.Kind, result.Query.Value)
		return err
	}

	if result.Ambiguity != nil {
		fmt.Fprintf(w, "Warning: %s maps to %d LEIs: %s\n\n",
			result.Ambiguity.ISIN, len(result.Ambiguity.LEIs), strings.Join(result.Ambiguity.LEIs, ", "))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tLEI\tLEGAL NAME\tSOURCE\tSCORE")
	for _, c := range result.Candidates {
		name := c.LegalName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\n", c.Rank, c.LEI, name, c.MatchSource, c.SimilarityScore)
	}
	return tw.Flush()
}

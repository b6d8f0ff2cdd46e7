package entities

import (
	"fmt"
	"strings"
)

// MatchSource records which signal produced a candidate.
type MatchSource string

// Match sources. EXACT candidates always rank ahead of SEMANTIC ones.
const (
	MatchExact    MatchSource = "EXACT"
	MatchSemantic MatchSource = "SEMANTIC"
)

// MatchCandidate is one ranked answer to a resolution query.
type MatchCandidate struct {
	LEI             string      `json:"lei"`
	LegalName       string      `json:"legal_name"`
	SimilarityScore float64     `json:"similarity_score"`
	MatchSource     MatchSource `json:"match_source"`
	Rank            int         `json:"rank"`

	// Ambiguous is set on EXACT candidates whose ISIN mapped to several LEIs.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

func (c MatchCandidate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s (%s, %.4f)", c.Rank, c.LEI, c.LegalName, c.MatchSource, c.SimilarityScore)
	if c.Ambiguous {
		b.WriteString(" [ambiguous]")
	}
	return b.String()
}

// EmbeddingDocument is the vector-store record for one entity. Re-indexing an
// LEI supersedes its previous document.
type EmbeddingDocument struct {
	LEI    string    `json:"lei"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector,omitempty"`
}

// Neighbor is one vector-store hit. Distance is cosine distance in [0, 2].
type Neighbor struct {
	LEI      string  `json:"lei"`
	Distance float64 `json:"distance"`
}

// Similarity converts the distance to a score in [0, 1].
func (n Neighbor) Similarity() float64 {
	return ClampScore(1 - n.Distance)
}

// ClampScore clamps s to [0, 1].
func ClampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// AmbiguityOf returns an *AmbiguousMappingError when candidates hold more than
// one EXACT match for isin, and nil otherwise.
func AmbiguityOf(isin string, candidates []MatchCandidate) error {
	var leis []string
	for _, c := range candidates {
		if c.MatchSource == MatchExact {
			leis = append(leis, c.LEI)
		}
	}
	if len(leis) < 2 {
		return nil
	}
	return &AmbiguousMappingError{ISIN: isin, LEIs: leis}
}

package services

import (
	"cmp"
	"slices"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// RankMatches fuses relational anchors and semantic neighbors into one
// ranked list of at most topK candidates.
//
// Anchors come first as EXACT matches scored 1.0, ordered by LEI. Neighbors
// are deduplicated against the anchors and each other (keeping the best
// score), then ordered by descending similarity and ascending LEI. Semantic
// candidates carry no legal name; callers fill it in after truncation.
func RankMatches(anchors []*entities.Entity, neighbors []entities.Neighbor, topK int) []entities.MatchCandidate {
	if topK <= 0 {
		return []entities.MatchCandidate{}
	}

	ambiguous := len(anchors) > 1
	seen := make(map[string]bool, len(anchors)+len(neighbors))
	out := make([]entities.MatchCandidate, 0, min(topK, len(anchors)+len(neighbors)))

	exact := slices.Clone(anchors)
	slices.SortFunc(exact, func(a, b *entities.Entity) int { return cmp.Compare(a.LEI, b.LEI) })
	for _, a := range exact {
		if a == nil || seen[a.LEI] {
			continue
		}
		seen[a.LEI] = true
		out = append(out, entities.MatchCandidate{
			LEI:             a.LEI,
			LegalName:       a.LegalName,
			SimilarityScore: 1.0,
			MatchSource:     entities.MatchExact,
			Ambiguous:       ambiguous,
		})
	}

	best := make(map[string]float64, len(neighbors))
	for _, n := range neighbors {
		if n.LEI == "" || seen[n.LEI] {
			continue
		}
		score := n.Similarity()
		if prev, ok := best[n.LEI]; !ok || score > prev {
			best[n.LEI] = score
		}
	}

	semantic := make([]entities.MatchCandidate, 0, len(best))
	for lei, score := range best {
		semantic = append(semantic, entities.MatchCandidate{
			LEI:             lei,
			SimilarityScore: score,
			MatchSource:     entities.MatchSemantic,
		})
	}
	slices.SortFunc(semantic, compareSemantic)

	out = append(out, semantic...)
	if len(out) > topK {
		out = out[:topK]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// compareSemantic orders by descending score, then ascending LEI.
func compareSemantic(a, b entities.MatchCandidate) int {
	if c := cmp.Compare(b.SimilarityScore, a.SimilarityScore); c != 0 {
		return c
	}
	return cmp.Compare(a.LEI, b.LEI)
}

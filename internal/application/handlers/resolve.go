package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/services"
)

// ResolveHandler handles resolution queries.
type ResolveHandler struct {
	resolution *services.ResolutionService
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(resolution *services.ResolutionService) *ResolveHandler {
	return &ResolveHandler{
		resolution: resolution,
	}
}

// ResolveResult contains the result of a resolution.
type ResolveResult struct {
	Query      entities.Query
	Input      string
	Kind       entities.QueryKind
	Candidates []entities.MatchCandidate

	// Ambiguity is set when an ISIN mapped to several LEIs.
	Ambiguity *entities.AmbiguousMappingError
}

// Handle classifies raw as an ISIN or a name and resolves it.
func (h *ResolveHandler) Handle(ctx context.Context, raw string, topK int) (*ResolveResult, error) {
	q := entities.ParseQuery(raw)

	candidates, err := h.resolution.Resolve(ctx, q, topK)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", q, err)
	}

	result := &ResolveResult{
		Query:      q,
		Input:      raw,
		Kind:       q.Kind,
		Candidates: candidates,
	}
	if q.Kind == entities.QueryISIN {
		var ambiguous *entities.AmbiguousMappingError
		if errors.As(entities.AmbiguityOf(q.Value, candidates), &ambiguous) {
			result.Ambiguity = ambiguous
		}
	}
	return result, nil
}

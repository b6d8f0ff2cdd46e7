package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/services"
)

// EnrichHandler fills missing industry codes and, optionally, re-embeds the
// entities whose template text changed as a result.
type EnrichHandler struct {
	enrichment *services.EnrichmentService
	indexing   *services.IndexingService
}

// NewEnrichHandler creates a new enrich handler. indexing may be nil, in
// which case Reindex is ignored.
func NewEnrichHandler(enrichment *services.EnrichmentService, indexing *services.IndexingService) *EnrichHandler {
	return &EnrichHandler{
		enrichment: enrichment,
		indexing:   indexing,
	}
}

// EnrichOptions selects what to enrich.
type EnrichOptions struct {
	All       bool
	BatchSize int
	Reindex   bool
}

// EnrichResult contains the result of an enrichment run.
type EnrichResult struct {
	Entities  []*entities.Entity // set for single LEI and ISIN runs
	Checked   int
	Enriched  []string
	Reindexed int
}

// Handle enriches target, an LEI or an ISIN, or every stored entity when
// opts.All is set.
func (h *EnrichHandler) Handle(ctx context.Context, target string, opts EnrichOptions) (*EnrichResult, error) {
	if opts.All == (target != "") {
		return nil, errors.New("give either an lei or isin, or --all")
	}

	result := &EnrichResult{}
	switch {
	case opts.All:
		stats, err := h.enrichment.EnrichAll(ctx, opts.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("enriching all entities: %w", err)
		}
		result.Checked = stats.Checked
		result.Enriched = stats.Enriched

	case entities.LooksLikeISIN(target):
		list, changed, err := h.enrichment.EnrichISIN(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("enriching isin: %w", err)
		}
		result.Entities = list
		result.Checked = len(list)
		result.Enriched = changed

	default:
		entity, changed, err := h.enrichment.Enrich(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("enriching lei: %w", err)
		}
		result.Entities = []*entities.Entity{entity}
		result.Checked = 1
		if changed {
			result.Enriched = []string{entity.LEI}
		}
	}

	if opts.Reindex && h.indexing != nil {
		for _, lei := range result.Enriched {
			if _, err := h.indexing.IndexLEI(ctx, lei); err != nil {
				return result, fmt.Errorf("reindexing %s: %w", lei, err)
			}
			result.Reindexed++
		}
	}
	return result, nil
}

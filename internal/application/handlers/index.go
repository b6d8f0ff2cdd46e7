package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/lei-resolver/internal/domain/ports"
	"github.com/ersonp/lei-resolver/internal/domain/services"
)

// IndexHandler handles (re-)embedding entities into the vector index.
type IndexHandler struct {
	indexing *services.IndexingService
	index    ports.VectorIndex
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(indexing *services.IndexingService, index ports.VectorIndex) *IndexHandler {
	return &IndexHandler{
		indexing: indexing,
		index:    index,
	}
}

// IndexOptions selects what to index. Exactly one field must be set.
type IndexOptions struct {
	LEI       string
	ISIN      string
	All       bool
	BatchSize int // zero uses services.DefaultIndexBatchSize
}

// IndexResult contains the result of an indexing run.
type IndexResult struct {
	Indexed   int
	LEIs      []string // set for single-LEI and ISIN runs
	Batches   int
	Documents uint64 // total documents in the index afterwards
}

// Handle runs the selected indexing operation.
func (h *IndexHandler) Handle(ctx context.Context, opts IndexOptions) (*IndexResult, error) {
	selected := 0
	for _, set := range []bool{opts.LEI != "", opts.ISIN != "", opts.All} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return nil, errors.New("exactly one of lei, isin or all must be given")
	}

	result := &IndexResult{}
	switch {
	case opts.LEI != "":
		doc, err := h.indexing.IndexLEI(ctx, opts.LEI)
		if err != nil {
			return nil, fmt.Errorf("indexing lei: %w", err)
		}
		result.Indexed = 1
		result.LEIs = []string{doc.LEI}
	case opts.ISIN != "":
		docs, err := h.indexing.IndexISIN(ctx, opts.ISIN)
		if err != nil {
			return nil, fmt.Errorf("indexing isin: %w", err)
		}
		for _, d := range docs {
			result.LEIs = append(result.LEIs, d.LEI)
		}
		result.Indexed = len(docs)
	default:
		stats, err := h.indexing.IndexAll(ctx, opts.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("indexing all entities: %w", err)
		}
		result.Indexed = stats.Indexed
		result.Batches = stats.Batches
	}

	count, err := h.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	result.Documents = count
	return result, nil
}

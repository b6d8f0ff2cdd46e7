// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// InitHandler prepares both stores for use.
type InitHandler struct {
	relationalDB      ports.RelationalDB
	collectionManager ports.CollectionManager
	vectorSize        uint64
}

// NewInitHandler creates a new init handler. vectorSize must match the
// configured embedder's dimension.
func NewInitHandler(relationalDB ports.RelationalDB, collectionManager ports.CollectionManager, vectorSize int) *InitHandler {
	return &InitHandler{
		relationalDB:      relationalDB,
		collectionManager: collectionManager,
		vectorSize:        uint64(max(vectorSize, 0)),
	}
}

// InitOptions controls initialization.
type InitOptions struct {
	// Recreate drops the schema and the vector collection first.
	Recreate bool
}

// InitResult contains the result of initialization.
type InitResult struct {
	VectorSize uint64
	Recreated  bool
	Entities   int
}

// Handle creates the relational schema and the vector collection.
func (h *InitHandler) Handle(ctx context.Context, opts InitOptions) (*InitResult, error) {
	if h.vectorSize == 0 {
		return nil, errors.New("vector size must be positive")
	}

	if opts.Recreate {
		if err := h.collectionManager.DeleteCollection(ctx); err != nil {
			return nil, fmt.Errorf("deleting collection: %w", err)
		}
		if err := h.relationalDB.DropSchema(ctx); err != nil {
			return nil, fmt.Errorf("dropping schema: %w", err)
		}
	}

	if err := h.relationalDB.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := h.collectionManager.EnsureCollection(ctx, h.vectorSize); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	count, err := h.relationalDB.CountEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}

	return &InitResult{
		VectorSize: h.vectorSize,
		Recreated:  opts.Recreate,
		Entities:   count,
	}, nil
}

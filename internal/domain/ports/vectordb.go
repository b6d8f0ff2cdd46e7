package ports

import (
	"context"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// VectorIndex defines the interface for the entity embedding store.
// Documents are keyed by LEI; a second upsert for the same LEI replaces the
// first. Infrastructure failures are wrapped with entities.ErrStoreUnavailable.
type VectorIndex interface {
	// Upsert stores or replaces the document for doc.LEI.
	Upsert(ctx context.Context, doc entities.EmbeddingDocument) error

	// UpsertBatch stores or replaces several documents.
	UpsertBatch(ctx context.Context, docs []entities.EmbeddingDocument) error

	// QueryNearest returns up to topK neighbors ordered by ascending distance.
	QueryNearest(ctx context.Context, vector []float32, topK int) ([]entities.Neighbor, error)

	// Delete removes the document for lei.
	Delete(ctx context.Context, lei string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (uint64, error)
}

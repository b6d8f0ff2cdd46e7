package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/ports"
)

// VectorIndexClient validates and normalizes traffic to the vector store.
// It only handles vectors it is given; it never embeds text itself.
type VectorIndexClient struct {
	index ports.VectorIndex
}

// NewVectorIndexClient wraps index.
func NewVectorIndexClient(index ports.VectorIndex) *VectorIndexClient {
	return &VectorIndexClient{index: index}
}

// Upsert stores the vector for lei, replacing any previous one.
func (c *VectorIndexClient) Upsert(ctx context.Context, lei string, vector []float32, text string) error {
	doc := entities.EmbeddingDocument{
		LEI:    entities.NormalizeIdentifier(lei),
		Text:   text,
		Vector: vector,
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	if err := c.index.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("upserting embedding: %w", err)
	}
	return nil
}

// UpsertBatch stores several documents. All documents are validated before
// anything is written.
func (c *VectorIndexClient) UpsertBatch(ctx context.Context, docs []entities.EmbeddingDocument) error {
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		docs[i].LEI = entities.NormalizeIdentifier(docs[i].LEI)
		if err := validateDocument(docs[i]); err != nil {
			return err
		}
	}

	if err := c.index.UpsertBatch(ctx, docs); err != nil {
		return fmt.Errorf("upserting embeddings: %w", err)
	}
	return nil
}

// QueryNearest returns at most topK neighbors sorted by ascending distance,
// ties broken by ascending LEI.
func (c *VectorIndexClient) QueryNearest(ctx context.Context, vector []float32, topK int) ([]entities.Neighbor, error) {
	if topK <= 0 {
		return nil, entities.NewValidationError("top_k", "must be positive, got %d", topK)
	}
	if len(vector) == 0 {
		return nil, entities.NewValidationError("vector", "must not be empty")
	}

	neighbors, err := c.index.QueryNearest(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying nearest neighbors: %w", err)
	}

	slices.SortStableFunc(neighbors, func(a, b entities.Neighbor) int {
		if d := cmp.Compare(a.Distance, b.Distance); d != 0 {
			return d
		}
		return cmp.Compare(a.LEI, b.LEI)
	})
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}
	return neighbors, nil
}

func validateDocument(doc entities.EmbeddingDocument) error {
	if err := entities.ValidateLEI(doc.LEI); err != nil {
		return err
	}
	if len(doc.Vector) == 0 {
		return entities.NewValidationError("vector", "must not be empty for %s", doc.LEI)
	}
	return nil
}

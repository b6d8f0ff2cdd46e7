package ports

import "context"

// Embedder wraps the external embedding capability. Every vector it returns
// has the same dimension, which must match the vector collection.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the length of the vectors produced.
	Dimension() int
}

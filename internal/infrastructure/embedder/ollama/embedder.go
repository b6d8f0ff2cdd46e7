// Package ollama provides an Embedder backed by a local Ollama server through
// langchaingo.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
)

// DefaultServerURL is used when the config leaves base_url empty.
const DefaultServerURL = "http://localhost:11434"

// Embedder wraps langchaingo embeddings with dimension validation.
type Embedder struct {
	model     embeddings.Embedder
	dimension int
	modelName string
	logger    *slog.Logger
}

// NewEmbedder creates an Ollama embedder from configuration.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("ollama embedding model is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("ollama embedding dimension is required")
	}

	serverURL := cfg.BaseURL
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	model, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return newEmbedder(model, cfg.Model, cfg.Dimension), nil
}

func newEmbedder(model embeddings.Embedder, name string, dimension int) *Embedder {
	return &Embedder{
		model:     model,
		dimension: dimension,
		modelName: name,
		logger:    slog.Default().With("component", "ollama-embedder"),
	}
}

// Dimension returns the expected embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors, err := e.model.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Warn("embedding failed", "model", e.modelName, "count", len(texts), "error", err)
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	e.logger.Debug("embedded texts", "model", e.modelName, "count", len(texts), "duration_ms", time.Since(start).Milliseconds())

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("count mismatch: got %d, want %d", len(vectors), len(texts))
	}

	for i, v := range vectors {
		if len(v) != e.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", i, len(v), e.dimension)
		}
	}

	return vectors, nil
}

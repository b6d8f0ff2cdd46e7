// Package openai provides an Embedder implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
)

// VectorSize is the dimension of text-embedding-3-small vectors.
const VectorSize = 1536

// Embedder implements the Embedder interface using OpenAI.
type Embedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	logger    *slog.Logger
}

// NewEmbedder creates a new OpenAI embedder. cfg.BaseURL redirects it to an
// OpenAI-compatible server.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = VectorSize
	}

	return &Embedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		dimension: dimension,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// Dimension returns the length of the vectors produced.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	return embeddings[0], nil
}

// EmbedBatch generates vector embeddings for multiple texts, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Model: e.model,
		Input: texts,
	}
	// Only the v3 models accept a shortened output dimension.
	if strings.HasPrefix(string(e.model), "text-embedding-3") && e.dimension != VectorSize {
		req.Dimensions = e.dimension
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		e.logger.Warn("embedding failed", "model", e.model, "count", len(texts), "error", err)
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	e.logger.Debug("embedded texts", "model", e.model, "count", len(texts), "duration_ms", time.Since(start).Milliseconds())

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		if len(data.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", data.Index, len(data.Embedding), e.dimension)
		}
		embeddings[data.Index] = data.Embedding
	}

	return embeddings, nil
}

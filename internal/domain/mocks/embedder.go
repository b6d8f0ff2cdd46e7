// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"
)

// Embedder is a mock implementation of ports.Embedder.
// Vectors maps exact texts to vectors; other texts get EmbeddingResult.
type Embedder struct {
	EmbeddingResult []float32
	Vectors         map[string][]float32
	Err             error

	mu    sync.Mutex
	Texts []string
}

// Embed returns the configured embedding or error.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.record(text)
	return m.vectorFor(text), nil
}

// EmbedBatch returns embeddings for multiple texts.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		m.record(text)
		result[i] = m.vectorFor(text)
	}
	return result, nil
}

// Dimension returns the length of EmbeddingResult.
func (m *Embedder) Dimension() int {
	return len(m.EmbeddingResult)
}

// EmbeddedTexts returns every text seen so far.
func (m *Embedder) EmbeddedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Texts))
	copy(out, m.Texts)
	return out
}

func (m *Embedder) record(text string) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.mu.Unlock()
}

func (m *Embedder) vectorFor(text string) []float32 {
	if v, ok := m.Vectors[text]; ok {
		return v
	}
	return m.EmbeddingResult
}

package mocks

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

// VectorIndex is an in-memory implementation of ports.VectorIndex using
// cosine distance. It also satisfies ports.CollectionManager.
type VectorIndex struct {
	Err error

	// Collection errors (separate from Err for fine-grained control)
	EnsureCollectionErr error
	DeleteCollectionErr error

	mu   sync.Mutex
	docs map[string]entities.EmbeddingDocument

	// Call tracking
	UpsertCallCount           int
	QueryCallCount            int
	LastQueryTopK             int
	EnsureCollectionCallCount int
	DeleteCollectionCallCount int
	VectorSize                uint64
}

// NewVectorIndex creates an index seeded with docs.
func NewVectorIndex(docs ...entities.EmbeddingDocument) *VectorIndex {
	m := &VectorIndex{docs: make(map[string]entities.EmbeddingDocument)}
	for _, d := range docs {
		m.docs[d.LEI] = d
	}
	return m
}

// EnsureCollection records the requested vector size.
func (m *VectorIndex) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureCollectionCallCount++
	m.VectorSize = vectorSize
	return m.EnsureCollectionErr
}

// DeleteCollection drops every document.
func (m *VectorIndex) DeleteCollection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCollectionCallCount++
	if m.DeleteCollectionErr != nil {
		return m.DeleteCollectionErr
	}
	m.docs = make(map[string]entities.EmbeddingDocument)
	return nil
}

// Upsert replaces the document for doc.LEI.
func (m *VectorIndex) Upsert(ctx context.Context, doc entities.EmbeddingDocument) error {
	return m.UpsertBatch(ctx, []entities.EmbeddingDocument{doc})
}

// UpsertBatch replaces the documents for each LEI.
func (m *VectorIndex) UpsertBatch(ctx context.Context, docs []entities.EmbeddingDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCallCount++
	if m.Err != nil {
		return m.Err
	}
	if m.docs == nil {
		m.docs = make(map[string]entities.EmbeddingDocument)
	}
	for _, d := range docs {
		d.Vector = slices.Clone(d.Vector)
		m.docs[d.LEI] = d
	}
	return nil
}

// QueryNearest ranks every stored document by cosine distance.
func (m *VectorIndex) QueryNearest(ctx context.Context, vector []float32, topK int) ([]entities.Neighbor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCallCount++
	m.LastQueryTopK = topK
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]entities.Neighbor, 0, len(m.docs))
	for lei, d := range m.docs {
		out = append(out, entities.Neighbor{LEI: lei, Distance: 1 - CosineSimilarity(vector, d.Vector)})
	}
	slices.SortFunc(out, func(a, b entities.Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.LEI, b.LEI)
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Delete removes the document for lei.
func (m *VectorIndex) Delete(ctx context.Context, lei string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.docs, lei)
	return nil
}

// Count returns the number of stored documents.
func (m *VectorIndex) Count(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.docs)), nil
}

// Document returns the stored document for lei.
func (m *VectorIndex) Document(lei string) (entities.EmbeddingDocument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[lei]
	return d, ok
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 when the
// lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

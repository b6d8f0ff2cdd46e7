package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/mocks"
)

func TestVectorIndexClient_QueryNearest(t *testing.T) {
	idx := mocks.NewVectorIndex()
	client := NewVectorIndexClient(idx)
	ctx := t.Context()

	for lei, v := range testVectors {
		require.NoError(t, client.Upsert(ctx, lei, v, lei))
	}

	t.Run("never more than topK and sorted", func(t *testing.T) {
		for topK := 1; topK <= 6; topK++ {
			got, err := client.QueryNearest(ctx, []float32{1, 0, 0}, topK)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), topK)
			assert.Len(t, got, min(topK, len(testVectors)))
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Similarity(), got[i].Similarity())
			}
		}
	})

	t.Run("nearest first", func(t *testing.T) {
		got, err := client.QueryNearest(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, appleLEI, got[0].LEI)
		assert.InDelta(t, 1.0, got[0].Similarity(), 1e-6)
		assert.Equal(t, dellLEI, got[1].LEI)
	})

	t.Run("topK must be positive", func(t *testing.T) {
		before := idx.QueryCallCount
		_, err := client.QueryNearest(ctx, []float32{1, 0, 0}, 0)
		assert.True(t, entities.IsValidationError(err))
		assert.Equal(t, before, idx.QueryCallCount)
	})

	t.Run("empty vector rejected", func(t *testing.T) {
		_, err := client.QueryNearest(ctx, nil, 3)
		assert.True(t, entities.IsValidationError(err))
	})
}

func TestVectorIndexClient_UpsertLastWriteWins(t *testing.T) {
	idx := mocks.NewVectorIndex()
	client := NewVectorIndexClient(idx)
	ctx := t.Context()

	require.NoError(t, client.Upsert(ctx, appleLEI, []float32{1, 0, 0}, "first"))
	require.NoError(t, client.Upsert(ctx, appleLEI, []float32{0, 1, 0}, "second"))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	got, err := client.QueryNearest(ctx, []float32{0, 1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, appleLEI, got[0].LEI)
	assert.InDelta(t, 1.0, got[0].Similarity(), 1e-6)

	doc, ok := idx.Document(appleLEI)
	require.True(t, ok)
	assert.Equal(t, "second", doc.Text)
}

func TestVectorIndexClient_UpsertValidation(t *testing.T) {
	idx := mocks.NewVectorIndex()
	client := NewVectorIndexClient(idx)

	err := client.Upsert(t.Context(), "short", []float32{1}, "")
	assert.True(t, entities.IsValidationError(err))

	err = client.Upsert(t.Context(), appleLEI, nil, "")
	assert.True(t, entities.IsValidationError(err))

	err = client.UpsertBatch(t.Context(), []entities.EmbeddingDocument{
		{LEI: appleLEI, Vector: []float32{1}},
		{LEI: "bad", Vector: []float32{1}},
	})
	assert.True(t, entities.IsValidationError(err))
	assert.Zero(t, idx.UpsertCallCount)
}

func TestVectorIndexClient_StoreUnavailable(t *testing.T) {
	idx := mocks.NewVectorIndex()
	idx.Err = entities.StoreUnavailable("searching points", errors.New("dial tcp: connection refused"))
	client := NewVectorIndexClient(idx)

	err := client.Upsert(t.Context(), appleLEI, []float32{1}, "")
	assert.ErrorIs(t, err, entities.ErrStoreUnavailable)

	_, err = client.QueryNearest(t.Context(), []float32{1}, 1)
	assert.ErrorIs(t, err, entities.ErrStoreUnavailable)
}

func TestVectorIndexClient_PassesThroughUnclassifiedErrors(t *testing.T) {
	idx := mocks.NewVectorIndex()
	idx.Err = context.Canceled
	client := NewVectorIndexClient(idx)

	_, err := client.QueryNearest(t.Context(), []float32{1}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, entities.ErrStoreUnavailable)

	err = client.Upsert(t.Context(), appleLEI, []float32{1}, "")
	assert.NotErrorIs(t, err, entities.ErrStoreUnavailable)
}

// unorderedIndex returns neighbors in the wrong order and more than asked.
type unorderedIndex struct {
	*mocks.VectorIndex
}

func (u unorderedIndex) QueryNearest(ctx context.Context, vector []float32, topK int) ([]entities.Neighbor, error) {
	return []entities.Neighbor{
		{LEI: siemensLEI, Distance: 0.9},
		{LEI: dellLEI, Distance: 0.1},
		{LEI: appleLEI, Distance: 0.1},
	}, nil
}

func TestVectorIndexClient_NormalizesOrder(t *testing.T) {
	client := NewVectorIndexClient(unorderedIndex{mocks.NewVectorIndex()})

	got, err := client.QueryNearest(t.Context(), []float32{1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, dellLEI, got[0].LEI)
	assert.Equal(t, appleLEI, got[1].LEI)
}

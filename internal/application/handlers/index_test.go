package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
)

func TestIndexHandler_Handle(t *testing.T) {
	t.Run("single lei", func(t *testing.T) {
		p := newTestPipeline(t)
		result, err := NewIndexHandler(p.indexing, p.index).Handle(t.Context(), IndexOptions{LEI: dellLEI})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
		assert.Equal(t, []string{dellLEI}, result.LEIs)
		assert.Equal(t, uint64(1), result.Documents)
	})

	t.Run("isin", func(t *testing.T) {
		p := newTestPipeline(t)
		result, err := NewIndexHandler(p.indexing, p.index).Handle(t.Context(), IndexOptions{ISIN: appleISIN})
		require.NoError(t, err)
		assert.Equal(t, []string{appleLEI}, result.LEIs)

		doc, ok := p.index.Document(appleLEI)
		require.True(t, ok)
		assert.Equal(t, testVectors[appleLEI], doc.Vector)
	})

	t.Run("all", func(t *testing.T) {
		p := newTestPipeline(t)
		result, err := NewIndexHandler(p.indexing, p.index).Handle(t.Context(), IndexOptions{All: true, BatchSize: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, result.Indexed)
		assert.Equal(t, 2, result.Batches)
		assert.Equal(t, uint64(4), result.Documents)
	})

	t.Run("unknown lei", func(t *testing.T) {
		p := newTestPipeline(t)
		_, err := NewIndexHandler(p.indexing, p.index).Handle(t.Context(), IndexOptions{LEI: "529900T8BM49AURSDO55"})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("vector store down", func(t *testing.T) {
		p := newTestPipeline(t)
		p.index.Err = entities.StoreUnavailable("upsert", errors.New("connection refused"))
		_, err := NewIndexHandler(p.indexing, p.index).Handle(t.Context(), IndexOptions{All: true})
		assert.ErrorIs(t, err, entities.ErrStoreUnavailable)
	})
}

func TestIndexHandler_Handle_Selection(t *testing.T) {
	p := newTestPipeline(t)
	handler := NewIndexHandler(p.indexing, p.index)

	for _, opts := range []IndexOptions{
		{},
		{LEI: appleLEI, All: true},
		{LEI: appleLEI, ISIN: appleISIN},
	} {
		_, err := handler.Handle(t.Context(), opts)
		assert.Error(t, err)
	}
	assert.Zero(t, p.index.UpsertCallCount)
}

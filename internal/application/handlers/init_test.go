package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/mocks"
)

func TestNewInitHandler(t *testing.T) {
	db := mocks.NewRelationalDB()
	idx := mocks.NewVectorIndex()

	handler := NewInitHandler(db, idx, 1536)

	require.NotNil(t, handler)
	assert.Equal(t, db, handler.relationalDB)
	assert.Equal(t, uint64(1536), handler.vectorSize)
}

func TestInitHandler_Handle_Success(t *testing.T) {
	db := mocks.NewRelationalDB(testEntities(t)...)
	idx := mocks.NewVectorIndex()

	result, err := NewInitHandler(db, idx, 3).Handle(t.Context(), InitOptions{})

	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.VectorSize)
	assert.Equal(t, 4, result.Entities)
	assert.False(t, result.Recreated)
	assert.Equal(t, 1, idx.EnsureCollectionCallCount)
	assert.Equal(t, uint64(3), idx.VectorSize)
	assert.Zero(t, idx.DeleteCollectionCallCount)
}

func TestInitHandler_Handle_Recreate(t *testing.T) {
	db := mocks.NewRelationalDB(testEntities(t)...)
	idx := mocks.NewVectorIndex()

	result, err := NewInitHandler(db, idx, 3).Handle(t.Context(), InitOptions{Recreate: true})

	require.NoError(t, err)
	assert.True(t, result.Recreated)
	assert.Zero(t, result.Entities)
	assert.Equal(t, 1, idx.DeleteCollectionCallCount)
	assert.Equal(t, 1, idx.EnsureCollectionCallCount)
}

func TestInitHandler_Handle_CollectionError(t *testing.T) {
	idx := mocks.NewVectorIndex()
	idx.EnsureCollectionErr = errors.New("connection failed")

	_, err := NewInitHandler(mocks.NewRelationalDB(), idx, 3).Handle(t.Context(), InitOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")
	assert.Contains(t, err.Error(), "connection failed")
}

func TestInitHandler_Handle_SchemaError(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = errors.New("database is locked")
	idx := mocks.NewVectorIndex()

	_, err := NewInitHandler(db, idx, 3).Handle(t.Context(), InitOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating schema")
	assert.Zero(t, idx.EnsureCollectionCallCount)
}

func TestInitHandler_Handle_ZeroVectorSize(t *testing.T) {
	_, err := NewInitHandler(mocks.NewRelationalDB(), mocks.NewVectorIndex(), 0).Handle(t.Context(), InitOptions{})
	assert.Error(t, err)
}

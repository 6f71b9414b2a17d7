package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
)

func openBolt(t *testing.T) *BoltIndex {
	t.Helper()
	idx, err := NewBoltIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func samplePoints() []domain.IndexedPoint {
	return []domain.IndexedPoint{
		{ID: domain.NumericID(0), Vector: []float32{1, 0, 0}, Payload: map[string]any{"text": "install"}},
		{ID: domain.NumericID(1), Vector: []float32{0, 1, 0}, Payload: map[string]any{"text": "license"}},
		{ID: domain.NumericID(2), Vector: []float32{0.9, 0.1, 0}, Payload: map[string]any{"text": "setup", "chunk_index": 3}},
	}
}

func TestBoltIndex_Lifecycle(t *testing.T) {
	ctx := context.Background()
	idx := openBolt(t)

	err := idx.DeleteCollection(ctx, "docs")
	assert.True(t, errors.Is(err, domain.ErrCollectionNotFound))

	require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
	info, err := idx.Info("docs")
	require.NoError(t, err)
	assert.Equal(t, CollectionInfo{SchemaVersion: SchemaVersion, VectorSize: 3, Distance: "Cosine"}, info)

	err = idx.CreateCollection(ctx, "docs", 3)
	assert.True(t, errors.Is(err, domain.ErrIndexMutation))

	require.NoError(t, idx.Upsert(ctx, "docs", samplePoints()))
	count, err := idx.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// upsert replaces by id
	require.NoError(t, idx.Upsert(ctx, "docs", samplePoints()[:1]))
	count, err = idx.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, idx.DeleteCollection(ctx, "docs"))
	_, err = idx.Count(ctx, "docs")
	assert.True(t, errors.Is(err, domain.ErrCollectionNotFound))
}

func TestBoltIndex_SearchSelfIsTop(t *testing.T) {
	ctx := context.Background()
	idx := openBolt(t)
	require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
	require.NoError(t, idx.Upsert(ctx, "docs", samplePoints()))

	for _, p := range samplePoints() {
		results, err := idx.Search(ctx, "docs", p.Vector, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, p.ID, results[0].ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	}

	results, err := idx.Search(ctx, "docs", []float32{0.9, 0.1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "setup", results[0].Text())
	assert.Equal(t, float64(3), results[0].Payload["chunk_index"])
}

func TestBoltIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := openBolt(t)
	require.NoError(t, idx.CreateCollection(ctx, "docs", 3))

	err := idx.Upsert(ctx, "docs", []domain.IndexedPoint{{ID: domain.NumericID(0), Vector: []float32{1, 0}}})
	assert.True(t, errors.Is(err, domain.ErrIndexMutation))

	_, err = idx.Search(ctx, "docs", []float32{1}, 5)
	assert.Error(t, err)
}

func TestBoltIndex_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := NewBoltIndex(path)
	require.NoError(t, err)
	require.NoError(t, idx.CreateCollection(ctx, "docs", 3))
	require.NoError(t, idx.Upsert(ctx, "docs", []domain.IndexedPoint{
		{ID: domain.UUIDPointID("7c9e6679-7425-40de-944b-e07fc1f90ae7"), Vector: []float32{0, 0, 1}},
	}))
	require.NoError(t, idx.Close())

	idx, err = NewBoltIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(ctx, "docs", []float32{0, 0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", results[0].ID.String())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 1}))
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(3)
	require.NoError(t, s.EnsureCollection(context.Background()))
	return s
}

func rec(chunkID, docID, modelName string, embedding []float32) *VectorRecord {
	return &VectorRecord{
		ChunkID:      chunkID,
		DocumentID:   docID,
		DocumentName: docID + ".txt",
		ModelName:    modelName,
		Content:      "content of " + chunkID,
		Embedding:    embedding,
	}
}

func TestMemoryStoreSearchRanking(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []*VectorRecord{
		rec("c1", "d1", "m", []float32{1, 0, 0}),
		rec("c2", "d1", "m", []float32{0.9, 0.1, 0}),
		rec("c3", "d2", "m", []float32{0, 1, 0}),
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, "m", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// 完全匹配排第一，相似度为 1
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
	assert.Equal(t, "c2", hits[1].ChunkID)
	// 正交向量相似度为 0
	assert.Equal(t, "c3", hits[2].ChunkID)
	assert.InDelta(t, 0.0, float64(hits[2].Score), 1e-6)
}

func TestMemoryStoreTopK(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []*VectorRecord{
		rec("c1", "d1", "m", []float32{1, 0, 0}),
		rec("c2", "d1", "m", []float32{0.9, 0.1, 0}),
		rec("c3", "d1", "m", []float32{0.8, 0.2, 0}),
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, "m", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMemoryStoreModelFilter(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []*VectorRecord{
		rec("c1", "d1", "model-a", []float32{1, 0, 0}),
		rec("c2", "d1", "model-b", []float32{1, 0, 0}),
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, "model-a", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestMemoryStoreTieBreak(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	// 相同向量，相似度并列，按 ChunkID 升序
	require.NoError(t, s.Insert(ctx, []*VectorRecord{
		rec("c9", "d1", "m", []float32{1, 0, 0}),
		rec("c1", "d1", "m", []float32{1, 0, 0}),
		rec("c5", "d1", "m", []float32{1, 0, 0}),
	}))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, "m", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c5", hits[1].ChunkID)
	assert.Equal(t, "c9", hits[2].ChunkID)
}

func TestMemoryStoreDimensionValidation(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	err := s.Insert(ctx, []*VectorRecord{rec("c1", "d1", "m", []float32{1, 0})})
	require.Error(t, err)
	assert.ErrorIs(t, err, huberrors.ErrVectorDimension)

	_, err = s.Search(ctx, []float32{1, 0, 0, 0}, "m", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, huberrors.ErrVectorDimension)
}

func TestMemoryStoreDeleteByDocument(t *testing.T) {
	s := newTestMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []*VectorRecord{
		rec("c1", "d1", "m", []float32{1, 0, 0}),
		rec("c2", "d2", "m", []float32{0, 1, 0}),
	}))

	require.NoError(t, s.DeleteByDocument(ctx, "d1"))

	count, err := s.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	hits, err := s.Search(ctx, []float32{1, 0, 0}, "m", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

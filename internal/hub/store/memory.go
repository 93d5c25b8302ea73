package store

import (
	"context"
	"math"
	"sync"

	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

// MemoryStore 是内存向量索引实现，用于开发与测试环境。
// 检索结果与 Milvus 实现遵循相同的排序约定。
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   []*VectorRecord
}

var _ VectorStore = (*MemoryStore)(nil)

// NewMemoryStore 创建内存向量索引。
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension}
}

// EnsureCollection 对内存实现是空操作。
func (s *MemoryStore) EnsureCollection(ctx context.Context) error {
	return nil
}

// Insert 批量写入向量记录。
func (s *MemoryStore) Insert(ctx context.Context, records []*VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return huberrors.ErrVectorDimension.WithMessagef(
				"embedding dimension %d does not match collection dimension %d", len(r.Embedding), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Search 全量计算余弦相似度后取 topK。
func (s *MemoryStore) Search(ctx context.Context, embedding []float32, modelName string, topK int) ([]*VectorHit, error) {
	if len(embedding) != s.dimension {
		return nil, huberrors.ErrVectorDimension.WithMessagef(
			"query dimension %d does not match collection dimension %d", len(embedding), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]*VectorHit, 0, len(s.records))
	for _, r := range s.records {
		if r.ModelName != modelName {
			continue
		}
		hits = append(hits, &VectorHit{
			ChunkID:      r.ChunkID,
			DocumentID:   r.DocumentID,
			DocumentName: r.DocumentName,
			ChunkIndex:   r.ChunkIndex,
			Content:      r.Content,
			Score:        clampScore(cosineSimilarity(embedding, r.Embedding)),
		})
	}

	sortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDocument 删除文档的全部向量。
func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// RowCount 返回向量总数。
func (s *MemoryStore) RowCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Close 对内存实现是空操作。
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// cosineSimilarity 计算两个向量的余弦相似度。
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

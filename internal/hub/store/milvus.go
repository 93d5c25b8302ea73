package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/knowledge-hub/pkg/component/milvus"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

// MilvusStore 实现基于 Milvus 的向量索引。
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

var _ VectorStore = (*MilvusStore)(nil)

// NewMilvusStore 创建 Milvus 向量索引实例。
func NewMilvusStore(client *milvus.Client, collection string, dimension int) *MilvusStore {
	return &MilvusStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureCollection 确保集合存在并已加载。
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "knowledge-hub chunk embeddings",
		Dimension:   s.dimension,
		MetaFields: []milvus.MetaField{
			{Name: "chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "document_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "document_name", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "model_name", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// Insert 批量写入向量记录。
func (s *MilvusStore) Insert(ctx context.Context, records []*VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	embeddings := make([][]float32, len(records))
	metadata := map[string][]any{
		"chunk_id":      make([]any, len(records)),
		"document_id":   make([]any, len(records)),
		"document_name": make([]any, len(records)),
		"chunk_index":   make([]any, len(records)),
		"model_name":    make([]any, len(records)),
		"content":       make([]any, len(records)),
	}

	for i, r := range records {
		if len(r.Embedding) != s.dimension {
			return huberrors.ErrVectorDimension.WithMessagef(
				"embedding dimension %d does not match collection dimension %d", len(r.Embedding), s.dimension)
		}
		embeddings[i] = r.Embedding
		metadata["chunk_id"][i] = r.ChunkID
		metadata["document_id"][i] = r.DocumentID
		metadata["document_name"][i] = r.DocumentName
		metadata["chunk_index"][i] = int64(r.ChunkIndex)
		metadata["model_name"][i] = r.ModelName
		metadata["content"][i] = r.Content
	}

	if _, err := s.client.Insert(ctx, s.collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}); err != nil {
		return huberrors.ErrStorage.WithCause(err)
	}
	return nil
}

// Search 检索 topK 条相似记录，按相似度降序、同分按 ChunkID 升序。
func (s *MilvusStore) Search(ctx context.Context, embedding []float32, modelName string, topK int) ([]*VectorHit, error) {
	if len(embedding) != s.dimension {
		return nil, huberrors.ErrVectorDimension.WithMessagef(
			"query dimension %d does not match collection dimension %d", len(embedding), s.dimension)
	}

	filter := fmt.Sprintf("model_name == %q", modelName)
	outputFields := []string{"chunk_id", "document_id", "document_name", "chunk_index", "content"}

	results, err := s.client.Search(ctx, s.collection, embedding, topK, filter, outputFields)
	if err != nil {
		return nil, huberrors.ErrStorage.WithCause(err)
	}

	hits := make([]*VectorHit, 0, len(results))
	for _, r := range results {
		hit := &VectorHit{Score: clampScore(r.Score)}
		if v, ok := r.Metadata["chunk_id"].(string); ok {
			hit.ChunkID = v
		}
		if v, ok := r.Metadata["document_id"].(string); ok {
			hit.DocumentID = v
		}
		if v, ok := r.Metadata["document_name"].(string); ok {
			hit.DocumentName = v
		}
		if v, ok := r.Metadata["chunk_index"].(int64); ok {
			hit.ChunkIndex = int(v)
		}
		if v, ok := r.Metadata["content"].(string); ok {
			hit.Content = v
		}
		hits = append(hits, hit)
	}

	sortHits(hits)
	return hits, nil
}

// DeleteByDocument 删除文档的全部向量。
func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentID string) error {
	filter := fmt.Sprintf("document_id == %q", documentID)
	if err := s.client.DeleteByFilter(ctx, s.collection, filter); err != nil {
		return huberrors.ErrStorage.WithCause(err)
	}
	return nil
}

// RowCount 返回向量总数。
func (s *MilvusStore) RowCount(ctx context.Context) (int64, error) {
	count, err := s.client.RowCount(ctx, s.collection)
	if err != nil {
		return 0, huberrors.ErrStorage.WithCause(err)
	}
	return count, nil
}

// Close 关闭连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// clampScore 将余弦相似度压缩到 [0, 1]。
func clampScore(score float32) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// sortHits 按相似度降序排列，同分按 ChunkID 升序保证确定性。
func sortHits(hits []*VectorHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

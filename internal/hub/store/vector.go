package store

import (
	"context"
)

// VectorRecord 表示一条待写入向量索引的记录。
type VectorRecord struct {
	// ChunkID 文档块 ID。
	ChunkID string
	// DocumentID 所属文档 ID。
	DocumentID string
	// DocumentName 文档名称。
	DocumentName string
	// ChunkIndex 块在文档中的序号。
	ChunkIndex int
	// ModelName 生成该向量的嵌入模型。
	ModelName string
	// Content 块文本内容。
	Content string
	// Embedding 嵌入向量。
	Embedding []float32
}

// VectorHit 表示一次相似度检索的命中。
type VectorHit struct {
	// ChunkID 文档块 ID。
	ChunkID string
	// DocumentID 所属文档 ID。
	DocumentID string
	// DocumentName 文档名称。
	DocumentName string
	// ChunkIndex 块在文档中的序号。
	ChunkIndex int
	// Content 块文本内容。
	Content string
	// Score 余弦相似度，范围 [0, 1]。
	Score float32
}

// VectorStore 定义向量索引接口。写入时校验维度；检索按相似度降序，
// 同分时按 ChunkID 升序。
type VectorStore interface {
	// EnsureCollection 确保集合存在并可检索。
	EnsureCollection(ctx context.Context) error

	// Insert 批量写入向量记录。
	Insert(ctx context.Context, records []*VectorRecord) error

	// Search 在指定模型的向量中检索 topK 条相似记录。
	Search(ctx context.Context, embedding []float32, modelName string, topK int) ([]*VectorHit, error)

	// DeleteByDocument 删除文档的全部向量。
	DeleteByDocument(ctx context.Context, documentID string) error

	// RowCount 返回向量总数。
	RowCount(ctx context.Context) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}

// Package store 提供文档记录与向量索引的存储层。
package store

import (
	"context"

	"github.com/kart-io/knowledge-hub/internal/model"
)

// Factory 定义关系存储的工厂接口。
type Factory interface {
	Documents() DocumentStore
	Chunks() ChunkStore
	Close() error
}

// DocumentStore 定义文档记录的存储接口。
type DocumentStore interface {
	// Create 创建文档记录。
	Create(ctx context.Context, doc *model.Document) error

	// Get 根据 ID 获取文档。
	Get(ctx context.Context, id string) (*model.Document, error)

	// Update 应用部分更新。nil 字段保持不变；状态被设置为非 error
	// 时同时清空 error_message。
	Update(ctx context.Context, id string, patch *model.DocumentPatch) error

	// Delete 删除文档及其全部块（同一事务）。
	Delete(ctx context.Context, id string) error

	// List 按可选状态过滤分页列出文档，返回总数。
	List(ctx context.Context, status string, offset, limit int) (int64, []*model.Document, error)

	// ListByStatus 列出指定状态的全部文档。
	ListByStatus(ctx context.Context, status string) ([]*model.Document, error)

	// CountByStatus 按状态统计文档数。
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
}

// ChunkStore 定义文档块的存储接口。
type ChunkStore interface {
	// BatchCreate 批量创建块。
	BatchCreate(ctx context.Context, chunks []*model.Chunk) error

	// ListByDocument 按 chunk_index 升序列出文档的全部块。
	ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error)

	// DeleteByDocument 删除文档的全部块。
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count 统计块总数。
	Count(ctx context.Context) (int64, error)
}

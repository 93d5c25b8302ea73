package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/knowledge-hub/internal/model"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

type chunks struct {
	db *gorm.DB
}

var _ ChunkStore = (*chunks)(nil)

func newChunks(db *gorm.DB) *chunks {
	return &chunks{db}
}

// BatchCreate 批量创建块。
func (c *chunks) BatchCreate(ctx context.Context, chunkList []*model.Chunk) error {
	if len(chunkList) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).CreateInBatches(chunkList, 100).Error; err != nil {
		return huberrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// ListByDocument 按 chunk_index 升序列出文档的全部块。
func (c *chunks) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	var result []*model.Chunk
	err := c.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&result).Error
	if err != nil {
		return nil, huberrors.ErrDatabase.WithCause(err)
	}
	return result, nil
}

// DeleteByDocument 删除文档的全部块。
func (c *chunks) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := c.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return huberrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// Count 统计块总数。
func (c *chunks) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&model.Chunk{}).Count(&count).Error; err != nil {
		return 0, huberrors.ErrDatabase.WithCause(err)
	}
	return count, nil
}

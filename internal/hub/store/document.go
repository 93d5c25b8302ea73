package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kart-io/knowledge-hub/internal/model"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

type documents struct {
	db *gorm.DB
}

var _ DocumentStore = (*documents)(nil)

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

// Create 创建文档记录。
func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	if err := d.db.WithContext(ctx).Create(doc).Error; err != nil {
		return huberrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get 根据 ID 获取文档。
func (d *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huberrors.ErrDocumentNotFound
		}
		return nil, huberrors.ErrDatabase.WithCause(err)
	}
	return &doc, nil
}

// Update 应用部分更新。单条 UPDATE 保证 chunk_count 与
// embedding_count 不会被并发读取到撕裂的组合。
func (d *documents) Update(ctx context.Context, id string, patch *model.DocumentPatch) error {
	values := map[string]any{}
	if patch.Status != nil {
		values["status"] = *patch.Status
		if *patch.Status != model.StatusError {
			// 非 error 状态不携带错误消息
			values["error_message"] = ""
		}
	}
	if patch.ErrorMessage != nil {
		values["error_message"] = *patch.ErrorMessage
	}
	if patch.ChunkCount != nil {
		values["chunk_count"] = *patch.ChunkCount
	}
	if patch.EmbeddingCount != nil {
		values["embedding_count"] = *patch.EmbeddingCount
	}
	if len(values) == 0 {
		return nil
	}

	result := d.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return huberrors.ErrDatabase.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return huberrors.ErrDocumentNotFound
	}
	return nil
}

// Delete 在同一事务中删除文档及其全部块。
func (d *documents) Delete(ctx context.Context, id string) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return huberrors.ErrDocumentNotFound
		}
		return huberrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// List 按可选状态过滤分页列出文档。
func (d *documents) List(ctx context.Context, status string, offset, limit int) (int64, []*model.Document, error) {
	query := d.db.WithContext(ctx).Model(&model.Document{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, nil, huberrors.ErrDatabase.WithCause(err)
	}

	var docs []*model.Document
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return 0, nil, huberrors.ErrDatabase.WithCause(err)
	}

	return count, docs, nil
}

// ListByStatus 列出指定状态的全部文档。
func (d *documents) ListByStatus(ctx context.Context, status string) ([]*model.Document, error) {
	var docs []*model.Document
	if err := d.db.WithContext(ctx).Where("status = ?", status).Find(&docs).Error; err != nil {
		return nil, huberrors.ErrDatabase.WithCause(err)
	}
	return docs, nil
}

// CountByStatus 按状态统计文档数。
func (d *documents) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	err := d.db.WithContext(ctx).Model(&model.Document{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, huberrors.ErrDatabase.WithCause(err)
	}
	return counts, nil
}

package biz

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/knowledge-hub/internal/hub/metrics"
	"github.com/kart-io/knowledge-hub/internal/hub/store"
	"github.com/kart-io/knowledge-hub/internal/model"
	"github.com/kart-io/knowledge-hub/internal/pkg/extract"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
	"github.com/kart-io/knowledge-hub/pkg/objstore"
)

// sourceContentLimit 返回给调用方的来源内容截断长度（按 rune 计）。
const sourceContentLimit = 200

// mimeTypes 按扩展名声明的内容类型。
var mimeTypes = map[string]string{
	".txt": "text/plain",
	".md":  "text/markdown",
	".pdf": "application/pdf",
}

// ServiceConfig 服务配置。
type ServiceConfig struct {
	// MaxUploadSize 上传文件大小上限（字节）。
	MaxUploadSize int64
	// ReingestWorkers 批量重新摄取的并发度。
	ReingestWorkers int
}

// Service 定义 knowledge-hub 的业务接口。
type Service interface {
	// Upload 接收文件、落库并同步摄取。
	Upload(ctx context.Context, fileName string, size int64, r io.Reader) (*model.Document, error)

	// Get 获取文档详情。
	Get(ctx context.Context, id string) (*model.Document, error)

	// List 分页列出文档，可按状态过滤。
	List(ctx context.Context, status string, offset, limit int) (int64, []*model.Document, error)

	// Delete 删除文档及其全部块、向量和原始文件。
	Delete(ctx context.Context, id string) error

	// Reingest 重新摄取单个文档。
	Reingest(ctx context.Context, id string) (*model.IngestResult, error)

	// ReingestFailed 并发重新摄取全部 error 状态的文档。
	ReingestFailed(ctx context.Context) ([]*model.IngestResult, error)

	// Query 检索并生成带引用的答案。
	Query(ctx context.Context, question string, topK int) (*model.QueryResult, error)

	// Stats 返回知识库状态统计。
	Stats(ctx context.Context) (*model.Stats, error)
}

// hubService 实现 Service 接口。
type hubService struct {
	factory   store.Factory
	vectors   store.VectorStore
	objects   objstore.Store
	ingestor  *Ingestor
	retriever *Retriever
	generator *Generator
	config    *ServiceConfig
}

var _ Service = (*hubService)(nil)

// NewService 创建业务服务实例。
func NewService(
	factory store.Factory,
	vectors store.VectorStore,
	objects objstore.Store,
	ingestor *Ingestor,
	retriever *Retriever,
	generator *Generator,
	config *ServiceConfig,
) Service {
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 10 << 20
	}
	if config.ReingestWorkers <= 0 {
		config.ReingestWorkers = 4
	}
	return &hubService{
		factory:   factory,
		vectors:   vectors,
		objects:   objects,
		ingestor:  ingestor,
		retriever: retriever,
		generator: generator,
		config:    config,
	}
}

func (s *hubService) Upload(ctx context.Context, fileName string, size int64, r io.Reader) (*model.Document, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !extract.SupportedExtension(fileName) {
		return nil, huberrors.ErrInvalidFileType.WithMessagef(
			"unsupported file type %q, allowed: %s", ext, strings.Join(extract.Extensions(), ", "))
	}
	if size > s.config.MaxUploadSize {
		return nil, huberrors.ErrFileTooLarge.WithMessagef(
			"file size %d exceeds limit %d", size, s.config.MaxUploadSize)
	}

	id := ulid.Make().String()
	path, err := s.objects.Put(ctx, id+ext, r)
	if err != nil {
		return nil, huberrors.ErrStorage.WithCause(err)
	}

	doc := &model.Document{
		ID:          id,
		FileName:    fileName,
		StoragePath: path,
		FileSize:    size,
		MimeType:    mimeTypes[ext],
		Status:      model.StatusUploaded,
	}
	if err := s.factory.Documents().Create(ctx, doc); err != nil {
		// 记录创建失败时回收已落的对象
		if delErr := s.objects.Delete(ctx, path); delErr != nil {
			logger.Warnw("对象回收失败", "path", path, "error", delErr.Error())
		}
		return nil, err
	}

	if _, err := s.ingestor.Ingest(ctx, doc); err != nil {
		return nil, err
	}

	return s.factory.Documents().Get(ctx, doc.ID)
}

func (s *hubService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.factory.Documents().Get(ctx, id)
}

func (s *hubService) List(ctx context.Context, status string, offset, limit int) (int64, []*model.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.factory.Documents().List(ctx, status, offset, limit)
}

func (s *hubService) Delete(ctx context.Context, id string) error {
	doc, err := s.factory.Documents().Get(ctx, id)
	if err != nil {
		return err
	}

	// 先删向量再删记录，向量删除失败时记录仍在，可重试
	if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.factory.Documents().Delete(ctx, id); err != nil {
		return err
	}

	// 原始文件删除是尽力而为，失败不影响删除结果
	if err := s.objects.Delete(ctx, doc.StoragePath); err != nil {
		logger.Warnw("原始文件删除失败", "document_id", id, "path", doc.StoragePath, "error", err.Error())
	}

	logger.Infow("文档已删除", "document_id", id, "file_name", doc.FileName)
	return nil
}

func (s *hubService) Reingest(ctx context.Context, id string) (*model.IngestResult, error) {
	doc, err := s.factory.Documents().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ingestor.Ingest(ctx, doc)
}

func (s *hubService) ReingestFailed(ctx context.Context) ([]*model.IngestResult, error) {
	failed, err := s.factory.Documents().ListByStatus(ctx, model.StatusError)
	if err != nil {
		return nil, err
	}
	if len(failed) == 0 {
		return []*model.IngestResult{}, nil
	}

	pool, err := ants.NewPool(s.config.ReingestWorkers)
	if err != nil {
		return nil, huberrors.ErrInternal.WithCause(err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]*model.IngestResult, 0, len(failed))
	)
	for _, doc := range failed {
		doc := doc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, ingestErr := s.ingestor.Ingest(ctx, doc)
			if ingestErr != nil {
				logger.Warnw("重新摄取失败", "document_id", doc.ID, "error", ingestErr.Error())
				result = &model.IngestResult{DocumentID: doc.ID, Status: model.StatusError}
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}
		if submitErr := pool.Submit(task); submitErr != nil {
			task()
		}
	}
	wg.Wait()

	return results, nil
}

func (s *hubService) Query(ctx context.Context, question string, topK int) (*model.QueryResult, error) {
	m := metrics.GetHubMetrics()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, huberrors.ErrInvalidRequest.WithMessage("question is required")
	}

	chunks, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		m.RecordQuery(errors.Is(err, huberrors.ErrNoResults), errIfSystem(err))
		return nil, err
	}

	answer, err := s.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		m.RecordQuery(false, err)
		return nil, err
	}

	sources := make([]model.ChunkSource, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, model.ChunkSource{
			ChunkID:      chunk.ChunkID,
			DocumentID:   chunk.DocumentID,
			DocumentName: chunk.DocumentName,
			ChunkIndex:   chunk.ChunkIndex,
			Content:      truncateRunes(chunk.Content, sourceContentLimit),
			Score:        chunk.Score,
		})
	}

	m.RecordQuery(false, nil)
	return &model.QueryResult{Answer: answer, Sources: sources}, nil
}

func (s *hubService) Stats(ctx context.Context) (*model.Stats, error) {
	byStatus, err := s.factory.Documents().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totalChunks, err := s.factory.Chunks().Count(ctx)
	if err != nil {
		return nil, err
	}
	vectorRows, err := s.vectors.RowCount(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Stats{
		Documents:   byStatus,
		TotalChunks: totalChunks,
		VectorRows:  vectorRows,
	}, nil
}

// errIfSystem 过滤掉无结果这类正常结果，只把系统错误计入错误指标。
func errIfSystem(err error) error {
	if errors.Is(err, huberrors.ErrNoResults) {
		return nil
	}
	return err
}

// truncateRunes 按 rune 截断字符串。
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

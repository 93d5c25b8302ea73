// Package biz 实现 knowledge-hub 的核心业务逻辑：摄取、检索与答案生成。
package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/kart-io/knowledge-hub/internal/hub/metrics"
	"github.com/kart-io/knowledge-hub/internal/hub/store"
	"github.com/kart-io/knowledge-hub/internal/model"
	"github.com/kart-io/knowledge-hub/internal/pkg/extract"
	"github.com/kart-io/knowledge-hub/internal/pkg/textsplit"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
	"github.com/kart-io/knowledge-hub/pkg/llm"
	"github.com/kart-io/knowledge-hub/pkg/objstore"
)

// IngestorConfig 摄取器配置。
type IngestorConfig struct {
	// ChunkSize 每个文档块的最大字符数。
	ChunkSize int
	// ChunkOverlap 相邻块之间的重叠字符数。
	ChunkOverlap int
	// EmbedTimeout 单个块的嵌入调用超时。
	EmbedTimeout time.Duration
	// ModelName 嵌入模型标识，用于向量记录的模型过滤。
	ModelName string
}

// Ingestor 驱动文档经过提取、切分、嵌入和索引的状态机。
// 文档状态与计数只由 Ingestor 写入。
type Ingestor struct {
	docs     store.DocumentStore
	chunks   store.ChunkStore
	vectors  store.VectorStore
	objects  objstore.Store
	embedder llm.EmbeddingProvider
	splitter *textsplit.Splitter
	config   *IngestorConfig

	// 同一文档的并发摄取未定义，按文档 ID 单飞。
	group singleflight.Group
}

// NewIngestor 创建摄取器实例。
func NewIngestor(
	docs store.DocumentStore,
	chunks store.ChunkStore,
	vectors store.VectorStore,
	objects objstore.Store,
	embedder llm.EmbeddingProvider,
	config *IngestorConfig,
) *Ingestor {
	if config.EmbedTimeout <= 0 {
		config.EmbedTimeout = 30 * time.Second
	}
	return &Ingestor{
		docs:     docs,
		chunks:   chunks,
		vectors:  vectors,
		objects:  objects,
		embedder: embedder,
		splitter: textsplit.New(config.ChunkSize, config.ChunkOverlap),
		config:   config,
	}
}

// Ingest 执行一次摄取。提取或切分失败对本次摄取是致命的，文档进入
// error 状态；单个块的嵌入失败只跳过该块，文档仍以 indexed 结束。
func (i *Ingestor) Ingest(ctx context.Context, doc *model.Document) (*model.IngestResult, error) {
	v, err, _ := i.group.Do(doc.ID, func() (any, error) {
		return i.ingest(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.IngestResult), nil
}

func (i *Ingestor) ingest(ctx context.Context, doc *model.Document) (*model.IngestResult, error) {
	m := metrics.GetHubMetrics()

	// 1. 进入 indexing，重新摄取时先清理上一次的块和向量
	if doc.ChunkCount > 0 || doc.Status == model.StatusError {
		if err := i.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
			m.RecordIngest(0, 0, 0, err)
			return nil, err
		}
		if err := i.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
			m.RecordIngest(0, 0, 0, err)
			return nil, err
		}
	}
	if err := i.setStatus(ctx, doc.ID, model.StatusIndexing); err != nil {
		m.RecordIngest(0, 0, 0, err)
		return nil, err
	}

	// 2. 提取文本，失败或空结果对本次摄取是致命的
	text, err := i.extractText(ctx, doc)
	if err != nil {
		m.RecordIngest(0, 0, 0, err)
		return nil, i.fail(ctx, doc.ID, fmt.Sprintf("text extraction failed: %v", err))
	}

	// 3. 切分，空结果同样致命
	segments, err := i.splitter.Split(text)
	if err != nil {
		m.RecordIngest(0, 0, 0, err)
		return nil, i.fail(ctx, doc.ID, fmt.Sprintf("chunking produced no segments: %v", err))
	}

	// 4. 按序批量落块
	chunkRows := make([]*model.Chunk, 0, len(segments))
	for idx, content := range segments {
		chunkRows = append(chunkRows, &model.Chunk{
			ID:         ulid.Make().String(),
			DocumentID: doc.ID,
			Content:    content,
			ChunkIndex: idx,
		})
	}
	if err := i.chunks.BatchCreate(ctx, chunkRows); err != nil {
		m.RecordIngest(0, 0, 0, err)
		return nil, i.failUnexpected(ctx, doc.ID, err)
	}

	// 5. 逐块嵌入，单块失败跳过并继续
	records := make([]*store.VectorRecord, 0, len(chunkRows))
	skipped := 0
	for _, chunk := range chunkRows {
		embedding, embedErr := i.embedChunk(ctx, chunk.Content)
		if embedErr != nil {
			skipped++
			logger.Warnw("块嵌入失败，跳过",
				"document_id", doc.ID,
				"chunk_index", chunk.ChunkIndex,
				"error", embedErr.Error(),
			)
			continue
		}
		records = append(records, &store.VectorRecord{
			ChunkID:      chunk.ID,
			DocumentID:   doc.ID,
			DocumentName: doc.FileName,
			ChunkIndex:   chunk.ChunkIndex,
			ModelName:    i.config.ModelName,
			Content:      chunk.Content,
			Embedding:    embedding,
		})
	}

	// 6. 批量写入向量
	if len(records) > 0 {
		if err := i.vectors.Insert(ctx, records); err != nil {
			m.RecordIngest(0, 0, 0, err)
			return nil, i.failUnexpected(ctx, doc.ID, err)
		}
	}

	// 7-8. 回写实际计数并进入 indexed
	chunkCount := len(chunkRows)
	embeddingCount := len(records)
	status := model.StatusIndexed
	patch := &model.DocumentPatch{
		Status:         &status,
		ChunkCount:     &chunkCount,
		EmbeddingCount: &embeddingCount,
	}
	if err := i.docs.Update(ctx, doc.ID, patch); err != nil {
		m.RecordIngest(0, 0, 0, err)
		return nil, i.failUnexpected(ctx, doc.ID, err)
	}

	m.RecordIngest(chunkCount, embeddingCount, skipped, nil)
	logger.Infow("文档摄取完成",
		"document_id", doc.ID,
		"chunks", chunkCount,
		"embeddings", embeddingCount,
		"skipped", skipped,
	)

	return &model.IngestResult{
		DocumentID:     doc.ID,
		ChunkCount:     chunkCount,
		EmbeddingCount: embeddingCount,
		Status:         model.StatusIndexed,
	}, nil
}

// extractText 从对象存储读取原始字节并提取纯文本。
func (i *Ingestor) extractText(ctx context.Context, doc *model.Document) (string, error) {
	r, err := i.objects.Get(ctx, doc.StoragePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return extract.Text(doc.FileName, r)
}

// embedChunk 在独立超时内嵌入单个块。超时与失败同等处理。
func (i *Ingestor) embedChunk(ctx context.Context, content string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, i.config.EmbedTimeout)
	defer cancel()

	return i.embedder.EmbedSingle(embedCtx, content)
}

func (i *Ingestor) setStatus(ctx context.Context, id, status string) error {
	return i.docs.Update(ctx, id, &model.DocumentPatch{Status: &status})
}

// fail 将文档置为 error 并返回提取类错误。状态写入失败时只记录日志，
// 原始错误仍然返回给调用方。
func (i *Ingestor) fail(ctx context.Context, id, message string) error {
	status := model.StatusError
	patch := &model.DocumentPatch{Status: &status, ErrorMessage: &message}
	if err := i.docs.Update(ctx, id, patch); err != nil {
		logger.Errorw("文档错误状态写入失败", "document_id", id, "error", err.Error())
	}
	return huberrors.ErrExtractionFailed.WithMessage(message)
}

// failUnexpected 处理块落库之后逃逸的意外错误。
func (i *Ingestor) failUnexpected(ctx context.Context, id string, cause error) error {
	status := model.StatusError
	message := "ingestion failed unexpectedly"
	patch := &model.DocumentPatch{Status: &status, ErrorMessage: &message}
	if err := i.docs.Update(ctx, id, patch); err != nil {
		logger.Errorw("文档错误状态写入失败", "document_id", id, "error", err.Error())
	}
	return huberrors.ErrExtractionFailed.WithCause(cause)
}

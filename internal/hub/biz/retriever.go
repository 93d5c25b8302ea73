package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/knowledge-hub/internal/hub/store"
	"github.com/kart-io/knowledge-hub/internal/model"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
	"github.com/kart-io/knowledge-hub/pkg/llm"
)

// overfetchFactor 向量检索超取倍数。候选在按文档状态过滤前按该倍数
// 放大，避免被过滤掉的命中挤占 topK 名额。
const overfetchFactor = 4

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 默认返回的结果数量。
	TopK int
	// MinScore 相似度下限，低于该值的候选被排除。
	MinScore float32
	// ModelName 检索使用的嵌入模型标识。
	ModelName string
}

// Retriever 负责查询嵌入与相似度检索。只有属于 indexed 状态文档的
// 向量才会进入结果。
type Retriever struct {
	vectors  store.VectorStore
	docs     store.DocumentStore
	embedder llm.EmbeddingProvider
	config   *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(
	vectors store.VectorStore,
	docs store.DocumentStore,
	embedder llm.EmbeddingProvider,
	config *RetrieverConfig,
) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	return &Retriever{
		vectors:  vectors,
		docs:     docs,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve 执行检索。查询嵌入失败是致命的；过滤后无命中返回
// ErrNoResults，调用方据此区分 404 与 500 语义。
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}

	embedding, err := r.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, huberrors.ErrEmbeddingFailed.WithCause(err)
	}

	hits, err := r.vectors.Search(ctx, embedding, r.config.ModelName, topK*overfetchFactor)
	if err != nil {
		return nil, err
	}

	ranked := r.filterHits(ctx, hits, topK)
	if len(ranked) == 0 {
		logger.Infow("检索无命中", "question_len", len(question), "candidates", len(hits))
		return nil, huberrors.ErrNoResults
	}

	return ranked, nil
}

// filterHits 过滤候选：只保留 indexed 文档的命中且相似度不低于下限，
// 保持存储层给出的排序，截断到 topK。
func (r *Retriever) filterHits(ctx context.Context, hits []*store.VectorHit, topK int) []model.RetrievedChunk {
	// 候选集中同一文档出现多次，状态查询按文档缓存
	indexed := make(map[string]bool)

	ranked := make([]model.RetrievedChunk, 0, topK)
	for _, hit := range hits {
		if hit.Score < r.config.MinScore {
			continue
		}
		ok, seen := indexed[hit.DocumentID]
		if !seen {
			doc, err := r.docs.Get(ctx, hit.DocumentID)
			ok = err == nil && doc.Status == model.StatusIndexed
			indexed[hit.DocumentID] = ok
		}
		if !ok {
			continue
		}
		ranked = append(ranked, model.RetrievedChunk{
			ChunkID:      hit.ChunkID,
			DocumentID:   hit.DocumentID,
			DocumentName: hit.DocumentName,
			ChunkIndex:   hit.ChunkIndex,
			Content:      hit.Content,
			Score:        hit.Score,
		})
		if len(ranked) == topK {
			break
		}
	}
	return ranked
}

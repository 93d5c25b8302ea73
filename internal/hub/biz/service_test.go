package biz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/knowledge-hub/internal/hub/store"
	"github.com/kart-io/knowledge-hub/internal/model"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
	"github.com/kart-io/knowledge-hub/pkg/llm"
	"github.com/kart-io/knowledge-hub/pkg/objstore"
)

const testModelName = "fake-embed"

// fakeEmbedder 按内容子串返回预设向量，未命中时返回单位向量。
type fakeEmbedder struct {
	vecs   map[string][]float32
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := f.EmbedSingle(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	for key, v := range f.vecs {
		if strings.Contains(text, key) {
			return v, nil
		}
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

type fakeChat struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeChat) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeChat) Name() string { return "fake" }

type testEnv struct {
	svc      Service
	factory  store.Factory
	vectors  *store.MemoryStore
	objects  objstore.Store
	embedder *fakeEmbedder
	chat     *fakeChat
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	factory, err := store.NewFactory(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	vectors := store.NewMemoryStore(3)
	objects, err := objstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	embedder := &fakeEmbedder{vecs: map[string][]float32{}}
	chat := &fakeChat{answer: "the grounded answer [1]"}

	ingestor := NewIngestor(factory.Documents(), factory.Chunks(), vectors, objects, embedder, &IngestorConfig{
		ChunkSize:    100,
		ChunkOverlap: 10,
		ModelName:    testModelName,
	})
	retriever := NewRetriever(vectors, factory.Documents(), embedder, &RetrieverConfig{
		TopK:      5,
		MinScore:  0.1,
		ModelName: testModelName,
	})
	generator := NewGenerator(chat, &GeneratorConfig{})

	svc := NewService(factory, vectors, objects, ingestor, retriever, generator, &ServiceConfig{
		MaxUploadSize:   1 << 20,
		ReingestWorkers: 2,
	})

	return &testEnv{
		svc:      svc,
		factory:  factory,
		vectors:  vectors,
		objects:  objects,
		embedder: embedder,
		chat:     chat,
	}
}

// threeParagraphs 三段内容，块大小 100 下每段独立成块。
const threeParagraphs = "alpha section talks about service discovery and the gateway routing table in detail here.\n\n" +
	"beta section covers vector retrieval, similarity ranking and the relevance floor mechanics.\n\n" +
	"gamma section describes batch ingestion, chunk ordering and partial embedding failures."

func (e *testEnv) upload(t *testing.T, name, content string) *model.Document {
	t.Helper()
	doc, err := e.svc.Upload(context.Background(), name, int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	return doc
}

func TestUploadIngestsDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.upload(t, "guide.txt", threeParagraphs)

	assert.Equal(t, model.StatusIndexed, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Equal(t, 3, doc.EmbeddingCount)
	assert.Empty(t, doc.ErrorMessage)

	chunks, err := env.factory.Chunks().ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex, "块序号应连续")
	}
	assert.Contains(t, chunks[0].Content, "alpha section")
	assert.Contains(t, chunks[2].Content, "gamma section")

	rows, err := env.vectors.RowCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("不支持的文件类型", func(t *testing.T) {
		_, err := env.svc.Upload(ctx, "binary.exe", 10, strings.NewReader("xxxxxxxxxx"))
		assert.ErrorIs(t, err, huberrors.ErrInvalidFileType)
	})

	t.Run("文件超出大小限制", func(t *testing.T) {
		_, err := env.svc.Upload(ctx, "big.txt", 2<<20, strings.NewReader("stub"))
		assert.ErrorIs(t, err, huberrors.ErrFileTooLarge)
	})
}

func TestPartialEmbeddingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.failOn = "beta section"

	doc := env.upload(t, "guide.txt", threeParagraphs)

	assert.Equal(t, model.StatusIndexed, doc.Status, "单块嵌入失败不应让文档进入 error")
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Equal(t, 2, doc.EmbeddingCount)

	rows, err := env.vectors.RowCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows)
}

func TestEmptyDocumentIsFatal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, "empty.txt", 4, strings.NewReader("   \n"))
	require.ErrorIs(t, err, huberrors.ErrExtractionFailed)

	_, docs, listErr := env.factory.Documents().List(ctx, model.StatusError, 0, 10)
	require.NoError(t, listErr)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0].ErrorMessage)
	assert.Zero(t, docs[0].ChunkCount)

	chunks, err := env.factory.Chunks().ListByDocument(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, chunks, "致命失败不应留下任何块")
}

func TestQueryAnswersWithSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.embedder.vecs["beta section"] = []float32{0, 1, 0}
	env.embedder.vecs["similarity ranking and the relevance floor"] = []float32{0, 1, 0}
	env.upload(t, "guide.txt", threeParagraphs)

	result, err := env.svc.Query(ctx, "how does similarity ranking and the relevance floor work", 3)
	require.NoError(t, err)

	assert.Equal(t, "the grounded answer [1]", result.Answer)
	require.NotEmpty(t, result.Sources)
	top := result.Sources[0]
	assert.Contains(t, top.Content, "beta section")
	assert.InDelta(t, 1.0, top.Score, 1e-6, "完全匹配的向量应得满分")
	assert.Equal(t, "guide.txt", top.DocumentName)

	assert.Contains(t, env.chat.lastPrompt, "[1] From guide.txt:")
	assert.Contains(t, env.chat.lastPrompt, "how does similarity ranking")
}

func TestQuerySourceContentTruncated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &model.Document{
		ID:          "doc-long",
		FileName:    "long.txt",
		StoragePath: "doc-long.txt",
		Status:      model.StatusIndexed,
	}
	require.NoError(t, env.factory.Documents().Create(ctx, doc))
	require.NoError(t, env.vectors.Insert(ctx, []*store.VectorRecord{{
		ChunkID:      "c1",
		DocumentID:   doc.ID,
		DocumentName: doc.FileName,
		ModelName:    testModelName,
		Content:      strings.Repeat("长", 300),
		Embedding:    []float32{1, 0, 0},
	}}))

	result, err := env.svc.Query(ctx, "anything", 1)
	require.NoError(t, err)
	require.NotEmpty(t, result.Sources)

	content := []rune(result.Sources[0].Content)
	assert.LessOrEqual(t, len(content), sourceContentLimit+3)
	assert.True(t, strings.HasSuffix(result.Sources[0].Content, "..."))
}

func TestQueryNoResults(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Query(context.Background(), "question over empty corpus", 5)
	assert.ErrorIs(t, err, huberrors.ErrNoResults)
}

func TestQueryExcludesNonIndexedDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.upload(t, "guide.txt", threeParagraphs)

	// 文档降级为 error 后其向量不再可检索
	status := model.StatusError
	msg := "manual failure"
	require.NoError(t, env.factory.Documents().Update(ctx, doc.ID, &model.DocumentPatch{
		Status:       &status,
		ErrorMessage: &msg,
	}))

	_, err := env.svc.Query(ctx, "service discovery", 5)
	assert.ErrorIs(t, err, huberrors.ErrNoResults)
}

func TestQueryEmbeddingFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "guide.txt", threeParagraphs)

	env.embedder.failOn = "unanswerable"
	_, err := env.svc.Query(context.Background(), "an unanswerable question", 5)
	assert.ErrorIs(t, err, huberrors.ErrEmbeddingFailed)
}

func TestQueryLLMFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "guide.txt", threeParagraphs)

	env.chat.err = errors.New("model overloaded")
	_, err := env.svc.Query(context.Background(), "service discovery", 5)
	assert.ErrorIs(t, err, huberrors.ErrLLMFailed)
}

func TestDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.upload(t, "guide.txt", threeParagraphs)
	require.NoError(t, env.svc.Delete(ctx, doc.ID))

	_, err := env.svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, huberrors.ErrDocumentNotFound)

	chunks, err := env.factory.Chunks().ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	rows, err := env.vectors.RowCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = env.objects.Get(ctx, doc.ID+".txt")
	assert.Error(t, err, "原始文件应已删除")
}

func TestDeleteMissingDocument(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, huberrors.ErrDocumentNotFound)
}

func TestReingestResetsPreviousRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := env.upload(t, "guide.txt", threeParagraphs)

	result, err := env.svc.Reingest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIndexed, result.Status)
	assert.Equal(t, 3, result.ChunkCount)
	assert.Equal(t, 3, result.EmbeddingCount)

	// 重新摄取不累积块和向量
	chunks, err := env.factory.Chunks().ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	rows, err := env.vectors.RowCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)
}

func TestReingestFailedRecovers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 先制造一个 error 文档，再替换其原始内容使重试可以成功
	_, err := env.svc.Upload(ctx, "broken.txt", 4, strings.NewReader("   \n"))
	require.ErrorIs(t, err, huberrors.ErrExtractionFailed)

	_, docs, listErr := env.factory.Documents().List(ctx, model.StatusError, 0, 10)
	require.NoError(t, listErr)
	require.Len(t, docs, 1)
	failed := docs[0]

	_, err = env.objects.Put(ctx, failed.StoragePath, strings.NewReader(threeParagraphs))
	require.NoError(t, err)

	results, err := env.svc.ReingestFailed(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusIndexed, results[0].Status)
	assert.Equal(t, 3, results[0].ChunkCount)

	got, err := env.svc.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIndexed, got.Status)
	assert.Empty(t, got.ErrorMessage, "回到非 error 状态应清空错误消息")
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.upload(t, "a.txt", threeParagraphs)
	env.upload(t, "b.txt", threeParagraphs)

	stats, err := env.svc.Stats(ctx)
	require.NoError(t, err)

	require.Len(t, stats.Documents, 1)
	assert.Equal(t, model.StatusIndexed, stats.Documents[0].Status)
	assert.EqualValues(t, 2, stats.Documents[0].Count)
	assert.EqualValues(t, 6, stats.TotalChunks)
	assert.EqualValues(t, 6, stats.VectorRows)
}

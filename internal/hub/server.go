package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/knowledge-hub/internal/hub/biz"
	"github.com/kart-io/knowledge-hub/internal/hub/handler"
	"github.com/kart-io/knowledge-hub/internal/hub/middleware"
	"github.com/kart-io/knowledge-hub/internal/hub/router"
	"github.com/kart-io/knowledge-hub/internal/hub/store"
	"github.com/kart-io/knowledge-hub/pkg/app"
	"github.com/kart-io/knowledge-hub/pkg/component/milvus"
	"github.com/kart-io/knowledge-hub/pkg/llm"
	"github.com/kart-io/knowledge-hub/pkg/objstore"
)

// Run runs the knowledge-hub service with the given options.
func Run(opts *Options) error {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting knowledge-hub service...")

	// 2. 初始化文档记录存储
	db, err := store.NewDB(opts.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	factory, err := store.NewFactory(db)
	if err != nil {
		return fmt.Errorf("failed to initialize store factory: %w", err)
	}
	defer func() { _ = factory.Close() }()
	logger.Infow("Document store initialized", "driver", opts.DB.Driver)

	// 3. 初始化向量存储
	vectors, vectorsClose, err := newVectorStore(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorsClose()
	if err := vectors.EnsureCollection(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	logger.Infow("Vector store initialized", "driver", opts.Vector.Driver)

	// 4. 初始化对象存储
	objects, err := objstore.NewLocalStore(opts.Hub.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}
	logger.Infow("Object store initialized", "dir", opts.Hub.UploadDir)

	// 5. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", opts.Embedding.Provider,
		"model", opts.Embedding.Model,
	)

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", opts.Chat.Provider,
		"model", opts.Chat.Model,
	)

	// 6. 初始化 Biz 层
	ingestor := biz.NewIngestor(factory.Documents(), factory.Chunks(), vectors, objects, embedProvider, &biz.IngestorConfig{
		ChunkSize:    opts.Hub.ChunkSize,
		ChunkOverlap: opts.Hub.ChunkOverlap,
		EmbedTimeout: opts.Hub.EmbedTimeout,
		ModelName:    opts.Embedding.Model,
	})
	retriever := biz.NewRetriever(vectors, factory.Documents(), embedProvider, &biz.RetrieverConfig{
		TopK:      opts.Hub.TopK,
		MinScore:  opts.Hub.MinScore,
		ModelName: opts.Embedding.Model,
	})
	generator := biz.NewGenerator(chatProvider, &biz.GeneratorConfig{
		PromptTemplate: opts.Hub.PromptTemplate,
	})
	service := biz.NewService(factory, vectors, objects, ingestor, retriever, generator, &biz.ServiceConfig{
		MaxUploadSize:   opts.Hub.MaxUploadSize,
		ReingestWorkers: opts.Hub.ReingestWorkers,
	})
	logger.Info("Business layer initialized")

	// 7. 初始化 Handler 层并注册路由
	gin.SetMode(opts.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.AccessLog())

	router.Register(engine,
		handler.NewDocumentHandler(service),
		handler.NewChatHandler(service),
		&middleware.AuthConfig{Key: opts.JWT.Key, DisableAuth: opts.JWT.DisableAuth},
	)

	// 8. 启动服务器
	return serveHTTP(opts, engine)
}

// newVectorStore 按驱动创建向量存储。memory 驱动仅用于开发和测试。
func newVectorStore(opts *Options) (store.VectorStore, func(), error) {
	switch opts.Vector.Driver {
	case "memory":
		return store.NewMemoryStore(opts.Hub.EmbeddingDim), func() {}, nil
	case "milvus":
		client, err := milvus.New(opts.Vector.Milvus)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewMilvusStore(client, opts.Vector.Collection, opts.Hub.EmbeddingDim)
		return s, func() { _ = client.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector driver %q", opts.Vector.Driver)
	}
}

// serveHTTP 启动 HTTP 服务器并在收到信号后优雅关闭。
func serveHTTP(opts *Options, engine *gin.Engine) error {
	srv := &http.Server{
		Addr:    opts.Server.Addr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Infow("Shutting down...", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

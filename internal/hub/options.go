// Package hub provides the knowledge-hub service application.
package hub

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	dbopts "github.com/kart-io/knowledge-hub/pkg/options/db"
	logopts "github.com/kart-io/knowledge-hub/pkg/options/logger"
	milvusopts "github.com/kart-io/knowledge-hub/pkg/options/milvus"
)

// Options contains all knowledge-hub options.
type Options struct {
	// Server contains HTTP server configuration.
	Server *ServerOptions `json:"server" mapstructure:"server"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// DB contains document record store configuration.
	DB *dbopts.Options `json:"db" mapstructure:"db"`

	// Vector contains vector store configuration.
	Vector *VectorOptions `json:"vector" mapstructure:"vector"`

	// Embedding contains embedding provider configuration.
	Embedding *LLMProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *LLMProviderOptions `json:"chat" mapstructure:"chat"`

	// Hub contains ingestion and retrieval configuration.
	Hub *HubOptions `json:"hub" mapstructure:"hub"`

	// JWT contains authentication configuration.
	JWT *JWTOptions `json:"jwt" mapstructure:"jwt"`
}

// ServerOptions HTTP 服务器配置。
type ServerOptions struct {
	// Addr 监听地址。
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode gin 运行模式（debug|release|test）。
	Mode string `json:"mode" mapstructure:"mode"`

	// ShutdownTimeout 优雅关闭超时。
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// VectorOptions 向量存储配置。
type VectorOptions struct {
	// Driver 向量存储驱动（milvus|memory）。memory 仅用于开发和测试。
	Driver string `json:"driver" mapstructure:"driver"`

	// Collection Milvus 集合名称。
	Collection string `json:"collection" mapstructure:"collection"`

	// Milvus Milvus 连接配置。
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`
}

// LLMProviderOptions 定义 LLM 供应商配置。
type LLMProviderOptions struct {
	// Provider 供应商名称（ollama, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（OpenAI 等需要）。
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewLLMProviderOptions 创建默认 LLM 供应商配置。
func NewLLMProviderOptions() *LLMProviderOptions {
	return &LLMProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *LLMProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"embed_model": o.Model,
		"chat_model":  o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// HubOptions contains ingestion and retrieval configuration.
type HubOptions struct {
	// ChunkSize is the size of text chunks in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TopK is the default number of results from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// MinScore is the similarity floor for retrieval.
	MinScore float32 `json:"min-score" mapstructure:"min-score"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// EmbedTimeout is the per-chunk embedding call timeout.
	EmbedTimeout time.Duration `json:"embed-timeout" mapstructure:"embed-timeout"`

	// UploadDir is the directory for storing uploaded files.
	UploadDir string `json:"upload-dir" mapstructure:"upload-dir"`

	// MaxUploadSize is the upload size limit in bytes.
	MaxUploadSize int64 `json:"max-upload-size" mapstructure:"max-upload-size"`

	// ReingestWorkers is the concurrency for batch re-ingestion.
	ReingestWorkers int `json:"reingest-workers" mapstructure:"reingest-workers"`

	// PromptTemplate is the answer prompt template.
	PromptTemplate string `json:"prompt-template" mapstructure:"prompt-template"`
}

// JWTOptions 认证配置。
type JWTOptions struct {
	// Key HMAC 签名密钥。
	Key string `json:"key" mapstructure:"key"`

	// DisableAuth 跳过认证，仅用于本地开发。
	DisableAuth bool `json:"disable-auth" mapstructure:"disable-auth"`
}

// NewHubOptions creates new HubOptions with defaults.
func NewHubOptions() *HubOptions {
	return &HubOptions{
		ChunkSize:       1000,
		ChunkOverlap:    200,
		TopK:            5,
		MinScore:        0.3,
		EmbeddingDim:    1536,
		EmbedTimeout:    30 * time.Second,
		UploadDir:       "_output/uploads",
		MaxUploadSize:   10 << 20,
		ReingestWorkers: 4,
	}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	embeddingOpts := NewLLMProviderOptions()
	embeddingOpts.Provider = "openai"
	embeddingOpts.BaseURL = "https://api.openai.com/v1"
	embeddingOpts.Model = "text-embedding-3-small"

	chatOpts := NewLLMProviderOptions()
	chatOpts.Provider = "openai"
	chatOpts.BaseURL = "https://api.openai.com/v1"
	chatOpts.Model = "gpt-4o-mini"

	return &Options{
		Server: &ServerOptions{
			Addr:            ":8090",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: logopts.NewOptions(),
		DB:  dbopts.NewOptions(),
		Vector: &VectorOptions{
			Driver:     "milvus",
			Collection: "knowledge_chunks",
			Milvus:     milvusopts.NewOptions(),
		},
		Embedding: embeddingOpts,
		Chat:      chatOpts,
		Hub:       NewHubOptions(),
		JWT:       &JWTOptions{},
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "HTTP listen address")
	fs.StringVar(&o.Server.Mode, "server.mode", o.Server.Mode, "Server mode (debug|release|test)")
	fs.DurationVar(&o.Server.ShutdownTimeout, "server.shutdown-timeout", o.Server.ShutdownTimeout, "Graceful shutdown timeout")

	o.Log.AddFlags(fs)
	o.DB.AddFlags(fs)
	o.Vector.Milvus.AddFlags(fs, "vector.")
	fs.StringVar(&o.Vector.Driver, "vector.driver", o.Vector.Driver, "Vector store driver (milvus|memory)")
	fs.StringVar(&o.Vector.Collection, "vector.collection", o.Vector.Collection, "Milvus collection name")

	o.addProviderFlags(fs, "embedding", o.Embedding)
	o.addProviderFlags(fs, "chat", o.Chat)
	o.addHubFlags(fs)

	fs.StringVar(&o.JWT.Key, "jwt.key", o.JWT.Key, "JWT HMAC signing key")
	fs.BoolVar(&o.JWT.DisableAuth, "jwt.disable-auth", o.JWT.DisableAuth, "Disable authentication (development only)")
}

func (o *Options) addProviderFlags(fs *pflag.FlagSet, prefix string, opts *LLMProviderOptions) {
	fs.StringVar(&opts.Provider, prefix+".provider", opts.Provider, "Provider name (ollama, openai)")
	fs.StringVar(&opts.BaseURL, prefix+".base-url", opts.BaseURL, "Provider API base URL")
	fs.StringVar(&opts.APIKey, prefix+".api-key", opts.APIKey, "Provider API key")
	fs.StringVar(&opts.Model, prefix+".model", opts.Model, "Model name")
	fs.DurationVar(&opts.Timeout, prefix+".timeout", opts.Timeout, "Request timeout")
	fs.IntVar(&opts.MaxRetries, prefix+".max-retries", opts.MaxRetries, "Max retries")
}

func (o *Options) addHubFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Hub.ChunkSize, "hub.chunk-size", o.Hub.ChunkSize, "Size of text chunks in characters")
	fs.IntVar(&o.Hub.ChunkOverlap, "hub.chunk-overlap", o.Hub.ChunkOverlap, "Overlap between chunks")
	fs.IntVar(&o.Hub.TopK, "hub.top-k", o.Hub.TopK, "Default number of retrieval results")
	fs.Float32Var(&o.Hub.MinScore, "hub.min-score", o.Hub.MinScore, "Similarity floor for retrieval")
	fs.IntVar(&o.Hub.EmbeddingDim, "hub.embedding-dim", o.Hub.EmbeddingDim, "Embedding vector dimension")
	fs.DurationVar(&o.Hub.EmbedTimeout, "hub.embed-timeout", o.Hub.EmbedTimeout, "Per-chunk embedding timeout")
	fs.StringVar(&o.Hub.UploadDir, "hub.upload-dir", o.Hub.UploadDir, "Directory for uploaded files")
	fs.Int64Var(&o.Hub.MaxUploadSize, "hub.max-upload-size", o.Hub.MaxUploadSize, "Upload size limit in bytes")
	fs.IntVar(&o.Hub.ReingestWorkers, "hub.reingest-workers", o.Hub.ReingestWorkers, "Concurrency for batch re-ingestion")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if errs := o.DB.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if o.Vector.Driver != "milvus" && o.Vector.Driver != "memory" {
		return fmt.Errorf("vector.driver must be milvus or memory, got %q", o.Vector.Driver)
	}
	if o.Vector.Driver == "milvus" {
		if errs := o.Vector.Milvus.Validate(); len(errs) > 0 {
			return errs[0]
		}
		if o.Vector.Collection == "" {
			return fmt.Errorf("vector.collection is required")
		}
	}
	if err := o.validateProvider("embedding", o.Embedding); err != nil {
		return err
	}
	if err := o.validateProvider("chat", o.Chat); err != nil {
		return err
	}
	if o.Hub.ChunkSize <= 0 {
		return fmt.Errorf("hub.chunk-size must be positive")
	}
	if o.Hub.ChunkOverlap < 0 || o.Hub.ChunkOverlap >= o.Hub.ChunkSize {
		return fmt.Errorf("hub.chunk-overlap must be in [0, chunk-size)")
	}
	if o.Hub.TopK <= 0 {
		return fmt.Errorf("hub.top-k must be positive")
	}
	if o.Hub.MinScore < 0 || o.Hub.MinScore > 1 {
		return fmt.Errorf("hub.min-score must be in [0, 1]")
	}
	if o.Hub.EmbeddingDim <= 0 {
		return fmt.Errorf("hub.embedding-dim must be positive")
	}
	if !o.JWT.DisableAuth && len(o.JWT.Key) < 32 {
		return fmt.Errorf("jwt.key must be at least 32 characters unless jwt.disable-auth is set")
	}
	return nil
}

func (o *Options) validateProvider(prefix string, opts *LLMProviderOptions) error {
	if opts.Provider == "" {
		return fmt.Errorf("%s.provider is required", prefix)
	}
	if opts.BaseURL == "" {
		return fmt.Errorf("%s.base-url is required", prefix)
	}
	if opts.Model == "" {
		return fmt.Errorf("%s.model is required", prefix)
	}
	if opts.Provider == "openai" && opts.APIKey == "" {
		return fmt.Errorf("%s.api-key is required for openai provider", prefix)
	}
	return nil
}

// Complete completes the options.
func (o *Options) Complete() error {
	return nil
}

package hub

import (
	"github.com/kart-io/knowledge-hub/pkg/app"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/knowledge-hub/pkg/llm/ollama"
	_ "github.com/kart-io/knowledge-hub/pkg/llm/openai"
)

const (
	appName        = "knowledge-hub"
	appDescription = `Knowledge Hub

A retrieval-augmented knowledge base service.

This server provides:
  - Document upload with extraction, chunking and vector indexing
  - Semantic similarity search over indexed chunks
  - Grounded question answering with source citations`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

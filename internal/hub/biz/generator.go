package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/knowledge-hub/internal/hub/metrics"
	"github.com/kart-io/knowledge-hub/internal/model"
	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
	"github.com/kart-io/knowledge-hub/pkg/llm"
)

// DefaultPromptTemplate 默认回答提示词模板。
const DefaultPromptTemplate = `You are a knowledge base assistant. Answer the question using ONLY the reference content below. Cite sources with their [n] markers. If the reference content does not contain the answer, say you do not know.

Reference content:
{{context}}

Question: {{question}}

Answer:`

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// PromptTemplate 提示词模板，必须包含 {{context}} 和 {{question}} 占位符。
	// 为空时使用 DefaultPromptTemplate。
	PromptTemplate string
}

// Generator 基于检索结果生成有依据的答案。
type Generator struct {
	chat     llm.ChatProvider
	template string
}

// NewGenerator 创建生成器实例。
func NewGenerator(chat llm.ChatProvider, config *GeneratorConfig) *Generator {
	template := config.PromptTemplate
	if template == "" {
		template = DefaultPromptTemplate
	}
	return &Generator{chat: chat, template: template}
}

// GenerateAnswer 组装带引用编号的提示词并调用 LLM。调用失败是致命的，
// 本层不做重试。
func (g *Generator) GenerateAnswer(ctx context.Context, question string, chunks []model.RetrievedChunk) (string, error) {
	prompt := g.buildPrompt(question, chunks)

	start := time.Now()
	answer, err := g.chat.Generate(ctx, prompt, "")
	metrics.GetHubMetrics().RecordLLMCall(time.Since(start), err)
	if err != nil {
		logger.Errorw("答案生成失败", "provider", g.chat.Name(), "error", err.Error())
		return "", huberrors.ErrLLMFailed.WithCause(err)
	}

	logger.Infow("答案生成完成",
		"provider", g.chat.Name(),
		"sources", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(answer), nil
}

// buildPrompt 按排名顺序用 1 起始的引用编号枚举块内容。
func (g *Generator) buildPrompt(question string, chunks []model.RetrievedChunk) string {
	var sb strings.Builder
	for n, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("[%d] From %s:\n%s\n\n", n+1, chunk.DocumentName, chunk.Content))
	}

	prompt := strings.ReplaceAll(g.template, "{{context}}", strings.TrimSpace(sb.String()))
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)
	return prompt
}

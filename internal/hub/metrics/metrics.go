// Package metrics 提供 knowledge-hub 服务的业务指标收集。
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// HubMetrics knowledge-hub 业务指标。
type HubMetrics struct {
	// 摄取指标
	documentsIngested uint64 // 成功摄取文档数
	chunksIndexed     uint64 // 已索引块数
	embeddingsStored  uint64 // 已存储向量数
	embeddingsSkipped uint64 // 因单块失败跳过的向量数
	ingestErrors      uint64 // 摄取失败次数

	// 查询指标
	queriesTotal  uint64 // 总查询次数
	queriesEmpty  uint64 // 无结果的查询次数
	queriesErrors uint64 // 查询错误次数

	// LLM 调用指标
	llmCallsTotal    uint64  // LLM 总调用次数
	llmCallsErrors   uint64  // LLM 调用错误次数
	llmCallsDuration float64 // LLM 调用总耗时（秒）

	durationMu sync.Mutex
	startTime  time.Time
}

var (
	globalHubMetrics *HubMetrics
	hubMetricsOnce   sync.Once
)

// GetHubMetrics 获取全局指标实例。
func GetHubMetrics() *HubMetrics {
	hubMetricsOnce.Do(func() {
		globalHubMetrics = &HubMetrics{startTime: time.Now()}
	})
	return globalHubMetrics
}

// RecordIngest 记录一次摄取。skipped 为因单块嵌入失败而跳过的数量。
func (m *HubMetrics) RecordIngest(chunks, embeddings, skipped int, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}
	atomic.AddUint64(&m.documentsIngested, 1)
	atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
	atomic.AddUint64(&m.embeddingsStored, uint64(embeddings))
	atomic.AddUint64(&m.embeddingsSkipped, uint64(skipped))
}

// RecordQuery 记录一次查询。
func (m *HubMetrics) RecordQuery(empty bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if empty {
		atomic.AddUint64(&m.queriesEmpty, 1)
	}
}

// RecordLLMCall 记录一次 LLM 调用。
func (m *HubMetrics) RecordLLMCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}
	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// Stats 返回当前指标快照。
func (m *HubMetrics) Stats() map[string]any {
	m.durationMu.Lock()
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	return map[string]any{
		"ingest": map[string]any{
			"documents":          atomic.LoadUint64(&m.documentsIngested),
			"chunks":             atomic.LoadUint64(&m.chunksIndexed),
			"embeddings":         atomic.LoadUint64(&m.embeddingsStored),
			"embeddings_skipped": atomic.LoadUint64(&m.embeddingsSkipped),
			"errors":             atomic.LoadUint64(&m.ingestErrors),
		},
		"queries": map[string]any{
			"total":  atomic.LoadUint64(&m.queriesTotal),
			"empty":  atomic.LoadUint64(&m.queriesEmpty),
			"errors": atomic.LoadUint64(&m.queriesErrors),
		},
		"llm": map[string]any{
			"calls":            atomic.LoadUint64(&m.llmCallsTotal),
			"errors":           atomic.LoadUint64(&m.llmCallsErrors),
			"duration_seconds": llmDuration,
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

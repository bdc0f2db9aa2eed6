// Package stats 统计翻译提供商的调用情况
package stats

import (
	"errors"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// ProviderStats Provider调用统计
type ProviderStats struct {
	ProviderName       string           `json:"provider_name"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	CharactersIn       int64            `json:"characters_in"`
	CharactersOut      int64            `json:"characters_out"`
	TotalTokensIn      int64            `json:"total_tokens_in"`
	TotalTokensOut     int64            `json:"total_tokens_out"`
	TotalLatency       time.Duration    `json:"total_latency"`
	MaxLatency         time.Duration    `json:"max_latency"`
	ErrorTypes         map[string]int64 `json:"error_types"` // 按错误类型统计
}

// AverageLatency 平均延迟
func (s ProviderStats) AverageLatency() time.Duration {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalRequests)
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success       bool
	Latency       time.Duration
	CharactersIn  int
	CharactersOut int
	TokensIn      int
	TokensOut     int
	ErrorType     string
}

// Collector 线程安全的统计收集器
type Collector struct {
	mu    sync.Mutex
	stats ProviderStats
}

// NewCollector 创建统计收集器
func NewCollector(providerName string) *Collector {
	return &Collector{
		stats: ProviderStats{
			ProviderName: providerName,
			ErrorTypes:   make(map[string]int64),
		},
	}
}

// Record 记录一次请求
func (c *Collector) Record(result RequestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalRequests++
	if result.Success {
		c.stats.SuccessfulRequests++
	} else {
		c.stats.FailedRequests++
		if result.ErrorType != "" {
			c.stats.ErrorTypes[result.ErrorType]++
		}
	}
	c.stats.CharactersIn += int64(result.CharactersIn)
	c.stats.CharactersOut += int64(result.CharactersOut)
	c.stats.TotalTokensIn += int64(result.TokensIn)
	c.stats.TotalTokensOut += int64(result.TokensOut)
	c.stats.TotalLatency += result.Latency
	if result.Latency > c.stats.MaxLatency {
		c.stats.MaxLatency = result.Latency
	}
}

// Snapshot 返回当前统计的副本
func (c *Collector) Snapshot() ProviderStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.stats
	snapshot.ErrorTypes = make(map[string]int64, len(c.stats.ErrorTypes))
	for k, v := range c.stats.ErrorTypes {
		snapshot.ErrorTypes[k] = v
	}
	return snapshot
}

// errorType 提取错误类型，提供商错误使用其错误代码
func errorType(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return "unknown"
}

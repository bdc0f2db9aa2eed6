package stats

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	providers.Provider
	collector *Collector
}

// NewStatisticsMiddleware 创建统计中间件
func NewStatisticsMiddleware(next providers.Provider, collector *Collector) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		Provider:  next,
		collector: collector,
	}
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	startTime := time.Now()

	resp, err := sm.Provider.Translate(ctx, req)

	result := RequestResult{
		Success:      err == nil,
		Latency:      time.Since(startTime),
		CharactersIn: utf8.RuneCountInString(req.Text),
	}
	if err != nil {
		result.ErrorType = errorType(err)
	} else if resp != nil {
		result.CharactersOut = utf8.RuneCountInString(resp.Text)
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
	}
	sm.collector.Record(result)

	return resp, err
}

// DetectLanguage 转发给支持检测的下层提供商
func (sm *StatisticsMiddleware) DetectLanguage(ctx context.Context, text string) (string, error) {
	if detector, ok := sm.Provider.(providers.Detector); ok {
		return detector.DetectLanguage(ctx, text)
	}
	resp, err := sm.Translate(ctx, &providers.ProviderRequest{Text: text, TargetLanguage: "en"})
	if err != nil {
		return "", err
	}
	return resp.SourceLang, nil
}

// Stats 返回统计快照
func (sm *StatisticsMiddleware) Stats() ProviderStats {
	return sm.collector.Snapshot()
}

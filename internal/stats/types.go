package stats

import (
	"time"
)

// 翻译记录状态
const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete" // 渲染未产生全部输出
	StatusFailed     = "failed"
)

// StatisticsDB 统计数据库结构
type StatisticsDB struct {
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	// 总体统计
	TotalTranslations int64         `json:"total_translations"`
	TotalPages        int64         `json:"total_pages"`
	TotalSegments     int64         `json:"total_segments"`
	TotalCharacters   int64         `json:"total_characters"`
	TotalErrors       int64         `json:"total_errors"`
	TotalDuration     time.Duration `json:"total_duration"`

	// 语言对统计
	LanguagePairs map[string]*LanguagePairStats `json:"language_pairs"`

	// 提供商统计
	Providers map[string]*ProviderUsage `json:"providers"`

	// 最近的翻译记录
	RecentTranslations []*TranslationRecord `json:"recent_translations"`

	// 性能统计
	PerformanceStats PerformanceStatistics `json:"performance_stats"`
}

// LanguagePairStats 语言对统计
type LanguagePairStats struct {
	SourceLanguage   string        `json:"source_language"`
	TargetLanguage   string        `json:"target_language"`
	TranslationCount int64         `json:"translation_count"`
	PageCount        int64         `json:"page_count"`
	CharacterCount   int64         `json:"character_count"`
	ErrorCount       int64         `json:"error_count"`
	AverageDuration  time.Duration `json:"average_duration"`
	LastUsed         time.Time     `json:"last_used"`
}

// ProviderUsage 单个提供商的累计调用情况
type ProviderUsage struct {
	Name           string        `json:"name"`
	Runs           int64         `json:"runs"`
	Requests       int64         `json:"requests"`
	FailedRequests int64         `json:"failed_requests"`
	CharactersIn   int64         `json:"characters_in"`
	CharactersOut  int64         `json:"characters_out"`
	TotalLatency   time.Duration `json:"total_latency"`
	LastUsed       time.Time     `json:"last_used"`
}

// TranslationRecord 一次 PDF 翻译的记录
type TranslationRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	InputFile      string    `json:"input_file"`
	OutputFile     string    `json:"output_file"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	DetectedSource string    `json:"detected_source,omitempty"`
	Provider       string    `json:"provider"`

	// 统计信息
	Pages          int           `json:"pages"`
	Segments       int           `json:"segments"`
	Fragments      int           `json:"fragments"`
	ReplacedNodes  int           `json:"replaced_nodes"`
	CharacterCount int           `json:"character_count"`
	Duration       time.Duration `json:"duration"`
	Status         string        `json:"status"`
	FinalState     string        `json:"final_state"`

	// 提供商请求统计
	Requests       int64 `json:"requests"`
	FailedRequests int64 `json:"failed_requests"`
	CharactersOut  int64 `json:"characters_out"`

	// 错误信息
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	OutputPaths []string `json:"output_paths,omitempty"`
}

// Failed 是否失败或输出不完整
func (r *TranslationRecord) Failed() bool {
	return r.Status != StatusCompleted
}

// PerformanceStatistics 性能统计
type PerformanceStatistics struct {
	AverageTranslationSpeed float64       `json:"average_translation_speed"` // 字符/秒
	AveragePagesPerMinute   float64       `json:"average_pages_per_minute"`
	FastestTranslation      time.Duration `json:"fastest_translation"`
	SlowestTranslation      time.Duration `json:"slowest_translation"`
}

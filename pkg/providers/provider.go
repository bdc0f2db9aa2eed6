// Package providers 定义远程翻译服务的统一接口
package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`

	// 代理设置
	ProxyURL string `json:"proxy_url,omitempty"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Headers:    make(map[string]string),
	}
}

// NewHTTPClient 按配置创建 HTTP 客户端，设置代理与超时
func NewHTTPClient(cfg BaseConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", cfg.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

// TranslationProvider 提供商基础接口
type TranslationProvider interface {
	// Translate 执行翻译
	Translate(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// GetName 获取提供商名称
	GetName() string
}

// Provider 提供商接口（扩展 TranslationProvider）
type Provider interface {
	TranslationProvider

	// GetCapabilities 获取提供商能力
	GetCapabilities() Capabilities

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error
}

// Detector 可选接口，支持语言检测的提供商实现
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Capabilities 提供商能力
type Capabilities struct {
	// 最大文本长度，0 表示不限制
	MaxTextLength int `json:"max_text_length"`

	// 是否需要API密钥
	RequiresAPIKey bool `json:"requires_api_key"`

	// 是否支持语言检测
	SupportsDetection bool `json:"supports_detection"`
}

// Error 提供商错误
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeTimeout, ErrCodeServer:
		return true
	default:
		return false
	}
}

// 错误代码
const (
	ErrCodeRateLimit = "rate_limit"
	ErrCodeTimeout   = "timeout"
	ErrCodeServer    = "server_error"
	ErrCodeClient    = "client_error"
	ErrCodeResponse  = "invalid_response"
)

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// StatusError 根据 HTTP 状态码创建错误
func StatusError(status int, body string) *Error {
	code := ErrCodeClient
	switch {
	case status == http.StatusTooManyRequests:
		code = ErrCodeRateLimit
	case status >= 500:
		code = ErrCodeServer
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return &Error{
		Code:       code,
		Message:    fmt.Sprintf("unexpected response: %s", body),
		StatusCode: status,
	}
}

// ProviderRequest 提供商请求
type ProviderRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// ProviderResponse 提供商响应
type ProviderResponse struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
	TokensIn   int    `json:"tokens_in,omitempty"`
	TokensOut  int    `json:"tokens_out,omitempty"`
	Model      string `json:"model,omitempty"`
}

// Package libretranslate 实现自建 LibreTranslate 服务的提供商
package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/retry"
)

// DefaultEndpoint 官方演示服务器
const DefaultEndpoint = "https://libretranslate.com"

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = DefaultEndpoint
	return config
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

// New 创建新的LibreTranslate提供商
func New(config Config) (*Provider, error) {
	if config.APIEndpoint == "" {
		config.APIEndpoint = DefaultEndpoint
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	client, err := providers.NewHTTPClient(config.BaseConfig)
	if err != nil {
		return nil, err
	}

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = config.MaxRetries
	if config.RetryDelay > 0 {
		retryConfig.InitialDelay = config.RetryDelay
	}

	return &Provider{
		config:     config,
		httpClient: client,
		retrier:    retry.NewNetworkRetrier(retryConfig),
	}, nil
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := req.SourceLanguage
	if source == "" {
		source = "auto"
	}

	var resp TranslateResponse
	err := p.postJSON(ctx, "/translate", TranslateRequest{
		Q:      req.Text,
		Source: source,
		Target: req.TargetLanguage,
		Format: "text",
		APIKey: p.config.APIKey,
	}, &resp)
	if err != nil {
		return nil, err
	}

	detected := req.SourceLanguage
	if resp.DetectedLanguage != nil {
		detected = resp.DetectedLanguage.Language
	}

	return &providers.ProviderResponse{
		Text:       resp.TranslatedText,
		SourceLang: detected,
		TargetLang: req.TargetLanguage,
		Model:      "libretranslate",
	}, nil
}

// DetectLanguage 检测文本语言，取置信度最高的结果
func (p *Provider) DetectLanguage(ctx context.Context, text string) (string, error) {
	var detections []Detection
	err := p.postJSON(ctx, "/detect", DetectRequest{Q: text, APIKey: p.config.APIKey}, &detections)
	if err != nil {
		return "", err
	}
	if len(detections) == 0 {
		return "", providers.NewError(providers.ErrCodeResponse, "libretranslate: no detection returned")
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best.Language, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:     0,
		RequiresAPIKey:    false,
		SupportsDetection: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return providers.StatusError(resp.StatusCode, resp.Status)
	}
	return nil
}

// postJSON 发送 JSON 请求并解码响应
func (p *Provider) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.retrier.ExecuteWithRetry(ctx, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return p.httpClient.Do(httpReq)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return providers.StatusError(resp.StatusCode, "LibreTranslate error: "+apiErr.Error)
		}
		return providers.StatusError(resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText   string     `json:"translatedText"`
	DetectedLanguage *Detection `json:"detectedLanguage,omitempty"`
}

// DetectRequest 语言检测请求
type DetectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

// Detection 检测结果
type Detection struct {
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

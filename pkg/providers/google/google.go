// Package google 实现 Google 翻译提供商
//
// 未配置 API 密钥时使用免费的 translate_a/single 接口，配置后使用 Cloud Translation v2。
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/retry"
)

const (
	// CloudEndpoint Cloud Translation v2 接口
	CloudEndpoint = "https://translation.googleapis.com/language/translate/v2"
	// FreeEndpoint 网页版使用的免费接口
	FreeEndpoint = "https://translate.googleapis.com/translate_a/single"
)

// desktopUserAgents 免费接口请求时随机选择的浏览器标识
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
	// FreeEndpoint 免费接口地址，测试时可替换
	FreeEndpoint string `json:"free_endpoint,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:   providers.DefaultConfig(),
		FreeEndpoint: FreeEndpoint,
	}
	config.APIEndpoint = CloudEndpoint
	return config
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

// New 创建新的Google Translate提供商
func New(config Config) (*Provider, error) {
	if config.APIEndpoint == "" {
		config.APIEndpoint = CloudEndpoint
	}
	if config.FreeEndpoint == "" {
		config.FreeEndpoint = FreeEndpoint
	}

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

// usesCloudAPI 是否使用付费接口
func (p *Provider) usesCloudAPI() bool {
	return p.config.APIKey != ""
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return &providers.ProviderResponse{Text: req.Text, TargetLang: req.TargetLanguage}, nil
	}

	if p.usesCloudAPI() {
		return p.translateCloud(ctx, req)
	}
	return p.translateFree(ctx, req)
}

// DetectLanguage 检测文本语言
func (p *Provider) DetectLanguage(ctx context.Context, text string) (string, error) {
	if p.usesCloudAPI() {
		return p.detectCloud(ctx, text)
	}
	// 免费接口没有单独的检测入口，翻译为英文并读取检测到的源语言
	resp, err := p.translateFree(ctx, &providers.ProviderRequest{Text: text, TargetLanguage: "en"})
	if err != nil {
		return "", err
	}
	return resp.SourceLang, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "google"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:     5000,
		RequiresAPIKey:    false,
		SupportsDetection: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.Translate(ctx, &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	return err
}

// translateFree 调用免费接口
//
// 响应为嵌套数组：下标 0 是译文分句列表，每项的第一个元素为译文；下标 2 为检测到的源语言。
func (p *Provider) translateFree(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := req.SourceLanguage
	if source == "" {
		source = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", req.TargetLanguage)
	params.Set("dt", "t")
	params.Set("ie", "UTF-8")
	params.Set("oe", "UTF-8")
	endpoint := p.config.FreeEndpoint + "?" + params.Encode()

	form := url.Values{}
	form.Set("q", req.Text)

	body, err := p.post(ctx, endpoint, form, true)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, providers.NewError(providers.ErrCodeResponse, "google: malformed response")
	}

	var sb strings.Builder
	gjson.GetBytes(body, "0").ForEach(func(_, sentence gjson.Result) bool {
		sb.WriteString(sentence.Get("0").String())
		return true
	})

	return &providers.ProviderResponse{
		Text:       sb.String(),
		SourceLang: gjson.GetBytes(body, "2").String(),
		TargetLang: req.TargetLanguage,
		Model:      "google-translate-free",
	}, nil
}

// translateCloud 调用 Cloud Translation v2
func (p *Provider) translateCloud(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	form := url.Values{}
	form.Set("key", p.config.APIKey)
	form.Set("q", req.Text)
	if req.SourceLanguage != "" {
		form.Set("source", req.SourceLanguage)
	}
	form.Set("target", req.TargetLanguage)
	form.Set("format", "text")

	body, err := p.post(ctx, p.config.APIEndpoint, form, false)
	if err != nil {
		return nil, err
	}

	var translateResp TranslateResponse
	if err := json.Unmarshal(body, &translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(translateResp.Data.Translations) == 0 {
		return nil, providers.NewError(providers.ErrCodeResponse, "google: no translation returned")
	}

	first := translateResp.Data.Translations[0]
	source := first.DetectedSourceLanguage
	if source == "" {
		source = req.SourceLanguage
	}
	return &providers.ProviderResponse{
		Text:       first.TranslatedText,
		SourceLang: source,
		TargetLang: req.TargetLanguage,
		Model:      "google-translate",
	}, nil
}

// detectCloud 调用 Cloud Translation v2 的 detect 接口
func (p *Provider) detectCloud(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("key", p.config.APIKey)
	form.Set("q", text)

	body, err := p.post(ctx, strings.TrimRight(p.config.APIEndpoint, "/")+"/detect", form, false)
	if err != nil {
		return "", err
	}

	language := gjson.GetBytes(body, "data.detections.0.0.language")
	if !language.Exists() {
		return "", providers.NewError(providers.ErrCodeResponse, "google: no detection returned")
	}
	return language.String(), nil
}

// post 发送表单请求并返回响应体，失败时按配置重试
func (p *Provider) post(ctx context.Context, endpoint string, form url.Values, randomAgent bool) ([]byte, error) {
	encoded := form.Encode()

	resp, err := p.retrier.ExecuteWithRetry(ctx, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
		if randomAgent {
			httpReq.Header.Set("User-Agent", desktopUserAgents[rand.Intn(len(desktopUserAgents))])
		}
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return p.httpClient.Do(httpReq)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, providers.StatusError(resp.StatusCode, "Google API error: "+apiErr.Error.Message)
		}
		return nil, providers.StatusError(resp.StatusCode, string(body))
	}

	return body, nil
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}

// APIError API错误
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

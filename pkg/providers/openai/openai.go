// Package openai 通过 OpenAI 兼容的对话接口进行翻译
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/retry"
)

const (
	translateInstruction = "You are a professional translator. Translate the user's text from %s to %s. " +
		"The text has one fragment per line: keep every line break and output exactly one translated line per input line, in the same order. " +
		"Output only the translation without explanations."
	detectInstruction = "Identify the language of the user's text. Reply with its ISO 639-1 code only, for example: en."
)

// Config OpenAI配置
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       openai.GPT3Dot5Turbo,
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// Provider OpenAI提供商
type Provider struct {
	config Config
	client *openai.Client
}

// New 创建新的OpenAI提供商
func New(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT3Dot5Turbo
	}

	httpClient, err := providers.NewHTTPClient(config.BaseConfig)
	if err != nil {
		return nil, err
	}

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = config.MaxRetries
	if config.RetryDelay > 0 {
		retryConfig.InitialDelay = config.RetryDelay
	}
	httpClient.Transport = &retry.Transport{
		Base:    httpClient.Transport,
		Retrier: retry.NewNetworkRetrier(retryConfig),
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.HTTPClient = httpClient
	if config.APIEndpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	source := req.SourceLanguage
	if source == "" {
		source = "the detected source language"
	}

	resp, err := p.complete(ctx, fmt.Sprintf(translateInstruction, source, req.TargetLanguage), req.Text)
	if err != nil {
		return nil, err
	}

	return &providers.ProviderResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		SourceLang: req.SourceLanguage,
		TargetLang: req.TargetLanguage,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		Model:      resp.Model,
	}, nil
}

// DetectLanguage 让模型识别文本语言
func (p *Provider) DetectLanguage(ctx context.Context, text string) (string, error) {
	resp, err := p.complete(ctx, detectInstruction, text)
	if err != nil {
		return "", err
	}
	code := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	return strings.Trim(code, ".\"'`"), nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:     0,
		RequiresAPIKey:    true,
		SupportsDetection: true,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	return err
}

func (p *Provider) complete(ctx context.Context, system, user string) (openai.ChatCompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return resp, providers.StatusError(apiErr.HTTPStatusCode, "OpenAI API error: "+apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return resp, providers.StatusError(reqErr.HTTPStatusCode, reqErr.Error())
		}
		return resp, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return resp, providers.NewError(providers.ErrCodeResponse, "openai: no choices returned")
	}
	return resp, nil
}

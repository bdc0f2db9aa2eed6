// Package factory 根据配置创建翻译提供商
package factory

import (
	"time"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/google"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/raw"
)

// ProviderFactory 提供商工厂
type ProviderFactory struct {
	registry *providers.Registry
}

// New 创建新的提供商工厂，注册全部内置提供商
func New() *ProviderFactory {
	registry := providers.NewRegistry()
	registry.Register("google", createGoogleProvider)
	registry.Register("libretranslate", createLibreTranslateProvider)
	registry.Register("openai", createOpenAIProvider)
	registry.Register("raw", createRawProvider)
	return &ProviderFactory{registry: registry}
}

// Names 返回可用的提供商名称
func (f *ProviderFactory) Names() []string {
	return f.registry.List()
}

// CreateProvider 根据配置创建提供商
func (f *ProviderFactory) CreateProvider(name string, cfg *config.Config) (providers.Provider, error) {
	if name == "none" {
		name = "raw"
	}
	return f.registry.Create(name, Settings(cfg, name))
}

// Settings 将全局配置转换为提供商设置
func Settings(cfg *config.Config, name string) providers.Settings {
	pc := cfg.ProviderConfig(name)

	base := providers.DefaultConfig()
	base.APIKey = pc.APIKey
	base.APIEndpoint = pc.BaseURL
	base.ProxyURL = pc.ProxyURL
	if cfg.RequestTimeout > 0 {
		base.Timeout = cfg.RequestTimeoutDuration()
	}
	base.MaxRetries = cfg.MaxRetries

	return providers.Settings{
		BaseConfig:  base,
		Model:       pc.Model,
		Temperature: pc.Temperature,
	}
}

// createGoogleProvider 创建 Google 提供商
func createGoogleProvider(s providers.Settings) (providers.Provider, error) {
	cfg := google.DefaultConfig()
	cfg.BaseConfig = withEndpoint(s.BaseConfig, google.CloudEndpoint)
	return google.New(cfg)
}

// createLibreTranslateProvider 创建 LibreTranslate 提供商
func createLibreTranslateProvider(s providers.Settings) (providers.Provider, error) {
	cfg := libretranslate.DefaultConfig()
	cfg.BaseConfig = withEndpoint(s.BaseConfig, libretranslate.DefaultEndpoint)
	return libretranslate.New(cfg)
}

// createOpenAIProvider 创建 OpenAI 提供商
func createOpenAIProvider(s providers.Settings) (providers.Provider, error) {
	cfg := openai.DefaultConfig()
	cfg.BaseConfig = s.BaseConfig
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Temperature > 0 {
		cfg.Temperature = float32(s.Temperature)
	}
	return openai.New(cfg)
}

// createRawProvider 创建直通提供商
func createRawProvider(providers.Settings) (providers.Provider, error) {
	return raw.New(), nil
}

func withEndpoint(base providers.BaseConfig, fallback string) providers.BaseConfig {
	if base.APIEndpoint == "" {
		base.APIEndpoint = fallback
	}
	if base.RetryDelay <= 0 {
		base.RetryDelay = time.Second
	}
	return base
}

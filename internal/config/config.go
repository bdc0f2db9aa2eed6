package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig 保存单个翻译提供商的配置
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	ProxyURL    string  `mapstructure:"proxy_url"`
}

// ToolsConfig 外部 PDF 工具配置
type ToolsConfig struct {
	PDFBackend     string   `mapstructure:"pdf_backend"` // native 或 pdftk
	QPDF           string   `mapstructure:"qpdf"`
	PDFTK          string   `mapstructure:"pdftk"`
	PDF2HTMLEX     string   `mapstructure:"pdf2htmlex"`
	WKHTMLTOPDF    string   `mapstructure:"wkhtmltopdf"`
	RenderPrefix   []string `mapstructure:"render_prefix"`   // 渲染命令前缀，默认 xvfb-run -a
	ConvertTimeout int      `mapstructure:"convert_timeout"` // 转换/渲染超时（秒）
	ToolTimeout    int      `mapstructure:"tool_timeout"`    // 解密/页数工具超时（秒）
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	Workers     int    `mapstructure:"workers"`       // 同时运行的翻译任务数
	QueueSize   int    `mapstructure:"queue_size"`    // 等待队列长度
	MaxUploadMB int64  `mapstructure:"max_upload_mb"` // 上传文件大小上限
}

// Config 保存翻译器的所有配置
type Config struct {
	SourceLang     string                    `mapstructure:"source_lang"`
	TargetLang     string                    `mapstructure:"target_lang"`
	Provider       string                    `mapstructure:"provider"`
	Providers      map[string]ProviderConfig `mapstructure:"providers"`
	MaxPages       int                       `mapstructure:"max_pages"`       // 允许的最大页数
	SplitPages     int                       `mapstructure:"split_pages"`     // 每个分段的页数
	ChunkSize      int                       `mapstructure:"chunk_size"`      // 单次翻译请求的最大字符数
	Pause          time.Duration             `mapstructure:"pause"`           // 转换与翻译之间的暂停
	Expiration     int                       `mapstructure:"expiration"`      // 输出文件过期时间（秒）
	RequestTimeout int                       `mapstructure:"request_timeout"` // 请求超时时间（秒）
	MaxRetries     int                       `mapstructure:"max_retries"`     // 最大重试次数
	Concurrency    int                       `mapstructure:"concurrency"`     // 分段转换与分块翻译的并发数
	WorkDir        string                    `mapstructure:"work_dir"`
	OutputDir      string                    `mapstructure:"output_dir"`
	KeepTemp       bool                      `mapstructure:"keep_temp"`       // 保留中间文件
	DetectLanguage bool                      `mapstructure:"detect_language"` // 未指定源语言时记录检测结果
	StatsPath      string                    `mapstructure:"stats_path"`
	Debug          bool                      `mapstructure:"debug"`
	Verbose        bool                      `mapstructure:"verbose"` // 详细模式，显示翻译片段
	Tools          ToolsConfig               `mapstructure:"tools"`
	Server         ServerConfig              `mapstructure:"server"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".pdftranslator")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PDFTRANSLATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 补齐未在配置文件中出现的提供商
	for name, pc := range DefaultProviders() {
		if _, ok := config.Providers[name]; !ok {
			if config.Providers == nil {
				config.Providers = make(map[string]ProviderConfig)
			}
			config.Providers[name] = pc
		}
	}

	return &config, nil
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Provider:       "google",
		Providers:      DefaultProviders(),
		MaxPages:       100,
		SplitPages:     20,
		ChunkSize:      3700,
		Pause:          time.Second,
		Expiration:     3600,
		RequestTimeout: 60,
		MaxRetries:     3,
		Concurrency:    2,
		WorkDir:        defaultWorkDir(),
		OutputDir:      filepath.Join("files", "translate"),
		StatsPath:      defaultStatsPath(),
		Tools: ToolsConfig{
			PDFBackend:     "native",
			QPDF:           "qpdf",
			PDFTK:          "pdftk",
			PDF2HTMLEX:     "pdf2htmlEX",
			WKHTMLTOPDF:    "wkhtmltopdf",
			RenderPrefix:   []string{"xvfb-run", "-a"},
			ConvertTimeout: 300,
			ToolTimeout:    60,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			Workers:     2,
			QueueSize:   16,
			MaxUploadMB: 50,
		},
	}
}

// DefaultProviders 返回内置提供商的默认配置
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"google": {},
		"libretranslate": {
			BaseURL: "https://libretranslate.com",
		},
		"openai": {
			Model:       "gpt-3.5-turbo",
			Temperature: 0.3,
		},
		"raw": {},
	}
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch {
	case c.MaxPages <= 0:
		return fmt.Errorf("max_pages must be positive, got %d", c.MaxPages)
	case c.SplitPages <= 0:
		return fmt.Errorf("split_pages must be positive, got %d", c.SplitPages)
	case c.ChunkSize <= 0:
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	case c.Concurrency <= 0:
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	case c.Pause < 0:
		return fmt.Errorf("pause must not be negative")
	case c.Provider == "":
		return fmt.Errorf("provider must be set")
	}

	switch c.Tools.PDFBackend {
	case "native", "pdftk":
	default:
		return fmt.Errorf("unknown pdf backend %q", c.Tools.PDFBackend)
	}
	return nil
}

// ProviderConfig 返回指定提供商的配置，未配置时返回零值
func (c *Config) ProviderConfig(name string) ProviderConfig {
	return c.Providers[name]
}

// RequestTimeoutDuration 单次远程请求超时
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// ExpirationDuration 输出文件与任务记录的保留时间
func (c *Config) ExpirationDuration() time.Duration {
	return time.Duration(c.Expiration) * time.Second
}

// ConvertTimeoutDuration 转换与渲染工具超时
func (t ToolsConfig) ConvertTimeoutDuration() time.Duration {
	return time.Duration(t.ConvertTimeout) * time.Second
}

// ToolTimeoutDuration 解密与页数工具超时
func (t ToolsConfig) ToolTimeoutDuration() time.Duration {
	return time.Duration(t.ToolTimeout) * time.Second
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "pdftranslator")
}

// defaultStatsPath 获取默认统计数据库路径
func defaultStatsPath() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".pdftranslator", "stats.json")
	}
	return filepath.Join(".pdftranslator", "stats.json")
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("source_lang", d.SourceLang)
	v.SetDefault("target_lang", d.TargetLang)
	v.SetDefault("provider", d.Provider)
	v.SetDefault("max_pages", d.MaxPages)
	v.SetDefault("split_pages", d.SplitPages)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("pause", d.Pause)
	v.SetDefault("expiration", d.Expiration)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("keep_temp", false)
	v.SetDefault("detect_language", false)
	v.SetDefault("stats_path", d.StatsPath)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)

	v.SetDefault("tools.pdf_backend", d.Tools.PDFBackend)
	v.SetDefault("tools.qpdf", d.Tools.QPDF)
	v.SetDefault("tools.pdftk", d.Tools.PDFTK)
	v.SetDefault("tools.pdf2htmlex", d.Tools.PDF2HTMLEX)
	v.SetDefault("tools.wkhtmltopdf", d.Tools.WKHTMLTOPDF)
	v.SetDefault("tools.render_prefix", d.Tools.RenderPrefix)
	v.SetDefault("tools.convert_timeout", d.Tools.ConvertTimeout)
	v.SetDefault("tools.tool_timeout", d.Tools.ToolTimeout)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.workers", d.Server.Workers)
	v.SetDefault("server.queue_size", d.Server.QueueSize)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	for name, pc := range d.Providers {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"api_key", pc.APIKey)
		v.SetDefault(prefix+"base_url", pc.BaseURL)
		v.SetDefault(prefix+"model", pc.Model)
		v.SetDefault(prefix+"temperature", pc.Temperature)
		v.SetDefault(prefix+"proxy_url", pc.ProxyURL)
	}
}

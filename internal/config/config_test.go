package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.MaxPages)
	assert.Equal(t, 20, cfg.SplitPages)
	assert.Equal(t, 3700, cfg.ChunkSize)
	assert.Equal(t, time.Second, cfg.Pause)
	assert.Equal(t, 3600, cfg.Expiration)
	assert.Equal(t, 60, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "google", cfg.Provider)
	assert.Equal(t, "native", cfg.Tools.PDFBackend)
	assert.Equal(t, []string{"xvfb-run", "-a"}, cfg.Tools.RenderPrefix)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Contains(t, cfg.Providers, "openai")
	assert.Equal(t, "gpt-3.5-turbo", cfg.ProviderConfig("openai").Model)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
split_pages: 10
pause: 250ms
provider: libretranslate
providers:
  libretranslate:
    base_url: http://localhost:5000
tools:
  pdf_backend: pdftk
  render_prefix: []
`)
	t.Setenv("PDFTRANSLATOR_MAX_PAGES", "42")
	t.Setenv("PDFTRANSLATOR_TOOLS_CONVERT_TIMEOUT", "30")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.SplitPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Pause)
	assert.Equal(t, 42, cfg.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Tools.ConvertTimeoutDuration())
	assert.Equal(t, "pdftk", cfg.Tools.PDFBackend)
	assert.Empty(t, cfg.Tools.RenderPrefix)
	assert.Equal(t, "http://localhost:5000", cfg.ProviderConfig("libretranslate").BaseURL)
	// 配置文件中未出现的提供商仍有默认值
	assert.Contains(t, cfg.Providers, "google")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"页数上限为零", func(c *Config) { c.MaxPages = 0 }},
		{"分段页数为负", func(c *Config) { c.SplitPages = -1 }},
		{"分块大小为零", func(c *Config) { c.ChunkSize = 0 }},
		{"并发数为零", func(c *Config) { c.Concurrency = 0 }},
		{"暂停为负", func(c *Config) { c.Pause = -time.Second }},
		{"未知后端", func(c *Config) { c.Tools.PDFBackend = "mutool" }},
		{"未设置提供商", func(c *Config) { c.Provider = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

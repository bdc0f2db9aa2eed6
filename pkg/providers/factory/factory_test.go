package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

func TestCreateProvider(t *testing.T) {
	f := New()
	cfg := config.NewDefaultConfig()

	assert.Equal(t, []string{"google", "libretranslate", "openai", "raw"}, f.Names())

	t.Run("内置提供商", func(t *testing.T) {
		for _, name := range []string{"google", "libretranslate", "raw"} {
			p, err := f.CreateProvider(name, cfg)
			require.NoError(t, err, name)
			assert.Equal(t, name, p.GetName())
		}
	})

	t.Run("none 等同 raw", func(t *testing.T) {
		p, err := f.CreateProvider("none", cfg)
		require.NoError(t, err)
		resp, err := p.Translate(context.Background(), &providers.ProviderRequest{Text: "same", TargetLanguage: "fr"})
		require.NoError(t, err)
		assert.Equal(t, "same", resp.Text)
	})

	t.Run("openai 需要密钥", func(t *testing.T) {
		_, err := f.CreateProvider("openai", cfg)
		assert.Error(t, err)

		withKey := config.NewDefaultConfig()
		withKey.Providers["openai"] = config.ProviderConfig{APIKey: "k", Model: "gpt-4o-mini"}
		p, err := f.CreateProvider("openai", withKey)
		require.NoError(t, err)
		assert.Equal(t, "openai", p.GetName())
	})

	t.Run("未知提供商", func(t *testing.T) {
		_, err := f.CreateProvider("babelfish", cfg)
		assert.Error(t, err)
	})
}

func TestSettings(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.RequestTimeout = 15
	cfg.MaxRetries = 5
	cfg.Providers["libretranslate"] = config.ProviderConfig{BaseURL: "http://lt:5000", ProxyURL: "http://proxy:3128"}

	s := Settings(cfg, "libretranslate")
	assert.Equal(t, 15*time.Second, s.Timeout)
	assert.Equal(t, 5, s.MaxRetries)
	assert.Equal(t, "http://lt:5000", s.APIEndpoint)
	assert.Equal(t, "http://proxy:3128", s.ProxyURL)
}

package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/raw"
)

type failingProvider struct {
	*raw.Provider
	err error
}

func (f failingProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	return nil, f.err
}

func TestStatisticsMiddleware(t *testing.T) {
	t.Run("记录成功请求", func(t *testing.T) {
		mw := NewStatisticsMiddleware(raw.New(), NewCollector("raw"))
		_, err := mw.Translate(context.Background(), &providers.ProviderRequest{Text: "héllo", TargetLanguage: "fr"})
		require.NoError(t, err)
		_, err = mw.Translate(context.Background(), &providers.ProviderRequest{Text: "ab", TargetLanguage: "fr"})
		require.NoError(t, err)

		s := mw.Stats()
		assert.Equal(t, "raw", s.ProviderName)
		assert.Equal(t, int64(2), s.TotalRequests)
		assert.Equal(t, int64(2), s.SuccessfulRequests)
		assert.Equal(t, int64(7), s.CharactersIn)
		assert.Equal(t, int64(7), s.CharactersOut)
	})

	t.Run("按错误代码统计失败", func(t *testing.T) {
		p := failingProvider{Provider: raw.New(), err: providers.NewError(providers.ErrCodeRateLimit, "slow down")}
		mw := NewStatisticsMiddleware(p, NewCollector("flaky"))
		_, err := mw.Translate(context.Background(), &providers.ProviderRequest{Text: "x"})
		assert.Error(t, err)

		p.err = errors.New("boom")
		mw = NewStatisticsMiddleware(p, mw.collector)
		_, _ = mw.Translate(context.Background(), &providers.ProviderRequest{Text: "x"})

		s := mw.Stats()
		assert.Equal(t, int64(2), s.FailedRequests)
		assert.Equal(t, int64(1), s.ErrorTypes[providers.ErrCodeRateLimit])
		assert.Equal(t, int64(1), s.ErrorTypes["unknown"])
	})

	t.Run("快照互不影响", func(t *testing.T) {
		c := NewCollector("x")
		c.Record(RequestResult{Success: false, ErrorType: "timeout"})
		snap := c.Snapshot()
		snap.ErrorTypes["timeout"] = 99
		assert.Equal(t, int64(1), c.Snapshot().ErrorTypes["timeout"])
	})
}

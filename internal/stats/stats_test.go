package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase(t *testing.T) {
	fs := afero.NewMemMapFs()
	db, err := OpenDatabase(fs, "/home/u/.pdftranslator/stats.json", nil)
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/home/u/.pdftranslator/stats.json")
	require.NoError(t, err)
	assert.True(t, exists, "首次打开即创建文件")

	now := time.Now()
	require.NoError(t, db.AddTranslationRecord(&TranslationRecord{
		ID:             "a",
		Timestamp:      now.Add(-time.Minute),
		SourceLanguage: "en",
		TargetLanguage: "fr",
		Provider:       "google",
		Pages:          25,
		Segments:       2,
		CharacterCount: 1000,
		Duration:       10 * time.Second,
		Requests:       2,
		Status:         StatusCompleted,
	}))
	require.NoError(t, db.AddTranslationRecord(&TranslationRecord{
		ID:             "b",
		Timestamp:      now,
		TargetLanguage: "fr",
		Provider:       "google",
		Pages:          5,
		Segments:       1,
		Duration:       20 * time.Second,
		Status:         StatusFailed,
		ErrorMessage:   "boom",
	}))

	t.Run("汇总", func(t *testing.T) {
		s := db.GetStats()
		assert.EqualValues(t, 2, s.TotalTranslations)
		assert.EqualValues(t, 30, s.TotalPages)
		assert.EqualValues(t, 3, s.TotalSegments)
		assert.EqualValues(t, 1, s.TotalErrors)
		assert.Equal(t, 10*time.Second, s.PerformanceStats.FastestTranslation)
		assert.Equal(t, 20*time.Second, s.PerformanceStats.SlowestTranslation)

		require.Contains(t, s.LanguagePairs, "en-fr")
		require.Contains(t, s.LanguagePairs, "auto-fr", "未指定源语言记为 auto")
		assert.EqualValues(t, 1, s.LanguagePairs["auto-fr"].ErrorCount)

		require.Contains(t, s.Providers, "google")
		assert.EqualValues(t, 2, s.Providers["google"].Runs)
		assert.EqualValues(t, 2, s.Providers["google"].Requests)
	})

	t.Run("最近记录按时间倒序", func(t *testing.T) {
		recent := db.GetRecentTranslations(10)
		require.Len(t, recent, 2)
		assert.Equal(t, "b", recent[0].ID)
		assert.Len(t, db.GetRecentTranslations(1), 1)
	})

	t.Run("重新打开后数据保留", func(t *testing.T) {
		reopened, err := OpenDatabase(fs, "/home/u/.pdftranslator/stats.json", nil)
		require.NoError(t, err)
		assert.EqualValues(t, 2, reopened.GetStats().TotalTranslations)
	})

	t.Run("导出与重置", func(t *testing.T) {
		require.NoError(t, db.Export("/tmp/export.json"))
		exists, _ := afero.Exists(fs, "/tmp/export.json")
		assert.True(t, exists)

		require.NoError(t, db.Reset())
		assert.Zero(t, db.GetStats().TotalTranslations)
		assert.Empty(t, db.GetRecentTranslations(0))
	})
}

func TestRecentRecordsAreCapped(t *testing.T) {
	db, err := OpenDatabase(afero.NewMemMapFs(), "/stats.json", nil)
	require.NoError(t, err)

	base := time.Now()
	for i := 0; i < MaxRecentRecords+5; i++ {
		require.NoError(t, db.AddTranslationRecord(&TranslationRecord{
			Timestamp:      base.Add(time.Duration(i) * time.Second),
			TargetLanguage: "de",
			Status:         StatusCompleted,
		}))
	}
	assert.Len(t, db.GetRecentTranslations(0), MaxRecentRecords)
}

func TestVisualizer(t *testing.T) {
	color.NoColor = true

	db, err := OpenDatabase(afero.NewMemMapFs(), "/stats.json", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	v := NewVisualizer(db, &buf)

	v.ShowLanguagePairs()
	assert.Contains(t, buf.String(), "No language pair data available.")

	require.NoError(t, db.AddTranslationRecord(&TranslationRecord{
		InputFile:      "report.pdf",
		SourceLanguage: "en",
		TargetLanguage: "fr",
		Provider:       "google",
		Pages:          1234,
		Duration:       time.Minute,
		Status:         StatusIncomplete,
		ErrorMessage:   "render failed",
	}))

	buf.Reset()
	v.ShowOverview()
	v.ShowLanguagePairs()
	v.ShowProviders()
	v.ShowRecentTranslations(5)

	out := buf.String()
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "en → fr")
	assert.Contains(t, out, "google")
	assert.Contains(t, out, "❌ report.pdf")
	assert.Contains(t, out, "render failed")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "N/A", formatTime(time.Time{}))
}

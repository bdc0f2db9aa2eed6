package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Visualizer 统计数据可视化器
type Visualizer struct {
	db  *Database
	out io.Writer
}

// NewVisualizer 创建可视化器
func NewVisualizer(db *Database, out io.Writer) *Visualizer {
	if out == nil {
		out = color.Output
	}
	return &Visualizer{db: db, out: out}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgCyan, color.Bold), "📊 PDF Translation Statistics")

	fmt.Fprintln(v.out)
	v.printSection("🎯 Overall", [][]string{
		{"Total Translations", formatNumber(stats.TotalTranslations)},
		{"Total Pages", formatNumber(stats.TotalPages)},
		{"Total Segments", formatNumber(stats.TotalSegments)},
		{"Total Characters", formatNumber(stats.TotalCharacters)},
		{"Total Errors", formatNumber(stats.TotalErrors)},
		{"Total Duration", formatDuration(stats.TotalDuration)},
		{"Database Created", formatTime(stats.CreatedAt)},
		{"Last Updated", formatTime(stats.LastUpdated)},
	})

	fmt.Fprintln(v.out)
	v.printSection("⚡ Performance", [][]string{
		{"Avg Translation Speed", fmt.Sprintf("%.2f chars/sec", stats.PerformanceStats.AverageTranslationSpeed)},
		{"Avg Pages/Minute", fmt.Sprintf("%.2f", stats.PerformanceStats.AveragePagesPerMinute)},
		{"Fastest Translation", formatDuration(stats.PerformanceStats.FastestTranslation)},
		{"Slowest Translation", formatDuration(stats.PerformanceStats.SlowestTranslation)},
	})
}

// ShowLanguagePairs 显示语言对统计
func (v *Visualizer) ShowLanguagePairs() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgMagenta, color.Bold), "🌍 Language Pairs")

	if len(stats.LanguagePairs) == 0 {
		fmt.Fprintln(v.out, "No language pair data available.")
		return
	}

	pairs := make([]*LanguagePairStats, 0, len(stats.LanguagePairs))
	for _, pair := range stats.LanguagePairs {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].TranslationCount != pairs[j].TranslationCount {
			return pairs[i].TranslationCount > pairs[j].TranslationCount
		}
		return pairs[i].SourceLanguage+pairs[i].TargetLanguage < pairs[j].SourceLanguage+pairs[j].TargetLanguage
	})

	for _, pair := range pairs {
		fmt.Fprintln(v.out)
		successRate := float64(pair.TranslationCount-pair.ErrorCount) / float64(pair.TranslationCount) * 100
		v.printSection(fmt.Sprintf("🔄 %s → %s", pair.SourceLanguage, pair.TargetLanguage), [][]string{
			{"Translations", formatNumber(pair.TranslationCount)},
			{"Pages", formatNumber(pair.PageCount)},
			{"Characters", formatNumber(pair.CharacterCount)},
			{"Errors", formatNumber(pair.ErrorCount)},
			{"Success Rate", fmt.Sprintf("%.1f%%", successRate)},
			{"Avg Duration", formatDuration(pair.AverageDuration)},
			{"Last Used", formatTime(pair.LastUsed)},
		})
	}
}

// ShowProviders 显示提供商统计
func (v *Visualizer) ShowProviders() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgGreen, color.Bold), "🔌 Providers")

	if len(stats.Providers) == 0 {
		fmt.Fprintln(v.out, "No provider data available.")
		return
	}

	names := make([]string, 0, len(stats.Providers))
	for name := range stats.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		usage := stats.Providers[name]
		fmt.Fprintln(v.out)
		v.printSection("📡 "+name, [][]string{
			{"Runs", formatNumber(usage.Runs)},
			{"Requests", formatNumber(usage.Requests)},
			{"Failed Requests", formatNumber(usage.FailedRequests)},
			{"Characters In", formatNumber(usage.CharactersIn)},
			{"Characters Out", formatNumber(usage.CharactersOut)},
			{"Last Used", formatTime(usage.LastUsed)},
		})
	}
}

// ShowRecentTranslations 显示最近的翻译
func (v *Visualizer) ShowRecentTranslations(limit int) {
	records := v.db.GetRecentTranslations(limit)

	v.printTitle(color.New(color.FgBlue, color.Bold), fmt.Sprintf("🕒 Recent Translations (Last %d)", len(records)))

	if len(records) == 0 {
		fmt.Fprintln(v.out, "No recent translations found.")
		return
	}

	for _, record := range records {
		fmt.Fprintln(v.out)

		status := "✅"
		if record.Failed() {
			status = "❌"
		}

		v.printSection(runewidth.Truncate(status+" "+record.InputFile, 60, "..."), [][]string{
			{"Timestamp", formatTime(record.Timestamp)},
			{"Language", fmt.Sprintf("%s → %s", orAuto(record.SourceLanguage), record.TargetLanguage)},
			{"Provider", record.Provider},
			{"Pages", fmt.Sprintf("%d (%d segments)", record.Pages, record.Segments)},
			{"Fragments", fmt.Sprintf("%d (%d replaced)", record.Fragments, record.ReplacedNodes)},
			{"Characters", formatNumber(int64(record.CharacterCount))},
			{"Duration", formatDuration(record.Duration)},
			{"Status", record.Status},
		})

		if record.ErrorMessage != "" {
			color.New(color.FgRed).Fprintf(v.out, "  ❌ Error: %s\n", record.ErrorMessage)
		}
	}
}

func (v *Visualizer) printTitle(c *color.Color, title string) {
	c.Fprintln(v.out, title)
	c.Fprintln(v.out, strings.Repeat("=", 50))
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	color.New(color.FgYellow, color.Bold).Fprintf(v.out, "%s\n", title)

	maxLabelLen := 0
	for _, row := range data {
		if len(row[0]) > maxLabelLen {
			maxLabelLen = len(row[0])
		}
	}

	labelColor := color.New(color.FgCyan)
	valueColor := color.New(color.FgWhite, color.Bold)
	for _, row := range data {
		labelColor.Fprintf(v.out, "  %-*s: ", maxLabelLen, row[0])
		valueColor.Fprintln(v.out, row[1])
	}
}

func orAuto(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}

// formatNumber 添加千位分隔符
func formatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 02 15:04")
	}
	return t.Format("2006-01-02 15:04")
}

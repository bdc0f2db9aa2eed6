package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-pdf-translator/internal/stats"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/language"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/progress"
)

var (
	// translate 命令的标志
	sourceLang string
	targetLang string
	outputPath string
	maxPages   int
	splitPages int
	chunkSize  int
	pause      time.Duration
	keepTemp   bool
	detectLang bool
	quiet      bool
)

// NewTranslateCommand 创建 translate 命令
func NewTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <input.pdf>",
		Short: "翻译一个 PDF 文件",
		Long: `翻译一个 PDF 文件，生成翻译后的 HTML 与 PDF。

Examples:
  # 英文翻译为法文，输出 report_fr.pdf 与 report_fr.html
  pdftranslator translate report.pdf --source en --target fr

  # 自动检测源语言并指定输出路径
  pdftranslator translate report.pdf --target de --output out/report.pdf --detect

  # 不调用翻译服务，只验证转换链路
  pdftranslator translate report.pdf --target fr --provider raw`,
		Args: cobra.ExactArgs(1),
		RunE: runTranslate,
	}

	cmd.Flags().StringVar(&sourceLang, "source", "", "源语言代码，留空由翻译服务自动检测")
	cmd.Flags().StringVar(&targetLang, "target", "", "目标语言代码")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出 PDF 路径（默认 <输入>_<目标语言>.pdf）")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "允许的最大页数")
	cmd.Flags().IntVar(&splitPages, "split-pages", 0, "每个分段的页数")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "单次翻译请求的最大字符数")
	cmd.Flags().DurationVar(&pause, "pause", 0, "转换与翻译之间的暂停")
	cmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "保留中间文件")
	cmd.Flags().BoolVar(&detectLang, "detect", false, "未指定源语言时检测并记录源语言")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "不显示进度条")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// 命令行给出的限制由流水线校验
	updateConfigFromFlags(cmd, cfg)

	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	inputPath := args[0]
	output := outputPath
	if output == "" {
		output = defaultOutputPath(inputPath, targetLang)
	}

	store := newStore()
	recorder := &capturingRecorder{}
	if cfg.StatsPath != "" {
		db, err := stats.NewDatabase(cfg.StatsPath, log)
		if err != nil {
			log.Warn("初始化统计数据库失败，本次不记录统计", zap.Error(err))
		} else {
			recorder.next = db
		}
	}

	prov, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("创建翻译提供商失败: %w", err)
	}

	options := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithRecorder(recorder),
	}

	var tracker *progress.Tracker
	if !quiet && !cfg.Verbose {
		tracker = progress.NewTracker(9, progress.WithWriter(cmd.ErrOrStderr()))
		options = append(options, pipeline.WithProgress(func(state pipeline.State, done, _ int) {
			tracker.Update(done, state.String())
		}))
	}

	p, err := pipeline.New(pipeline.OptionsFromConfig(cfg), store, newToolkit(cfg, log), prov, options...)
	if err != nil {
		return err
	}

	result, err := p.Execute(cmd.Context(), pipeline.Request{
		InputPath:  inputPath,
		OutputPath: output,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		MaxPages:   cfg.MaxPages,
		SplitPages: cfg.SplitPages,
		ChunkSize:  cfg.ChunkSize,
	})

	if tracker != nil {
		tracker.Done(recorder.summary())
	}

	if err != nil {
		printFailure(cmd.ErrOrStderr(), err)
		return err
	}

	printResult(cmd.OutOrStdout(), store, result)
	if !result.Success {
		if result.Err != nil {
			return result.Err
		}
		return errors.New("output incomplete")
	}
	return nil
}

// updateConfigFromFlags 使用命令行参数覆盖配置
func updateConfigFromFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		cfg.MaxPages = maxPages
	}
	if flags.Changed("split-pages") {
		cfg.SplitPages = splitPages
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = chunkSize
	}
	if flags.Changed("pause") {
		cfg.Pause = pause
	}
	if flags.Changed("keep-temp") {
		cfg.KeepTemp = keepTemp
	}
	if flags.Changed("detect") {
		cfg.DetectLanguage = detectLang
	}
}

// defaultOutputPath 生成默认输出文件名 <输入>_<目标语言>.pdf
func defaultOutputPath(inputPath, target string) string {
	if code, err := language.ValidateTarget(target); err == nil {
		target = code
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + "_" + target + ".pdf"
}

func printResult(w io.Writer, store storage.Store, result *pipeline.Result) {
	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "✅ 翻译完成")
	} else {
		color.New(color.FgYellow, color.Bold).Fprintln(w, "⚠️  翻译未完全完成")
		if result.Err != nil {
			color.New(color.FgYellow).Fprintf(w, "  原因: %v\n", result.Err)
		}
	}

	for _, path := range result.OutputPaths {
		if abs, err := store.LocalPath(path); err == nil {
			path = abs
		}
		fmt.Fprintf(w, "  %s\n", path)
	}
}

func printFailure(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "❌ 翻译失败 [%s]\n", pipeline.KindOf(err))
	fmt.Fprintf(w, "  %v\n", err)

	var pe *pipeline.Error
	if errors.As(err, &pe) && pe.Suggested != "" {
		color.New(color.FgCyan).Fprintf(w, "  是否想使用语言代码: %s\n", pe.Suggested)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "  已取消")
	}
}

// capturingRecorder 保留最后一条运行记录用于汇总，并转发到统计数据库
type capturingRecorder struct {
	next *stats.Database
	last *stats.TranslationRecord
}

func (r *capturingRecorder) AddTranslationRecord(record *stats.TranslationRecord) error {
	r.last = record
	if r.next == nil {
		return nil
	}
	return r.next.AddTranslationRecord(record)
}

func (r *capturingRecorder) summary() *progress.Summary {
	if r.last == nil {
		return nil
	}
	rec := r.last
	s := &progress.Summary{TotalTime: rec.Duration}
	s.Add("提供商", rec.Provider)
	s.Add("页数", rec.Pages)
	s.Add("分段", rec.Segments)
	s.Add("文本片段", rec.Fragments)
	s.Add("已替换节点", rec.ReplacedNodes)
	s.Add("翻译请求", rec.Requests)
	s.Add("字符数", rec.CharacterCount)
	if rec.DetectedSource != "" {
		s.Add("检测到的源语言", rec.DetectedSource)
	}
	s.Add("状态", rec.Status)
	return s
}

// Package pipeline 编排 PDF 翻译的各个阶段
//
// 每个阶段是 Pipeline 上的一个方法，接收当前的 *Run 并返回推进后的新快照。
// 在错误的状态下调用阶段返回 ErrInvalidTransition。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pdftool"
	"github.com/nerdneilsfield/go-pdf-translator/internal/stats"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// Options 流水线参数
type Options struct {
	WorkDir        string
	MaxPages       int
	SplitPages     int
	ChunkSize      int
	Pause          time.Duration
	Concurrency    int
	DetectLanguage bool // 未指定源语言时检测并记录
	KeepTemp       bool
	Verbose        bool // 记录翻译片段预览
}

// OptionsFromConfig 从配置构建流水线参数
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WorkDir:        cfg.WorkDir,
		MaxPages:       cfg.MaxPages,
		SplitPages:     cfg.SplitPages,
		ChunkSize:      cfg.ChunkSize,
		Pause:          cfg.Pause,
		Concurrency:    cfg.Concurrency,
		DetectLanguage: cfg.DetectLanguage,
		KeepTemp:       cfg.KeepTemp,
		Verbose:        cfg.Verbose,
	}
}

// Recorder 保存运行记录
type Recorder interface {
	AddTranslationRecord(record *stats.TranslationRecord) error
}

// Option 流水线选项
type Option func(*Pipeline)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder 每次 Execute 结束后写入统计
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithIDGenerator 替换运行 ID 生成函数
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		p.newID = fn
	}
}

// WithProgress 每个阶段完成后回调，done 为已完成阶段数
func WithProgress(fn func(state State, done, total int)) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// Pipeline PDF 翻译流水线
type Pipeline struct {
	opts     Options
	store    storage.Store
	tools    *pdftool.Toolkit
	provider providers.Provider
	recorder Recorder
	progress func(state State, done, total int)
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
}

// New 创建流水线
func New(opts Options, store storage.Store, tools *pdftool.Toolkit, provider providers.Provider, options ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if tools == nil || tools.Decryptor == nil || tools.Counter == nil || tools.Extractor == nil ||
		tools.Converter == nil || tools.Renderer == nil {
		return nil, fmt.Errorf("incomplete pdf toolkit")
	}
	if provider == nil {
		return nil, fmt.Errorf("translation provider is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}

	p := &Pipeline{
		opts:     opts,
		store:    store,
		tools:    tools,
		provider: provider,
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// Execute 依次执行全部阶段
//
// 前置条件与阶段失败以错误返回；渲染阶段的问题体现在 Success=false 的结果中。
// 无论成败都会清理本次运行的中间文件。
func (p *Pipeline) Execute(ctx context.Context, req Request) (result *Result, err error) {
	run, err := p.Validate(req)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(zap.String("运行", run.ID))
	log.Info("开始翻译",
		zap.String("输入", run.Request.InputPath),
		zap.String("输出", run.Request.OutputPath),
		zap.String("源语言", run.Request.SourceLang),
		zap.String("目标语言", run.Request.TargetLang))

	defer func() {
		p.record(run, err)
		if _, cleanupErr := p.Cleanup(run); cleanupErr != nil {
			log.Warn("清理中间文件失败", zap.Error(cleanupErr))
		}
	}()

	stages := []func(context.Context, *Run) (*Run, error){
		p.CheckFile,
		p.CheckConditions,
		p.Split,
		p.Convert,
		p.Pause,
		p.Extract,
		p.Translate,
		p.Assemble,
		p.WriteOutput,
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := stage(ctx, run)
		if err != nil {
			log.Error("翻译失败", zap.Stringer("阶段", run.State), zap.Error(err))
			return nil, err
		}
		run = next
		if p.progress != nil {
			p.progress(run.State, i+1, len(stages))
		}
	}

	log.Info("翻译结束",
		zap.Bool("成功", run.Result.Success),
		zap.Strings("输出", run.Result.OutputPaths),
		zap.Duration("耗时", p.now().Sub(run.StartedAt)))
	return run.Result, nil
}

func (p *Pipeline) record(run *Run, err error) {
	if p.recorder == nil || run == nil {
		return
	}

	rec := &stats.TranslationRecord{
		ID:             run.ID,
		Timestamp:      run.StartedAt,
		InputFile:      run.Request.InputPath,
		OutputFile:     run.Request.OutputPath,
		SourceLanguage: run.Request.SourceLang,
		TargetLanguage: run.Request.TargetLang,
		DetectedSource: run.DetectedLang,
		Provider:       p.provider.GetName(),
		Pages:          run.Pages,
		Segments:       len(run.Segments),
		Fragments:      run.Fragments(),
		ReplacedNodes:  run.Replaced,
		CharacterCount: run.Characters(),
		Duration:       p.now().Sub(run.StartedAt),
		FinalState:     run.State.String(),
		Status:         stats.StatusCompleted,
	}
	rec.Requests = run.Usage.TotalRequests
	rec.FailedRequests = run.Usage.FailedRequests
	rec.CharactersOut = run.Usage.CharactersOut

	switch {
	case err != nil:
		rec.Status = stats.StatusFailed
		rec.ErrorKind = KindOf(err).String()
		rec.ErrorMessage = err.Error()
	case run.Result != nil && !run.Result.Success:
		rec.Status = stats.StatusIncomplete
		rec.ErrorKind = KindIncompleteOutput.String()
		if run.Result.Err != nil {
			rec.ErrorMessage = run.Result.Err.Error()
		}
	}
	if run.Result != nil {
		rec.OutputPaths = run.Result.OutputPaths
	}

	if err := p.recorder.AddTranslationRecord(rec); err != nil {
		p.logger.Warn("写入统计失败", zap.Error(err))
	}
}

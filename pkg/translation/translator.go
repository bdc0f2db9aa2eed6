// Package translation 将文本切分为固定大小的分块并通过提供商翻译
package translation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
)

// Option 翻译器选项
type Option func(*options)

type options struct {
	logger  *zap.Logger
	chunker Chunker
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithChunker 替换默认的固定长度分块器
func WithChunker(chunker Chunker) Option {
	return func(o *options) {
		o.chunker = chunker
	}
}

// ChunkedTranslator 分块翻译器
type ChunkedTranslator struct {
	provider providers.TranslationProvider
	config   Config
	chunker  Chunker
	logger   *zap.Logger
}

// New 创建分块翻译器
func New(provider providers.TranslationProvider, config Config, opts ...Option) (*ChunkedTranslator, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.chunker == nil {
		o.chunker = NewFixedChunker(config.ChunkSize)
	}

	return &ChunkedTranslator{
		provider: provider,
		config:   config,
		chunker:  o.chunker,
		logger:   o.logger,
	}, nil
}

// ProviderName 返回提供商名称
func (t *ChunkedTranslator) ProviderName() string {
	return t.provider.GetName()
}

// TranslateBlob 翻译一段文本
//
// 文本按字符数切分，各分块的译文按原顺序直接拼接。译文为空或与原文相同时保留原分块。
// 任一分块的远程调用失败则整段失败，不返回部分结果。
func (t *ChunkedTranslator) TranslateBlob(ctx context.Context, text, source, target string) (string, error) {
	if target == "" {
		return "", ErrEmptyTarget
	}

	chunks := t.chunker.Chunk(text)
	if len(chunks) == 0 {
		return "", nil
	}

	t.logger.Debug("开始分块翻译",
		zap.Int("字符数", utf8.RuneCountInString(text)),
		zap.Int("分块数", len(chunks)),
		zap.String("源语言", source),
		zap.String("目标语言", target))

	results := make([]string, len(chunks))
	p := pool.New().
		WithMaxGoroutines(t.config.Concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, chunk := range chunks {
		i, chunk := i, chunk
		p.Go(func(ctx context.Context) error {
			translated, err := t.translateChunk(ctx, i, chunk, source, target)
			if err != nil {
				return err
			}
			results[i] = translated
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return "", err
	}

	return strings.Join(results, ""), nil
}

// translateChunk 翻译单个分块
func (t *ChunkedTranslator) translateChunk(ctx context.Context, index int, chunk, source, target string) (string, error) {
	start := time.Now()
	resp, err := t.provider.Translate(ctx, &providers.ProviderRequest{
		Text:           chunk,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		t.logger.Warn("分块翻译失败",
			zap.Int("分块", index),
			zap.String("提供商", t.provider.GetName()),
			zap.Error(err))
		return "", WrapError(err, index, fmt.Sprintf("provider '%s' translation failed", t.provider.GetName()))
	}

	t.logger.Debug("分块翻译完成",
		zap.Int("分块", index),
		zap.Duration("耗时", time.Since(start)))

	if resp == nil || resp.Text == "" || resp.Text == chunk {
		return chunk, nil
	}
	return resp.Text, nil
}

// TranslateFragments 翻译文本片段序列
//
// 片段内部的空白先合并为单个空格，保证一个片段占一行；以换行连接后整体翻译，
// 再按行拆分、去空白并丢弃空行。返回的片段数可能与输入不同，调用方需按值而非下标对应。
func (t *ChunkedTranslator) TranslateFragments(ctx context.Context, fragments []string, source, target string) ([]string, error) {
	if len(fragments) == 0 {
		return []string{}, nil
	}

	lines := make([]string, len(fragments))
	for i, f := range fragments {
		lines[i] = strings.Join(strings.Fields(f), " ")
	}

	translated, err := t.TranslateBlob(ctx, strings.Join(lines, "\n"), source, target)
	if err != nil {
		return nil, err
	}

	return SplitLines(translated), nil
}

// SplitLines 按行拆分文本，去掉首尾空白并丢弃空行
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Pause 等待配置的暂停时间，上下文取消时提前返回
func (t *ChunkedTranslator) Pause(ctx context.Context) error {
	if t.config.Pause <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(t.config.Pause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DetectLanguage 检测文本语言，仅用于诊断
//
// 只发送第一个分块。提供商不支持检测时，翻译为英文并读取其识别的源语言。
func (t *ChunkedTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	chunks := t.chunker.Chunk(strings.TrimSpace(text))
	if len(chunks) == 0 {
		return "", nil
	}
	sample := chunks[0]

	if detector, ok := t.provider.(providers.Detector); ok {
		lang, err := detector.DetectLanguage(ctx, sample)
		if err != nil {
			return "", WrapError(err, -1, "language detection failed")
		}
		return lang, nil
	}

	resp, err := t.provider.Translate(ctx, &providers.ProviderRequest{
		Text:           sample,
		TargetLanguage: "en",
	})
	if err != nil {
		return "", WrapError(err, -1, "language detection failed")
	}
	if resp == nil {
		return "", nil
	}
	return resp.SourceLang, nil
}

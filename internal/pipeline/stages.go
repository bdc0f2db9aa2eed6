package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/splitter"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/language"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/markup"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	provstats "github.com/nerdneilsfield/go-pdf-translator/pkg/providers/stats"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/translation"
)

func (p *Pipeline) expect(run *Run, from State, stage State) error {
	if run == nil {
		return fmt.Errorf("%w: nil run", ErrInvalidTransition)
	}
	if run.State != from {
		return fmt.Errorf("%w: %s requires state %s, run is in %s", ErrInvalidTransition, stage, from, run.State)
	}
	return nil
}

// Validate 检查请求参数并创建运行，不触碰文件系统与外部工具
func (p *Pipeline) Validate(req Request) (*Run, error) {
	if !hasPDFExt(req.InputPath) {
		return nil, newError(KindInvalidArgument, StateValidated,
			fmt.Sprintf("input file %q must have a .pdf extension", req.InputPath), nil)
	}
	if !hasPDFExt(req.OutputPath) {
		return nil, newError(KindInvalidArgument, StateValidated,
			fmt.Sprintf("output file %q must have a .pdf extension", req.OutputPath), nil)
	}

	source, err := language.ValidateSource(req.SourceLang)
	if err != nil {
		return nil, languageError(err)
	}
	target, err := language.ValidateTarget(req.TargetLang)
	if err != nil {
		return nil, languageError(err)
	}
	req.SourceLang, req.TargetLang = source, target

	limits := []struct {
		name  string
		value *int
		def   int
	}{
		{"max pages", &req.MaxPages, p.opts.MaxPages},
		{"split pages", &req.SplitPages, p.opts.SplitPages},
		{"chunk size", &req.ChunkSize, p.opts.ChunkSize},
	}
	for _, l := range limits {
		if *l.value == 0 {
			*l.value = l.def
		}
		if *l.value <= 0 {
			return nil, newError(KindInvalidArgument, StateValidated,
				fmt.Sprintf("%s must be positive, got %d", l.name, *l.value), nil)
		}
	}

	id := p.newID()
	return &Run{
		ID:        id,
		Request:   req,
		State:     StateValidated,
		StartedAt: p.now(),
		WorkDir:   filepath.Join(p.opts.WorkDir, id),
	}, nil
}

// CheckFile 确认输入文件存在
func (p *Pipeline) CheckFile(_ context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateValidated, StateFileChecked); err != nil {
		return nil, err
	}
	if !p.store.Exists(run.Request.InputPath) {
		return nil, newError(KindFileNotFound, StateFileChecked,
			fmt.Sprintf("input file %q does not exist", run.Request.InputPath), nil)
	}
	return run.with(StateFileChecked, nil), nil
}

// CheckConditions 解密到工作目录并检查页数上限，原文件保持不变
func (p *Pipeline) CheckConditions(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateFileChecked, StateConditionsChecked); err != nil {
		return nil, err
	}

	if err := p.store.MkdirAll(run.WorkDir); err != nil {
		return nil, newError(KindExternalToolFailure, StateConditionsChecked, "failed to create work directory", err)
	}

	decrypted := filepath.Join(run.WorkDir, filepath.Base(run.Request.InputPath))
	if err := p.tools.Decryptor.Decrypt(ctx, run.Request.InputPath, decrypted); err != nil {
		return nil, newError(KindExternalToolFailure, StateConditionsChecked, "failed to decrypt document", err)
	}

	pages, err := p.tools.Counter.PageCount(ctx, decrypted)
	if err != nil {
		return nil, newError(KindExternalToolFailure, StateConditionsChecked, "failed to count pages", err)
	}

	if pages > run.Request.MaxPages {
		return nil, newError(KindPageCountExceeded, StateConditionsChecked,
			fmt.Sprintf("document has %d pages, the limit is %d", pages, run.Request.MaxPages), nil)
	}

	p.logger.Debug("文档检查通过", zap.String("运行", run.ID), zap.Int("页数", pages))

	return run.with(StateConditionsChecked, func(r *Run) {
		r.DecryptedPath = decrypted
		r.Pages = pages
	}), nil
}

// Split 按每段页数拆分解密后的文档
func (p *Pipeline) Split(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateConditionsChecked, StateSplit); err != nil {
		return nil, err
	}

	segments, err := p.splitter(run).Split(ctx, run.DecryptedPath, run.Request.SplitPages)
	if err != nil {
		if errors.Is(err, splitter.ErrInvalidSegmentSize) {
			return nil, newError(KindInvalidArgument, StateSplit, "invalid split size", err)
		}
		return nil, newError(KindExternalToolFailure, StateSplit, "failed to split document", err)
	}

	return run.with(StateSplit, func(r *Run) {
		r.Segments = segments
	}), nil
}

// Convert 并发地把每个分段转换为 HTML，完成后删除拆分文件
func (p *Pipeline) Convert(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateSplit, StateConverted); err != nil {
		return nil, err
	}

	outDir := filepath.Join(run.WorkDir, "html")
	paths := make([]string, len(run.Segments))

	cp := pool.New().
		WithMaxGoroutines(p.opts.Concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i, seg := range run.Segments {
		i, seg := i, seg
		cp.Go(func(ctx context.Context) error {
			htmlPath, err := p.tools.Converter.Convert(ctx, seg.Path, outDir)
			if err != nil {
				return fmt.Errorf("segment %s: %w", seg.Name, err)
			}
			paths[i] = htmlPath
			return nil
		})
	}
	if err := cp.Wait(); err != nil {
		return nil, newError(KindExternalToolFailure, StateConverted, "failed to convert segment to HTML", err)
	}

	if err := p.splitter(run).Remove(run.Segments); err != nil {
		p.logger.Warn("删除拆分文件失败", zap.String("运行", run.ID), zap.Error(err))
	}

	p.logger.Debug("分段已转换", zap.String("运行", run.ID), zap.Int("分段数", len(paths)))

	return run.with(StateConverted, func(r *Run) {
		r.MarkupPaths = paths
	}), nil
}

// Pause 转换与翻译之间的限速等待
func (p *Pipeline) Pause(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateConverted, StatePaused); err != nil {
		return nil, err
	}
	translator, err := p.translator(run, p.provider)
	if err != nil {
		return nil, err
	}
	if err := translator.Pause(ctx); err != nil {
		return nil, err
	}
	return run.with(StatePaused, nil), nil
}

// Extract 按分段顺序提取可见文本片段
func (p *Pipeline) Extract(_ context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StatePaused, StateExtracted); err != nil {
		return nil, err
	}

	original := make([][]string, len(run.MarkupPaths))
	for i, path := range run.MarkupPaths {
		tree, err := p.parse(path)
		if err != nil {
			return nil, newError(KindExternalToolFailure, StateExtracted, "failed to read converted HTML", err)
		}
		original[i] = markup.Extract(tree)
	}

	return run.with(StateExtracted, func(r *Run) {
		r.Original = original
	}), nil
}

// Translate 逐个分段翻译文本片段
func (p *Pipeline) Translate(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateExtracted, StateTranslated); err != nil {
		return nil, err
	}

	collector := provstats.NewCollector(p.provider.GetName())
	translator, err := p.translator(run, provstats.NewStatisticsMiddleware(p.provider, collector))
	if err != nil {
		return nil, err
	}

	source, target := run.Request.SourceLang, run.Request.TargetLang
	p.logger.Debug("开始翻译",
		zap.String("运行", run.ID),
		zap.String("提供商", translator.ProviderName()),
		zap.Int("分段数", len(run.Original)))

	var detected string
	if source == "" && p.opts.DetectLanguage {
		detected = p.detect(ctx, run, translator)
	}

	translated := make([][]string, len(run.Original))
	for i, fragments := range run.Original {
		out, err := translator.TranslateFragments(ctx, fragments, source, target)
		if err != nil {
			return nil, newError(KindTranslationTransportFailure, StateTranslated,
				fmt.Sprintf("failed to translate segment %d", i+1), err)
		}
		translated[i] = out

		if p.opts.Verbose && len(fragments) > 0 && len(out) > 0 {
			p.logger.Debug("分段翻译完成",
				zap.String("运行", run.ID),
				zap.Int("分段", i+1),
				zap.String("原文", markup.Preview(fragments[0], 60)),
				zap.String("译文", markup.Preview(out[0], 60)))
		}
	}

	return run.with(StateTranslated, func(r *Run) {
		r.Translated = translated
		r.DetectedLang = detected
		r.Usage = collector.Snapshot()
	}), nil
}

func (p *Pipeline) detect(ctx context.Context, run *Run, translator *translation.ChunkedTranslator) string {
	var sample string
	for _, fragments := range run.Original {
		if len(fragments) > 0 {
			sample = strings.Join(fragments, "\n")
			break
		}
	}
	if sample == "" {
		return ""
	}

	lang, err := translator.DetectLanguage(ctx, sample)
	if err != nil {
		p.logger.Warn("语言检测失败", zap.String("运行", run.ID), zap.Error(err))
		return ""
	}
	if !language.IsSupported(lang) {
		p.logger.Warn("检测到的语言不在支持表中", zap.String("运行", run.ID), zap.String("语言", lang))
		return lang
	}
	p.logger.Info("检测到源语言", zap.String("运行", run.ID), zap.String("语言", lang))
	return lang
}

// Assemble 把译文回填到整个文档的 HTML 并写到输出目录
func (p *Pipeline) Assemble(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateTranslated, StateAssembled); err != nil {
		return nil, err
	}

	var markupPath string
	if len(run.Segments) == 1 && len(run.MarkupPaths) == 1 {
		markupPath = run.MarkupPaths[0]
	} else {
		path, err := p.tools.Converter.Convert(ctx, run.DecryptedPath, filepath.Join(run.WorkDir, "full"))
		if err != nil {
			return nil, newError(KindExternalToolFailure, StateAssembled, "failed to convert document to HTML", err)
		}
		markupPath = path
	}

	tree, err := p.parse(markupPath)
	if err != nil {
		return nil, newError(KindExternalToolFailure, StateAssembled, "failed to read converted HTML", err)
	}

	replaced := markup.Reinject(tree, run.Original, run.Translated)
	tree.SetLang(run.Request.TargetLang)

	data, err := tree.Bytes()
	if err != nil {
		return nil, newError(KindExternalToolFailure, StateAssembled, "failed to render HTML", err)
	}

	htmlPath := htmlPathFor(run.Request.OutputPath)
	if err := p.store.WriteFile(htmlPath, data); err != nil {
		return nil, newError(KindExternalToolFailure, StateAssembled, "failed to write translated HTML", err)
	}

	p.logger.Debug("译文已回填",
		zap.String("运行", run.ID),
		zap.String("标题", tree.Title()),
		zap.Int("替换节点", replaced),
		zap.String("HTML", htmlPath))

	return run.with(StateAssembled, func(r *Run) {
		r.HTMLPath = htmlPath
		r.Replaced = replaced
	}), nil
}

// WriteOutput 将译文 HTML 渲染为 PDF
//
// 渲染失败不返回错误，结果中 Success=false 并列出已存在的输出。
// 输出路径上残留的旧 PDF 在渲染前删除，只有本次生成的文件才计入结果。
func (p *Pipeline) WriteOutput(ctx context.Context, run *Run) (*Run, error) {
	if err := p.expect(run, StateAssembled, StateOutputWritten); err != nil {
		return nil, err
	}

	pdfPath := run.Request.OutputPath
	if err := p.store.Remove(pdfPath); err != nil {
		return nil, newError(KindExternalToolFailure, StateOutputWritten, "failed to remove stale output", err)
	}

	rendered, renderErr := p.tools.Renderer.Render(ctx, run.HTMLPath, pdfPath)
	if renderErr != nil {
		p.logger.Warn("渲染 PDF 失败", zap.String("运行", run.ID), zap.Error(renderErr))
	}

	var paths []string
	for _, path := range []string{run.HTMLPath, pdfPath} {
		if p.store.Exists(path) {
			paths = append(paths, path)
		}
	}

	result := &Result{
		Success:     renderErr == nil && len(paths) == 2,
		OutputPaths: paths,
	}
	if !result.Success {
		result.Err = newError(KindIncompleteOutput, StateOutputWritten,
			fmt.Sprintf("expected 2 output files, found %d", len(paths)), renderErr)
	}

	return run.with(StateOutputWritten, func(r *Run) {
		r.PDFPath = rendered
		r.Result = result
	}), nil
}

// Cleanup 删除本次运行的工作目录，输出文件不受影响
func (p *Pipeline) Cleanup(run *Run) (*Run, error) {
	if run == nil || run.State == StateCleanedUp {
		return nil, fmt.Errorf("%w: run already cleaned up", ErrInvalidTransition)
	}

	if p.opts.KeepTemp {
		p.logger.Info("保留中间文件", zap.String("目录", run.WorkDir))
	} else if err := p.store.RemoveAll(run.WorkDir); err != nil {
		return nil, fmt.Errorf("failed to remove work directory: %w", err)
	}

	return run.with(StateCleanedUp, nil), nil
}

func (p *Pipeline) splitter(run *Run) *splitter.Splitter {
	return splitter.New(p.tools.Counter, p.tools.Extractor, p.store, filepath.Join(run.WorkDir, "split"), p.logger)
}

func (p *Pipeline) translator(run *Run, provider providers.TranslationProvider) (*translation.ChunkedTranslator, error) {
	t, err := translation.New(provider, translation.Config{
		ChunkSize:   run.Request.ChunkSize,
		Pause:       p.opts.Pause,
		Concurrency: p.opts.Concurrency,
	}, translation.WithLogger(p.logger))
	if err != nil {
		return nil, newError(KindInvalidArgument, run.State, "invalid translation settings", err)
	}
	return t, nil
}

func (p *Pipeline) parse(path string) (*markup.Tree, error) {
	data, err := p.store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return markup.Parse(bytes.NewReader(data))
}

func hasPDFExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// htmlPathFor 输出 PDF 同目录同名的 HTML 路径
func htmlPathFor(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
}

func languageError(err error) error {
	var le *language.Error
	if errors.As(err, &le) {
		return &Error{
			Kind:      KindUnsupportedLanguage,
			Stage:     StateValidated.String(),
			Message:   le.Error(),
			Suggested: le.Suggested,
			Cause:     err,
		}
	}
	return newError(KindInvalidArgument, StateValidated, err.Error(), err)
}

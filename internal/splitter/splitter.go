// Package splitter 将 PDF 按页数上限拆分为连续的分段
package splitter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pdftool"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
)

// ErrInvalidSegmentSize 每段页数不是正数
var ErrInvalidSegmentSize = errors.New("pages per segment must be positive")

// PageRange 闭区间页码范围，从 1 开始
type PageRange struct {
	Start int
	End   int
}

// Pages 范围内的页数
func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

// Segment 文档的一个分段
type Segment struct {
	Index int    // 从 0 开始的顺序
	Start int    // 首页
	End   int    // 末页
	Path  string // 分段 PDF 路径
	Name  string // 不含扩展名的文件名
	Whole bool   // 分段即原文档，没有生成拆分文件
}

// Plan 计算 pages 页的文档按每段 size 页拆分后的页码范围
func Plan(pages, size int) []PageRange {
	if pages <= 0 || size <= 0 {
		return nil
	}
	parts := (pages + size - 1) / size
	ranges := make([]PageRange, 0, parts)
	for k := 0; k < parts; k++ {
		start := k*size + 1
		end := min((k+1)*size, pages)
		ranges = append(ranges, PageRange{Start: start, End: end})
	}
	return ranges
}

// Splitter 使用页数统计与提页工具拆分文档
type Splitter struct {
	counter   pdftool.PageCounter
	extractor pdftool.PageExtractor
	store     storage.Store
	outDir    string
	logger    *zap.Logger
}

// New 创建拆分器，拆分文件写入 outDir
func New(counter pdftool.PageCounter, extractor pdftool.PageExtractor, store storage.Store, outDir string, logger *zap.Logger) *Splitter {
	logger = applog.OrNop(logger)
	return &Splitter{
		counter:   counter,
		extractor: extractor,
		store:     store,
		outDir:    outDir,
		logger:    logger,
	}
}

// Split 拆分文档，每段最多 size 页
//
// 页数不超过 size 时返回代表整个文档的单个分段，不生成任何文件。
// 任一分段提取失败时删除已生成的分段并返回错误。
func (s *Splitter) Split(ctx context.Context, docPath string, size int) ([]Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSegmentSize, size)
	}

	pages, err := s.counter.PageCount(ctx, docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if pages <= 0 {
		return nil, fmt.Errorf("document %s has no pages", docPath)
	}

	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))

	if pages <= size {
		s.logger.Debug("无需拆分", zap.String("文件", docPath), zap.Int("页数", pages))
		return []Segment{{
			Index: 0,
			Start: 1,
			End:   pages,
			Path:  docPath,
			Name:  base,
			Whole: true,
		}}, nil
	}

	if err := s.store.MkdirAll(s.outDir); err != nil {
		return nil, fmt.Errorf("failed to create split directory: %w", err)
	}

	ranges := Plan(pages, size)
	width := max(3, len(strconv.Itoa(len(ranges))))

	segments := make([]Segment, 0, len(ranges))
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, s.abort(segments, err)
		}

		name := fmt.Sprintf("%s_part%0*d", base, width, i+1)
		out := filepath.Join(s.outDir, name+".pdf")

		if err := s.extractor.ExtractPages(ctx, docPath, out, r.Start, r.End); err != nil {
			// 工具可能留下不完整的输出
			segments = append(segments, Segment{Path: out})
			return nil, s.abort(segments, fmt.Errorf("failed to extract pages %d-%d: %w", r.Start, r.End, err))
		}

		segments = append(segments, Segment{
			Index: i,
			Start: r.Start,
			End:   r.End,
			Path:  out,
			Name:  name,
		})
	}

	s.logger.Info("文档已拆分",
		zap.String("文件", docPath),
		zap.Int("页数", pages),
		zap.Int("分段数", len(segments)))
	return segments, nil
}

// Remove 删除拆分生成的分段文件，整文档分段不受影响
func (s *Splitter) Remove(segments []Segment) error {
	var errs error
	for _, seg := range segments {
		if seg.Whole {
			continue
		}
		errs = multierr.Append(errs, s.store.Remove(seg.Path))
	}
	return errs
}

func (s *Splitter) abort(created []Segment, cause error) error {
	if err := s.Remove(created); err != nil {
		s.logger.Warn("清理拆分文件失败", zap.Error(err))
	}
	return cause
}

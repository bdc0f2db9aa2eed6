package pdftool

import (
	"context"
	"fmt"

	ledongthucpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
)

// Native 使用纯 Go 库统计页数与提取页
type Native struct {
	logger *zap.Logger
}

// NewNative 创建纯 Go 后端
func NewNative(logger *zap.Logger) *Native {
	logger = applog.OrNop(logger)
	return &Native{logger: logger}
}

// PageCount 优先使用 pdfcpu，失败时回退到 ledongthuc/pdf
func (n *Native) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err == nil {
		return pdfCtx.PageCount, nil
	}
	n.logger.Debug("pdfcpu 读取失败，尝试 ledongthuc/pdf", zap.String("文件", path), zap.Error(err))

	count, fallbackErr := pageCountWithLedongthuc(path)
	if fallbackErr != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w (fallback: %v)", path, err, fallbackErr)
	}
	return count, nil
}

// ExtractPages 使用 pdfcpu 保留 start-end 页写入新文件
func (n *Native) ExtractPages(ctx context.Context, in, out string, start, end int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if start < 1 || end < start {
		return fmt.Errorf("invalid page range %d-%d", start, end)
	}
	if err := api.TrimFile(in, out, []string{fmt.Sprintf("%d-%d", start, end)}, nil); err != nil {
		return fmt.Errorf("failed to extract pages %d-%d: %w", start, end, err)
	}
	return nil
}

func pageCountWithLedongthuc(path string) (int, error) {
	f, r, err := ledongthucpdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

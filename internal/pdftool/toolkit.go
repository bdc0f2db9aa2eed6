package pdftool

import (
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
)

// Toolkit 流水线所需的全部 PDF 协作者
type Toolkit struct {
	Decryptor Decryptor
	Counter   PageCounter
	Extractor PageExtractor
	Converter Converter
	Renderer  Renderer
}

// NewToolkit 按配置组装外部工具，runner 为空时使用 ExecRunner
func NewToolkit(cfg config.ToolsConfig, runner Runner, logger *zap.Logger) *Toolkit {
	logger = applog.OrNop(logger)
	if runner == nil {
		runner = NewExecRunner(logger)
	}

	toolTimeout := cfg.ToolTimeoutDuration()
	convertTimeout := cfg.ConvertTimeoutDuration()

	kit := &Toolkit{
		Decryptor: &QPDF{Runner: runner, Command: cfg.QPDF, Timeout: toolTimeout},
		Converter: &PDF2HTMLEX{Runner: runner, Command: cfg.PDF2HTMLEX, Timeout: convertTimeout},
		Renderer: &WKHTMLTOPDF{
			Runner:  runner,
			Prefix:  cfg.RenderPrefix,
			Command: cfg.WKHTMLTOPDF,
			Timeout: convertTimeout,
		},
	}

	if cfg.PDFBackend == "pdftk" {
		pdftk := &PDFTK{Runner: runner, Command: cfg.PDFTK, Timeout: toolTimeout}
		kit.Counter = pdftk
		kit.Extractor = pdftk
	} else {
		native := NewNative(logger)
		kit.Counter = native
		kit.Extractor = native
	}

	logger.Debug("PDF 工具已就绪", zap.String("后端", cfg.PDFBackend))
	return kit
}

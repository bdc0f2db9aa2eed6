// Package cli 实现 pdftranslator 命令行
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	"github.com/nerdneilsfield/go-pdf-translator/internal/logger"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pdftool"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/providers/factory"
)

var (
	// 全局标志
	cfgFile     string
	debugMode   bool
	verboseMode bool
	provider    string // 覆盖配置中的翻译提供商
)

// 外部协作者的构造函数，测试中替换
var (
	newStore   = func() *storage.FS { return storage.NewOS() }
	newToolkit = func(cfg *config.Config, log *zap.Logger) *pdftool.Toolkit {
		return pdftool.NewToolkit(cfg.Tools, pdftool.NewExecRunner(log), log)
	}
	newProvider = func(cfg *config.Config) (providers.Provider, error) {
		return factory.New().CreateProvider(cfg.Provider, cfg)
	}
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdftranslator",
		Short: "将 PDF 文档翻译为另一种语言，同时保留原有版式",
		Long: `pdftranslator 将 PDF 转换为 HTML，逐段翻译其中的文本，再把译文写回 HTML 并重新渲染为 PDF。

翻译流程:
  解密 → 统计页数 → 按页拆分 → pdf2htmlEX 转换 → 提取文本 → 分块翻译 → 回填译文 → wkhtmltopdf 渲染

支持的翻译提供商:
  - google: Google Translate（无密钥时使用免费接口）
  - libretranslate: LibreTranslate (开源)
  - openai: OpenAI 兼容的对话模型
  - raw: 不翻译，原样输出（用于试运行）`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewTranslateCommand())
	rootCmd.AddCommand(NewLanguagesCommand())
	rootCmd.AddCommand(NewCleanupCommand())
	rootCmd.AddCommand(NewDetectCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

func addGlobalFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试模式")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "显示详细日志（包括翻译片段）")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "指定翻译提供商 (google, libretranslate, openai, raw)")
}

// loadConfig 加载配置并应用全局标志
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = debugMode
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseMode
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	return cfg, nil
}

// newLogger 按配置创建日志记录器
func newLogger(cfg *config.Config) *zap.Logger {
	if cfg == nil {
		return logger.NewLoggerWithVerbose(debugMode, verboseMode)
	}
	return logger.NewLoggerWithVerbose(cfg.Debug || debugMode, cfg.Verbose || verboseMode)
}

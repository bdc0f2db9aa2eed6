package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/stats"
)

var (
	// stats 命令的标志
	recentLimit int
	exportPath  string
	resetStats  bool
	assumeYes   bool
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "查看翻译统计",
		Long: `查看翻译历史统计，包括:
- 总体统计（次数、页数、字符数、成功率）
- 语言对统计
- 翻译提供商统计
- 最近的翻译记录

Examples:
  # 显示概览与最近 10 条记录
  pdftranslator stats

  # 显示最近 20 条记录
  pdftranslator stats --recent 20

  # 只显示语言对统计
  pdftranslator stats --languages

  # 导出为 JSON
  pdftranslator stats --export stats.json

  # 清空统计
  pdftranslator stats --reset --yes`,
		Args: cobra.NoArgs,
		RunE: runStatsCommand,
	}

	statsCmd.Flags().IntVar(&recentLimit, "recent", 10, "显示最近的翻译记录条数")
	statsCmd.Flags().StringVar(&exportPath, "export", "", "导出统计到文件（JSON）")
	statsCmd.Flags().BoolVar(&resetStats, "reset", false, "清空全部统计（需要确认）")
	statsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "跳过确认")
	statsCmd.Flags().Bool("languages", false, "只显示语言对统计")
	statsCmd.Flags().Bool("providers", false, "只显示翻译提供商统计")

	return statsCmd
}

// runStatsCommand 执行 stats 命令
func runStatsCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	if cfg.StatsPath == "" {
		return fmt.Errorf("统计已禁用（stats_path 为空）")
	}

	db, err := stats.NewDatabase(cfg.StatsPath, log)
	if err != nil {
		return fmt.Errorf("初始化统计数据库失败: %w", err)
	}

	out := cmd.OutOrStdout()

	if resetStats {
		if !assumeYes && !confirm(cmd, "确定要清空全部统计吗？此操作无法撤销 (y/N): ") {
			fmt.Fprintln(out, "已取消")
			return nil
		}
		if err := db.Reset(); err != nil {
			return fmt.Errorf("清空统计失败: %w", err)
		}
		log.Info("统计已清空", zap.String("路径", cfg.StatsPath))
		fmt.Fprintln(out, "✅ 统计已清空")
		return nil
	}

	if exportPath != "" {
		if err := db.Export(exportPath); err != nil {
			return fmt.Errorf("导出统计失败: %w", err)
		}
		fmt.Fprintf(out, "✅ 统计已导出到: %s\n", exportPath)
		return nil
	}

	visualizer := stats.NewVisualizer(db, out)

	showLanguages, _ := cmd.Flags().GetBool("languages")
	showProviders, _ := cmd.Flags().GetBool("providers")
	switch {
	case showLanguages:
		visualizer.ShowLanguagePairs()
	case showProviders:
		visualizer.ShowProviders()
	default:
		visualizer.ShowOverview()
		fmt.Fprintln(out)
		visualizer.ShowRecentTranslations(recentLimit)
	}
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	var answer string
	_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}

package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	olderThan    int
	cleanPattern string
	cleanDirs    []string
)

// NewCleanupCommand 创建 cleanup 命令
func NewCleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "删除过期的输出与上传文件",
		Long: `删除输出目录与上传目录中过期的文件，只处理目录顶层的文件。

Examples:
  # 删除一小时前生成的文件
  pdftranslator cleanup

  # 删除一天前的文件
  pdftranslator cleanup --older-than 86400

  # 另外删除文件名匹配模式的文件（不区分大小写的正则表达式）
  pdftranslator cleanup --pattern '_fr\.(pdf|html)$'`,
		Args: cobra.NoArgs,
		RunE: runCleanup,
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 3600, "过期时间（秒）")
	cmd.Flags().StringVar(&cleanPattern, "pattern", "", "额外删除文件名匹配该正则的文件")
	cmd.Flags().StringSliceVar(&cleanDirs, "dir", nil, "要清理的目录（默认输出目录与上传目录）")
	return cmd
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	if olderThan < 0 {
		return fmt.Errorf("--older-than must not be negative")
	}

	dirs := cleanDirs
	if len(dirs) == 0 {
		dirs = []string{cfg.OutputDir, filepath.Join(cfg.WorkDir, "uploads")}
	}

	store := newStore()
	var errs error

	expired, err := store.DeleteOlderThan(dirs, time.Duration(olderThan)*time.Second)
	errs = multierr.Append(errs, err)

	matched := 0
	if cleanPattern != "" {
		matched, err = store.DeleteByPattern(dirs, cleanPattern)
		errs = multierr.Append(errs, err)
	}

	log.Info("清理完成",
		zap.Strings("目录", dirs),
		zap.Int("过期文件", expired),
		zap.Int("匹配文件", matched))

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "✅ 已删除 %d 个过期文件", expired)
	if cleanPattern != "" {
		fmt.Fprintf(out, "，%d 个匹配 %q 的文件", matched, cleanPattern)
	}
	fmt.Fprintln(out)

	return errs
}

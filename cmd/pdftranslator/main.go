package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/cli"
	"github.com/nerdneilsfield/go-pdf-translator/internal/logger"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pipeline"
)

// 版本信息，构建时通过 -ldflags 注入
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// 退出码
const (
	exitFailure  = 1
	exitCanceled = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 在可被 SIGINT/SIGTERM 取消的上下文中执行命令，返回进程退出码
func run(args []string) int {
	log := logger.NewLogger(false)
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	code := exitCode(err)
	if code == exitCanceled {
		log.Warn("命令已取消")
		return code
	}
	log.Error("执行命令失败",
		zap.Stringer("类型", pipeline.KindOf(err)),
		zap.Error(err))
	return code
}

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitCanceled
	}
	return exitFailure
}

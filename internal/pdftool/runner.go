// Package pdftool 调用外部 PDF 工具：解密、页数、拆分、转换与渲染
package pdftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
)

// Runner 执行外部命令
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}

// ToolError 外部命令执行失败
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // 未能启动或被终止时为 -1
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed (exit %d): %v", e.Tool, e.ExitCode, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		if len(out) > 300 {
			out = out[:300] + "..."
		}
		msg += ": " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner 使用 os/exec 执行命令
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner 创建命令执行器
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	logger = applog.OrNop(logger)
	return &ExecRunner{logger: logger}
}

// Run 在超时限制内执行命令，返回合并后的标准输出与错误输出
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("执行外部命令",
		zap.String("命令", name),
		zap.Strings("参数", args),
		zap.Duration("耗时", time.Since(start)),
		zap.Error(err))

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return out.Bytes(), &ToolError{
			Tool:     name,
			Args:     args,
			ExitCode: exitCode,
			Output:   out.String(),
			Err:      err,
		}
	}
	return out.Bytes(), nil
}

// exitCode 返回 ToolError 的退出码，其他错误返回 -1
func exitCode(err error) int {
	var te *ToolError
	if errors.As(err, &te) {
		return te.ExitCode
	}
	return -1
}

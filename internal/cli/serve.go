package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/api"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-pdf-translator/internal/stats"
)

var serveAddr string

// NewServeCommand 创建 serve 命令
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 翻译服务",
		Long: `启动 HTTP 翻译服务，上传的 PDF 在后台队列中翻译。

接口:
  GET  /health
  GET  /api/languages?q=
  POST /api/translations                      (multipart: file, source, target)
  GET  /api/translations/{jobID}
  GET  /api/translations/{jobID}/files/{kind} (kind: html | pdf)`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址（默认取配置 server.addr）")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	prov, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("创建翻译提供商失败: %w", err)
	}

	options := []pipeline.Option{pipeline.WithLogger(log)}
	if cfg.StatsPath != "" {
		db, err := stats.NewDatabase(cfg.StatsPath, log)
		if err != nil {
			log.Warn("初始化统计数据库失败，本次不记录统计", zap.Error(err))
		} else {
			options = append(options, pipeline.WithRecorder(db))
		}
	}

	store := newStore()
	p, err := pipeline.New(pipeline.OptionsFromConfig(cfg), store, newToolkit(cfg, log), prov, options...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	srv := api.NewServer(cfg, p, store, log)
	srv.Start(ctx)
	defer srv.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP 服务已启动",
			zap.String("地址", cfg.Server.Addr),
			zap.String("提供商", prov.GetName()),
			zap.Int("工作协程", cfg.Server.Workers))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("正在关闭 HTTP 服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

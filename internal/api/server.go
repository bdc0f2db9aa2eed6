// Package api 提供异步 PDF 翻译的 HTTP 接口
package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-pdf-translator/internal/config"
	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
)

// Server HTTP 接口服务
type Server struct {
	router chi.Router
	queue  *Queue
	jobs   *JobStore
	store  storage.Store
	cfg    *config.Config
	logger *zap.Logger
	newID  func() string
}

// NewServer 创建服务并注册路由
func NewServer(cfg *config.Config, executor Executor, store storage.Store, logger *zap.Logger) *Server {
	logger = applog.OrNop(logger)
	jobs := NewJobStore(cfg.ExpirationDuration())
	queue := NewQueue(executor, store, jobs, cfg.Server.Workers, cfg.Server.QueueSize, logger)

	s := &Server{
		queue:  queue,
		jobs:   jobs,
		store:  store,
		cfg:    cfg,
		logger: logger,
		newID:  newJobID,
	}
	queue.sweep = s.sweepFiles
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start 启动后台工作协程
func (s *Server) Start(ctx context.Context) {
	interval := s.cfg.ExpirationDuration() / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	s.queue.Start(ctx, interval)
}

// Stop 停止后台工作协程
func (s *Server) Stop() {
	s.queue.Stop()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/languages", s.handleLanguages)
		r.Post("/translations", s.handleCreateTranslation)
		r.Get("/translations/{jobID}", s.handleTranslationStatus)
		r.Get("/translations/{jobID}/files/{kind}", s.handleTranslationFile)
	})

	s.router = r
}

// sweepFiles 删除过期的上传与输出文件
func (s *Server) sweepFiles() {
	dirs := []string{s.cfg.OutputDir, s.uploadDir()}
	n, err := s.store.DeleteOlderThan(dirs, s.cfg.ExpirationDuration())
	if err != nil {
		s.logger.Warn("清理过期文件失败", zap.Error(err))
	}
	if n > 0 {
		s.logger.Info("已删除过期文件", zap.Int("数量", n))
	}
}

func (s *Server) uploadDir() string {
	return filepath.Join(s.cfg.WorkDir, "uploads")
}

// RequestLogger 记录每个请求
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("请求",
				zap.String("方法", r.Method),
				zap.String("路径", r.URL.Path),
				zap.Int("状态", sw.status),
				zap.String("请求ID", middleware.GetReqID(r.Context())),
				zap.Duration("耗时", time.Since(start)))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// kindOf 根据扩展名返回输出类型
func kindOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

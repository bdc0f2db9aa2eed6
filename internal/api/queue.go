package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/nerdneilsfield/go-pdf-translator/internal/logger"
	"github.com/nerdneilsfield/go-pdf-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-pdf-translator/internal/storage"
)

// ErrQueueFull 等待队列已满
var ErrQueueFull = errors.New("job queue is full")

// Executor 执行一次完整的翻译
type Executor interface {
	Execute(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type queuedJob struct {
	job *Job
	req pipeline.Request
}

// Queue 有界的任务队列与固定数量的工作协程
type Queue struct {
	jobs     *JobStore
	queue    chan queuedJob
	executor Executor
	store    storage.Store
	workers  int
	sweep    func() // 定期执行的过期清理
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue 创建任务队列
func NewQueue(executor Executor, store storage.Store, jobs *JobStore, workers, size int, logger *zap.Logger) *Queue {
	logger = applog.OrNop(logger)
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	return &Queue{
		jobs:     jobs,
		queue:    make(chan queuedJob, size),
		executor: executor,
		store:    store,
		workers:  workers,
		logger:   logger,
	}
}

// Start 启动工作协程与定期清理
func (q *Queue) Start(ctx context.Context, sweepInterval time.Duration) {
	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for range q.workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case item, ok := <-q.queue:
					if !ok {
						return
					}
					q.process(workerCtx, item)
				}
			}
		}()
	}

	if sweepInterval <= 0 {
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				removed := q.jobs.Cleanup()
				if q.sweep != nil {
					q.sweep()
				}
				q.logger.Debug("过期任务已清理", zap.Int("任务数", removed))
			}
		}
	}()
}

// Stop 停止接收任务并等待工作协程退出
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Submit 加入队列，队列已满时任务标记为失败
func (q *Queue) Submit(job *Job, req pipeline.Request) error {
	q.jobs.Put(job)
	select {
	case q.queue <- queuedJob{job: job, req: req}:
		return nil
	default:
		job.Fail("QueueFull", ErrQueueFull.Error(), "")
		return fmt.Errorf("%w (%d)", ErrQueueFull, cap(q.queue))
	}
}

// Depth 当前排队的任务数
func (q *Queue) Depth() int {
	return len(q.queue)
}

func (q *Queue) process(ctx context.Context, item queuedJob) {
	job := item.job
	log := q.logger.With(zap.String("任务", job.ID))

	job.SetStatus(StatusRunning)
	log.Info("开始处理任务", zap.String("文件", job.Filename))

	result, err := q.executor.Execute(ctx, item.req)

	// 上传的原文件只在任务期间保留
	if rmErr := q.store.Remove(item.req.InputPath); rmErr != nil {
		log.Warn("删除上传文件失败", zap.Error(rmErr))
	}

	if err != nil {
		var pe *pipeline.Error
		if errors.As(err, &pe) {
			job.Fail(pe.Kind.String(), pe.Error(), pe.Suggested)
		} else {
			job.Fail(pipeline.KindOf(err).String(), err.Error(), "")
		}
		log.Warn("任务失败", zap.Error(err))
		return
	}

	files := make(map[string]string, len(result.OutputPaths))
	for _, path := range result.OutputPaths {
		files[kindOf(path)] = path
	}

	if result.Success {
		job.Finish(StatusCompleted, files, "")
	} else {
		msg := ""
		if result.Err != nil {
			msg = result.Err.Error()
		}
		job.Finish(StatusIncomplete, files, msg)
	}
	log.Info("任务完成", zap.Bool("成功", result.Success))
}

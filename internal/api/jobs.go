package api

import (
	"sync"
	"time"
)

// JobStatus 翻译任务状态
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusRunning    JobStatus = "running"
	StatusCompleted  JobStatus = "completed"
	StatusIncomplete JobStatus = "incomplete" // 只生成了部分输出
	StatusFailed     JobStatus = "failed"
)

// Job 一个异步翻译任务
type Job struct {
	mu sync.Mutex

	ID         string
	Filename   string
	SourceLang string
	TargetLang string

	status    JobStatus
	errorKind string
	errorMsg  string
	suggested string
	files     map[string]string // 输出类型（html、pdf）到存储路径

	CreatedAt time.Time
	updatedAt time.Time

	inputPath  string
	outputPath string
}

// JobSnapshot 任务状态的只读副本
type JobSnapshot struct {
	ID         string            `json:"job_id"`
	Status     JobStatus         `json:"status"`
	Filename   string            `json:"filename"`
	SourceLang string            `json:"source_lang,omitempty"`
	TargetLang string            `json:"target_lang"`
	ErrorKind  string            `json:"error_kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	Suggested  string            `json:"suggested,omitempty"`
	Files      map[string]string `json:"files,omitempty"` // 输出类型到下载地址
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SetStatus 更新状态
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.updatedAt = time.Now()
}

// Fail 标记任务失败
func (j *Job) Fail(kind, msg, suggested string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	j.errorKind = kind
	j.errorMsg = msg
	j.suggested = suggested
	j.updatedAt = time.Now()
}

// Finish 记录输出文件并设置最终状态
func (j *Job) Finish(status JobStatus, files map[string]string, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.files = files
	j.errorMsg = msg
	j.updatedAt = time.Now()
}

// File 返回指定类型的输出路径
func (j *Job) File(kind string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	path, ok := j.files[kind]
	return path, ok
}

// Snapshot 返回线程安全的副本
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	var files map[string]string
	if len(j.files) > 0 {
		files = make(map[string]string, len(j.files))
		for kind := range j.files {
			files[kind] = "/api/translations/" + j.ID + "/files/" + kind
		}
	}

	return JobSnapshot{
		ID:         j.ID,
		Status:     j.status,
		Filename:   j.Filename,
		SourceLang: j.SourceLang,
		TargetLang: j.TargetLang,
		ErrorKind:  j.errorKind,
		Error:      j.errorMsg,
		Suggested:  j.suggested,
		Files:      files,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.updatedAt,
	}
}

func (j *Job) lastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.updatedAt
}

func (j *Job) terminal() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status == StatusCompleted || j.status == StatusIncomplete || j.status == StatusFailed
}

// JobStore 线程安全的内存任务表，过期任务定期清除
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// NewJobStore 创建任务表
func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put 保存任务
func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get 查找任务，不存在时返回 nil
func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len 任务数
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup 删除已结束且超过保留时间的任务，返回删除数量
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, job := range s.jobs {
		if job.terminal() && job.lastUpdate().Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

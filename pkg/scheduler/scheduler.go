// Package scheduler 基于 robfig/cron 的定时任务调度，带重试、超时与运行统计
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ErrDuplicateJob 任务名重复
var ErrDuplicateJob = errors.New("scheduler: duplicate job name")

// JobFunc 任务函数，ctx 在调度器停止或超时时取消
type JobFunc func(ctx context.Context) error

// JobInfo 任务快照
type JobInfo struct {
	ID        cron.EntryID
	Name      string
	Spec      string
	NextRun   time.Time
	RunCount  int64
	FailCount int64
}

type job struct {
	id        cron.EntryID
	name      string
	spec      string
	fn        JobFunc
	opts      JobOptions
	runCount  atomic.Int64
	failCount atomic.Int64
}

// Scheduler 定时任务调度器，实现 app.Server
type Scheduler struct {
	config *Config
	cron   *cron.Cron
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*job
}

// Option 调度器选项
type Option func(*Scheduler)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New 创建调度器
func New(cfg *Config, opts ...Option) (*Scheduler, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		config: newCfg,
		logger: logger.NewNoop(),
		jobs:   make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{l: s.logger}
	wrappers := []cron.JobWrapper{cron.Recover(cl)}
	if newCfg.SkipIfStillRunning {
		wrappers = append(wrappers, cron.SkipIfStillRunning(cl))
	}

	cronOpts := []cron.Option{cron.WithLogger(cl), cron.WithChain(wrappers...)}
	if newCfg.WithSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	if newCfg.Timezone != "" {
		loc, err := time.LoadLocation(newCfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", newCfg.Timezone, err)
		}
		cronOpts = append(cronOpts, cron.WithLocation(loc))
	}

	s.cron = cron.New(cronOpts...)
	return s, nil
}

// AddFunc 注册任务
func (s *Scheduler) AddFunc(name, spec string, fn JobFunc, opts ...JobOption) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, spec: spec, fn: fn, opts: s.config.DefaultJobOptions}
	for _, opt := range opts {
		opt(&j.opts)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(j) })
	if err != nil {
		return 0, fmt.Errorf("invalid spec %q for job %s: %w", spec, name, err)
	}
	j.id = id
	s.jobs[name] = j
	return id, nil
}

// RunNow 立即同步执行一次指定任务
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: job %s not found", name)
	}
	return s.run(j)
}

func (s *Scheduler) run(j *job) error {
	j.runCount.Add(1)
	start := time.Now()

	err := s.attempt(j)
	if err != nil {
		j.failCount.Add(1)
		s.logger.Error("job failed", "job", j.name, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Debug("job finished", "job", j.name, "duration", time.Since(start))
	return nil
}

func (s *Scheduler) attempt(j *job) error {
	for attempt := 0; ; attempt++ {
		err := s.invoke(j)
		if err == nil || attempt >= j.opts.MaxRetries {
			return err
		}
		s.logger.Warn("job attempt failed", "job", j.name, "attempt", attempt+1, "error", err)

		select {
		case <-time.After(j.opts.backoff(attempt + 1)):
		case <-s.ctx.Done():
			return err
		}
	}
}

func (s *Scheduler) invoke(j *job) error {
	ctx := s.ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}
	return j.fn(ctx)
}

// ListJobs 返回所有任务快照
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		infos = append(infos, JobInfo{
			ID:        j.id,
			Name:      j.name,
			Spec:      j.spec,
			NextRun:   s.cron.Entry(j.id).Next,
			RunCount:  j.runCount.Load(),
			FailCount: j.failCount.Load(),
		})
	}
	return infos
}

// Start 启动调度
func (s *Scheduler) Start() error {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop 停止调度并等待执行中的任务结束
func (s *Scheduler) Stop() error {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger 将 cron 的日志接口适配到 pkg/logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

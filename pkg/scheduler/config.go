package scheduler

import "time"

// Config 调度器配置
type Config struct {
	// Timezone 为空时使用本地时区
	Timezone string `mapstructure:"timezone"`

	// WithSeconds 启用 6 段式秒级表达式
	WithSeconds bool `mapstructure:"with_seconds"`

	// SkipIfStillRunning 上一次执行未结束时跳过本次
	SkipIfStillRunning bool `mapstructure:"skip_if_still_running"`

	// JobTimeout 单次执行超时，0 表示不限制
	JobTimeout time.Duration `mapstructure:"job_timeout"`

	DefaultJobOptions JobOptions `mapstructure:"default_job_options"`
}

// BackoffStrategy 重试退避策略
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// JobOptions 任务选项
type JobOptions struct {
	MaxRetries      int             `mapstructure:"max_retries"`
	BackoffStrategy BackoffStrategy `mapstructure:"backoff_strategy"`
	InitialBackoff  time.Duration   `mapstructure:"initial_backoff"`
	MaxBackoff      time.Duration   `mapstructure:"max_backoff"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		SkipIfStillRunning: true,
		JobTimeout:         time.Minute,
		DefaultJobOptions: JobOptions{
			MaxRetries:      2,
			BackoffStrategy: BackoffExponential,
			InitialBackoff:  100 * time.Millisecond,
			MaxBackoff:      5 * time.Second,
		},
	}
}

// JobOption 单个任务的选项
type JobOption func(*JobOptions)

// WithMaxRetries 设置最大重试次数
func WithMaxRetries(n int) JobOption {
	return func(o *JobOptions) { o.MaxRetries = n }
}

// WithNoRetry 失败不重试
func WithNoRetry() JobOption {
	return func(o *JobOptions) { o.MaxRetries = 0 }
}

// WithBackoff 设置退避策略与初始间隔
func WithBackoff(strategy BackoffStrategy, initial time.Duration) JobOption {
	return func(o *JobOptions) {
		o.BackoffStrategy = strategy
		o.InitialBackoff = initial
	}
}

func (o JobOptions) backoff(attempt int) time.Duration {
	d := o.InitialBackoff
	if o.BackoffStrategy == BackoffExponential {
		for i := 1; i < attempt; i++ {
			d *= 2
		}
	}
	if o.MaxBackoff > 0 && d > o.MaxBackoff {
		d = o.MaxBackoff
	}
	return d
}

// Package sliding 按时间分桶的滑动窗口统计（吞吐、延迟、成功率）
package sliding

import (
	"fmt"
	"sync"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
)

// WindowConfig 滑动窗口配置
type WindowConfig struct {
	Enabled     bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	WindowSize  time.Duration `mapstructure:"window_size" json:"window_size" yaml:"window_size"`
	BucketCount int           `mapstructure:"bucket_count" json:"bucket_count" yaml:"bucket_count"`
}

// DefaultWindowConfig 默认配置
func DefaultWindowConfig() *WindowConfig {
	return &WindowConfig{
		Enabled:     true,
		WindowSize:  60 * time.Second,
		BucketCount: 60,
	}
}

type bucket struct {
	epoch      int64 // 桶所属的时间片序号
	count      int64
	totalTime  float64
	minLatency float64
	maxLatency float64
	successCnt int64
}

// Window 滑动窗口统计器
// 桶按记录时的时间片惰性重置，不需要后台轮转协程
type Window struct {
	config   *WindowConfig
	bucketNs int64
	now      func() time.Time

	mu      sync.Mutex
	buckets []bucket
}

// Option 窗口选项
type Option func(*Window)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

// NewWindow 创建滑动窗口统计器
func NewWindow(cfg *WindowConfig, opts ...Option) (*Window, error) {
	newCfg, err := config.MergeConfig(DefaultWindowConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge window config: %w", err)
	}
	if newCfg.BucketCount <= 0 || newCfg.WindowSize <= 0 {
		return nil, fmt.Errorf("invalid window config: size=%s buckets=%d", newCfg.WindowSize, newCfg.BucketCount)
	}

	w := &Window{
		config:   newCfg,
		bucketNs: int64(newCfg.WindowSize) / int64(newCfg.BucketCount),
		now:      time.Now,
		buckets:  make([]bucket, newCfg.BucketCount),
	}
	if w.bucketNs <= 0 {
		w.bucketNs = 1
	}
	for i := range w.buckets {
		w.buckets[i].epoch = -1
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Record 记录一次请求，latency 单位秒
func (w *Window) Record(latency float64, success bool) {
	if !w.config.Enabled {
		return
	}

	epoch := w.now().UnixNano() / w.bucketNs

	w.mu.Lock()
	defer w.mu.Unlock()

	b := &w.buckets[int(epoch%int64(len(w.buckets)))]
	if b.epoch != epoch {
		*b = bucket{epoch: epoch, minLatency: latency}
	}
	b.count++
	b.totalTime += latency
	if success {
		b.successCnt++
	}
	if latency < b.minLatency {
		b.minLatency = latency
	}
	if latency > b.maxLatency {
		b.maxLatency = latency
	}
}

// Stats 统计结果
type Stats struct {
	QPS          float64 `json:"qps"`
	AvgLatency   float64 `json:"avg_latency"`
	MinLatency   float64 `json:"min_latency"`
	MaxLatency   float64 `json:"max_latency"`
	SuccessRate  float64 `json:"success_rate"` // 0-100
	TotalCount   int64   `json:"total_count"`
	SuccessCount int64   `json:"success_count"`
	FailureCount int64   `json:"failure_count"`
}

// GetStats 汇总窗口内的桶
func (w *Window) GetStats() Stats {
	current := w.now().UnixNano() / w.bucketNs
	oldest := current - int64(len(w.buckets)) + 1

	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		stats     Stats
		totalTime float64
		seen      bool
	)
	for _, b := range w.buckets {
		if b.epoch < oldest || b.epoch > current || b.count == 0 {
			continue
		}
		stats.TotalCount += b.count
		stats.SuccessCount += b.successCnt
		totalTime += b.totalTime
		if !seen || b.minLatency < stats.MinLatency {
			stats.MinLatency = b.minLatency
		}
		if b.maxLatency > stats.MaxLatency {
			stats.MaxLatency = b.maxLatency
		}
		seen = true
	}

	stats.FailureCount = stats.TotalCount - stats.SuccessCount
	stats.QPS = float64(stats.TotalCount) / w.config.WindowSize.Seconds()
	if stats.TotalCount > 0 {
		stats.AvgLatency = totalTime / float64(stats.TotalCount)
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCount) * 100
	}
	return stats
}

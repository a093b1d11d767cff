// Package job 引擎的定时任务
package job

import (
	"context"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/scheduler"
)

// TradeExpiryJob 任务名
const TradeExpiryJob = "trade_expiry"

// Config 任务配置（jobs 段）
type Config struct {
	// TradeExpirySpec 超时提案清理周期，cron 表达式
	TradeExpirySpec string `mapstructure:"trade_expiry_spec" json:"trade_expiry_spec"`
	// LockTTL 多实例部署时任务锁的持有上限
	LockTTL time.Duration `mapstructure:"lock_ttl" json:"lock_ttl"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{TradeExpirySpec: "@every 1m", LockTTL: 30 * time.Second}
}

// TradeExpirer 超时提案清理
type TradeExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Locker 跨实例互斥，获取不到锁时不执行 fn
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

// Register 注册引擎任务；只有存储不可用时才交给调度器重试。
// locker 为 nil 时每个实例都执行清理。
func Register(s *scheduler.Scheduler, cfg *Config, trades TradeExpirer, locker Locker, l logger.Logger) error {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	spec, ttl := cfg.TradeExpirySpec, cfg.LockTTL
	if spec == "" {
		spec = def.TradeExpirySpec
	}
	if ttl <= 0 {
		ttl = def.LockTTL
	}
	l = l.Named("job.trade_expiry")

	expire := func(ctx context.Context) error {
		n, err := trades.ExpireStale(ctx)
		if err != nil && !errs.Retryable(err) {
			l.ErrorContext(ctx, "trade expiry failed", "expired", n, "error", err)
			return nil
		}
		return err
	}

	_, err := s.AddFunc(TradeExpiryJob, spec, func(ctx context.Context) error {
		if locker == nil {
			return expire(ctx)
		}
		ran, err := locker.TryWithLock(ctx, "job:"+TradeExpiryJob, ttl, expire)
		switch {
		case err != nil && !ran:
			// 清理对并发执行是安全的，锁服务故障时退化为本地执行
			l.WarnContext(ctx, "job lock unavailable, running without lock", "error", err)
			return expire(ctx)
		case !ran:
			l.DebugContext(ctx, "trade expiry running on another instance")
		}
		return err
	})
	return err
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/cache/lru"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	weberrors "github.com/MAKORA-ltd/anime-play/pkg/web/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	Burst             int      `mapstructure:"burst"`
	SkipPaths         []string `mapstructure:"skip_paths"`

	// WaitTimeout 大于 0 时排队等待，否则直接拒绝
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	MaxLimiters     int           `mapstructure:"max_limiters"`
	LimiterTTL      time.Duration `mapstructure:"limiter_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// KeyFunc 限流键生成函数，返回空串时使用全局限流器
type KeyFunc func(*gin.Context) string

// RateLimiter 按键限流，每个键一个令牌桶，桶保存在 LRU 中
type RateLimiter struct {
	cfg      RateLimitConfig
	global   *rate.Limiter
	limiters *lru.LRU[string, *rate.Limiter]
	keyFunc  KeyFunc
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg RateLimitConfig, keyFunc KeyFunc) *RateLimiter {
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
	return &RateLimiter{
		cfg:     cfg,
		global:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		keyFunc: keyFunc,
		logger:  l,
		limiters: lru.New[string, *rate.Limiter](&lru.Config{
			MaxSize:         cfg.MaxLimiters,
			DefaultTTL:      cfg.LimiterTTL,
			CleanupInterval: cfg.CleanupInterval,
		}),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait 等待直到允许请求
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if key == "" {
		return rl.global
	}
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})
}

// Close 停止桶清理
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// RateLimit 限流中间件
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(rl.cfg.SkipPaths))
	for _, path := range rl.cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if !rl.cfg.Enabled {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if _, skip := skipPaths[path]; skip {
			c.Next()
			return
		}

		key := rl.keyFunc(c)
		if rl.cfg.WaitTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), rl.cfg.WaitTimeout)
			defer cancel()
			if err := rl.Wait(ctx, key); err != nil {
				rl.logger.WarnContext(c.Request.Context(), "rate limit wait timeout", "key", key, "path", path, "error", err)
				abortWithRateLimitError(c)
				return
			}
		} else if !rl.Allow(key) {
			rl.logger.WarnContext(c.Request.Context(), "rate limit exceeded", "key", key, "path", path)
			abortWithRateLimitError(c)
			return
		}

		c.Next()
	}
}

func abortWithRateLimitError(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    weberrors.CodeRateLimited,
		"message": "too many requests",
		"data":    nil,
	})
}

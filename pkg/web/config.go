package web

import (
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/web/middleware"
	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`

	// ServiceName 追踪 span 上的服务名
	ServiceName string `mapstructure:"service_name"`

	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		Mode:         gin.ReleaseMode,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ServiceName:  "animeplay",
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			MaxLimiters:       10000,
			LimiterTTL:        10 * time.Minute,
			CleanupInterval:   time.Minute,
		},
	}
}

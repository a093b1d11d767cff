package main

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/job"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/metrics"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/app"
	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/MAKORA-ltd/anime-play/pkg/database/postgres"
	"github.com/MAKORA-ltd/anime-play/pkg/database/redis"
	"github.com/MAKORA-ltd/anime-play/pkg/database/sqlite"
	"github.com/MAKORA-ltd/anime-play/pkg/idgen"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/mq/kafka"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/MAKORA-ltd/anime-play/pkg/prometheus"
	"github.com/MAKORA-ltd/anime-play/pkg/scheduler"
	"github.com/MAKORA-ltd/anime-play/pkg/security"
	"github.com/MAKORA-ltd/anime-play/pkg/sentry"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/spf13/pflag"
)

// Config 引擎服务的完整配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	Database DatabaseConfig `mapstructure:"database"`

	// Engine 冷却、签到、交易与管理员白名单
	Engine service.Config `mapstructure:"engine"`

	// Rarity 为空时使用 50/30/15/5 默认表
	Rarity []rarity.Entry `mapstructure:"rarity"`

	// JWT 网关请求认证
	JWT security.JWTConfig `mapstructure:"jwt"`

	// EncounterJWT 遭遇令牌签名，密钥必须与 JWT 不同
	EncounterJWT security.JWTConfig `mapstructure:"encounter_jwt"`

	IDGen idgen.Config `mapstructure:"idgen"`

	Web        web.Config        `mapstructure:"web"`
	Prometheus prometheus.Config `mapstructure:"prometheus"`
	Metrics    metrics.Config    `mapstructure:"metrics"`
	Events     EventsConfig      `mapstructure:"events"`
	Trace      otel.Config       `mapstructure:"trace"`
	Scheduler  scheduler.Config  `mapstructure:"scheduler"`
	Jobs       job.Config        `mapstructure:"jobs"`

	// Redis 多实例部署时的任务锁，不配置则每个实例各自执行
	Redis redis.Config `mapstructure:"redis"`

	// Sentry DSN 为空时不上报
	Sentry sentry.Config `mapstructure:"sentry"`

	// SeedFile 启动时导入的图鉴 YAML，可由 --seed 覆盖
	SeedFile string `mapstructure:"seed_file"`
}

// DatabaseConfig 存储配置
type DatabaseConfig struct {
	// Driver postgres 或 sqlite
	Driver      string          `mapstructure:"driver"`
	Postgres    postgres.Config `mapstructure:"postgres"`
	SQLite      sqlite.Config   `mapstructure:"sqlite"`
	AutoMigrate bool            `mapstructure:"auto_migrate"`
}

// EventsConfig 领域事件发布
type EventsConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Kafka   kafka.Config `mapstructure:"kafka"`
}

func main() {
	seedFile := pflag.String("seed", "", "path to a YAML file of catalog characters to import at startup")

	var cfg Config

	// 1. 加载配置
	mgr, err := app.LoadConfig(&cfg)
	if err != nil {
		panic(err)
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}

	// 2. 初始化主日志，log.level 支持热更新
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}
	mgr.Watch(func() { reloadLogLevel(mgr, l) })

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return
	}
	defer cleanup()

	// 4. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}

func reloadLogLevel(mgr config.Manager, l *logger.BaseLogger) {
	level := logger.Level(mgr.GetString("log.level"))
	if err := l.SetLevel(level); err != nil {
		l.Warn("ignoring log level change", "level", level, "error", err)
		return
	}
	l.Info("log level reloaded", "level", level)
}

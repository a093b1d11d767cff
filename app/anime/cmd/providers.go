package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/clock"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/encounter"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/handler"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/job"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/metrics"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/seed"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/app"
	"github.com/MAKORA-ltd/anime-play/pkg/checksum"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
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
	webmetrics "github.com/MAKORA-ltd/anime-play/pkg/web/metrics"
	"github.com/MAKORA-ltd/anime-play/pkg/web/middleware"
	"github.com/gin-gonic/gin"
)

const startupTimeout = 30 * time.Second

func provideAppOptions(l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
	}
}

// provideTracer 安装全局 TracerProvider，未启用时为空实现
func provideTracer(cfg *Config) (*otel.TracerProvider, error) {
	return otel.New(&cfg.Trace)
}

func providePrometheus(cfg *Config, l logger.Logger) (*prometheus.Client, error) {
	return prometheus.New(&cfg.Prometheus, l)
}

// provideEngineMetrics 创建引擎指标并注册到 Prometheus
func provideEngineMetrics(cfg *Config, prom *prometheus.Client) (*metrics.EngineMetrics, error) {
	m, err := metrics.New(&cfg.Metrics)
	if err != nil {
		return nil, err
	}
	if err := m.Register(prom.Registry()); err != nil {
		return nil, fmt.Errorf("failed to register engine metrics: %w", err)
	}
	return m, nil
}

// database 打开的存储句柄；closer 负责释放底层连接池
type database struct {
	db      *sql.DB
	dialect dbx.Dialect
	closer  app.Closer
}

func provideDatabase(cfg *Config) (*database, error) {
	switch cfg.Database.Driver {
	case "postgres":
		client, err := postgres.New(&cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		return &database{db: client.DB(), dialect: dbx.Postgres, closer: client}, nil
	case "sqlite", "":
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		db, err := sqlite.Open(ctx, &cfg.Database.SQLite)
		if err != nil {
			return nil, err
		}
		return &database{db: db, dialect: dbx.SQLite, closer: db}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// provideStore 创建存储，按配置执行迁移
func provideStore(cfg *Config, d *database, m *metrics.EngineMetrics, l logger.Logger) (*dao.Store, error) {
	store := dao.NewStore(d.db, d.dialect, l, m)
	if !cfg.Database.AutoMigrate {
		return store, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		_ = d.closer.Close()
		return nil, err
	}
	return store, nil
}

func provideEngineConfig(cfg *Config) *service.Config {
	return &cfg.Engine
}

func provideRarityTable(cfg *Config) (*rarity.Table, error) {
	if len(cfg.Rarity) == 0 {
		return rarity.Default(), nil
	}
	return rarity.New(cfg.Rarity)
}

func provideIDGenerator(cfg *Config) (idgen.Generator, error) {
	return idgen.NewSonyflake(&cfg.IDGen)
}

// provideEventPublisher 未启用事件时使用空发布器
func provideEventPublisher(cfg *Config, l logger.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.NewNoop(), nil
	}
	producer, err := kafka.NewProducer(&cfg.Events.Kafka,
		kafka.WithLogger(l),
		kafka.WithMiddleware(
			kafka.TracingMiddleware("github.com/MAKORA-ltd/anime-play/events"),
			kafka.LoggingMiddleware(l.Named("events")),
			kafka.ChecksumMiddleware(checksum.Default()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event producer: %w", err)
	}
	return events.NewKafkaPublisher(producer, l), nil
}

func provideCore(
	engineCfg *service.Config,
	store *dao.Store,
	table *rarity.Table,
	ids idgen.Generator,
	pub events.Publisher,
	m *metrics.EngineMetrics,
	l logger.Logger,
) (*service.Core, error) {
	return service.NewCore(service.Deps{
		Config:    engineCfg,
		Store:     store,
		Table:     table,
		Source:    rng.Crypto(),
		Clock:     clock.System(),
		IDs:       ids,
		Publisher: pub,
		Metrics:   m,
		Logger:    l.Named("engine"),
	})
}

// provideEncounterCodec 遭遇令牌使用独立密钥，不能被当作请求凭证
func provideEncounterCodec(cfg *Config, engineCfg *service.Config) (*encounter.Codec, error) {
	if cfg.EncounterJWT.SecretKey == cfg.JWT.SecretKey {
		return nil, fmt.Errorf("encounter_jwt.secret_key must differ from jwt.secret_key")
	}
	m, err := security.NewJWTManager(&cfg.EncounterJWT)
	if err != nil {
		return nil, fmt.Errorf("failed to create encounter signer: %w", err)
	}
	return encounter.NewCodec(m, engineCfg.EncounterTTL), nil
}

func provideAuthManager(cfg *Config) (*security.JWTManager, error) {
	return security.NewJWTManager(&cfg.JWT)
}

// provideSentry 未配置 DSN 时返回 nil
func provideSentry(cfg *Config) (*sentry.Client, error) {
	if !cfg.Sentry.Enabled() {
		return nil, nil
	}
	if cfg.Sentry.Release == "" {
		cfg.Sentry.Release = app.Version
	}
	return sentry.New(&cfg.Sentry)
}

func provideHandler(s handler.Services, m *metrics.EngineMetrics, reporter *sentry.Client, l logger.Logger) (*handler.Handler, error) {
	if err := handler.RegisterValidations(); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}
	var opts []handler.Option
	if reporter != nil {
		opts = append(opts, handler.WithReporter(reporter))
	}
	return handler.New(s, m, l, opts...), nil
}

// webServer HTTP 服务及其限流器
type webServer struct {
	*web.Server
	limiter *middleware.RateLimiter
}

func provideWebServer(
	cfg *Config,
	h *handler.Handler,
	auth *security.JWTManager,
	prom *prometheus.Client,
	reporter *sentry.Client,
	l logger.Logger,
) (*webServer, error) {
	httpMetrics := webmetrics.New(prom.Namespace())
	if err := httpMetrics.Register(prom.Registry()); err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}
	limiter := middleware.NewRateLimiter(l.Named("ratelimit"), cfg.Web.RateLimit, nil)

	mws := []gin.HandlerFunc{
		middleware.Metrics(httpMetrics),
		middleware.RateLimit(limiter),
	}
	if reporter != nil {
		mws = append(mws, reporter.GinMiddleware())
	}
	srv := web.NewServer(&cfg.Web, l, mws...)
	r := srv.Router()
	r.GET("/metrics", gin.WrapH(prom.Handler()))
	h.Register(r, middleware.Auth(auth))

	return &webServer{Server: srv, limiter: limiter}, nil
}

// provideRedis 未配置时返回 nil
func provideRedis(cfg *Config, l logger.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}
	c, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		// 任务锁故障时退化为本地执行，不阻止启动
		l.Warn("redis unreachable at startup", "error", err)
	}
	return c, nil
}

func provideScheduler(cfg *Config, trades *service.TradeService, rdb *redis.Client, l logger.Logger) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(&cfg.Scheduler, scheduler.WithLogger(l))
	if err != nil {
		return nil, err
	}
	var locker job.Locker
	if rdb != nil {
		locker = rdb
	}
	if err := job.Register(s, &cfg.Jobs, trades, locker, l); err != nil {
		return nil, err
	}
	return s, nil
}

// seedCatalog 以第一个管理员身份导入图鉴
func seedCatalog(cfg *Config, catalog *service.CatalogService, l logger.Logger) error {
	if len(cfg.Engine.AdminIDs) == 0 {
		return fmt.Errorf("seeding %s requires engine.admin_ids", cfg.SeedFile)
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	_, err := seed.LoadFile(ctx, cfg.SeedFile, catalog, cfg.Engine.AdminIDs[0], l.Named("seed"))
	return err
}

func provideAppComponents(
	cfg *Config,
	d *database,
	catalog *service.CatalogService,
	engineMetrics *metrics.EngineMetrics,
	prom *prometheus.Client,
	tracer *otel.TracerProvider,
	pub events.Publisher,
	srv *webServer,
	sched *scheduler.Scheduler,
	rdb *redis.Client,
	reporter *sentry.Client,
	l logger.Logger,
) (app.AppComponents, error) {
	if cfg.SeedFile != "" {
		if err := seedCatalog(cfg, catalog, l); err != nil {
			return app.AppComponents{}, err
		}
	}
	l.Info("engine ready",
		"driver", d.dialect.Name,
		"admins", len(cfg.Engine.AdminIDs),
		"job_lock", rdb != nil,
		"error_reporting", reporter != nil,
	)

	// 逆序关闭：先停止发布，再释放存储与追踪
	closers := []app.Closer{
		tracer,
		d.closer,
		srv.limiter,
		pub,
	}
	if rdb != nil {
		closers = append(closers, rdb)
	}
	if reporter != nil {
		closers = append([]app.Closer{reporter}, closers...)
	}

	return app.AppComponents{
		Servers: []app.Server{
			engineMetrics,
			prom,
			sched,
			srv,
		},
		Closers: closers,
	}, nil
}

// Package service 收集与经济引擎的业务操作
//
// 每个写操作都是一个独立事务；事件在提交之后发布。
package service

import (
	"context"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/clock"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/cooldown"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/metrics"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/MAKORA-ltd/anime-play/pkg/idgen"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MAKORA-ltd/anime-play/engine"

const publishTimeout = 5 * time.Second

// Deps 引擎依赖，Metrics 可为 nil
type Deps struct {
	Config    *Config
	Store     *dao.Store
	Table     *rarity.Table
	Source    rng.Source
	Clock     clock.Clock
	IDs       idgen.Generator
	Publisher events.Publisher
	Metrics   *metrics.EngineMetrics
	Logger    logger.Logger
}

// Core 各服务共享的依赖与观测辅助
type Core struct {
	cfg       *Config
	store     *dao.Store
	table     *rarity.Table
	src       rng.Source
	clock     clock.Clock
	ids       idgen.Generator
	publisher events.Publisher
	metrics   *metrics.EngineMetrics
	tracer    trace.Tracer
	logger    logger.Logger

	huntGate  cooldown.Gate
	dailyGate cooldown.Gate
}

// NewCore 创建共享核心
func NewCore(d Deps) (*Core, error) {
	cfg, err := NewConfig(d.Config)
	if err != nil {
		return nil, err
	}

	c := &Core{
		cfg:       cfg,
		store:     d.Store,
		table:     d.Table,
		src:       d.Source,
		clock:     d.Clock,
		ids:       d.IDs,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		tracer:    otel.Tracer(tracerName),
		logger:    d.Logger,
		huntGate:  cooldown.NewGate(cfg.HuntCooldown),
		dailyGate: cooldown.NewGate(cfg.DailyCooldown),
	}
	if c.table == nil {
		c.table = rarity.Default()
	}
	if c.src == nil {
		c.src = rng.Crypto()
	}
	if c.clock == nil {
		c.clock = clock.System()
	}
	if c.ids == nil {
		c.ids = idgen.NewSequence(1)
	}
	if c.publisher == nil {
		c.publisher = events.NewNoop()
	}
	if c.logger == nil {
		c.logger = logger.NewNoop()
	}
	return c, nil
}

// Config 生效的引擎配置
func (c *Core) Config() *Config { return c.cfg }

// Table 稀有度表
func (c *Core) Table() *rarity.Table { return c.table }

// begin 开始一次被观测的操作，返回的函数在 defer 中以 &err 调用
func (c *Core) begin(ctx context.Context, op string, attrs ...otel.Attribute) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "engine."+op, otel.WithSpanKind(otel.SpanKindInternal), otel.WithAttributes(attrs...))

	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		kind := errs.Kind(err)
		span.SetAttributes(otel.String("engine.result", kind))

		switch kind {
		case "ok":
			span.SetStatus(otel.CodeOk, "")
		case "internal", "store_unavailable":
			span.RecordError(err)
			span.SetStatus(otel.CodeError, err.Error())
			c.logger.ErrorContext(ctx, "operation failed", "op", op, "kind", kind, "error", err)
		default:
			c.logger.DebugContext(ctx, "operation rejected", "op", op, "kind", kind, "reason", err)
		}
		span.End()

		c.metrics.RecordOperation(op, kind, time.Since(start))
	}
}

// publish 尽力发布已提交的事件
func (c *Core) publish(ctx context.Context, e events.Event) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := c.publisher.Publish(pctx, e); err != nil {
		c.logger.WarnContext(ctx, "failed to publish event", "type", e.Type, "event_id", e.ID, "error", err)
		c.metrics.RecordEventDropped()
	}
}

func validUser(userID int64) error {
	if userID <= 0 {
		return errs.Invalid("invalid user id %d", userID)
	}
	return nil
}

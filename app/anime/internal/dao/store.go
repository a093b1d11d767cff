// Package dao 收集与经济引擎的持久化层
//
// DAO 方法都接收 dbx.DBTX，由 service 层决定是在事务内还是直接在连接池上执行。
package dao

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/metrics"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Store 持有连接池、方言与各 DAO
type Store struct {
	db      *sql.DB
	dialect dbx.Dialect
	logger  logger.Logger

	Characters  *CharacterDAO
	Collections *CollectionDAO
	Stats       *StatsDAO
	Trades      *TradeDAO
}

// NewStore 创建存储，m 可为 nil
func NewStore(db *sql.DB, dialect dbx.Dialect, l logger.Logger, m *metrics.EngineMetrics) *Store {
	b := base{dialect: dialect, metrics: m}
	return &Store{
		db:          db,
		dialect:     dialect,
		logger:      l.Named("dao.store"),
		Characters:  &CharacterDAO{base: b.named(l, "dao.character")},
		Collections: &CollectionDAO{base: b.named(l, "dao.collection")},
		Stats:       &StatsDAO{base: b.named(l, "dao.stats")},
		Trades:      &TradeDAO{base: b.named(l, "dao.trade")},
	}
}

// DB 连接池，用于只读查询
func (s *Store) DB() *sql.DB { return s.db }

// Dialect 存储方言
func (s *Store) Dialect() dbx.Dialect { return s.dialect }

// InTx 在写事务中执行 fn；事务开启或提交失败标记为 ErrStoreUnavailable，领域错误原样返回
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	err := dbx.WithTx(ctx, s.db, s.dialect.TxOptions, fn)
	if err == nil {
		return nil
	}
	if errs.Kind(err) == "internal" {
		return errs.Store(err, "transaction")
	}
	return err
}

// Ping 检查存储可用性
func (s *Store) Ping(ctx context.Context) error {
	return errs.Store(s.db.PingContext(ctx), "ping")
}

// Close 关闭连接池
func (s *Store) Close() error {
	return s.db.Close()
}

// newMigrator 测试替换点
var newMigrator = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(dialect, db, fsys)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// Migrate 执行内嵌迁移
func (s *Store) Migrate(ctx context.Context) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch s.dialect.Name {
	case dbx.Postgres.Name:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case dbx.SQLite.Name:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect.Name)
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	p, err := newMigrator(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("migration applied", "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

// base DAO 公共部分
type base struct {
	dialect dbx.Dialect
	logger  logger.Logger
	metrics *metrics.EngineMetrics
}

func (b base) named(l logger.Logger, name string) base {
	b.logger = l.Named(name)
	return b
}

// observe 记录查询指标，并把非领域错误标记为存储不可用
func (b base) observe(op string, start time.Time, err error) error {
	failed := err != nil && (errs.Retryable(err) || errs.Kind(err) == "internal")
	b.metrics.RecordDBQuery(op, !failed, time.Since(start).Seconds())
	if !failed {
		return err
	}
	b.logger.Error("query failed", "operation", op, "error", err)
	return errs.Store(err, op)
}

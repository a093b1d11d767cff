package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Client PostgreSQL 客户端
// 连接由 pgxpool 管理，仓储层通过 DB() 拿到 database/sql 句柄
type Client struct {
	pool *pgxpool.Pool
	db   *sql.DB
	cfg  *Config
}

// New 创建客户端并检测连通性
func New(cfg *Config) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := validateConfig(newCfg); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(buildConnString(newCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolCfg.MaxConns = newCfg.Pool.MaxConns
	poolCfg.MinConns = newCfg.Pool.MinConns
	poolCfg.MaxConnLifetime = newCfg.Pool.MaxConnLifetime
	poolCfg.MaxConnIdleTime = newCfg.Pool.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = newCfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), newCfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{
		pool: pool,
		db:   stdlib.OpenDBFromPool(pool),
		cfg:  newCfg,
	}, nil
}

// DB 返回基于连接池的 database/sql 句柄
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Stats 连接池统计
func (c *Client) Stats() *pgxpool.Stat {
	return c.pool.Stat()
}

// Close 关闭 sql 句柄与连接池
func (c *Client) Close() error {
	err := c.db.Close()
	c.pool.Close()
	return err
}

func validateConfig(cfg *Config) error {
	switch {
	case cfg.Host == "":
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	case cfg.Port <= 0 || cfg.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, cfg.Port)
	case cfg.User == "":
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	case cfg.DBName == "":
		return fmt.Errorf("%w: db_name is empty", ErrInvalidConfig)
	case cfg.Pool.MaxConns <= 0:
		return fmt.Errorf("%w: max_conns must be positive", ErrInvalidConfig)
	case cfg.Pool.MinConns < 0 || cfg.Pool.MinConns > cfg.Pool.MaxConns:
		return fmt.Errorf("%w: min_conns must be within [0, max_conns]", ErrInvalidConfig)
	}
	return nil
}

func buildConnString(cfg *Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
}

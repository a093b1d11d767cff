// Package sqlite 打开基于 modernc.org/sqlite 的嵌入式存储
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config SQLite 配置
type Config struct {
	// Path 数据库文件路径；":memory:" 或 "memory:<name>" 表示内存库
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Path:        "animeplay.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Open 打开数据库
//
// 写事务使用 BEGIN IMMEDIATE（_txlock=immediate），两个并发写事务由 SQLite
// 的写锁串行化；内存库只保留一个连接，连接池不会意外创建出第二个空库。
func Open(ctx context.Context, cfg *Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	dsn, memory := buildDSN(cfg.Path, busy)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func buildDSN(path string, busy time.Duration) (string, bool) {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")

	switch {
	case path == ":memory:":
		params.Set("mode", "memory")
		return "file::memory:?" + params.Encode(), true
	case strings.HasPrefix(path, "memory:"):
		params.Set("mode", "memory")
		params.Set("cache", "shared")
		return "file:" + strings.TrimPrefix(path, "memory:") + "?" + params.Encode(), true
	default:
		params.Add("_pragma", "journal_mode(WAL)")
		return "file:" + path + "?" + params.Encode(), false
	}
}

// Package dbx 提供仓储层共享的数据库抽象：
// *sql.DB 与 *sql.Tx 共同实现的 DBTX 接口、事务辅助函数以及方言描述。
package dbx

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
)

// DBTX *sql.DB 与 *sql.Tx 都满足此接口
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx 开启事务执行 fn，fn 返回 nil 时提交，返回错误或 panic 时回滚（panic 继续抛出）
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// Dialect 描述不同存储在 SQL 上的差异
type Dialect struct {
	// Name 同时作为 goose 方言名
	Name string
	// Placeholder squirrel 占位符格式
	Placeholder squirrel.PlaceholderFormat
	// LockSuffix 行锁后缀；SQLite 依靠 BEGIN IMMEDIATE 串行化写事务，为空
	LockSuffix string
	// TxOptions 写事务选项
	TxOptions *sql.TxOptions
}

var (
	// Postgres READ COMMITTED + SELECT ... FOR UPDATE
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: squirrel.Dollar,
		LockSuffix:  "FOR UPDATE",
		TxOptions:   &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}

	// SQLite 连接串带 _txlock=immediate，写事务开始即持有写锁
	SQLite = Dialect{
		Name:        "sqlite3",
		Placeholder: squirrel.Question,
	}
)

// Builder 返回绑定占位符格式的语句构造器
func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

// ForUpdate 为查询追加行锁后缀（方言支持时）
func (d Dialect) ForUpdate(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	if d.LockSuffix == "" {
		return b
	}
	return b.Suffix(d.LockSuffix)
}

// Package storetest 基于 SQLite 的测试存储
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/database/sqlite"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/stretchr/testify/require"
)

// New 打开已迁移的内存库，测试结束时关闭
func New(t testing.TB) *dao.Store {
	t.Helper()
	return open(t, ":memory:")
}

// NewFile 在临时目录打开 WAL 模式的文件库
//
// 连接池可以同时持有多个连接，并发写事务由 SQLite 的写锁决定先后，
// 并发场景的测试应使用它而不是 New。
func NewFile(t testing.TB) *dao.Store {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), "animeplay.db"))
}

func open(t testing.TB, path string) *dao.Store {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, &sqlite.Config{Path: path, BusyTimeout: 10 * time.Second})
	require.NoError(t, err)

	store := dao.NewStore(db, dbx.SQLite, logger.NewNoop(), nil)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// AddCharacter 直接写入一个图鉴角色
func AddCharacter(t testing.TB, store *dao.Store, id int64, name string, tier rarity.Tier) *model.Character {
	t.Helper()
	c := &model.Character{
		ID:        id,
		Name:      name,
		Series:    "Test Series",
		ImageRef:  "https://img.example/" + name + ".png",
		Tier:      tier,
		CreatedBy: 1,
		CreatedAt: time.UnixMilli(1_700_000_000_000).UTC(),
	}
	require.NoError(t, store.Characters.Create(context.Background(), store.DB(), c))
	return c
}

// Grant 直接写入持有记录（会创建统计行）
func Grant(t testing.TB, store *dao.Store, userID, characterID int64, at time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := store.Stats.Ensure(ctx, store.DB(), userID)
	require.NoError(t, err)
	require.NoError(t, store.Collections.Grant(ctx, store.DB(), userID, characterID, at))
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/clock"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/encounter"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events/eventstest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/security"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const adminID int64 = 900

type fixture struct {
	store   *dao.Store
	clock   *clock.Manual
	events  *eventstest.Memory
	hunt    *HuntService
	coll    *CollectionService
	trades  *TradeService
	daily   *DailyService
	board   *LeaderboardService
	catalog *CatalogService
}

func newFixture(t *testing.T, src rng.Source) *fixture {
	t.Helper()
	return newFixtureOn(t, src, storetest.New(t))
}

// newFixtureOn 使用指定存储构建服务，并发测试传入 storetest.NewFile
func newFixtureOn(t *testing.T, src rng.Source, store *dao.Store) *fixture {
	t.Helper()

	jwtMgr, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "service-test", Issuer: "animeplay"})
	require.NoError(t, err)

	f := &fixture{
		store:  store,
		clock:  clock.NewManual(epoch),
		events: &eventstest.Memory{},
	}
	core, err := NewCore(Deps{
		Config:    &Config{AdminIDs: []int64{adminID}},
		Store:     f.store,
		Source:    src,
		Clock:     f.clock,
		Publisher: f.events,
		Logger:    logger.NewNoop(),
	})
	require.NoError(t, err)

	f.hunt = NewHuntService(core, encounter.NewCodec(jwtMgr, 0))
	f.coll = NewCollectionService(core)
	f.trades = NewTradeService(core)
	f.daily = NewDailyService(core)
	f.board = NewLeaderboardService(core)
	f.catalog = NewCatalogService(core)
	return f
}

// join 创建统计行，使用户可以成为赠送与交易的目标
func (f *fixture) join(t *testing.T, users ...int64) {
	t.Helper()
	for _, u := range users {
		_, err := f.store.Stats.Ensure(context.Background(), f.store.DB(), u)
		require.NoError(t, err)
	}
}

func (f *fixture) owner(t *testing.T, characterID int64, users ...int64) []int64 {
	t.Helper()
	var out []int64
	for _, u := range users {
		ok, err := f.store.Collections.Owns(context.Background(), f.store.DB(), u, characterID, false)
		require.NoError(t, err)
		if ok {
			out = append(out, u)
		}
	}
	return out
}

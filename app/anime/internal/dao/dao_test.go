package dao_test

import (
	"context"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.UnixMilli(1_710_000_000_000).UTC()

func TestCharacterDAO(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()

	n, err := store.Characters.Count(ctx, store.DB())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Characters.AtOffset(ctx, store.DB(), 0)
	assert.True(t, errors.Is(err, errs.ErrEmptyCatalog))

	storetest.AddCharacter(t, store, 20, "Rem", 2)
	storetest.AddCharacter(t, store, 10, "Naruto", 1)

	c, err := store.Characters.AtOffset(ctx, store.DB(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Rem", c.Name)
	assert.Equal(t, rarity.Tier(2), c.Tier)

	c, err = store.Characters.Get(ctx, store.DB(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Naruto", c.Name)
	assert.True(t, c.CreatedAt.Equal(time.UnixMilli(1_700_000_000_000)))

	_, err = store.Characters.Get(ctx, store.DB(), 99)
	assert.True(t, errors.Is(err, errs.ErrUnknownTarget))

	list, err := store.Characters.List(ctx, store.DB(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(10), list[0].ID)
}

func TestCollectionDAO_GrantRevoke(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()
	storetest.AddCharacter(t, store, 1, "Goku", 1)

	require.NoError(t, store.Collections.Grant(ctx, store.DB(), 7, 1, t0))
	err := store.Collections.Grant(ctx, store.DB(), 7, 1, t0)
	assert.True(t, errors.Is(err, errs.ErrDuplicateOwnership))

	owned, err := store.Collections.Owns(ctx, store.DB(), 7, 1, true)
	require.NoError(t, err)
	assert.True(t, owned)

	require.NoError(t, store.Collections.Revoke(ctx, store.DB(), 7, 1))
	err = store.Collections.Revoke(ctx, store.DB(), 7, 1)
	assert.True(t, errors.Is(err, errs.ErrNotOwned))

	owned, err = store.Collections.Owns(ctx, store.DB(), 7, 1, false)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestCollectionDAO_ListOrder(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()
	storetest.AddCharacter(t, store, 1, "Common", 1)
	storetest.AddCharacter(t, store, 2, "Legend", 3)
	storetest.AddCharacter(t, store, 3, "OldRare", 2)
	storetest.AddCharacter(t, store, 4, "NewRare", 2)

	storetest.Grant(t, store, 5, 1, t0)
	storetest.Grant(t, store, 5, 2, t0)
	storetest.Grant(t, store, 5, 3, t0)
	storetest.Grant(t, store, 5, 4, t0.Add(time.Hour))

	entries, err := store.Collections.List(ctx, store.DB(), 5)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Character.Name)
	}
	assert.Equal(t, []string{"Legend", "NewRare", "OldRare", "Common"}, names)

	n, err := store.Collections.Count(ctx, store.DB(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestStatsDAO(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()

	_, err := store.Stats.Get(ctx, store.DB(), 1)
	assert.True(t, errors.Is(err, errs.ErrUnknownTarget))
	err = store.Stats.RecordHunt(ctx, store.DB(), 1, true, t0)
	assert.True(t, errors.Is(err, errs.ErrUnknownTarget))

	s, err := store.Stats.Ensure(ctx, store.DB(), 1)
	require.NoError(t, err)
	assert.True(t, s.LastHunt.IsZero())

	require.NoError(t, store.Stats.RecordHunt(ctx, store.DB(), 1, true, t0))
	require.NoError(t, store.Stats.RecordHunt(ctx, store.DB(), 1, false, t0.Add(time.Minute)))
	require.NoError(t, store.Stats.ClaimDaily(ctx, store.DB(), 1, 250, t0))

	s, err = store.Stats.Ensure(ctx, store.DB(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalHunts)
	assert.Equal(t, int64(1), s.SuccessfulHunts)
	assert.Equal(t, int64(250), s.Coins)
	assert.True(t, s.LastHunt.Equal(t0.Add(time.Minute)))
	assert.True(t, s.LastDaily.Equal(t0))
}

func TestStatsDAO_TopOrdering(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()
	storetest.AddCharacter(t, store, 100, "Luffy", 1)

	successes := map[int64]int{4: 5, 2: 5, 3: 3, 1: 8}
	for uid, n := range successes {
		_, err := store.Stats.Ensure(ctx, store.DB(), uid)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.NoError(t, store.Stats.RecordHunt(ctx, store.DB(), uid, true, t0))
		}
		require.NoError(t, store.Stats.RecordHunt(ctx, store.DB(), uid, false, t0))
	}
	require.NoError(t, store.Collections.Grant(ctx, store.DB(), 1, 100, t0))

	rows, err := store.Stats.Top(ctx, store.DB(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var order []int64
	for _, r := range rows {
		order = append(order, r.UserID)
	}
	assert.Equal(t, []int64{1, 2, 4, 3}, order)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, int64(1), rows[0].CollectionSize)
	assert.InDelta(t, 8.0/9.0, rows[0].SuccessRate, 1e-9)

	rows, err = store.Stats.Top(ctx, store.DB(), 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTradeDAO(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()
	storetest.AddCharacter(t, store, 1, "Asuka", 2)

	p := &model.TradeProposal{ID: 11, ProposerID: 5, OfferedID: 1, Status: model.TradeProposed, CreatedAt: t0}
	require.NoError(t, store.Trades.Create(ctx, store.DB(), p))
	require.NoError(t, store.Trades.Create(ctx, store.DB(), &model.TradeProposal{
		ID: 12, ProposerID: 6, CounterpartyID: 9, OfferedID: 1, Status: model.TradeProposed, CreatedAt: t0.Add(time.Hour),
	}))

	open, err := store.Trades.ListOpen(ctx, store.DB(), 8, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(11), open[0].ID)
	assert.Zero(t, open[0].RequestedID)

	// 请求的角色必须存在
	err = store.Trades.Create(ctx, store.DB(), &model.TradeProposal{
		ID: 13, ProposerID: 6, OfferedID: 1, RequestedID: 987654, Status: model.TradeProposed, CreatedAt: t0,
	})
	assert.Error(t, err)

	ids, err := store.Trades.ExpiredIDs(ctx, store.DB(), t0.Add(30*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ids)

	p.Status = model.TradeAccepted
	p.CounterpartyID = 8
	p.RequestedID = 1
	p.ResolvedAt = t0.Add(time.Minute)
	require.NoError(t, store.Trades.Resolve(ctx, store.DB(), p))

	got, err := store.Trades.Get(ctx, store.DB(), 11, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeAccepted, got.Status)
	assert.Equal(t, int64(8), got.CounterpartyID)
	assert.Equal(t, int64(1), got.RequestedID)
	assert.True(t, got.ResolvedAt.Equal(p.ResolvedAt))

	p.Status = model.TradeCancelled
	err = store.Trades.Resolve(ctx, store.DB(), p)
	assert.True(t, errors.Is(err, errs.ErrStaleProposal))

	_, err = store.Trades.Get(ctx, store.DB(), 404, true)
	assert.True(t, errors.Is(err, errs.ErrUnknownTarget))
}

func TestStore_InTx(t *testing.T) {
	store := storetest.New(t)
	ctx := context.Background()
	storetest.AddCharacter(t, store, 1, "Mikasa", 3)

	err := store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, store.Collections.Grant(ctx, tx, 3, 1, t0))
		return store.Collections.Grant(ctx, tx, 3, 1, t0)
	})
	assert.True(t, errors.Is(err, errs.ErrDuplicateOwnership))
	assert.False(t, errs.Retryable(err))

	owned, err := store.Collections.Owns(ctx, store.DB(), 3, 1, false)
	require.NoError(t, err)
	assert.False(t, owned, "rolled back")

	require.NoError(t, store.Close())
	err = store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error { return nil })
	assert.True(t, errs.Retryable(err))
}

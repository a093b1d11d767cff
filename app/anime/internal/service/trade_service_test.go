package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tradeSetup 用户 1 持有 101，用户 2 持有 202，用户 3 已加入
func tradeSetup(t *testing.T) *fixture {
	t.Helper()
	return tradeSetupOn(t, storetest.New(t))
}

func tradeSetupOn(t *testing.T, store *dao.Store) *fixture {
	t.Helper()
	f := newFixtureOn(t, rng.NewFixed(0), store)
	storetest.AddCharacter(t, f.store, 101, "Rem", 1)
	storetest.AddCharacter(t, f.store, 202, "Ram", 2)
	storetest.Grant(t, f.store, 1, 101, epoch)
	storetest.Grant(t, f.store, 2, 202, epoch)
	f.join(t, 3)
	return f
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("accept")
	require.NoError(t, err)
	assert.Equal(t, DecisionAccept, d)

	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestTrade_Accept(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)
	assert.Equal(t, model.TradeProposed, p.Status)

	open, err := f.trades.ListOpen(ctx, 2)
	require.NoError(t, err)
	require.Len(t, open, 1)

	f.clock.Advance(time.Minute)
	p, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.TradeAccepted, p.Status)
	assert.Equal(t, epoch.Add(time.Minute), p.ResolvedAt)

	assert.Equal(t, []int64{2}, f.owner(t, 101, 1, 2))
	assert.Equal(t, []int64{1}, f.owner(t, 202, 1, 2))

	_, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrStaleProposal)

	assert.Len(t, f.events.OfType(events.TradeProposed), 1)
	assert.Len(t, f.events.OfType(events.TradeResolved), 1)
}

func TestTrade_OpenProposal(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 0)
	require.NoError(t, err)

	open, err := f.trades.ListOpen(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	p, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.CounterpartyID)
	assert.EqualValues(t, 202, p.RequestedID)
}

func TestTrade_Reject(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)
	p, err = f.trades.Respond(ctx, p.ID, 2, 0, DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.TradeRejected, p.Status)
	assert.Equal(t, []int64{1}, f.owner(t, 101, 1, 2))
}

func TestTrade_RejectOpenProposal(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 0)
	require.NoError(t, err)

	// 未加入的用户不能响应公开提案
	_, err = f.trades.Respond(ctx, p.ID, 555, 987654, DecisionReject)
	require.ErrorIs(t, err, errs.ErrUnknownTarget)
	_, err = f.trades.Respond(ctx, p.ID, 555, 202, DecisionAccept)
	require.ErrorIs(t, err, errs.ErrUnknownTarget)

	cur, err := f.store.Trades.Get(ctx, f.store.DB(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeProposed, cur.Status)
	assert.Zero(t, cur.CounterpartyID)

	// 拒绝不记录请求的角色
	p, err = f.trades.Respond(ctx, p.ID, 3, 987654, DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, model.TradeRejected, p.Status)
	assert.EqualValues(t, 3, p.CounterpartyID)
	assert.Zero(t, p.RequestedID)

	cur, err = f.store.Trades.Get(ctx, f.store.DB(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeRejected, cur.Status)
	assert.Zero(t, cur.RequestedID)
}

func TestTrade_ProposeErrors(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	_, err := f.trades.Propose(ctx, 1, 202, 2)
	assert.ErrorIs(t, err, errs.ErrNotOwned)

	_, err = f.trades.Propose(ctx, 1, 101, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = f.trades.Propose(ctx, 1, 101, 99)
	assert.ErrorIs(t, err, errs.ErrUnknownTarget)

	_, err = f.trades.Propose(ctx, 1, 555, 2)
	assert.ErrorIs(t, err, errs.ErrUnknownTarget)
}

func TestTrade_RespondErrors(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)
	storetest.Grant(t, f.store, 3, 202, epoch)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)

	_, err = f.trades.Respond(ctx, p.ID, 1, 202, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrUnknownTarget, "proposer")

	_, err = f.trades.Respond(ctx, p.ID, 3, 202, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrUnknownTarget, "not addressed")

	_, err = f.trades.Respond(ctx, p.ID, 2, 101, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument, "same character")

	_, err = f.trades.Respond(ctx, p.ID, 2, 0, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = f.trades.Respond(ctx, 9999, 2, 202, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrUnknownTarget)

	cur, err := f.store.Trades.Get(ctx, f.store.DB(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeProposed, cur.Status)
}

func TestTrade_StaleOwnership(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)
	_, err = f.coll.Gift(ctx, 1, 3, 101)
	require.NoError(t, err)

	p, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	require.ErrorIs(t, err, errs.ErrStaleProposal)
	assert.Equal(t, model.TradeRejected, p.Status)

	cur, err := f.store.Trades.Get(ctx, f.store.DB(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeRejected, cur.Status)
	assert.Equal(t, []int64{2}, f.owner(t, 202, 1, 2, 3))
}

func TestTrade_WouldDuplicate(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)
	storetest.Grant(t, f.store, 2, 101, epoch)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)
	_, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	require.ErrorIs(t, err, errs.ErrDuplicateOwnership)

	cur, err := f.store.Trades.Get(ctx, f.store.DB(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeProposed, cur.Status)
}

func TestTrade_Cancel(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)

	_, err = f.trades.Cancel(ctx, p.ID, 2)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	p, err = f.trades.Cancel(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.TradeCancelled, p.Status)

	_, err = f.trades.Cancel(ctx, p.ID, 1)
	assert.ErrorIs(t, err, errs.ErrStaleProposal)

	_, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	assert.ErrorIs(t, err, errs.ErrStaleProposal)
}

func TestTrade_Expiry(t *testing.T) {
	ctx := context.Background()
	f := tradeSetup(t)

	p, err := f.trades.Propose(ctx, 1, 101, 2)
	require.NoError(t, err)
	swept, err := f.trades.Propose(ctx, 2, 202, 1)
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	open, err := f.trades.ListOpen(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, open)

	p, err = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
	require.ErrorIs(t, err, errs.ErrStaleProposal)
	assert.Equal(t, model.TradeExpired, p.Status)
	assert.Equal(t, []int64{1}, f.owner(t, 101, 1, 2))

	n, err := f.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cur, err := f.store.Trades.Get(ctx, f.store.DB(), swept.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.TradeExpired, cur.Status)

	n, err = f.trades.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTrade_ConcurrentAcceptAndGift(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		f := tradeSetupOn(t, storetest.NewFile(t))
		p, err := f.trades.Propose(ctx, 1, 101, 2)
		require.NoError(t, err)

		var (
			wg                 sync.WaitGroup
			acceptErr, giftErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = f.trades.Respond(ctx, p.ID, 2, 202, DecisionAccept)
		}()
		go func() {
			defer wg.Done()
			_, giftErr = f.coll.Gift(ctx, 1, 3, 101)
		}()
		wg.Wait()

		if acceptErr == nil {
			require.ErrorIs(t, giftErr, errs.ErrNotOwned)
			assert.Equal(t, []int64{2}, f.owner(t, 101, 1, 2, 3))
			assert.Equal(t, []int64{1}, f.owner(t, 202, 1, 2, 3))
		} else {
			require.NoError(t, giftErr)
			require.ErrorIs(t, acceptErr, errs.ErrStaleProposal)
			assert.Equal(t, []int64{3}, f.owner(t, 101, 1, 2, 3))
			assert.Equal(t, []int64{2}, f.owner(t, 202, 1, 2, 3))
		}
	}
}

package service

import (
	"context"
	"testing"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboard_Order(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.NewFixed(0))
	storetest.AddCharacter(t, f.store, 101, "Rem", 1)

	successes := map[int64]int{1: 5, 2: 5, 3: 3, 4: 8}
	for user, n := range successes {
		f.join(t, user)
		for i := 0; i < n; i++ {
			require.NoError(t, f.store.Stats.RecordHunt(ctx, f.store.DB(), user, true, epoch))
		}
	}
	storetest.Grant(t, f.store, 2, 101, epoch)

	rows, err := f.board.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var users []int64
	var counts []int64
	for i, r := range rows {
		assert.Equal(t, i+1, r.Rank)
		users = append(users, r.UserID)
		counts = append(counts, r.SuccessfulHunts)
	}
	assert.Equal(t, []int64{4, 1, 2, 3}, users)
	assert.Equal(t, []int64{8, 5, 5, 3}, counts)
	assert.EqualValues(t, 1, rows[2].CollectionSize)
	assert.InDelta(t, 1.0, rows[0].SuccessRate, 1e-9)

	rows, err = f.board.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLeaderboard_Empty(t *testing.T) {
	f := newFixture(t, rng.NewFixed(0))
	rows, err := f.board.Top(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

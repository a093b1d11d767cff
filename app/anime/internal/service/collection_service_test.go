package service

import (
	"context"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_UnknownUser(t *testing.T) {
	f := newFixture(t, rng.NewFixed(0))

	view, err := f.coll.View(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.NotNil(t, view.Entries)
	assert.EqualValues(t, 42, view.Stats.UserID)
	assert.Zero(t, view.SuccessRate)
}

func TestView_Ordering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.NewFixed(0))
	storetest.AddCharacter(t, f.store, 101, "Common A", 1)
	storetest.AddCharacter(t, f.store, 102, "Legend", 3)
	storetest.AddCharacter(t, f.store, 103, "Common B", 1)
	storetest.Grant(t, f.store, 7, 101, epoch)
	storetest.Grant(t, f.store, 7, 102, epoch)
	storetest.Grant(t, f.store, 7, 103, epoch.Add(time.Minute))

	view, err := f.coll.View(ctx, 7)
	require.NoError(t, err)
	require.Len(t, view.Entries, 3)

	var ids []int64
	for _, e := range view.Entries {
		ids = append(ids, e.Character.ID)
	}
	assert.Equal(t, []int64{102, 103, 101}, ids)
	assert.Equal(t, "Legendary", view.Entries[0].TierLabel)

	tradable, err := f.coll.Tradable(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, tradable, 3)
}

func TestGift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.NewFixed(0))
	storetest.AddCharacter(t, f.store, 101, "Rem", 1)
	storetest.Grant(t, f.store, 1, 101, epoch)
	f.join(t, 2)

	c, err := f.coll.Gift(ctx, 1, 2, 101)
	require.NoError(t, err)
	assert.EqualValues(t, 101, c.ID)
	assert.Equal(t, []int64{2}, f.owner(t, 101, 1, 2))
	assert.Len(t, f.events.OfType(events.CharacterGifted), 1)

	_, err = f.coll.Gift(ctx, 1, 2, 101)
	assert.ErrorIs(t, err, errs.ErrNotOwned)
}

func TestGift_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.NewFixed(0))
	storetest.AddCharacter(t, f.store, 101, "Rem", 1)
	storetest.Grant(t, f.store, 1, 101, epoch)
	storetest.Grant(t, f.store, 3, 101, epoch)

	tests := []struct {
		name     string
		from, to int64
		char     int64
		want     error
	}{
		{"self", 1, 1, 101, errs.ErrInvalidArgument},
		{"unknown target", 1, 99, 101, errs.ErrUnknownTarget},
		{"unknown character", 1, 3, 555, errs.ErrUnknownTarget},
		{"target already owns", 1, 3, 101, errs.ErrDuplicateOwnership},
		{"invalid target", 1, 0, 101, errs.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coll.Gift(ctx, tt.from, tt.to, tt.char)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, []int64{1, 3}, f.owner(t, 101, 1, 3))
}

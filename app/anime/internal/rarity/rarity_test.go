package rarity

import (
	"testing"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_WeightsSumTo100(t *testing.T) {
	sum := 0
	for _, e := range Default().Entries() {
		sum += e.Weight
	}
	assert.Equal(t, TotalWeight, sum)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"sum below", []Entry{{1, "Common", 50}, {2, "Rare", 30}}},
		{"duplicate tier", []Entry{{1, "Common", 50}, {1, "Rare", 50}}},
		{"zero weight", []Entry{{1, "Common", 100}, {2, "Rare", 0}}},
		{"empty label", []Entry{{1, " ", 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	tbl := Default()

	w, err := tbl.Weight(4)
	require.NoError(t, err)
	assert.Equal(t, 5, w)
	assert.Equal(t, "Ultra Rare", tbl.Label(4))

	_, err = tbl.Weight(9)
	assert.True(t, errors.Is(err, errs.ErrInvalidTier))
	assert.Equal(t, "Tier 9", tbl.Label(9))
}

func TestForRoll_Boundaries(t *testing.T) {
	tbl := Default()
	cases := map[int]Tier{1: 1, 50: 1, 51: 2, 80: 2, 81: 3, 95: 3, 96: 4, 100: 4}
	for roll, want := range cases {
		assert.Equal(t, want, tbl.ForRoll(roll), "roll %d", roll)
	}
}

func TestRoll_Range(t *testing.T) {
	src := rng.NewFixed(0, 99, 100)
	assert.Equal(t, 1, Roll(src))
	assert.Equal(t, 100, Roll(src))
	assert.Equal(t, 1, Roll(src))
}

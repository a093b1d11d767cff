package encounter

import (
	"math"
	"testing"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/MAKORA-ltd/anime-play/pkg/security"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_EmptyCatalog(t *testing.T) {
	s := NewSelector(rarity.Default(), rng.NewSeeded(1))
	_, _, err := s.Pick(0)
	assert.True(t, errors.Is(err, errs.ErrEmptyCatalog))
}

func TestSelector_Pick(t *testing.T) {
	// 第一次取下标，第二次掷骰：roll = 96 + 1 落在 Ultra Rare
	s := NewSelector(rarity.Default(), rng.NewFixed(2, 96))
	idx, tier, err := s.Pick(5)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, rarity.Tier(4), tier)
}

func TestSelector_UniformIndex(t *testing.T) {
	s := NewSelector(rarity.Default(), rng.NewSeeded(7))
	counts := make([]int, 4)
	for i := 0; i < 40_000; i++ {
		idx, _, err := s.Pick(4)
		require.NoError(t, err)
		counts[idx]++
	}
	for _, c := range counts {
		assert.InDelta(t, 10_000, c, 500)
	}
}

func TestSelector_TierDistribution(t *testing.T) {
	const draws = 100_000
	tbl := rarity.Default()
	s := NewSelector(tbl, rng.NewSeeded(20240601))

	counts := make(map[rarity.Tier]int)
	for i := 0; i < draws; i++ {
		_, tier, err := s.Pick(10)
		require.NoError(t, err)
		counts[tier]++
	}

	for _, e := range tbl.Entries() {
		p := float64(e.Weight) / rarity.TotalWeight
		// 5 个标准差以内
		tolerance := 5 * math.Sqrt(draws*p*(1-p))
		assert.InDelta(t, draws*p, float64(counts[e.Tier]), tolerance, "tier %s", e.Label)
	}
}

func newCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: secret})
	require.NoError(t, err)
	return NewCodec(m, time.Minute)
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newCodec(t, "encounter-secret")
	in := Encounter{UserID: 42, CharacterID: 1_234_567_890_123, Tier: 3, At: time.UnixMilli(1_700_000_000_123).UTC()}

	token, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.CharacterID, out.CharacterID)
	assert.Equal(t, in.Tier, out.Tier)
	assert.True(t, in.At.Equal(out.At))
}

func TestCodec_Rejects(t *testing.T) {
	c := newCodec(t, "encounter-secret")
	token, err := c.Encode(Encounter{UserID: 1, CharacterID: 2, Tier: 1, At: time.Now()})
	require.NoError(t, err)

	_, err = newCodec(t, "other-secret").Decode(token)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	_, err = c.Decode("garbage")
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "encounter-secret"})
	require.NoError(t, err)
	session, err := m.GenerateWithTTL("42", map[string]any{"uid": 42}, time.Minute)
	require.NoError(t, err)
	_, err = c.Decode(session)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}

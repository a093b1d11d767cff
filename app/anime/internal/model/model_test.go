package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMillis(t *testing.T) {
	assert.Equal(t, int64(0), Millis(time.Time{}))
	assert.True(t, FromMillis(0).IsZero())

	now := time.UnixMilli(1_712_345_678_901).UTC()
	assert.True(t, now.Equal(FromMillis(Millis(now))))
}

func TestSuccessRate(t *testing.T) {
	assert.Zero(t, (&UserStats{}).SuccessRate())
	assert.InDelta(t, 0.25, (&UserStats{TotalHunts: 4, SuccessfulHunts: 1}).SuccessRate(), 1e-9)
}

func TestTradeProposal_ExpiredAt(t *testing.T) {
	created := time.UnixMilli(1_000_000).UTC()
	p := &TradeProposal{CreatedAt: created}

	assert.False(t, p.ExpiredAt(created.Add(time.Hour), 24*time.Hour))
	assert.True(t, p.ExpiredAt(created.Add(24*time.Hour), 24*time.Hour))
	assert.False(t, p.ExpiredAt(created.Add(100*time.Hour), 0))
	assert.True(t, TradeExpired.Terminal())
	assert.False(t, TradeProposed.Terminal())
}

package sliding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_Stats(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w, err := NewWindow(&WindowConfig{Enabled: true, WindowSize: 10 * time.Second, BucketCount: 10},
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	w.Record(0.010, true)
	w.Record(0.030, false)
	now = now.Add(3 * time.Second)
	w.Record(0.020, true)

	s := w.GetStats()
	assert.Equal(t, int64(3), s.TotalCount)
	assert.Equal(t, int64(2), s.SuccessCount)
	assert.Equal(t, int64(1), s.FailureCount)
	assert.InDelta(t, 0.3, s.QPS, 1e-9)
	assert.InDelta(t, 0.020, s.AvgLatency, 1e-9)
	assert.InDelta(t, 0.010, s.MinLatency, 1e-9)
	assert.InDelta(t, 0.030, s.MaxLatency, 1e-9)

	// 首批记录滑出窗口
	now = now.Add(8 * time.Second)
	s = w.GetStats()
	assert.Equal(t, int64(1), s.TotalCount)
	assert.InDelta(t, 100, s.SuccessRate, 1e-9)

	now = now.Add(time.Minute)
	assert.Zero(t, w.GetStats().TotalCount)
}

func TestWindow_Disabled(t *testing.T) {
	w, err := NewWindow(&WindowConfig{WindowSize: time.Second, BucketCount: 1})
	require.NoError(t, err)
	w.config.Enabled = false
	w.Record(1, true)
	assert.Zero(t, w.GetStats().TotalCount)
}

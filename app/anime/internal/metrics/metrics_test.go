package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	m, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.RecordOperation("hunt", "ok", 5*time.Millisecond)
	m.RecordOperation("hunt", "cooldown_active", time.Millisecond)
	m.RecordOperation("gift", "store_unavailable", time.Millisecond)
	m.RecordDBQuery("select", true, 0.001)
	m.HuntTotal.WithLabelValues("encounter").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationTotal.WithLabelValues("hunt", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("select", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HuntTotal.WithLabelValues("encounter")))

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats.TotalOps)
	assert.InDelta(t, 200.0/3, stats.SuccessRate, 1e-6)

	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())
}

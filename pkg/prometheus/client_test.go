package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Namespace: "x", HTTPServer: HTTPServerConfig{Enabled: true}}).Validate(), ErrInvalidConfig)

	cfg := &Config{Namespace: "x"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.HTTPServer.Path)
}

func TestClient_Handler(t *testing.T) {
	c, err := New(&Config{Namespace: "animeplay"}, nil)
	require.NoError(t, err)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: c.Namespace(),
		Name:      "test_total",
		Help:      "test counter",
	})
	c.Registry().MustRegister(counter)
	counter.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "animeplay_test_total 1")

	// 未启用独立端口时 Start/Stop 为空操作
	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
}

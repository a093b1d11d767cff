package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "empty host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "empty user", mutate: func(c *Config) { c.User = "" }, wantErr: true},
		{name: "empty db", mutate: func(c *Config) { c.DBName = "" }, wantErr: true},
		{name: "zero max conns", mutate: func(c *Config) { c.Pool.MaxConns = 0 }, wantErr: true},
		{name: "min over max", mutate: func(c *Config) { c.Pool.MinConns = 30 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildConnString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	cfg.ConnectTimeout = 5 * time.Second

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=animeplay sslmode=disable connect_timeout=5",
		buildConnString(cfg),
	)
}

// 需要本地 PostgreSQL，通过 ANIMEPLAY_TEST_PG_HOST 启用
func TestNew_Integration(t *testing.T) {
	host := os.Getenv("ANIMEPLAY_TEST_PG_HOST")
	if testing.Short() || host == "" {
		t.Skip("skipping postgres integration test")
	}

	c, err := New(&Config{Host: host, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.DB().PingContext(context.Background()))
	assert.Positive(t, c.Stats().MaxConns())
}

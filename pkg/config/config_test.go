package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolConfig struct {
	MaxConns int           `mapstructure:"max_conns" validate:"min=1"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type testConfig struct {
	Driver string            `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	Admins []int64           `mapstructure:"admins"`
	Labels map[string]string `mapstructure:"labels"`
	Pool   poolConfig        `mapstructure:"pool"`
	Extra  *poolConfig       `mapstructure:"extra"`
}

func TestMergeConfig(t *testing.T) {
	dst := &testConfig{
		Driver: "sqlite",
		Admins: []int64{1},
		Labels: map[string]string{"a": "1"},
		Pool:   poolConfig{MaxConns: 10, Timeout: time.Second},
	}
	src := &testConfig{
		Admins: []int64{7, 8},
		Labels: map[string]string{"b": "2"},
		Pool:   poolConfig{MaxConns: 3},
		Extra:  &poolConfig{MaxConns: 2},
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", got.Driver, "zero values do not override")
	assert.Equal(t, []int64{7, 8}, got.Admins, "slices are replaced")
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got.Labels)
	assert.Equal(t, 3, got.Pool.MaxConns)
	assert.Equal(t, time.Second, got.Pool.Timeout)
	require.NotNil(t, got.Extra)
	assert.Equal(t, 2, got.Extra.MaxConns)
}

func TestMergeConfig_Nil(t *testing.T) {
	_, err := MergeConfig[testConfig](nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	src := &testConfig{Driver: "postgres"}
	got, err := MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)

	dst := &testConfig{Driver: "sqlite"}
	got, err = MergeConfig(dst, nil)
	require.NoError(t, err)
	assert.Same(t, dst, got)
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&testConfig{Driver: "sqlite", Pool: poolConfig{MaxConns: 1}})
	assert.NoError(t, err)

	err = v.Validate(&testConfig{Driver: "mysql", Pool: poolConfig{MaxConns: 1}})
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "must be one of")

	err = v.Validate(&testConfig{Driver: "sqlite"})
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "at least 1")

	assert.ErrorIs(t, v.Validate(nil), ErrNilConfig)
}

func TestManager_LoadAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: sqlite
admins: [1, 2]
pool:
  max_conns: 4
  timeout: 2s
`), 0o600))

	t.Setenv("CFGTEST_DRIVER", "postgres")

	m := NewManager(WithDefaults(map[string]any{"pool.max_conns": 1}))
	m.BindEnv("CFGTEST")
	require.NoError(t, m.LoadFile(path))

	var cfg testConfig
	require.NoError(t, m.Unmarshal(&cfg))
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, []int64{1, 2}, cfg.Admins)
	assert.Equal(t, 4, cfg.Pool.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Pool.Timeout)

	var pool poolConfig
	require.NoError(t, m.UnmarshalKey("pool", &pool))
	assert.Equal(t, 4, pool.MaxConns)

	m.Set("driver", "sqlite")
	assert.Equal(t, "sqlite", m.GetString("driver"))
	assert.True(t, m.IsSet("pool.timeout"))
}

func TestManager_LoadMissingFile(t *testing.T) {
	m := NewManager()
	err := m.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/app"
	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleConfigLoads(t *testing.T) {
	var cfg Config
	_, err := app.LoadConfigFrom("config.yaml", &cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Len(t, cfg.Rarity, 4)
	assert.Equal(t, 100, cfg.Rarity[0].Weight+cfg.Rarity[1].Weight+cfg.Rarity[2].Weight+cfg.Rarity[3].Weight)

	table, err := provideRarityTable(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "Ultra Rare", table.Label(4))

	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Sentry.Enabled())
	assert.Equal(t, "30s", cfg.Jobs.LockTTL.String())
}

func TestReloadLogLevel(t *testing.T) {
	l, err := logger.New(&logger.Config{Level: logger.InfoLevel, EnableConsole: true})
	require.NoError(t, err)

	mgr := config.NewManager()
	mgr.Set("log.level", "debug")
	reloadLogLevel(mgr, l)
	assert.Equal(t, logger.DebugLevel, l.Level())

	mgr.Set("log.level", "verbose")
	reloadLogLevel(mgr, l)
	assert.Equal(t, logger.DebugLevel, l.Level())
}

func TestOptionalIntegrationsDisabled(t *testing.T) {
	cfg := &Config{}
	rdb, err := provideRedis(cfg, logger.NewNoop())
	require.NoError(t, err)
	assert.Nil(t, rdb)

	reporter, err := provideSentry(cfg)
	require.NoError(t, err)
	assert.Nil(t, reporter)

	cfg.Sentry.DSN = "https://public@sentry.example.com/1"
	reporter, err = provideSentry(cfg)
	require.NoError(t, err)
	require.NotNil(t, reporter)
	assert.Equal(t, app.Version, cfg.Sentry.Release)
	require.NoError(t, reporter.Close())
}

func TestProvideEncounterCodec_DistinctSecret(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.SecretKey = "same"
	cfg.EncounterJWT.SecretKey = "same"
	_, err := provideEncounterCodec(cfg, service.DefaultConfig())
	assert.Error(t, err)

	cfg.EncounterJWT.SecretKey = "other"
	codec, err := provideEncounterCodec(cfg, service.DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, codec)
}

func TestProvideDatabase(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "mysql"
	_, err := provideDatabase(cfg)
	assert.Error(t, err)

	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "engine.db")
	cfg.Database.AutoMigrate = true
	d, err := provideDatabase(cfg)
	require.NoError(t, err)
	defer d.closer.Close()

	store, err := provideStore(cfg, d, nil, logger.NewNoop())
	require.NoError(t, err)
	require.NoError(t, store.Ping(t.Context()))
}

func TestSeedCatalog_RequiresAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("characters: []\n"), 0o600))

	cfg := &Config{SeedFile: path}
	err := seedCatalog(cfg, nil, logger.NewNoop())
	assert.Error(t, err)
}

package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/dao/storetest"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
characters:
  - name: Rem
    series: "Re:Zero"
    image_ref: https://img.example/rem.png
    tier: 2
  - name: Gojo Satoru
    series: Jujutsu Kaisen
    tier: 4
`

func newCatalog(t *testing.T) *service.CatalogService {
	t.Helper()
	core, err := service.NewCore(service.Deps{
		Config: &service.Config{AdminIDs: []int64{1}},
		Store:  storetest.New(t),
		Logger: logger.NewNoop(),
	})
	require.NoError(t, err)
	return service.NewCatalogService(core)
}

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Characters, 2)
	assert.Equal(t, "Re:Zero", f.Characters[0].Series)
	assert.EqualValues(t, 4, f.Characters[1].Tier)

	_, err = Parse(strings.NewReader("characters:\n  - nmae: typo\n"))
	assert.Error(t, err)

	f, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Characters)
}

func TestLoadFile_Idempotent(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	res, err := LoadFile(ctx, path, catalog, 1, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Len(t, res.Checksum, 8)
	first := res.Checksum

	res, err = LoadFile(ctx, path, catalog, 1, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 2, Checksum: first}, res)

	list, err := catalog.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestApply_InvalidTier(t *testing.T) {
	f := &File{Characters: []service.NewCharacter{{Name: "Nobody", Tier: 7}}}
	_, err := Apply(context.Background(), f, newCatalog(t), 1, logger.NewNoop())
	assert.ErrorIs(t, err, errs.ErrInvalidTier)
}

func TestApply_NotAdmin(t *testing.T) {
	f := &File{Characters: []service.NewCharacter{{Name: "Rem", Tier: 2}}}
	_, err := Apply(context.Background(), f, newCatalog(t), 2, logger.NewNoop())
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

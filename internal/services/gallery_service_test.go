package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/providers"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGallery_MergesDatabaseAndFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := providers.NewLocalImageStore(root)
	repo := &fakeImageRepo{}

	indexed := filepath.Join(root, "Flux_Pro", "red_fox_1700000000.png")
	stray := filepath.Join(root, "Imagen_3", "blue_sky_1700000100.png")
	for _, p := range []string{indexed, stray} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := time.Unix(1600000000, 0)
	require.NoError(t, os.Chtimes(stray, old, old))

	require.NoError(t, repo.Save(ctx, domain.ImageEntity{
		ImageID:   "img-1",
		UserID:    domain.AnonymousUserID,
		FilePath:  indexed,
		Prompt:    "red fox",
		ModelName: "Flux Pro",
		CreatedAt: time.Unix(1700000000, 0),
	}))

	svc := NewGalleryService(repo, store, nil)
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "img-1", items[0].ImageID)
	assert.True(t, items[0].Indexed)

	assert.False(t, items[1].Indexed)
	assert.Equal(t, "Imagen 3", items[1].ModelName)
	assert.Equal(t, "blue sky", items[1].Prompt)
	assert.NotEmpty(t, items[1].ImageID)

	got, err := svc.Get(ctx, items[1].ImageID)
	require.NoError(t, err)
	assert.Equal(t, stray, got.FilePath)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGallery_MissingOutputDir(t *testing.T) {
	svc := NewGalleryService(nil, providers.NewLocalImageStore(filepath.Join(t.TempDir(), "absent")), nil)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

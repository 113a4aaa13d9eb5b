package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUsername_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewUserService(repository.NewUserRepository(db), nil, nil)

	_, err = svc.SetUsername(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyUsername)

	first, err := svc.SetUsername(ctx, " ada ")
	require.NoError(t, err)
	assert.Equal(t, "ada", first.Username)
	assert.NotEqual(t, domain.AnonymousUserID, first.UserID)

	again, err := svc.SetUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, again.UserID)

	anon, err := svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.AnonymousUsername, anon.Username)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

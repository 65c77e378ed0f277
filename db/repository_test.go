package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/habedi/rentdesk/db"
	"github.com/stretchr/testify/require"
)

func TestSlotRepositoryRoundTrip(t *testing.T) {
	temp := t.TempDir()
	db.Path = filepath.Join(temp, "rentdesk.db")
	require.NoError(t, db.InitDB())
	t.Cleanup(func() { _ = db.CloseDB() })

	repo := db.NewSlotRepository(db.GetDB())
	ctx := context.Background()

	// Initially empty
	v, err := repo.Get(ctx, db.SlotAccessToken)
	require.NoError(t, err)
	require.Empty(t, v)

	// Set
	require.NoError(t, repo.Set(ctx, db.SlotAccessToken, "a"))
	require.NoError(t, repo.Set(ctx, db.SlotRefreshToken, "r"))
	require.NoError(t, repo.Set(ctx, db.SlotUsername, "alice"))

	// Overwrite
	require.NoError(t, repo.Set(ctx, db.SlotAccessToken, "a2"))
	v, err = repo.Get(ctx, db.SlotAccessToken)
	require.NoError(t, err)
	require.Equal(t, "a2", v)

	// All
	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"access": "a2", "refresh": "r", "username": "alice"}, all)

	// Delete
	require.NoError(t, repo.Delete(ctx, db.SessionSlots...))
	all, err = repo.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSlotRepositoryPersistsAcrossReopen(t *testing.T) {
	db.Path = filepath.Join(t.TempDir(), "rentdesk.db")
	require.NoError(t, db.InitDB())
	ctx := context.Background()
	require.NoError(t, db.NewSlotRepository(db.GetDB()).Set(ctx, db.SlotRefreshToken, "keep-me"))
	require.NoError(t, db.CloseDB())

	require.NoError(t, db.InitDB())
	t.Cleanup(func() { _ = db.CloseDB() })
	v, err := db.NewSlotRepository(db.GetDB()).Get(ctx, db.SlotRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "keep-me", v)
}

func TestSlotRepositoryNilDB(t *testing.T) {
	repo := db.NewSlotRepository(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, db.SlotAccessToken)
	require.Error(t, err)
	require.Error(t, repo.Set(ctx, db.SlotAccessToken, "x"))
	require.Error(t, repo.Delete(ctx, db.SlotAccessToken))
	_, err = repo.All(ctx)
	require.Error(t, err)
}

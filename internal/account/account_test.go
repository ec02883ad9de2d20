package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/maratona/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "acct.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(sqlDB, db.Migrations("")))
	return NewStore(sqlDB)
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.Create(ctx, " mario_rossi ", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "mario_rossi", u.Username)
	assert.Len(t, u.ID, 22)

	_, err = s.Create(ctx, "MARIO_ROSSI", "anothersecret")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := s.FindByUsername(ctx, "Mario_Rossi")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, CheckPassword(got.PasswordHash, "supersecret"))
	assert.False(t, CheckPassword(got.PasswordHash, "wrong-password"))

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	s := newStore(t)
	_, err := s.Create(context.Background(), "ab", "supersecret")
	assert.Error(t, err)
	_, err = s.Create(context.Background(), "bad name", "supersecret")
	assert.Error(t, err)
	_, err = s.Create(context.Background(), "goodname", "short")
	assert.Error(t, err)
}

func TestClaimPlayer(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u1, err := s.Create(ctx, "player_one", "supersecret")
	require.NoError(t, err)
	u2, err := s.Create(ctx, "player_two", "supersecret")
	require.NoError(t, err)

	require.NoError(t, s.ClaimPlayer(ctx, u1.ID, "pid-1"))
	require.NoError(t, s.ClaimPlayer(ctx, u1.ID, "pid-1"))
	require.NoError(t, s.ClaimPlayer(ctx, u1.ID, "pid-2"))
	assert.ErrorIs(t, s.ClaimPlayer(ctx, u2.ID, "pid-1"), ErrPlayerClaimed)
	assert.Error(t, s.ClaimPlayer(ctx, u2.ID, "  "))

	ids, err := s.PlayerIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pid-1", "pid-2"}, ids)

	ids, err = s.PlayerIDs(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.CurrentUserEmail(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetCurrentUserEmail(ctx, "a@b.com"))
	email, ok, err := s.CurrentUserEmail(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", email)

	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.CurrentUserEmail(ctx)
	assert.False(t, ok)
}

func TestFileStore_RoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	require.NoError(t, NewFileStore(path).SetCurrentUserEmail(ctx, "a@b.com"))

	email, ok, err := NewFileStore(path).CurrentUserEmail(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", email)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_MissingFileIsSignedOut(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	_, ok, err := s.CurrentUserEmail(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Clear(context.Background()), "clearing an absent session is fine")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok, err := NewFileStore(path).CurrentUserEmail(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.SetCurrentUserEmail(ctx, "a@b.com"))

	require.NoError(t, s.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRequestStore(t *testing.T) {
	s := NewRequestStore()

	_, ok, err := s.CurrentUserEmail(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	ctx := WithEmail(context.Background(), "a@b.com")
	email, ok, err := s.CurrentUserEmail(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", email)

	_, ok, _ = s.CurrentUserEmail(WithEmail(context.Background(), ""))
	assert.False(t, ok, "an empty email is not a session")

	assert.ErrorIs(t, s.SetCurrentUserEmail(ctx, "x@y.com"), ErrReadOnly)
	assert.ErrorIs(t, s.Clear(ctx), ErrReadOnly)
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catchat/chat/identity"
)

func openTemp(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateThenLogIn(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rec, err := identity.NewPasswordRecord([]byte("hunter2"))
	require.NoError(t, err)

	user, created, err := s.CreateUser(ctx, "alice", rec)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "alice", user.Name)

	user, ok, err := s.LogIn(ctx, "alice", []byte("hunter2"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", user.Name)

	_, ok, err = s.LogIn(ctx, "alice", []byte("wrong"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateUserDuplicate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rec, err := identity.NewPasswordRecord([]byte("pw"))
	require.NoError(t, err)

	_, created, err := s.CreateUser(ctx, "bob", rec)
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = s.CreateUser(ctx, "bob", rec)
	require.NoError(t, err)
	require.False(t, created)
}

func TestUserFromUsernameUnknown(t *testing.T) {
	s := openTemp(t)
	_, ok, err := s.UserFromUsername(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := Open(path)
	require.NoError(t, err)

	rec, err := identity.NewPasswordRecord([]byte("pw"))
	require.NoError(t, err)
	_, _, err = s.CreateUser(context.Background(), "dana", rec)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, err := reopened.UserFromUsername(context.Background(), "dana")
	require.NoError(t, err)
	require.True(t, ok)
}

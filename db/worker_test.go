package db

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catchat/chat/identity"
)

// memStore is a trivial in-memory DataBase for exercising Worker
// without a real store implementation.
type memStore struct {
	mu    sync.Mutex
	users map[string]identity.PasswordRecord
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]identity.PasswordRecord)}
}

func (s *memStore) LogIn(_ context.Context, name string, password []byte) (identity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[name]
	if !ok || !rec.Verify(password) {
		return identity.User{}, false, nil
	}
	return identity.User{Name: name}, true, nil
}

func (s *memStore) CreateUser(_ context.Context, name string, record identity.PasswordRecord) (identity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[name]; ok {
		return identity.User{}, false, nil
	}
	s.users[name] = record
	return identity.User{Name: name}, true, nil
}

func (s *memStore) UserFromUsername(_ context.Context, name string) (identity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[name]
	return identity.User{Name: name}, ok, nil
}

type noopLogger struct{}

func (noopLogger) Fatal(args ...interface{})                 {}
func (noopLogger) Fatalf(format string, args ...interface{}) {}
func (noopLogger) Error(args ...interface{})                 {}
func (noopLogger) Errorf(format string, args ...interface{}) {}
func (noopLogger) Warn(args ...interface{})                  {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Info(args ...interface{})                  {}
func (noopLogger) Infof(format string, args ...interface{})  {}

func TestWorkerCreateThenLogIn(t *testing.T) {
	w := NewWorker(newMemStore(), noopLogger{})
	defer w.Shutdown()

	rec, err := identity.NewPasswordRecord([]byte("hunter2"))
	require.NoError(t, err)

	ev := CreateUserEvent("alice", rec)
	require.NoError(t, w.Submit(ev))
	user, created, err := ev.Await(context.Background())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "alice", user.Name)

	loginEv := LogInEvent("alice", []byte("hunter2"))
	require.NoError(t, w.Submit(loginEv))
	user, ok, err := loginEv.Await(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", user.Name)
}

func TestWorkerCreateDuplicateFails(t *testing.T) {
	w := NewWorker(newMemStore(), noopLogger{})
	defer w.Shutdown()

	rec, err := identity.NewPasswordRecord([]byte("pw"))
	require.NoError(t, err)

	first := CreateUserEvent("bob", rec)
	require.NoError(t, w.Submit(first))
	_, created, err := first.Await(context.Background())
	require.NoError(t, err)
	require.True(t, created)

	second := CreateUserEvent("bob", rec)
	require.NoError(t, w.Submit(second))
	_, created, err = second.Await(context.Background())
	require.NoError(t, err)
	require.False(t, created)
}

func TestWorkerLogInWrongPassword(t *testing.T) {
	w := NewWorker(newMemStore(), noopLogger{})
	defer w.Shutdown()

	rec, err := identity.NewPasswordRecord([]byte("correct"))
	require.NoError(t, err)
	createEv := CreateUserEvent("carol", rec)
	require.NoError(t, w.Submit(createEv))
	_, _, err = createEv.Await(context.Background())
	require.NoError(t, err)

	loginEv := LogInEvent("carol", []byte("wrong"))
	require.NoError(t, w.Submit(loginEv))
	_, ok, err := loginEv.Await(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

package login

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catchat/chat/identity"
	"github.com/catchat/chat/serialize"
	"github.com/catchat/chat/wire"
)

func pairedStreams(t *testing.T, n int) (*wire.BlockStream, *wire.BlockStream) {
	t.Helper()
	a, b := net.Pipe()

	type result struct {
		bs  *wire.BlockStream
		err error
	}
	chA := make(chan result, 1)
	chB := make(chan result, 1)
	go func() { bs, err := wire.New(a, n); chA <- result{bs, err} }()
	go func() { bs, err := wire.New(b, n); chB <- result{bs, err} }()
	ra := <-chA
	rb := <-chB
	require.NoError(t, ra.err)
	require.NoError(t, rb.err)
	return ra.bs, rb.bs
}

func TestLoginSuccess(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		require.True(t, newUser)
		require.Equal(t, "alice", username)
		require.Equal(t, []byte("hunter2"), password)
		return identity.User{Name: username}, true, "", nil
	}

	type loginResult struct {
		user identity.User
		err  error
	}
	serverCh := make(chan loginResult, 1)
	go func() {
		u, err := ServerLogin(server, verify)
		serverCh <- loginResult{u, err}
	}()

	user, err := ClientLogin(client, true, "alice", []byte("hunter2"))
	require.NoError(t, err)
	require.Equal(t, "alice", user.Name)

	sr := <-serverCh
	require.NoError(t, sr.err)
	require.Equal(t, "alice", sr.user.Name)
}

func TestLoginRejectedCredentials(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		return identity.User{}, false, "invalid credentials", nil
	}

	type loginResult struct {
		user identity.User
		err  error
	}
	serverCh := make(chan loginResult, 1)
	go func() {
		u, err := ServerLogin(server, verify)
		serverCh <- loginResult{u, err}
	}()

	_, err := ClientLogin(client, false, "bob", []byte("wrong"))
	require.Error(t, err)

	sr := <-serverCh
	require.Error(t, sr.err)
}

func TestLoginRejectsEmptyUsername(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		t.Fatal("verify must not be reached for an empty username")
		return identity.User{}, false, "", nil
	}

	serverErrCh := make(chan error, 1)
	go func() {
		_, err := ServerLogin(server, verify)
		serverErrCh <- err
	}()

	_, err := ClientLogin(client, false, "", []byte("pw"))
	require.Error(t, err)
	require.Error(t, <-serverErrCh)
}

// readPasswordOrReject is the ack step spec.md §6's step table pins as
// the database comparison itself for an existing-user login: these two
// tests exercise it directly, independent of ServerLogin's final
// verdict, to pin the failure to that exact step.

func TestReadPasswordOrRejectExistingModeSuccess(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		require.False(t, newUser)
		require.Equal(t, "carol", username)
		require.Equal(t, []byte("right"), password)
		return identity.User{Name: username}, true, "", nil
	}

	type res struct {
		user     identity.User
		verified bool
		err      error
	}
	resCh := make(chan res, 1)
	go func() {
		_, user, verified, err := readPasswordOrReject(server, false, "carol", verify)
		resCh <- res{user, verified, err}
	}()

	require.NoError(t, wire.WriteBlock[[]byte](client, serialize.NewByteSliceSerializer([]byte("right"))))
	ok, err := readAck(client)
	require.NoError(t, err)
	require.True(t, ok)

	r := <-resCh
	require.NoError(t, r.err)
	require.True(t, r.verified)
	require.Equal(t, "carol", r.user.Name)
}

func TestReadPasswordOrRejectExistingModeFailure(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		require.False(t, newUser)
		return identity.User{}, false, "invalid credentials", nil
	}

	type res struct {
		verified bool
		err      error
	}
	resCh := make(chan res, 1)
	go func() {
		_, _, verified, err := readPasswordOrReject(server, false, "dave", verify)
		resCh <- res{verified, err}
	}()

	require.NoError(t, wire.WriteBlock[[]byte](client, serialize.NewByteSliceSerializer([]byte("wrong"))))
	ok, err := readAck(client)
	require.NoError(t, err)
	require.False(t, ok, "an unknown/wrong-password existing-mode login must be Err at the password ack, not deferred to the final verdict")
	reason, err := readReason(client)
	require.NoError(t, err)
	require.Equal(t, "invalid credentials", reason)

	r := <-resCh
	require.Error(t, r.err)
	require.False(t, r.verified)
}

func TestLoginNewUserDuplicateRejectedAtFinalVerdict(t *testing.T) {
	client, server := pairedStreams(t, 1024)
	defer client.Close()
	defer server.Close()

	verify := func(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
		require.True(t, newUser)
		return identity.User{}, false, "username already taken", nil
	}

	serverErrCh := make(chan error, 1)
	go func() {
		_, err := ServerLogin(server, verify)
		serverErrCh <- err
	}()

	_, err := ClientLogin(client, true, "erin", []byte("pw"))
	require.ErrorContains(t, err, "username already taken")
	require.ErrorContains(t, <-serverErrCh, "username already taken")
}

// Package chaterr is the error taxonomy of spec.md §7: each layer wraps
// the error of the step that failed in a kind-tagged struct naming that
// step, in the style of the teacher's client2/connection.go
// (ConnectError, PKIError, ProtocolError).
package chaterr

import "fmt"

// NetworkError wraps a socket I/O failure. Fatal to the enclosing
// BlockStream.
type NetworkError struct {
	Step string
	Err  error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("chat: network error during %s: %v", e.Step, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

func Network(step string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Step: step, Err: err}
}

// CryptoError wraps an AEAD encrypt/decrypt failure. Fatal to the
// enclosing BlockStream; must never carry partial plaintext or key
// material in its message.
type CryptoError struct {
	Step string
	Err  error
}

func (e *CryptoError) Error() string { return fmt.Sprintf("chat: crypto error during %s: %v", e.Step, e.Err) }
func (e *CryptoError) Unwrap() error { return e.Err }

func Encrypt(err error) error {
	if err == nil {
		return nil
	}
	return &CryptoError{Step: "encrypt", Err: err}
}

func Decrypt(err error) error {
	if err == nil {
		return nil
	}
	return &CryptoError{Step: "decrypt", Err: err}
}

// FramingError wraps a malformed block header or deserializer
// rejection. Fatal to the enclosing BlockStream.
type FramingError struct {
	Step string
	Err  error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("chat: framing error during %s: %v", e.Step, e.Err)
}
func (e *FramingError) Unwrap() error { return e.Err }

func Update(err error) error {
	if err == nil {
		return nil
	}
	return &FramingError{Step: "update", Err: err}
}

func Finalize(err error) error {
	if err == nil {
		return nil
	}
	return &FramingError{Step: "finalize", Err: err}
}

func Header(err error) error {
	if err == nil {
		return nil
	}
	return &FramingError{Step: "header", Err: err}
}

// CredentialError wraps a login-step failure: invalid username
// encoding, invalid password, name already taken, invalid credentials.
// Reported to the peer as a negative ack plus a reason block; closes
// the one connection, never propagates to the broker or db worker.
type CredentialError struct {
	Step string // "First", "Name", or "Password", per spec.md §7
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("chat: login failed at %s: %v", e.Step, e.Err)
}
func (e *CredentialError) Unwrap() error { return e.Err }

func First(err error) error {
	if err == nil {
		return nil
	}
	return &CredentialError{Step: "First", Err: err}
}

func Name(err error) error {
	if err == nil {
		return nil
	}
	return &CredentialError{Step: "Name", Err: err}
}

func Password(err error) error {
	if err == nil {
		return nil
	}
	return &CredentialError{Step: "Password", Err: err}
}

// ChannelError signals cooperative teardown (sender dropped, receiver
// canceled): not logged as an error unless it was unexpected.
type ChannelError struct {
	Step string // "Send" or "Receive"
	Err  error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("chat: channel %s: %v", e.Step, e.Err)
}
func (e *ChannelError) Unwrap() error { return e.Err }

func ChannelSend(err error) error {
	if err == nil {
		return nil
	}
	return &ChannelError{Step: "Send", Err: err}
}

func ChannelReceive(err error) error {
	if err == nil {
		return nil
	}
	return &ChannelError{Step: "Receive", Err: err}
}

// ConnectionError wraps the named-step errors the connection task's two
// arms produce (spec.md §7: ReadUser, ReadMessage, Write).
type ConnectionError struct {
	Step string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("chat: connection %s: %v", e.Step, e.Err)
}
func (e *ConnectionError) Unwrap() error { return e.Err }

func ReadUser(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectionError{Step: "ReadUser", Err: err}
}

func ReadMessage(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectionError{Step: "ReadMessage", Err: err}
}

func Write(err error) error {
	if err == nil {
		return nil
	}
	return &ConnectionError{Step: "Write", Err: err}
}

// TaskError wraps a join failure (the wrapped task panicked), surfaced
// through handle.Handle.Shutdown.
type TaskError struct {
	Recovered interface{}
}

func (e *TaskError) Error() string { return fmt.Sprintf("chat: task panicked: %v", e.Recovered) }

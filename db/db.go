// Package db is the database worker of spec.md §4.7: a single goroutine
// that serializes all access to an external user store, consuming
// tagged DatabaseEvent requests with one-shot reply channels.
package db

import (
	"context"

	"github.com/catchat/chat/identity"
)

// DataBase is the external collaborator interface required of the user
// store (spec.md §4.7/§6). Implementations need not be safe for
// concurrent use: Worker guarantees only one of these methods runs at a
// time.
type DataBase interface {
	// LogIn returns the User iff name exists and password verifies
	// against its stored record.
	LogIn(ctx context.Context, name string, password []byte) (identity.User, bool, error)

	// CreateUser returns the User iff name is not already taken.
	CreateUser(ctx context.Context, name string, record identity.PasswordRecord) (identity.User, bool, error)

	// UserFromUsername looks up a User by name without touching
	// credentials.
	UserFromUsername(ctx context.Context, name string) (identity.User, bool, error)
}

// eventKind tags which DataBase method an Event invokes.
type eventKind int

const (
	kindLogIn eventKind = iota
	kindCreateUser
	kindGetUser
)

// result is what every Event's reply channel carries.
type result struct {
	user  identity.User
	found bool
	err   error
}

// Event is a tagged request to the Worker, carrying everything needed
// to perform exactly one DataBase operation and a channel to deliver
// its reply on.
type Event struct {
	kind     eventKind
	name     string
	password []byte
	record   identity.PasswordRecord
	reply    chan result
}

// LogInEvent builds an Event that calls DataBase.LogIn.
func LogInEvent(name string, password []byte) Event {
	return Event{kind: kindLogIn, name: name, password: password, reply: make(chan result, 1)}
}

// CreateUserEvent builds an Event that calls DataBase.CreateUser.
func CreateUserEvent(name string, record identity.PasswordRecord) Event {
	return Event{kind: kindCreateUser, name: name, record: record, reply: make(chan result, 1)}
}

// GetUserEvent builds an Event that calls DataBase.UserFromUsername.
func GetUserEvent(name string) Event {
	return Event{kind: kindGetUser, name: name, reply: make(chan result, 1)}
}

// Await blocks for this Event's reply. Safe to call exactly once per
// Event, after submitting it to a Worker.
func (e Event) Await(ctx context.Context) (identity.User, bool, error) {
	select {
	case r := <-e.reply:
		return r.user, r.found, r.err
	case <-ctx.Done():
		return identity.User{}, false, ctx.Err()
	}
}

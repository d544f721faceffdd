// Package handle implements the (mailbox-sender, join-handle) pair that
// owns a background task, generalizing the worker.Worker embedding
// pattern used throughout the teacher (client2/connection.go,
// sockatz/common/conn.go, server/cborplugin/client.go: a Go(fn)
// launcher plus a HaltCh()-gated goroutine) into a typed mailbox with a
// typed return value, per spec.md §4.3.
package handle

import (
	"fmt"
	"sync"
)

// Handle owns a background task of the shape F(<-chan Msg) Result. The
// mailbox is unbounded and Send never blocks on the task; Shutdown
// closes the mailbox, letting the task drain and exit, then returns
// whatever the task returned.
type Handle[Msg any, Result any] struct {
	in     chan<- Msg
	result chan Result

	mu       sync.Mutex
	shutdown bool
}

// Spawn starts task in its own goroutine, handing it the receive end of
// a fresh unbounded mailbox, and returns the Handle that owns it. task
// must return (possibly after recovering from the closed mailbox) once
// its receive channel is drained and closed.
func Spawn[Msg any, Result any](task func(mailbox <-chan Msg) Result) *Handle[Msg, Result] {
	in, out := NewUnboundedChan[Msg]()
	h := &Handle[Msg, Result]{
		in:     in,
		result: make(chan Result, 1),
	}
	go func() {
		h.result <- task(out)
	}()
	return h
}

// NewUnboundedChan returns a (send, receive) pair backed by a pump
// goroutine holding a growing slice buffer in between them, rather than
// a fixed-capacity channel: a send on the returned send-side never
// blocks waiting for the receive side to keep pace, since the pump
// queues arbitrarily many pending values in memory instead. Closing the
// send side drains whatever is still queued to the receive side, then
// closes it.
func NewUnboundedChan[T any]() (chan<- T, <-chan T) {
	in := make(chan T)
	out := make(chan T)
	go pump(in, out)
	return in, out
}

// pump forwards every value sent on in to out, in order, buffering
// arbitrarily many of them in between so a send on in never waits for a
// receive on out. It closes out once in is closed and fully drained.
func pump[T any](in <-chan T, out chan<- T) {
	defer close(out)
	var queue []T
	for {
		if len(queue) == 0 {
			v, ok := <-in
			if !ok {
				return
			}
			queue = append(queue, v)
			continue
		}
		select {
		case v, ok := <-in:
			if !ok {
				for _, m := range queue {
					out <- m
				}
				return
			}
			queue = append(queue, v)
		case out <- queue[0]:
			queue = queue[1:]
		}
	}
}

// Send enqueues msg without blocking on the task. It only fails if the
// mailbox has already been closed by Shutdown.
func (h *Handle[Msg, Result]) Send(msg Msg) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errClosedMailbox
		}
	}()
	h.mu.Lock()
	closed := h.shutdown
	h.mu.Unlock()
	if closed {
		return errClosedMailbox
	}
	h.in <- msg
	return nil
}

// Shutdown signals the task to exit by closing the mailbox (the task is
// required to notice the channel close and return), then waits for its
// result. Shutdown is not idempotent: any second call panics.
func (h *Handle[Msg, Result]) Shutdown() Result {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		panic(fmt.Sprintf("handle: Shutdown called twice on %T", h))
	}
	h.shutdown = true
	close(h.in)
	h.mu.Unlock()
	return <-h.result
}

var errClosedMailbox = closedMailboxError("handle: mailbox closed")

type closedMailboxError string

func (e closedMailboxError) Error() string { return string(e) }

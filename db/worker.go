package db

import (
	"context"

	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/handle"
)

// Worker owns the concrete store and is the sole goroutine that ever
// calls into it: no two store operations run concurrently, which is the
// serialization point spec.md §4.7 requires.
type Worker struct {
	h *handle.Handle[Event, struct{}]
}

// NewWorker spawns the worker goroutine over store.
func NewWorker(store DataBase, log corelog.Logger) *Worker {
	h := handle.Spawn(func(mailbox <-chan Event) struct{} {
		for ev := range mailbox {
			r := dispatch(store, ev)
			ev.reply <- r
			if r.err != nil {
				log.Errorf("db: %v", r.err)
			}
		}
		return struct{}{}
	})
	return &Worker{h: h}
}

func dispatch(store DataBase, ev Event) result {
	ctx := context.Background()
	switch ev.kind {
	case kindLogIn:
		u, ok, e := store.LogIn(ctx, ev.name, ev.password)
		return result{user: u, found: ok, err: e}
	case kindCreateUser:
		u, ok, e := store.CreateUser(ctx, ev.name, ev.record)
		return result{user: u, found: ok, err: e}
	case kindGetUser:
		u, ok, e := store.UserFromUsername(ctx, ev.name)
		return result{user: u, found: ok, err: e}
	default:
		panic("db: unknown event kind")
	}
}

// Submit enqueues ev for processing and does not block on the result;
// callers use ev.Await to receive it.
func (w *Worker) Submit(ev Event) error {
	return w.h.Send(ev)
}

// Shutdown drains in-flight events and stops the worker goroutine.
func (w *Worker) Shutdown() {
	w.h.Shutdown()
}

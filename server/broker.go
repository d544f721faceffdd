// Package server is the accept-loop/broker/connection topology of
// spec.md §4.5-§4.8: one goroutine per accepted socket, a central
// broker goroutine owning the routing table, and the db.Worker behind
// it, wired the way client2/connection.go wires a connection's worker
// goroutine around channels and client2.Client owns the shared state a
// connection reaches back into.
package server

import (
	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/handle"
	"github.com/catchat/chat/identity"
	"github.com/catchat/chat/metrics"
	"github.com/catchat/chat/serialize"
)

// Envelope is what the broker delivers into a recipient's mailbox: the
// sender's name plus the message body.
type Envelope struct {
	From    identity.User
	Message serialize.Message
}

// mailbox is one user's set of live session queues, as seen by the
// broker, keyed by the per-user session counter next.
type mailbox struct {
	next int
	subs map[int]chan<- Envelope
}

type brokerEvent struct {
	kind    brokerEventKind
	user    identity.User
	from    identity.User
	message serialize.Message
	sub     chan<- Envelope
	subID   int
	reply   chan int
}

type brokerEventKind int

const (
	evNewSession brokerEventKind = iota
	evDropSession
	evMessage
)

// NewSessionEvent registers sub as a new mailbox for user and returns,
// via Await, the subscription id to pass to DropSessionEvent later.
func NewSessionEvent(user identity.User, sub chan<- Envelope) brokerEvent {
	return brokerEvent{kind: evNewSession, user: user, sub: sub, reply: make(chan int, 1)}
}

// DropSessionEvent unregisters the subscription id returned by a prior
// NewSessionEvent for user.
func DropSessionEvent(user identity.User, subID int) brokerEvent {
	return brokerEvent{kind: evDropSession, user: user, subID: subID}
}

// MessageEvent asks the broker to fan out message from "from" to every
// live session of "to".
func MessageEvent(from, to identity.User, message serialize.Message) brokerEvent {
	return brokerEvent{kind: evMessage, from: from, user: to, message: message}
}

// Broker owns the table of logged-in users and their live sessions and
// is the only goroutine that ever touches it, mirroring db.Worker's
// single-owner discipline one layer up.
type Broker struct {
	h *handle.Handle[brokerEvent, struct{}]
}

// NewBroker spawns the broker goroutine. m may be nil in tests.
func NewBroker(log corelog.Logger, m *metrics.Metrics) *Broker {
	table := make(map[identity.User]*mailbox)
	h := handle.Spawn(func(ev <-chan brokerEvent) struct{} {
		for e := range ev {
			handleBrokerEvent(table, e, log, m)
		}
		for _, mb := range table {
			for _, sub := range mb.subs {
				close(sub)
			}
		}
		return struct{}{}
	})
	return &Broker{h: h}
}

func handleBrokerEvent(table map[identity.User]*mailbox, e brokerEvent, log corelog.Logger, m *metrics.Metrics) {
	switch e.kind {
	case evNewSession:
		mb, ok := table[e.user]
		if !ok {
			mb = &mailbox{subs: make(map[int]chan<- Envelope)}
			table[e.user] = mb
		}
		id := mb.next
		mb.next++
		mb.subs[id] = e.sub
		e.reply <- id
	case evDropSession:
		mb, ok := table[e.user]
		if !ok {
			return
		}
		delete(mb.subs, e.subID)
		if len(mb.subs) == 0 {
			delete(table, e.user)
		}
	case evMessage:
		if m != nil {
			m.MessagesRouted.Inc()
		}
		mb, ok := table[e.user]
		if !ok || len(mb.subs) == 0 {
			log.Infof("broker: %s has no live session, dropping message from %s", e.user.Name, e.from.Name)
			return
		}
		env := Envelope{From: e.from, Message: e.message}
		for _, sub := range mb.subs {
			if m != nil {
				m.FanOutRecipients.Inc()
			}
			// sub is backed by handle.NewUnboundedChan (see
			// server/connection.go), so this send queues in memory
			// rather than blocking the broker on a slow session or
			// dropping the envelope: §8 testable property 7 requires
			// every live session get exactly one copy, with no
			// backpressure exception.
			sub <- env
		}
	}
}

// NewSession registers sub for user and returns the subscription id.
func (b *Broker) NewSession(user identity.User, sub chan<- Envelope) (int, error) {
	ev := NewSessionEvent(user, sub)
	if err := b.h.Send(ev); err != nil {
		return 0, err
	}
	return <-ev.reply, nil
}

// DropSession unregisters subID for user.
func (b *Broker) DropSession(user identity.User, subID int) error {
	return b.h.Send(DropSessionEvent(user, subID))
}

// Route fans out a message from "from" to every live session of "to".
func (b *Broker) Route(from, to identity.User, message serialize.Message) error {
	return b.h.Send(MessageEvent(from, to, message))
}

// Shutdown stops the broker goroutine and closes every live mailbox.
func (b *Broker) Shutdown() {
	b.h.Shutdown()
}

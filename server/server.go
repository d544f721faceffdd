package server

import (
	"context"
	"net"
	"sync"

	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/db"
	"github.com/catchat/chat/metrics"
	"github.com/catchat/chat/wire"
)

// asyncCtx is the context every db.Event.Await call in this package
// uses: db.Worker already serializes and bounds its own work, so
// connections need not additionally impose a deadline here.
func asyncCtx() context.Context { return context.Background() }

// Server accepts TCP connections, negotiates the BlockStream handshake
// on each, and hands the result to a connection. It owns the Broker
// and the db.Worker beneath it, mirroring client2.Client's ownership
// of the connection goroutine it spawns.
type Server struct {
	log       corelog.Logger
	broker    *Broker
	users     *db.Worker
	metrics   *metrics.Metrics
	frameSize int

	wg sync.WaitGroup
}

// New constructs a Server. store is already open; frameSize is N, the
// BlockStream frame payload size every accepted connection will
// negotiate.
func New(store db.DataBase, log corelog.Logger, m *metrics.Metrics, frameSize int) *Server {
	return &Server{
		log:       log,
		broker:    NewBroker(log, m),
		users:     db.NewWorker(store, log),
		metrics:   m,
		frameSize: frameSize,
	}
}

// Serve accepts connections on ln until it errors or ctx is canceled,
// spawning one goroutine per accepted socket. It returns once every
// spawned connection goroutine has exited.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				s.wg.Wait()
				return err
			}
		}
		if s.metrics != nil {
			s.metrics.ConnectionsAccepted.Inc()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	bs, err := wire.New(conn, s.frameSize)
	if err != nil {
		s.log.Warnf("server: handshake with %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	c := newConnection(bs, s.log, s.broker, s.users, s.metrics)
	c.run()
}

// Shutdown stops the broker and the db.Worker, in that order: no
// connection goroutine can still be routing through the broker or
// querying the store by the time Serve has returned, since Serve
// waits for all of them to exit first.
func (s *Server) Shutdown() {
	s.broker.Shutdown()
	s.users.Shutdown()
}

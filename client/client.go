// Package client is the client driver of spec.md §4.9: connect,
// negotiate the BlockStream handshake, run the login sub-protocol as
// initiator, then multiplex outbound sends against inbound
// (sender, message) deliveries, mirroring the server's own
// one-reader/one-writer-per-stream split (server/connection.go).
package client

import (
	"fmt"
	"net"

	"github.com/catchat/chat/chaterr"
	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/login"
	"github.com/catchat/chat/serialize"
	"github.com/catchat/chat/wire"
)

// Delivery is one inbound (sender, message) pair handed to the
// caller-supplied writer callback.
type Delivery struct {
	From    string
	Message serialize.Message
}

// Client is a logged-in connection to the chat server.
type Client struct {
	bs  *wire.BlockStream
	log corelog.Logger

	outbox chan outboundSend
	done   chan struct{}
}

type outboundSend struct {
	to      string
	message serialize.Message
	errCh   chan error
}

// Connect dials addr, performs the handshake, and logs in as either a
// new or an existing user. on is invoked for every inbound delivery
// from a dedicated goroutine; it must not block for long, since it is
// called inline in the connection's single reader goroutine.
func Connect(addr string, frameSize int, log corelog.Logger, newUser bool, username string, password []byte, on func(Delivery)) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, chaterr.Network("dial", err)
	}

	bs, err := wire.New(conn, frameSize)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := login.ClientLogin(bs, newUser, username, password); err != nil {
		bs.Close()
		return nil, fmt.Errorf("client: login: %w", err)
	}

	c := &Client{
		bs:     bs,
		log:    log,
		outbox: make(chan outboundSend),
		done:   make(chan struct{}),
	}
	go c.readLoop(on)
	go c.writeLoop()
	return c, nil
}

// Send queues one message for delivery to "to" and blocks until it has
// been written to the stream (not until the peer has processed it).
func (c *Client) Send(to string, message serialize.Message) error {
	errCh := make(chan error, 1)
	select {
	case c.outbox <- outboundSend{to: to, message: message, errCh: errCh}:
	case <-c.done:
		return fmt.Errorf("client: connection closed")
	}
	return <-errCh
}

// Close sends the terminating goodbye block and closes the stream. Once
// the writer has stopped, a further Close only closes the stream again.
func (c *Client) Close() error {
	select {
	case <-c.done:
	default:
		close(c.outbox)
		<-c.done
	}
	return c.bs.Close()
}

func (c *Client) readLoop(on func(Delivery)) {
	for {
		from, err := wire.ReadBlock[string](c.bs, func() serialize.Deserializer[string] { return serialize.NewStringDeserializer() })
		if err != nil {
			c.log.Infof("client: read sender: %v", err)
			return
		}
		msg, err := wire.ReadBlock[serialize.Message](c.bs, func() serialize.Deserializer[serialize.Message] { return serialize.NewMessageDeserializer() })
		if err != nil {
			c.log.Infof("client: read message: %v", err)
			return
		}
		on(Delivery{From: from, Message: msg})
	}
}

// writeLoop is the connection's sole writer: every queued Send, then
// the terminating None block once outbox is closed.
func (c *Client) writeLoop() {
	defer close(c.done)
	for send := range c.outbox {
		err := c.writeOne(send.to, send.message)
		send.errCh <- err
		if err != nil {
			return
		}
	}
	if err := wire.WriteBlock[serialize.Option[string]](c.bs, serialize.NewOptionSerializer(
		serialize.None[string](),
		func(s string) serialize.Serializer[string] { return serialize.NewStringSerializer(s) },
	)); err != nil {
		c.log.Infof("client: write goodbye: %v", err)
	}
}

func (c *Client) writeOne(to string, message serialize.Message) error {
	if err := wire.WriteBlock[serialize.Option[string]](c.bs, serialize.NewOptionSerializer(
		serialize.Some(to),
		func(s string) serialize.Serializer[string] { return serialize.NewStringSerializer(s) },
	)); err != nil {
		return err
	}
	return wire.WriteBlock[serialize.Message](c.bs, serialize.NewMessageSerializer(message))
}

package server

import (
	"time"

	"github.com/catchat/chat/chaterr"
	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/db"
	"github.com/catchat/chat/handle"
	"github.com/catchat/chat/identity"
	"github.com/catchat/chat/login"
	"github.com/catchat/chat/metrics"
	"github.com/catchat/chat/serialize"
	"github.com/catchat/chat/wire"
)

// systemUser is the reserved sender identity for server-generated
// notices (today: the unknown-recipient ack of spec.md §4.5/scenario
// C) delivered through the same (sender, message) shape as ordinary
// deliveries. Login requires a non-empty username, so "" can never
// collide with a real account.
var systemUser = identity.User{Name: ""}

// connection drives one logged-in client socket end to end: the
// steady-state loop of spec.md §4.5/§6 reads Option<String> (a
// recipient, or none to hang up) then a Message, resolves the
// recipient against the db.Worker, and asks the broker to route it;
// concurrently an outbound goroutine drains the broker-assigned
// mailbox and writes every Envelope back down the same BlockStream.
// Only the outbound goroutine ever calls wire.WriteBlock on bs, and
// only a dedicated inbound goroutine ever calls wire.ReadBlock on it,
// matching §5's one-reader/one-writer-per-stream requirement; the
// negative ack of scenario C is delivered by routing a systemUser
// envelope back through the broker to this same session rather than
// writing to bs directly from the read side.
type connection struct {
	bs      *wire.BlockStream
	log     corelog.Logger
	broker  *Broker
	users   *db.Worker
	metrics *metrics.Metrics
	user    identity.User
}

func newConnection(bs *wire.BlockStream, log corelog.Logger, broker *Broker, users *db.Worker, m *metrics.Metrics) *connection {
	return &connection{bs: bs, log: log, broker: broker, users: users, metrics: m}
}

// run performs login, then services the connection until the peer
// hangs up or an unrecoverable error occurs. It always closes bs.
func (c *connection) run() {
	defer c.bs.Close()

	user, err := login.ServerLogin(c.bs, c.verify)
	if err != nil {
		if c.metrics != nil {
			c.metrics.LoginsFailed.Inc()
		}
		c.log.Infof("server: login failed: %v", err)
		return
	}
	if c.metrics != nil {
		c.metrics.LoginsSucceeded.Inc()
	}
	c.user = user
	c.log.Infof("server: %s logged in", user.Name)

	mbIn, mbOut := handle.NewUnboundedChan[Envelope]()
	subID, err := c.broker.NewSession(user, mbIn)
	if err != nil {
		c.log.Errorf("server: register session for %s: %v", user.Name, err)
		return
	}
	defer c.broker.DropSession(user, subID)

	// The broker only closes mbIn at its own shutdown, so writeLoop is
	// told to stop once readLoop has returned.
	stop := make(chan struct{})
	done := make(chan struct{})
	go c.writeLoop(mbOut, stop, done)
	defer func() {
		close(stop)
		<-done
	}()

	c.readLoop()
}

func (c *connection) verify(newUser bool, username string, password []byte) (identity.User, bool, string, error) {
	if newUser {
		rec, err := identity.NewPasswordRecord(password)
		if err != nil {
			return identity.User{}, false, "", err
		}
		ev := db.CreateUserEvent(username, rec)
		if err := c.users.Submit(ev); err != nil {
			return identity.User{}, false, "", err
		}
		user, created, err := ev.Await(asyncCtx())
		if err != nil {
			return identity.User{}, false, "", err
		}
		if !created {
			return identity.User{}, false, "username already taken", nil
		}
		return user, true, "", nil
	}

	ev := db.LogInEvent(username, password)
	if err := c.users.Submit(ev); err != nil {
		return identity.User{}, false, "", err
	}
	user, ok, err := ev.Await(asyncCtx())
	if err != nil {
		return identity.User{}, false, "", err
	}
	if !ok {
		return identity.User{}, false, "invalid credentials", nil
	}
	return user, true, "", nil
}

func (c *connection) readLoop() {
	for {
		recipient, err := wire.ReadBlock[serialize.Option[string]](c.bs, func() serialize.Deserializer[serialize.Option[string]] {
			return serialize.NewOptionDeserializer[string](func() serialize.Deserializer[string] { return serialize.NewStringDeserializer() })
		})
		if err != nil {
			c.log.Infof("server: %s: read recipient: %v", c.user.Name, err)
			return
		}
		if !recipient.Some {
			c.log.Infof("server: %s disconnected", c.user.Name)
			return
		}

		msg, err := wire.ReadBlock[serialize.Message](c.bs, func() serialize.Deserializer[serialize.Message] { return serialize.NewMessageDeserializer() })
		if err != nil {
			c.log.Infof("server: %s: read message: %v", c.user.Name, err)
			return
		}

		to, found, err := c.lookup(recipient.Value)
		if err != nil {
			c.log.Errorf("server: %s: lookup %s: %v", c.user.Name, recipient.Value, err)
			continue
		}
		if !found {
			notice := serialize.Message{SentUnixMilli: time.Now().UnixMilli(), Body: "unknown recipient: " + recipient.Value}
			if err := c.broker.Route(systemUser, c.user, notice); err != nil {
				c.log.Errorf("server: %s: deliver unknown-recipient notice: %v", c.user.Name, chaterr.ChannelSend(err))
			}
			continue
		}
		if err := c.broker.Route(c.user, to, msg); err != nil {
			c.log.Errorf("server: %s: route to %s: %v", c.user.Name, to.Name, chaterr.ChannelSend(err))
		}
	}
}

func (c *connection) lookup(name string) (identity.User, bool, error) {
	ev := db.GetUserEvent(name)
	if err := c.users.Submit(ev); err != nil {
		return identity.User{}, false, err
	}
	return ev.Await(asyncCtx())
}

func (c *connection) writeLoop(mb <-chan Envelope, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		var env Envelope
		select {
		case <-stop:
			return
		case e, ok := <-mb:
			if !ok {
				return
			}
			env = e
		}
		if err := wire.WriteBlock[string](c.bs, serialize.NewStringSerializer(env.From.Name)); err != nil {
			c.log.Infof("server: %s: write sender: %v", c.user.Name, err)
			return
		}
		if err := wire.WriteBlock[serialize.Message](c.bs, serialize.NewMessageSerializer(env.Message)); err != nil {
			c.log.Infof("server: %s: write message: %v", c.user.Name, err)
			return
		}
	}
}

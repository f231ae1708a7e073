package mock

import (
	"context"
	"sync"

	"github.com/miladsoleymani/amqpnotify/core"
)

// Call records one sink invocation.
type Call struct {
	Kind         core.EventKind
	ConnectionID string
	ChannelID    uint16
	Event        any
	Properties   core.Properties
	Body         []byte
}

// recorder is shared by the recording sinks.
type recorder struct {
	mu    sync.Mutex
	calls []Call

	// Before runs ahead of recording each call. Tests use it to block or panic.
	Before func(kind core.EventKind)
}

func (r *recorder) record(c Call) {
	if r.Before != nil {
		r.Before(c.Kind)
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// Calls returns every recorded call in order.
func (r *recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Kinds returns the kinds of every recorded call in order.
func (r *recorder) Kinds() []core.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventKind, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Kind
	}
	return out
}

// ConnectionSink is a core.ConnectionSink that records its calls.
type ConnectionSink struct {
	recorder
}

func (s *ConnectionSink) OnClose(_ context.Context, conn core.Connection, ev core.CloseEvent) {
	s.record(Call{Kind: core.KindClose, ConnectionID: conn.ID(), Event: ev})
}

func (s *ConnectionSink) OnBlocked(_ context.Context, conn core.Connection, ev core.BlockedEvent) {
	s.record(Call{Kind: core.KindBlocked, ConnectionID: conn.ID(), Event: ev})
}

func (s *ConnectionSink) OnUnblocked(_ context.Context, conn core.Connection, ev core.UnblockedEvent) {
	s.record(Call{Kind: core.KindUnblocked, ConnectionID: conn.ID(), Event: ev})
}

// ChannelSink is a core.ChannelSink that records its calls.
type ChannelSink struct {
	recorder
}

func (s *ChannelSink) OnClose(_ context.Context, ch core.Channel, ev core.CloseEvent) {
	s.record(Call{Kind: core.KindClose, ConnectionID: ch.ConnectionID(), ChannelID: ch.ID(), Event: ev})
}

func (s *ChannelSink) OnFlow(_ context.Context, ch core.Channel, ev core.FlowEvent) {
	s.record(Call{Kind: core.KindFlow, ConnectionID: ch.ConnectionID(), ChannelID: ch.ID(), Event: ev})
}

func (s *ChannelSink) OnPublishAck(_ context.Context, ch core.Channel, ev core.AckEvent) {
	s.record(Call{Kind: core.KindAck, ConnectionID: ch.ConnectionID(), ChannelID: ch.ID(), Event: ev})
}

func (s *ChannelSink) OnPublishNack(_ context.Context, ch core.Channel, ev core.NackEvent) {
	s.record(Call{Kind: core.KindNack, ConnectionID: ch.ConnectionID(), ChannelID: ch.ID(), Event: ev})
}

func (s *ChannelSink) OnPublishReturn(_ context.Context, ch core.Channel, ev core.ReturnEvent, props core.Properties, body []byte) {
	s.record(Call{
		Kind:         core.KindReturn,
		ConnectionID: ch.ConnectionID(),
		ChannelID:    ch.ID(),
		Event:        ev,
		Properties:   props,
		Body:         body,
	})
}

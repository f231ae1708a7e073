package core

import "context"

// Connection is the handle of the connection a notification belongs to.
// It is valid only for the duration of the sink call and must not be retained.
type Connection interface {
	ID() string
}

// Channel is the handle of the channel a notification belongs to.
// It is valid only for the duration of the sink call and must not be retained.
type Channel interface {
	ID() uint16
	ConnectionID() string
}

// ConnectionSink receives connection-scoped notifications.
//
// Calls are made from the connection's dispatch loop, one at a time and in
// the order the frames were classified. The loop waits for each call to
// return before it processes the next frame, so a slow sink throttles the
// whole connection.
type ConnectionSink interface {
	// OnClose is terminal: no further calls follow for this connection.
	OnClose(ctx context.Context, conn Connection, ev CloseEvent)
	OnBlocked(ctx context.Context, conn Connection, ev BlockedEvent)
	// OnUnblocked always follows exactly one unmatched OnBlocked.
	OnUnblocked(ctx context.Context, conn Connection, ev UnblockedEvent)
}

// ChannelSink receives channel-scoped notifications.
//
// The same ordering and backpressure rules as ConnectionSink apply per
// channel. Nothing is guaranteed about the relative order of calls made
// for different channels of one connection.
type ChannelSink interface {
	// OnClose is terminal: no further calls follow for this channel.
	OnClose(ctx context.Context, ch Channel, ev CloseEvent)
	OnFlow(ctx context.Context, ch Channel, ev FlowEvent)
	OnPublishAck(ctx context.Context, ch Channel, ev AckEvent)
	OnPublishNack(ctx context.Context, ch Channel, ev NackEvent)
	// OnPublishReturn receives the returned message as one unit: props and
	// body always belong to ev. body may not be valid UTF-8.
	OnPublishReturn(ctx context.Context, ch Channel, ev ReturnEvent, props Properties, body []byte)
}

// ConnectionSinkFuncs adapts plain functions to ConnectionSink.
// Nil fields are delegated to Fallback, or ignored when Fallback is nil.
type ConnectionSinkFuncs struct {
	Close     func(ctx context.Context, conn Connection, ev CloseEvent)
	Blocked   func(ctx context.Context, conn Connection, ev BlockedEvent)
	Unblocked func(ctx context.Context, conn Connection, ev UnblockedEvent)

	Fallback ConnectionSink
}

func (f *ConnectionSinkFuncs) OnClose(ctx context.Context, conn Connection, ev CloseEvent) {
	switch {
	case f.Close != nil:
		f.Close(ctx, conn, ev)
	case f.Fallback != nil:
		f.Fallback.OnClose(ctx, conn, ev)
	}
}

func (f *ConnectionSinkFuncs) OnBlocked(ctx context.Context, conn Connection, ev BlockedEvent) {
	switch {
	case f.Blocked != nil:
		f.Blocked(ctx, conn, ev)
	case f.Fallback != nil:
		f.Fallback.OnBlocked(ctx, conn, ev)
	}
}

func (f *ConnectionSinkFuncs) OnUnblocked(ctx context.Context, conn Connection, ev UnblockedEvent) {
	switch {
	case f.Unblocked != nil:
		f.Unblocked(ctx, conn, ev)
	case f.Fallback != nil:
		f.Fallback.OnUnblocked(ctx, conn, ev)
	}
}

// ChannelSinkFuncs adapts plain functions to ChannelSink.
// Nil fields are delegated to Fallback, or ignored when Fallback is nil.
type ChannelSinkFuncs struct {
	Close  func(ctx context.Context, ch Channel, ev CloseEvent)
	Flow   func(ctx context.Context, ch Channel, ev FlowEvent)
	Ack    func(ctx context.Context, ch Channel, ev AckEvent)
	Nack   func(ctx context.Context, ch Channel, ev NackEvent)
	Return func(ctx context.Context, ch Channel, ev ReturnEvent, props Properties, body []byte)

	Fallback ChannelSink
}

func (f *ChannelSinkFuncs) OnClose(ctx context.Context, ch Channel, ev CloseEvent) {
	switch {
	case f.Close != nil:
		f.Close(ctx, ch, ev)
	case f.Fallback != nil:
		f.Fallback.OnClose(ctx, ch, ev)
	}
}

func (f *ChannelSinkFuncs) OnFlow(ctx context.Context, ch Channel, ev FlowEvent) {
	switch {
	case f.Flow != nil:
		f.Flow(ctx, ch, ev)
	case f.Fallback != nil:
		f.Fallback.OnFlow(ctx, ch, ev)
	}
}

func (f *ChannelSinkFuncs) OnPublishAck(ctx context.Context, ch Channel, ev AckEvent) {
	switch {
	case f.Ack != nil:
		f.Ack(ctx, ch, ev)
	case f.Fallback != nil:
		f.Fallback.OnPublishAck(ctx, ch, ev)
	}
}

func (f *ChannelSinkFuncs) OnPublishNack(ctx context.Context, ch Channel, ev NackEvent) {
	switch {
	case f.Nack != nil:
		f.Nack(ctx, ch, ev)
	case f.Fallback != nil:
		f.Fallback.OnPublishNack(ctx, ch, ev)
	}
}

func (f *ChannelSinkFuncs) OnPublishReturn(ctx context.Context, ch Channel, ev ReturnEvent, props Properties, body []byte) {
	switch {
	case f.Return != nil:
		f.Return(ctx, ch, ev, props, body)
	case f.Fallback != nil:
		f.Fallback.OnPublishReturn(ctx, ch, ev, props, body)
	}
}

package core

import "context"

// ConnectionDispatcher owns the ConnectionSink of one connection and
// delivers that connection's notifications to it.
//
// The Dispatch methods are meant to be called from the connection's
// frame-dispatch loop. Each one blocks until the sink returns, so a slow
// sink holds up every later frame of the connection: this is how sinks
// exert backpressure on the protocol.
type ConnectionDispatcher struct {
	dispatcher

	conn    Connection
	sink    ConnectionSink
	blocked bool
}

// NewConnectionDispatcher creates a dispatcher for conn. A nil sink installs
// a DefaultConnectionSink using the dispatcher's logger.
func NewConnectionDispatcher(conn Connection, sink ConnectionSink, fns ...Option) *ConnectionDispatcher {
	if conn == nil {
		conn = NewConnectionRef()
	}
	d := &ConnectionDispatcher{
		dispatcher: newDispatcher(ScopeConnection, conn.ID(), fns),
		conn:       conn,
	}
	d.sink = d.orDefault(sink)
	return d
}

// Install replaces the sink and returns the one it replaces. It waits for
// any sink call in flight. Calling it from inside a sink of the same
// connection deadlocks.
func (d *ConnectionDispatcher) Install(sink ConnectionSink) ConnectionSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.sink
	d.sink = d.orDefault(sink)
	return prev
}

// Sink returns the installed sink.
func (d *ConnectionDispatcher) Sink() ConnectionSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sink
}

// IsBlocked reports whether a blocked notification is awaiting its unblocked.
func (d *ConnectionDispatcher) IsBlocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocked
}

// IsClosed reports whether the close notification has been delivered.
func (d *ConnectionDispatcher) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// DispatchClose delivers the terminal close notification.
func (d *ConnectionDispatcher) DispatchClose(ctx context.Context, ev CloseEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.reject(KindClose, ev, ErrContextClosed)
		return
	}
	d.closed = true
	d.blocked = false

	sink, conn := d.sink, d.conn
	d.deliver(ctx, KindClose, ev, func(ctx context.Context) {
		sink.OnClose(ctx, conn, ev)
	})
}

func (d *ConnectionDispatcher) DispatchBlocked(ctx context.Context, ev BlockedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		d.reject(KindBlocked, ev, ErrContextClosed)
		return
	case d.blocked:
		d.reject(KindBlocked, ev, ErrAlreadyBlocked)
		return
	}
	d.blocked = true

	sink, conn := d.sink, d.conn
	d.deliver(ctx, KindBlocked, ev, func(ctx context.Context) {
		sink.OnBlocked(ctx, conn, ev)
	})
}

func (d *ConnectionDispatcher) DispatchUnblocked(ctx context.Context, ev UnblockedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		d.reject(KindUnblocked, ev, ErrContextClosed)
		return
	case !d.blocked:
		d.reject(KindUnblocked, ev, ErrUnmatchedUnblocked)
		return
	}
	d.blocked = false

	sink, conn := d.sink, d.conn
	d.deliver(ctx, KindUnblocked, ev, func(ctx context.Context) {
		sink.OnUnblocked(ctx, conn, ev)
	})
}

func (d *ConnectionDispatcher) orDefault(sink ConnectionSink) ConnectionSink {
	if sink == nil {
		return NewDefaultConnectionSink(d.opts.logger)
	}
	return sink
}

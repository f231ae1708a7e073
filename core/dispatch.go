package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Option configures a ConnectionDispatcher or ChannelDispatcher.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	onError     func(error)
	middlewares []Middleware
}

func defaults() options {
	return options{logger: zap.NewNop()}
}

// WithLogger sets the logger used for diagnostics and by the default sink.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorHandler sets the function that receives every *HandlerError and
// *OrderingError, and ErrContextClosed for notifications arriving after close.
// It is called on the dispatch loop, after the failure has been logged.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithMiddleware appends middleware wrapping every sink call.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

// dispatcher serializes sink calls for one connection or channel.
// mu is held for the whole of every sink call and every install.
type dispatcher struct {
	scope Scope
	id    string
	opts  options
	l     *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newDispatcher(scope Scope, id string, fns []Option) dispatcher {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}
	return dispatcher{
		scope: scope,
		id:    id,
		opts:  opts,
		l:     opts.logger.With(zap.Stringer("scope", scope), zap.String("context_id", id)),
	}
}

// deliver runs call through the middleware chain. Callers hold d.mu.
func (d *dispatcher) deliver(ctx context.Context, kind EventKind, ev fmt.Stringer, call func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Teardown of the caller must not cancel a sink call in flight.
	ctx = context.WithoutCancel(ctx)

	n := Notification{Scope: d.scope, Kind: kind, ContextID: d.id, Event: ev}
	invoke := func(ctx context.Context, n Notification) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = d.handlerError(n, r)
			}
		}()
		call(ctx)
		return nil
	}

	if err := d.run(ctx, n, applyMiddleware(invoke, d.opts.middlewares)); err != nil {
		d.l.Error("sink failed",
			zap.Stringer("kind", kind),
			zap.Stringer("event", ev),
			zap.Error(err))
		d.report(err)
	}
}

// run guards against panics raised by middleware outside the sink itself.
func (d *dispatcher) run(ctx context.Context, n Notification, h Invoke) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.handlerError(n, r)
		}
	}()
	return h(ctx, n)
}

func (d *dispatcher) handlerError(n Notification, r any) *HandlerError {
	buf := make([]byte, 4096)
	buf = buf[:runtime.Stack(buf, false)]
	return &HandlerError{
		Scope:     n.Scope,
		Kind:      n.Kind,
		ContextID: n.ContextID,
		Value:     r,
		Stack:     buf,
	}
}

// reject records a notification that was not delivered.
func (d *dispatcher) reject(kind EventKind, ev fmt.Stringer, err error) {
	if errors.Is(err, ErrContextClosed) {
		d.l.Debug("notification after close dropped",
			zap.Stringer("kind", kind),
			zap.Stringer("event", ev))
		d.report(fmt.Errorf("%w: %s %s", ErrContextClosed, d.scope, d.id))
		return
	}

	oe := &OrderingError{Scope: d.scope, Kind: kind, ContextID: d.id, Err: err}
	d.l.Warn("notification rejected",
		zap.Stringer("kind", kind),
		zap.Stringer("event", ev),
		zap.Error(err))
	d.report(oe)
}

func (d *dispatcher) report(err error) {
	if d.opts.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.l.Error("error handler panicked", zap.Any("panic", r))
		}
	}()
	d.opts.onError(err)
}

package core

import (
	"context"
	"fmt"
)

// Notification describes a single sink call as seen by middleware.
type Notification struct {
	Scope     Scope
	Kind      EventKind
	ContextID string
	Event     fmt.Stringer
}

// Invoke performs one sink call. The error is non-nil only when the sink
// failed, which for the built-in chain means it panicked.
type Invoke func(ctx context.Context, n Notification) error

// Middleware wraps an Invoke to add cross-cutting behavior around sink calls.
//
//	func Tracing() core.Middleware {
//	    return func(next core.Invoke) core.Invoke {
//	        return func(ctx context.Context, n core.Notification) error {
//	            // before
//	            err := next(ctx, n)
//	            // after
//	            return err
//	        }
//	    }
//	}
//
// Middleware runs on the dispatch loop. It must call next exactly once and
// must not hand the call off to another goroutine.
type Middleware func(Invoke) Invoke

// applyMiddleware wraps an invoke with middleware in reverse order.
// Given middleware [A, B, C], the call order is A -> B -> C -> invoke.
func applyMiddleware(h Invoke, mws []Middleware) Invoke {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

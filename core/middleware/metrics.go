package middleware

import (
	"context"
	"time"

	"github.com/miladsoleymani/amqpnotify/core"
)

// MetricsCollector is the interface that metrics backends must implement.
// This keeps the middleware decoupled from any specific metrics library.
type MetricsCollector interface {
	// NotificationHandled records one sink call. err is nil on success.
	NotificationHandled(scope core.Scope, kind core.EventKind, duration time.Duration, err error)
}

// Metrics returns middleware that reports every sink call to the given collector.
func Metrics(collector MetricsCollector) core.Middleware {
	return func(next core.Invoke) core.Invoke {
		return func(ctx context.Context, n core.Notification) error {
			start := time.Now()
			err := next(ctx, n)
			collector.NotificationHandled(n.Scope, n.Kind, time.Since(start), err)
			return err
		}
	}
}

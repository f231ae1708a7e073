package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
)

// Logging returns middleware that logs every sink call with its duration,
// and the failure when the sink panicked.
func Logging(l *zap.Logger) core.Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return func(next core.Invoke) core.Invoke {
		return func(ctx context.Context, n core.Notification) error {
			start := time.Now()
			err := next(ctx, n)
			fields := []zap.Field{
				zap.Stringer("scope", n.Scope),
				zap.String("context_id", n.ContextID),
				zap.Stringer("kind", n.Kind),
				zap.Duration("elapsed", time.Since(start)),
			}

			if err != nil {
				l.Error("sink call failed", append(fields, zap.Error(err))...)
			} else {
				l.Debug("sink call", fields...)
			}
			return err
		}
	}
}

// SlowCall returns middleware that warns once a sink call has been running
// for longer than threshold. The call is never interrupted: the dispatch
// loop keeps waiting for it, and the warning is the only effect.
func SlowCall(threshold time.Duration, l *zap.Logger) core.Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return func(next core.Invoke) core.Invoke {
		return func(ctx context.Context, n core.Notification) error {
			start := time.Now()
			t := time.AfterFunc(threshold, func() {
				l.Warn("sink call still running, dispatch loop is stalled",
					zap.Stringer("scope", n.Scope),
					zap.String("context_id", n.ContextID),
					zap.Stringer("kind", n.Kind),
					zap.Duration("threshold", threshold))
			})
			err := next(ctx, n)
			if !t.Stop() {
				l.Info("slow sink call finished",
					zap.Stringer("scope", n.Scope),
					zap.String("context_id", n.ContextID),
					zap.Stringer("kind", n.Kind),
					zap.Duration("elapsed", time.Since(start)))
			}
			return err
		}
	}
}

package core

import (
	"context"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultConnectionSink logs connection notifications and does nothing else.
// It is installed when the application supplies no sink of its own.
type DefaultConnectionSink struct {
	l *zap.Logger
}

// NewDefaultConnectionSink returns a DefaultConnectionSink writing to l.
// A nil logger discards everything.
func NewDefaultConnectionSink(l *zap.Logger) *DefaultConnectionSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &DefaultConnectionSink{l: l}
}

func (s *DefaultConnectionSink) OnClose(_ context.Context, conn Connection, ev CloseEvent) {
	defer swallow()
	s.logger().Error("connection closed",
		zap.String("connection", connID(conn)),
		zap.Stringer("close", ev))
}

func (s *DefaultConnectionSink) OnBlocked(_ context.Context, conn Connection, ev BlockedEvent) {
	defer swallow()
	s.logger().Info("connection blocked by server",
		zap.String("connection", connID(conn)),
		zap.String("reason", ev.Reason))
}

func (s *DefaultConnectionSink) OnUnblocked(_ context.Context, conn Connection, _ UnblockedEvent) {
	defer swallow()
	s.logger().Info("connection unblocked by server",
		zap.String("connection", connID(conn)))
}

func (s *DefaultConnectionSink) logger() *zap.Logger {
	if s == nil || s.l == nil {
		return zap.NewNop()
	}
	return s.l
}

// DefaultChannelSink logs channel notifications and does nothing else.
// It is installed when the application supplies no sink of its own.
type DefaultChannelSink struct {
	l *zap.Logger
}

// NewDefaultChannelSink returns a DefaultChannelSink writing to l.
// A nil logger discards everything.
func NewDefaultChannelSink(l *zap.Logger) *DefaultChannelSink {
	if l == nil {
		l = zap.NewNop()
	}
	return &DefaultChannelSink{l: l}
}

func (s *DefaultChannelSink) OnClose(_ context.Context, ch Channel, ev CloseEvent) {
	defer swallow()
	s.logger(ch).Error("channel closed", zap.Stringer("close", ev))
}

func (s *DefaultChannelSink) OnFlow(_ context.Context, ch Channel, ev FlowEvent) {
	defer swallow()
	s.logger(ch).Info("channel flow request from server", zap.Bool("active", ev.Active))
}

func (s *DefaultChannelSink) OnPublishAck(_ context.Context, ch Channel, ev AckEvent) {
	defer swallow()
	s.logger(ch).Info("channel publish ack from server",
		zap.Uint64("delivery_tag", ev.DeliveryTag),
		zap.Bool("multiple", ev.Multiple))
}

func (s *DefaultChannelSink) OnPublishNack(_ context.Context, ch Channel, ev NackEvent) {
	defer swallow()
	s.logger(ch).Info("channel publish nack from server",
		zap.Uint64("delivery_tag", ev.DeliveryTag),
		zap.Bool("multiple", ev.Multiple),
		zap.Bool("requeue", ev.Requeue))
}

// OnPublishReturn logs the returned message. A body that is not valid UTF-8
// is reported as a DecodingError warning and logged as binary instead.
func (s *DefaultChannelSink) OnPublishReturn(_ context.Context, ch Channel, ev ReturnEvent, props Properties, body []byte) {
	defer swallow()
	l := s.logger(ch).With(
		zap.Stringer("return", ev),
		zap.Stringer("properties", props))

	if !utf8.Valid(body) {
		l.Warn("channel publish return from server",
			zap.Error(&DecodingError{What: "returned message body", Err: ErrInvalidUTF8}),
			zap.Int("body_len", len(body)),
			zap.Binary("body", body))
		return
	}
	l.Info("channel publish return from server", zap.String("body", string(body)))
}

func (s *DefaultChannelSink) logger(ch Channel) *zap.Logger {
	l := zap.NewNop()
	if s != nil && s.l != nil {
		l = s.l
	}
	if ch == nil {
		return l
	}
	return l.With(
		zap.String("connection", ch.ConnectionID()),
		zap.Uint16("channel", ch.ID()))
}

func connID(conn Connection) string {
	if conn == nil {
		return ""
	}
	return conn.ID()
}

func chanID(ch Channel) string {
	if ch == nil {
		return ""
	}
	return ch.ConnectionID() + "/" + strconv.Itoa(int(ch.ID()))
}

// swallow discards panics raised by a logging backend.
func swallow() {
	_ = recover()
}

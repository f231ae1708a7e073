package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
	"github.com/miladsoleymani/amqpnotify/internal/forward"
	"github.com/miladsoleymani/amqpnotify/registry"
)

func init() {
	registry.Register("kafka", func(cfg registry.Config, l *zap.Logger) (core.ChannelSink, error) {
		opts := append(optsFromConfig(cfg), WithFilter(cfg.Filter))
		s, err := New(cfg.Addrs, cfg.Topic, l, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// writer is the part of *kafka.Writer the forwarder uses.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink is a core.ChannelSink that writes returned messages to a Kafka topic.
//
// The record key is the routing key, the value is the unchanged body and
// the return metadata travels as headers. Every other notification, and
// every return that is filtered out or fails to write, goes to the embedded
// DefaultChannelSink.
type Sink struct {
	*core.DefaultChannelSink

	w      writer
	topic  string
	filter forward.Filter
	opts   options
	l      *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a Sink writing to topic on the given brokers.
func New(brokers []string, topic string, l *zap.Logger, fns ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("amqpnotify/kafka: at least one broker address is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("amqpnotify/kafka: topic is required")
	}

	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     opts.balancer,
		BatchSize:    opts.batchSize,
		Async:        opts.async,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: opts.timeout,
	}
	if opts.dialer != nil {
		w.Transport = &kafka.Transport{
			DialTimeout: opts.dialer.Timeout,
			ClientID:    opts.dialer.ClientID,
			TLS:         opts.dialer.TLS,
			SASL:        opts.dialer.SASLMechanism,
		}
	}

	return newSink(w, topic, l, opts), nil
}

func newSink(w writer, topic string, l *zap.Logger, opts options) *Sink {
	if l == nil {
		l = zap.NewNop()
	}
	return &Sink{
		DefaultChannelSink: core.NewDefaultChannelSink(l),
		w:                  w,
		topic:              topic,
		filter:             forward.Filter{Pattern: opts.filter},
		opts:               opts,
		l:                  l.With(zap.String("forward", "kafka")),
	}
}

// OnPublishReturn writes the returned message when it passes the filter.
func (s *Sink) OnPublishReturn(ctx context.Context, ch core.Channel, ev core.ReturnEvent, props core.Properties, body []byte) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed || !s.filter.Match(ev.RoutingKey) {
		s.DefaultChannelSink.OnPublishReturn(ctx, ch, ev, props, body)
		return
	}

	km := kafka.Message{
		Key:     []byte(ev.RoutingKey),
		Value:   body,
		Headers: toHeaders(forward.Headers(ev, props)),
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.w.WriteMessages(ctx, km); err != nil {
		s.l.Error("forward returned message",
			zap.String("topic", s.topic),
			zap.Stringer("return", ev),
			zap.Error(err))
		s.DefaultChannelSink.OnPublishReturn(ctx, ch, ev, props, body)
		return
	}
	s.l.Debug("returned message forwarded",
		zap.String("topic", s.topic),
		zap.Int("body_len", len(body)))
}

// Close flushes and closes the writer. Later returns are only logged.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.w.Close(); err != nil {
		return fmt.Errorf("amqpnotify/kafka: close writer: %w", err)
	}
	return nil
}

// toHeaders converts a string map to Kafka headers.
func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(h))
	for k, v := range h {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// optsFromConfig extracts options from the registry.Config.Extra map.
func optsFromConfig(cfg registry.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["async"].(bool); ok && v {
		opts = append(opts, WithAsync(true))
	}
	if v, ok := cfg.Extra["batch_size"].(int); ok {
		opts = append(opts, WithBatchSize(v))
	}
	return opts
}

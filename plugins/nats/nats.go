package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
	"github.com/miladsoleymani/amqpnotify/internal/forward"
	"github.com/miladsoleymani/amqpnotify/registry"
)

func init() {
	registry.Register("nats", func(cfg registry.Config, l *zap.Logger) (core.ChannelSink, error) {
		if len(cfg.Addrs) == 0 {
			return nil, fmt.Errorf("amqpnotify/nats: at least one server URL is required")
		}
		if cfg.Topic == "" {
			return nil, fmt.Errorf("amqpnotify/nats: topic is required")
		}
		opts := append(optsFromConfig(cfg), WithFilter(cfg.Filter))
		s, err := New(cfg.Addrs[0], cfg.Topic, l, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// publisher is the part of jetstream.JetStream the forwarder uses.
type publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Sink is a core.ChannelSink that forwards returned messages to NATS
// JetStream, so unroutable publishes are kept instead of only logged.
//
// Returned messages are published to "<subject>.<routing key>" with the body
// unchanged and the return metadata as headers. Every other notification,
// and every return that is filtered out or fails to publish, goes to the
// embedded DefaultChannelSink.
//
// Publishing happens on the channel's dispatch loop: a slow NATS server
// slows down the AMQP channel, bounded by WithTimeout.
type Sink struct {
	*core.DefaultChannelSink

	conn    *nats.Conn
	pub     publisher
	subject string
	filter  forward.Filter
	opts    options
	l       *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New connects to url and returns a Sink forwarding under subject.
func New(url, subject string, l *zap.Logger, fns ...Option) (*Sink, error) {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("amqpnotify/nats: connect to %q: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("amqpnotify/nats: init jetstream: %w", err)
	}

	if opts.createStream {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		name := sanitizeStreamName(subject)
		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      name,
			Subjects:  []string{subject, subject + ".>"},
			MaxMsgs:   opts.maxMsgs,
			MaxBytes:  opts.maxBytes,
			MaxAge:    opts.maxAge,
			Replicas:  opts.replicas,
			Retention: opts.retention,
			Storage:   opts.storage,
		}); err != nil {
			nc.Close()
			return nil, fmt.Errorf("amqpnotify/nats: create stream %q: %w", name, err)
		}
	}

	s := newSink(js, subject, l, opts)
	s.conn = nc
	return s, nil
}

func newSink(pub publisher, subject string, l *zap.Logger, opts options) *Sink {
	if l == nil {
		l = zap.NewNop()
	}
	return &Sink{
		DefaultChannelSink: core.NewDefaultChannelSink(l),
		pub:                pub,
		subject:            subject,
		filter:             forward.Filter{Pattern: opts.filter},
		opts:               opts,
		l:                  l.With(zap.String("forward", "nats")),
	}
}

// OnPublishReturn forwards the returned message when it passes the filter.
func (s *Sink) OnPublishReturn(ctx context.Context, ch core.Channel, ev core.ReturnEvent, props core.Properties, body []byte) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed || !s.filter.Match(ev.RoutingKey) {
		s.DefaultChannelSink.OnPublishReturn(ctx, ch, ev, props, body)
		return
	}

	msg := &nats.Msg{
		Subject: s.subjectFor(ev.RoutingKey),
		Data:    body,
		Header:  nats.Header{},
	}
	for k, v := range forward.Headers(ev, props) {
		msg.Header.Set(k, v)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if _, err := s.pub.PublishMsg(ctx, msg); err != nil {
		s.l.Error("forward returned message",
			zap.String("subject", msg.Subject),
			zap.Stringer("return", ev),
			zap.Error(err))
		s.DefaultChannelSink.OnPublishReturn(ctx, ch, ev, props, body)
		return
	}
	s.l.Debug("returned message forwarded",
		zap.String("subject", msg.Subject),
		zap.Int("body_len", len(body)))
}

// Close closes the NATS connection. Later returns are only logged.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

// subjectFor appends the routing key to the subject, one token per
// routing-key word.
func (s *Sink) subjectFor(routingKey string) string {
	if routingKey == "" {
		return s.subject
	}
	tokens := strings.Split(routingKey, ".")
	for i, tok := range tokens {
		if tok == "" {
			tokens[i] = "_"
			continue
		}
		tokens[i] = sanitizeToken(tok)
	}
	return s.subject + "." + strings.Join(tokens, ".")
}

// sanitizeToken replaces characters that are not allowed in a NATS subject token.
func sanitizeToken(tok string) string {
	buf := make([]byte, len(tok))
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c == '*' || c == '>' || c == ' ' || c == '\t' {
			buf[i] = '-'
		} else {
			buf[i] = c
		}
	}
	return string(buf)
}

// sanitizeStreamName converts a subject to a valid stream name
// by replacing special characters.
func sanitizeStreamName(subject string) string {
	return strings.ReplaceAll(sanitizeToken(subject), ".", "-")
}

// optsFromConfig extracts options from registry.Config.Extra.
func optsFromConfig(cfg registry.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["create_stream"].(bool); ok {
		opts = append(opts, WithCreateStream(v))
	}
	if v, ok := cfg.Extra["replicas"].(int); ok {
		opts = append(opts, WithReplicas(v))
	}
	if v, ok := cfg.Extra["max_messages"].(int); ok {
		opts = append(opts, WithMaxMessages(int64(v)))
	}
	return opts
}

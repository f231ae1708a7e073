package nats

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Option configures the NATS return forwarder.
type Option func(*options)

type options struct {
	// Stream
	createStream bool
	maxMsgs      int64
	maxBytes     int64
	maxAge       time.Duration
	replicas     int
	retention    jetstream.RetentionPolicy
	storage      jetstream.StorageType

	// Publish
	filter  string
	timeout time.Duration
}

func defaults() options {
	return options{
		createStream: true,
		maxMsgs:      -1, // unlimited
		maxBytes:     -1,
		maxAge:       0,
		replicas:     1,
		retention:    jetstream.LimitsPolicy,
		storage:      jetstream.FileStorage,
		timeout:      5 * time.Second,
	}
}

// WithCreateStream controls whether New creates (or updates) the stream
// capturing the forward subject. Disable it when the stream is managed elsewhere.
func WithCreateStream(create bool) Option {
	return func(o *options) { o.createStream = create }
}

// WithMaxMessages sets the maximum number of messages per stream.
func WithMaxMessages(n int64) Option {
	return func(o *options) { o.maxMsgs = n }
}

// WithMaxBytes sets the maximum total size of a stream.
func WithMaxBytes(n int64) Option {
	return func(o *options) { o.maxBytes = n }
}

// WithMaxAge sets the maximum age of messages in the stream.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) { o.maxAge = d }
}

// WithReplicas sets the stream replication factor.
func WithReplicas(n int) Option {
	return func(o *options) { o.replicas = n }
}

// WithRetention sets the stream retention policy.
func WithRetention(r jetstream.RetentionPolicy) Option {
	return func(o *options) { o.retention = r }
}

// WithStorage sets the stream storage type (file or memory).
func WithStorage(s jetstream.StorageType) Option {
	return func(o *options) { o.storage = s }
}

// WithFilter forwards only returns whose routing key matches pattern.
func WithFilter(pattern string) Option {
	return func(o *options) { o.filter = pattern }
}

// WithTimeout bounds each publish. The dispatch loop of the channel waits
// for at most this long per returned message.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

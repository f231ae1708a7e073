package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Option configures the Kafka return forwarder.
type Option func(*options)

type options struct {
	// Writer
	balancer  kafka.Balancer
	batchSize int
	async     bool
	timeout   time.Duration

	// Forwarding
	filter string

	// General
	dialer *kafka.Dialer
}

func defaults() options {
	return options{
		balancer:  &kafka.Hash{}, // keep one routing key on one partition
		batchSize: 1,
		timeout:   5 * time.Second,
	}
}

// WithBalancer sets the partition balancer for the writer.
func WithBalancer(b kafka.Balancer) Option {
	return func(o *options) { o.balancer = b }
}

// WithBatchSize sets the maximum batch size for writes.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithAsync enables asynchronous writes. Write errors are then lost, but the
// channel's dispatch loop no longer waits for Kafka.
func WithAsync(async bool) Option {
	return func(o *options) { o.async = async }
}

// WithTimeout bounds each write.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithFilter forwards only returns whose routing key matches pattern.
func WithFilter(pattern string) Option {
	return func(o *options) { o.filter = pattern }
}

// WithDialer takes the connection settings of d: Timeout, ClientID, TLS and
// SASLMechanism. Other Dialer fields are ignored.
func WithDialer(d *kafka.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

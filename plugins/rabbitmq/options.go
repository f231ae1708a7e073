package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
)

// Option configures a Conn.
type Option func(*options)

type options struct {
	config   *amqp.Config
	id       string
	logger   *zap.Logger
	sink     core.ConnectionSink
	dispatch []core.Option
}

func defaults() options {
	return options{logger: zap.NewNop()}
}

// WithConfig dials with the given amqp.Config instead of the defaults.
func WithConfig(cfg amqp.Config) Option {
	return func(o *options) { o.config = &cfg }
}

// WithID sets the connection id used in logs and handed to sinks.
// A random UUID is used otherwise.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithLogger sets the logger for the connection, its channels and the default sinks.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConnectionSink installs sink before any notification can arrive.
func WithConnectionSink(sink core.ConnectionSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithDispatchOptions passes options to every dispatcher the connection
// creates, for itself and for its channels.
func WithDispatchOptions(opts ...core.Option) Option {
	return func(o *options) { o.dispatch = append(o.dispatch, opts...) }
}

// ChannelOption configures a Channel.
type ChannelOption func(*channelOptions)

type channelOptions struct {
	sink    core.ChannelSink
	confirm bool
}

// WithChannelSink installs sink before any notification can arrive.
func WithChannelSink(sink core.ChannelSink) ChannelOption {
	return func(o *channelOptions) { o.sink = sink }
}

// WithConfirm puts the channel into publisher confirm mode, enabling
// ack and nack notifications.
func WithConfirm(confirm bool) ChannelOption {
	return func(o *channelOptions) { o.confirm = confirm }
}

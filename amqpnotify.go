// Package amqpnotify provides the top-level API for AMQP connection and
// channel notifications. It re-exports core types for convenience, so users
// can write:
//
//	d := amqpnotify.NewChannelDispatcher(ch, &amqpnotify.ChannelSinkFuncs{
//		Return: onReturn,
//	})
//	d.DispatchReturn(ctx, ev, props, body)
package amqpnotify

import (
	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Connection = core.Connection
	Channel    = core.Channel

	ConnectionSink      = core.ConnectionSink
	ChannelSink         = core.ChannelSink
	ConnectionSinkFuncs = core.ConnectionSinkFuncs
	ChannelSinkFuncs    = core.ChannelSinkFuncs

	CloseEvent     = core.CloseEvent
	BlockedEvent   = core.BlockedEvent
	UnblockedEvent = core.UnblockedEvent
	FlowEvent      = core.FlowEvent
	AckEvent       = core.AckEvent
	NackEvent      = core.NackEvent
	ReturnEvent    = core.ReturnEvent
	Properties     = core.Properties

	ConnectionDispatcher = core.ConnectionDispatcher
	ChannelDispatcher    = core.ChannelDispatcher
	Option               = core.Option
	Middleware           = core.Middleware
)

// NewConnectionDispatcher creates a dispatcher for conn with sink installed.
func NewConnectionDispatcher(conn Connection, sink ConnectionSink, fns ...Option) *ConnectionDispatcher {
	return core.NewConnectionDispatcher(conn, sink, fns...)
}

// NewChannelDispatcher creates a dispatcher for ch with sink installed.
func NewChannelDispatcher(ch Channel, sink ChannelSink, fns ...Option) *ChannelDispatcher {
	return core.NewChannelDispatcher(ch, sink, fns...)
}

// DefaultConnectionSink returns the logging sink installed when none is given.
func DefaultConnectionSink(l *zap.Logger) ConnectionSink {
	return core.NewDefaultConnectionSink(l)
}

// DefaultChannelSink returns the logging sink installed when none is given.
func DefaultChannelSink(l *zap.Logger) ChannelSink {
	return core.NewDefaultChannelSink(l)
}

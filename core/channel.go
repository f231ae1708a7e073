package core

import (
	"bytes"
	"context"
	"sync/atomic"
)

// ChannelDispatcher owns the ChannelSink of one channel and delivers that
// channel's notifications to it. It follows the same blocking, ordering and
// close rules as ConnectionDispatcher.
//
// Confirms are checked against the tags seen so far: they must be non-zero
// and never lower than a tag already confirmed. Once RecordPublish has been
// used, tags above the highest recorded one are rejected too.
type ChannelDispatcher struct {
	dispatcher

	ch   Channel
	sink ChannelSink

	// published is outside mu so that sinks may publish on their own channel.
	published atomic.Uint64
	confirmed uint64
}

// NewChannelDispatcher creates a dispatcher for ch. A nil sink installs a
// DefaultChannelSink using the dispatcher's logger.
func NewChannelDispatcher(ch Channel, sink ChannelSink, fns ...Option) *ChannelDispatcher {
	if ch == nil {
		ch = ChannelRef{Conn: NewConnectionRef().ID()}
	}
	d := &ChannelDispatcher{
		dispatcher: newDispatcher(ScopeChannel, chanID(ch), fns),
		ch:         ch,
	}
	d.sink = d.orDefault(sink)
	return d
}

// Install replaces the sink and returns the one it replaces. It waits for
// any sink call in flight. Calling it from inside a sink of the same
// channel deadlocks.
func (d *ChannelDispatcher) Install(sink ChannelSink) ChannelSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.sink
	d.sink = d.orDefault(sink)
	return prev
}

// Sink returns the installed sink.
func (d *ChannelDispatcher) Sink() ChannelSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sink
}

// IsClosed reports whether the close notification has been delivered.
func (d *ChannelDispatcher) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// RecordPublish registers that a message with the given delivery tag is
// being published. Call it before the message is sent, since the confirm
// may arrive before the send returns. It does not wait for sink calls in
// flight and may be called from inside a sink.
func (d *ChannelDispatcher) RecordPublish(tag uint64) {
	for {
		cur := d.published.Load()
		if tag <= cur || d.published.CompareAndSwap(cur, tag) {
			return
		}
	}
}

// Confirmed returns the highest delivery tag delivered to the sink.
func (d *ChannelDispatcher) Confirmed() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confirmed
}

// DispatchClose delivers the terminal close notification.
func (d *ChannelDispatcher) DispatchClose(ctx context.Context, ev CloseEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.reject(KindClose, ev, ErrContextClosed)
		return
	}
	d.closed = true

	sink, ch := d.sink, d.ch
	d.deliver(ctx, KindClose, ev, func(ctx context.Context) {
		sink.OnClose(ctx, ch, ev)
	})
}

func (d *ChannelDispatcher) DispatchFlow(ctx context.Context, ev FlowEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.reject(KindFlow, ev, ErrContextClosed)
		return
	}

	sink, ch := d.sink, d.ch
	d.deliver(ctx, KindFlow, ev, func(ctx context.Context) {
		sink.OnFlow(ctx, ch, ev)
	})
}

func (d *ChannelDispatcher) DispatchAck(ctx context.Context, ev AckEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkConfirm(ev.DeliveryTag); err != nil {
		d.reject(KindAck, ev, err)
		return
	}
	d.confirmed = ev.DeliveryTag

	sink, ch := d.sink, d.ch
	d.deliver(ctx, KindAck, ev, func(ctx context.Context) {
		sink.OnPublishAck(ctx, ch, ev)
	})
}

func (d *ChannelDispatcher) DispatchNack(ctx context.Context, ev NackEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkConfirm(ev.DeliveryTag); err != nil {
		d.reject(KindNack, ev, err)
		return
	}
	d.confirmed = ev.DeliveryTag

	sink, ch := d.sink, d.ch
	d.deliver(ctx, KindNack, ev, func(ctx context.Context) {
		sink.OnPublishNack(ctx, ch, ev)
	})
}

// DispatchReturn delivers a returned message. props and body are copied
// before the call, so the caller may reuse its buffers afterwards.
func (d *ChannelDispatcher) DispatchReturn(ctx context.Context, ev ReturnEvent, props Properties, body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.reject(KindReturn, ev, ErrContextClosed)
		return
	}

	props = props.Clone()
	body = bytes.Clone(body)
	sink, ch := d.sink, d.ch
	d.deliver(ctx, KindReturn, ev, func(ctx context.Context) {
		sink.OnPublishReturn(ctx, ch, ev, props, body)
	})
}

// checkConfirm validates a confirm tag. Callers hold d.mu.
func (d *ChannelDispatcher) checkConfirm(tag uint64) error {
	published := d.published.Load()
	switch {
	case d.closed:
		return ErrContextClosed
	case tag == 0:
		return ErrDeliveryTagRange
	case published > 0 && tag > published:
		return ErrDeliveryTagRange
	case tag < d.confirmed:
		return ErrDeliveryTagOrder
	}
	return nil
}

func (d *ChannelDispatcher) orDefault(sink ChannelSink) ChannelSink {
	if sink == nil {
		return NewDefaultChannelSink(d.opts.logger)
	}
	return sink
}

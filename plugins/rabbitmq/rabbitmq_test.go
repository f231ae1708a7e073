package rabbitmq

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/amqpnotify/core"
	"github.com/miladsoleymani/amqpnotify/internal/mock"
)

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not return")
	}
}

func TestPumpConnection(t *testing.T) {
	sink := &mock.ConnectionSink{}
	d := core.NewConnectionDispatcher(core.ConnectionRef("c1"), sink)

	closes := make(chan *amqp.Error, 1)
	blocks := make(chan amqp.Blocking)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpConnection(context.Background(), d, connNotifications{closes: closes, blocks: blocks})
	}()

	blocks <- amqp.Blocking{Active: true, Reason: "low on memory"}
	blocks <- amqp.Blocking{Active: false}
	closes <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED", Server: true}
	waitDone(t, done)

	assert.Equal(t, []core.EventKind{core.KindBlocked, core.KindUnblocked, core.KindClose}, sink.Kinds())
	calls := sink.Calls()
	assert.Equal(t, core.BlockedEvent{Reason: "low on memory"}, calls[0].Event)
	assert.Equal(t, core.CloseEvent{ReplyCode: 320, ReplyText: "CONNECTION_FORCED", Server: true}, calls[2].Event)
	assert.Equal(t, "c1", calls[2].ConnectionID)
	assert.True(t, d.IsClosed())
}

func TestPumpConnection_ClosedChannel(t *testing.T) {
	sink := &mock.ConnectionSink{}
	d := core.NewConnectionDispatcher(core.ConnectionRef("c1"), sink)

	closes := make(chan *amqp.Error)
	blocks := make(chan amqp.Blocking)
	close(blocks)
	close(closes)

	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpConnection(context.Background(), d, connNotifications{closes: closes, blocks: blocks})
	}()
	waitDone(t, done)

	calls := sink.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, core.CloseEvent{ReplyCode: 200, ReplyText: "normal shutdown"}, calls[0].Event)
}

func TestPumpChannel(t *testing.T) {
	sink := &mock.ChannelSink{}
	d := core.NewChannelDispatcher(core.ChannelRef{Conn: "c1", Number: 1}, sink)

	n := channelNotifications{}
	closes := make(chan *amqp.Error, 1)
	flows := make(chan bool)
	confirms := make(chan amqp.Confirmation)
	returns := make(chan amqp.Return)
	n.closes, n.flows, n.confirms, n.returns = closes, flows, confirms, returns

	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpChannel(context.Background(), d, n)
	}()

	d.RecordPublish(1)
	d.RecordPublish(2)
	flows <- false
	confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	returns <- amqp.Return{
		ReplyCode:  amqp.NoRoute,
		ReplyText:  "NO_ROUTE",
		Exchange:   "orders",
		RoutingKey: "orders.unknown",
		MessageId:  "m-1",
		Body:       []byte("payload"),
	}
	confirms <- amqp.Confirmation{DeliveryTag: 2, Ack: false}
	flows <- true
	closes <- nil
	waitDone(t, done)

	assert.Equal(t, []core.EventKind{
		core.KindFlow, core.KindAck, core.KindReturn, core.KindNack, core.KindFlow, core.KindClose,
	}, sink.Kinds())

	calls := sink.Calls()
	assert.Equal(t, core.AckEvent{DeliveryTag: 1}, calls[1].Event)
	assert.Equal(t, core.ReturnEvent{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: "orders", RoutingKey: "orders.unknown"}, calls[2].Event)
	assert.Equal(t, "m-1", calls[2].Properties.MessageID)
	assert.Equal(t, []byte("payload"), calls[2].Body)
	assert.Equal(t, core.NackEvent{DeliveryTag: 2}, calls[3].Event)
	assert.Equal(t, uint16(200), calls[5].Event.(core.CloseEvent).ReplyCode)
	assert.Equal(t, uint16(1), calls[5].ChannelID)
}

func TestPumpChannel_WithoutConfirms(t *testing.T) {
	sink := &mock.ChannelSink{}
	d := core.NewChannelDispatcher(core.ChannelRef{Conn: "c1", Number: 2}, sink)

	closes := make(chan *amqp.Error, 1)
	flows := make(chan bool)
	returns := make(chan amqp.Return)
	close(flows)
	close(returns)

	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpChannel(context.Background(), d, channelNotifications{closes: closes, flows: flows, returns: returns})
	}()

	closes <- &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED", Server: true}
	waitDone(t, done)

	assert.Equal(t, []core.EventKind{core.KindClose}, sink.Kinds())
	assert.Equal(t, uint16(406), sink.Calls()[0].Event.(core.CloseEvent).ReplyCode)
}

func TestCloseEvent(t *testing.T) {
	assert.Equal(t, core.CloseEvent{ReplyCode: 200, ReplyText: "normal shutdown"}, closeEvent(nil))
	assert.Equal(t,
		core.CloseEvent{ReplyCode: 501, ReplyText: "FRAME_ERROR"},
		closeEvent(&amqp.Error{Code: amqp.FrameError, Reason: "FRAME_ERROR"}))
}

func TestReturned(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev, props := returned(amqp.Return{
		ReplyCode:       312,
		ReplyText:       "NO_ROUTE",
		Exchange:        "amq.direct",
		RoutingKey:      "nowhere",
		ContentType:     "application/json",
		ContentEncoding: "gzip",
		Headers:         amqp.Table{"attempt": int32(3)},
		DeliveryMode:    amqp.Persistent,
		Priority:        4,
		CorrelationId:   "corr",
		ReplyTo:         "replies",
		Expiration:      "60000",
		MessageId:       "m-9",
		Timestamp:       ts,
		Type:            "order.created",
		UserId:          "guest",
		AppId:           "billing",
	})

	assert.Equal(t, core.ReturnEvent{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: "amq.direct", RoutingKey: "nowhere"}, ev)
	assert.Equal(t, core.Properties{
		ContentType:     "application/json",
		ContentEncoding: "gzip",
		Headers:         map[string]any{"attempt": int32(3)},
		DeliveryMode:    2,
		Priority:        4,
		CorrelationID:   "corr",
		ReplyTo:         "replies",
		Expiration:      "60000",
		MessageID:       "m-9",
		Timestamp:       ts,
		Type:            "order.created",
		UserID:          "guest",
		AppID:           "billing",
	}, props)
}

func TestReturned_NestedHeaders(t *testing.T) {
	_, props := returned(amqp.Return{Headers: amqp.Table{
		"x-death": []any{amqp.Table{"count": int64(1), "queue": "orders"}},
		"origin":  amqp.Table{"region": "eu"},
	}})

	assert.Equal(t, map[string]any{
		"x-death": []any{map[string]any{"count": int64(1), "queue": "orders"}},
		"origin":  map[string]any{"region": "eu"},
	}, props.Headers)

	_, props = returned(amqp.Return{})
	assert.Nil(t, props.Headers)
}

func TestConfirm(t *testing.T) {
	assert.Equal(t, core.AckEvent{DeliveryTag: 7}, confirmAck(amqp.Confirmation{DeliveryTag: 7, Ack: true}))
	assert.Equal(t, core.NackEvent{DeliveryTag: 8}, confirmNack(amqp.Confirmation{DeliveryTag: 8}))
}

func TestOptions(t *testing.T) {
	sink := &mock.ConnectionSink{}
	opts := defaults()
	for _, fn := range []Option{WithID("orders-conn"), WithConnectionSink(sink), WithConfig(amqp.Config{Heartbeat: time.Second})} {
		fn(&opts)
	}
	assert.Equal(t, "orders-conn", opts.id)
	assert.Same(t, sink, opts.sink)
	require.NotNil(t, opts.config)
	assert.Equal(t, time.Second, opts.config.Heartbeat)

	var chOpts channelOptions
	WithConfirm(true)(&chOpts)
	assert.True(t, chOpts.confirm)
}

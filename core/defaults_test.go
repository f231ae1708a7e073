package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/miladsoleymani/amqpnotify/core"
)

func TestDefaultConnectionSink(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	s := core.NewDefaultConnectionSink(zap.New(obs))
	ctx := context.Background()
	conn := core.ConnectionRef("c1")

	s.OnBlocked(ctx, conn, core.BlockedEvent{Reason: "low on memory"})
	s.OnUnblocked(ctx, conn, core.UnblockedEvent{})
	s.OnClose(ctx, conn, core.CloseEvent{ReplyCode: 320, ReplyText: "CONNECTION_FORCED"})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "low on memory", entries[0].ContextMap()["reason"])
	assert.Equal(t, "c1", entries[0].ContextMap()["connection"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "connection unblocked by server", entries[1].Message)

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Contains(t, entries[2].ContextMap()["close"], "CONNECTION_FORCED")
}

func TestDefaultChannelSink(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	s := core.NewDefaultChannelSink(zap.New(obs))
	ctx := context.Background()
	ch := core.ChannelRef{Conn: "c1", Number: 3}

	s.OnFlow(ctx, ch, core.FlowEvent{Active: false})
	s.OnPublishAck(ctx, ch, core.AckEvent{DeliveryTag: 9, Multiple: true})
	s.OnPublishNack(ctx, ch, core.NackEvent{DeliveryTag: 10, Requeue: true})
	s.OnClose(ctx, ch, core.CloseEvent{ReplyCode: 404})

	entries := logs.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, "c1", e.ContextMap()["connection"])
		assert.Equal(t, uint16(3), e.ContextMap()["channel"])
	}
	assert.Equal(t, false, entries[0].ContextMap()["active"])
	assert.Equal(t, uint64(9), entries[1].ContextMap()["delivery_tag"])
	assert.Equal(t, true, entries[2].ContextMap()["requeue"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestDefaultChannelSink_TextReturn(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	s := core.NewDefaultChannelSink(zap.New(obs))

	s.OnPublishReturn(context.Background(), core.ChannelRef{Conn: "c1", Number: 1},
		core.ReturnEvent{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: "amq.direct", RoutingKey: "nowhere"},
		core.Properties{ContentType: "text/plain"},
		[]byte("hello"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "hello", entries[0].ContextMap()["body"])
	assert.Contains(t, entries[0].ContextMap()["return"], "nowhere")
	assert.Contains(t, entries[0].ContextMap()["properties"], "text/plain")
}

func TestDefaultChannelSink_BinaryReturn(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	s := core.NewDefaultChannelSink(zap.New(obs))

	assert.NotPanics(t, func() {
		s.OnPublishReturn(context.Background(), core.ChannelRef{Conn: "c1", Number: 1},
			core.ReturnEvent{RoutingKey: "nowhere"}, core.Properties{}, []byte{0xff, 0xfe, 0x00})
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["body_len"])
	assert.Contains(t, entries[0].ContextMap()["error"], "not valid utf-8")
}

func TestDefaultSinks_NilLogger(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		core.NewDefaultConnectionSink(nil).OnClose(ctx, core.ConnectionRef("c1"), core.CloseEvent{})
		core.NewDefaultChannelSink(nil).OnPublishReturn(ctx, core.ChannelRef{}, core.ReturnEvent{}, core.Properties{}, []byte{0xff})
		var zero core.DefaultChannelSink
		zero.OnFlow(ctx, core.ChannelRef{}, core.FlowEvent{})
	})
}

func TestDefaultSinks_SwallowLoggingFailure(t *testing.T) {
	obs, _ := observer.New(zapcore.DebugLevel)
	broken := zap.New(obs, zap.Hooks(func(zapcore.Entry) error {
		panic("log backend unavailable")
	}))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		core.NewDefaultConnectionSink(broken).OnBlocked(ctx, core.ConnectionRef("c1"), core.BlockedEvent{})
		core.NewDefaultChannelSink(broken).OnPublishReturn(ctx, core.ChannelRef{}, core.ReturnEvent{}, core.Properties{}, []byte{0xff})
	})
}

func TestDispatcher_DefaultSinkUsesDispatcherLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	d := core.NewChannelDispatcher(core.ChannelRef{Conn: "c1", Number: 2}, nil, core.WithLogger(zap.New(obs)))

	d.DispatchReturn(context.Background(), core.ReturnEvent{RoutingKey: "nowhere"}, core.Properties{}, []byte{0xc3, 0x28})

	assert.Equal(t, 1, logs.FilterMessage("channel publish return from server").FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 0, logs.FilterMessage("sink failed").Len())
}

package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/miladsoleymani/amqpnotify/core"
)

// replySuccess is the AMQP 0-9-1 reply-success code (200); amqp091-go does
// not export it.
const replySuccess = 200

// closeEvent converts the error delivered on a NotifyClose channel. A nil
// error is a graceful, client-initiated close.
func closeEvent(err *amqp.Error) core.CloseEvent {
	if err == nil {
		return core.CloseEvent{ReplyCode: replySuccess, ReplyText: "normal shutdown"}
	}
	return core.CloseEvent{
		ReplyCode: uint16(err.Code),
		ReplyText: err.Reason,
		Server:    err.Server,
	}
}

func confirmAck(c amqp.Confirmation) core.AckEvent {
	return core.AckEvent{DeliveryTag: c.DeliveryTag}
}

func confirmNack(c amqp.Confirmation) core.NackEvent {
	return core.NackEvent{DeliveryTag: c.DeliveryTag}
}

// returned splits an amqp.Return into the event and properties sinks receive.
func returned(r amqp.Return) (core.ReturnEvent, core.Properties) {
	ev := core.ReturnEvent{
		ReplyCode:  r.ReplyCode,
		ReplyText:  r.ReplyText,
		Exchange:   r.Exchange,
		RoutingKey: r.RoutingKey,
	}
	props := core.Properties{
		ContentType:     r.ContentType,
		ContentEncoding: r.ContentEncoding,
		Headers:         headers(r.Headers),
		DeliveryMode:    r.DeliveryMode,
		Priority:        r.Priority,
		CorrelationID:   r.CorrelationId,
		ReplyTo:         r.ReplyTo,
		Expiration:      r.Expiration,
		MessageID:       r.MessageId,
		Timestamp:       r.Timestamp,
		Type:            r.Type,
		UserID:          r.UserId,
		AppID:           r.AppId,
	}
	return ev, props
}

// headers converts an amqp.Table, including nested tables and arrays, to
// plain maps and slices.
func headers(t amqp.Table) map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = headerValue(v)
	}
	return out
}

func headerValue(v any) any {
	switch v := v.(type) {
	case amqp.Table:
		return headers(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = headerValue(e)
		}
		return out
	default:
		return v
	}
}

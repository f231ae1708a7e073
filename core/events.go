package core

import (
	"bytes"
	"fmt"
	"time"
)

// Scope tells whether a notification belongs to a connection or a channel.
type Scope uint8

const (
	ScopeConnection Scope = iota + 1
	ScopeChannel
)

func (s Scope) String() string {
	switch s {
	case ScopeConnection:
		return "connection"
	case ScopeChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// EventKind identifies the sink method a notification is delivered to.
type EventKind uint8

const (
	KindClose EventKind = iota + 1
	KindBlocked
	KindUnblocked
	KindFlow
	KindAck
	KindNack
	KindReturn
)

func (k EventKind) String() string {
	switch k {
	case KindClose:
		return "close"
	case KindBlocked:
		return "blocked"
	case KindUnblocked:
		return "unblocked"
	case KindFlow:
		return "flow"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindReturn:
		return "return"
	default:
		return "unknown"
	}
}

// CloseEvent is a connection.close or channel.close received from (or
// raised on behalf of) the peer.
type CloseEvent struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
	// Server is true when the peer initiated the shutdown.
	Server bool
}

func (e CloseEvent) String() string {
	return fmt.Sprintf("Close(code=%d, text=%q, class=%d, method=%d, server=%t)",
		e.ReplyCode, e.ReplyText, e.ClassID, e.MethodID, e.Server)
}

// BlockedEvent is connection.blocked: the server stopped accepting publishes.
type BlockedEvent struct {
	Reason string
}

func (e BlockedEvent) String() string {
	return fmt.Sprintf("Blocked(reason=%q)", e.Reason)
}

// UnblockedEvent is connection.unblocked.
type UnblockedEvent struct{}

func (UnblockedEvent) String() string { return "Unblocked" }

// FlowEvent is channel.flow. Active false asks the client to pause publishing.
type FlowEvent struct {
	Active bool
}

func (e FlowEvent) String() string {
	return fmt.Sprintf("Flow(active=%t)", e.Active)
}

// AckEvent is a positive publisher confirm. Multiple covers every
// unconfirmed tag up to and including DeliveryTag.
type AckEvent struct {
	DeliveryTag uint64
	Multiple    bool
}

func (e AckEvent) String() string {
	return fmt.Sprintf("Ack(tag=%d, multiple=%t)", e.DeliveryTag, e.Multiple)
}

// NackEvent is a negative publisher confirm.
type NackEvent struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (e NackEvent) String() string {
	return fmt.Sprintf("Nack(tag=%d, multiple=%t, requeue=%t)", e.DeliveryTag, e.Multiple, e.Requeue)
}

// ReturnEvent is basic.return for a mandatory or immediate publish that
// could not be routed.
type ReturnEvent struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (e ReturnEvent) String() string {
	return fmt.Sprintf("Return(code=%d, text=%q, exchange=%q, routing_key=%q)",
		e.ReplyCode, e.ReplyText, e.Exchange, e.RoutingKey)
}

// Properties holds the basic content-header properties of a returned message.
type Properties struct {
	ContentType     string         // MIME content type
	ContentEncoding string         // MIME content encoding
	Headers         map[string]any // application headers; nested tables are map[string]any
	DeliveryMode    uint8          // 1 transient, 2 persistent
	Priority        uint8          // 0 to 9
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string
}

// Clone returns a copy that shares no memory with p. Nested tables,
// arrays and byte slices in Headers are copied too.
func (p Properties) Clone() Properties {
	if p.Headers != nil {
		p.Headers = cloneTable(p.Headers)
	}
	return p
}

func cloneTable(t map[string]any) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneTable(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []byte:
		return bytes.Clone(v)
	default:
		return v
	}
}

func (p Properties) String() string {
	return fmt.Sprintf("Properties(content_type=%q, content_encoding=%q, headers=%v, delivery_mode=%d, priority=%d, correlation_id=%q, reply_to=%q, expiration=%q, message_id=%q, timestamp=%s, type=%q, user_id=%q, app_id=%q)",
		p.ContentType, p.ContentEncoding, p.Headers, p.DeliveryMode, p.Priority,
		p.CorrelationID, p.ReplyTo, p.Expiration, p.MessageID,
		p.Timestamp.Format(time.RFC3339), p.Type, p.UserID, p.AppID)
}

// Package forward holds what the return-forwarding sinks share: routing-key
// filtering and the mapping of a returned message onto string headers.
package forward

import (
	"fmt"
	"strconv"
	"time"

	"github.com/miladsoleymani/amqpnotify/core"
)

// Header names describing where a forwarded message was returned from.
const (
	HeaderReplyCode  = "x-amqp-reply-code"
	HeaderReplyText  = "x-amqp-reply-text"
	HeaderExchange   = "x-amqp-exchange"
	HeaderRoutingKey = "x-amqp-routing-key"
)

// Filter selects returned messages by routing key.
type Filter struct {
	Pattern string
	Matcher core.RoutingKeyMatcher
}

// Match reports whether routingKey passes the filter. An empty pattern
// matches everything.
func (f Filter) Match(routingKey string) bool {
	if f.Pattern == "" {
		return true
	}
	m := f.Matcher
	if m == nil {
		m = core.TopicMatcher{}
	}
	return m.Match(f.Pattern, routingKey)
}

// Headers flattens a returned message's metadata into string headers.
// Application headers are copied verbatim; they never override the
// x-amqp-* headers.
func Headers(ev core.ReturnEvent, props core.Properties) map[string]string {
	h := make(map[string]string, len(props.Headers)+12)
	for k, v := range props.Headers {
		if s, ok := v.(string); ok {
			h[k] = s
		} else {
			h[k] = fmt.Sprintf("%v", v)
		}
	}

	set := func(k, v string) {
		if v != "" {
			h[k] = v
		}
	}
	set("content-type", props.ContentType)
	set("content-encoding", props.ContentEncoding)
	set("correlation-id", props.CorrelationID)
	set("reply-to", props.ReplyTo)
	set("message-id", props.MessageID)
	set("type", props.Type)
	set("app-id", props.AppID)
	if !props.Timestamp.IsZero() {
		h["timestamp"] = props.Timestamp.UTC().Format(time.RFC3339)
	}

	h[HeaderReplyCode] = strconv.Itoa(int(ev.ReplyCode))
	h[HeaderReplyText] = ev.ReplyText
	h[HeaderExchange] = ev.Exchange
	h[HeaderRoutingKey] = ev.RoutingKey
	return h
}

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrContextClosed is reported when a notification arrives after the
	// connection or channel already delivered its close.
	ErrContextClosed = errors.New("amqpnotify: context already closed")

	// ErrUnmatchedUnblocked is reported for an unblocked notification with
	// no preceding unmatched blocked notification.
	ErrUnmatchedUnblocked = errors.New("amqpnotify: unblocked without blocked")

	// ErrAlreadyBlocked is reported for a blocked notification while the
	// connection is already blocked.
	ErrAlreadyBlocked = errors.New("amqpnotify: connection already blocked")

	// ErrDeliveryTagOrder is reported for a confirm whose delivery tag is
	// lower than a tag already confirmed on the channel.
	ErrDeliveryTagOrder = errors.New("amqpnotify: delivery tag out of order")

	// ErrDeliveryTagRange is reported for a confirm whose delivery tag was
	// never published on the channel.
	ErrDeliveryTagRange = errors.New("amqpnotify: delivery tag out of range")

	// ErrInvalidUTF8 is wrapped by DecodingError when a body is not text.
	ErrInvalidUTF8 = errors.New("amqpnotify: body is not valid utf-8")
)

// HandlerError describes a panic raised by a sink while handling a notification.
type HandlerError struct {
	Scope     Scope
	Kind      EventKind
	ContextID string
	Value     any
	Stack     []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("amqpnotify: %s %s sink panicked on %s: %v", e.Scope, e.ContextID, e.Kind, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *HandlerError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// OrderingError is a notification the dispatcher refused to deliver because
// it would break the delivery guarantees. It points at a defect in the
// collaborator that classified the frame.
type OrderingError struct {
	Scope     Scope
	Kind      EventKind
	ContextID string
	Err       error
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("%v (%s %s, %s)", e.Err, e.Scope, e.ContextID, e.Kind)
}

func (e *OrderingError) Unwrap() error { return e.Err }

// DecodingError is a payload that could not be interpreted as expected.
type DecodingError struct {
	What string
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("amqpnotify: decode %s: %v", e.What, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

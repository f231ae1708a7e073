package core

import "github.com/google/uuid"

// ConnectionRef is a Connection handle identified by a string.
type ConnectionRef string

// NewConnectionRef returns a ConnectionRef with a random id.
func NewConnectionRef() ConnectionRef {
	return ConnectionRef(uuid.NewString())
}

func (r ConnectionRef) ID() string { return string(r) }

// ChannelRef is a Channel handle identified by its connection and number.
type ChannelRef struct {
	Conn   string
	Number uint16
}

func (r ChannelRef) ID() uint16           { return r.Number }
func (r ChannelRef) ConnectionID() string { return r.Conn }

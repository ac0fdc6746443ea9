// Package events keeps the append-only log of plan lifecycle events:
// batches scheduled, moved and removed, and demand that could not be placed.
package events

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is one immutable entry of the log
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	// Version is the 1-based position within the stream, assigned on append
	Version() int
}

// EventHandler receives events of the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events to streams and replays them
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

type record struct {
	id      string
	kind    string
	stream  string
	data    any
	at      time.Time
	version int
}

func (r record) ID() string           { return r.id }
func (r record) Type() string         { return r.kind }
func (r record) StreamID() string     { return r.stream }
func (r record) Data() any            { return r.data }
func (r record) Timestamp() time.Time { return r.at }
func (r record) Version() int         { return r.version }

// NewEvent creates an event for the stream. It carries no version until a
// store appends it.
func NewEvent(eventType, streamID string, data any) Event {
	return record{
		id:     uuid.NewString(),
		kind:   eventType,
		stream: streamID,
		data:   data,
		at:     time.Now().UTC(),
	}
}

// HandlerFunc adapts a function to EventHandler for a fixed set of types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	return slices.Contains(h.Types, eventType)
}

package mediator

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Command expresses an intent to change state. Commands are produced by
// callers and routed to command handlers by their concrete Go type.
//
// Command types should be comparable value types; the mediator never
// mutates them.
type Command interface {
	CommandName() string
}

// Event is a fact that state changed, or should change. Events are produced
// by command handlers and applied to state by event handlers.
//
// Event types should be comparable value types; the mediator never mutates
// them.
type Event interface {
	EventName() string
}

// Kind tags an Envelope as carrying a command or an event.
type Kind uint8

const (
	// KindCommand marks an envelope whose payload is a Command.
	KindCommand Kind = iota + 1
	// KindEvent marks an envelope whose payload is an Event.
	KindEvent
)

// String returns the lowercase kind name used in stored records.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Envelope is the unit that travels through a Store. Buses create envelopes
// when a message is handed to them and only act on envelopes of their own
// kind.
type Envelope struct {
	// ID uniquely identifies this delivery of the payload.
	ID uuid.UUID

	// Kind says whether Payload is a Command or an Event.
	Kind Kind

	// Payload is the Command or Event. Its concrete type is the routing key.
	Payload any

	// At is when the envelope was created.
	At time.Time
}

func newEnvelope(kind Kind, payload any) Envelope {
	return Envelope{
		ID:      uuid.New(),
		Kind:    kind,
		Payload: payload,
		At:      time.Now(),
	}
}

// Name returns the command or event name of the payload.
func (e Envelope) Name() string {
	switch e.Kind {
	case KindCommand:
		if c, ok := e.Payload.(Command); ok {
			return c.CommandName()
		}
	case KindEvent:
		if ev, ok := e.Payload.(Event); ok {
			return ev.EventName()
		}
	}
	return typeName(reflect.TypeOf(e.Payload))
}

// UnspecifiedEvent is recorded as the cause of a state change made through
// StateManager.SetState, where the caller has no domain event.
type UnspecifiedEvent struct{}

// EventName implements Event.
func (UnspecifiedEvent) EventName() string { return "unspecified" }

// ReasonEvent is recorded as the cause of a state change made through
// StateManager.SetStateWithReason.
type ReasonEvent struct {
	Reason string
}

// EventName implements Event.
func (e ReasonEvent) EventName() string { return e.Reason }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// isNil reports whether v is nil or holds a nil pointer, map, slice, func,
// channel or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

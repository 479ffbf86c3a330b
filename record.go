package mediator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Record is the stored form of an Envelope. Backends persist records; the
// payload is kept as JSON so records can be inspected without knowing the
// concrete Go type.
//
// A record marshals to:
//
//	{"id": "...", "kind": "event", "name": "counter/incremented",
//	 "type": "main.Incremented", "at": "...", "payload": {...}}
type Record struct {
	ID      uuid.UUID       `json:"id"`
	Kind    string          `json:"kind"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// NewRecord encodes an envelope as a Record.
func NewRecord(env Envelope) (Record, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s payload: %w", env.Name(), err)
	}
	return Record{
		ID:      env.ID,
		Kind:    env.Kind.String(),
		Name:    env.Name(),
		Type:    typeName(reflect.TypeOf(env.Payload)),
		At:      env.At,
		Payload: payload,
	}, nil
}

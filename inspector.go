package mediator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a record does not encode to valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Inspector turns a stored Record into a View for discriminator matching.
type Inspector interface {
	Inspect(r Record) (View, error)
}

// View exposes a stored record to discriminators: the decoded Record
// itself, plus path queries over its JSON form. Paths use gjson syntax, so
// "payload.amount" reaches into the payload.
type View interface {
	// Record returns the record being matched.
	Record() Record

	// HasField returns true if the path exists in the record.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetBytes returns the raw JSON at path, or false if not found.
	GetBytes(path string) ([]byte, bool)
}

// JSONInspector returns an Inspector that encodes each record once and
// answers path queries with gjson.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(r Record) (View, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{rec: r, raw: raw}, nil
}

type jsonView struct {
	rec Record
	raw []byte
}

func (v jsonView) Record() Record { return v.rec }

func (v jsonView) HasField(path string) bool {
	return gjson.GetBytes(v.raw, path).Exists()
}

func (v jsonView) GetString(path string) (string, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() || r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r := gjson.GetBytes(v.raw, path)
	if !r.Exists() {
		return nil, false
	}
	return []byte(r.Raw), true
}

package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Used where portability matters more than density (manifests, diagnostics).
// For the binary artifacts themselves, prefer Msgpack.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec for structured artifacts.
//
// Persisted envelopes are self-describing (they record the codec name), so
// changing the default does not orphan existing files.
var Default Codec = Msgpack{}

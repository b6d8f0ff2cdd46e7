package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attributes is an insertion-ordered string map for loosely shaped metadata.
// The zero value is not usable; create one with NewAttributes.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes returns an empty Attributes, optionally seeded with
// alternating key/value pairs.
func NewAttributes(kv ...string) *Attributes {
	a := &Attributes{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], kv[i+1])
	}
	return a
}

// Set stores value under key. Existing keys keep their position.
func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value for key.
func (a *Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// MarshalJSON encodes the attributes as a JSON object in insertion order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if a != nil {
		for i, k := range a.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(a.values[k])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of strings, keeping document order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading attributes: %w", err)
	}
	if tok == nil {
		*a = Attributes{values: make(map[string]string)}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes must be a JSON object")
	}

	out := Attributes{values: make(map[string]string)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading attribute key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attribute key must be a string")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading attributes: %w", err)
	}

	*a = out
	return nil
}

package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses entity records from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed records.
func (p *JSONParser) Parse(r io.Reader) ([]RawEntity, error) {
	return collect(p, r)
}

// Stream decodes array elements one at a time. LineNum holds the 1-based
// array index.
func (p *JSONParser) Stream(r io.Reader, fn func(RawEntity) error) error {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("parsing JSON: expected an array of entities")
	}

	for i := 1; decoder.More(); i++ {
		var raw RawEntity
		if err := decoder.Decode(&raw); err != nil {
			return fmt.Errorf("parsing JSON entity %d: %w", i, err)
		}
		raw.LineNum = i
		if err := fn(raw); err != nil {
			return err
		}
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

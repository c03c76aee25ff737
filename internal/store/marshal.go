package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/stats"
)

// marshalDocument converts a report document to canonical JSON TEXT.
func marshalDocument(doc map[string]any) (string, error) {
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses canonical JSON TEXT back into a document that
// re-marshals to the same bytes. Numbers decode as int64; report documents
// never carry fractional numbers (values are kind:literal strings).
func unmarshalDocument(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	v, err := integerNumbers(raw)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func integerNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("unmarshal document: non-integer number %s", val)
		}
		return n, nil
	case []any:
		for i, item := range val {
			converted, err := integerNumbers(item)
			if err != nil {
				return nil, err
			}
			val[i] = converted
		}
		return val, nil
	case map[string]any:
		for k, item := range val {
			converted, err := integerNumbers(item)
			if err != nil {
				return nil, err
			}
			val[k] = converted
		}
		return val, nil
	default:
		return v, nil
	}
}

// marshalCounter stores a counter in its contract form.
func marshalCounter(c stats.Counter) (string, error) {
	return marshalDocument(c.Document())
}

func unmarshalCounter(data string) (stats.Counter, error) {
	var c stats.Counter
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return stats.Counter{}, fmt.Errorf("unmarshal counter: %w", err)
	}
	return c, nil
}

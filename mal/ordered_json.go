package mal

import (
	"encoding/json"
	"fmt"
	"io"
)

// decodeOrderedObject reads a single JSON object from r and returns its
// keys in the order they appeared in the source text, alongside their
// raw (undecoded) values. Plain json.Unmarshal into a map loses this
// order — Go map iteration is unspecified — so every ordered field in
// the document model is rebuilt through this helper instead (spec §9,
// "Ordered mappings").
func decodeOrderedObject(r io.Reader) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var order []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		order = append(order, key)
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, nil, err
	}
	return order, values, nil
}

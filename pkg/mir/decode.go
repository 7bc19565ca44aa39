package mir

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Decode parses JSON or YAML text into the JSON value space. JSON is tried
// when the payload starts with an object or array delimiter; everything else
// goes through the YAML decoder, which also accepts JSON.
func Decode(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("mir: empty payload")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		var out any
		if err := json.Unmarshal(trimmed, &out); err == nil {
			return out, nil
		}
	}

	var out any
	if err := yaml.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("mir: decode payload: %w", err)
	}
	lit, ok := canonicalLiteral(out, 0)
	if !ok {
		return nil, errors.New("mir: payload is not representable as JSON")
	}
	return lit, nil
}

// Marshal encodes a document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mir: marshal document: %w", err)
	}
	return payload, nil
}

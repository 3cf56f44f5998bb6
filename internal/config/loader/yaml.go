package loader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML decodes YAML documents. Unknown keys are rejected.
type YAML struct{}

// Decode parses data into v. An empty document leaves v untouched.
func (YAML) Decode(source string, data []byte, v any) error {
	dec := yaml.NewDecoder(bytesReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return nil
}

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

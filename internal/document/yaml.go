package document

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when decoding an empty YAML stream.
var ErrEmptyDocument = errors.New("empty document")

// DecodeYAML decodes a document from its YAML plain-map form. A missing
// project id is replaced with a fresh one.
func DecodeYAML(data []byte) (Document, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}
	if m == nil {
		return Document{}, ErrEmptyDocument
	}
	d := FromMap(m)
	if d.ProjectID == "" {
		d.ProjectID = New(Options{}).ProjectID
	}
	return d, nil
}

// EncodeYAML encodes d in its YAML plain-map form.
func EncodeYAML(d Document) ([]byte, error) {
	data, err := yaml.Marshal(ToMap(d))
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

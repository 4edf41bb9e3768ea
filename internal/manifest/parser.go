package manifest

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/zero-infra/modregistry/internal/mod"
)

// Decode parses a manifest document (JSON or YAML) into a mod.Manifest.
// It performs no schema checks; call Validate first.
func Decode(data []byte) (*mod.Manifest, error) {
	jsonData, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var m mod.Manifest
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// unmarshalYAML decodes YAML into JSON-compatible generic values.
func unmarshalYAML(data []byte) (interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return normalizeYAML(raw), nil
}

// normalizeYAML recursively converts YAML-decoded values to JSON-compatible types.
// Non-string map keys, which JSON cannot represent, are formatted as strings.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []interface{}:
		a := make([]interface{}, len(val))
		for i, v := range val {
			a[i] = normalizeYAML(v)
		}
		return a
	default:
		return val
	}
}


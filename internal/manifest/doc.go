// Package manifest decodes and structurally validates mod manifests
// (mod.json). Documents may be JSON or YAML and are checked against the
// embedded JSON Schema before they are decoded into mod.Manifest values.
package manifest

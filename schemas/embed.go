// Package schemas provides access to embedded JSON schemas.
package schemas

import (
	_ "embed"
)

// Embed the configuration JSON Schema into the binary for validation and
// tooling. The schema describes the pvemcp config file and enables IDE
// autocompletion and early validation.
//
//go:embed config.schema.json
var configSchema []byte

// GetConfigSchema returns the embedded configuration JSON Schema as raw bytes.
func GetConfigSchema() []byte {
	return configSchema
}

// GetConfigSchemaString returns the embedded configuration JSON Schema as a string.
// This is a convenience method for use cases that need the schema as a string.
func GetConfigSchemaString() string {
	return string(configSchema)
}

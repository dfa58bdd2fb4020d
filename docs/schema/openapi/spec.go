// Package openapi embeds the examinations API contract.
package openapi

import _ "embed"

//go:embed examinations.yaml
var examinationsSpec []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), examinationsSpec...)
}

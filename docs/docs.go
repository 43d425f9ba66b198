// Package docs embeds the OpenAPI description of the HTTP API.
package docs

import _ "embed"

// OpenAPI is served at /swagger/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

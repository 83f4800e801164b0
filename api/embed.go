// Package api holds the OpenAPI document of the HTTP surface.
package api

import _ "embed"

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yml openapi.yml

// Spec is the raw OpenAPI 3 document.
//
//go:embed openapi.yml
var Spec []byte

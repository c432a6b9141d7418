// Package schemas embeds the JSON Schemas used to check payloads exchanged with the API.
package schemas

import "embed"

// Schema file names.
const (
	Envelope = "envelope.schema.json"
	Form     = "form.schema.json"
)

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Package format names the surface syntaxes schema documents may be
// written in and maps file extensions and content types onto them.
//
// # Usage
//
//	f, err := format.FromExtension("person.yaml")     // YAMLFormat
//	f, err = format.FromContentType("application/json") // JSONFormat
//
// # Related Packages
//
//   - github.com/signadot/tony-format/jsonschema/parse - decode documents
//   - github.com/signadot/tony-format/jsonschema/fetch - retrieve documents
package format

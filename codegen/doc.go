// Package codegen synthesizes type declarations from a compiled schema
// store and writes them as Go source.
//
// A [Synthesizer] reads a quiescent store, names every location that
// needs a declared type through an [Idents] table, and produces a
// [Result] holding one [Decl] per eligible location together with
// diagnostics for shapes it could not map. [WriteGo] renders a Result as
// a formatted Go file.
//
// # Related Packages
//
//   - github.com/signadot/tony-format/jsonschema/compile - Store and Session
//   - github.com/signadot/tony-format/jsonschema/schema - Schema nodes
package codegen

package parse

import (
	"github.com/signadot/tony-format/jsonschema/format"
	"github.com/signadot/tony-format/jsonschema/schema"
)

type parseOpts struct {
	format   format.Format
	fragment schema.Pointer
}

type ParseOption func(*parseOpts)

func ParseYAML() ParseOption {
	return ParseFormat(format.YAMLFormat)
}
func ParseJSON() ParseOption {
	return ParseFormat(format.JSONFormat)
}
func ParseFormat(f format.Format) ParseOption {
	return func(o *parseOpts) { o.format = f }
}

// ParseFragment selects the sub-value at p before a schema is built.
func ParseFragment(p schema.Pointer) ParseOption {
	return func(o *parseOpts) { o.fragment = p }
}

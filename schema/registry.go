package schema

import (
	"errors"
	"fmt"
	"sync"
)

// Decoder turns the raw value of a keyword into a Keyword.
type Decoder func(v any) (Keyword, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Decoder)
)

var ErrKeywordExists = errors.New("keyword exists")

// RegisterKeyword registers the decoder for a keyword name. Keywords
// whose decoder returns a Container are descended into by the compiler.
func RegisterKeyword(name string, dec Decoder) error {
	if dec == nil {
		return fmt.Errorf("cannot register nil decoder for %q", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrKeywordExists)
	}
	registry[name] = dec
	return nil
}

// LookupKeyword returns the decoder for name, or nil.
func LookupKeyword(name string) Decoder {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// DecodeKeyword decodes v as the keyword name. Unregistered keywords are
// kept as plain values.
func DecodeKeyword(name string, v any) (Keyword, error) {
	dec := LookupKeyword(name)
	if dec == nil {
		return &Value{V: v}, nil
	}
	return dec(v)
}

func registerAll(dec Decoder, names ...string) {
	for _, name := range names {
		if err := RegisterKeyword(name, dec); err != nil {
			panic(err)
		}
	}
}

func init() {
	registerAll(decodeItems, "items")
	registerAll(decodeSchema,
		"not", "contains", "additionalProperties", "propertyNames",
		"if", "then", "else", "unevaluatedItems", "unevaluatedProperties",
		"contentSchema")
	registerAll(decodeSchemaList, "allOf", "anyOf", "oneOf", "prefixItems")
	registerAll(decodeSchemaMap,
		"properties", "patternProperties", "$defs", "definitions",
		"dependentSchemas")
	registerAll(decodeString,
		"title", "description", "format", "$comment", "$id", "$anchor",
		"$schema", "$dynamicAnchor", "$dynamicRef", "pattern",
		"contentEncoding", "contentMediaType")
	registerAll(decodeNumber,
		"minimum", "maximum", "multipleOf", "minLength", "maxLength", "minItems", "maxItems",
		"minProperties", "maxProperties", "minContains", "maxContains")
	registerAll(decodeBound, "exclusiveMinimum", "exclusiveMaximum")
	registerAll(decodeBool, "uniqueItems", "readOnly", "writeOnly", "deprecated")
	registerAll(decodeTypes, "type")
	registerAll(decodeStrings, "required")
	registerAll(decodeValue, "const", "default", "dependentRequired")
	registerAll(decodeValues, "enum", "examples")
}

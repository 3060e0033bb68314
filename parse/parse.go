// Package parse decodes schema documents into ordered generic values and
// schema nodes.
//
// Objects decode to yaml.MapSlice so that keyword and property order
// follows the source. Integers decode to int64 where they fit, other
// numbers to float64.
package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/signadot/tony-format/jsonschema/format"
	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/goccy/go-yaml"
)

func Parse(d []byte, opts ...ParseOption) (any, error) {
	pOpts := &parseOpts{format: format.JSONFormat}
	for _, f := range opts {
		f(pOpts)
	}
	var (
		v   any
		err error
	)
	switch pOpts.format {
	case format.YAMLFormat:
		v, err = parseYAML(d)
	case format.JSONFormat:
		v, err = parseJSON(d)
	default:
		return nil, fmt.Errorf("%w: %w: %d", ErrParse, format.ErrBadFormat, pOpts.format)
	}
	if err != nil {
		return nil, err
	}
	if pOpts.fragment.IsRoot() {
		return v, nil
	}
	sub, err := pOpts.fragment.Get(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFragment, err)
	}
	return sub, nil
}

// Schema decodes d and builds the schema node at the requested fragment.
func Schema(d []byte, opts ...ParseOption) (*schema.Node, error) {
	v, err := Parse(d, opts...)
	if err != nil {
		return nil, err
	}
	n, err := schema.FromValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return n, nil
}

func parseYAML(d []byte) (any, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(d, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return normalize(v)
}

// parseJSON checks d against strict JSON syntax, which goccy relaxes to
// YAML flow style, and then decodes it as YAML.
func parseJSON(d []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w at offset %d", ErrTrailing, dec.InputOffset())
	}
	return parseYAML(raw)
}

// normalize converts decoded values to string keyed maps, int64 and
// float64. Objects with repeated keys are rejected.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case yaml.MapSlice:
		res := make(yaml.MapSlice, len(x))
		seen := make(map[string]bool, len(x))
		for i, item := range x {
			k, ok := item.Key.(string)
			if !ok {
				k = fmt.Sprint(item.Key)
			}
			if seen[k] {
				return nil, fmt.Errorf("%w: key %q", ErrDuplicateKey, k)
			}
			seen[k] = true
			c, err := normalize(item.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			res[i] = yaml.MapItem{Key: k, Value: c}
		}
		return res, nil
	case map[string]any:
		res := make(map[string]any, len(x))
		for k, c := range x {
			nc, err := normalize(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			res[k] = nc
		}
		return res, nil
	case []any:
		for i := range x {
			c, err := normalize(x[i])
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			x[i] = c
		}
		return x, nil
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
		return float64(x), nil
	case int:
		return int64(x), nil
	case float32:
		return float64(x), nil
	}
	return v, nil
}

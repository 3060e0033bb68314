package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-yaml"
)

// SchemaValue is a keyword holding a single schema, like items or not.
type SchemaValue struct {
	Node *Node
}

func (s *SchemaValue) Value() any { return s.Node.Value() }

func (s *SchemaValue) Subschemas() []Sub {
	return []Sub{{Node: s.Node}}
}

// SchemaList is a keyword holding positional schemas, like allOf.
type SchemaList []*Node

func (s SchemaList) Value() any {
	res := make([]any, len(s))
	for i, n := range s {
		res[i] = n.Value()
	}
	return res
}

func (s SchemaList) Subschemas() []Sub {
	res := make([]Sub, len(s))
	for i, n := range s {
		res[i] = Sub{Tokens: []string{strconv.Itoa(i)}, Node: n}
	}
	return res
}

type NamedSchema struct {
	Name string
	Node *Node
}

// SchemaMap is a keyword holding named schemas, like properties.
type SchemaMap struct {
	Entries []NamedSchema
}

func (s *SchemaMap) Value() any {
	res := make(yaml.MapSlice, len(s.Entries))
	for i, e := range s.Entries {
		res[i] = yaml.MapItem{Key: e.Name, Value: e.Node.Value()}
	}
	return res
}

func (s *SchemaMap) Subschemas() []Sub {
	res := make([]Sub, len(s.Entries))
	for i, e := range s.Entries {
		res[i] = Sub{Tokens: []string{e.Name}, Node: e.Node}
	}
	return res
}

func (s *SchemaMap) Get(name string) *Node {
	for _, e := range s.Entries {
		if e.Name == name {
			return e.Node
		}
	}
	return nil
}

type String string

func (s String) Value() any { return string(s) }

type Number float64

func (n Number) Value() any {
	f := float64(n)
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

type Bool bool

func (b Bool) Value() any { return bool(b) }

type Strings []string

func (s Strings) Value() any {
	res := make([]any, len(s))
	for i, x := range s {
		res[i] = x
	}
	return res
}

// Types is the type keyword, which is either one name or a list.
type Types struct {
	Names []string
	List  bool
}

func (t *Types) Value() any {
	if !t.List && len(t.Names) == 1 {
		return t.Names[0]
	}
	return Strings(t.Names).Value()
}

// Value is a keyword holding arbitrary data, like const or default.
type Value struct {
	V any
}

func (v *Value) Value() any { return v.V }

// Values is a keyword holding a list of arbitrary data, like enum.
type Values []any

func (v Values) Value() any { return []any(v) }

func decodeSchema(v any) (Keyword, error) {
	n, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	return &SchemaValue{Node: n}, nil
}

// items holding a list is the positional form used before prefixItems
// existed.
func decodeItems(v any) (Keyword, error) {
	if _, ok := v.([]any); ok {
		return decodeSchemaList(v)
	}
	return decodeSchema(v)
}

func decodeSchemaList(v any) (Keyword, error) {
	xs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected list of schemas, got %T", ErrNotSchema, v)
	}
	res := make(SchemaList, len(xs))
	for i, x := range xs {
		n, err := FromValue(x)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		res[i] = n
	}
	return res, nil
}

func decodeSchemaMap(v any) (Keyword, error) {
	res := &SchemaMap{}
	add := func(k, x any) error {
		name, ok := k.(string)
		if !ok {
			return fmt.Errorf("%w: key %v is not a string", ErrNotSchema, k)
		}
		n, err := FromValue(x)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		res.Entries = append(res.Entries, NamedSchema{Name: name, Node: n})
		return nil
	}
	switch x := v.(type) {
	case yaml.MapSlice:
		for _, item := range x {
			if err := add(item.Key, item.Value); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := add(name, x[name]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: expected map of schemas, got %T", ErrNotSchema, v)
	}
	return res, nil
}

func decodeString(v any) (Keyword, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return String(s), nil
}

func decodeNumber(v any) (Keyword, error) {
	switch x := v.(type) {
	case int:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case float64:
		return Number(x), nil
	}
	return nil, fmt.Errorf("expected number, got %T", v)
}

// exclusive bounds were booleans in older drafts.
func decodeBound(v any) (Keyword, error) {
	if b, ok := v.(bool); ok {
		return Bool(b), nil
	}
	return decodeNumber(v)
}

func decodeBool(v any) (Keyword, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return Bool(b), nil
}

func decodeStrings(v any) (Keyword, error) {
	xs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
	res := make(Strings, len(xs))
	for i, x := range xs {
		s, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("item %d: expected string, got %T", i, x)
		}
		res[i] = s
	}
	return res, nil
}

func decodeTypes(v any) (Keyword, error) {
	if s, ok := v.(string); ok {
		return &Types{Names: []string{s}}, nil
	}
	ss, err := decodeStrings(v)
	if err != nil {
		return nil, err
	}
	return &Types{Names: ss.(Strings), List: true}, nil
}

func decodeValue(v any) (Keyword, error) {
	return &Value{V: v}, nil
}

func decodeValues(v any) (Keyword, error) {
	xs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	return Values(xs), nil
}

package schema

import (
	"slices"

	"github.com/goccy/go-yaml"
)

// Keyword is the decoded value of one keyword of an object schema.
type Keyword interface {
	// Value returns the keyword as plain data.
	Value() any
}

// Container is implemented by keywords holding nested schemas.
type Container interface {
	Keyword
	Subschemas() []Sub
}

// Sub is a nested schema together with the pointer tokens leading to it
// from its keyword.
type Sub struct {
	Tokens []string
	Node   *Node
}

// Keywords is the keyword record of an object schema, in source order.
type Keywords struct {
	names []string
	kws   map[string]Keyword
}

func NewKeywords() *Keywords {
	return &Keywords{kws: map[string]Keyword{}}
}

func (k *Keywords) Set(name string, kw Keyword) {
	if _, ok := k.kws[name]; !ok {
		k.names = append(k.names, name)
	}
	k.kws[name] = kw
}

func (k *Keywords) Get(name string) Keyword {
	if k == nil {
		return nil
	}
	return k.kws[name]
}

func (k *Keywords) Has(name string) bool {
	return k.Get(name) != nil
}

func (k *Keywords) Names() []string {
	if k == nil {
		return nil
	}
	return slices.Clone(k.names)
}

func (k *Keywords) Len() int {
	if k == nil {
		return 0
	}
	return len(k.names)
}

// Subschemas lists every nested schema in keyword order, with tokens
// starting at the keyword name.
func (k *Keywords) Subschemas() []Sub {
	var res []Sub
	for _, name := range k.Names() {
		c, ok := k.kws[name].(Container)
		if !ok {
			continue
		}
		for _, sub := range c.Subschemas() {
			toks := make([]string, 0, len(sub.Tokens)+1)
			toks = append(toks, name)
			res = append(res, Sub{Tokens: append(toks, sub.Tokens...), Node: sub.Node})
		}
	}
	return res
}

func (k *Keywords) Value() any {
	res := make(yaml.MapSlice, 0, k.Len())
	for _, name := range k.names {
		res = append(res, yaml.MapItem{Key: name, Value: k.kws[name].Value()})
	}
	return res
}

func (k *Keywords) str(name string) (string, bool) {
	s, ok := k.Get(name).(String)
	return string(s), ok
}

func (k *Keywords) Title() (string, bool)       { return k.str("title") }
func (k *Keywords) Description() (string, bool) { return k.str("description") }
func (k *Keywords) Format() (string, bool)      { return k.str("format") }

// Type returns the declared types and whether they were given as a list.
func (k *Keywords) Type() ([]string, bool) {
	t, ok := k.Get("type").(*Types)
	if !ok {
		return nil, false
	}
	return t.Names, t.List
}

// HasType reports whether the declared type is exactly name.
func (k *Keywords) HasType(name string) bool {
	ts, list := k.Type()
	return !list && len(ts) == 1 && ts[0] == name
}

func (k *Keywords) Required() []string {
	r, _ := k.Get("required").(Strings)
	return r
}

func (k *Keywords) IsRequired(name string) bool {
	return slices.Contains(k.Required(), name)
}

func (k *Keywords) Const() (any, bool) {
	v, ok := k.Get("const").(*Value)
	if !ok {
		return nil, false
	}
	return v.V, true
}

func (k *Keywords) Enum() ([]any, bool) {
	v, ok := k.Get("enum").(Values)
	return v, ok
}

func (k *Keywords) Properties() []NamedSchema {
	m, _ := k.Get("properties").(*SchemaMap)
	if m == nil {
		return nil
	}
	return m.Entries
}

func (k *Keywords) list(name string) []*Node {
	l, _ := k.Get(name).(SchemaList)
	return l
}

func (k *Keywords) AllOf() []*Node { return k.list("allOf") }
func (k *Keywords) AnyOf() []*Node { return k.list("anyOf") }
func (k *Keywords) OneOf() []*Node { return k.list("oneOf") }

// PrefixItems returns the positional item schemas, taken from items when
// it holds a list.
func (k *Keywords) PrefixItems() []*Node {
	if l := k.list("prefixItems"); l != nil {
		return l
	}
	return k.list("items")
}

func (k *Keywords) Items() *Node {
	s, _ := k.Get("items").(*SchemaValue)
	if s == nil {
		return nil
	}
	return s.Node
}

package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signadot/tony-format/jsonschema/debug"

	"github.com/goccy/go-yaml"
)

var ErrNotSchema = errors.New("not a schema")

type Kind int

const (
	// RefKind is a reference to a single schema.
	RefKind Kind = iota + 1
	// ModKind is a reference to a module: a document holding named
	// schemas at its top level.
	ModKind
	BoolKind
	ObjectKind
	// ResolvedKind is a handle standing in for a node stored elsewhere.
	ResolvedKind
)

func (k Kind) String() string {
	switch k {
	case RefKind:
		return "ref"
	case ModKind:
		return "mod"
	case BoolKind:
		return "bool"
	case ObjectKind:
		return "object"
	case ResolvedKind:
		return "resolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	RefKey = "$ref"
	ModKey = "$mod"
)

// Node is a schema node. Only the fields matching Kind are meaningful.
type Node struct {
	Kind     Kind
	Ref      string
	Bool     bool
	Keywords *Keywords
	Handle   Location
}

func NewRef(ref string) *Node     { return &Node{Kind: RefKind, Ref: ref} }
func NewMod(ref string) *Node     { return &Node{Kind: ModKind, Ref: ref} }
func NewBool(b bool) *Node        { return &Node{Kind: BoolKind, Bool: b} }
func NewObject(k *Keywords) *Node { return &Node{Kind: ObjectKind, Keywords: k} }
func NewResolved(l Location) *Node {
	return &Node{Kind: ResolvedKind, Handle: l}
}

// Resolve rewrites n in place into a handle for loc.
func (n *Node) Resolve(loc Location) {
	*n = Node{Kind: ResolvedKind, Handle: loc}
}

func (n *Node) IsRef() bool {
	return n.Kind == RefKind || n.Kind == ModKind
}

// Detach returns a shallow copy of n, leaving n itself free to be
// rewritten into a handle.
func (n *Node) Detach() *Node {
	c := *n
	return &c
}

func (n *Node) String() string {
	switch n.Kind {
	case RefKind, ModKind:
		return fmt.Sprintf("%s(%s)", n.Kind, n.Ref)
	case BoolKind:
		return fmt.Sprintf("%t", n.Bool)
	case ObjectKind:
		return fmt.Sprintf("object%v", n.Keywords.Names())
	case ResolvedKind:
		return fmt.Sprintf("-> %s", n.Handle)
	}
	return n.Kind.String()
}

// Value returns n as plain data. Handles render as "$ref" objects
// holding the absolute location.
func (n *Node) Value() any {
	switch n.Kind {
	case RefKind:
		return yaml.MapSlice{{Key: RefKey, Value: n.Ref}}
	case ModKind:
		return yaml.MapSlice{{Key: ModKey, Value: n.Ref}}
	case BoolKind:
		return n.Bool
	case ObjectKind:
		return n.Keywords.Value()
	case ResolvedKind:
		return yaml.MapSlice{{Key: RefKey, Value: n.Handle.String()}}
	}
	return nil
}

// FromValue builds a schema node from decoded document data. Objects may
// be yaml.MapSlice, which keeps source key order, or map[string]any,
// whose keys are taken in sorted order.
func FromValue(v any) (*Node, error) {
	switch x := v.(type) {
	case bool:
		return NewBool(x), nil
	case yaml.MapSlice:
		return fromItems(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make(yaml.MapSlice, len(keys))
		for i, k := range keys {
			items[i] = yaml.MapItem{Key: k, Value: x[k]}
		}
		return fromItems(items)
	}
	return nil, fmt.Errorf("%w: %T", ErrNotSchema, v)
}

func fromItems(items yaml.MapSlice) (*Node, error) {
	for _, item := range items {
		k, _ := item.Key.(string)
		if k != RefKey && k != ModKey {
			continue
		}
		ref, ok := item.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrNotSchema, k, item.Value)
		}
		if len(items) > 1 && debug.Compile() {
			debug.Logf("%s %q: ignoring %d sibling keywords\n", k, ref, len(items)-1)
		}
		if k == ModKey {
			return NewMod(ref), nil
		}
		return NewRef(ref), nil
	}
	kws := NewKeywords()
	for _, item := range items {
		k, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: key %v is not a string", ErrNotSchema, item.Key)
		}
		kw, err := DecodeKeyword(k, item.Value)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", k, err)
		}
		kws.Set(k, kw)
	}
	return NewObject(kws), nil
}

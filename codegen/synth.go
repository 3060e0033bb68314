package codegen

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/schema"

	"golang.org/x/sync/errgroup"
)

// Source is a read only view of a compiled schema store.
type Source interface {
	Lookup(loc schema.Location) (*schema.Node, bool)
	Target(loc schema.Location) (schema.Location, bool)
	Locations() []schema.Location
}

type shape int

const (
	shapeNone shape = iota
	shapeMissing
	shapeAny
	shapeUnit
	shapeSingleton
	shapeEnum
	shapeVariant
	shapeStruct
	shapeScalar
	shapeArray
	shapeTypeList
)

func (s shape) named() bool {
	switch s {
	case shapeSingleton, shapeEnum, shapeVariant, shapeStruct, shapeTypeList:
		return true
	}
	return false
}

// classify applies the decision table: the first matching rule wins.
func classify(n *schema.Node) shape {
	if n == nil {
		return shapeMissing
	}
	switch n.Kind {
	case schema.BoolKind:
		if n.Bool {
			return shapeAny
		}
		return shapeUnit
	case schema.ObjectKind:
	default:
		return shapeNone
	}
	kw := n.Keywords
	switch {
	case kw.Has("const"):
		return shapeSingleton
	case kw.Has("enum"):
		return shapeEnum
	case kw.Has("oneOf"):
		return shapeVariant
	}
	types, list := kw.Type()
	switch {
	case len(types) > 1:
		return shapeTypeList
	case len(types) == 1:
		switch types[0] {
		case "object":
			return shapeStruct
		case "string", "number", "integer", "boolean":
			return shapeScalar
		case "array":
			return shapeArray
		}
		return shapeNone
	case list:
		// an empty type list
		return shapeNone
	case kw.Has("properties") || kw.Has("allOf"):
		return shapeStruct
	}
	return shapeNone
}

// Synthesizer maps the locations of a compiled store to types and
// declarations. The store must not change while a Synthesizer reads it.
type Synthesizer struct {
	src          Source
	idents       *Idents
	faults       *faults.List
	disambiguate Disambiguator
	parallel     int

	mu        sync.Mutex
	reported  map[reportKey]bool
	recursive map[schema.Location]bool
}

type reportKey struct {
	loc  string
	kind faults.Kind
}

type Option func(*Synthesizer)

// WithFaults sets the list receiving synthesis faults.
func WithFaults(fl *faults.List) Option {
	return func(s *Synthesizer) { s.faults = fl }
}

// WithIdents sets the identifier table.
func WithIdents(ids *Idents) Option {
	return func(s *Synthesizer) { s.idents = ids }
}

// WithDisambiguator renames locations whose identifier is already taken.
func WithDisambiguator(d Disambiguator) Option {
	return func(s *Synthesizer) { s.disambiguate = d }
}

func NewSynthesizer(src Source, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		src:       src,
		faults:    &faults.List{},
		parallel:  1,
		reported:  map[reportKey]bool{},
		recursive: map[schema.Location]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idents == nil {
		s.idents = NewIdents(s.faults, s.disambiguate)
	}
	return s
}

// Parallel sets how many declarations are synthesized concurrently.
func (s *Synthesizer) Parallel(n int) *Synthesizer {
	if n < 1 {
		n = 1
	}
	s.parallel = n
	return s
}

func (s *Synthesizer) Idents() *Idents      { return s.idents }
func (s *Synthesizer) Faults() *faults.List { return s.faults }

// Synthesize declares every location of the store in location order.
// Locations that cannot be declared yield diagnostics; the run itself
// does not fail.
func (s *Synthesizer) Synthesize() *Result {
	locs := s.src.Locations()
	// identifiers are claimed in location order so that collisions are
	// settled the same way on every run
	for _, loc := range locs {
		s.TypeOf(loc)
	}
	decls := make([]*Decl, len(locs))
	errs := make([]error, len(locs))
	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, loc := range locs {
		g.Go(func() error {
			decls[i], errs[i] = s.Declare(loc)
			return nil
		})
	}
	g.Wait()

	res := &Result{}
	declared := map[string]schema.Location{}
	for i, loc := range locs {
		err := errs[i]
		if err == nil && decls[i] != nil {
			// a second declaration of a name would not compile
			if owner, ok := declared[decls[i].Name]; ok {
				err = faults.New(faults.NameCollision, loc.String(),
					"%s is already declared by %s", decls[i].Name, owner)
			}
		}
		if err != nil {
			s.report(err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Location: loc, Message: diagnostic(err)})
			continue
		}
		if d := decls[i]; d != nil {
			declared[d.Name] = loc
			res.Decls = append(res.Decls, d)
		}
	}
	res.Faults = s.faults.Faults()
	return res
}

func diagnostic(err error) string {
	var fe *faults.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Err != nil {
			msg = fe.Err.Error()
		}
		return fmt.Sprintf("%s: %s", fe.Kind, msg)
	}
	return err.Error()
}

// TypeOf returns the inline type of the schema at loc.
func (s *Synthesizer) TypeOf(loc schema.Location) (*Type, error) {
	if loc.IsZero() {
		return anyType, nil
	}
	loc, n := s.node(loc)
	sh := classify(n)
	switch {
	case sh == shapeMissing:
		s.report(faults.Warn(faults.Unresolved, loc.String(), "no schema was compiled here"))
		return anyType, nil
	case sh == shapeAny:
		return anyType, nil
	case sh == shapeUnit:
		return unitType, nil
	case sh.named():
		return namedType(s.idents.NameFor(loc, n.Keywords), loc), nil
	case sh == shapeScalar:
		types, _ := n.Keywords.Type()
		return s.scalar(loc, n.Keywords, types[0])
	case sh == shapeArray:
		kw := n.Keywords
		items, prefix := kw.Items(), kw.PrefixItems()
		switch {
		case prefix != nil && items == nil:
			return namedType(s.idents.NameFor(loc, kw), loc), nil
		case items != nil && prefix == nil:
			if s.isRecursive(loc) {
				return namedType(s.idents.NameFor(loc, kw), loc), nil
			}
			el, err := s.typeOfNode(items)
			if err != nil {
				return nil, err
			}
			return sliceOf(el), nil
		}
		return sliceOf(unitType), nil
	}
	return anyType, nil
}

// Declare returns the top level declaration for loc, or nil if the
// schema at loc is rendered inline.
func (s *Synthesizer) Declare(loc schema.Location) (*Decl, error) {
	loc, n := s.node(loc)
	sh := classify(n)
	if debug.Synth() {
		debug.Logf("declare %s shape %d\n", loc, sh)
	}
	switch sh {
	case shapeMissing:
		return nil, faults.Warn(faults.Unresolved, loc.String(), "no schema was compiled here")
	case shapeAny, shapeUnit:
		return nil, nil
	case shapeNone:
		return nil, faults.Warn(faults.UnsupportedSchemaShape, loc.String(),
			"no type matches keywords [%s]", strings.Join(n.Keywords.Names(), " "))
	case shapeScalar:
		_, err := s.TypeOf(loc)
		return nil, err
	}
	kw := n.Keywords
	d := &Decl{Location: loc}
	d.Doc, _ = kw.Description()
	var err error
	switch sh {
	case shapeSingleton:
		d.Kind = DeclSingleton
		d.Const, _ = kw.Const()
	case shapeEnum:
		s.declEnum(d, kw)
	case shapeVariant:
		err = s.declVariant(d, kw)
	case shapeStruct:
		err = s.declStruct(d, kw)
	case shapeTypeList:
		err = s.declTypeList(d, kw)
	case shapeArray:
		var ok bool
		ok, err = s.declArray(d, kw)
		if !ok {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	d.Name = s.idents.NameFor(loc, kw)
	return d, nil
}

func (s *Synthesizer) declStruct(d *Decl, kw *schema.Keywords) error {
	d.Kind = DeclStruct
	used := map[string]bool{}
	for _, p := range kw.Properties() {
		t, err := s.typeOfNode(p.Node)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		f := &Field{
			Name:     unique(used, fieldIdent(p.Name)),
			JSONName: p.Name,
			Type:     t,
			Optional: !kw.IsRequired(p.Name),
		}
		if t.Kind != NamedType {
			if _, n := s.nodeOf(p.Node); n != nil {
				f.Doc, _ = n.Keywords.Description()
			}
		}
		d.Fields = append(d.Fields, f)
	}
	for _, b := range kw.AllOf() {
		s.flatten(d, b, false, used)
	}
	for _, b := range kw.AnyOf() {
		s.flatten(d, b, true, used)
	}
	return nil
}

// flatten adds a field merging the record at b into d.
func (s *Synthesizer) flatten(d *Decl, b *schema.Node, optional bool, used map[string]bool) {
	loc, n := s.nodeOf(b)
	if loc == d.Location {
		return
	}
	at := loc
	if at.IsZero() {
		at = d.Location
	}
	sh := classify(n)
	if sh == shapeAny {
		return
	}
	if sh != shapeStruct || loc.IsZero() {
		s.report(faults.Warn(faults.UnsupportedSchemaShape, at.String(),
			"not merged into %s: only object branches are flattened", d.Location))
		return
	}
	name := s.idents.NameFor(loc, n.Keywords)
	if used[name] {
		s.report(faults.Warn(faults.UnsupportedSchemaShape, at.String(),
			"not merged into %s: %s is already a field", d.Location, name))
		return
	}
	used[name] = true
	d.Fields = append(d.Fields, &Field{
		Name:     name,
		Type:     namedType(name, loc),
		Optional: optional,
		Flatten:  true,
	})
}

func (s *Synthesizer) declVariant(d *Decl, kw *schema.Keywords) error {
	d.Kind = DeclVariant
	used := map[string]bool{}
	var catchAll, empty bool
	for i, b := range kw.OneOf() {
		loc, n := s.nodeOf(b)
		switch classify(n) {
		case shapeAny:
			catchAll = true
			continue
		case shapeUnit:
			empty = true
			continue
		}
		t, err := s.typeOfNode(b)
		if err != nil {
			return fmt.Errorf("oneOf %d: %w", i, err)
		}
		name := t.Name
		if t.Kind != NamedType {
			var k *schema.Keywords
			if n != nil {
				k = n.Keywords
			}
			name = baseIdent(loc, k)
		}
		d.Cases = append(d.Cases, &Case{Name: unique(used, name), Type: t})
	}
	if catchAll {
		d.Cases = append(d.Cases, &Case{Name: unique(used, "Value"), Type: anyType, CatchAll: true})
	}
	if empty {
		d.Cases = append(d.Cases, &Case{Name: unique(used, "Empty"), Type: unitType})
	}
	return nil
}

func (s *Synthesizer) declEnum(d *Decl, kw *schema.Keywords) {
	d.Kind = DeclEnum
	vals, _ := kw.Enum()
	used := map[string]bool{}
	for _, v := range vals {
		d.Cases = append(d.Cases, &Case{Name: unique(used, enumIdent(v)), Value: v})
	}
}

// declTypeList declares a schema with several types as a variant with a
// case per type.
func (s *Synthesizer) declTypeList(d *Decl, kw *schema.Keywords) error {
	d.Kind = DeclVariant
	types, _ := kw.Type()
	format, _ := kw.Format()
	used := map[string]bool{}
	for _, typ := range types {
		c := &Case{}
		switch typ {
		case "null":
			c.Type, c.Null = unitType, true
		case "object":
			c.Type = mapOf(anyType)
		case "array":
			c.Type = sliceOf(anyType)
			if items := kw.Items(); items != nil {
				el, err := s.typeOfNode(items)
				if err != nil {
					return err
				}
				c.Type = sliceOf(el)
			}
		default:
			sc, ok := scalarFor(typ, format)
			if !ok {
				sc, ok = scalarFor(typ, "")
			}
			if !ok {
				s.report(faults.Warn(faults.UnsupportedSchemaShape, d.Location.String(), "unknown type %q", typ))
				continue
			}
			c.Type = scalarType(sc)
		}
		c.Name = unique(used, Ident(typ))
		d.Cases = append(d.Cases, c)
	}
	return nil
}

// declArray declares tuples and self referring slices. ok is false for
// arrays rendered inline.
func (s *Synthesizer) declArray(d *Decl, kw *schema.Keywords) (ok bool, err error) {
	items, prefix := kw.Items(), kw.PrefixItems()
	switch {
	case prefix != nil && items == nil:
		d.Kind = DeclTuple
		for i, p := range prefix {
			t, err := s.typeOfNode(p)
			if err != nil {
				return false, fmt.Errorf("prefixItems %d: %w", i, err)
			}
			d.Elems = append(d.Elems, t)
		}
		return true, nil
	case items != nil && prefix == nil:
		if !s.isRecursive(d.Location) {
			return false, nil
		}
		d.Kind = DeclAlias
		d.Elem, err = s.typeOfNode(items)
		return err == nil, err
	}
	s.report(faults.Warn(faults.UnsupportedSchemaShape, d.Location.String(),
		"array needs exactly one of items and prefixItems"))
	return false, nil
}

func (s *Synthesizer) scalar(loc schema.Location, kw *schema.Keywords, typ string) (*Type, error) {
	format, _ := kw.Format()
	sc, ok := scalarFor(typ, format)
	if !ok {
		err := faults.New(faults.UnsupportedFormatHint, loc.String(), "format %q is not supported for type %s", format, typ)
		s.report(err)
		return nil, err
	}
	return scalarType(sc), nil
}

// isRecursive reports whether following items from the array at start
// through inline arrays leads back to start.
func (s *Synthesizer) isRecursive(start schema.Location) bool {
	s.mu.Lock()
	r, ok := s.recursive[start]
	s.mu.Unlock()
	if ok {
		return r
	}
	seen := map[schema.Location]bool{start: true}
	loc := start
	for {
		_, n := s.node(loc)
		if classify(n) != shapeArray {
			break
		}
		items := n.Keywords.Items()
		if items == nil || n.Keywords.PrefixItems() != nil || items.Kind != schema.ResolvedKind {
			break
		}
		next, _ := s.node(items.Handle)
		if next == start {
			r = true
			break
		}
		if seen[next] {
			break
		}
		seen[next] = true
		loc = next
	}
	s.mu.Lock()
	s.recursive[start] = r
	s.mu.Unlock()
	return r
}

func (s *Synthesizer) typeOfNode(n *schema.Node) (*Type, error) {
	switch n.Kind {
	case schema.ResolvedKind:
		return s.TypeOf(n.Handle)
	case schema.BoolKind:
		if n.Bool {
			return anyType, nil
		}
		return unitType, nil
	}
	return anyType, nil
}

// node returns the canonical location of loc and its content.
func (s *Synthesizer) node(loc schema.Location) (schema.Location, *schema.Node) {
	if t, ok := s.src.Target(loc); ok {
		loc = t
	}
	n, _ := s.src.Lookup(loc)
	return loc, n
}

func (s *Synthesizer) nodeOf(n *schema.Node) (schema.Location, *schema.Node) {
	if n.Kind != schema.ResolvedKind {
		return schema.Location{}, n
	}
	if n.Handle.IsZero() {
		return schema.Location{}, nil
	}
	return s.node(n.Handle)
}

// report records a fault once per location and kind.
func (s *Synthesizer) report(err error) {
	var fe *faults.Error
	if !errors.As(err, &fe) {
		return
	}
	k := reportKey{loc: fe.Location, kind: fe.Kind}
	s.mu.Lock()
	done := s.reported[k]
	s.reported[k] = true
	s.mu.Unlock()
	if !done {
		s.faults.Add(fe.Location, fe)
	}
}

func unique(used map[string]bool, name string) string {
	res := name
	for i := 2; used[res]; i++ {
		res = fmt.Sprintf("%s%d", name, i)
	}
	used[res] = true
	return res
}

func fieldIdent(name string) string {
	if id := Ident(name); id != "" {
		return id
	}
	return "Field"
}

func enumIdent(v any) string {
	switch x := v.(type) {
	case nil:
		return "Null"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		if id := Ident(x); id != "" {
			return id
		}
		return "Empty"
	}
	var b strings.Builder
	b.WriteByte('V')
	for _, r := range fmt.Sprint(v) {
		switch {
		case r == '-':
			b.WriteString("Minus")
		case r == '.':
			b.WriteByte('_')
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

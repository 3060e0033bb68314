package codegen

import (
	"context"
	"slices"
	"testing"

	"github.com/signadot/tony-format/jsonschema/compile"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/fetch"
	"github.com/signadot/tony-format/jsonschema/format"
	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/google/go-cmp/cmp"
)

// compileDocs compiles YAML documents keyed by URL and returns the store.
func compileDocs(t *testing.T, docs map[string]string) *compile.Store {
	t.Helper()
	mem := fetch.NewMem()
	urls := make([]string, 0, len(docs))
	for u, d := range docs {
		mem.Add(u, format.YAMLFormat, d)
		urls = append(urls, u)
	}
	slices.Sort(urls)
	s := compile.NewSession(compile.WithFetcher(mem))
	for _, u := range urls {
		if _, err := s.CompileURL(context.Background(), u); err != nil {
			t.Fatalf("compile %s: %v", u, err)
		}
	}
	return s.Store()
}

func mustLoc(t *testing.T, raw string) schema.Location {
	t.Helper()
	l, err := schema.ParseLocation(raw)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func faultsOf(res *Result, k faults.Kind) []*faults.Error {
	var out []*faults.Error
	for _, f := range res.Faults {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

func TestStructOptionality(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/person.yaml": `
title: person
type: object
required: [a]
properties:
  a: {type: string}
  b: {type: string}
`,
	})
	res := NewSynthesizer(store).Synthesize()
	if len(res.Decls) != 1 {
		t.Fatalf("decls %v", res.Decls)
	}
	d := res.Decls[0]
	if d.Kind != DeclStruct || d.Name != "Person" {
		t.Errorf("got %s %s", d.Kind, d.Name)
	}
	want := []*Field{
		{Name: "A", JSONName: "a", Type: scalarType(Text)},
		{Name: "B", JSONName: "b", Type: scalarType(Text), Optional: true},
	}
	if diff := cmp.Diff(want, d.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics %v", res.Diagnostics)
	}
}

func TestVariantClosure(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/shape.yaml": `
oneOf:
  - type: string
  - true
`,
		"mem://t/many.yaml": `
oneOf:
  - true
  - {type: integer}
  - false
  - true
  - false
`,
	})
	res := NewSynthesizer(store).Synthesize()

	shape := res.Decl(mustLoc(t, "mem://t/shape.yaml"))
	if shape == nil || shape.Kind != DeclVariant {
		t.Fatalf("shape %+v", shape)
	}
	want := []*Case{
		{Name: "Shape", Type: scalarType(Text)},
		{Name: "Value", Type: anyType, CatchAll: true},
	}
	if diff := cmp.Diff(want, shape.Cases); diff != "" {
		t.Errorf("cases (-want +got):\n%s", diff)
	}

	many := res.Decl(mustLoc(t, "mem://t/many.yaml"))
	if many == nil {
		t.Fatal("many not declared")
	}
	var names []string
	for _, c := range many.Cases {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Many", "Value", "Empty"}, names); diff != "" {
		t.Errorf("cases (-want +got):\n%s", diff)
	}
}

func TestTupleSynthesis(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/pair.yaml": `
type: array
prefixItems:
  - type: string
  - type: integer
`,
		"mem://t/bad.yaml": `
type: array
items: {type: string}
prefixItems: [{type: string}]
`,
	})
	res := NewSynthesizer(store).Synthesize()
	pair := res.Decl(mustLoc(t, "mem://t/pair.yaml"))
	if pair == nil || pair.Kind != DeclTuple || pair.Name != "Pair" {
		t.Fatalf("pair %+v", pair)
	}
	if diff := cmp.Diff([]*Type{scalarType(Text), scalarType(Int32)}, pair.Elems); diff != "" {
		t.Errorf("elems (-want +got):\n%s", diff)
	}
	if d := res.Decl(mustLoc(t, "mem://t/bad.yaml")); d != nil {
		t.Errorf("degenerate array declared: %+v", d)
	}
	if ws := faultsOf(res, faults.UnsupportedSchemaShape); len(ws) != 1 || ws[0].Severity != faults.SeverityWarning {
		t.Errorf("expected one shape warning, got %v", ws)
	}
}

func TestSelfReference(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/node.yaml": `
title: Node
type: object
properties:
  value: {type: integer, format: i64}
  next: {$ref: "#"}
  children:
    type: array
    items: {$ref: "#"}
`,
		"mem://t/tree.yaml": `
type: array
items: {$ref: "#"}
`,
	})
	res := NewSynthesizer(store).Synthesize()
	node := res.Decl(mustLoc(t, "mem://t/node.yaml"))
	if node == nil {
		t.Fatal("node not declared")
	}
	root := mustLoc(t, "mem://t/node.yaml")
	want := []*Field{
		{Name: "Value", JSONName: "value", Type: scalarType(Int64), Optional: true},
		{Name: "Next", JSONName: "next", Type: namedType("Node", root), Optional: true},
		{Name: "Children", JSONName: "children", Type: sliceOf(namedType("Node", root)), Optional: true},
	}
	if diff := cmp.Diff(want, node.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	tree := res.Decl(mustLoc(t, "mem://t/tree.yaml"))
	if tree == nil || tree.Kind != DeclAlias {
		t.Fatalf("tree %+v", tree)
	}
	if diff := cmp.Diff(namedType("Tree", tree.Location), tree.Elem); diff != "" {
		t.Errorf("elem (-want +got):\n%s", diff)
	}
}

func TestScalarFor(t *testing.T) {
	tests := []struct {
		typ, format string
		want        Scalar
		ok          bool
	}{
		{typ: "string", want: Text, ok: true},
		{typ: "string", format: "uuid", want: UUID, ok: true},
		{typ: "string", format: "uri", want: URI, ok: true},
		{typ: "string", format: "url", want: URI, ok: true},
		{typ: "string", format: "date-time", want: Text, ok: true},
		{typ: "string", format: "idn-host-name", want: Text, ok: true},
		{typ: "string", format: "bogus"},
		{typ: "number", want: Float32, ok: true},
		{typ: "number", format: "f64", want: Float64, ok: true},
		{typ: "number", format: "double", want: Float64, ok: true},
		{typ: "number", format: "i8"},
		{typ: "integer", want: Int32, ok: true},
		{typ: "integer", format: "u16", want: Uint16, ok: true},
		{typ: "integer", format: "int64", want: Int64, ok: true},
		{typ: "integer", format: "f32"},
		{typ: "boolean", want: Bool, ok: true},
		{typ: "object"},
	}
	for _, tt := range tests {
		got, ok := scalarFor(tt.typ, tt.format)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("scalarFor(%q, %q) = %s, %v; want %s, %v", tt.typ, tt.format, got, ok, tt.want, tt.ok)
		}
	}
}

func TestUnsupportedFormatHint(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/a.yaml": `
type: object
properties:
  big: {type: integer, format: int128}
  ok: {type: string}
`,
		"mem://t/b.yaml": `
type: object
properties:
  name: {type: string}
`,
	})
	res := NewSynthesizer(store).Synthesize()
	if d := res.Decl(mustLoc(t, "mem://t/a.yaml")); d != nil {
		t.Errorf("a declared despite a bad format hint")
	}
	if d := res.Decl(mustLoc(t, "mem://t/b.yaml")); d == nil {
		t.Errorf("b not declared")
	}
	fs := faultsOf(res, faults.UnsupportedFormatHint)
	if len(fs) != 1 || fs[0].Location != "mem://t/a.yaml#/properties/big" || fs[0].Severity != faults.SeverityError {
		t.Errorf("faults %v", fs)
	}
	found := false
	for _, diag := range res.Diagnostics {
		if diag.Location == mustLoc(t, "mem://t/a.yaml") {
			found = true
		}
	}
	if !found {
		t.Errorf("no diagnostic for a: %v", res.Diagnostics)
	}
}

func TestEnumMembers(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/mixed.yaml": `enum: [red, 1, true, null, 2.5, -3]`,
	})
	res := NewSynthesizer(store).Synthesize()
	d := res.Decl(mustLoc(t, "mem://t/mixed.yaml"))
	if d == nil || d.Kind != DeclEnum {
		t.Fatalf("decl %+v", d)
	}
	var names []string
	for _, c := range d.Cases {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Red", "V1", "True", "Null", "V2_5", "VMinus3"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestTypeList(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/maybe.yaml": `
type: [string, "null", array]
items: {type: integer}
`,
	})
	res := NewSynthesizer(store).Synthesize()
	d := res.Decl(mustLoc(t, "mem://t/maybe.yaml"))
	if d == nil || d.Kind != DeclVariant {
		t.Fatalf("decl %+v", d)
	}
	want := []*Case{
		{Name: "String", Type: scalarType(Text)},
		{Name: "Null", Type: unitType, Null: true},
		{Name: "Array", Type: sliceOf(scalarType(Int32))},
	}
	if diff := cmp.Diff(want, d.Cases); diff != "" {
		t.Errorf("cases (-want +got):\n%s", diff)
	}
}

func TestFlattening(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/dog.yaml": `
type: object
properties:
  bark: {type: boolean}
allOf:
  - $ref: "#/$defs/Animal"
  - {type: string}
anyOf:
  - $ref: "#/$defs/Pet"
  - $ref: "#/$defs/Animal"
$defs:
  Animal:
    type: object
    properties:
      legs: {type: integer, format: u8}
  Pet:
    properties:
      owner: {type: string}
`,
	})
	res := NewSynthesizer(store).Synthesize()
	d := res.Decl(mustLoc(t, "mem://t/dog.yaml"))
	if d == nil {
		t.Fatal("dog not declared")
	}
	animal := mustLoc(t, "mem://t/dog.yaml#/$defs/Animal")
	pet := mustLoc(t, "mem://t/dog.yaml#/$defs/Pet")
	want := []*Field{
		{Name: "Bark", JSONName: "bark", Type: scalarType(Bool), Optional: true},
		{Name: "Animal", Type: namedType("Animal", animal), Flatten: true},
		{Name: "Pet", Type: namedType("Pet", pet), Optional: true, Flatten: true},
	}
	if diff := cmp.Diff(want, d.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	var skipped []string
	for _, f := range faultsOf(res, faults.UnsupportedSchemaShape) {
		if f.Severity != faults.SeverityWarning {
			t.Errorf("fault %v", f)
		}
		skipped = append(skipped, f.Location)
	}
	wantSkipped := []string{"mem://t/dog.yaml#/$defs/Animal", "mem://t/dog.yaml#/allOf/1"}
	if diff := cmp.Diff(wantSkipped, skipped); diff != "" {
		t.Errorf("skipped branches (-want +got):\n%s", diff)
	}
}

func TestUnsupportedShape(t *testing.T) {
	store := compileDocs(t, map[string]string{
		"mem://t/odd.yaml": `
description: nothing to see
anyOf: [{type: string}]
`,
	})
	res := NewSynthesizer(store).Synthesize()
	if len(res.Decls) != 0 {
		t.Errorf("decls %v", res.Decls)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Location != mustLoc(t, "mem://t/odd.yaml") {
		t.Errorf("diagnostics %v", res.Diagnostics)
	}
	if ws := faultsOf(res, faults.UnsupportedSchemaShape); len(ws) != 1 || ws[0].Severity != faults.SeverityWarning {
		t.Errorf("faults %v", res.Faults)
	}
}

func TestUnresolvedReference(t *testing.T) {
	store := compile.NewStore()
	root := mustLoc(t, "mem://t/a.yaml")
	missing := mustLoc(t, "mem://t/gone.yaml")
	kw := schema.NewKeywords()
	kw.Set("type", &schema.Types{Names: []string{"object"}})
	kw.Set("properties", &schema.SchemaMap{Entries: []schema.NamedSchema{
		{Name: "gone", Node: schema.NewResolved(missing)},
		{Name: "bad", Node: schema.NewResolved(schema.Location{})},
	}})
	store.Reserve(root)
	if err := store.Commit(root, schema.NewObject(kw)); err != nil {
		t.Fatal(err)
	}
	res := NewSynthesizer(store).Synthesize()
	d := res.Decl(root)
	if d == nil {
		t.Fatal("not declared")
	}
	for _, f := range d.Fields {
		if f.Type.Kind != AnyType {
			t.Errorf("%s: %s", f.Name, f.Type)
		}
	}
	ws := faultsOf(res, faults.Unresolved)
	if len(ws) != 1 || ws[0].Location != missing.String() {
		t.Errorf("faults %v", res.Faults)
	}
}

func TestNameCollision(t *testing.T) {
	docs := map[string]string{
		"mem://t/a.yaml": "title: Thing\ntype: object\n",
		"mem://t/b.yaml": "title: Thing\ntype: object\n",
	}
	res := NewSynthesizer(compileDocs(t, docs)).Synthesize()
	if len(res.Decls) != 1 || res.Decls[0].Name != "Thing" || res.Decls[0].Location != mustLoc(t, "mem://t/a.yaml") {
		t.Errorf("decls %v", res.Decls)
	}
	var sev []faults.Severity
	for _, f := range faultsOf(res, faults.NameCollision) {
		if f.Location != "mem://t/b.yaml" {
			t.Errorf("fault at %s", f.Location)
		}
		sev = append(sev, f.Severity)
	}
	if diff := cmp.Diff([]faults.Severity{faults.SeverityWarning, faults.SeverityError}, sev); diff != "" {
		t.Errorf("severities (-want +got):\n%s", diff)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Location != mustLoc(t, "mem://t/b.yaml") {
		t.Errorf("diagnostics %v", res.Diagnostics)
	}

	res = NewSynthesizer(compileDocs(t, docs), WithDisambiguator(NumberSuffix)).Synthesize()
	if res.Decls[0].Name != "Thing" || res.Decls[1].Name != "Thing2" {
		t.Errorf("names %s %s", res.Decls[0].Name, res.Decls[1].Name)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	docs := map[string]string{
		"mem://t/a.yaml": `
type: object
properties:
  b: {$ref: "b.yaml"}
  c: {title: c, oneOf: [{$ref: "b.yaml"}, true]}
  list: {type: array, items: {$ref: "b.yaml"}}
`,
		"mem://t/b.yaml": `
type: object
properties:
  a: {$ref: "a.yaml"}
  e: {enum: [x, y]}
`,
	}
	seq := NewSynthesizer(compileDocs(t, docs)).Synthesize()
	par := NewSynthesizer(compileDocs(t, docs)).Parallel(8).Synthesize()
	if diff := cmp.Diff(seq.Decls, par.Decls); diff != "" {
		t.Errorf("(-seq +par):\n%s", diff)
	}
}

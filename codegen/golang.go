package codegen

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signadot/tony-format/jsonschema/schema"

	"golang.org/x/tools/imports"
)

// GeneratedHeader starts every file written by WriteGo.
const GeneratedHeader = "// Code generated by jsonschema. DO NOT EDIT."

// WriteGo writes the declarations of res as a Go source file of package
// pkg.
func WriteGo(w io.Writer, pkg string, res *Result) error {
	src, err := GoSource(pkg, res)
	if err != nil {
		return err
	}
	_, err = w.Write(src)
	return err
}

// GoSource returns the formatted Go source for res.
func GoSource(pkg string, res *Result) ([]byte, error) {
	g := newGoFile(res)
	raw, err := g.render(pkg)
	if err != nil {
		return nil, err
	}
	out, err := imports.Process(pkg+"_gen.go", raw, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("error formatting generated code: %w", err)
	}
	return out, nil
}

type goFile struct {
	res     *Result
	decls   map[schema.Location]*Decl
	uriName string
	buf     bytes.Buffer
	usesURI bool
}

func newGoFile(res *Result) *goFile {
	g := &goFile{res: res, decls: map[schema.Location]*Decl{}, uriName: "URI"}
	for _, d := range res.Decls {
		g.decls[d.Location] = d
		if d.Name == "URI" {
			g.uriName = "URIString"
		}
	}
	return g
}

func (g *goFile) p(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *goFile) render(pkg string) ([]byte, error) {
	g.p("%s\n\n", GeneratedHeader)
	g.p("package %s\n\n", pkg)
	g.p("import (\n\t\"bytes\"\n\t\"encoding/json\"\n\t\"fmt\"\n\n\t\"github.com/google/uuid\"\n)\n")
	variants := false
	for _, d := range g.res.Decls {
		g.p("\n")
		g.doc(d)
		var err error
		switch d.Kind {
		case DeclStruct:
			g.writeStruct(d)
		case DeclVariant:
			variants = true
			g.writeVariant(d)
		case DeclEnum:
			err = g.writeEnum(d)
		case DeclSingleton:
			err = g.writeSingleton(d)
		case DeclTuple:
			g.writeTuple(d)
		case DeclAlias:
			g.p("type %s []%s\n", d.Name, g.goType(d.Elem))
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Location, err)
		}
	}
	if g.usesURI {
		g.p("\n// %s is a URI reference.\ntype %s string\n", g.uriName, g.uriName)
	}
	if variants {
		g.p(decodeStrictSrc)
	}
	if len(g.res.Diagnostics) > 0 {
		g.p("\n")
		for _, diag := range g.res.Diagnostics {
			g.p("// %s: %s\n", diag.Location, oneLine(diag.Message))
		}
	}
	return g.buf.Bytes(), nil
}

func (g *goFile) doc(d *Decl) {
	g.p("// %s is generated from %s.\n", d.Name, d.Location)
	if d.Doc == "" {
		return
	}
	g.p("//\n")
	for _, line := range strings.Split(strings.TrimSpace(d.Doc), "\n") {
		g.p("// %s\n", strings.TrimRight(line, " \t"))
	}
}

func (g *goFile) writeStruct(d *Decl) {
	g.p("type %s struct {\n", d.Name)
	for _, f := range d.Fields {
		if f.Doc != "" {
			for _, line := range strings.Split(strings.TrimSpace(f.Doc), "\n") {
				g.p("\t// %s\n", strings.TrimRight(line, " \t"))
			}
		}
		typ := g.goType(f.Type)
		if f.Flatten {
			if g.isAny(f.Type) {
				// the merged declaration failed and is reported as a diagnostic
				continue
			}
			if f.Optional || g.cyclic(d, f.Type) {
				typ = "*" + typ
			}
			g.p("\t%s\n", typ)
			continue
		}
		tag := f.JSONName
		switch {
		case f.Optional:
			if !g.nilable(f.Type) {
				typ = "*" + typ
			}
			tag += ",omitempty"
		case g.cyclic(d, f.Type):
			typ = "*" + typ
		}
		g.p("\t%s %s %s\n", f.Name, typ, structTag("json:"+strconv.Quote(tag)))
	}
	g.p("}\n")
}

func (g *goFile) writeVariant(d *Decl) {
	g.p("type %s struct {\n", d.Name)
	for _, c := range d.Cases {
		g.p("\t%s %s\n", c.Name, g.caseType(c))
	}
	g.p("}\n\n")

	g.p("func (x %s) MarshalJSON() ([]byte, error) {\n\tswitch {\n", d.Name)
	for _, c := range d.Cases {
		g.p("\tcase x.%s != nil:\n", c.Name)
		if c.Type.Kind == UnitType {
			g.p("\t\treturn []byte(\"null\"), nil\n")
			continue
		}
		g.p("\t\treturn json.Marshal(x.%s)\n", c.Name)
	}
	g.p("\t}\n\treturn nil, fmt.Errorf(\"%s has no case set\")\n}\n\n", d.Name)

	g.p("func (x *%s) UnmarshalJSON(d []byte) error {\n\t*x = %s{}\n", d.Name, d.Name)
	for _, c := range d.Cases {
		if c.Null {
			g.p("\tif bytes.Equal(bytes.TrimSpace(d), []byte(\"null\")) {\n")
			g.p("\t\tx.%s = &struct{}{}\n\t\treturn nil\n\t}\n", c.Name)
		}
	}
	for _, c := range d.Cases {
		if c.CatchAll || c.Type.Kind == UnitType {
			continue
		}
		ref := "&v"
		if g.isAny(c.Type) {
			ref = "v"
		}
		g.p("\t{\n\t\tvar v %s\n", g.goType(c.Type))
		g.p("\t\tif err := decodeStrict(d, &v); err == nil {\n")
		g.p("\t\t\tx.%s = %s\n\t\t\treturn nil\n\t\t}\n\t}\n", c.Name, ref)
	}
	for _, c := range d.Cases {
		if c.CatchAll {
			g.p("\tvar v any\n\tif err := json.Unmarshal(d, &v); err == nil {\n")
			g.p("\t\tx.%s = v\n\t\treturn nil\n\t}\n", c.Name)
		}
	}
	g.p("\treturn fmt.Errorf(\"no case of %s matches %%s\", d)\n}\n", d.Name)
}

func (g *goFile) caseType(c *Case) string {
	if c.CatchAll || g.isAny(c.Type) {
		return "any"
	}
	return "*" + g.goType(c.Type)
}

func (g *goFile) writeEnum(d *Decl) error {
	strs := true
	for _, c := range d.Cases {
		if _, ok := c.Value.(string); !ok {
			strs = false
			break
		}
	}
	if strs {
		g.p("type %s string\n\nconst (\n", d.Name)
		for _, c := range d.Cases {
			g.p("\t%s%s %s = %s\n", d.Name, c.Name, d.Name, strconv.Quote(c.Value.(string)))
		}
		g.p(")\n")
		return nil
	}
	g.p("type %s struct{ raw string }\n\nvar (\n", d.Name)
	names := make([]string, len(d.Cases))
	for i, c := range d.Cases {
		lit, err := jsonLiteral(c.Value)
		if err != nil {
			return err
		}
		names[i] = d.Name + c.Name
		g.p("\t%s = %s{%s}\n", names[i], d.Name, strconv.Quote(lit))
	}
	g.p(")\n\n")
	g.p("func (x %s) MarshalJSON() ([]byte, error) {\n", d.Name)
	g.p("\tif x.raw == \"\" {\n\t\treturn nil, fmt.Errorf(\"invalid %s\")\n\t}\n", d.Name)
	g.p("\treturn []byte(x.raw), nil\n}\n\n")
	g.p("func (x *%s) UnmarshalJSON(d []byte) error {\n", d.Name)
	g.p("\tvar b bytes.Buffer\n\tif err := json.Compact(&b, d); err != nil {\n\t\treturn err\n\t}\n")
	g.p("\tfor _, v := range []%s{%s} {\n", d.Name, strings.Join(names, ", "))
	g.p("\t\tif v.raw == b.String() {\n\t\t\t*x = v\n\t\t\treturn nil\n\t\t}\n\t}\n")
	g.p("\treturn fmt.Errorf(\"invalid %s %%s\", d)\n}\n", d.Name)
	return nil
}

func (g *goFile) writeSingleton(d *Decl) error {
	lit, err := jsonLiteral(d.Const)
	if err != nil {
		return err
	}
	q := strconv.Quote(lit)
	g.p("type %s struct{}\n\n", d.Name)
	g.p("func (%s) MarshalJSON() ([]byte, error) {\n\treturn []byte(%s), nil\n}\n\n", d.Name, q)
	g.p("func (*%s) UnmarshalJSON(d []byte) error {\n", d.Name)
	g.p("\tvar b bytes.Buffer\n\tif err := json.Compact(&b, d); err != nil {\n\t\treturn err\n\t}\n")
	g.p("\tif b.String() != %s {\n", q)
	g.p("\t\treturn fmt.Errorf(\"%s must be %%s, got %%s\", %s, d)\n\t}\n", d.Name, q)
	g.p("\treturn nil\n}\n")
	return nil
}

func (g *goFile) writeTuple(d *Decl) {
	g.p("type %s struct {\n", d.Name)
	elems := make([]string, len(d.Elems))
	for i, t := range d.Elems {
		typ := g.goType(t)
		if g.cyclic(d, t) {
			typ = "*" + typ
		}
		elems[i] = fmt.Sprintf("x.V%d", i)
		g.p("\tV%d %s\n", i, typ)
	}
	g.p("}\n\n")
	g.p("func (x %s) MarshalJSON() ([]byte, error) {\n", d.Name)
	g.p("\treturn json.Marshal([]any{%s})\n}\n\n", strings.Join(elems, ", "))
	g.p("func (x *%s) UnmarshalJSON(d []byte) error {\n", d.Name)
	g.p("\tvar raw []json.RawMessage\n\tif err := json.Unmarshal(d, &raw); err != nil {\n\t\treturn err\n\t}\n")
	g.p("\tif len(raw) != %d {\n", len(d.Elems))
	g.p("\t\treturn fmt.Errorf(\"%s has %d elements, got %%d\", len(raw))\n\t}\n", d.Name, len(d.Elems))
	for i := range d.Elems {
		g.p("\tif err := json.Unmarshal(raw[%d], &x.V%d); err != nil {\n\t\treturn err\n\t}\n", i, i)
	}
	g.p("\treturn nil\n}\n")
}

func (g *goFile) goType(t *Type) string {
	switch t.Kind {
	case AnyType:
		return "any"
	case UnitType:
		return "struct{}"
	case ScalarType:
		switch t.Scalar {
		case Text:
			return "string"
		case UUID:
			return "uuid.UUID"
		case URI:
			g.usesURI = true
			return g.uriName
		}
		return t.Scalar.String()
	case NamedType:
		if d := g.decls[t.Location]; d != nil {
			return d.Name
		}
		// the declaration failed and is reported as a diagnostic
		return "any"
	case SliceType:
		return "[]" + g.goType(t.Elem)
	case MapType:
		return "map[string]" + g.goType(t.Elem)
	}
	return "any"
}

// isAny reports whether t renders as any.
func (g *goFile) isAny(t *Type) bool {
	return t.Kind == AnyType || t.Kind == NamedType && g.decls[t.Location] == nil
}

func (g *goFile) nilable(t *Type) bool {
	switch t.Kind {
	case AnyType, SliceType, MapType:
		return true
	case NamedType:
		d := g.decls[t.Location]
		return d == nil || d.Kind == DeclAlias
	}
	return false
}

// cyclic reports whether embedding a value of t in d makes d contain
// itself.
func (g *goFile) cyclic(d *Decl, t *Type) bool {
	if t.Kind != NamedType {
		return false
	}
	return g.reaches(t.Location, d.Location, map[schema.Location]bool{})
}

func (g *goFile) reaches(from, to schema.Location, seen map[schema.Location]bool) bool {
	if from == to {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, next := range g.valueEdges(g.decls[from]) {
		if g.reaches(next, to, seen) {
			return true
		}
	}
	return false
}

// valueEdges lists the declarations a value of d holds by value.
func (g *goFile) valueEdges(d *Decl) []schema.Location {
	if d == nil {
		return nil
	}
	var res []schema.Location
	add := func(t *Type) {
		if t.Kind != NamedType {
			return
		}
		if td := g.decls[t.Location]; td != nil && (td.Kind == DeclStruct || td.Kind == DeclTuple) {
			res = append(res, t.Location)
		}
	}
	switch d.Kind {
	case DeclStruct:
		for _, f := range d.Fields {
			if !f.Optional {
				add(f.Type)
			}
		}
	case DeclTuple:
		for _, t := range d.Elems {
			add(t)
		}
	}
	return res
}

func structTag(tag string) string {
	if strings.ContainsRune(tag, '`') {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const decodeStrictSrc = `
func decodeStrict(d []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(d), []byte("null")) {
		return fmt.Errorf("unexpected null")
	}
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data")
	}
	return nil
}
`

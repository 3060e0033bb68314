package codegen

import (
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/schema"
)

// DeclKind is the kind of a top level declaration.
type DeclKind int

const (
	// DeclStruct is a record with one field per property.
	DeclStruct DeclKind = iota + 1
	// DeclVariant is exactly one of a closed set of cases.
	DeclVariant
	// DeclEnum is exactly one of a closed set of values.
	DeclEnum
	// DeclSingleton admits a single constant value.
	DeclSingleton
	// DeclTuple is a fixed arity heterogeneous sequence.
	DeclTuple
	// DeclAlias names a slice type that refers to itself.
	DeclAlias
)

func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclVariant:
		return "variant"
	case DeclEnum:
		return "enum"
	case DeclSingleton:
		return "singleton"
	case DeclTuple:
		return "tuple"
	case DeclAlias:
		return "alias"
	}
	return "unknown"
}

// Decl is a named type declaration synthesized for one location.
type Decl struct {
	Kind     DeclKind
	Name     string
	Location schema.Location
	// Doc is the schema's description, if any.
	Doc string

	Fields []*Field
	Cases  []*Case
	// Elems holds the slot types of a tuple.
	Elems []*Type
	// Elem is the element type of an alias.
	Elem *Type
	// Const is the value of a singleton.
	Const any
}

// Field is a struct field.
type Field struct {
	Name string
	// JSONName is the property name. It is empty for flattened fields.
	JSONName string
	Type     *Type
	Optional bool
	// Flatten merges the field's own fields into the parent.
	Flatten bool
	Doc     string
}

// Case is a variant case or an enum member.
type Case struct {
	Name string
	// Type is the payload of a variant case.
	Type *Type
	// Value is the member value of an enum case.
	Value any
	// CatchAll marks the case holding any value.
	CatchAll bool
	// Null marks a unit case that matches the JSON null value. Other
	// unit cases match nothing.
	Null bool
}

// Diagnostic marks a location for which no declaration was produced.
type Diagnostic struct {
	Location schema.Location
	Message  string
}

// Result is the output of a synthesis run.
type Result struct {
	Decls       []*Decl
	Diagnostics []Diagnostic
	Faults      []*faults.Error
}

// Decl returns the declaration for loc, or nil.
func (r *Result) Decl(loc schema.Location) *Decl {
	for _, d := range r.Decls {
		if d.Location == loc {
			return d
		}
	}
	return nil
}

// Lookup returns the declaration named name, or nil.
func (r *Result) Lookup(name string) *Decl {
	for _, d := range r.Decls {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// References lists the locations of the declarations d names, in order
// of first appearance.
func (d *Decl) References() []schema.Location {
	var res []schema.Location
	seen := map[schema.Location]bool{}
	var walk func(t *Type)
	walk = func(t *Type) {
		switch {
		case t == nil:
		case t.Kind == NamedType:
			if !seen[t.Location] {
				seen[t.Location] = true
				res = append(res, t.Location)
			}
		case t.Elem != nil:
			walk(t.Elem)
		}
	}
	for _, f := range d.Fields {
		walk(f.Type)
	}
	for _, c := range d.Cases {
		walk(c.Type)
	}
	for _, t := range d.Elems {
		walk(t)
	}
	walk(d.Elem)
	return res
}

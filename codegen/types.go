package codegen

import (
	"github.com/signadot/tony-format/jsonschema/schema"
)

// TypeKind is the shape of an inline type.
type TypeKind int

const (
	// AnyType holds any value.
	AnyType TypeKind = iota
	// UnitType holds no information.
	UnitType
	ScalarType
	// NamedType refers to a declaration by name.
	NamedType
	SliceType
	// MapType maps property names to Elem.
	MapType
)

func (k TypeKind) String() string {
	switch k {
	case AnyType:
		return "any"
	case UnitType:
		return "unit"
	case ScalarType:
		return "scalar"
	case NamedType:
		return "named"
	case SliceType:
		return "slice"
	case MapType:
		return "map"
	}
	return "unknown"
}

// Scalar is a primitive type selected by a schema type and format hint.
type Scalar int

const (
	Text Scalar = iota
	UUID
	URI
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var scalarNames = [...]string{
	Text:    "text",
	UUID:    "uuid",
	URI:     "uri",
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (s Scalar) String() string {
	if int(s) < len(scalarNames) {
		return scalarNames[s]
	}
	return "scalar?"
}

// Type is an inline type: the type of a field, case payload, tuple slot
// or slice element.
type Type struct {
	Kind   TypeKind
	Scalar Scalar
	// Name and Location are set for NamedType.
	Name     string
	Location schema.Location
	// Elem is set for SliceType and MapType.
	Elem *Type
}

var (
	anyType  = &Type{Kind: AnyType}
	unitType = &Type{Kind: UnitType}
)

func scalarType(s Scalar) *Type {
	return &Type{Kind: ScalarType, Scalar: s}
}

func namedType(name string, loc schema.Location) *Type {
	return &Type{Kind: NamedType, Name: name, Location: loc}
}

func sliceOf(elem *Type) *Type {
	return &Type{Kind: SliceType, Elem: elem}
}

func mapOf(elem *Type) *Type {
	return &Type{Kind: MapType, Elem: elem}
}

func (t *Type) String() string {
	switch t.Kind {
	case ScalarType:
		return t.Scalar.String()
	case NamedType:
		return t.Name
	case SliceType:
		return "[]" + t.Elem.String()
	case MapType:
		return "map[string]" + t.Elem.String()
	}
	return t.Kind.String()
}

// stringFormats are the string format hints rendered as plain text.
var stringFormats = map[string]bool{
	"date-time":             true,
	"time":                  true,
	"date":                  true,
	"duration":              true,
	"email":                 true,
	"idn-email":             true,
	"hostname":              true,
	"host-name":             true,
	"idn-hostname":          true,
	"idn-host-name":         true,
	"ipv4":                  true,
	"ipv6":                  true,
	"uri-reference":         true,
	"iri":                   true,
	"iri-reference":         true,
	"uri-template":          true,
	"json-pointer":          true,
	"relative-json-pointer": true,
	"regex":                 true,
	"byte":                  true,
	"binary":                true,
	"password":              true,
}

var numberFormats = map[string]Scalar{
	"f32":    Float32,
	"float":  Float32,
	"f64":    Float64,
	"double": Float64,
}

var integerFormats = map[string]Scalar{
	"i8":     Int8,
	"u8":     Uint8,
	"i16":    Int16,
	"u16":    Uint16,
	"i32":    Int32,
	"u32":    Uint32,
	"i64":    Int64,
	"u64":    Uint64,
	"int32":  Int32,
	"int64":  Int64,
	"uint32": Uint32,
	"uint64": Uint64,
}

// scalarFor maps a scalar schema type and optional format hint to a
// Scalar. ok is false when the hint is not recognized for the type.
func scalarFor(typ, format string) (s Scalar, ok bool) {
	switch typ {
	case "string":
		switch {
		case format == "":
			return Text, true
		case format == "uuid":
			return UUID, true
		case format == "uri" || format == "url":
			return URI, true
		case stringFormats[format]:
			return Text, true
		}
	case "number":
		if format == "" {
			return Float32, true
		}
		s, ok = numberFormats[format]
		return s, ok
	case "integer":
		if format == "" {
			return Int32, true
		}
		s, ok = integerFormats[format]
		return s, ok
	case "boolean":
		return Bool, true
	}
	return 0, false
}

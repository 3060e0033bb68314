package eval

import (
	"testing"

	"github.com/signadot/tony-format/jsonschema/codegen"
	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/google/go-cmp/cmp"
)

func loc(doc, frag string) schema.Location {
	return schema.Location{Document: doc, Fragment: frag}
}

func named(name string, l schema.Location) *codegen.Type {
	return &codegen.Type{Kind: codegen.NamedType, Name: name, Location: l}
}

func testResult() *codegen.Result {
	pet := loc("mem://t/pet.yaml", "")
	owner := loc("mem://t/pet.yaml", "/$defs/Owner")
	addr := loc("mem://t/addr.yaml", "")
	color := loc("mem://t/color.yaml", "")
	return &codegen.Result{
		Decls: []*codegen.Decl{
			{Kind: codegen.DeclStruct, Name: "Addr", Location: addr},
			{Kind: codegen.DeclEnum, Name: "Color", Location: color, Cases: []*codegen.Case{{Name: "Red", Value: "red"}}},
			{Kind: codegen.DeclStruct, Name: "Pet", Location: pet, Fields: []*codegen.Field{
				{Name: "Owner", JSONName: "owner", Type: named("Owner", owner)},
				{Name: "Tags", JSONName: "tags", Type: &codegen.Type{Kind: codegen.SliceType, Elem: &codegen.Type{Kind: codegen.ScalarType}}},
			}},
			{Kind: codegen.DeclVariant, Name: "Owner", Location: owner, Cases: []*codegen.Case{
				{Name: "Addr", Type: &codegen.Type{Kind: codegen.SliceType, Elem: named("Addr", addr)}},
			}},
		},
		Diagnostics: []codegen.Diagnostic{
			{Location: loc("mem://t/pet.yaml", "/properties/x"), Message: "pet"},
			{Location: loc("mem://t/color.yaml", "/x"), Message: "color"},
		},
	}
}

func names(res *codegen.Result) []string {
	var out []string
	for _, d := range res.Decls {
		out = append(out, d.Name)
	}
	return out
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		decls []string
		diags []string
	}{
		{
			name:  "closure",
			src:   `name == "Pet"`,
			decls: []string{"Addr", "Pet", "Owner"},
			diags: []string{"pet"},
		},
		{
			name:  "kind",
			src:   `kind == "enum"`,
			decls: []string{"Color"},
			diags: []string{"color"},
		},
		{
			name:  "members",
			src:   `"owner" in members`,
			decls: []string{"Addr", "Pet", "Owner"},
			diags: []string{"pet"},
		},
		{
			name:  "fragment",
			src:   `fragment startsWith "/$defs"`,
			decls: []string{"Addr", "Owner"},
			diags: []string{"pet"},
		},
		{
			name:  "stem",
			src:   `stem(url) == "addr"`,
			decls: []string{"Addr"},
		},
		{
			name:  "glob",
			src:   `glob("mem://*/color.yaml", document)`,
			decls: []string{"Color"},
			diags: []string{"color"},
		},
		{
			name: "none",
			src:  `false`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			res, err := f.Apply(testResult())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.decls, names(res)); diff != "" {
				t.Errorf("decls (-want +got):\n%s", diff)
			}
			var diags []string
			for _, d := range res.Diagnostics {
				diags = append(diags, d.Message)
			}
			if diff := cmp.Diff(tt.diags, diags); diff != "" {
				t.Errorf("diagnostics (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterGetenv(t *testing.T) {
	t.Setenv("JSONSCHEMA_FILTER_TEST", "Color")
	f, err := Compile(`name == getenv("JSONSCHEMA_FILTER_TEST")`)
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Apply(testResult())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Color"}, names(res)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFilterErrors(t *testing.T) {
	if _, err := Compile(`name +`); err == nil {
		t.Error("expected syntax error")
	}
	if _, err := Compile(`name`); err == nil {
		t.Error("expected a non bool filter to be rejected")
	}
	f, err := Compile(`glob("[", name)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(testResult()); err == nil {
		t.Error("expected a bad pattern to fail")
	}
	var nilFilter *Filter
	res := testResult()
	got, err := nilFilter.Apply(res)
	if err != nil || got != res {
		t.Errorf("nil filter: %v %v", got, err)
	}
	if f, err := Compile(""); f != nil || err != nil {
		t.Errorf("empty filter: %v %v", f, err)
	}
}

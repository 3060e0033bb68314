package eval

import (
	"github.com/signadot/tony-format/jsonschema/codegen"
)

// Env is what a filter sees of one declaration.
type Env struct {
	URL      string `expr:"url"`
	Document string `expr:"document"`
	Fragment string `expr:"fragment"`
	Name     string `expr:"name"`
	Kind     string `expr:"kind"`
	Doc      string `expr:"doc"`
	// Members holds the JSON names of a struct's properties or the
	// names of a variant's or enum's cases.
	Members []string `expr:"members"`
}

func envOf(d *codegen.Decl) Env {
	env := Env{
		URL:      d.Location.String(),
		Document: d.Location.Document,
		Fragment: d.Location.Fragment,
		Name:     d.Name,
		Kind:     d.Kind.String(),
		Doc:      d.Doc,
	}
	for _, f := range d.Fields {
		if f.JSONName != "" {
			env.Members = append(env.Members, f.JSONName)
		}
	}
	for _, c := range d.Cases {
		env.Members = append(env.Members, c.Name)
	}
	return env
}

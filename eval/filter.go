// Package eval selects synthesized declarations with expr-lang
// expressions.
//
// A filter is a boolean expression evaluated once per declaration
// against an [Env]. For example
//
//	kind == "struct" && document endsWith "/pet.yaml"
//	name matches "^(Pet|Owner)$" || getenv("ALL") == "1"
//
// Applying a filter keeps the matching declarations together with every
// declaration they refer to, so that the result still renders as a
// complete Go file.
package eval

import (
	"errors"
	"fmt"

	"github.com/signadot/tony-format/jsonschema/codegen"
	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var ErrNotBool = errors.New("filter result is not a bool")

type Filter struct {
	src  string
	prog *vm.Program
}

// Compile compiles src into a Filter. An empty src yields a nil Filter,
// which keeps everything.
func Compile(src string) (*Filter, error) {
	if src == "" {
		return nil, nil
	}
	opts := append(exprOpts(), expr.Env(Env{}), expr.AsBool())
	prog, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("error compiling filter %q: %w", src, err)
	}
	return &Filter{src: src, prog: prog}, nil
}

func (f *Filter) String() string {
	return f.src
}

// Match reports whether d satisfies f.
func (f *Filter) Match(d *codegen.Decl) (bool, error) {
	res, err := expr.Run(f.prog, envOf(d))
	if err != nil {
		return false, fmt.Errorf("error evaluating filter on %s: %w", d.Location, err)
	}
	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBool, res)
	}
	if debug.Filter() {
		debug.Logf("filter %s on %s (%s): %t\n", f.src, d.Location, d.Name, b)
	}
	return b, nil
}

// Apply returns a result holding the declarations of res matching f and
// those they refer to, directly or not. Diagnostics are kept for the
// documents that still contribute a declaration.
func (f *Filter) Apply(res *codegen.Result) (*codegen.Result, error) {
	if f == nil {
		return res, nil
	}
	byLoc := make(map[schema.Location]*codegen.Decl, len(res.Decls))
	keep := map[schema.Location]bool{}
	var queue []*codegen.Decl
	for _, d := range res.Decls {
		byLoc[d.Location] = d
		ok, err := f.Match(d)
		if err != nil {
			return nil, err
		}
		if ok {
			keep[d.Location] = true
			queue = append(queue, d)
		}
	}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		for _, loc := range d.References() {
			rd := byLoc[loc]
			if rd == nil || keep[loc] {
				continue
			}
			keep[loc] = true
			queue = append(queue, rd)
		}
	}

	out := &codegen.Result{Faults: res.Faults}
	docs := map[string]bool{}
	for _, d := range res.Decls {
		if keep[d.Location] {
			out.Decls = append(out.Decls, d)
			docs[d.Location.Document] = true
		}
	}
	for _, diag := range res.Diagnostics {
		if docs[diag.Location.Document] {
			out.Diagnostics = append(out.Diagnostics, diag)
		}
	}
	return out, nil
}

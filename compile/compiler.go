package compile

import (
	"context"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/schema"
)

// Reference is a location that must be compiled to complete a closure.
type Reference struct {
	Location schema.Location
	// Module marks a reference to a document holding named schemas.
	Module bool
}

func (r Reference) String() string {
	if r.Module {
		return "mod:" + r.Location.String()
	}
	return r.Location.String()
}

// compiler rewrites one schema tree into store entries. It runs on a
// single goroutine; the references it collects are resolved afterwards.
type compiler struct {
	ctx     context.Context
	store   *Store
	faults  *faults.List
	pending []Reference
	seen    map[Reference]bool
}

func newCompiler(ctx context.Context, store *Store, fl *faults.List) *compiler {
	return &compiler{
		ctx:    ctx,
		store:  store,
		faults: fl,
		seen:   map[Reference]bool{},
	}
}

// compileRoot compiles n as the content of at. A reference at the root
// becomes an alias of its target.
func (c *compiler) compileRoot(n *schema.Node, at schema.Location) error {
	if !n.IsRef() {
		return c.compile(n, at.Document, at.Pointer())
	}
	if t, err := at.Resolve(n.Ref); err == nil && t == at {
		c.faults.Add(at.String(), faults.New(faults.InvalidReference, at.String(), "reference to itself"))
		n.Resolve(schema.Location{})
		return nil
	}
	target, ok := c.target(n, at)
	if !ok {
		return nil
	}
	if c.store.Alias(at, target) && debug.Compile() {
		debug.Logf("alias %s -> %s\n", at, target)
	}
	return nil
}

// compile walks n, located in doc at p.
func (c *compiler) compile(n *schema.Node, doc string, p schema.Pointer) error {
	at := schema.Location{Document: doc, Fragment: p.String()}
	switch n.Kind {
	case schema.ResolvedKind:
		return nil
	case schema.RefKind, schema.ModKind:
		c.target(n, at)
		return nil
	}
	if !c.store.Reserve(at) {
		n.Resolve(at)
		return nil
	}
	if err := c.ctx.Err(); err != nil {
		c.store.Release(at)
		return err
	}
	if debug.Compile() {
		debug.Logf("compile %s (%s)\n", at, n.Kind)
	}
	if n.Kind == schema.ObjectKind {
		for _, sub := range n.Keywords.Subschemas() {
			if err := c.compile(sub.Node, doc, p.Push(sub.Tokens...)); err != nil {
				c.store.Release(at)
				return err
			}
		}
	}
	if err := c.store.Commit(at, n.Detach()); err != nil {
		c.store.Release(at)
		return err
	}
	n.Resolve(at)
	return nil
}

// target resolves the reference n found at at, records it as pending
// and rewrites n into a handle for it.
func (c *compiler) target(n *schema.Node, at schema.Location) (schema.Location, bool) {
	target, err := at.Resolve(n.Ref)
	if err != nil {
		c.faults.Add(at.String(), faults.Wrap(faults.InvalidReference, at.String(), err))
		n.Resolve(schema.Location{})
		return schema.Location{}, false
	}
	ref := Reference{Location: target, Module: n.Kind == schema.ModKind}
	if ref.Module && target.IsRoot() {
		c.faults.Add(at.String(), faults.New(faults.InvalidReference, at.String(), "module reference %q names no member", n.Ref))
	}
	if !c.seen[ref] && (ref.Module || !c.store.Contains(target)) {
		c.seen[ref] = true
		c.pending = append(c.pending, ref)
		if debug.Refs() {
			debug.Logf("pending %s from %s\n", ref, at)
		}
	}
	n.Resolve(target)
	return target, true
}

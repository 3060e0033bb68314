package compile

import (
	"sync"
	"testing"

	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/google/go-cmp/cmp"
)

func loc(doc, frag string) schema.Location {
	return schema.Location{Document: doc, Fragment: frag}
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	a := loc("mem://s/a.json", "")
	if !s.Reserve(a) {
		t.Fatal("reserve failed")
	}
	if s.Reserve(a) {
		t.Error("double reserve")
	}
	if _, ok := s.Lookup(a); ok {
		t.Error("reserved entry visible to Lookup")
	}
	if !s.Contains(a) {
		t.Error("reserved entry not contained")
	}
	if diff := cmp.Diff([]schema.Location{a}, s.Pending()); diff != "" {
		t.Errorf("pending (-want +got):\n%s", diff)
	}
	if err := s.Commit(a, schema.NewBool(true)); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(a, schema.NewBool(false)); err == nil {
		t.Error("commit of committed entry")
	}
	if n, ok := s.Lookup(a); !ok || !n.Bool {
		t.Errorf("lookup %v %v", n, ok)
	}

	b := loc("mem://s/b.json", "")
	if err := s.Commit(b, schema.NewBool(true)); err == nil {
		t.Error("commit without reserve")
	}
	s.Reserve(b)
	if err := s.Commit(b, schema.NewRef("#")); err == nil {
		t.Error("commit of ref node")
	}
	s.Release(b)
	if s.Contains(b) {
		t.Error("released entry still present")
	}
	s.Release(a)
	if !s.Contains(a) {
		t.Error("release removed committed entry")
	}
	if s.Len() != 1 {
		t.Errorf("len %d", s.Len())
	}
	s.Reset()
	if s.Len() != 0 || s.Contains(a) {
		t.Error("reset kept entries")
	}
}

func TestStoreAlias(t *testing.T) {
	s := NewStore()
	a := loc("mem://s/a.json", "")
	b := loc("mem://s/b.json", "/$defs/x")
	c := loc("mem://s/c.json", "")
	if !s.Alias(a, b) {
		t.Fatal("alias failed")
	}
	if _, ok := s.Lookup(a); ok {
		t.Error("alias to missing entry resolved")
	}
	s.Reserve(b)
	s.Commit(b, schema.NewBool(false))
	if n, ok := s.Lookup(a); !ok || n.Bool {
		t.Errorf("lookup via alias %v %v", n, ok)
	}
	if got, ok := s.Target(a); !ok || got != b {
		t.Errorf("target %v", got)
	}
	// cycle
	s.Alias(c, a)
	d := loc("mem://s/d.json", "")
	s.Alias(d, c)
	e := loc("mem://s/e.json", "")
	f := loc("mem://s/f.json", "")
	s.Alias(e, f)
	s.Alias(f, e)
	if _, ok := s.Lookup(e); ok {
		t.Error("cyclic alias resolved")
	}
	if _, ok := s.Lookup(d); !ok {
		t.Error("alias chain did not resolve")
	}
	if diff := cmp.Diff([]schema.Location{a, c, d, e, f}, s.Aliases()); diff != "" {
		t.Errorf("aliases (-want +got):\n%s", diff)
	}
	if !s.IsAlias(a) || s.IsAlias(b) {
		t.Error("IsAlias mismatch")
	}
}

func TestStoreConcurrentReserve(t *testing.T) {
	s := NewStore()
	a := loc("mem://s/a.json", "/properties/x")
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Reserve(a) {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Errorf("%d reservations won", won)
	}
}

func TestStoreLocationsSorted(t *testing.T) {
	s := NewStore()
	locs := []schema.Location{
		loc("mem://s/b.json", ""),
		loc("mem://s/a.json", "/properties/y"),
		loc("mem://s/a.json", ""),
		loc("mem://s/a.json", "/properties/x"),
	}
	for _, l := range locs {
		s.Reserve(l)
		s.Commit(l, schema.NewBool(true))
	}
	want := []schema.Location{locs[2], locs[3], locs[1], locs[0]}
	if diff := cmp.Diff(want, s.Locations()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

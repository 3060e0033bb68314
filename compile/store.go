package compile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/signadot/tony-format/jsonschema/schema"
)

type entryState int

const (
	reserved entryState = iota + 1
	committed
	aliased
)

type entry struct {
	state  entryState
	node   *schema.Node
	target schema.Location
}

// Store maps canonical locations to compiled schema nodes.
//
// An entry is first reserved, which marks the location as taken while its
// subschemas are compiled, then committed with its complete node. Lookup
// only sees committed entries. An alias entry records that the document
// fragment at a location is itself a reference to another location.
type Store struct {
	mu      sync.RWMutex
	entries map[schema.Location]*entry
}

func NewStore() *Store {
	return &Store{entries: map[schema.Location]*entry{}}
}

// Reserve claims loc. It returns false if loc already has an entry of
// any kind.
func (s *Store) Reserve(loc schema.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[loc]; ok {
		return false
	}
	s.entries[loc] = &entry{state: reserved}
	return true
}

// Commit stores the complete node for a reserved location.
func (s *Store) Commit(loc schema.Location, n *schema.Node) error {
	if n.Kind != schema.BoolKind && n.Kind != schema.ObjectKind {
		return fmt.Errorf("cannot commit %s node at %s", n.Kind, loc)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[loc]
	if e == nil || e.state != reserved {
		return fmt.Errorf("commit of unreserved location %s", loc)
	}
	e.state = committed
	e.node = n
	return nil
}

// Release drops a reservation that will not be committed.
func (s *Store) Release(loc schema.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entries[loc]; e != nil && e.state == reserved {
		delete(s.entries, loc)
	}
}

// Alias records that loc stands for target. It returns false if loc
// already has an entry.
func (s *Store) Alias(loc, target schema.Location) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[loc]; ok {
		return false
	}
	s.entries[loc] = &entry{state: aliased, target: target}
	return true
}

// Target follows aliases from loc and returns the location holding its
// content. Cyclic aliases yield ok == false.
func (s *Store) Target(loc schema.Location) (schema.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target(loc)
}

func (s *Store) target(loc schema.Location) (schema.Location, bool) {
	var seen map[schema.Location]bool
	for {
		e := s.entries[loc]
		if e == nil || e.state != aliased {
			return loc, true
		}
		if seen == nil {
			seen = map[schema.Location]bool{}
		}
		if seen[loc] {
			return loc, false
		}
		seen[loc] = true
		loc = e.target
	}
}

// Lookup returns the committed node for loc, following aliases.
func (s *Store) Lookup(loc schema.Location) (*schema.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.target(loc)
	if !ok {
		return nil, false
	}
	e := s.entries[t]
	if e == nil || e.state != committed {
		return nil, false
	}
	return e.node, true
}

// Contains reports whether loc has an entry of any kind.
func (s *Store) Contains(loc schema.Location) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[loc]
	return ok
}

// IsAlias reports whether loc is an alias entry.
func (s *Store) IsAlias(loc schema.Location) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[loc]
	return e != nil && e.state == aliased
}

// Locations returns the committed locations in sorted order.
func (s *Store) Locations() []schema.Location {
	return s.locations(committed)
}

// Aliases returns the alias locations in sorted order.
func (s *Store) Aliases() []schema.Location {
	return s.locations(aliased)
}

// Pending returns reserved locations that have not been committed.
func (s *Store) Pending() []schema.Location {
	return s.locations(reserved)
}

func (s *Store) locations(state entryState) []schema.Location {
	s.mu.RLock()
	res := make([]schema.Location, 0, len(s.entries))
	for loc, e := range s.entries {
		if e.state == state {
			res = append(res, loc)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(res, schema.Location.Compare)
	return res
}

// Len returns the number of committed entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.state == committed {
			n++
		}
	}
	return n
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[schema.Location]*entry{}
}

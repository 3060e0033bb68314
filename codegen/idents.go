package codegen

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/schema"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Disambiguator proposes a replacement for name, which loc cannot use
// because another location claimed it first. taken reports whether a
// candidate is already in use.
type Disambiguator func(name string, loc schema.Location, taken func(string) bool) string

// NumberSuffix is a Disambiguator appending the smallest number, starting
// at 2, that makes name unique.
func NumberSuffix(name string, _ schema.Location, taken func(string) bool) string {
	for i := 2; ; i++ {
		c := name + strconv.Itoa(i)
		if !taken(c) {
			return c
		}
	}
}

// Idents assigns identifiers to locations. Once a location has an
// identifier, every later request returns it. It is safe for concurrent
// use.
type Idents struct {
	mu           sync.Mutex
	names        map[schema.Location]string
	owners       map[string]schema.Location
	faults       *faults.List
	disambiguate Disambiguator
}

// NewIdents returns an empty table reporting collisions to fl. d may be
// nil, in which case colliding locations share the identifier.
func NewIdents(fl *faults.List, d Disambiguator) *Idents {
	return &Idents{
		names:        map[schema.Location]string{},
		owners:       map[string]schema.Location{},
		faults:       fl,
		disambiguate: d,
	}
}

// NameFor returns the identifier of loc, whose keywords are kw (kw may
// be nil). The identifier comes from the title if there is one, else
// from the last fragment token unless it is numeric, else from the
// document's file stem.
func (ids *Idents) NameFor(loc schema.Location, kw *schema.Keywords) string {
	ids.mu.Lock()
	defer ids.mu.Unlock()
	if name, ok := ids.names[loc]; ok {
		return name
	}
	name := baseIdent(loc, kw)
	if owner, ok := ids.owners[name]; ok && owner != loc {
		ids.faults.Add(loc.String(), faults.Warn(faults.NameCollision, loc.String(),
			"identifier %s is already used by %s", name, owner))
		if ids.disambiguate != nil {
			name = ids.disambiguate(name, loc, ids.taken)
		}
	}
	if _, ok := ids.owners[name]; !ok {
		ids.owners[name] = loc
	}
	ids.names[loc] = name
	if debug.Idents() {
		debug.Logf("ident %s = %s\n", loc, name)
	}
	return name
}

// Lookup returns the identifier already assigned to loc.
func (ids *Idents) Lookup(loc schema.Location) (string, bool) {
	ids.mu.Lock()
	defer ids.mu.Unlock()
	name, ok := ids.names[loc]
	return name, ok
}

func (ids *Idents) taken(name string) bool {
	_, ok := ids.owners[name]
	return ok
}

func baseIdent(loc schema.Location, kw *schema.Keywords) string {
	if title, ok := kw.Title(); ok {
		if id := Ident(title); id != "" {
			return id
		}
	}
	if last, ok := loc.Pointer().Last(); ok && !isNumeric(last) {
		if id := Ident(last); id != "" {
			return id
		}
	}
	if id := Ident(loc.Stem()); id != "" {
		return id
	}
	return "Schema"
}

// Ident converts s into an exported identifier in Pascal case. Runs of
// characters other than letters and digits separate words. A result
// starting with a digit gets a "T" prefix.
func Ident(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	// a Caser keeps state, so each call gets its own
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	res := b.String()
	if r, _ := utf8.DecodeRuneInString(res); unicode.IsDigit(r) {
		res = "T" + res
	}
	return res
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package schema

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

var ErrBadLocation = errors.New("bad location")

// Location is the canonical address of a schema node: the URL of the
// document holding it plus a JSON pointer fragment. Two nodes are the
// same entity exactly when their locations are equal.
type Location struct {
	Document string
	Fragment string
}

func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrBadLocation, err)
	}
	return fromURL(u)
}

// FileLocation returns the location of the root of the document at the
// local path p.
func FileLocation(p string) (Location, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrBadLocation, err)
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return Location{Document: u.String()}, nil
}

func fromURL(u *url.URL) (Location, error) {
	frag := u.Fragment
	if frag != "" && frag[0] != '/' {
		return Location{}, fmt.Errorf("%w: fragment %q is not a pointer", ErrBadLocation, frag)
	}
	if _, err := ParsePointer(frag); err != nil {
		return Location{}, err
	}
	d := *u
	d.Fragment = ""
	d.RawFragment = ""
	return Location{Document: d.String(), Fragment: frag}, nil
}

func (l Location) String() string {
	if l.Fragment == "" {
		return l.Document
	}
	return l.Document + "#" + l.Fragment
}

// URL returns the location as a URL.
func (l Location) URL() (*url.URL, error) {
	u, err := url.Parse(l.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLocation, err)
	}
	u.Fragment = l.Fragment
	return u, nil
}

// DocumentURL returns the URL of the document holding l.
func (l Location) DocumentURL() (*url.URL, error) {
	u, err := url.Parse(l.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadLocation, err)
	}
	return u, nil
}

func (l Location) IsZero() bool { return l == Location{} }

// IsRoot reports whether l addresses the root of its document.
func (l Location) IsRoot() bool { return l.Fragment == "" }

// Root returns the location of the root of l's document.
func (l Location) Root() Location { return Location{Document: l.Document} }

func (l Location) Pointer() Pointer {
	p, _ := ParsePointer(l.Fragment)
	return p
}

// At returns the location in l's document addressed by p.
func (l Location) At(p Pointer) Location {
	return Location{Document: l.Document, Fragment: p.String()}
}

// Push returns the location below l reached by the given tokens.
func (l Location) Push(tokens ...string) Location {
	return l.At(l.Pointer().Push(tokens...))
}

// Resolve resolves ref against l. A reference of the form "#/..."
// addresses l's document; "#" alone is its root.
func (l Location) Resolve(ref string) (Location, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return Location{}, fmt.Errorf("%w: reference %q: %w", ErrBadLocation, ref, err)
	}
	base, err := l.DocumentURL()
	if err != nil {
		return Location{}, err
	}
	return fromURL(base.ResolveReference(r))
}

// Stem returns the file name of l's document without extension.
func (l Location) Stem() string {
	doc := l.Document
	if u, err := url.Parse(doc); err == nil {
		doc = u.Path
		if doc == "" {
			doc = u.Opaque
		}
	}
	base := path.Base(doc)
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// Compare orders locations by document then fragment.
func (l Location) Compare(o Location) int {
	if c := strings.Compare(l.Document, o.Document); c != 0 {
		return c
	}
	return strings.Compare(l.Fragment, o.Fragment)
}

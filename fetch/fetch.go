// Package fetch retrieves the raw bytes of schema documents.
//
// A Fetcher maps a document URL to its bytes and surface format. The
// implementations here cover local files (File), HTTP (HTTP), in-memory
// documents (Mem), dispatch by scheme (Mux), merge patch overlays (Patch)
// and a persistent sqlite cache (Cache).
//
// Failures are reported as *faults.Error values so callers can tell an
// unsupported scheme from an unreadable file or a network failure.
package fetch

import (
	"context"
	"net/url"

	"github.com/signadot/tony-format/jsonschema/format"
)

// Document is the raw content of a fetched document.
type Document struct {
	URL    string
	Data   []byte
	Format format.Format
}

type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*Document, error)
}

// Func adapts a function to a Fetcher.
type Func func(ctx context.Context, u *url.URL) (*Document, error)

func (f Func) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	return f(ctx, u)
}

// Default returns a Fetcher for file, http and https URLs.
func Default() *Mux {
	h := NewHTTP(nil)
	return NewMux().
		Handle("file", &File{}).
		Handle("http", h).
		Handle("https", h)
}

func docURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}

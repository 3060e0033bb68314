package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/format"
)

// File fetches file URLs from the local filesystem.
type File struct {
	// Root, if set, is prepended to every path.
	Root string
}

func (f *File) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	loc := docURL(u)
	if u.Scheme != "file" {
		return nil, faults.New(faults.UnsupportedScheme, loc, "file fetcher cannot read scheme %q", u.Scheme)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.FromSlash(u.Path)
	if u.Path == "" {
		p = filepath.FromSlash(u.Opaque)
	}
	if f.Root != "" {
		p = filepath.Join(f.Root, p)
	}
	fmat, err := format.FromExtension(p)
	if err != nil {
		return nil, faults.Wrap(faults.UnsupportedDocumentKind, loc, err)
	}
	if debug.Fetch() {
		debug.Logf("file fetch %s\n", p)
	}
	d, err := os.ReadFile(p)
	if err != nil {
		return nil, faults.Wrap(faults.UnreadableLocation, loc, err)
	}
	return &Document{URL: loc, Data: d, Format: fmat}, nil
}

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/format"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
)

// Patch applies patches to documents fetched through it. A patch given
// as a list is an RFC 6902 JSON patch; any other patch is an RFC 7386
// merge patch. Patched documents are served as JSON; object keys of a
// patched document come out sorted.
type Patch struct {
	Fetcher Fetcher

	mu      sync.RWMutex
	patches map[string][]docPatch
}

type docPatch struct {
	ops   jsonpatch.Patch
	merge []byte
}

func NewPatch(f Fetcher) *Patch {
	return &Patch{Fetcher: f, patches: map[string][]docPatch{}}
}

// Add registers a patch for the document at docURL. Patches apply in the
// order they are added.
func (p *Patch) Add(docURL string, f format.Format, d []byte) error {
	j, err := toJSON(f, d)
	if err != nil {
		return fmt.Errorf("patch for %s: %w", docURL, err)
	}
	dp := docPatch{}
	if t := bytes.TrimSpace(j); len(t) > 0 && t[0] == '[' {
		ops, err := jsonpatch.DecodePatch(j)
		if err != nil {
			return fmt.Errorf("patch for %s: %w", docURL, err)
		}
		dp.ops = ops
	} else {
		dp.merge = j
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patches[docURL] = append(p.patches[docURL], dp)
	return nil
}

func (p *Patch) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	doc, err := p.Fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	ps := p.patches[doc.URL]
	p.mu.RUnlock()
	if len(ps) == 0 {
		return doc, nil
	}
	d, err := toJSON(doc.Format, doc.Data)
	if err != nil {
		return nil, faults.Wrap(faults.ParseFailure, doc.URL, err)
	}
	for i, dp := range ps {
		if debug.Fetch() {
			debug.Logf("applying patch %d to %s\n", i, doc.URL)
		}
		if dp.ops != nil {
			d, err = dp.ops.Apply(d)
		} else {
			d, err = jsonpatch.MergePatch(d, dp.merge)
		}
		if err != nil {
			return nil, faults.Wrap(faults.ParseFailure, doc.URL, fmt.Errorf("patch %d: %w", i, err))
		}
	}
	return &Document{URL: doc.URL, Data: d, Format: format.JSONFormat}, nil
}

func toJSON(f format.Format, d []byte) ([]byte, error) {
	if f.IsJSON() {
		return d, nil
	}
	return yaml.YAMLToJSON(d)
}

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/format"
)

// MaxDocumentSize bounds the size of documents read over HTTP.
const MaxDocumentSize = 16 << 20

// HTTP fetches http and https URLs.
type HTTP struct {
	Client *http.Client
	// Header is added to every request.
	Header http.Header
}

func NewHTTP(c *http.Client) *HTTP {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTP{Client: c}
}

func (h *HTTP) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	loc := docURL(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, faults.New(faults.UnsupportedScheme, loc, "http fetcher cannot read scheme %q", u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, faults.Wrap(faults.InvalidReference, loc, err)
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9, */*;q=0.1")
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if debug.Fetch() {
		debug.Logf("http fetch %s\n", loc)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.NetworkFailure, loc, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, faults.New(faults.NetworkFailure, loc, "unexpected status %s", resp.Status)
	}
	d, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, faults.Wrap(faults.NetworkFailure, loc, err)
	}
	if len(d) > MaxDocumentSize {
		return nil, faults.New(faults.NetworkFailure, loc, "document exceeds %d bytes", MaxDocumentSize)
	}
	return &Document{URL: loc, Data: d, Format: responseFormat(resp, u)}, nil
}

// responseFormat picks the format by content type, then by extension,
// then defaults to JSON.
func responseFormat(resp *http.Response, u *url.URL) format.Format {
	if f, err := format.FromContentType(resp.Header.Get("Content-Type")); err == nil {
		return f
	}
	if f, err := format.FromExtension(u.Path); err == nil {
		return f
	}
	if debug.Fetch() {
		debug.Logf("%s: no format from %q, assuming json\n", u, resp.Header.Get("Content-Type"))
	}
	return format.JSONFormat
}

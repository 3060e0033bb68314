package fetch

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"github.com/signadot/tony-format/jsonschema/faults"
)

// Mux dispatches to a Fetcher by URL scheme.
type Mux struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

func NewMux() *Mux {
	return &Mux{fetchers: map[string]Fetcher{}}
}

func (m *Mux) Handle(scheme string, f Fetcher) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchers[scheme] = f
	return m
}

func (m *Mux) Schemes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]string, 0, len(m.fetchers))
	for s := range m.fetchers {
		res = append(res, s)
	}
	sort.Strings(res)
	return res
}

func (m *Mux) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	m.mu.RLock()
	f := m.fetchers[u.Scheme]
	m.mu.RUnlock()
	if f == nil {
		return nil, faults.New(faults.UnsupportedScheme, docURL(u), "no fetcher for scheme %q", u.Scheme)
	}
	return f.Fetch(ctx, u)
}

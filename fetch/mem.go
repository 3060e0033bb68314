package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/format"
)

// Mem serves documents held in memory, keyed by document URL, and counts
// how often each is fetched.
type Mem struct {
	// Delay is applied to every fetch.
	Delay time.Duration

	mu     sync.Mutex
	docs   map[string]*Document
	counts map[string]int
}

func NewMem() *Mem {
	return &Mem{docs: map[string]*Document{}, counts: map[string]int{}}
}

// Add registers the document at rawURL.
func (m *Mem) Add(rawURL string, f format.Format, d string) *Mem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[rawURL] = &Document{URL: rawURL, Data: []byte(d), Format: f}
	return m
}

func (m *Mem) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	loc := docURL(u)
	m.mu.Lock()
	m.counts[loc]++
	doc := m.docs[loc]
	m.mu.Unlock()
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if doc == nil {
		return nil, faults.New(faults.UnreadableLocation, loc, "no such document")
	}
	c := *doc
	return &c, nil
}

// Count returns how many times the document at rawURL was fetched.
func (m *Mem) Count(rawURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[rawURL]
}

// Total returns the number of fetches of any document.
func (m *Mem) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.counts {
		n += c
	}
	return n
}

package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/fetch"
	"github.com/signadot/tony-format/jsonschema/format"
	"github.com/signadot/tony-format/jsonschema/parse"
	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency bounds the number of simultaneous fetches.
const DefaultConcurrency = 8

// Session compiles schema documents into a Store, fetching referenced
// documents as needed. Documents are fetched and parsed at most once per
// session, and concurrent requests for the same location are coalesced.
type Session struct {
	id      uuid.UUID
	store   *Store
	fetcher fetch.Fetcher
	logger  *slog.Logger
	sem     *semaphore.Weighted
	faults  *faults.List

	docFlight singleflight.Group
	locFlight singleflight.Group
	modFlight singleflight.Group

	mu      sync.Mutex
	docs    map[string]any
	modules map[string]bool
}

type Option func(*Session)

func WithFetcher(f fetch.Fetcher) Option {
	return func(s *Session) { s.fetcher = f }
}

// WithConcurrency bounds the number of simultaneous fetches.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n < 1 {
			n = 1
		}
		s.sem = semaphore.NewWeighted(int64(n))
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithStore(st *Store) Option {
	return func(s *Session) { s.store = st }
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		id:      uuid.New(),
		store:   NewStore(),
		fetcher: fetch.Default(),
		logger:  slog.New(slog.DiscardHandler),
		sem:     semaphore.NewWeighted(DefaultConcurrency),
		faults:  &faults.List{},
		docs:    map[string]any{},
		modules: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())
	return s
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) Store() *Store        { return s.store }
func (s *Session) Faults() *faults.List { return s.faults }
func (s *Session) Logger() *slog.Logger { return s.logger }

// Reset drops all compiled entries, cached documents and faults.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.faults.Reset()
	s.docs = map[string]any{}
	s.modules = map[string]bool{}
}

// ParseTarget turns a command line argument, either a URL or a local
// path with an optional fragment, into a location.
func ParseTarget(raw string) (schema.Location, error) {
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		return schema.ParseLocation(raw)
	}
	p, frag, _ := strings.Cut(raw, "#")
	loc, err := schema.FileLocation(p)
	if err != nil {
		return schema.Location{}, err
	}
	if frag != "" {
		if _, err := schema.ParsePointer(frag); err != nil {
			return schema.Location{}, err
		}
		loc.Fragment = frag
	}
	return loc, nil
}

// CompileURL compiles the schema at raw, which may be a URL or a local
// path, together with everything it references.
func (s *Session) CompileURL(ctx context.Context, raw string) (schema.Location, error) {
	loc, err := ParseTarget(raw)
	if err != nil {
		err = faults.Wrap(faults.InvalidReference, raw, err)
		s.faults.Add(raw, err)
		return schema.Location{}, err
	}
	return loc, s.CompileLocation(ctx, loc)
}

// CompileLocation compiles the schema at loc and everything it
// references.
func (s *Session) CompileLocation(ctx context.Context, loc schema.Location) error {
	return s.resolve(ctx, Reference{Location: loc})
}

// CompileSchema compiles an already decoded schema as the content of at.
func (s *Session) CompileSchema(ctx context.Context, n *schema.Node, at schema.Location) error {
	pending, err := s.walk(ctx, n, at)
	if err != nil {
		return err
	}
	return s.Resolve(ctx, pending)
}

// CompileDir compiles every schema file below dir.
func (s *Session) CompileDir(ctx context.Context, dir string) ([]schema.Location, error) {
	var locs []schema.Location
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !format.IsSchemaFile(p) {
			return nil
		}
		loc, err := schema.FileLocation(p)
		if err != nil {
			return err
		}
		locs = append(locs, loc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", dir, err)
	}
	refs := make([]Reference, len(locs))
	for i, loc := range locs {
		refs[i] = Reference{Location: loc}
	}
	return locs, s.Resolve(ctx, refs)
}

// Prefetch fetches and parses the documents holding locs without
// compiling them.
func (s *Session) Prefetch(ctx context.Context, locs ...schema.Location) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	seen := map[string]bool{}
	for _, loc := range locs {
		if seen[loc.Document] {
			continue
		}
		seen[loc.Document] = true
		g.Go(func() error {
			if _, err := s.document(ctx, loc.Document); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Resolve compiles every reference concurrently. A failing reference
// does not stop its siblings; the returned error joins all failures.
func (s *Session) Resolve(ctx context.Context, refs []Reference) error {
	switch len(refs) {
	case 0:
		return nil
	case 1:
		return s.resolve(ctx, refs[0])
	}
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, ref := range refs {
		g.Go(func() error {
			if err := s.resolve(ctx, ref); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

func (s *Session) resolve(ctx context.Context, ref Reference) error {
	if ref.Module && s.expanded(ref.Location.Document) {
		// members are already compiled
		if ref.Location.IsRoot() {
			return nil
		}
		ref.Module = false
	}
	if !ref.Module && s.store.Contains(ref.Location) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err, shared := s.locFlight.Do(ref.String(), func() (any, error) {
		if ref.Module {
			return nil, s.loadModule(ctx, ref.Location)
		}
		return nil, s.load(ctx, ref.Location)
	})
	if shared {
		s.logger.Debug("coalesced resolution", "url", ref.String())
	}
	return err
}

func (s *Session) load(ctx context.Context, loc schema.Location) error {
	if s.store.Contains(loc) {
		return nil
	}
	v, err := s.document(ctx, loc.Document)
	if err != nil {
		return err
	}
	sub, err := loc.Pointer().Get(v)
	if err != nil {
		return s.fail(faults.Wrap(faults.InvalidReference, loc.String(), err))
	}
	n, err := schema.FromValue(sub)
	if err != nil {
		return s.fail(faults.Wrap(faults.ParseFailure, loc.String(), err))
	}
	return s.CompileSchema(ctx, n, loc)
}

// loadModule compiles every top level member of a module document, then
// resolves the references they left pending.
func (s *Session) loadModule(ctx context.Context, target schema.Location) error {
	pending, err := s.expandModule(ctx, target.Root())
	if err != nil {
		return err
	}
	if err := s.Resolve(ctx, pending); err != nil {
		return err
	}
	if target.IsRoot() {
		return nil
	}
	return s.load(ctx, target)
}

// expandModule compiles the members of the module at doc once per
// session and returns the references they left pending.
func (s *Session) expandModule(ctx context.Context, doc schema.Location) ([]Reference, error) {
	v, err, _ := s.modFlight.Do(doc.Document, func() (any, error) {
		if s.expanded(doc.Document) {
			return []Reference(nil), nil
		}
		v, err := s.document(ctx, doc.Document)
		if err != nil {
			return nil, err
		}
		members, err := moduleMembers(v)
		if err != nil {
			return nil, s.fail(faults.Wrap(faults.ParseFailure, doc.String(), err))
		}
		c := newCompiler(ctx, s.store, s.faults)
		for _, m := range members {
			at := doc.Push(m.Key.(string))
			n, err := schema.FromValue(m.Value)
			if err != nil {
				s.fail(faults.Wrap(faults.ParseFailure, at.String(), err))
				continue
			}
			if err := c.compileRoot(n, at); err != nil {
				return nil, err
			}
		}
		s.mu.Lock()
		s.modules[doc.Document] = true
		s.mu.Unlock()
		return c.pending, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Reference), nil
}

func (s *Session) expanded(doc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modules[doc]
}

func moduleMembers(v any) (yaml.MapSlice, error) {
	switch x := v.(type) {
	case yaml.MapSlice:
		for _, item := range x {
			if _, ok := item.Key.(string); !ok {
				return nil, fmt.Errorf("module member name %v is not a string", item.Key)
			}
		}
		return x, nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		slices.Sort(names)
		res := make(yaml.MapSlice, len(names))
		for i, name := range names {
			res[i] = yaml.MapItem{Key: name, Value: x[name]}
		}
		return res, nil
	}
	return nil, fmt.Errorf("module must be an object, got %T", v)
}

// walk compiles n at at and returns the references it left pending.
func (s *Session) walk(ctx context.Context, n *schema.Node, at schema.Location) ([]Reference, error) {
	c := newCompiler(ctx, s.store, s.faults)
	if err := c.compileRoot(n, at); err != nil {
		return nil, err
	}
	return c.pending, nil
}

// document returns the parsed content of the document at doc, fetching
// it at most once.
func (s *Session) document(ctx context.Context, doc string) (any, error) {
	s.mu.Lock()
	v, ok := s.docs[doc]
	s.mu.Unlock()
	if ok {
		return v, nil
	}
	v, err, _ := s.docFlight.Do(doc, func() (any, error) {
		s.mu.Lock()
		v, ok := s.docs[doc]
		s.mu.Unlock()
		if ok {
			return v, nil
		}
		u, err := url.Parse(doc)
		if err != nil {
			return nil, s.fail(faults.Wrap(faults.InvalidReference, doc, err))
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		raw, err := s.fetcher.Fetch(ctx, u)
		s.sem.Release(1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			if faults.KindOf(err) == 0 {
				err = faults.Wrap(faults.UnreadableLocation, doc, err)
			}
			return nil, s.fail(err)
		}
		s.logger.Debug("fetched document", "url", doc, "format", raw.Format.String(), "bytes", len(raw.Data))
		v, err = parse.Parse(raw.Data, parse.ParseFormat(raw.Format))
		if err != nil {
			return nil, s.fail(faults.Wrap(faults.ParseFailure, doc, err))
		}
		s.mu.Lock()
		s.docs[doc] = v
		s.mu.Unlock()
		return v, nil
	})
	return v, err
}

// fail records err as a fault and returns it.
func (s *Session) fail(err error) error {
	var fe *faults.Error
	loc := ""
	if errors.As(err, &fe) {
		loc = fe.Location
	}
	s.logger.Warn("resolution failed", "url", loc, "kind", faults.KindOf(err).String(), "error", err)
	s.faults.Add(loc, err)
	return err
}

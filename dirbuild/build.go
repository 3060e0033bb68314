package dirbuild

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/signadot/tony-format/jsonschema/codegen"
	"github.com/signadot/tony-format/jsonschema/compile"
	"github.com/signadot/tony-format/jsonschema/debug"
	"github.com/signadot/tony-format/jsonschema/eval"
	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/fetch"
	"github.com/signadot/tony-format/jsonschema/format"
	"github.com/signadot/tony-format/jsonschema/libdiff"
	"github.com/signadot/tony-format/jsonschema/schema"
)

// Build is the outcome of running a build directory.
type Build struct {
	Dir    *Dir
	Result *codegen.Result
	Source []byte
}

// Run compiles the sources of d and renders the Go file. Faults found
// on the way are reported in the Result rather than failing the run.
func (d *Dir) Run(ctx context.Context, logger *slog.Logger) (*Build, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var f fetch.Fetcher = fetch.Default()
	if d.Cache != "" {
		c, err := fetch.OpenCache(d.path(d.Cache), f, logger)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		f = c
	}
	if len(d.Patches) != 0 {
		p, err := d.patcher(f)
		if err != nil {
			return nil, err
		}
		f = p
	}
	conc := d.Concurrency
	if conc < 1 {
		conc = compile.DefaultConcurrency
	}
	s := compile.NewSession(
		compile.WithFetcher(f),
		compile.WithConcurrency(conc),
		compile.WithLogger(logger.With("dir", d.Root)),
	)
	for _, src := range d.Sources {
		if err := d.compileSource(ctx, s, src); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []codegen.Option{codegen.WithFaults(s.Faults())}
	if d.Disambiguate {
		opts = append(opts, codegen.WithDisambiguator(codegen.NumberSuffix))
	}
	res := codegen.NewSynthesizer(s.Store(), opts...).Parallel(conc).Synthesize()
	filter, err := eval.Compile(d.Filter)
	if err != nil {
		return nil, err
	}
	res, err = filter.Apply(res)
	if err != nil {
		return nil, err
	}
	src, err := codegen.GoSource(d.Package, res)
	if err != nil {
		return nil, err
	}
	logger.Info("built", "dir", d.Root, "decls", len(res.Decls), "faults", len(res.Faults))
	return &Build{Dir: d, Result: res, Source: src}, nil
}

func (d *Dir) patcher(f fetch.Fetcher) (*fetch.Patch, error) {
	p := fetch.NewPatch(f)
	for i := range d.Patches {
		dp := &d.Patches[i]
		loc, err := d.location(dp.Document)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		data, err := json.Marshal(dp.Patch)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		if err := p.Add(loc.Document, format.JSONFormat, data); err != nil {
			return nil, err
		}
		if debug.LoadEnv() {
			debug.Logf("loaded patch %s\n", dp)
		}
	}
	return p, nil
}

// compileSource compiles one entry of Sources. Only cancellation is
// returned as an error; everything else is recorded as a fault.
func (d *Dir) compileSource(ctx context.Context, s *compile.Session, src string) error {
	var err error
	switch p := d.path(src); {
	case isURL(src):
		_, err = s.CompileURL(ctx, src)
	case isDir(p):
		_, err = s.CompileDir(ctx, p)
	default:
		_, err = s.CompileURL(ctx, p)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fe *faults.Error
	if !errors.As(err, &fe) {
		s.Faults().Add(src, faults.Wrap(faults.UnreadableLocation, src, err))
	}
	return nil
}

func (d *Dir) location(doc string) (schema.Location, error) {
	if isURL(doc) {
		return schema.ParseLocation(doc)
	}
	return schema.FileLocation(d.path(doc))
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && len(u.Scheme) > 1
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// Failed reports whether any error fault was found.
func (b *Build) Failed() bool {
	for _, f := range b.Result.Faults {
		if f.Severity == faults.SeverityError {
			return true
		}
	}
	return false
}

// Write writes the generated file.
func (b *Build) Write() error {
	return os.WriteFile(b.Dir.OutPath(), b.Source, 0644)
}

// Diff returns the edits turning the file on disk into the generated
// one. A missing file counts as empty.
func (b *Build) Diff() ([]libdiff.Edit, error) {
	cur, err := os.ReadFile(b.Dir.OutPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return libdiff.Diff(string(cur), string(b.Source))
}

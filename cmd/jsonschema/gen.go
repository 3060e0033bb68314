package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/signadot/tony-format/jsonschema/codegen"
	"github.com/signadot/tony-format/jsonschema/eval"
	"github.com/signadot/tony-format/jsonschema/libdiff"

	"github.com/scott-cotton/cli"
)

func gen(cfg *GenConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Gen.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: no schemas given", cli.ErrUsage)
	}
	if cfg.Check && cfg.Out == "" {
		return fmt.Errorf("%w: -check requires -o", cli.ErrUsage)
	}
	filter, err := eval.Compile(cfg.Where)
	if err != nil {
		return err
	}
	pkg := cfg.Package
	if pkg == "" {
		pkg = "schema"
	}

	ctx, cancel := signalContext()
	defer cancel()
	f, closeFetch, err := cfg.fetcher()
	if err != nil {
		return err
	}
	defer closeFetch()
	s := cfg.session(f)
	if err := compileTargets(ctx, s, args); err != nil {
		return err
	}

	opts := []codegen.Option{codegen.WithFaults(s.Faults())}
	if cfg.Disambiguate {
		opts = append(opts, codegen.WithDisambiguator(codegen.NumberSuffix))
	}
	res := codegen.NewSynthesizer(s.Store(), opts...).Parallel(cfg.concurrency()).Synthesize()
	res, err = filter.Apply(res)
	if err != nil {
		return err
	}
	src, err := codegen.GoSource(pkg, res)
	if err != nil {
		return err
	}
	nErr := reportFaults(cfg.MainConfig, os.Stderr, res.Faults)

	if cfg.Check {
		cur, err := os.ReadFile(cfg.Out)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		edits, err := libdiff.Diff(string(cur), string(src))
		if err != nil {
			return err
		}
		if !libdiff.Changed(edits) {
			return errorCount(nErr)
		}
		if err := libdiff.Unified(cc.Out, cfg.Out, cfg.Out+" (generated)", edits, cfg.diffStyle(cc.Out)); err != nil {
			return err
		}
		return cli.ExitCodeErr(1)
	}
	w, err := cfg.openOut(cc)
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return err
	}
	return errorCount(nErr)
}

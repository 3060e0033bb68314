package main

import (
	"fmt"
	"os"

	"github.com/signadot/tony-format/jsonschema/dirbuild"
	"github.com/signadot/tony-format/jsonschema/libdiff"

	"github.com/scott-cotton/cli"
)

func build(cfg *BuildConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Build.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	env, err := dirbuild.LoadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	nErr, changed := 0, false
	for _, path := range args {
		dir, err := dirbuild.OpenDir(path, env)
		if err != nil {
			return err
		}
		if cfg.Concurrency > 0 {
			dir.Concurrency = cfg.Concurrency
		}
		b, err := dir.Run(ctx, cfg.logger())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		nErr += reportFaults(cfg.MainConfig, os.Stderr, b.Result.Faults)
		if !cfg.Check {
			if err := b.Write(); err != nil {
				return err
			}
			continue
		}
		edits, err := b.Diff()
		if err != nil {
			return err
		}
		if !libdiff.Changed(edits) {
			continue
		}
		changed = true
		out := dir.OutPath()
		if err := libdiff.Unified(cc.Out, out, out+" (generated)", edits, cfg.diffStyle(cc.Out)); err != nil {
			return err
		}
	}
	if changed {
		return cli.ExitCodeErr(1)
	}
	return errorCount(nErr)
}

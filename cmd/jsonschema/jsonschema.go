package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/signadot/tony-format/jsonschema/compile"
	"github.com/signadot/tony-format/jsonschema/faults"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

func jsMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// compileTargets compiles each target, a schema file, directory or URL.
// Failures are left in the session's faults.
func compileTargets(ctx context.Context, s *compile.Session, targets []string) error {
	for _, t := range targets {
		var err error
		if fi, statErr := os.Stat(t); statErr == nil && fi.IsDir() {
			_, err = s.CompileDir(ctx, t)
		} else {
			_, err = s.CompileURL(ctx, t)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		var fe *faults.Error
		if err != nil && !errors.As(err, &fe) {
			s.Faults().Add(t, faults.Wrap(faults.UnreadableLocation, t, err))
		}
	}
	return ctx.Err()
}

// reportFaults writes fs to w, one per line, and returns the number of
// errors among them.
func reportFaults(cfg *MainConfig, w io.Writer, fs []*faults.Error) int {
	warn, bad := fmt.Sprintf, fmt.Sprintf
	if cfg.colors(w) {
		color.NoColor = false
		warn, bad = color.YellowString, color.RedString
	}
	n := 0
	for _, f := range fs {
		if f.Severity == faults.SeverityWarning {
			fmt.Fprintln(w, warn("warning: %s", f))
			continue
		}
		n++
		fmt.Fprintln(w, bad("error: %s", f))
	}
	return n
}

func errorCount(n int) error {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return errors.New("1 error")
	}
	return fmt.Errorf("%d errors", n)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/signadot/tony-format/jsonschema/codegen"

	"github.com/mattn/go-runewidth"
	"github.com/scott-cotton/cli"
)

func list(cfg *ListConfig, cc *cli.Context, args []string) error {
	args, err := cfg.List.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: no schemas given", cli.ErrUsage)
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

	store := s.Store()
	syn := codegen.NewSynthesizer(store, codegen.WithFaults(s.Faults()))
	res := syn.Synthesize()
	rows := [][]string{{"LOCATION", "TYPE", "DECL"}}
	for _, loc := range store.Locations() {
		typ := "?"
		if t, err := syn.TypeOf(loc); err == nil {
			typ = t.String()
		}
		decl := "-"
		if d := res.Decl(loc); d != nil {
			decl = d.Kind.String()
		}
		rows = append(rows, []string{loc.String(), typ, decl})
	}
	if cfg.Aliases {
		for _, loc := range store.Aliases() {
			target, _ := store.Target(loc)
			rows = append(rows, []string{loc.String(), "-> " + target.String(), "-"})
		}
	}
	w, err := cfg.openOut(cc)
	if err != nil {
		return err
	}
	if err := writeTable(w, rows); err != nil {
		return err
	}
	return errorCount(reportFaults(cfg.MainConfig, os.Stderr, res.Faults))
}

// writeTable writes rows with columns padded to their widest cell.
func writeTable(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		line := ""
		for i, cell := range row {
			if i == len(row)-1 {
				line += cell
				break
			}
			line += runewidth.FillRight(cell, widths[i]) + "  "
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

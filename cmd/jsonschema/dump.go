package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
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
	var doc yaml.MapSlice
	for _, loc := range store.Locations() {
		n, _ := store.Lookup(loc)
		doc = append(doc, yaml.MapItem{Key: loc.String(), Value: n.Value()})
	}
	for _, loc := range store.Aliases() {
		target, _ := store.Target(loc)
		doc = append(doc, yaml.MapItem{Key: loc.String(), Value: yaml.MapSlice{{Key: "$alias", Value: target.String()}}})
	}
	d, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	w, err := cfg.openOut(cc)
	if err != nil {
		return err
	}
	if _, err := w.Write(d); err != nil {
		return err
	}
	return errorCount(reportFaults(cfg.MainConfig, os.Stderr, s.Faults().Faults()))
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/signadot/tony-format/jsonschema/compile"
	"github.com/signadot/tony-format/jsonschema/fetch"
	"github.com/signadot/tony-format/jsonschema/libdiff"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Verbose     bool   `cli:"name=v aliases=verbose desc='log fetches and resolution'"`
	Concurrency int    `cli:"name=j desc='maximum number of simultaneous fetches (default 8)'"`
	Cache       string `cli:"name=cache desc='sqlite file caching documents fetched over http'"`
	Color       bool   `cli:"name=color desc='color faults and diffs'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

type GenConfig struct {
	*MainConfig
	Package      string `cli:"name=pkg desc='package of the generated file (default schema)'"`
	Check        bool   `cli:"name=check desc='show how the output file differs instead of writing it'"`
	Where        string `cli:"name=where desc='expr-lang expression selecting declarations'"`
	Disambiguate bool   `cli:"name=disambiguate desc='number colliding identifiers instead of reporting them'"`

	Gen *cli.Command
}

type ListConfig struct {
	*MainConfig
	Aliases bool `cli:"name=a aliases=aliases desc='include aliased locations'"`

	List *cli.Command
}

type BuildConfig struct {
	*MainConfig
	Check bool `cli:"name=check desc='show how output files differ instead of writing them'"`

	Build *cli.Command
}

type DumpConfig struct {
	*MainConfig

	Dump *cli.Command
}

// outOpt records the output file. It is created only once there is
// something to write, so that a failed run leaves it alone.
func (cfg *MainConfig) outOpt(_ *cli.Context, a string) (any, error) {
	if a == "-" {
		a = ""
	}
	cfg.Out = a
	return nil, nil
}

func (cfg *MainConfig) openOut(cc *cli.Context) (io.Writer, error) {
	if cfg.Out == "" {
		return cc.Out, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cfg.CloseOut = f.Close
	return f, nil
}

func (cfg *MainConfig) logger() *slog.Logger {
	if cfg.Verbose {
		return newLog(slog.LevelDebug)
	}
	return newLog(slog.LevelError)
}

func (cfg *MainConfig) fetcher() (fetch.Fetcher, func() error, error) {
	f := fetch.Default()
	if cfg.Cache == "" {
		return f, func() error { return nil }, nil
	}
	c, err := fetch.OpenCache(cfg.Cache, f, cfg.logger())
	if err != nil {
		return nil, nil, fmt.Errorf("error opening cache: %w", err)
	}
	return c, c.Close, nil
}

func (cfg *MainConfig) concurrency() int {
	if cfg.Concurrency < 1 {
		return compile.DefaultConcurrency
	}
	return cfg.Concurrency
}

func (cfg *MainConfig) session(f fetch.Fetcher) *compile.Session {
	return compile.NewSession(
		compile.WithFetcher(f),
		compile.WithConcurrency(cfg.concurrency()),
		compile.WithLogger(cfg.logger()),
	)
}

// colors reports whether output to w should be colored.
func (cfg *MainConfig) colors(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return false
		}
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) diffStyle(w io.Writer) *libdiff.Style {
	if !cfg.colors(w) {
		return nil
	}
	color.NoColor = false
	return &libdiff.Style{
		Header: color.New(color.Bold).SprintfFunc(),
		Hunk:   color.CyanString,
		Insert: color.GreenString,
		Delete: color.RedString,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

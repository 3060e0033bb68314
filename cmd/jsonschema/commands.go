package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "jsonschema").
		WithSynopsis("jsonschema [opts] command [opts]").
		WithDescription("jsonschema compiles JSON schema documents and generates Go types from them.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return jsMain(cfg, cc, args)
		}).
		WithSubs(
			GenCommand(cfg),
			ListCommand(cfg),
			BuildCommand(cfg),
			DumpCommand(cfg))
}

func GenCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GenConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("gen").
		WithAliases("g").
		WithSynopsis("gen [opts] schema...").
		WithDescription("generate Go types for schema files, directories and URLs").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return gen(cfg, cc, args)
		})
	cfg.Gen = cmd
	return cmd
}

func ListCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ListConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.List, "list").
		WithAliases("l", "ls").
		WithSynopsis("list [opts] schema...").
		WithDescription("list compiled locations with their types and declarations").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return list(cfg, cc, args)
		})
}

func BuildCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &BuildConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("build").
		WithAliases("b").
		WithSynopsis("build [opts] [dir...]").
		WithDescription("run build directories, each holding a build.{yaml,yml,json} file").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return build(cfg, cc, args)
		})
	cfg.Build = cmd
	return cmd
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("dump").
		WithAliases("d").
		WithSynopsis("dump [opts] schema...").
		WithDescription("print the compiled document store as YAML").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
	cfg.Dump = cmd
	return cmd
}

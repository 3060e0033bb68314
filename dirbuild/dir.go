// Package dirbuild interprets a jsonschema build directory.
//
// A build directory holds a build.yaml (or build.yml, build.json) file
// naming schema sources and how to generate Go code from them:
//
//	package: api
//	out: api_gen.go
//	sources:
//	- schemas/
//	- https://example.com/pet.json
//	patches:
//	- document: schemas/pet.yaml
//	  patch: {properties: {legacy: null}}
//	filter: kind != "singleton"
//	concurrency: 4
//	cache: .cache/docs.db
//	disambiguate: true
//
// Relative paths are relative to the directory.
package dirbuild

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signadot/tony-format/jsonschema/debug"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/goccy/go-yaml"
)

const DefaultOut = "schema_gen.go"

type Dir struct {
	Root         string     `json:"-"`
	Package      string     `json:"package"`
	Out          string     `json:"out,omitempty"`
	Sources      []string   `json:"sources"`
	Patches      []DirPatch `json:"patches,omitempty"`
	Filter       string     `json:"filter,omitempty"`
	Concurrency  int        `json:"concurrency,omitempty"`
	Cache        string     `json:"cache,omitempty"`
	Disambiguate bool       `json:"disambiguate,omitempty"`
}

// DirPatch overlays a source document with a JSON merge patch, or with
// a JSON patch when Patch is a list.
type DirPatch struct {
	Document string `json:"document"`
	Patch    any    `json:"patch"`
}

func (p *DirPatch) String() string {
	d, _ := json.Marshal(p.Patch)
	return fmt.Sprintf("%s <- %s", p.Document, d)
}

var ErrNoBuildFile = errors.New("no build file")

// OpenDir reads the build file in path. env, if not empty, is merged
// into the build file as a JSON merge patch.
func OpenDir(path string, env map[string]any) (*Dir, error) {
	if debug.LoadEnv() {
		debug.Logf("OpenDir input env:\n%s", debug.JSON(env))
	}
	var (
		confPath string
		d        []byte
	)
	for _, name := range []string{"build.yaml", "build.yml", "build.json"} {
		candidate := filepath.Join(path, name)
		var err error
		d, err = os.ReadFile(candidate)
		if err == nil {
			confPath = candidate
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read %q: %w", candidate, err)
		}
	}
	if confPath == "" {
		return nil, fmt.Errorf("%w: no build.{yaml,yml,json} in %q", ErrNoBuildFile, path)
	}
	dir, err := decodeDir(d, env)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", confPath, err)
	}
	dir.Root = path
	return dir, nil
}

func decodeDir(d []byte, env map[string]any) (*Dir, error) {
	doc, err := yaml.YAMLToJSON(d)
	if err != nil {
		return nil, err
	}
	if len(env) != 0 {
		patch, err := json.Marshal(env)
		if err != nil {
			return nil, err
		}
		doc, err = jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return nil, fmt.Errorf("error merging env: %w", err)
		}
		if debug.LoadEnv() {
			debug.Logf("build after env: %s\n", doc)
		}
	}
	dir := &Dir{}
	if err := yaml.UnmarshalWithOptions(doc, dir, yaml.Strict()); err != nil {
		return nil, err
	}
	if dir.Package == "" {
		return nil, fmt.Errorf("missing package")
	}
	if len(dir.Sources) == 0 {
		return nil, fmt.Errorf("missing sources")
	}
	if dir.Out == "" {
		dir.Out = DefaultOut
	}
	return dir, nil
}

// OutPath is the path of the generated file.
func (d *Dir) OutPath() string {
	return d.path(d.Out)
}

func (d *Dir) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}

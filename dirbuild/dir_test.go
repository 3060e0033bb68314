package dirbuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signadot/tony-format/jsonschema/faults"
	"github.com/signadot/tony-format/jsonschema/libdiff"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

const petSchema = `
title: Pet
type: object
properties:
  name: {type: string}
  legacy: {type: string}
  owner: {$ref: "owner.json"}
`

const ownerSchema = `{"title": "Owner", "type": "object", "properties": {"id": {"type": "string", "format": "uuid"}}}`

func TestOpenDir(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		env   map[string]any
		want  *Dir
		err   bool
	}{
		{
			name: "yaml",
			files: map[string]string{"build.yaml": `
package: api
sources: [schemas/]
patches:
- document: schemas/pet.yaml
  patch: {properties: {legacy: null}}
filter: kind == "struct"
concurrency: 2
`},
			want: &Dir{
				Package:     "api",
				Out:         DefaultOut,
				Sources:     []string{"schemas/"},
				Patches:     []DirPatch{{Document: "schemas/pet.yaml", Patch: map[string]any{"properties": map[string]any{"legacy": nil}}}},
				Filter:      `kind == "struct"`,
				Concurrency: 2,
			},
		},
		{
			name:  "json with env",
			files: map[string]string{"build.json": `{"package": "api", "out": "x.go", "sources": ["a.yaml"], "disambiguate": true}`},
			env:   map[string]any{"package": "other", "sources": []any{"b.yaml"}, "disambiguate": nil},
			want:  &Dir{Package: "other", Out: "x.go", Sources: []string{"b.yaml"}},
		},
		{
			name:  "yml",
			files: map[string]string{"build.yml": "package: p\nsources: [a.yaml]\nout: gen/p.go\n"},
			want:  &Dir{Package: "p", Out: "gen/p.go", Sources: []string{"a.yaml"}},
		},
		{
			name:  "unknown field",
			files: map[string]string{"build.yaml": "package: p\nsources: [a.yaml]\nsuffix: x\n"},
			err:   true,
		},
		{
			name:  "no package",
			files: map[string]string{"build.yaml": "sources: [a.yaml]\n"},
			err:   true,
		},
		{
			name:  "no sources",
			files: map[string]string{"build.yaml": "package: p\n"},
			err:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)
			dir, err := OpenDir(root, tt.env)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %+v", dir)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.want.Root = root
			if diff := cmp.Diff(tt.want, dir); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenDirMissing(t *testing.T) {
	_, err := OpenDir(t.TempDir(), nil)
	if !errors.Is(err, ErrNoBuildFile) {
		t.Errorf("got %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvEnv, "{package: fromenv, concurrency: 3}")
	env, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env["package"] != "fromenv" {
		t.Errorf("env %v", env)
	}
	t.Setenv(EnvEnv, "- not an object")
	if _, err := LoadEnv(); err == nil {
		t.Error("expected error")
	}
	t.Setenv(EnvEnv, "")
	if env, err := LoadEnv(); env != nil || err != nil {
		t.Errorf("empty: %v %v", env, err)
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"build.yaml": `
package: api
sources: [schemas, missing.yaml]
patches:
- document: schemas/pet.yaml
  patch: {properties: {legacy: null}}
filter: name == "Pet"
cache: .cache/docs.db
`,
		"schemas/pet.yaml":   petSchema,
		"schemas/owner.json": ownerSchema,
		"schemas/extra.yaml": "title: Extra\ntype: object\n",
	})
	dir, err := OpenDir(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dir.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := string(b.Source)
	for _, want := range []string{"package api", "type Pet struct", "type Owner struct", "uuid.UUID"} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in\n%s", want, src)
		}
	}
	for _, unwanted := range []string{"Legacy", "type Extra"} {
		if strings.Contains(src, unwanted) {
			t.Errorf("unexpected %q in\n%s", unwanted, src)
		}
	}
	if !b.Failed() {
		t.Error("missing source not reported")
	}
	var unreadable bool
	for _, f := range b.Result.Faults {
		if f.Kind == faults.UnreadableLocation {
			unreadable = true
		}
	}
	if !unreadable {
		t.Errorf("faults %v", b.Result.Faults)
	}

	edits, err := b.Diff()
	if err != nil {
		t.Fatal(err)
	}
	if !libdiff.Changed(edits) {
		t.Error("expected a diff against a missing file")
	}
	if err := b.Write(); err != nil {
		t.Fatal(err)
	}
	edits, err = b.Diff()
	if err != nil {
		t.Fatal(err)
	}
	if libdiff.Changed(edits) {
		t.Errorf("diff after write: %v", edits)
	}
	if _, err := os.Stat(filepath.Join(root, DefaultOut)); err != nil {
		t.Error(err)
	}
}

func TestRunCanceled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"build.yaml": "package: api\nsources: [pet.yaml]\n",
		"pet.yaml":   petSchema,
		"owner.json": ownerSchema,
	})
	dir, err := OpenDir(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dir.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signadot/tony-format/jsonschema/compile"
	"github.com/signadot/tony-format/jsonschema/faults"

	"github.com/google/go-cmp/cmp"
)

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]string{
		{"LOCATION", "TYPE", "DECL"},
		{"file:///a.yaml", "A", "struct"},
		{"file:///é.yaml", "string", "-"},
	}
	if err := writeTable(&buf, rows); err != nil {
		t.Fatal(err)
	}
	want := "LOCATION        TYPE    DECL\n" +
		"file:///a.yaml  A       struct\n" +
		"file:///é.yaml  string  -\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReportFaults(t *testing.T) {
	cfg := &MainConfig{Main: MainCommand()}
	var buf bytes.Buffer
	n := reportFaults(cfg, &buf, []*faults.Error{
		faults.New(faults.Unresolved, "a.yaml#/x", "no such location"),
		faults.Warn(faults.NameCollision, "b.yaml", "name taken"),
	})
	if n != 1 {
		t.Errorf("got %d errors", n)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "error: a.yaml#/x") || !strings.HasPrefix(lines[1], "warning: b.yaml") {
		t.Errorf("got %q", buf.String())
	}
	if err := errorCount(n); err == nil || err.Error() != "1 error" {
		t.Errorf("got %v", err)
	}
}

func TestCompileTargets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("title: A\ntype: object\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s := compile.NewSession()
	err := compileTargets(context.Background(), s, []string{dir, filepath.Join(dir, "missing.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Store().Locations()) == 0 {
		t.Error("nothing compiled")
	}
	if len(s.Faults().Errors()) == 0 {
		t.Error("missing file not reported")
	}
}

// Package libdiff computes line diffs of generated files.
package libdiff

import (
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Edit is a run of whole lines sharing an operation.
type Edit struct {
	Op   Op
	Text string
}

// Lines diffs from and to line by line.
func Lines(from, to string) []Edit {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	res := make([]Edit, 0, len(diffs))
	for _, d := range diffs {
		e := Edit{Text: d.Text}
		switch d.Type {
		case diffpatch.DiffInsert:
			e.Op = Insert
		case diffpatch.DiffDelete:
			e.Op = Delete
		}
		res = append(res, e)
	}
	return res
}

// Changed reports whether edits hold any insertion or deletion.
func Changed(edits []Edit) bool {
	for _, e := range edits {
		if e.Op != Equal && e.Text != "" {
			return true
		}
	}
	return false
}

type line struct {
	op   Op
	text string
}

func splitLines(edits []Edit) []line {
	var res []line
	for _, e := range edits {
		for _, l := range strings.SplitAfter(e.Text, "\n") {
			if l == "" {
				continue
			}
			res = append(res, line{op: e.Op, text: strings.TrimSuffix(l, "\n")})
		}
	}
	return res
}

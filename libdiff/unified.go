package libdiff

import (
	"fmt"
	"io"
)

// Style decorates the parts of unified output. A nil function leaves
// its part plain.
type Style struct {
	Header func(format string, a ...any) string
	Hunk   func(format string, a ...any) string
	Insert func(format string, a ...any) string
	Delete func(format string, a ...any) string
}

func (s *Style) pick(f func(string, ...any) string) func(string, ...any) string {
	if s == nil || f == nil {
		return fmt.Sprintf
	}
	return f
}

// Unified writes edits in unified diff format, labelling the two sides
// fromName and toName. Nothing is written if edits change nothing.
func Unified(w io.Writer, fromName, toName string, edits []Edit, st *Style) error {
	if !Changed(edits) {
		return nil
	}
	var header, hunk, ins, del func(string, ...any) string
	if st == nil {
		header, hunk, ins, del = fmt.Sprintf, fmt.Sprintf, fmt.Sprintf, fmt.Sprintf
	} else {
		header, hunk, ins, del = st.pick(st.Header), st.pick(st.Hunk), st.pick(st.Insert), st.pick(st.Delete)
	}
	ls := splitLines(edits)
	// pos[i] holds the 1 based line numbers of ls[i] on both sides
	pos := make([][2]int, len(ls))
	a, b := 1, 1
	for i, l := range ls {
		pos[i] = [2]int{a, b}
		if l.op != Insert {
			a++
		}
		if l.op != Delete {
			b++
		}
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", header("--- %s", fromName), header("+++ %s", toName)); err != nil {
		return err
	}
	next := 0
	for {
		first := -1
		for k := next; k < len(ls); k++ {
			if ls[k].op != Equal {
				first = k
				break
			}
		}
		if first < 0 {
			return nil
		}
		start := max(first-Context, next)
		end := first
		for k := first; k < len(ls); k++ {
			if ls[k].op != Equal {
				end = k + 1
				continue
			}
			if k-end >= 2*Context {
				break
			}
		}
		stop := min(end+Context, len(ls))
		na, nb := 0, 0
		for _, l := range ls[start:stop] {
			if l.op != Insert {
				na++
			}
			if l.op != Delete {
				nb++
			}
		}
		if _, err := fmt.Fprintln(w, hunk("@@ -%d,%d +%d,%d @@", pos[start][0], na, pos[start][1], nb)); err != nil {
			return err
		}
		for _, l := range ls[start:stop] {
			text := l.op.Prefix() + l.text
			switch l.op {
			case Insert:
				text = ins("%s", text)
			case Delete:
				text = del("%s", text)
			}
			if _, err := fmt.Fprintln(w, text); err != nil {
				return err
			}
		}
		next = stop
	}
}

package libdiff

import (
	"fmt"
	"strings"
)

// Diff returns the line edits turning from into to, after checking that
// they replay in both directions.
func Diff(from, to string) ([]Edit, error) {
	edits := Lines(from, to)
	if err := replays(from, to, edits); err != nil {
		return nil, err
	}
	if err := replays(to, from, Reverse(edits)); err != nil {
		return nil, fmt.Errorf("reversed: %w", err)
	}
	return edits, nil
}

func replays(from, to string, edits []Edit) error {
	got, err := Apply(from, edits)
	if err != nil {
		return err
	}
	if got != to {
		return fmt.Errorf("edits produce %q instead of %q", head(got), head(to))
	}
	return nil
}

// Apply applies edits to from. It fails if the equal and deleted runs
// of edits do not spell out from.
func Apply(from string, edits []Edit) (string, error) {
	var b strings.Builder
	rest := from
	for i, e := range edits {
		switch e.Op {
		case Insert:
			b.WriteString(e.Text)
			continue
		case Equal:
			b.WriteString(e.Text)
		}
		if !strings.HasPrefix(rest, e.Text) {
			return "", fmt.Errorf("cannot apply edit %d (%s): unexpected text %q", i, e.Op, head(rest))
		}
		rest = rest[len(e.Text):]
	}
	if rest != "" {
		return "", fmt.Errorf("cannot apply edits: %q left over", head(rest))
	}
	return b.String(), nil
}

func head(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

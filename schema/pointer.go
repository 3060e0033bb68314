package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var ErrBadPointer = errors.New("bad pointer")

// Pointer is a JSON pointer. Pointers are values: Push returns a new
// pointer and never modifies the receiver.
type Pointer struct {
	tokens []string
}

func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return Pointer{}, fmt.Errorf("%w: %q does not start with '/'", ErrBadPointer, s)
	}
	parts := strings.Split(s[1:], "/")
	res := Pointer{tokens: make([]string, len(parts))}
	for i, p := range parts {
		res.tokens[i] = UnescapeToken(p)
	}
	return res, nil
}

// Push returns p extended with the given unescaped tokens.
func (p Pointer) Push(tokens ...string) Pointer {
	if len(tokens) == 0 {
		return p
	}
	res := make([]string, len(p.tokens), len(p.tokens)+len(tokens))
	copy(res, p.tokens)
	return Pointer{tokens: append(res, tokens...)}
}

func (p Pointer) Tokens() []string {
	res := make([]string, len(p.tokens))
	copy(res, p.tokens)
	return res
}

func (p Pointer) Len() int { return len(p.tokens) }

func (p Pointer) IsRoot() bool { return len(p.tokens) == 0 }

// Last returns the final token, if any.
func (p Pointer) Last() (string, bool) {
	if len(p.tokens) == 0 {
		return "", false
	}
	return p.tokens[len(p.tokens)-1], true
}

func (p Pointer) String() string {
	if len(p.tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p.tokens {
		b.WriteByte('/')
		b.WriteString(EscapeToken(t))
	}
	return b.String()
}

// Get returns the sub-value of v that p addresses. Objects may be
// yaml.MapSlice or map[string]any, arrays []any.
func (p Pointer) Get(v any) (any, error) {
	cur := v
	for i, tok := range p.tokens {
		next, ok := child(cur, tok)
		if !ok {
			return nil, fmt.Errorf("%w: %s not found at %s", ErrBadPointer, p, Pointer{tokens: p.tokens[:i+1]})
		}
		cur = next
	}
	return cur, nil
}

func child(v any, tok string) (any, bool) {
	switch x := v.(type) {
	case yaml.MapSlice:
		for _, item := range x {
			if k, ok := item.Key.(string); ok && k == tok {
				return item.Value, true
			}
		}
	case map[string]any:
		c, ok := x[tok]
		return c, ok
	case []any:
		i, err := strconv.Atoi(tok)
		if err != nil || i < 0 || i >= len(x) {
			return nil, false
		}
		return x[i], true
	}
	return nil, false
}

func EscapeToken(t string) string {
	if !strings.ContainsAny(t, "~/") {
		return t
	}
	t = strings.ReplaceAll(t, "~", "~0")
	return strings.ReplaceAll(t, "/", "~1")
}

func UnescapeToken(t string) string {
	if !strings.Contains(t, "~") {
		return t
	}
	t = strings.ReplaceAll(t, "~1", "/")
	return strings.ReplaceAll(t, "~0", "~")
}

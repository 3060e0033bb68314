package debug

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

type JSON any

// YAML renders its value as YAML when logged.
type YAML struct{ V any }

func (y YAML) String() string {
	d, err := yaml.Marshal(y.V)
	if err != nil {
		return fmt.Sprintf("[raw] %v", y.V)
	}
	return string(d)
}

func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case map[string]any, []any, json.Number, JSON:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case yaml.MapSlice:
			args[i] = YAML{V: a}.String()
		case bool, string, float64, int:

		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}

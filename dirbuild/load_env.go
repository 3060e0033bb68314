package dirbuild

import (
	"fmt"
	"os"

	"github.com/signadot/tony-format/jsonschema/debug"

	"github.com/goccy/go-yaml"
)

const (
	EnvEnv = "JSONSCHEMA_BUILD"
)

// LoadEnv decodes the YAML object in $JSONSCHEMA_BUILD, which overrides
// fields of build files.
func LoadEnv() (map[string]any, error) {
	envEnv := os.Getenv(EnvEnv)
	if envEnv == "" {
		return nil, nil
	}
	var env map[string]any
	if err := yaml.Unmarshal([]byte(envEnv), &env); err != nil {
		return nil, fmt.Errorf("error decoding env $%s: %w", EnvEnv, err)
	}
	if debug.LoadEnv() {
		debug.Logf("\nloaded env from env: %s\n", debug.JSON(env))
	}
	return env, nil
}

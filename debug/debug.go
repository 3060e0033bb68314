package debug

import (
	"os"
	"strconv"
)

type debug struct {
	LoadEnv bool
	Compile bool
	Fetch   bool
	Refs    bool
	Synth   bool
	Idents  bool
	Filter  bool
}

var d *debug

func init() {
	d = &debug{}
	d.LoadEnv = boolEnv("JSONSCHEMA_DEBUG_LOAD_ENV")
	d.Compile = boolEnv("JSONSCHEMA_DEBUG_COMPILE")
	d.Fetch = boolEnv("JSONSCHEMA_DEBUG_FETCH")
	d.Refs = boolEnv("JSONSCHEMA_DEBUG_REFS")
	d.Synth = boolEnv("JSONSCHEMA_DEBUG_SYNTH")
	d.Idents = boolEnv("JSONSCHEMA_DEBUG_IDENTS")
	d.Filter = boolEnv("JSONSCHEMA_DEBUG_FILTER")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func LoadEnv() bool {
	return d.LoadEnv
}
func Compile() bool {
	return d.Compile
}
func Fetch() bool {
	return d.Fetch
}
func Refs() bool {
	return d.Refs
}
func Synth() bool {
	return d.Synth
}
func Idents() bool {
	return d.Idents
}
func Filter() bool {
	return d.Filter
}

package eval

import (
	"os"
	"path"

	"github.com/signadot/tony-format/jsonschema/schema"

	"github.com/expr-lang/expr"
)

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Function("getenv", func(params ...any) (any, error) {
			return os.Getenv(params[0].(string)), nil
		},
			new(func(string) string)),
		expr.Function("stem", func(params ...any) (any, error) {
			loc, err := schema.ParseLocation(params[0].(string))
			if err != nil {
				return nil, err
			}
			return loc.Stem(), nil
		},
			new(func(string) string)),
		expr.Function("glob", func(params ...any) (any, error) {
			ok, err := path.Match(params[0].(string), params[1].(string))
			if err != nil {
				return nil, err
			}
			return ok, nil
		},
			new(func(string, string) bool)),
	}
}

package parse

import (
	"errors"
	"fmt"
)

var (
	ErrParse    = errors.New("parse error")
	ErrFragment = fmt.Errorf("%w: fragment", ErrParse)
	ErrTrailing = fmt.Errorf("%w: trailing data", ErrParse)

	ErrDuplicateKey = fmt.Errorf("%w: duplicate key", ErrParse)
)

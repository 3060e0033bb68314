package format

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
)

type Format int

const (
	JSONFormat Format = iota
	YAMLFormat
)

var ErrBadFormat = errors.New("bad format")

func ParseFormat(v string) (Format, error) {
	f, ok := map[string]Format{
		"j":    JSONFormat,
		"json": JSONFormat,
		"y":    YAMLFormat,
		"yml":  YAMLFormat,
		"yaml": YAMLFormat,
	}[v]
	if ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

// FromExtension determines the format of a document by the extension of
// its path.
func FromExtension(p string) (Format, error) {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", ErrBadFormat, p)
	}
	return ParseFormat(strings.ToLower(ext))
}

// FromContentType determines the format of a document from an HTTP
// Content-Type header value.
func FromContentType(ct string) (Format, error) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return 0, fmt.Errorf("%w: content type %q: %w", ErrBadFormat, ct, err)
	}
	switch {
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return JSONFormat, nil
	case mt == "application/yaml", mt == "application/x-yaml",
		mt == "text/yaml", mt == "text/x-yaml", strings.HasSuffix(mt, "+yaml"):
		return YAMLFormat, nil
	}
	return 0, fmt.Errorf("%w: content type %q", ErrBadFormat, mt)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case YAMLFormat:
		return []byte("yaml"), nil
	case JSONFormat:
		return []byte("json"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

func (f Format) IsJSON() bool { return f == JSONFormat }
func (f Format) IsYAML() bool { return f == YAMLFormat }

// Suffix returns the file extension for this format (including the dot).
func (f Format) Suffix() string {
	switch f {
	case YAMLFormat:
		return ".yaml"
	case JSONFormat:
		return ".json"
	default:
		return ""
	}
}

// AllFormats returns all supported formats in preference order.
func AllFormats() []Format {
	return []Format{YAMLFormat, JSONFormat}
}

// IsSchemaFile reports whether p has an extension naming a supported
// format.
func IsSchemaFile(p string) bool {
	_, err := FromExtension(p)
	return err == nil
}

// Package faults describes the problems a compilation or generation run
// can encounter and collects them so a run can report them alongside its
// output.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fault.
type Kind int

const (
	UnsupportedScheme Kind = iota + 1
	UnsupportedDocumentKind
	UnreadableLocation
	InvalidReference
	NetworkFailure
	ParseFailure
	UnsupportedFormatHint
	UnsupportedSchemaShape
	NameCollision
	Unresolved
)

var kindNames = map[Kind]string{
	UnsupportedScheme:       "unsupported-scheme",
	UnsupportedDocumentKind: "unsupported-document-kind",
	UnreadableLocation:      "unreadable-location",
	InvalidReference:        "invalid-reference",
	NetworkFailure:          "network-failure",
	ParseFailure:            "parse-failure",
	UnsupportedFormatHint:   "unsupported-format-hint",
	UnsupportedSchemaShape:  "unsupported-schema-shape",
	NameCollision:           "name-collision",
	Unresolved:              "unresolved",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a Kind bound to a sentinel so that errors.Is(err, kind)
// works on any wrapped *Error.
func (k Kind) Error() string {
	return k.String()
}

// Severity says whether a fault invalidates the output it concerns.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Error is a fault attached to a location, usually a URL.
type Error struct {
	Kind     Kind
	Severity Severity
	Location string
	Message  string
	Err      error
}

func New(kind Kind, location, msg string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Location: location,
		Message:  fmt.Sprintf(msg, args...),
	}
}

func Wrap(kind Kind, location string, err error) *Error {
	return &Error{Kind: kind, Location: location, Err: err}
}

func Warn(kind Kind, location, msg string, args ...any) *Error {
	e := New(kind, location, msg, args...)
	e.Severity = SeverityWarning
	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Location != "" {
		return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

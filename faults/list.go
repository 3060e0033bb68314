package faults

import (
	"errors"
	"sort"
	"sync"
)

// List accumulates faults from concurrent tasks.
type List struct {
	mu     sync.Mutex
	faults []*Error
}

// Add records err. Errors that are not *Error are recorded with kind 0 at
// location loc.
func (l *List) Add(loc string, err error) {
	if err == nil {
		return
	}
	var fe *Error
	if !errors.As(err, &fe) {
		fe = &Error{Location: loc, Err: err}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = append(l.faults, fe)
}

// Faults returns a snapshot of recorded faults sorted by location.
func (l *List) Faults() []*Error {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]*Error, len(l.faults))
	copy(res, l.faults)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Location < res[j].Location
	})
	return res
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.faults)
}

// Errors returns the recorded faults of error severity.
func (l *List) Errors() []*Error {
	return l.filter(SeverityError)
}

// Warnings returns the recorded faults of warning severity.
func (l *List) Warnings() []*Error {
	return l.filter(SeverityWarning)
}

func (l *List) filter(s Severity) []*Error {
	var res []*Error
	for _, f := range l.Faults() {
		if f.Severity == s {
			res = append(res, f)
		}
	}
	return res
}

// Failed reports whether the location has an error severity fault.
func (l *List) Failed(loc string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.faults {
		if f.Location == loc && f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err joins all error severity faults, or returns nil.
func (l *List) Err() error {
	errs := l.Errors()
	if len(errs) == 0 {
		return nil
	}
	res := make([]error, len(errs))
	for i, e := range errs {
		res[i] = e
	}
	return errors.Join(res...)
}

func (l *List) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faults = nil
}

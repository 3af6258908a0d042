package card

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel wrapped by every FormatError.
var ErrFormat = errors.New("card format error")

// ErrNotPresent is additionally wrapped when the application, file or
// block was never dumped, as opposed to being present but unreadable.
var ErrNotPresent = errors.New("not present")

// FormatError reports a missing or unreadable application or file, or data
// that does not match the structure a decoder expected.
type FormatError struct {
	App    uint32
	File   int
	Reason string
	Err    error
	// Missing is set when the structure is absent from the dump.
	Missing bool
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("app %#x file %#x: %s", e.App, e.File, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	errs := []error{ErrFormat}
	if e.Missing {
		errs = append(errs, ErrNotPresent)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds a FormatError for app/file.
func Errorf(app uint32, file int, format string, args ...any) *FormatError {
	return &FormatError{App: app, File: file, Reason: fmt.Sprintf(format, args...)}
}

func notPresent(app uint32, file int, what string) *FormatError {
	return &FormatError{App: app, File: file, Reason: what + " not present", Missing: true}
}

// Wrap attaches app/file context to err. A nil err stays nil.
func Wrap(app uint32, file int, reason string, err error) error {
	if err == nil {
		return nil
	}
	return &FormatError{App: app, File: file, Reason: reason, Err: err}
}

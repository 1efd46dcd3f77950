// Package errs wraps github.com/cockroachdb/errors so the rest of the module
// shares one way of wrapping, marking, and inspecting errors.
//
// Marks are not visible to the standard library's errors.Is, so callers that
// test for a marked sentinel must use Is from this package.
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

// New returns an error carrying a stack trace.
func New(msg string) error {
	return cr.New(msg)
}

// Newf formats an error carrying a stack trace.
func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

// Wrap annotates err with msg. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// Mark tags err so that Is(err, mark) reports true while keeping the
// original message and cause chain.
func Mark(err error, mark error) error {
	if err == nil {
		return mark
	}
	return cr.Mark(err, mark)
}

// Is reports whether err matches target by identity, mark, or Is method.
func Is(err, target error) bool {
	return cr.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return cr.As(err, target)
}

// StackLines renders the verbose form of err and returns at most maxLines
// lines of it. A non-positive maxLines returns every line.
func StackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	lines := strings.Split(fmt.Sprintf("%+v", err), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

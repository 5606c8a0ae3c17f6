// Package errors defines the error kinds surfaced by covgap and maps them to
// process exit codes.
package errors

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Concrete errors are marked with one of these so callers can
// classify them with errors.Is regardless of wrapping.
var (
	// ErrMalformedInput marks a coverage document that cannot be parsed or
	// violates the minimal structure, and merge inputs that cannot be reconciled.
	ErrMalformedInput = errors.New("malformed coverage input")

	// ErrConfiguration marks an invalid combination of caller options.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNoInput marks a coverage file that does not exist or cannot be opened.
	ErrNoInput = errors.New("coverage input not found")

	// ErrThresholdFailed marks a threshold policy that did not hold.
	ErrThresholdFailed = errors.New("coverage threshold not met")
)

// Malformed returns an ErrMalformedInput error with the formatted message.
func Malformed(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedInput)
}

// Configuration returns an ErrConfiguration error with the formatted message.
func Configuration(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

// ConfigurationWithHint is Configuration plus a user-facing hint.
func ConfigurationWithHint(hint, format string, args ...interface{}) error {
	return errors.WithHint(Configuration(format, args...), hint)
}

// ThresholdFailed returns an ErrThresholdFailed error with the formatted
// message.
func ThresholdFailed(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrThresholdFailed)
}

// NoInput wraps err as ErrNoInput for the given path.
func NoInput(err error, path string) error {
	return errors.Mark(errors.Wrapf(err, "open %s", path), ErrNoInput)
}

// MarkMalformed marks an existing error (for example an XML syntax error) as
// ErrMalformedInput, prefixing it with msg.
func MarkMalformed(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrMalformedInput)
}

// Hints returns all hints attached to err.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}

// Is reports whether err matches target. It is a re-export so callers need a
// single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

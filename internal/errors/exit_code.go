package errors

import (
	"github.com/cockroachdb/errors"
)

// Exit codes follow sysexits(3) where a matching code exists.
const (
	ExitOK        = 0
	ExitGeneric   = 1
	ExitThreshold = 2
	ExitUsage     = 64
	ExitDataErr   = 65
	ExitNoInput   = 66
)

// exitCoder wraps an error and specifies an exit code.
type exitCoder struct {
	cause error
	code  int
}

func (e *exitCoder) Error() string {
	return e.cause.Error()
}

func (e *exitCoder) Cause() error {
	return e.cause
}

func (e *exitCoder) Unwrap() error {
	return e.cause
}

// ExitCode returns the exit code.
func (e *exitCoder) ExitCode() int {
	return e.code
}

// WithExitCode attaches an explicit exit code to an error.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitCoder{cause: err, code: code}
}

// ExitCode extracts the exit code for err.
//
// It checks, in order:
//  1. an explicit code attached via WithExitCode,
//  2. the error kind (threshold, configuration, malformed input, no input),
//  3. defaults to ExitGeneric.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ec *exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	switch {
	case errors.Is(err, ErrThresholdFailed):
		return ExitThreshold
	case errors.Is(err, ErrConfiguration):
		return ExitUsage
	case errors.Is(err, ErrMalformedInput):
		return ExitDataErr
	case errors.Is(err, ErrNoInput):
		return ExitNoInput
	}

	return ExitGeneric
}

// Package errors provides the structured error type used across gpugraph's
// outer layers: config loading, CLI flag handling, PNG export and SSH setup.
//
// The sampling path never returns these. A broken GPU tool shows up as
// missing bars, not as an error.
package errors

import (
	"errors"
	"strings"
)

// Codes group errors by the layer that raised them.
const (
	ErrConfig = "CONFIG"
	ErrSource = "SOURCE"
	ErrRender = "RENDER"
	ErrSSH    = "SSH"
	ErrExec   = "EXEC"
)

// Error is what gpugraph prints when a command fails:
//
//	✗ Can't reach 'gpu-box' at 10.0.0.5:22
//
//	  dial tcp 10.0.0.5:22: connect: connection refused
//
//	  Is SSH running on that box? Try: ssh <host>
//
// Message says what failed, Cause is the underlying error and Suggestion
// is the next thing to try. Cause and Suggestion are optional.
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New returns an Error with no underlying cause.
func New(code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// WrapWithCode returns an Error explaining err.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

func (e *Error) Error() string {
	blocks := []string{"✗ " + e.Message}
	if e.Cause != nil {
		blocks = append(blocks, "  "+e.Cause.Error())
	}
	if e.Suggestion != "" {
		blocks = append(blocks, "  "+e.Suggestion)
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err, or anything it wraps, is an Error with code.
func IsCode(err error, code string) bool {
	var e *Error
	for err != nil && errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

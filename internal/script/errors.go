package script

import (
	"errors"
	"fmt"
)

// Errors returned by a Host.
var (
	// ErrHostClosed is returned when running a script on a closed host.
	ErrHostClosed = errors.New("script host is closed")

	// ErrTimeout is returned when a script runs past its time limit.
	ErrTimeout = errors.New("script timed out")
)

// Error is a failed script run.
type Error struct {
	// Script names the script, usually its file path.
	Script string
	// Message is the Lua error message, including position when known.
	Message string
	// Traceback is the Lua stack traceback, if available.
	Traceback string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %s", e.Script, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

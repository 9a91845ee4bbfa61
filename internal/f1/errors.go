package f1

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool marks a call naming no registered tool. Transports
	// turn it into their own not-found shape; it never reaches the bridge.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument marks a call lacking a required parameter.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrBadArgument marks a parameter value that cannot be rendered as a
	// positional string.
	ErrBadArgument = errors.New("invalid argument value")
)

// ArgumentError pinpoints the tool and parameter a bad call failed on.
type ArgumentError struct {
	Tool  string
	Param string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: parameter %q: %v", e.Tool, e.Param, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

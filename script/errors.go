package script

import (
	"errors"
	"fmt"
)

// ErrEmptyScript is returned when a script has no steps.
var ErrEmptyScript = errors.New("script has no steps")

// LineError reports a problem on a specific script line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ArgumentError indicates a malformed or out-of-width argument.
type ArgumentError struct {
	Keyword string
	Arg     string
	Reason  string
}

func (e *ArgumentError) Error() string {
	if e.Keyword == "" {
		return e.Reason
	}
	if e.Arg == "" {
		return fmt.Sprintf("%s: %s", e.Keyword, e.Reason)
	}
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Keyword, e.Arg, e.Reason)
}

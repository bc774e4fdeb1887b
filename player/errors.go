package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-dfplayer/protocol"
)

var (
	// ErrAlreadyRunning is returned by Run when the read loop was
	// already started.
	ErrAlreadyRunning = errors.New("player already running")

	// ErrClosed is returned once the read loop has exited.
	ErrClosed = errors.New("player closed")
)

// AckTimeoutError indicates that a command was not acknowledged after all
// attempts.
type AckTimeoutError struct {
	Command  protocol.Command
	Attempts int

	// Err is the module error reported on the last attempt, if any
	Err error
}

func (e *AckTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no acknowledgement for %s after %d attempt(s): %v", e.Command, e.Attempts, e.Err)
	}
	return fmt.Sprintf("no acknowledgement for %s after %d attempt(s)", e.Command, e.Attempts)
}

func (e *AckTimeoutError) Unwrap() error { return e.Err }

// WaitTimeoutError indicates that a script wait step expired.
type WaitTimeoutError struct {
	Condition string
	Timeout   time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
}

package player

import (
	"time"

	"github.com/moffa90/go-dfplayer/protocol"
)

// Progress contains information about script playback progress.
// Passed to ProgressCallback after each step of Play.
type Progress struct {
	// Step is the number of steps completed so far
	Step int

	// TotalSteps is the number of steps in the script
	TotalSteps int

	// Line is the script line of the step just completed
	Line int

	// Description is the step as written, e.g. "track(3)" or "wait finished"
	Description string

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since Play started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each script step.
// Implementations should return quickly to avoid delaying the next step.
//
// Example:
//
//	p := player.New(device,
//	    player.WithProgressCallback(func(pr player.Progress) {
//	        fmt.Printf("[%d/%d] %s\n", pr.Step, pr.TotalSteps, pr.Description)
//	    }),
//	)
type ProgressCallback func(Progress)

// EventCallback is called from the read loop for every response other than
// Ack. It must not block.
type EventCallback func(protocol.Response)

// ErrorCallback is called from the read loop when an inbound frame fails
// its checksum or cannot be decoded. It must not block.
type ErrorCallback func(error)

// Logger is an optional logging interface that can be provided to the player.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	p := player.New(device, player.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Recorder receives counters from the player, typically to export metrics.
// Methods are called from both the read loop and Send and must be safe for
// concurrent use.
type Recorder interface {
	FrameSent(cmd protocol.Command)
	ResponseDecoded(resp protocol.Response)
	DecodeFailed(err error)
	AckTimedOut(cmd protocol.Command)
	EventDropped(resp protocol.Response)
}

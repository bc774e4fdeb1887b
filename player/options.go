package player

import (
	"time"

	"github.com/moffa90/go-dfplayer/protocol"
)

// Config holds the player configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// Recorder receives frame and event counters (optional)
	Recorder Recorder

	// EventCallback is called for every non-Ack response (optional)
	EventCallback EventCallback

	// ErrorCallback is called for every inbound frame error (optional)
	ErrorCallback ErrorCallback

	// ProgressCallback is called after each step of Play (optional)
	ProgressCallback ProgressCallback

	// RequestAck sets the FEEDBACK flag on outbound frames. With AckYes,
	// Send waits for the module's acknowledgement.
	RequestAck protocol.RequestAck

	// AckTimeout is how long Send waits for an acknowledgement
	AckTimeout time.Duration

	// Retries is the number of resends after a missing or rejected
	// acknowledgement
	Retries int

	// CommandInterval is the minimum spacing between outbound frames.
	// The module drops commands that arrive too close together.
	CommandInterval time.Duration

	// EventBuffer is the capacity of the Events channel
	EventBuffer int

	// ReadBufferSize is the size of each device read
	ReadBufferSize int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		RequestAck:      protocol.AckYes,
		AckTimeout:      500 * time.Millisecond,
		Retries:         2,
		CommandInterval: 100 * time.Millisecond,
		EventBuffer:     16,
		ReadBufferSize:  64,
	}
}

// Option is a functional option for configuring the Player.
type Option func(*Config)

// WithLogger sets a logger for player operations.
//
// Example:
//
//	p := player.New(device, player.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Config) {
		c.Recorder = recorder
	}
}

// WithEventCallback sets a callback for unsolicited module responses.
//
// Example:
//
//	p := player.New(device,
//	    player.WithEventCallback(func(r protocol.Response) {
//	        fmt.Println("event:", r)
//	    }),
//	)
func WithEventCallback(callback EventCallback) Option {
	return func(c *Config) {
		c.EventCallback = callback
	}
}

// WithErrorCallback sets a callback for inbound frame errors.
func WithErrorCallback(callback ErrorCallback) Option {
	return func(c *Config) {
		c.ErrorCallback = callback
	}
}

// WithProgressCallback sets a callback function to track script progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithRequestAck enables or disables acknowledged sends.
// Default is enabled.
//
// Example:
//
//	p := player.New(device, player.WithRequestAck(false))
func WithRequestAck(enable bool) Option {
	return func(c *Config) {
		c.RequestAck = protocol.AckNo
		if enable {
			c.RequestAck = protocol.AckYes
		}
	}
}

// WithAckTimeout sets how long Send waits for an acknowledgement.
//
// Example:
//
//	p := player.New(device, player.WithAckTimeout(time.Second))
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.AckTimeout = timeout
		}
	}
}

// WithRetries sets the number of resend attempts for unacknowledged commands.
//
// Example:
//
//	p := player.New(device, player.WithRetries(5))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithCommandInterval sets the minimum spacing between commands.
// Zero disables pacing.
func WithCommandInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.CommandInterval = interval
		}
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.EventBuffer = size
		}
	}
}

// WithReadBufferSize sets the size of each device read.
func WithReadBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ReadBufferSize = size
		}
	}
}

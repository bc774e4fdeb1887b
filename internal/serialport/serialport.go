// Package serialport opens the UART a DFPlayer module is attached to.
package serialport

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/moffa90/go-dfplayer/protocol"
)

// DefaultReadTimeout bounds each Read so the player loop can observe
// cancellation between reads.
const DefaultReadTimeout = 100 * time.Millisecond

// ErrNoPort is returned by Open when no port name is configured.
var ErrNoPort = errors.New("serial port not configured")

// Config describes the port to open.
type Config struct {
	// Port is the device name, e.g. /dev/ttyUSB0 or COM3
	Port string

	// BaudRate defaults to protocol.BaudRate
	BaudRate int

	// ReadTimeout defaults to DefaultReadTimeout
	ReadTimeout time.Duration
}

// Port is the subset of serial.Port the player needs.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// open is replaced in tests.
var open = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

// Open opens the port 8-N-1 and sets its read timeout. A read that times
// out returns (0, nil).
func Open(cfg Config) (Port, error) {
	if cfg.Port == "" {
		return nil, ErrNoPort
	}

	port, err := open(cfg.Port, mode(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := port.SetReadTimeout(readTimeout(cfg)); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return port, nil
}

// List returns the names of the serial ports present on the system.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

func mode(cfg Config) *serial.Mode {
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = protocol.BaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: protocol.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func readTimeout(cfg Config) time.Duration {
	if cfg.ReadTimeout > 0 {
		return cfg.ReadTimeout
	}
	return DefaultReadTimeout
}

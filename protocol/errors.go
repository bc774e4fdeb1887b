package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooShort is returned by Serialize when the output buffer
	// holds fewer than FrameSize bytes.
	ErrBufferTooShort = errors.New("buffer too short")

	// ErrBadChecksum matches any *ChecksumError.
	ErrBadChecksum = errors.New("bad checksum")

	// ErrInvalidCommand matches any *InvalidCommandError.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidParameterValue matches any *InvalidParameterError.
	ErrInvalidParameterValue = errors.New("invalid parameter value")
)

// ChecksumError is returned when a structurally complete frame carries a
// checksum that does not match its payload. The frame is dropped.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("bad checksum: frame has 0x%04X, expected 0x%04X", e.Actual, e.Expected)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrBadChecksum }

// InvalidCommandError is returned when a valid frame carries a command
// byte the decoder does not know.
type InvalidCommandError struct {
	Command byte
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command 0x%02X", e.Command)
}

func (e *InvalidCommandError) Is(target error) bool { return target == ErrInvalidCommand }

// InvalidParameterError is returned when a response parameter is not one
// of the enumerated codes for its command.
type InvalidParameterError struct {
	// Command is the response command byte
	Command byte

	// Value is the rejected parameter byte
	Value byte
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter value 0x%02X for command 0x%02X", e.Value, e.Command)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameterValue }

// DeviceError represents an error condition reported by the module in a
// ModuleError response.
type DeviceError struct {
	// Operation is the command that failed
	Operation string

	// Type is the error code from the module
	Type ModuleErrorType
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, e.Type, byte(e.Type))
}

// IsDeviceError returns true if err is or wraps a *DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

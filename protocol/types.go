package protocol

import "fmt"

// EqMode is an equaliser preset.
type EqMode uint16

// Equaliser presets.
const (
	EqNormal  EqMode = 0x00
	EqPop     EqMode = 0x01
	EqRock    EqMode = 0x02
	EqJazz    EqMode = 0x03
	EqClassic EqMode = 0x04
	EqBase    EqMode = 0x05
)

func (m EqMode) String() string {
	switch m {
	case EqNormal:
		return "normal"
	case EqPop:
		return "pop"
	case EqRock:
		return "rock"
	case EqJazz:
		return "jazz"
	case EqClassic:
		return "classic"
	case EqBase:
		return "base"
	default:
		return fmt.Sprintf("eq(0x%02X)", uint16(m))
	}
}

// PlaybackMode is a repeat mode.
type PlaybackMode uint16

// Repeat modes.
const (
	ModeRepeat       PlaybackMode = 0x00
	ModeFolderRepeat PlaybackMode = 0x01
	ModeSingleRepeat PlaybackMode = 0x02
	ModeRandom       PlaybackMode = 0x03
)

func (m PlaybackMode) String() string {
	switch m {
	case ModeRepeat:
		return "repeat"
	case ModeFolderRepeat:
		return "folder-repeat"
	case ModeSingleRepeat:
		return "single-repeat"
	case ModeRandom:
		return "random"
	default:
		return fmt.Sprintf("mode(0x%02X)", uint16(m))
	}
}

// PlaybackSource selects the storage the module plays from.
type PlaybackSource uint16

// Playback sources. The meaning of SourceSleep is not documented.
const (
	SourceUDisk PlaybackSource = 0x00
	SourceTf    PlaybackSource = 0x01
	SourceAux   PlaybackSource = 0x02
	SourceSleep PlaybackSource = 0x03
	SourceFlash PlaybackSource = 0x04
)

func (s PlaybackSource) String() string {
	switch s {
	case SourceUDisk:
		return "udisk"
	case SourceTf:
		return "tf"
	case SourceAux:
		return "aux"
	case SourceSleep:
		return "sleep"
	case SourceFlash:
		return "flash"
	default:
		return fmt.Sprintf("source(0x%02X)", uint16(s))
	}
}

// RequestAck controls the FEEDBACK byte of an outbound frame.
type RequestAck byte

// Feedback flag values.
const (
	AckNo  RequestAck = 0x00
	AckYes RequestAck = 0x01
)

// Disk is a storage device the module reports status for.
type Disk byte

// Disk codes.
const (
	DiskUDisk         Disk = 0x01
	DiskTf            Disk = 0x02
	DiskPc            Disk = 0x03
	DiskFlash         Disk = 0x04
	DiskUDiskAndFlash Disk = 0x05
)

// ParseDisk validates a raw disk code.
func ParseDisk(code byte) (Disk, bool) {
	switch d := Disk(code); d {
	case DiskUDisk, DiskTf, DiskPc, DiskFlash, DiskUDiskAndFlash:
		return d, true
	}
	return 0, false
}

func (d Disk) String() string {
	switch d {
	case DiskUDisk:
		return "udisk"
	case DiskTf:
		return "tf"
	case DiskPc:
		return "pc"
	case DiskFlash:
		return "flash"
	case DiskUDiskAndFlash:
		return "udisk+flash"
	default:
		return fmt.Sprintf("disk(0x%02X)", byte(d))
	}
}

// ModuleErrorType is an error condition reported by the module.
type ModuleErrorType byte

// Module error codes.
const (
	ModuleBusy                    ModuleErrorType = 0x00
	ModuleIncompleteFrameReceived ModuleErrorType = 0x01
	ModuleChecksumError           ModuleErrorType = 0x02
)

// ParseModuleErrorType validates a raw module error code.
func ParseModuleErrorType(code byte) (ModuleErrorType, bool) {
	switch t := ModuleErrorType(code); t {
	case ModuleBusy, ModuleIncompleteFrameReceived, ModuleChecksumError:
		return t, true
	}
	return 0, false
}

func (t ModuleErrorType) String() string {
	switch t {
	case ModuleBusy:
		return "busy"
	case ModuleIncompleteFrameReceived:
		return "incomplete frame received"
	case ModuleChecksumError:
		return "checksum error"
	default:
		return fmt.Sprintf("module error 0x%02X", byte(t))
	}
}

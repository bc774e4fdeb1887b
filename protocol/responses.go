package protocol

import "fmt"

// ResponseKind is the CMD byte of an inbound frame the decoder knows.
type ResponseKind byte

// Response command codes sent by the module.
const (
	RespDiskInserted        ResponseKind = 0x3A
	RespDiskRemoved         ResponseKind = 0x3B
	RespUDiskFinishPlayback ResponseKind = 0x3C
	RespTfFinishPlayback    ResponseKind = 0x3D
	RespFlashFinishPlayback ResponseKind = 0x3E
	RespDiskOnline          ResponseKind = 0x3F
	RespModuleError         ResponseKind = 0x40
	RespAck                 ResponseKind = 0x41
)

func (k ResponseKind) String() string {
	switch k {
	case RespDiskInserted:
		return "disk-inserted"
	case RespDiskRemoved:
		return "disk-removed"
	case RespUDiskFinishPlayback:
		return "udisk-finished"
	case RespTfFinishPlayback:
		return "tf-finished"
	case RespFlashFinishPlayback:
		return "flash-finished"
	case RespDiskOnline:
		return "disk-online"
	case RespModuleError:
		return "module-error"
	case RespAck:
		return "ack"
	default:
		return fmt.Sprintf("resp(0x%02X)", byte(k))
	}
}

// Response is a decoded inbound frame. Only the field matching Kind is
// meaningful:
//   - Disk for RespDiskOnline, RespDiskInserted, RespDiskRemoved
//   - Track for the three *FinishPlayback kinds
//   - Error for RespModuleError
//
// Response values are comparable with ==.
type Response struct {
	Kind  ResponseKind
	Disk  Disk
	Track uint16
	Error ModuleErrorType
}

// Ack returns the acknowledgement response.
func Ack() Response { return Response{Kind: RespAck} }

// DiskOnline reports a storage device available after power-up or reset.
func DiskOnline(d Disk) Response { return Response{Kind: RespDiskOnline, Disk: d} }

// DiskInserted reports a storage device being plugged in.
func DiskInserted(d Disk) Response { return Response{Kind: RespDiskInserted, Disk: d} }

// DiskRemoved reports a storage device being pulled out.
func DiskRemoved(d Disk) Response { return Response{Kind: RespDiskRemoved, Disk: d} }

// UDiskFinishPlayback reports the end of a track played from the USB disk.
func UDiskFinishPlayback(track uint16) Response {
	return Response{Kind: RespUDiskFinishPlayback, Track: track}
}

// TfFinishPlayback reports the end of a track played from the TF card.
func TfFinishPlayback(track uint16) Response {
	return Response{Kind: RespTfFinishPlayback, Track: track}
}

// FlashFinishPlayback reports the end of a track played from flash.
func FlashFinishPlayback(track uint16) Response {
	return Response{Kind: RespFlashFinishPlayback, Track: track}
}

// ModuleError reports an error condition on the module.
func ModuleError(t ModuleErrorType) Response { return Response{Kind: RespModuleError, Error: t} }

// IsFinishPlayback reports whether r marks the end of a track on any source.
func (r Response) IsFinishPlayback() bool {
	switch r.Kind {
	case RespUDiskFinishPlayback, RespTfFinishPlayback, RespFlashFinishPlayback:
		return true
	}
	return false
}

func (r Response) String() string {
	switch r.Kind {
	case RespDiskOnline, RespDiskInserted, RespDiskRemoved:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Disk)
	case RespUDiskFinishPlayback, RespTfFinishPlayback, RespFlashFinishPlayback:
		return fmt.Sprintf("%s(%d)", r.Kind, r.Track)
	case RespModuleError:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Error)
	default:
		return r.Kind.String()
	}
}

// DecodeResponse maps a validated frame's CMD, PARAM_H and PARAM_L bytes to
// a Response.
//
// Disk and module error codes are read from PARAM_L only; the playback
// finished kinds use the full big-endian PARAM. Unknown command bytes yield
// an *InvalidCommandError, unknown enumerated codes an
// *InvalidParameterError.
func DecodeResponse(cmd, paramH, paramL byte) (Response, error) {
	param := uint16(paramH)<<8 | uint16(paramL)

	switch kind := ResponseKind(cmd); kind {
	case RespDiskInserted, RespDiskRemoved, RespDiskOnline:
		disk, ok := ParseDisk(paramL)
		if !ok {
			return Response{}, &InvalidParameterError{Command: cmd, Value: paramL}
		}
		return Response{Kind: kind, Disk: disk}, nil

	case RespUDiskFinishPlayback, RespTfFinishPlayback, RespFlashFinishPlayback:
		return Response{Kind: kind, Track: param}, nil

	case RespModuleError:
		t, ok := ParseModuleErrorType(paramL)
		if !ok {
			return Response{}, &InvalidParameterError{Command: cmd, Value: paramL}
		}
		return ModuleError(t), nil

	case RespAck:
		return Ack(), nil

	default:
		return Response{}, &InvalidCommandError{Command: cmd}
	}
}

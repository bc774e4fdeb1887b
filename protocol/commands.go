package protocol

import "fmt"

// CommandCode is the CMD byte of an outbound frame.
type CommandCode byte

// Control command codes.
const (
	// CmdNext advances to the next track, wrapping to the first
	CmdNext CommandCode = 0x01

	// CmdPrevious goes to the previous track, wrapping to the last
	CmdPrevious CommandCode = 0x02

	// CmdTrack plays the track number in PARAM
	CmdTrack CommandCode = 0x03

	// CmdIncreaseVolume steps the volume up
	CmdIncreaseVolume CommandCode = 0x04

	// CmdDecreaseVolume steps the volume down
	CmdDecreaseVolume CommandCode = 0x05

	// CmdSetVolume sets the volume level in PARAM
	CmdSetVolume CommandCode = 0x06

	// CmdSetEq selects an equaliser preset
	CmdSetEq CommandCode = 0x07

	// CmdSetPlaybackMode selects a repeat mode
	CmdSetPlaybackMode CommandCode = 0x08

	// CmdSetPlaybackSource selects the storage device
	CmdSetPlaybackSource CommandCode = 0x09

	// CmdStandby disables playback (not a low-power sleep)
	CmdStandby CommandCode = 0x0A

	// CmdWake returns to normal mode
	CmdWake CommandCode = 0x0B

	// CmdReset resets the module
	CmdReset CommandCode = 0x0C

	// CmdPlayback resumes playback
	CmdPlayback CommandCode = 0x0D

	// CmdPause pauses the current track
	CmdPause CommandCode = 0x0E

	// CmdSetFolder plays file PARAM_L from folder PARAM_H
	CmdSetFolder CommandCode = 0x0F

	// CmdSetVolumeAdjust sets the gain (PARAM_H enable, PARAM_L gain)
	CmdSetVolumeAdjust CommandCode = 0x10

	// CmdRepeatPlay starts (1) or stops (0) repeat play
	CmdRepeatPlay CommandCode = 0x11
)

// Query and housekeeping command codes.
const (
	CmdStay1                    CommandCode = 0x3C
	CmdStay2                    CommandCode = 0x3D
	CmdStay3                    CommandCode = 0x3E
	CmdInitialisationParameters CommandCode = 0x3F
	CmdRequestRetransmission    CommandCode = 0x40
	CmdReply                    CommandCode = 0x41
	CmdGetStatus                CommandCode = CmdReply // shares 0x41 with Reply
	CmdGetVolume                CommandCode = 0x43
	CmdGetEq                    CommandCode = 0x44
	CmdGetPlaybackMode          CommandCode = 0x45
	CmdGetSoftwareVersion       CommandCode = 0x46
	CmdGetTfFileCount           CommandCode = 0x47
	CmdGetUDiskFileCount        CommandCode = 0x48
	CmdGetFlashFileCount        CommandCode = 0x49
	CmdKeepOn                   CommandCode = 0x4A
	CmdGetTfCurrentTrack        CommandCode = 0x4B
	CmdGetUDiskCurrentTrack     CommandCode = 0x4C
	CmdGetFlashCurrentTrack     CommandCode = 0x4D
)

var commandNames = map[CommandCode]string{
	CmdNext:                     "next",
	CmdPrevious:                 "previous",
	CmdTrack:                    "track",
	CmdIncreaseVolume:           "volume-up",
	CmdDecreaseVolume:           "volume-down",
	CmdSetVolume:                "volume",
	CmdSetEq:                    "eq",
	CmdSetPlaybackMode:          "mode",
	CmdSetPlaybackSource:        "source",
	CmdStandby:                  "standby",
	CmdWake:                     "wake",
	CmdReset:                    "reset",
	CmdPlayback:                 "play",
	CmdPause:                    "pause",
	CmdSetFolder:                "folder",
	CmdSetVolumeAdjust:          "adjust",
	CmdRepeatPlay:               "repeat",
	CmdStay1:                    "stay1",
	CmdStay2:                    "stay2",
	CmdStay3:                    "stay3",
	CmdInitialisationParameters: "init",
	CmdRequestRetransmission:    "retransmit",
	CmdReply:                    "reply",
	CmdGetVolume:                "get-volume",
	CmdGetEq:                    "get-eq",
	CmdGetPlaybackMode:          "get-mode",
	CmdGetSoftwareVersion:       "get-version",
	CmdGetTfFileCount:           "get-tf-files",
	CmdGetUDiskFileCount:        "get-udisk-files",
	CmdGetFlashFileCount:        "get-flash-files",
	CmdKeepOn:                   "keep-on",
	CmdGetTfCurrentTrack:        "get-tf-track",
	CmdGetUDiskCurrentTrack:     "get-udisk-track",
	CmdGetFlashCurrentTrack:     "get-flash-track",
}

// String returns the short command name used in logs, scripts and metrics.
func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cmd(0x%02X)", byte(c))
}

// commandAliases names commands that share their byte with another
// command. String reports the name in commandNames.
var commandAliases = map[string]CommandCode{
	"get-status": CmdGetStatus,
}

// LookupCommandCode returns the command code with the given short name.
func LookupCommandCode(name string) (CommandCode, bool) {
	if code, ok := commandAliases[name]; ok {
		return code, true
	}
	for code, n := range commandNames {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// Command is an outbound command. Build it with one of the constructor
// functions below; they derive Param the way the module expects it.
type Command struct {
	// Code is the CMD byte
	Code CommandCode

	// Param is the 16-bit parameter, sent big-endian
	Param uint16
}

func simple(code CommandCode) Command { return Command{Code: code} }

func Next() Command           { return simple(CmdNext) }
func Previous() Command       { return simple(CmdPrevious) }
func IncreaseVolume() Command { return simple(CmdIncreaseVolume) }
func DecreaseVolume() Command { return simple(CmdDecreaseVolume) }
func Standby() Command        { return simple(CmdStandby) }
func Wake() Command           { return simple(CmdWake) }
func Reset() Command          { return simple(CmdReset) }
func Playback() Command       { return simple(CmdPlayback) }
func Pause() Command          { return simple(CmdPause) }

func Stay1() Command                 { return simple(CmdStay1) }
func Stay2() Command                 { return simple(CmdStay2) }
func Stay3() Command                 { return simple(CmdStay3) }
func RequestRetransmission() Command { return simple(CmdRequestRetransmission) }
func Reply() Command                 { return simple(CmdReply) }
func GetStatus() Command             { return simple(CmdGetStatus) } // same frame as Reply
func GetVolume() Command             { return simple(CmdGetVolume) }
func GetEq() Command                 { return simple(CmdGetEq) }
func GetPlaybackMode() Command       { return simple(CmdGetPlaybackMode) }
func GetSoftwareVersion() Command    { return simple(CmdGetSoftwareVersion) }
func GetTfFileCount() Command        { return simple(CmdGetTfFileCount) }
func GetUDiskFileCount() Command     { return simple(CmdGetUDiskFileCount) }
func GetFlashFileCount() Command     { return simple(CmdGetFlashFileCount) }
func KeepOn() Command                { return simple(CmdKeepOn) }
func GetTfCurrentTrack() Command     { return simple(CmdGetTfCurrentTrack) }
func GetUDiskCurrentTrack() Command  { return simple(CmdGetUDiskCurrentTrack) }
func GetFlashCurrentTrack() Command  { return simple(CmdGetFlashCurrentTrack) }

// Track plays the given track. The datasheet range is 0-2999; it is not
// enforced here.
func Track(n uint16) Command { return Command{Code: CmdTrack, Param: n} }

// SetVolume sets the volume. The datasheet range is 0-30; it is not
// enforced here.
func SetVolume(v uint16) Command { return Command{Code: CmdSetVolume, Param: v} }

// SetEq selects an equaliser preset.
func SetEq(m EqMode) Command { return Command{Code: CmdSetEq, Param: uint16(m)} }

// SetPlaybackMode selects a repeat mode.
func SetPlaybackMode(m PlaybackMode) Command {
	return Command{Code: CmdSetPlaybackMode, Param: uint16(m)}
}

// SetPlaybackSource selects the storage to play from.
func SetPlaybackSource(s PlaybackSource) Command {
	return Command{Code: CmdSetPlaybackSource, Param: uint16(s)}
}

// SetFolder plays a file from a folder. Folder "04", file "0123.mp3" is
// SetFolder(4, 123).
func SetFolder(folder, file uint8) Command {
	return Command{Code: CmdSetFolder, Param: uint16(folder)<<8 | uint16(file)}
}

// SetVolumeAdjust enables or disables the gain stage. The datasheet range
// for gain is 0-31.
func SetVolumeAdjust(enable bool, gain uint8) Command {
	return Command{Code: CmdSetVolumeAdjust, Param: uint16(boolByte(enable))<<8 | uint16(gain)}
}

// RepeatPlay starts or stops repeat play.
func RepeatPlay(on bool) Command {
	return Command{Code: CmdRepeatPlay, Param: uint16(boolByte(on))}
}

// InitialisationParameters sends initialisation parameters (0x00-0x0F per
// the datasheet, meaning undocumented).
func InitialisationParameters(p uint16) Command {
	return Command{Code: CmdInitialisationParameters, Param: p}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// String renders the command for logs, e.g. "track(1)" or "reset".
func (c Command) String() string {
	if c.Param == 0 {
		return c.Code.String()
	}
	return fmt.Sprintf("%s(%d)", c.Code, c.Param)
}

// Serialize writes the 10-byte frame for c into buf.
// Returns ErrBufferTooShort without writing anything if buf holds fewer
// than FrameSize bytes. On success it returns FrameSize and has touched
// only buf[:FrameSize].
//
// Frame structure:
//
//	[START][VERSION][LEN][CMD][FEEDBACK][PARAM_H][PARAM_L][CHECKSUM_H][CHECKSUM_L][STOP]
func (c Command) Serialize(buf []byte, ack RequestAck) (int, error) {
	if len(buf) < FrameSize {
		return 0, ErrBufferTooShort
	}

	buf[offsetStart] = StartByte
	buf[offsetVersion] = VersionByte
	buf[offsetLength] = LengthByte
	buf[offsetCommand] = byte(c.Code)
	buf[offsetFeedback] = byte(ack)
	buf[offsetParamH] = byte(c.Param >> 8)
	buf[offsetParamL] = byte(c.Param)

	checksum := Checksum(buf[offsetVersion:offsetChecksumH])
	buf[offsetChecksumH] = byte(checksum >> 8)
	buf[offsetChecksumL] = byte(checksum)
	buf[offsetStop] = StopByte

	return FrameSize, nil
}

// BuildCommandFrame returns a freshly allocated frame for cmd.
//
// Example:
//
//	frame, err := protocol.BuildCommandFrame(protocol.Track(1), protocol.AckYes)
func BuildCommandFrame(cmd Command, ack RequestAck) ([]byte, error) {
	frame := make([]byte, FrameSize)
	if _, err := cmd.Serialize(frame, ack); err != nil {
		return nil, err
	}
	return frame, nil
}

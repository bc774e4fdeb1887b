// Package protocol implements the serial framing protocol of the DFPlayer
// Mini (DFR0299) MP3 module.
//
// Every frame, in both directions, is exactly 10 bytes:
//
//	[START][VERSION][LEN][CMD][FEEDBACK][PARAM_H][PARAM_L][CHECKSUM_H][CHECKSUM_L][STOP]
//
// Where:
//   - START = 0x7E, STOP = 0xEF
//   - VERSION = 0xFF, LEN = 0x06
//   - FEEDBACK = 0x01 asks the module to acknowledge the command
//   - PARAM = 16-bit parameter (big-endian)
//   - CHECKSUM = negated signed 16-bit sum of VERSION..PARAM_L (big-endian)
//
// # Encoding Commands
//
// Build a Command with one of the constructor functions and serialize it:
//
//	buf := make([]byte, protocol.FrameSize)
//	n, err := protocol.Track(1).Serialize(buf, protocol.AckNo)
//
// or let BuildCommandFrame allocate:
//
//	frame, err := protocol.BuildCommandFrame(protocol.SetVolume(20), protocol.AckYes)
//
// Parameter values are not range-checked beyond the width of the wire field.
//
// # Parsing Responses
//
// Feed received bytes one at a time into a Parser. It reports a Response
// once a complete, valid frame has arrived:
//
//	var p protocol.Parser
//	resp, ok, err := p.ProcessByte(b)
//
// Corrupt framing (bad START, VERSION, LEN or STOP) is dropped silently.
// A complete frame with a bad checksum returns a *ChecksumError; a frame
// with an unknown command or parameter returns *InvalidCommandError or
// *InvalidParameterError. The sentinels ErrBadChecksum, ErrInvalidCommand
// and ErrInvalidParameterValue match them with errors.Is.
//
// The package does no I/O, retransmission or timing. See package player
// for a driver that does.
package protocol

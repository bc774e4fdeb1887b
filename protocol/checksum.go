package protocol

// ChecksumPayloadSize is the number of bytes covered by the frame checksum:
// VERSION, LEN, CMD, FEEDBACK, PARAM_H and PARAM_L.
const ChecksumPayloadSize = LengthByte

// Checksum computes the 16-bit frame checksum over payload.
//
// The bytes are summed as signed 16-bit values and the result is negated
// (two's complement). Overflow wraps at 16 bits, so the output is
// identical to the module firmware for any input length.
func Checksum(payload []byte) uint16 {
	var sum int16
	for _, b := range payload {
		sum += int16(b)
	}
	return uint16(-sum)
}

// frameChecksum computes the checksum for a frame's variable fields,
// using the protocol constants for VERSION and LEN.
func frameChecksum(cmd, feedback, paramH, paramL byte) uint16 {
	return Checksum([]byte{VersionByte, LengthByte, cmd, feedback, paramH, paramL})
}

package protocol

// Frame structure constants per the DFR0299 datasheet.
const (
	// StartByte is the frame start marker (0x7E)
	StartByte = 0x7E

	// VersionByte is the protocol version field, always 0xFF
	VersionByte = 0xFF

	// LengthByte is the fixed LEN field. It covers
	// VERSION, LEN, CMD, FEEDBACK, PARAM_H and PARAM_L.
	LengthByte = 0x06

	// StopByte is the frame end marker (0xEF)
	StopByte = 0xEF

	// FrameSize is the size of every frame in both directions:
	// START(1) + VERSION(1) + LEN(1) + CMD(1) + FEEDBACK(1) +
	// PARAM(2) + CHECKSUM(2) + STOP(1)
	FrameSize = 10
)

// Byte offsets within a frame.
const (
	offsetStart     = 0
	offsetVersion   = 1
	offsetLength    = 2
	offsetCommand   = 3
	offsetFeedback  = 4
	offsetParamH    = 5
	offsetParamL    = 6
	offsetChecksumH = 7
	offsetChecksumL = 8
	offsetStop      = 9
)

// Serial line settings expected by the module.
const (
	// BaudRate is the fixed UART speed of the module
	BaudRate = 9600

	// DataBits is the UART character size (8-N-1)
	DataBits = 8
)

package protocol

import "fmt"

// ParserState is the position of the Parser within a frame. Each state is
// named after the last field consumed.
type ParserState int

// Parser states.
const (
	StateIdle ParserState = iota
	StateStart
	StateVersion
	StateLen
	StateCmd
	StateFeedback
	StateParamH
	StateParamL
	StateChecksumH
	StateChecksumL
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateStart:     "start",
	StateVersion:   "version",
	StateLen:       "len",
	StateCmd:       "cmd",
	StateFeedback:  "feedback",
	StateParamH:    "param_h",
	StateParamL:    "param_l",
	StateChecksumH: "checksum_h",
	StateChecksumL: "checksum_l",
}

func (s ParserState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Parser reassembles inbound frames one byte at a time.
//
// Only START, VERSION, LEN and STOP are checked against their expected
// values. Every byte in between is stored unconditionally. A bad START,
// VERSION or LEN byte, or a bad STOP byte, silently returns the parser
// to idle without reporting an error.
//
// The zero value is ready to use. A Parser is not safe for concurrent
// use; feed it from a single goroutine.
//
// Example:
//
//	var p protocol.Parser
//	for _, b := range data {
//	    resp, ok, err := p.ProcessByte(b)
//	    if err != nil {
//	        log.Printf("parse error: %v", err)
//	        continue
//	    }
//	    if ok {
//	        log.Printf("received %s", resp)
//	    }
//	}
type Parser struct {
	state     ParserState
	cmd       byte
	feedback  byte
	paramH    byte
	paramL    byte
	checksumH byte
	checksumL byte
}

// NewParser returns an idle Parser.
func NewParser() *Parser {
	return &Parser{}
}

// State returns the current parser state.
func (p *Parser) State() ParserState {
	return p.state
}

// Reset discards any partially received frame.
func (p *Parser) Reset() {
	p.state = StateIdle
}

// ProcessByte advances the state machine by one byte.
//
// It returns ok=true with the decoded Response when b completes a valid
// frame. It returns an error when a frame completes with a bad checksum
// (*ChecksumError) or fails to decode (*InvalidCommandError,
// *InvalidParameterError). In every other case it returns ok=false and a
// nil error. After any completed frame, good or bad, the parser is idle.
func (p *Parser) ProcessByte(b byte) (Response, bool, error) {
	switch p.state {
	case StateIdle:
		if b == StartByte {
			p.state = StateStart
		}
	case StateStart:
		p.state = p.gate(b == VersionByte, StateVersion)
	case StateVersion:
		p.state = p.gate(b == LengthByte, StateLen)
	case StateLen:
		p.cmd = b
		p.state = StateCmd
	case StateCmd:
		p.feedback = b
		p.state = StateFeedback
	case StateFeedback:
		p.paramH = b
		p.state = StateParamH
	case StateParamH:
		p.paramL = b
		p.state = StateParamL
	case StateParamL:
		p.checksumH = b
		p.state = StateChecksumH
	case StateChecksumH:
		p.checksumL = b
		p.state = StateChecksumL
	case StateChecksumL:
		p.state = StateIdle
		if b != StopByte {
			return Response{}, false, nil
		}
		return p.complete()
	default:
		p.state = StateIdle
	}

	return Response{}, false, nil
}

func (p *Parser) gate(match bool, next ParserState) ParserState {
	if match {
		return next
	}
	return StateIdle
}

// complete validates the checksum of the accumulated frame and decodes it.
func (p *Parser) complete() (Response, bool, error) {
	expected := frameChecksum(p.cmd, p.feedback, p.paramH, p.paramL)
	actual := uint16(p.checksumH)<<8 | uint16(p.checksumL)
	if expected != actual {
		return Response{}, false, &ChecksumError{Expected: expected, Actual: actual}
	}

	resp, err := DecodeResponse(p.cmd, p.paramH, p.paramL)
	if err != nil {
		return Response{}, false, err
	}
	return resp, true, nil
}

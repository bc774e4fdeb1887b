// Package simulator emulates a DFPlayer Mini on the far side of a serial
// line. It accepts command frames on Write and produces response frames on
// Read, which is enough to drive a player.Player without hardware.
package simulator

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moffa90/go-dfplayer/protocol"
)

const defaultReadTimeout = 20 * time.Millisecond

// Module is a simulated DFPlayer. It is safe for one reader and any number
// of writers.
type Module struct {
	// TrackLength is how long a started track plays before the module
	// reports it finished.
	TrackLength time.Duration

	// ReadTimeout bounds a Read that has no data, like a serial port opened
	// with a read timeout.
	ReadTimeout time.Duration

	logger *zap.Logger

	mu      sync.Mutex
	pending []byte
	inbound []byte
	source  protocol.PlaybackSource
	volume  uint16
	track   uint16
	playing *time.Timer
	playGen uint64
	busy    bool

	ready  chan struct{}
	closed chan struct{}
	once   sync.Once
}

// New returns a powered-on module playing from the TF card. A nil logger
// disables logging.
func New(logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Module{
		TrackLength: 200 * time.Millisecond,
		ReadTimeout: defaultReadTimeout,
		logger:      logger,
		source:      protocol.SourceTf,
		volume:      30,
		ready:       make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}
	m.emit(protocol.RespDiskOnline, uint16(protocol.DiskTf))
	return m
}

// SetBusy makes the module reject commands with a busy error.
func (m *Module) SetBusy(busy bool) {
	m.mu.Lock()
	m.busy = busy
	m.mu.Unlock()
}

// Volume returns the current volume setting.
func (m *Module) Volume() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Source returns the current playback source.
func (m *Module) Source() protocol.PlaybackSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Read returns pending response bytes. It returns (0, nil) after
// ReadTimeout with nothing to send and io.EOF once the module is closed.
func (m *Module) Read(p []byte) (int, error) {
	timer := time.NewTimer(m.ReadTimeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		if len(m.pending) > 0 {
			n := copy(p, m.pending)
			m.pending = m.pending[n:]
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()

		select {
		case <-m.closed:
			return 0, io.EOF
		case <-m.ready:
		case <-timer.C:
			return 0, nil
		}
	}
}

// Write accepts command frames. Bytes may arrive in any chunking; a frame
// with a bad checksum is answered with a checksum error.
func (m *Module) Write(p []byte) (int, error) {
	select {
	case <-m.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inbound = append(m.inbound, p...)
	for {
		start := bytes.IndexByte(m.inbound, protocol.StartByte)
		if start < 0 {
			m.inbound = m.inbound[:0]
			break
		}
		m.inbound = m.inbound[start:]
		if len(m.inbound) < protocol.FrameSize {
			break
		}
		frame := m.inbound[:protocol.FrameSize]
		m.inbound = m.inbound[protocol.FrameSize:]
		m.handleFrame(frame)
	}
	return len(p), nil
}

// Close stops the module. Pending reads return io.EOF.
func (m *Module) Close() error {
	m.once.Do(func() {
		m.mu.Lock()
		if m.playing != nil {
			m.playing.Stop()
		}
		m.mu.Unlock()
		close(m.closed)
	})
	return nil
}

// handleFrame processes one complete frame. Caller holds mu.
func (m *Module) handleFrame(frame []byte) {
	if frame[1] != protocol.VersionByte || frame[2] != protocol.LengthByte || frame[9] != protocol.StopByte {
		m.logger.Debug("malformed frame", zap.Binary("frame", frame))
		m.emitLocked(protocol.RespModuleError, uint16(protocol.ModuleIncompleteFrameReceived))
		return
	}
	if got, want := binary.BigEndian.Uint16(frame[7:9]), protocol.Checksum(frame[1:7]); got != want {
		m.logger.Debug("checksum mismatch", zap.Uint16("got", got), zap.Uint16("want", want))
		m.emitLocked(protocol.RespModuleError, uint16(protocol.ModuleChecksumError))
		return
	}
	if m.busy {
		m.emitLocked(protocol.RespModuleError, uint16(protocol.ModuleBusy))
		return
	}

	code := protocol.CommandCode(frame[3])
	param := binary.BigEndian.Uint16(frame[5:7])
	m.logger.Debug("command", zap.Stringer("code", code), zap.Uint16("param", param))

	if frame[4] == byte(protocol.AckYes) {
		m.emitLocked(protocol.RespAck, 0)
	}

	switch code {
	case protocol.CmdTrack:
		m.startTrack(param)
	case protocol.CmdNext:
		m.startTrack(m.track + 1)
	case protocol.CmdPrevious:
		if m.track > 1 {
			m.startTrack(m.track - 1)
		}
	case protocol.CmdSetFolder:
		m.startTrack(param & 0xFF)
	case protocol.CmdPlayback:
		if m.track == 0 {
			m.startTrack(1)
		}
	case protocol.CmdPause, protocol.CmdStandby:
		m.stopTrack()
	case protocol.CmdSetVolume:
		m.volume = param
	case protocol.CmdIncreaseVolume:
		m.volume++
	case protocol.CmdDecreaseVolume:
		if m.volume > 0 {
			m.volume--
		}
	case protocol.CmdSetPlaybackSource:
		m.source = protocol.PlaybackSource(param)
	case protocol.CmdReset:
		m.stopTrack()
		m.track = 0
		m.emitLocked(protocol.RespDiskOnline, uint16(protocol.DiskTf))
	}
}

func (m *Module) startTrack(track uint16) {
	m.stopTrack()
	m.track = track
	finished := m.finishKind()
	gen := m.playGen
	m.playing = time.AfterFunc(m.TrackLength, func() {
		m.finishTrack(gen, finished, track)
	})
}

// finishTrack reports the end of the track started as generation gen.
// A timer that fired after the track was stopped or replaced is ignored.
func (m *Module) finishTrack(gen uint64, kind protocol.ResponseKind, track uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.playGen {
		return
	}
	m.playing = nil
	m.playGen++
	m.emitLocked(kind, track)
}

// stopTrack cancels the current track. Caller holds mu.
func (m *Module) stopTrack() {
	m.playGen++
	if m.playing != nil {
		m.playing.Stop()
		m.playing = nil
	}
}

func (m *Module) finishKind() protocol.ResponseKind {
	switch m.source {
	case protocol.SourceUDisk:
		return protocol.RespUDiskFinishPlayback
	case protocol.SourceFlash:
		return protocol.RespFlashFinishPlayback
	default:
		return protocol.RespTfFinishPlayback
	}
}

func (m *Module) emit(kind protocol.ResponseKind, param uint16) {
	m.mu.Lock()
	m.emitLocked(kind, param)
	m.mu.Unlock()
}

// emitLocked queues a response frame. Caller holds mu.
func (m *Module) emitLocked(kind protocol.ResponseKind, param uint16) {
	m.pending = append(m.pending, Frame(byte(kind), param)...)
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Frame builds a module-to-host frame with the feedback byte cleared.
func Frame(cmd byte, param uint16) []byte {
	frame := []byte{
		protocol.StartByte, protocol.VersionByte, protocol.LengthByte,
		cmd, 0x00, byte(param >> 8), byte(param), 0, 0, protocol.StopByte,
	}
	binary.BigEndian.PutUint16(frame[7:9], protocol.Checksum(frame[1:7]))
	return frame
}

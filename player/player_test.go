package player

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-dfplayer/protocol"
	"github.com/moffa90/go-dfplayer/script"
)

// MockDevice simulates a DFPlayer module for testing.
// Reads time out after a few milliseconds like a serial port with a read
// timeout.
type MockDevice struct {
	mu       sync.Mutex
	written  []protocol.Command
	writeErr error
	respond  func(cmd protocol.Command, attempt int) []protocol.Response
	attempts map[protocol.Command]int

	incoming chan []byte
	pending  []byte
	closed   chan struct{}
	once     sync.Once
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		attempts: make(map[protocol.Command]int),
		incoming: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (m *MockDevice) Read(p []byte) (int, error) {
	if len(m.pending) == 0 {
		select {
		case chunk := <-m.incoming:
			m.pending = chunk
		case <-m.closed:
			return 0, io.EOF
		case <-time.After(5 * time.Millisecond):
			return 0, nil
		}
	}

	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return 0, m.writeErr
	}

	cmd := protocol.Command{
		Code:  protocol.CommandCode(p[3]),
		Param: uint16(p[5])<<8 | uint16(p[6]),
	}
	m.written = append(m.written, cmd)
	m.attempts[cmd]++

	if m.respond != nil {
		for _, resp := range m.respond(cmd, m.attempts[cmd]) {
			m.Push(resp)
		}
	}
	return len(p), nil
}

// Push queues a response frame for the read loop.
func (m *MockDevice) Push(resp protocol.Response) {
	m.incoming <- buildFrame(resp)
}

// PushRaw queues raw bytes for the read loop.
func (m *MockDevice) PushRaw(data []byte) {
	m.incoming <- data
}

func (m *MockDevice) Close() {
	m.once.Do(func() { close(m.closed) })
}

func (m *MockDevice) SetResponder(f func(cmd protocol.Command, attempt int) []protocol.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = f
}

func (m *MockDevice) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *MockDevice) Written() []protocol.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]protocol.Command(nil), m.written...)
}

// buildFrame encodes a response the way the module sends it.
func buildFrame(resp protocol.Response) []byte {
	var param uint16
	switch {
	case resp.IsFinishPlayback():
		param = resp.Track
	case resp.Kind == protocol.RespModuleError:
		param = uint16(resp.Error)
	case resp.Kind != protocol.RespAck:
		param = uint16(resp.Disk)
	}
	frame, _ := protocol.BuildCommandFrame(protocol.Command{Code: protocol.CommandCode(resp.Kind), Param: param}, protocol.AckNo)
	return frame
}

func ackAll(protocol.Command, int) []protocol.Response {
	return []protocol.Response{protocol.Ack()}
}

// MockLogger records messages for assertions.
type MockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorMsgs = append(l.errorMsgs, msg)
}

func (l *MockLogger) Infos() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.infoMsgs...)
}

func (l *MockLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errorMsgs...)
}

// MockRecorder counts recorder calls.
type MockRecorder struct {
	mu       sync.Mutex
	sent     int
	decoded  int
	failed   int
	timeouts int
	dropped  int
}

func (r *MockRecorder) FrameSent(protocol.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
}

func (r *MockRecorder) ResponseDecoded(protocol.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoded++
}

func (r *MockRecorder) DecodeFailed(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *MockRecorder) AckTimedOut(protocol.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

func (r *MockRecorder) EventDropped(protocol.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
}

func (r *MockRecorder) counts() (sent, decoded, failed, timeouts, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent, r.decoded, r.failed, r.timeouts, r.dropped
}

// startPlayer runs p in the background and stops it when the test ends.
func startPlayer(t *testing.T, p *Player) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
}

func TestNew(t *testing.T) {
	t.Run("nil device panics", func(t *testing.T) {
		assert.PanicsWithValue(t, "device cannot be nil", func() { New(nil) })
	})

	t.Run("defaults", func(t *testing.T) {
		p := New(NewMockDevice())
		assert.Equal(t, protocol.AckYes, p.config.RequestAck)
		assert.Equal(t, 500*time.Millisecond, p.config.AckTimeout)
		assert.Equal(t, 2, p.config.Retries)
		assert.Equal(t, 100*time.Millisecond, p.config.CommandInterval)
		assert.Equal(t, 16, cap(p.events))
	})

	t.Run("options", func(t *testing.T) {
		logger := &MockLogger{}
		p := New(NewMockDevice(),
			WithLogger(logger),
			WithRequestAck(false),
			WithAckTimeout(time.Second),
			WithRetries(5),
			WithCommandInterval(0),
			WithEventBuffer(4),
			WithReadBufferSize(10),
		)
		assert.Same(t, logger, p.config.Logger)
		assert.Equal(t, protocol.AckNo, p.config.RequestAck)
		assert.Equal(t, time.Second, p.config.AckTimeout)
		assert.Equal(t, 5, p.config.Retries)
		assert.Equal(t, time.Duration(0), p.config.CommandInterval)
		assert.Equal(t, 4, cap(p.events))
		assert.Equal(t, 10, p.config.ReadBufferSize)
	})

	t.Run("invalid options ignored", func(t *testing.T) {
		p := New(NewMockDevice(), WithRetries(-1), WithAckTimeout(0), WithEventBuffer(0))
		assert.Equal(t, 2, p.config.Retries)
		assert.Equal(t, 500*time.Millisecond, p.config.AckTimeout)
		assert.Equal(t, 16, cap(p.events))
	})
}

func TestSendWithoutAck(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev, WithRequestAck(false), WithCommandInterval(0))

	require.NoError(t, p.Send(context.Background(), protocol.Track(1)))
	assert.Equal(t, []protocol.Command{protocol.Track(1)}, dev.Written())
}

func TestSendAcknowledged(t *testing.T) {
	dev := NewMockDevice()
	dev.SetResponder(ackAll)
	rec := &MockRecorder{}
	p := New(dev, WithCommandInterval(0), WithRecorder(rec))
	startPlayer(t, p)

	require.NoError(t, p.Send(context.Background(), protocol.SetVolume(20)))
	require.NoError(t, p.Send(context.Background(), protocol.Track(3)))

	assert.Equal(t, []protocol.Command{protocol.SetVolume(20), protocol.Track(3)}, dev.Written())
	sent, _, _, timeouts, _ := rec.counts()
	assert.Equal(t, 2, sent)
	assert.Equal(t, 0, timeouts)
}

func TestSendRetriesOnTimeout(t *testing.T) {
	dev := NewMockDevice()
	dev.SetResponder(func(_ protocol.Command, attempt int) []protocol.Response {
		if attempt < 2 {
			return nil
		}
		return []protocol.Response{protocol.Ack()}
	})
	logger := &MockLogger{}
	p := New(dev, WithCommandInterval(0), WithAckTimeout(30*time.Millisecond), WithLogger(logger))
	startPlayer(t, p)

	require.NoError(t, p.Send(context.Background(), protocol.Next()))
	assert.Len(t, dev.Written(), 2)
	assert.Contains(t, logger.Infos(), "retrying command")
}

func TestSendAckTimeout(t *testing.T) {
	dev := NewMockDevice()
	rec := &MockRecorder{}
	p := New(dev, WithCommandInterval(0), WithAckTimeout(20*time.Millisecond), WithRetries(1), WithRecorder(rec))
	startPlayer(t, p)

	err := p.Send(context.Background(), protocol.Pause())

	var ate *AckTimeoutError
	require.True(t, errors.As(err, &ate), "error = %v", err)
	assert.Equal(t, protocol.Pause(), ate.Command)
	assert.Equal(t, 2, ate.Attempts)
	assert.Nil(t, ate.Err)
	assert.Len(t, dev.Written(), 2)

	_, _, _, timeouts, _ := rec.counts()
	assert.Equal(t, 1, timeouts)
}

func TestSendDeviceErrors(t *testing.T) {
	t.Run("busy fails immediately", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetResponder(func(protocol.Command, int) []protocol.Response {
			return []protocol.Response{protocol.ModuleError(protocol.ModuleBusy)}
		})
		p := New(dev, WithCommandInterval(0))
		startPlayer(t, p)

		err := p.Send(context.Background(), protocol.Track(1))

		var de *protocol.DeviceError
		require.True(t, errors.As(err, &de), "error = %v", err)
		assert.Equal(t, protocol.ModuleBusy, de.Type)
		assert.Equal(t, "track(1)", de.Operation)
		assert.Len(t, dev.Written(), 1)
	})

	t.Run("checksum error retried", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetResponder(func(_ protocol.Command, attempt int) []protocol.Response {
			if attempt == 1 {
				return []protocol.Response{protocol.ModuleError(protocol.ModuleChecksumError)}
			}
			return []protocol.Response{protocol.Ack()}
		})
		p := New(dev, WithCommandInterval(0))
		startPlayer(t, p)

		require.NoError(t, p.Send(context.Background(), protocol.Track(1)))
		assert.Len(t, dev.Written(), 2)
	})

	t.Run("incomplete frame exhausts retries", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetResponder(func(protocol.Command, int) []protocol.Response {
			return []protocol.Response{protocol.ModuleError(protocol.ModuleIncompleteFrameReceived)}
		})
		p := New(dev, WithCommandInterval(0), WithRetries(2))
		startPlayer(t, p)

		err := p.Send(context.Background(), protocol.Track(1))

		var ate *AckTimeoutError
		require.True(t, errors.As(err, &ate), "error = %v", err)
		assert.Equal(t, 3, ate.Attempts)
		assert.True(t, protocol.IsDeviceError(err))
	})

	t.Run("timeout after module error clears it", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetResponder(func(_ protocol.Command, attempt int) []protocol.Response {
			if attempt == 1 {
				return []protocol.Response{protocol.ModuleError(protocol.ModuleChecksumError)}
			}
			return nil
		})
		p := New(dev, WithCommandInterval(0), WithAckTimeout(20*time.Millisecond), WithRetries(1))
		startPlayer(t, p)

		err := p.Send(context.Background(), protocol.Track(1))

		var ate *AckTimeoutError
		require.True(t, errors.As(err, &ate), "error = %v", err)
		assert.Equal(t, 2, ate.Attempts)
		assert.Nil(t, ate.Err)
		assert.False(t, protocol.IsDeviceError(err))
	})
}

func TestSendWriteError(t *testing.T) {
	dev := NewMockDevice()
	dev.SetWriteError(errors.New("port gone"))
	p := New(dev, WithCommandInterval(0))

	err := p.Send(context.Background(), protocol.Next())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write next: port gone")
}

func TestSendCancelled(t *testing.T) {
	p := New(NewMockDevice(), WithCommandInterval(0), WithAckTimeout(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Send(ctx, protocol.Next())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendPacing(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev, WithRequestAck(false), WithCommandInterval(20*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Send(context.Background(), protocol.Next()))
	}

	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Len(t, dev.Written(), 3)
}

func TestEvents(t *testing.T) {
	dev := NewMockDevice()
	var mu sync.Mutex
	var seen []protocol.Response
	p := New(dev, WithEventCallback(func(r protocol.Response) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r)
	}))
	startPlayer(t, p)

	dev.Push(protocol.DiskOnline(protocol.DiskTf))
	dev.Push(protocol.Ack())
	dev.Push(protocol.TfFinishPlayback(3))

	want := []protocol.Response{protocol.DiskOnline(protocol.DiskTf), protocol.TfFinishPlayback(3)}
	for _, w := range want {
		select {
		case got := <-p.Events():
			assert.Equal(t, w, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %v", w)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, seen)
}

func TestEventsSplitAcrossReads(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev, WithReadBufferSize(3))
	startPlayer(t, p)

	frame := buildFrame(protocol.DiskInserted(protocol.DiskUDisk))
	dev.PushRaw(append([]byte{0x00, 0x7E}, frame[:4]...))
	dev.PushRaw(frame[4:])

	select {
	case got := <-p.Events():
		assert.Equal(t, protocol.DiskInserted(protocol.DiskUDisk), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventDropped(t *testing.T) {
	dev := NewMockDevice()
	rec := &MockRecorder{}
	logger := &MockLogger{}
	p := New(dev, WithEventBuffer(1), WithRecorder(rec), WithLogger(logger))
	startPlayer(t, p)

	dev.Push(protocol.TfFinishPlayback(1))
	dev.Push(protocol.TfFinishPlayback(2))
	dev.Push(protocol.TfFinishPlayback(3))

	require.Eventually(t, func() bool {
		_, _, _, _, dropped := rec.counts()
		return dropped == 2
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, logger.Errors(), "event dropped, channel full")
	assert.Equal(t, protocol.TfFinishPlayback(1), <-p.Events())
}

func TestFrameErrorsSurfaced(t *testing.T) {
	dev := NewMockDevice()
	rec := &MockRecorder{}
	errc := make(chan error, 4)
	p := New(dev, WithRecorder(rec), WithErrorCallback(func(err error) { errc <- err }))
	startPlayer(t, p)

	bad := buildFrame(protocol.DiskOnline(protocol.DiskTf))
	bad[8] ^= 0xFF
	dev.PushRaw(bad)

	unknown, _ := protocol.BuildCommandFrame(protocol.Command{Code: 0xAA}, protocol.AckNo)
	dev.PushRaw(unknown)

	dev.Push(protocol.DiskOnline(protocol.DiskFlash))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, protocol.ErrBadChecksum)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for checksum error")
	}
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, protocol.ErrInvalidCommand)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for invalid command error")
	}

	select {
	case got := <-p.Events():
		assert.Equal(t, protocol.DiskOnline(protocol.DiskFlash), got)
	case <-time.After(time.Second):
		t.Fatal("read loop did not continue after errors")
	}

	_, _, failed, _, _ := rec.counts()
	assert.Equal(t, 2, failed)
}

func TestRun(t *testing.T) {
	t.Run("eof ends cleanly", func(t *testing.T) {
		dev := NewMockDevice()
		p := New(dev)
		dev.Close()

		require.NoError(t, p.Run(context.Background()))

		_, ok := <-p.Events()
		assert.False(t, ok, "events channel should be closed")
		<-p.Done()
	})

	t.Run("context cancellation", func(t *testing.T) {
		p := New(NewMockDevice())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	})

	t.Run("runs once", func(t *testing.T) {
		dev := NewMockDevice()
		p := New(dev)
		dev.Close()

		require.NoError(t, p.Run(context.Background()))
		assert.ErrorIs(t, p.Run(context.Background()), ErrAlreadyRunning)
	})

	t.Run("send after close", func(t *testing.T) {
		dev := NewMockDevice()
		p := New(dev, WithCommandInterval(0), WithAckTimeout(time.Second))
		dev.Close()
		require.NoError(t, p.Run(context.Background()))

		assert.ErrorIs(t, p.Send(context.Background(), protocol.Next()), ErrClosed)
	})
}

func TestWaitFor(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev)
	startPlayer(t, p)

	dev.Push(protocol.DiskOnline(protocol.DiskTf))
	dev.Push(protocol.UDiskFinishPlayback(9))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := p.WaitFor(ctx, protocol.Response.IsFinishPlayback)
	require.NoError(t, err)
	assert.Equal(t, protocol.UDiskFinishPlayback(9), resp)
}

func TestWaitForClosed(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev)
	dev.Close()
	require.NoError(t, p.Run(context.Background()))

	_, err := p.WaitFor(context.Background(), func(protocol.Response) bool { return true })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPlay(t *testing.T) {
	dev := NewMockDevice()
	dev.SetResponder(func(cmd protocol.Command, _ int) []protocol.Response {
		out := []protocol.Response{protocol.Ack()}
		if cmd.Code == protocol.CmdTrack {
			out = append(out, protocol.TfFinishPlayback(cmd.Param))
		}
		return out
	})

	var progress []Progress
	p := New(dev, WithCommandInterval(0), WithProgressCallback(func(pr Progress) {
		progress = append(progress, pr)
	}))
	startPlayer(t, p)

	s, err := script.ParseReader(strings.NewReader("volume 15\ntrack 4\nwait finished tf 1s\nsleep 10ms\nnext\n"))
	require.NoError(t, err)

	require.NoError(t, p.Play(context.Background(), s))

	assert.Equal(t, []protocol.Command{protocol.SetVolume(15), protocol.Track(4), protocol.Next()}, dev.Written())
	require.Len(t, progress, 5)
	assert.Equal(t, 5, progress[4].Step)
	assert.Equal(t, 5, progress[4].TotalSteps)
	assert.Equal(t, 5, progress[4].Line)
	assert.Equal(t, "next", progress[4].Description)
	assert.InDelta(t, 100.0, progress[4].Percentage, 0.001)
	assert.Equal(t, "wait finished tf 1s", progress[2].Description)
}

func TestPlayWaitTimeout(t *testing.T) {
	dev := NewMockDevice()
	p := New(dev, WithCommandInterval(0))
	startPlayer(t, p)

	s, err := script.ParseReader(strings.NewReader("# waits forever\nwait online flash 30ms\n"))
	require.NoError(t, err)

	err = p.Play(context.Background(), s)

	var wte *WaitTimeoutError
	require.True(t, errors.As(err, &wte), "error = %v", err)
	assert.Equal(t, "online flash", wte.Condition)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPlayCancelled(t *testing.T) {
	p := New(NewMockDevice(), WithRequestAck(false), WithCommandInterval(0))
	s, err := script.ParseReader(strings.NewReader("sleep 1s\nnext\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Play(ctx, s), context.DeadlineExceeded)
}

func TestPlayNilScript(t *testing.T) {
	p := New(NewMockDevice())
	assert.EqualError(t, p.Play(context.Background(), nil), "script cannot be nil")
}

func BenchmarkSendWithoutAck(b *testing.B) {
	p := New(NewMockDevice(), WithRequestAck(false), WithCommandInterval(0))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Send(ctx, protocol.Track(1))
	}
}

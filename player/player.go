package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/moffa90/go-dfplayer/protocol"
)

// Player drives a DFPlayer module over a serial byte stream.
//
// Run owns the read side: it feeds every received byte to a protocol.Parser
// and dispatches the decoded responses. Send may be called from any
// goroutine; sends are serialized and paced.
type Player struct {
	device  io.ReadWriter
	config  Config
	limiter *rate.Limiter

	sendMu sync.Mutex
	acks   chan protocol.Response
	events chan protocol.Response
	done   chan struct{}

	started atomic.Bool
}

// New creates a new Player with the given device and options.
//
// Reads on device should return periodically, with (0, nil) on timeout,
// so that Run can observe context cancellation. A serial port opened with
// a read timeout behaves this way.
//
// Example:
//
//	port, _ := serialport.Open(serialport.Config{Port: "/dev/ttyUSB0"})
//	p := player.New(port,
//	    player.WithLogger(logger),
//	    player.WithAckTimeout(time.Second),
//	)
//	go p.Run(ctx)
func New(device io.ReadWriter, opts ...Option) *Player {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	limit := rate.Inf
	if cfg.CommandInterval > 0 {
		limit = rate.Every(cfg.CommandInterval)
	}

	return &Player{
		device:  device,
		config:  cfg,
		limiter: rate.NewLimiter(limit, 1),
		acks:    make(chan protocol.Response, 1),
		events:  make(chan protocol.Response, cfg.EventBuffer),
		done:    make(chan struct{}),
	}
}

// Events returns the channel of unsolicited responses (everything except
// Ack). It is closed when Run returns. Events are dropped, not queued, when
// the channel is full.
func (p *Player) Events() <-chan protocol.Response {
	return p.events
}

// Done is closed when Run returns.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Run reads from the device until ctx is cancelled, the device reports
// io.EOF, or a read fails. It returns nil on io.EOF and ctx.Err() on
// cancellation. Run may only be called once.
func (p *Player) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.done)
	defer close(p.events)

	parser := protocol.NewParser()
	buf := make([]byte, p.config.ReadBufferSize)

	p.logDebug("read loop started")

	for {
		if err := ctx.Err(); err != nil {
			p.logDebug("read loop stopped", "reason", err)
			return err
		}

		n, err := p.device.Read(buf)
		for _, b := range buf[:n] {
			resp, ok, perr := parser.ProcessByte(b)
			switch {
			case perr != nil:
				p.frameFailed(perr)
			case ok:
				p.dispatch(resp)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				p.logInfo("device closed")
				return nil
			}
			p.logError("read failed", "error", err)
			return fmt.Errorf("read: %w", err)
		}
	}
}

// dispatch routes a decoded response. Ack and ModuleError complete a
// pending acknowledged send; everything except Ack is an event.
func (p *Player) dispatch(resp protocol.Response) {
	p.logDebug("response", "response", resp.String())
	if p.config.Recorder != nil {
		p.config.Recorder.ResponseDecoded(resp)
	}

	if resp.Kind == protocol.RespAck || resp.Kind == protocol.RespModuleError {
		select {
		case p.acks <- resp:
		default:
		}
	}
	if resp.Kind == protocol.RespAck {
		return
	}

	if p.config.EventCallback != nil {
		p.config.EventCallback(resp)
	}

	select {
	case p.events <- resp:
	default:
		p.logError("event dropped, channel full", "response", resp.String())
		if p.config.Recorder != nil {
			p.config.Recorder.EventDropped(resp)
		}
	}
}

func (p *Player) frameFailed(err error) {
	p.logError("inbound frame rejected", "error", err)
	if p.config.Recorder != nil {
		p.config.Recorder.DecodeFailed(err)
	}
	if p.config.ErrorCallback != nil {
		p.config.ErrorCallback(err)
	}
}

// Send writes cmd to the module.
//
// With acknowledgements enabled, Send waits up to AckTimeout for the
// module's Ack and resends on a timeout or when the module reports a
// checksum or incomplete-frame error. A busy module is reported at once
// as *protocol.DeviceError. When all attempts fail, Send returns
// *AckTimeoutError.
//
// Example:
//
//	if err := p.Send(ctx, protocol.SetVolume(20)); err != nil {
//	    return fmt.Errorf("set volume: %w", err)
//	}
func (p *Player) Send(ctx context.Context, cmd protocol.Command) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	frame, err := protocol.BuildCommandFrame(cmd, p.config.RequestAck)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for send slot: %w", err)
		}

		p.drainAcks()

		if _, err := p.device.Write(frame); err != nil {
			return fmt.Errorf("write %s: %w", cmd, err)
		}
		if p.config.Recorder != nil {
			p.config.Recorder.FrameSent(cmd)
		}
		p.logDebug("sent", "command", cmd.String(), "attempt", attempt, "frame", fmt.Sprintf("% X", frame))

		if p.config.RequestAck != protocol.AckYes {
			return nil
		}

		resp, err := p.awaitAck(ctx)
		switch {
		case err == nil && resp.Kind == protocol.RespAck:
			return nil
		case err == nil:
			lastErr = &protocol.DeviceError{Operation: cmd.String(), Type: resp.Error}
			if resp.Error == protocol.ModuleBusy {
				return lastErr
			}
		case errors.Is(err, errAckTimeout):
			lastErr = nil
		default:
			return err
		}

		if attempt > p.config.Retries {
			if p.config.Recorder != nil {
				p.config.Recorder.AckTimedOut(cmd)
			}
			return &AckTimeoutError{Command: cmd, Attempts: attempt, Err: lastErr}
		}

		p.logInfo("retrying command", "command", cmd.String(), "attempt", attempt, "error", errOrTimeout(lastErr))
	}
}

var errAckTimeout = errors.New("ack timeout")

func errOrTimeout(err error) error {
	if err == nil {
		return errAckTimeout
	}
	return err
}

// awaitAck waits for the next Ack or ModuleError response.
func (p *Player) awaitAck(ctx context.Context) (protocol.Response, error) {
	timer := time.NewTimer(p.config.AckTimeout)
	defer timer.Stop()

	select {
	case resp := <-p.acks:
		return resp, nil
	case <-timer.C:
		return protocol.Response{}, errAckTimeout
	case <-ctx.Done():
		return protocol.Response{}, ctx.Err()
	case <-p.done:
		return protocol.Response{}, ErrClosed
	}
}

// drainAcks discards an acknowledgement left over from an earlier command.
func (p *Player) drainAcks() {
	select {
	case <-p.acks:
	default:
	}
}

// WaitFor consumes events until one satisfies match.
// It competes with any other reader of Events.
//
// Example:
//
//	resp, err := p.WaitFor(ctx, func(r protocol.Response) bool {
//	    return r.IsFinishPlayback()
//	})
func (p *Player) WaitFor(ctx context.Context, match func(protocol.Response) bool) (protocol.Response, error) {
	for {
		select {
		case resp, ok := <-p.events:
			if !ok {
				return protocol.Response{}, ErrClosed
			}
			if match(resp) {
				return resp, nil
			}
		case <-ctx.Done():
			return protocol.Response{}, ctx.Err()
		}
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Player) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Player) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Player) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}

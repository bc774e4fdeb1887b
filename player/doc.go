// Package player drives a DFPlayer Mini module over any io.ReadWriter,
// typically a serial port.
//
// The protocol package only encodes and decodes frames. Player adds what a
// host needs around that: a read loop, acknowledged sends with retries,
// command pacing, event delivery and script playback.
//
// # Basic Usage
//
//	port, err := serialport.Open(serialport.Config{Port: "/dev/ttyUSB0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	p := player.New(port)
//	go p.Run(ctx)
//
//	if err := p.Send(ctx, protocol.SetVolume(20)); err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Send(ctx, protocol.Track(1)); err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := p.WaitFor(ctx, func(r protocol.Response) bool {
//	    return r.IsFinishPlayback()
//	})
//
// # Events
//
// Every response except Ack is delivered to the EventCallback and to the
// Events channel. Delivery never blocks the read loop: when the channel is
// full the event is dropped and logged.
//
// # Acknowledgements
//
// With WithRequestAck(true), the default, each command asks the module for
// an Ack. Missing acks and module checksum or incomplete-frame errors are
// retried up to WithRetries times. A busy module fails immediately.
//
// # Configuration Options
//
//   - WithLogger: structured logging
//   - WithRecorder: metrics
//   - WithEventCallback, WithErrorCallback, WithProgressCallback
//   - WithRequestAck, WithAckTimeout, WithRetries
//   - WithCommandInterval: minimum spacing between frames (default 100ms)
//   - WithEventBuffer, WithReadBufferSize
//
// # Error Handling
//
// The package returns typed errors:
//   - *AckTimeoutError: no acknowledgement after all attempts
//   - *WaitTimeoutError: a script wait step expired
//   - *protocol.DeviceError: the module reported busy
//   - ErrClosed: the read loop has exited
package player

// Package capture intercepts the process standard streams at the
// descriptor level so that output written by any code in the process,
// including child processes inheriting the descriptors, can be replayed at
// a moment chosen by the renderer.
//
// A PipeCapture points its stream at the write end of a pipe. Flush drains
// whatever is waiting in the pipe without blocking and re-emits it to the
// saved original descriptor. Write bypasses the pipe entirely, which is how
// the renderer draws the chart while the stream is captured.
package capture

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/logging"
	"github.com/Iron-Ham/sparcli/internal/platform"
)

// BufferSize is the chunk size used when draining a pipe.
const BufferSize = 4096

// Capture lifecycle states and events.
const (
	StateIdle      = "idle"
	StateCapturing = "capturing"

	eventStart = "start"
	eventClose = "close"
)

// Capture is the lifecycle shared by every capture variant. Implementations
// have a single owner and are not safe for concurrent use.
type Capture interface {
	// Start begins intercepting the stream.
	Start() error
	// Close stops intercepting, restores the stream and emits any pending
	// intercepted bytes.
	Close() error
	// Flush emits intercepted bytes that are currently available.
	Flush() error
	// Write sends data to the real stream, bypassing interception.
	Write(data []byte) error
}

// Option configures a PipeCapture.
type Option func(*PipeCapture)

// WithLogger sets the logger used for lifecycle transitions.
func WithLogger(l *logging.Logger) Option {
	return func(c *PipeCapture) {
		c.logger = l
	}
}

// PipeCapture captures a stream through an OS pipe.
type PipeCapture struct {
	platform platform.Platform
	stream   platform.Stream
	logger   *logging.Logger
	machine  *fsm.FSM

	saved platform.FD
	read  platform.FD
	write platform.FD

	buf []byte
}

// NewPipeCapture creates an idle capture for stream.
func NewPipeCapture(p platform.Platform, stream platform.Stream, opts ...Option) *PipeCapture {
	c := &PipeCapture{
		platform: p,
		stream:   stream,
		logger:   logging.NopLogger(),
		buf:      make([]byte, BufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("capture").With("stream", stream.String())

	c.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle}, Dst: StateCapturing},
			{Name: eventClose, Src: []string{StateCapturing}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Debug("capture state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)
	return c
}

// State returns the current lifecycle state.
func (c *PipeCapture) State() string {
	return c.machine.Current()
}

// Capturing reports whether the stream is currently redirected.
func (c *PipeCapture) Capturing() bool {
	return c.machine.Is(StateCapturing)
}

func (c *PipeCapture) fail(op string, err error) *errors.CaptureError {
	return errors.NewCaptureError(op, int(c.stream), err)
}

// Start duplicates the stream, creates the pipe, makes its read end
// non-blocking and redirects the stream onto the write end. On failure
// every descriptor acquired so far is released and the capture stays idle.
func (c *PipeCapture) Start() error {
	if c.machine.Cannot(eventStart) {
		return c.fail(eventStart, errors.ErrAlreadyCapturing)
	}

	saved, err := c.platform.Dup(c.stream)
	if err != nil {
		return c.fail(eventStart, err).WithMessage("duplicate stream")
	}

	r, w, err := c.platform.Pipe()
	if err != nil {
		_ = c.platform.Close(saved)
		return c.fail(eventStart, err).WithMessage("create pipe")
	}

	release := func() {
		_ = c.platform.Close(r)
		_ = c.platform.Close(w)
		_ = c.platform.Close(saved)
	}

	if err := c.platform.SetNonblocking(r); err != nil {
		release()
		return c.fail(eventStart, err).WithMessage("set pipe non-blocking")
	}

	if err := c.platform.Redirect(c.stream, w); err != nil {
		release()
		return c.fail(eventStart, err).WithMessage("redirect stream")
	}

	c.saved, c.read, c.write = saved, r, w
	return c.machine.Event(context.Background(), eventStart)
}

// Close restores the stream from the saved descriptor, closes the pipe's
// write end, emits the remaining intercepted bytes and releases the saved
// descriptor and the read end. The capture returns to idle even when one
// of those steps fails; the failures are joined into the returned error.
func (c *PipeCapture) Close() error {
	if c.machine.Cannot(eventClose) {
		return c.fail(eventClose, errors.ErrNotCapturing)
	}

	var errs []error
	if err := c.platform.Redirect(c.stream, c.saved); err != nil {
		errs = append(errs, c.fail(eventClose, err).WithMessage("restore stream"))
	}
	if err := c.platform.Close(c.write); err != nil {
		errs = append(errs, c.fail(eventClose, err).WithMessage("close pipe write end"))
	}
	if err := c.drain(); err != nil {
		errs = append(errs, err)
	}
	if err := c.platform.Close(c.saved); err != nil {
		errs = append(errs, c.fail(eventClose, err).WithMessage("close saved descriptor"))
	}
	if err := c.platform.Close(c.read); err != nil {
		errs = append(errs, c.fail(eventClose, err).WithMessage("close pipe read end"))
	}

	if err := c.machine.Event(context.Background(), eventClose); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Flush emits every byte currently waiting in the pipe to the original
// stream. It never blocks and is a no-op while idle.
func (c *PipeCapture) Flush() error {
	if !c.Capturing() {
		return nil
	}
	return c.drain()
}

// drain reads until the pipe reports no more data (would block or end of
// stream) and writes everything collected in a single pass.
func (c *PipeCapture) drain() error {
	var pending []byte
	for {
		n, err := c.platform.Read(c.read, c.buf)
		if errors.Is(err, platform.ErrWouldBlock) {
			break
		}
		if err != nil {
			return c.fail("flush", err).WithMessage("read pipe")
		}
		if n == 0 {
			break
		}
		pending = append(pending, c.buf[:n]...)
	}
	if len(pending) == 0 {
		return nil
	}
	if err := platform.WriteAll(c.platform, c.saved, pending); err != nil {
		return c.fail("flush", err).WithMessage("write saved descriptor")
	}
	return nil
}

// Write sends data to the original stream, bypassing the pipe. While idle
// it writes to the stream itself.
func (c *PipeCapture) Write(data []byte) error {
	fd := c.platform.StreamFD(c.stream)
	if c.Capturing() {
		fd = c.saved
	}
	if err := platform.WriteAll(c.platform, fd, data); err != nil {
		return c.fail("write", err)
	}
	return nil
}

// WriteString is Write for a string.
func (c *PipeCapture) WriteString(s string) error {
	return c.Write([]byte(s))
}

// NoCapture leaves the stream untouched. Its lifecycle methods are no-ops
// and Write goes straight to the stream.
type NoCapture struct {
	platform platform.Platform
	stream   platform.Stream
}

// NewNoCapture returns a pass-through capture for stream.
func NewNoCapture(p platform.Platform, stream platform.Stream) *NoCapture {
	return &NoCapture{platform: p, stream: stream}
}

// Start is a no-op.
func (n *NoCapture) Start() error { return nil }

// Close is a no-op.
func (n *NoCapture) Close() error { return nil }

// Flush is a no-op.
func (n *NoCapture) Flush() error { return nil }

// Write writes data to the stream.
func (n *NoCapture) Write(data []byte) error {
	if err := platform.WriteAll(n.platform, n.platform.StreamFD(n.stream), data); err != nil {
		return errors.NewCaptureError("write", int(n.stream), err)
	}
	return nil
}

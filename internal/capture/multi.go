package capture

import (
	"strings"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/logging"
	"github.com/Iron-Ham/sparcli/internal/platform"
)

// Method selects a capture variant.
type Method string

const (
	// MethodPipe intercepts the stream through an OS pipe.
	MethodPipe Method = "pipe"
	// MethodNone leaves the stream alone.
	MethodNone Method = "none"
)

// Methods lists the supported capture methods.
func Methods() []Method {
	return []Method{MethodPipe, MethodNone}
}

// ParseMethod converts a method name into a Method. Unknown names fail
// with errors.ErrUnknownCaptureMethod.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case MethodPipe, MethodNone:
		return m, nil
	default:
		return "", errors.Wrapf(errors.ErrUnknownCaptureMethod, "%q", name)
	}
}

// New builds the capture variant selected by method for stream.
func New(p platform.Platform, stream platform.Stream, method Method, opts ...Option) (Capture, error) {
	switch method {
	case MethodPipe:
		return NewPipeCapture(p, stream, opts...), nil
	case MethodNone:
		return NewNoCapture(p, stream), nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownCaptureMethod, "%q", string(method))
	}
}

// MultiCapture drives the stdout and stderr captures as one unit.
type MultiCapture struct {
	Stdout Capture
	Stderr Capture
}

// NewMulti builds a MultiCapture with the given methods for stdout and stderr.
func NewMulti(p platform.Platform, stdout, stderr Method, logger *logging.Logger) (*MultiCapture, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	out, err := New(p, platform.Stdout, stdout, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	errCapture, err := New(p, platform.Stderr, stderr, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &MultiCapture{Stdout: out, Stderr: errCapture}, nil
}

// Start starts stdout then stderr. If stderr fails, stdout is closed again
// so the process is never left with only one stream redirected.
func (m *MultiCapture) Start() error {
	if err := m.Stdout.Start(); err != nil {
		return err
	}
	if err := m.Stderr.Start(); err != nil {
		if closeErr := m.Stdout.Close(); closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}
	return nil
}

// Close closes both captures in reverse start order.
func (m *MultiCapture) Close() error {
	return errors.Join(m.Stderr.Close(), m.Stdout.Close())
}

// Flush flushes stdout then stderr.
func (m *MultiCapture) Flush() error {
	return errors.Join(m.Stdout.Flush(), m.Stderr.Flush())
}

// WriteOut writes data to the real stdout.
func (m *MultiCapture) WriteOut(data []byte) error {
	return m.Stdout.Write(data)
}

// WriteErr writes data to the real stderr.
func (m *MultiCapture) WriteErr(data []byte) error {
	return m.Stderr.Write(data)
}

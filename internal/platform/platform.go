// Package platform wraps the descriptor-level primitives that stream
// capture needs: duplicating a standard stream, creating a pipe, switching
// the read end to non-blocking mode and redirecting a stream onto another
// descriptor. POSIX systems are served by golang.org/x/sys/unix, Windows by
// golang.org/x/sys/windows.
package platform

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/sparcli/internal/errors"
)

// ErrWouldBlock is returned by Read when a non-blocking descriptor has no
// data available.
var ErrWouldBlock = errors.New("operation would block")

// Stream identifies one of the process standard streams that can be captured.
type Stream int

const (
	// Stdout is the process standard output.
	Stdout Stream = 1
	// Stderr is the process standard error.
	Stderr Stream = 2
)

// String returns the conventional name of the stream.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// FD is an operating system descriptor. On POSIX it holds a file
// descriptor, on Windows a handle.
type FD uintptr

// Platform is the set of descriptor operations used by capture.
type Platform interface {
	// StreamFD returns the descriptor the stream currently refers to.
	StreamFD(s Stream) FD
	// Dup duplicates the stream's current descriptor.
	Dup(s Stream) (FD, error)
	// Redirect makes the stream refer to the same file as fd.
	Redirect(s Stream, fd FD) error
	// Pipe creates an anonymous pipe.
	Pipe() (r, w FD, err error)
	// SetNonblocking switches fd to non-blocking reads.
	SetNonblocking(fd FD) error
	// Read reads into p. It returns ErrWouldBlock when nothing is
	// available and (0, nil) at end of stream.
	Read(fd FD, p []byte) (int, error)
	// Write writes p to fd, returning the number of bytes written.
	Write(fd FD, p []byte) (int, error)
	// Close releases fd.
	Close(fd FD) error
	// ApplyWorkarounds prepares terminal-aware libraries for redirection.
	// It runs at most once per process and never fails.
	ApplyWorkarounds()
}

var (
	defaultOnce sync.Once
	defaultImpl Platform

	workaroundsOnce sync.Once
)

// Default returns the platform implementation for the running OS.
func Default() Platform {
	defaultOnce.Do(func() {
		defaultImpl = newNative()
	})
	return defaultImpl
}

// applyWorkarounds resolves terminal properties that lipgloss and termenv
// detect lazily from stdout. Once stdout points at a pipe they would
// conclude there is no terminal and strip all styling.
func applyWorkarounds(extra func()) {
	workaroundsOnce.Do(func() {
		_ = lipgloss.ColorProfile()
		_ = lipgloss.HasDarkBackground()
		if extra != nil {
			extra()
		}
	})
}

// WriteAll writes p to fd through pl, looping over short writes.
func WriteAll(pl Platform, fd FD, p []byte) error {
	for len(p) > 0 {
		n, err := pl.Write(fd, p)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("write fd %d: short write", fd)
		}
		p = p[n:]
	}
	return nil
}

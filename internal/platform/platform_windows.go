//go:build windows

package platform

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/sys/windows"
)

// pipeNoWait switches a pipe handle to non-blocking mode for
// SetNamedPipeHandleState. Anonymous pipes accept it as well.
const pipeNoWait = 0x00000001

type win struct {
	mu sync.Mutex
	// installed holds the *os.File created for each redirected stream so the
	// previous one can be released on the next redirect.
	installed map[Stream]*os.File
}

func newNative() Platform {
	return &win{installed: make(map[Stream]*os.File)}
}

func stdHandleID(s Stream) uint32 {
	if s == Stderr {
		return windows.STD_ERROR_HANDLE
	}
	return windows.STD_OUTPUT_HANDLE
}

func (w *win) StreamFD(s Stream) FD {
	h, err := windows.GetStdHandle(stdHandleID(s))
	if err != nil {
		return FD(windows.InvalidHandle)
	}
	return FD(h)
}

func (w *win) Dup(s Stream) (FD, error) {
	return duplicate(windows.Handle(w.StreamFD(s)))
}

func duplicate(src windows.Handle) (FD, error) {
	proc := windows.CurrentProcess()
	var dst windows.Handle
	if err := windows.DuplicateHandle(proc, src, proc, &dst, 0, false, windows.DUPLICATE_SAME_ACCESS); err != nil {
		return 0, err
	}
	return FD(dst), nil
}

// Redirect installs a duplicate of fd as the stream's standard handle and
// rebinds os.Stdout or os.Stderr to it so Go code writing through the os
// package follows the redirection.
func (w *win) Redirect(s Stream, fd FD) error {
	dup, err := duplicate(windows.Handle(fd))
	if err != nil {
		return err
	}
	h := windows.Handle(dup)
	if err := windows.SetStdHandle(stdHandleID(s), h); err != nil {
		_ = windows.CloseHandle(h)
		return err
	}

	f := os.NewFile(uintptr(h), "/dev/"+s.String())
	if s == Stderr {
		os.Stderr = f
	} else {
		os.Stdout = f
	}

	w.mu.Lock()
	prev := w.installed[s]
	w.installed[s] = f
	w.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

func (w *win) Pipe() (FD, FD, error) {
	var r, wr windows.Handle
	if err := windows.CreatePipe(&r, &wr, nil, 0); err != nil {
		return 0, 0, err
	}
	return FD(r), FD(wr), nil
}

func (w *win) SetNonblocking(fd FD) error {
	mode := uint32(pipeNoWait)
	return windows.SetNamedPipeHandleState(windows.Handle(fd), &mode, nil, nil)
}

func (w *win) Read(fd FD, p []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(windows.Handle(fd), p, &n, nil)
	switch err {
	case nil:
		return int(n), nil
	case windows.ERROR_NO_DATA:
		return 0, ErrWouldBlock
	case windows.ERROR_BROKEN_PIPE:
		return 0, nil
	default:
		return 0, err
	}
}

func (w *win) Write(fd FD, p []byte) (int, error) {
	var n uint32
	err := windows.WriteFile(windows.Handle(fd), p, &n, nil)
	return int(n), err
}

func (w *win) Close(fd FD) error {
	return windows.CloseHandle(windows.Handle(fd))
}

func (w *win) ApplyWorkarounds() {
	applyWorkarounds(func() {
		// Legacy consoles only interpret the cursor and erase sequences the
		// renderer emits once virtual terminal processing is on.
		_, _ = termenv.EnableVirtualTerminalProcessing(termenv.DefaultOutput())
	})
}

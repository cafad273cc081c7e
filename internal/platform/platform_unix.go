//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

type posix struct{}

func newNative() Platform {
	return posix{}
}

func (posix) StreamFD(s Stream) FD {
	return FD(s)
}

func (posix) Dup(s Stream) (FD, error) {
	fd, err := unix.Dup(int(s))
	if err != nil {
		return 0, err
	}
	unix.CloseOnExec(fd)
	return FD(fd), nil
}

func (posix) Redirect(s Stream, fd FD) error {
	for {
		err := dup2(int(fd), int(s))
		if err != unix.EINTR {
			return err
		}
	}
}

func (posix) Pipe() (FD, FD, error) {
	r, w, err := pipe()
	if err != nil {
		return 0, 0, err
	}
	return FD(r), FD(w), nil
}

func (posix) SetNonblocking(fd FD) error {
	return unix.SetNonblock(int(fd), true)
}

func (posix) Read(fd FD, p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

func (posix) Write(fd FD, p []byte) (int, error) {
	for {
		n, err := unix.Write(int(fd), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (posix) Close(fd FD) error {
	return unix.Close(int(fd))
}

func (posix) ApplyWorkarounds() {
	applyWorkarounds(nil)
}

package testutil

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/platform"
)

// FakePlatform is an in-memory platform.Platform. Each standard stream
// starts out pointing at a "terminal" buffer whose contents can be read with
// Terminal. Pipes are byte buffers that report platform.ErrWouldBlock when
// empty and end of stream once every write descriptor is closed.
type FakePlatform struct {
	mu      sync.Mutex
	next    platform.FD
	fds     map[platform.FD]*endpoint
	streams map[platform.Stream]platform.FD
	term    map[platform.Stream]*object

	// Fail maps an operation name ("dup", "pipe", "nonblock", "redirect",
	// "write") to the error it should return.
	Fail map[string]error

	Workarounds int
}

type object struct {
	pipe    bool
	data    bytes.Buffer
	writers int
}

type endpoint struct {
	obj      *object
	writable bool
	nonblock bool
}

// NewFakePlatform returns a FakePlatform with stdout and stderr attached to
// fresh terminal buffers.
func NewFakePlatform() *FakePlatform {
	p := &FakePlatform{
		next:    10,
		fds:     make(map[platform.FD]*endpoint),
		streams: make(map[platform.Stream]platform.FD),
		term:    make(map[platform.Stream]*object),
		Fail:    make(map[string]error),
	}
	for _, s := range []platform.Stream{platform.Stdout, platform.Stderr} {
		obj := &object{}
		p.term[s] = obj
		p.fds[platform.FD(s)] = &endpoint{obj: obj, writable: true}
		p.streams[s] = platform.FD(s)
	}
	return p
}

func (p *FakePlatform) alloc(ep *endpoint) platform.FD {
	fd := p.next
	p.next++
	p.fds[fd] = ep
	if ep.writable {
		ep.obj.writers++
	}
	return fd
}

func (p *FakePlatform) failure(op string) error {
	return p.Fail[op]
}

// Terminal returns everything that reached the stream's terminal.
func (p *FakePlatform) Terminal(s platform.Stream) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.term[s].data.String()
}

// Emit simulates program code writing text to the stream, wherever it
// currently points.
func (p *FakePlatform) Emit(s platform.Stream, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fds[p.streams[s]].obj.data.WriteString(text)
}

// Redirected reports whether the stream points somewhere other than its
// terminal.
func (p *FakePlatform) Redirected(s platform.Stream) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fds[p.streams[s]].obj != p.term[s]
}

// OpenFDs returns the number of open descriptors besides the two streams.
func (p *FakePlatform) OpenFDs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fds) - 2
}

// StreamFD implements platform.Platform.
func (p *FakePlatform) StreamFD(s platform.Stream) platform.FD {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams[s]
}

// Dup implements platform.Platform.
func (p *FakePlatform) Dup(s platform.Stream) (platform.FD, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("dup"); err != nil {
		return 0, err
	}
	src := p.fds[p.streams[s]]
	return p.alloc(&endpoint{obj: src.obj, writable: src.writable}), nil
}

// Redirect implements platform.Platform.
func (p *FakePlatform) Redirect(s platform.Stream, fd platform.FD) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("redirect"); err != nil {
		return err
	}
	src, ok := p.fds[fd]
	if !ok {
		return fmt.Errorf("redirect: bad descriptor %d", fd)
	}
	cur := p.fds[p.streams[s]]
	if cur.writable {
		cur.obj.writers--
	}
	if src.writable {
		src.obj.writers++
	}
	p.fds[p.streams[s]] = &endpoint{obj: src.obj, writable: src.writable}
	return nil
}

// Pipe implements platform.Platform.
func (p *FakePlatform) Pipe() (platform.FD, platform.FD, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("pipe"); err != nil {
		return 0, 0, err
	}
	obj := &object{pipe: true}
	r := p.alloc(&endpoint{obj: obj})
	w := p.alloc(&endpoint{obj: obj, writable: true})
	return r, w, nil
}

// SetNonblocking implements platform.Platform.
func (p *FakePlatform) SetNonblocking(fd platform.FD) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("nonblock"); err != nil {
		return err
	}
	ep, ok := p.fds[fd]
	if !ok {
		return fmt.Errorf("nonblock: bad descriptor %d", fd)
	}
	ep.nonblock = true
	return nil
}

// Read implements platform.Platform. A blocking read on an empty pipe with
// open writers is reported as an error instead of hanging the test.
func (p *FakePlatform) Read(fd platform.FD, b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ep, ok := p.fds[fd]
	if !ok {
		return 0, fmt.Errorf("read: bad descriptor %d", fd)
	}
	if ep.obj.data.Len() == 0 {
		if ep.obj.writers == 0 {
			return 0, nil
		}
		if !ep.nonblock {
			return 0, errors.New("read: blocking read would hang")
		}
		return 0, platform.ErrWouldBlock
	}
	return ep.obj.data.Read(b)
}

// Write implements platform.Platform.
func (p *FakePlatform) Write(fd platform.FD, b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("write"); err != nil {
		return 0, err
	}
	ep, ok := p.fds[fd]
	if !ok || !ep.writable {
		return 0, fmt.Errorf("write: bad descriptor %d", fd)
	}
	return ep.obj.data.Write(b)
}

// Close implements platform.Platform.
func (p *FakePlatform) Close(fd platform.FD) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ep, ok := p.fds[fd]
	if !ok {
		return fmt.Errorf("close: bad descriptor %d", fd)
	}
	if ep.writable {
		ep.obj.writers--
	}
	delete(p.fds, fd)
	return nil
}

// ApplyWorkarounds implements platform.Platform.
func (p *FakePlatform) ApplyWorkarounds() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Workarounds++
}

var _ platform.Platform = (*FakePlatform)(nil)

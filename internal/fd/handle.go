// Package fd owns raw OS file descriptors so callers never have to
// reason about double-close or leaked descriptors by hand.
package fd

import (
	"os"
	"sync"
)

// Handle owns exactly one raw file descriptor and closes it exactly
// once, no matter how many times Close is called or from how many
// goroutines. It is move-only: copying a Handle and closing both
// copies is a programmer error the zero-value guard against double
// free, not a supported pattern.
type Handle struct {
	mu     sync.Mutex
	fd     int
	file   *os.File // set by FromFile; Close goes through it
	closed bool
}

// New wraps a raw file descriptor.
func New(raw int) *Handle {
	return &Handle{fd: raw}
}

// FromFile adopts an *os.File's descriptor. os.OpenFile/os.Pipe
// register a finalizer that closes the descriptor once the *os.File
// is collected; the Handle keeps f reachable so that finalizer cannot
// close the fd out from under it, and Close closes through f so the
// descriptor is still closed exactly once. Used when a collaborator
// (os/exec, os.OpenFile) already returned an *os.File and we want
// single ownership to live in a Handle instead.
func FromFile(f *os.File) *Handle {
	return &Handle{fd: int(f.Fd()), file: f}
}

// Fd returns the raw descriptor. It remains valid until Close
// returns; using it afterwards is undefined, same as any raw fd.
func (h *Handle) Fd() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fd
}

// Read performs a single blocking read into buf, returning the
// number of bytes read. A return of (0, nil) signals EOF.
func (h *Handle) Read(buf []byte) (int, error) {
	h.mu.Lock()
	fd := h.fd
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return 0, os.ErrClosed
	}
	return readFd(fd, buf)
}

// Write performs a single blocking write of buf.
func (h *Handle) Write(buf []byte) (int, error) {
	h.mu.Lock()
	fd := h.fd
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return 0, os.ErrClosed
	}
	return writeFd(fd, buf)
}

// Close closes the descriptor exactly once. Close errors are
// swallowed per spec: a caller cannot act on a failed close of a
// descriptor it no longer owns a use for, and returning one here
// would tempt callers into treating Close as fallible cleanup.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.file != nil {
		_ = h.file.Close()
	} else {
		_ = closeFd(h.fd)
	}
	return nil
}

// Closed reports whether Close has already run.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

package ptyproc

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the taxonomy in spec.md §7. Callers use
// errors.Is against these. The ErrFileNotFound error from Run also
// wraps syscall.ENOENT, reachable with errors.Is; ErrBadFD and
// ErrNoSuchProcess are returned bare, without an errno.
var (
	// ErrBadFD is EBADF: a PTY-option call before Run, or after Close.
	ErrBadFD = errors.New("ptyproc: bad file descriptor")
	// ErrNoSuchProcess is ESRCH: a signal/control call before Run.
	ErrNoSuchProcess = errors.New("ptyproc: no such process")
	// ErrFileNotFound wraps ENOENT from path resolution.
	ErrFileNotFound = errors.New("ptyproc: file not found")
	// ErrUnsupportedScheme is returned for a non-file executable URL.
	ErrUnsupportedScheme = errors.New("ptyproc: unsupported scheme")
)

// precondition panics — spec.md §7 treats these as programmer
// errors, not recoverable ones: accessing a stream that was never
// requested, or calling Run on an already-run Process.
func precondition(format string, args ...any) {
	panic(fmt.Sprintf("ptyproc: precondition violated: "+format, args...))
}

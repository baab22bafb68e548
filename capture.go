package ptyproc

import "github.com/aymanbagabas/ptyproc/internal/spawn"

// CaptureRequest selects how the child's stdout or stderr is wired
// to the parent: left inherited, bound to /dev/null, piped, or
// dup'd onto the PTY secondary. See spec.md §3.
type CaptureRequest = spawn.CaptureRequest

const (
	// CaptureNone leaves the stream as the parent's inherited default.
	CaptureNone = spawn.CaptureNone
	// CaptureNull binds the parent-visible handle to /dev/null.
	CaptureNull = spawn.CaptureNull
	// CapturePipe opens a unidirectional pipe; the parent reads.
	CapturePipe = spawn.CapturePipe
	// CapturePty dups the child's target fd onto the PTY secondary.
	CapturePty = spawn.CapturePty
)

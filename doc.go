// Package ptyproc spawns and supervises a child process attached to
// a pseudo-terminal, exposing its standard streams as asynchronous
// byte sources and its lifecycle as a first-class Status.
//
// A Process is constructed with New, then started with Run. Once
// running, its output streams, PTY options, and lifecycle (suspend,
// resume, signal, wait for exit) are driven through the Process
// value; the underlying spawn and watch machinery live in
// internal/spawn and internal/watch.
package ptyproc

import "errors"

// ErrUnsupported is returned when a caller asks for a capability
// this platform or this implementation does not provide — for
// example a non-empty signal mask at spawn time, which Go's process
// creation primitives have no portable hook for.
var ErrUnsupported = errors.New("ptyproc: unsupported")

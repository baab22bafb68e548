package ptyproc

import "github.com/aymanbagabas/ptyproc/internal/watch"

// Status is the child's lifecycle state: NotRunYet, Running(pid),
// Suspended(pid), Exited(code), or UncaughtSignal(sig). Equality is
// structural — two Status values compare equal with == iff they are
// the same variant with the same payload, spec.md §8 property 5.
//
// Once a Status reaches Exited or UncaughtSignal it never changes
// again (spec.md §3, §8 property 4).
type Status = watch.Status

// Status kinds, re-exported so callers never import internal/watch.
const (
	StatusNotRunYet      = watch.NotRunYet
	StatusRunning        = watch.Running
	StatusSuspended      = watch.Suspended
	StatusExited         = watch.Exited
	StatusUncaughtSignal = watch.UncaughtSignal
)

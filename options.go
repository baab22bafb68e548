package ptyproc

import "github.com/aymanbagabas/ptyproc/internal/termopts"

// Options is the public PTY option set: DisableEcho, NonCanonical,
// OutputCRLF. The zero value is the default cooked terminal
// (ECHO|ICANON on, ONLCR off), spec.md §3.
type Options = termopts.Set

const (
	// DisableEcho turns termios ECHO off.
	DisableEcho = termopts.DisableEcho
	// NonCanonical turns termios ICANON off.
	NonCanonical = termopts.NonCanonical
	// OutputCRLF turns termios ONLCR on.
	OutputCRLF = termopts.OutputCRLF
)

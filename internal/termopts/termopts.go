// Package termopts maps the public PTY option set onto termios flag
// bits and applies it via tcgetattr/tcsetattr.
package termopts

import (
	"fmt"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Flag identifies one bidirectional termios mapping.
type Flag uint8

const (
	// DisableEcho mirrors termios ECHO, inverted: set means ECHO is off.
	DisableEcho Flag = 1 << iota
	// NonCanonical mirrors termios ICANON, inverted: set means ICANON is off.
	NonCanonical
	// OutputCRLF mirrors termios ONLCR, not inverted: set means ONLCR is on.
	OutputCRLF
)

// Set is an immutable bitmask of Flag values.
type Set uint8

// Has reports whether f is present in s.
func (s Set) Has(f Flag) bool {
	return s&Set(f) != 0
}

// With returns a new Set with f added.
func (s Set) With(f Flag) Set {
	return s | Set(f)
}

// Empty is the public "no option set", corresponding to the default
// cooked terminal once inversion is applied (ECHO|ICANON on, ONLCR
// off).
const Empty Set = 0

// FromFD reads termios via tcgetattr and composes the option set
// honoring the inversion declared per flag. Fails if fd is not a
// terminal.
func FromFD(fd int) (Set, error) {
	if !term.IsTerminal(fd) {
		return Empty, fmt.Errorf("termopts: fd %d is not a terminal: %w", fd, unix.ENOTTY)
	}
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return Empty, fmt.Errorf("tcgetattr: %w", err)
	}
	var s Set
	if t.Lflag&unix.ECHO == 0 {
		s = s.With(DisableEcho)
	}
	if t.Lflag&unix.ICANON == 0 {
		s = s.With(NonCanonical)
	}
	if t.Oflag&unix.ONLCR != 0 {
		s = s.With(OutputCRLF)
	}
	return s, nil
}

// ApplyTo sets termios using tcsetattr. immediately selects TCSANOW,
// drainFirst selects TCSADRAIN; when both are passed, drainFirst
// wins. Passing neither applies the change as TCSANOW, which is also
// what tcsetattr does with an optional_actions of 0.
func ApplyTo(fd int, s Set, immediately, drainFirst bool) error {
	if !term.IsTerminal(fd) {
		return fmt.Errorf("termopts: fd %d is not a terminal: %w", fd, unix.ENOTTY)
	}
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("tcgetattr: %w", err)
	}

	if s.Has(DisableEcho) {
		t.Lflag &^= unix.ECHO
	} else {
		t.Lflag |= unix.ECHO
	}
	if s.Has(NonCanonical) {
		t.Lflag &^= unix.ICANON
	} else {
		t.Lflag |= unix.ICANON
	}
	if s.Has(OutputCRLF) {
		t.Oflag |= unix.ONLCR
	} else {
		t.Oflag &^= unix.ONLCR
	}

	// optional_actions is one of TCSANOW/TCSADRAIN, not a true bitmask;
	// drainFirst takes priority when both are requested since it is
	// the stronger guarantee (wait for pending output before changing).
	var action uint = ioctlSetTermios
	if drainFirst {
		action = ioctlSetTermiosDrain
	} else if immediately {
		action = ioctlSetTermios
	}
	if err := unix.IoctlSetTermios(fd, action, t); err != nil {
		return fmt.Errorf("tcsetattr: %w", err)
	}
	return nil
}

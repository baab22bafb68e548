//go:build darwin
// +build darwin

package spawn

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// openPTYPair mirrors creack/pty's darwin implementation: posix_openpt
// via /dev/ptmx, then the BSD TIOCPTYGRANT/TIOCPTYUNLK/TIOCPTYGNAME
// ioctls in place of glibc's grantpt/unlockpt/ptsname.
func openPTYPair() (primaryFd int, secondaryFd int, err error) {
	p, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return -1, -1, fmt.Errorf("posix_openpt: %w", err)
	}

	if err := unix.IoctlSetInt(p, unix.TIOCPTYGRANT, 0); err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("grantpt: %w", err)
	}
	if err := unix.IoctlSetInt(p, unix.TIOCPTYUNLK, 0); err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("unlockpt: %w", err)
	}

	name, err := unix.IoctlGetString(p, unix.TIOCPTYGNAME)
	if err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("ptsname: %w", err)
	}

	s, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("open secondary %s: %w", name, err)
	}

	return p, s, nil
}

//go:build linux
// +build linux

package spawn

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// openPTYPair performs posix_openpt + grantpt + unlockpt + open(ptsname)
// using the ioctl-based Linux equivalents, the same sequence
// creack/pty's own linux implementation uses to stay cgo-free.
func openPTYPair() (primaryFd int, secondaryFd int, err error) {
	p, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return -1, -1, fmt.Errorf("posix_openpt: %w", err)
	}

	// unlockpt: TIOCSPTLCK takes a pointer to the lock value.
	if err := unix.IoctlSetPointerInt(p, unix.TIOCSPTLCK, 0); err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("unlockpt: %w", err)
	}

	// ptsname
	n, err := unix.IoctlGetInt(p, unix.TIOCGPTN)
	if err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("ptsname: %w", err)
	}

	sname := "/dev/pts/" + strconv.Itoa(n)
	s, err := unix.Open(sname, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		_ = unix.Close(p)
		return -1, -1, fmt.Errorf("open secondary %s: %w", sname, err)
	}

	return p, s, nil
}

//go:build !windows
// +build !windows

package fd

import "golang.org/x/sys/unix"

func readFd(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func writeFd(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func closeFd(fd int) error {
	return unix.Close(fd)
}

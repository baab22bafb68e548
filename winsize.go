//go:build !windows
// +build !windows

package ptyproc

import "golang.org/x/sys/unix"

// WindowSize is the terminal dimensions reported/accepted by
// TIOCGWINSZ/TIOCSWINSZ — the supplemented feature in SPEC_FULL.md,
// mirroring the teacher's own Winsize/Setsize/GetsizeFull surface.
type WindowSize struct {
	Rows, Cols uint16
	X, Y       uint16 // pixel dimensions; zero if unknown
}

// WindowSize reads the PTY primary's current size via TIOCGWINSZ.
func (p *Process) WindowSize() (WindowSize, error) {
	p.mustStarted()
	ws, err := unix.IoctlGetWinsize(p.PTYFd(), unix.TIOCGWINSZ)
	if err != nil {
		return WindowSize{}, err
	}
	return WindowSize{Rows: ws.Row, Cols: ws.Col, X: ws.Xpixel, Y: ws.Ypixel}, nil
}

// SetWindowSize resizes the PTY primary via TIOCSWINSZ, which the
// kernel propagates to the child as SIGWINCH.
func (p *Process) SetWindowSize(size WindowSize) error {
	p.mustStarted()
	ws := &unix.Winsize{Row: size.Rows, Col: size.Cols, Xpixel: size.X, Ypixel: size.Y}
	return unix.IoctlSetWinsize(p.PTYFd(), unix.TIOCSWINSZ, ws)
}

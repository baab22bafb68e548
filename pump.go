package ptyproc

import (
	"io"

	"github.com/oklog/run"
)

// Pump copies bytes from the requested streams to the given writers
// and waits for the child to exit, all under one interrupt: if any
// copy fails, or the child exits, every other actor is unblocked and
// Pump returns. This is the same run.Group actor-bundling shape
// owenthereal-upterm's internal/command.go uses to coordinate its
// resize-watcher, input-copy, output-copy, and wait goroutines.
//
// A nil writer skips that stream. Pump panics via the same
// preconditions as StdoutBytes/StderrBytes if a non-nil writer is
// given for a stream that was never requested in Run.
func (p *Process) Pump(ptyOut, stdout, stderr io.Writer) (Status, error) {
	p.mustStarted()

	var g run.Group

	if ptyOut != nil {
		g.Add(func() error {
			return copyStream(ptyOut, p.PTYBytes())
		}, func(error) { _ = p.ptyStream.Close() })
	}
	if stdout != nil {
		g.Add(func() error {
			return copyStream(stdout, p.StdoutBytes())
		}, func(error) { _ = p.stdoutStream.Close() })
	}
	if stderr != nil {
		g.Add(func() error {
			return copyStream(stderr, p.StderrBytes())
		}, func(error) { _ = p.stderrStream.Close() })
	}

	var status Status
	var waitErr error
	g.Add(func() error {
		status, waitErr = p.WaitUntilExit()
		return waitErr
	}, func(error) {})

	_ = g.Run()
	return status, waitErr
}

func copyStream(w io.Writer, s interface {
	Next() (byte, bool, error)
}) error {
	buf := make([]byte, 0, 4096)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		_, err := w.Write(buf)
		buf = buf[:0]
		return err
	}
	for {
		b, ok, err := s.Next()
		if err != nil {
			_ = flush()
			return err
		}
		if !ok {
			return flush()
		}
		buf = append(buf, b)
		if len(buf) == cap(buf) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// Package stream turns a blocking descriptor read into a lazy,
// single-pass, single-consumer sequence of bytes produced on a
// background goroutine.
package stream

import (
	"io"

	"github.com/sirupsen/logrus"
)

// reader is the minimal blocking-read primitive a Stream consumes.
// internal/fd.Handle satisfies it; tests can fake it.
type reader interface {
	Read([]byte) (int, error)
}

// workingBufferSize bounds the buffer used for each blocking read.
// Spec's nominal 1 GiB "capacity" is a ceiling on how much an
// implementation may ever buffer, not a preallocation target; we
// size the actual working buffer small and ignore the ceiling, per
// spec.md §9's open question (iii).
const workingBufferSize = 4096

type chunk struct {
	data []byte
	err  error // nil + eof=true means clean EOF
	eof  bool
}

// Stream is a single-consumer byte source backed by a background
// reader goroutine. Call Next to pull bytes; call Close (or let the
// consumer simply stop calling Next) to stop the producer at the
// next read boundary.
type Stream struct {
	log  logrus.FieldLogger
	r    reader
	ch   chan chunk
	stop chan struct{}

	buf      []byte
	terminal bool
	termErr  error
}

// New starts the background producer immediately; bytes begin
// accumulating in an internal buffered channel whether or not the
// caller has started reading yet.
func New(r reader, log logrus.FieldLogger) *Stream {
	if log == nil {
		log = logrus.New()
	}
	s := &Stream{
		log:  log,
		r:    r,
		ch:   make(chan chunk, 4),
		stop: make(chan struct{}),
	}
	go s.produce()
	return s
}

func (s *Stream) produce() {
	work := make([]byte, workingBufferSize)
	for {
		n, err := s.r.Read(work)
		if n > 0 {
			data := make([]byte, n)
			copy(data, work[:n])
			select {
			case s.ch <- chunk{data: data}:
			case <-s.stop:
				return
			}
		}
		switch {
		case err != nil && err != io.EOF:
			s.log.WithError(err).Debug("ptyproc: stream read failed")
			select {
			case s.ch <- chunk{err: err}:
			case <-s.stop:
			}
			return
		case err == io.EOF || n == 0:
			select {
			case s.ch <- chunk{eof: true}:
			case <-s.stop:
			}
			return
		}
	}
}

// Next blocks until the next byte is available, the stream hits EOF
// (ok=false, err=nil), or a read fails (ok=false, err!=nil). Once
// terminal, Next keeps returning the same terminal result.
func (s *Stream) Next() (b byte, ok bool, err error) {
	for len(s.buf) == 0 {
		if s.terminal {
			return 0, false, s.termErr
		}
		c := <-s.ch
		if c.eof || c.err != nil {
			s.terminal = true
			s.termErr = c.err
			continue
		}
		s.buf = c.data
	}
	b = s.buf[0]
	s.buf = s.buf[1:]
	return b, true, nil
}

// Close stops the producer at the next read boundary. Safe to call
// more than once; safe to call even after the producer already
// exited on EOF or error.
func (s *Stream) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return nil
}

// ReadAll drains the stream into a single slice, for callers that
// want whole-buffer semantics (e.g. "first line read") instead of
// byte-at-a-time iteration. Stops at EOF or error.
func (s *Stream) ReadAll() ([]byte, error) {
	var out []byte
	for {
		b, ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, b)
	}
}

// Package spawn performs the one-shot, exception-safe construction
// of a PTY pair plus per-stream capture channels and the process it
// is attached to. It is spec.md §4.D's Spawner/Runner component.
package spawn

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/aymanbagabas/ptyproc/internal/fd"
	"github.com/aymanbagabas/ptyproc/internal/termopts"
)

// CaptureRequest selects how one of the child's stdout/stderr
// streams is wired to the parent.
type CaptureRequest int

const (
	// CaptureNone leaves the child's stream inherited from the parent.
	CaptureNone CaptureRequest = iota
	// CaptureNull binds the parent-visible handle to /dev/null.
	//
	// The child's target fd is left unaltered by this alone — see
	// spec.md §4.D's "Note on Null". We keep the discrepancy the
	// source describes rather than dup'ing /dev/null onto the
	// child, which is the open question's first option.
	CaptureNull
	// CapturePipe opens a unidirectional pipe; the parent reads.
	CapturePipe
	// CapturePty dups the child's target fd onto the PTY secondary.
	CapturePty
)

// Request is the full set of inputs to Spawn, mirroring spec.md
// §4.D's Spawner inputs.
type Request struct {
	Path    string // already validated to exist by the caller
	Args    []string
	Env     []string // nil means inherit parent's environment
	Dir     string   // empty means inherit parent's cwd
	Stdout  CaptureRequest
	Stderr  CaptureRequest
	Options termopts.Set

	Log logrus.FieldLogger
}

// Result is spec.md §4.D's Runner: an immutable, one-shot value
// holding the pid and the descriptors the parent now owns.
type Result struct {
	Pid int

	PTY    *fd.Handle // primary side of the PTY, always present
	Stdout *fd.Handle // set for CaptureNull and CapturePipe; nil for CaptureNone and CapturePty
	Stderr *fd.Handle // set for CaptureNull and CapturePipe; nil for CaptureNone and CapturePty

	proc *os.Process
}

// Process returns the underlying *os.Process, used by the watcher to
// issue signals.
func (r *Result) Process() *os.Process { return r.proc }

// closers tracks descriptors this call to Spawn is responsible for,
// split the way spec.md §4.D describes: close-on-exit runs whether
// Spawn succeeds or fails, close-on-error only runs on failure,
// after which ownership of anything left standing passes to Result.
type closers struct {
	onExit  []io.Closer
	onError []io.Closer
	log     logrus.FieldLogger
}

func (c *closers) exitLater(cl io.Closer)  { c.onExit = append(c.onExit, cl) }
func (c *closers) errorLater(cl io.Closer) { c.onError = append(c.onError, cl) }

func (c *closers) closeExit()  { c.closeAll(c.onExit) }
func (c *closers) closeError() { c.closeAll(c.onError) }

func (c *closers) closeAll(list []io.Closer) {
	// Aggregate rather than discard-all-but-last, the way
	// owenthereal-upterm aggregates flag-validation errors with
	// go-multierror. Individual Close errors are still swallowed by
	// the caller per spec.md §4.A — this is diagnostic only.
	var result *multierror.Error
	for _, cl := range list {
		if cl == nil {
			continue
		}
		if err := cl.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		c.log.WithError(err).Debug("ptyproc: descriptor cleanup reported errors")
	}
}

// Spawn runs the atomic construction algorithm in spec.md §4.D: open
// the PTY pair, wire up stdout/stderr per their CaptureRequest, set
// process-group/argv/envp, and start the child. Every exit path
// closes exactly the descriptors it must — no leaks on success or
// failure, spec.md §8 property 1.
func Spawn(req Request) (*Result, error) {
	log := req.Log
	if log == nil {
		log = logrus.New()
	}
	c := &closers{log: log}

	primaryRaw, secondaryRaw, err := openPTYPair()
	if err != nil {
		return nil, fmt.Errorf("spawn: open pty: %w", err)
	}
	primary := fd.New(primaryRaw)
	secondaryFile := os.NewFile(uintptr(secondaryRaw), "pty-secondary")
	c.exitLater(secondaryFile)
	c.errorLater(primary)

	fail := func(err error) (*Result, error) {
		c.closeError()
		c.closeExit()
		return nil, err
	}

	if err := termopts.ApplyTo(primary.Fd(), req.Options, true, false); err != nil {
		return fail(fmt.Errorf("spawn: apply pty options: %w", err))
	}

	stdoutHandle, stdoutFile, err := setupChannel(c, req.Stdout, secondaryFile, os.Stdout)
	if err != nil {
		return fail(fmt.Errorf("spawn: setup stdout: %w", err))
	}
	stderrHandle, stderrFile, err := setupChannel(c, req.Stderr, secondaryFile, os.Stderr)
	if err != nil {
		return fail(fmt.Errorf("spawn: setup stderr: %w", err))
	}

	env := req.Env
	if env == nil {
		env = os.Environ()
	}

	attr := &os.ProcAttr{
		Dir:   req.Dir,
		Env:   env,
		Files: []*os.File{secondaryFile, stdoutFile, stderrFile},
		Sys: &syscall.SysProcAttr{
			// Setsid also puts the child in a new process group
			// (POSIX_SPAWN_SETPGROUP); Setpgid is left unset because
			// setpgid fails for a session leader.
			Setsid:  true, // child becomes a session leader...
			Setctty: true, // ...and the PTY secondary becomes its controlling terminal
			Ctty:    0,    // index into Files: secondaryFile
		},
	}

	argv := append([]string{req.Path}, req.Args...)
	proc, err := os.StartProcess(req.Path, argv, attr)
	if err != nil {
		return fail(fmt.Errorf("spawn: posix_spawn: %w", err))
	}

	log.WithField("pid", proc.Pid).Debug("ptyproc: spawned child")

	c.closeExit()

	return &Result{
		Pid:    proc.Pid,
		PTY:    primary,
		Stdout: stdoutHandle,
		Stderr: stderrHandle,
		proc:   proc,
	}, nil
}

// setupChannel implements the per-stream channel table in spec.md
// §4.D. It returns the parent-visible handle (nil for CaptureNone and
// for CapturePty, whose output the parent reads only through the PTY
// primary) and the *os.File the child inherits at the target fd. Any
// descriptor it opens is registered with c so a later failure in
// Spawn still closes it.
func setupChannel(
	c *closers,
	req CaptureRequest,
	secondaryFile *os.File,
	inherited *os.File,
) (*fd.Handle, *os.File, error) {
	switch req {
	case CaptureNone:
		return nil, inherited, nil
	case CaptureNull:
		// Parent-visible handle reads /dev/null; child's target fd is
		// left unaltered (inherited), per spec.md §4.D's documented
		// open question on Null semantics.
		null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", os.DevNull, err)
		}
		h := fd.FromFile(null)
		c.errorLater(h)
		return h, inherited, nil
	case CapturePty:
		return nil, secondaryFile, nil
	case CapturePipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, fmt.Errorf("pipe: %w", err)
		}
		h := fd.FromFile(r)
		c.errorLater(h)
		c.exitLater(w)
		return h, w, nil
	default:
		return nil, nil, fmt.Errorf("spawn: unknown capture request %d", req)
	}
}

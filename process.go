package ptyproc

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aymanbagabas/ptyproc/internal/fd"
	"github.com/aymanbagabas/ptyproc/internal/spawn"
	"github.com/aymanbagabas/ptyproc/internal/stream"
	"github.com/aymanbagabas/ptyproc/internal/watch"
)

// Process is the user-facing façade composing the Spawner and the
// Watcher: spec.md §4.F. It validates preconditions, and exposes
// byte streams, PTY options, signals, and status.
type Process struct {
	id  uuid.UUID
	log logrus.FieldLogger

	path string
	args []string
	env  []string
	dir  string

	mu      sync.Mutex
	started bool

	runner  *spawn.Result
	watcher *watch.Watcher

	stdoutRequested bool
	stderrRequested bool

	ptyStream    *stream.Stream
	stdoutStream *stream.Stream
	stderrStream *stream.Stream
}

// New constructs a Process for path with the given arguments. It
// never fails or blocks; all runtime errors surface from Run.
// args, env, and dir follow spec.md §6: env == nil inherits the
// parent's environment, dir == "" inherits the parent's cwd.
func New(path string, args []string, env []string, dir string) *Process {
	id := uuid.New()
	return &Process{
		id:   id,
		log:  logrus.WithField("process_id", id.String()),
		path: path,
		args: args,
		env:  env,
		dir:  dir,
	}
}

// NewFromURL is the URL adapter spec.md §6 describes: the executable
// path may be given as a local file:// URL. Any other scheme fails
// up front with ErrUnsupportedScheme rather than deferring the
// failure to Run.
func NewFromURL(u *url.URL, args []string, env []string, dir string) (*Process, error) {
	if u.Scheme != "" && u.Scheme != "file" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return New(u.Path, args, env, dir), nil
}

// RunOptions configures Run. The zero value leaves both streams
// uncaptured (CaptureNone), sets no PTY options and no signal mask;
// DefaultRunOptions gives spec.md §6's defaults instead.
type RunOptions struct {
	Stdout     CaptureRequest
	Stderr     CaptureRequest
	Options    Options
	SignalMask []os.Signal
}

// DefaultRunOptions returns spec.md §6's defaults: Stdout and Stderr
// both CapturePty.
func DefaultRunOptions() RunOptions {
	return RunOptions{Stdout: CapturePty, Stderr: CapturePty}
}

// Run validates that the executable path exists and that the
// Process has not already been run, spawns the child, and starts
// its Watcher. Calling Run twice on the same Process is a
// precondition violation (panic), matching spec.md §7's
// "calling make_runner when already running".
func (p *Process) Run(opts RunOptions) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		precondition("Run called on a Process that has already run")
	}
	p.mu.Unlock()

	if len(opts.SignalMask) > 0 {
		return fmt.Errorf("%w: signal mask at spawn time", ErrUnsupported)
	}

	if _, err := os.Stat(p.path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s: %w", ErrFileNotFound, p.path, syscall.ENOENT)
		}
		return fmt.Errorf("ptyproc: stat %s: %w", p.path, err)
	}

	result, err := spawn.Spawn(spawn.Request{
		Path:    p.path,
		Args:    p.args,
		Env:     p.env,
		Dir:     p.dir,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
		Options: opts.Options,
		Log:     p.log,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.started = true
	p.runner = result
	p.watcher = watch.New(result.Pid, result.Process(), p.log)
	p.stdoutRequested = opts.Stdout != CaptureNone
	p.stderrRequested = opts.Stderr != CaptureNone
	p.ptyStream = stream.New(result.PTY, p.log)
	if result.Stdout != nil {
		p.stdoutStream = stream.New(result.Stdout, p.log)
	}
	if result.Stderr != nil {
		p.stderrStream = stream.New(result.Stderr, p.log)
	}
	p.mu.Unlock()

	p.log.WithField("pid", result.Pid).Info("ptyproc: process running")
	return nil
}

func (p *Process) mustStarted() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		precondition("called before Run")
	}
}

// Status returns the current lifecycle state: NotRunYet before Run,
// the Watcher's Status afterward.
func (p *Process) Status() Status {
	p.mu.Lock()
	started := p.started
	w := p.watcher
	p.mu.Unlock()
	if !started {
		return Status{Kind: StatusNotRunYet}
	}
	return w.Status()
}

// WaitUntilExit blocks until the child reaches a terminal Status.
func (p *Process) WaitUntilExit() (Status, error) {
	p.mu.Lock()
	started := p.started
	w := p.watcher
	p.mu.Unlock()
	if !started {
		return Status{}, ErrNoSuchProcess
	}
	return w.WaitUntilExit()
}

// Terminate sends SIGTERM to the child.
func (p *Process) Terminate() error { return p.signal(syscall.SIGTERM) }

// Interrupt sends SIGINT to the child.
func (p *Process) Interrupt() error { return p.signal(syscall.SIGINT) }

// Suspend sends SIGSTOP to the child.
func (p *Process) Suspend() error {
	p.mu.Lock()
	started := p.started
	w := p.watcher
	p.mu.Unlock()
	if !started {
		return ErrNoSuchProcess
	}
	return w.Suspend()
}

// Resume sends SIGCONT to the child.
func (p *Process) Resume() error {
	p.mu.Lock()
	started := p.started
	w := p.watcher
	p.mu.Unlock()
	if !started {
		return ErrNoSuchProcess
	}
	return w.Resume()
}

func (p *Process) signal(sig os.Signal) error {
	p.mu.Lock()
	started := p.started
	w := p.watcher
	p.mu.Unlock()
	if !started {
		return ErrNoSuchProcess
	}
	return w.SendSignal(sig)
}

// PTYBytes returns the byte stream over the PTY primary. Always
// available once Run has succeeded.
func (p *Process) PTYBytes() *stream.Stream {
	p.mustStarted()
	return p.ptyStream
}

// StdoutBytes returns the byte stream for the child's stdout. Only a
// CapturePipe or CaptureNull stdout has its own stream; with
// CapturePty the child's stdout is read through PTYBytes and there is
// no separate stream. Calling it for CaptureNone or CapturePty is a
// precondition violation.
func (p *Process) StdoutBytes() *stream.Stream {
	p.mustStarted()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stdoutRequested || p.stdoutStream == nil {
		precondition("StdoutBytes called without requesting a stdout capture")
	}
	return p.stdoutStream
}

// StderrBytes returns the byte stream for the child's stderr. Only a
// CapturePipe or CaptureNull stderr has its own stream; with
// CapturePty the child's stderr is read through PTYBytes and there is
// no separate stream. Calling it for CaptureNone or CapturePty is a
// precondition violation.
func (p *Process) StderrBytes() *stream.Stream {
	p.mustStarted()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stderrRequested || p.stderrStream == nil {
		precondition("StderrBytes called without requesting a stderr capture")
	}
	return p.stderrStream
}

// PTYFd returns the raw PTY primary descriptor.
func (p *Process) PTYFd() int {
	p.mustStarted()
	return p.runner.PTY.Fd()
}

// StdoutFd returns the raw parent-side stdout descriptor, which
// exists only for CapturePipe and CaptureNull; for CaptureNone or
// CapturePty it is a precondition violation (use PTYFd for the PTY).
func (p *Process) StdoutFd() int {
	p.mustStarted()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runner.Stdout == nil {
		precondition("StdoutFd called without requesting a stdout capture")
	}
	return p.runner.Stdout.Fd()
}

// StderrFd returns the raw parent-side stderr descriptor, which
// exists only for CapturePipe and CaptureNull; for CaptureNone or
// CapturePty it is a precondition violation (use PTYFd for the PTY).
func (p *Process) StderrFd() int {
	p.mustStarted()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runner.Stderr == nil {
		precondition("StderrFd called without requesting a stderr capture")
	}
	return p.runner.Stderr.Fd()
}

// PTYOptions reads the current termios-derived option set off the
// PTY primary. Before Run, or after the PTY descriptor is closed,
// this fails with ErrBadFD.
func (p *Process) PTYOptions() (Options, error) {
	p.mu.Lock()
	started := p.started
	var h *fd.Handle
	if started {
		h = p.runner.PTY
	}
	p.mu.Unlock()
	if !started || h.Closed() {
		return Options(0), ErrBadFD
	}
	opts, err := optionsFromFD(h.Fd())
	if err != nil {
		return Options(0), err
	}
	return opts, nil
}

// SetPTYOptions applies opts to the PTY primary. Before Run, or
// after the PTY descriptor is closed, this fails with ErrBadFD.
func (p *Process) SetPTYOptions(opts Options) error {
	p.mu.Lock()
	started := p.started
	var h *fd.Handle
	if started {
		h = p.runner.PTY
	}
	p.mu.Unlock()
	if !started || h.Closed() {
		return ErrBadFD
	}
	return applyOptionsToFD(h.Fd(), opts)
}

// Close closes every descriptor this Process owns. The child process
// is NOT killed — callers must Terminate first, per spec.md §5's
// cancellation semantics.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	if p.ptyStream != nil {
		_ = p.ptyStream.Close()
	}
	if p.stdoutStream != nil {
		_ = p.stdoutStream.Close()
	}
	if p.stderrStream != nil {
		_ = p.stderrStream.Close()
	}
	if p.watcher != nil {
		p.watcher.Close()
	}
	var errs []error
	if p.runner.PTY != nil {
		errs = append(errs, p.runner.PTY.Close())
	}
	if p.runner.Stdout != nil {
		errs = append(errs, p.runner.Stdout.Close())
	}
	if p.runner.Stderr != nil {
		errs = append(errs, p.runner.Stderr.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

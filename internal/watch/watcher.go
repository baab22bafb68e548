// Package watch turns SIGCHLD notifications for a single child pid
// into a Status state machine and resolves pending wait-for-exit
// continuations. It is spec.md §4.E's Watcher component.
package watch

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ErrNoChild is returned when waitid/wait4 reports ECHILD: some
// other part of the program (or, on the source platform, a spurious
// SIGCHLD delivery) already reaped this pid out from under us.
// spec.md §4.E calls this the "no child process" failure.
var ErrNoChild = errors.New("watch: no child process")

// result is what a terminal transition delivers to every pending and
// future wait-for-exit continuation.
type result struct {
	status Status
	err    error
}

// Watcher is an actor over a single child pid. All state reads and
// mutations serialize through mu, matching spec.md §4.E's "single
// executor" ordering guarantee.
type Watcher struct {
	log logrus.FieldLogger

	pid  int
	proc signaler

	mu       sync.Mutex
	status   Status
	result   *result
	waiters  []chan result
	sigCh    chan os.Signal
	stopped  chan struct{}
	stopOnce sync.Once
}

// signaler is the minimal os.Process surface the Watcher needs to
// send signals; satisfied by *os.Process, faked in tests.
type signaler interface {
	Signal(os.Signal) error
}

// New starts the SIGCHLD subscription and the reaper goroutine for
// pid. The Watcher begins in Running(pid).
func New(pid int, proc signaler, log logrus.FieldLogger) *Watcher {
	if log == nil {
		log = logrus.New()
	}
	w := &Watcher{
		log:     log,
		pid:     pid,
		proc:    proc,
		status:  Status{Kind: Running, Pid: pid},
		sigCh:   make(chan os.Signal, 8),
		stopped: make(chan struct{}),
	}
	signal.Notify(w.sigCh, syscall.SIGCHLD)
	go w.reap()
	return w
}

// Status returns the current state. If currently Suspended, it
// first performs the non-blocking poll spec.md §4.E requires to work
// around a host that does not reliably redeliver SIGCHLD on
// CLD_CONTINUED/CLD_STOPPED transitions.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	suspended := w.status.Kind == Suspended
	w.mu.Unlock()
	if suspended {
		w.check(true)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// AddWaitContinuation resolves immediately if a terminal result is
// already latched, otherwise enqueues ch to be resolved once one
// arrives. ch must have capacity 1.
func (w *Watcher) AddWaitContinuation(ch chan result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result != nil {
		ch <- *w.result
		return
	}
	w.waiters = append(w.waiters, ch)
}

// WaitUntilExit blocks until the Watcher reaches a terminal Status,
// or returns the latched error if the watcher entered error state
// (ErrNoChild when wait4 reported ECHILD, otherwise wait4's own
// error). This is spec.md §6's wait_until_exit.
func (w *Watcher) WaitUntilExit() (Status, error) {
	ch := make(chan result, 1)
	w.AddWaitContinuation(ch)
	r := <-ch
	return r.status, r.err
}

// Suspend sends SIGSTOP. It does not itself transition Status — the
// transition is only observed once SIGCHLD/poll reports CLD_STOPPED,
// per spec.md §4.E.
func (w *Watcher) Suspend() error {
	return w.proc.Signal(syscall.SIGSTOP)
}

// Resume sends SIGCONT. Same non-transitioning caveat as Suspend.
func (w *Watcher) Resume() error {
	return w.proc.Signal(syscall.SIGCONT)
}

// SendSignal delivers an arbitrary signal to the child.
func (w *Watcher) SendSignal(sig os.Signal) error {
	return w.proc.Signal(sig)
}

// Close ends the SIGCHLD subscription without affecting the child.
// Safe to call more than once and safe after natural termination.
func (w *Watcher) Close() {
	w.stopOnce.Do(func() {
		signal.Stop(w.sigCh)
		close(w.stopped)
	})
}

func (w *Watcher) reap() {
	defer w.Close()
	// Kick an initial check in case the child already changed state
	// between spawn and subscription.
	if w.check(false) {
		return
	}
	for {
		select {
		case <-w.stopped:
			return
		case <-w.sigCh:
			if w.check(false) {
				return
			}
		}
	}
}

// check polls wait4 for w.pid once. wnowait, when true, asks the
// kernel not to consume the state change (spec.md §4.E's
// WNOHANG|WNOWAIT peek used by Status while Suspended). It returns
// true once a terminal Status has been latched and continuations
// drained, signaling the reaper loop to stop.
func (w *Watcher) check(wnowait bool) bool {
	flags := unix.WUNTRACED | unix.WCONTINUED | unix.WNOHANG
	if wnowait {
		flags |= unix.WNOWAIT
	}

	var ws unix.WaitStatus
	pid, err := unix.Wait4(w.pid, &ws, flags, nil)
	if err != nil {
		if err == unix.EINTR {
			return false
		}
		if wnowait && err == unix.EINVAL {
			// wait4 on Linux rejects WNOWAIT; the peek is skipped and
			// SIGCHLD delivery alone drives the state machine there.
			return false
		}
		if err == unix.ECHILD {
			w.log.WithField("pid", w.pid).Warn("ptyproc: lost our child to a wait() racer")
			w.finish(Status{}, ErrNoChild)
			return true
		}
		w.log.WithError(err).Debug("ptyproc: wait4 failed")
		w.finish(Status{}, err)
		return true
	}
	if pid == 0 {
		// No state change yet.
		return false
	}

	switch {
	case ws.Exited():
		w.finish(Status{Kind: Exited, Code: int32(ws.ExitStatus())}, nil)
		return true
	case ws.Signaled():
		w.finish(Status{Kind: UncaughtSignal, Sig: int32(ws.Signal())}, nil)
		return true
	case ws.Stopped():
		w.setStatus(Status{Kind: Suspended, Pid: w.pid})
		return false
	case ws.Continued():
		w.setStatus(Status{Kind: Running, Pid: w.pid})
		return false
	default:
		return false
	}
}

func (w *Watcher) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Watcher) finish(s Status, err error) {
	w.mu.Lock()
	if w.result != nil {
		w.mu.Unlock()
		return
	}
	if err == nil {
		w.status = s
	}
	r := result{status: s, err: err}
	w.result = &r
	waiters := w.waiters
	w.waiters = nil
	w.mu.Unlock()

	for _, ch := range waiters {
		ch <- r
	}
}

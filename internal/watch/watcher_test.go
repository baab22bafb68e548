//go:build !windows
// +build !windows

package watch

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startChild(t *testing.T, args ...string) *os.Process {
	t.Helper()
	path, err := exec.LookPath("sh")
	require.NoError(t, err)
	argv := append([]string{"sh"}, args...)
	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	require.NoError(t, err)
	return proc
}

func TestWatcher_ExitsCleanly(t *testing.T) {
	proc := startChild(t, "-c", "exit 0")
	w := New(proc.Pid, proc, nil)

	status, err := w.WaitUntilExit()
	require.NoError(t, err)
	require.Equal(t, Status{Kind: Exited, Code: 0}, status)
}

func TestWatcher_ExitsWithNonZeroCode(t *testing.T) {
	proc := startChild(t, "-c", "exit 100")
	w := New(proc.Pid, proc, nil)

	status, err := w.WaitUntilExit()
	require.NoError(t, err)
	require.Equal(t, Status{Kind: Exited, Code: 100}, status)
}

func TestWatcher_UncaughtSignal(t *testing.T) {
	proc := startChild(t, "-c", "kill -TERM $$; sleep 5")
	w := New(proc.Pid, proc, nil)

	status, err := w.WaitUntilExit()
	require.NoError(t, err)
	require.Equal(t, Status{Kind: UncaughtSignal, Sig: 15}, status)
}

func TestWatcher_SuspendResume(t *testing.T) {
	proc := startChild(t, "-c", "sleep 5")
	w := New(proc.Pid, proc, nil)
	defer func() { _ = w.SendSignal(os.Kill) }()

	require.NoError(t, w.Suspend())
	require.Eventually(t, func() bool {
		return w.Status().Kind == Suspended
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, w.Resume())
	require.Eventually(t, func() bool {
		return w.Status().Kind == Running
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatcher_StatusMonotoneAfterTerminal(t *testing.T) {
	proc := startChild(t, "-c", "exit 3")
	w := New(proc.Pid, proc, nil)

	first, err := w.WaitUntilExit()
	require.NoError(t, err)

	second := w.Status()
	require.Equal(t, first, second)

	// A late continuation added after termination resolves immediately.
	ch := make(chan result, 1)
	w.AddWaitContinuation(ch)
	r := <-ch
	require.Equal(t, first, r.status)
}

func TestStatus_Equality(t *testing.T) {
	require.Equal(t, Status{Kind: Exited, Code: 0}, Status{Kind: Exited, Code: 0})
	require.NotEqual(t, Status{Kind: Exited, Code: 0}, Status{Kind: Exited, Code: 1})
	require.NotEqual(t, Status{Kind: Running, Pid: 0}, Status{Kind: Suspended, Pid: 0})
}

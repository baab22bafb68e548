//go:build linux
// +build linux

package spawn

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSpawn_StdoutPipe_EchoHelloWorld(t *testing.T) {
	res, err := Spawn(Request{
		Path:   "/bin/echo",
		Args:   []string{"Hello World"},
		Stdout: CapturePipe,
		Stderr: CaptureNone,
	})
	require.NoError(t, err)
	defer res.PTY.Close()
	defer res.Stdout.Close()

	buf := make([]byte, 4096)
	n, err := res.Stdout.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "Hello World\n", string(buf[:n]))

	var ws unix.WaitStatus
	_, err = unix.Wait4(res.Pid, &ws, 0, nil)
	require.NoError(t, err)
	require.True(t, ws.Exited())
	require.Equal(t, 0, ws.ExitStatus())
}

func TestSpawn_EnvIsExactlyWhatWasRequested(t *testing.T) {
	res, err := Spawn(Request{
		Path:   "/usr/bin/env",
		Env:    []string{"VORLON=Who are you", "SHADOW=What do you want"},
		Stdout: CapturePipe,
		Stderr: CaptureNone,
	})
	require.NoError(t, err)
	defer res.PTY.Close()
	defer res.Stdout.Close()

	buf := make([]byte, 4096)
	n, err := res.Stdout.Read(buf)
	require.NoError(t, err)
	out := string(buf[:n])
	require.Equal(t, "VORLON=Who are you\nSHADOW=What do you want\n", out)

	var ws unix.WaitStatus
	_, _ = unix.Wait4(res.Pid, &ws, 0, nil)
}

func TestSpawn_ProcessGroupIsolation(t *testing.T) {
	res, err := Spawn(Request{
		Path:   "/bin/sleep",
		Args:   []string{"5"},
		Stdout: CaptureNone,
		Stderr: CaptureNone,
	})
	require.NoError(t, err)
	defer res.PTY.Close()

	childPgid, err := unix.Getpgid(res.Pid)
	require.NoError(t, err)
	require.NotEqual(t, unix.Getpgrp(), childPgid)

	_ = res.Process().Kill()
	var ws unix.WaitStatus
	_, _ = unix.Wait4(res.Pid, &ws, 0, nil)
}

func TestSpawn_CaptureNull_ParentSideReadsNothing(t *testing.T) {
	res, err := Spawn(Request{
		Path:   "/bin/sleep",
		Args:   []string{"0"},
		Stdout: CaptureNull,
		Stderr: CaptureNull,
	})
	require.NoError(t, err)
	defer res.PTY.Close()
	defer res.Stdout.Close()
	defer res.Stderr.Close()

	buf := make([]byte, 16)
	n, err := res.Stdout.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n, "Null capture parent side reads EOF from /dev/null immediately")

	var ws unix.WaitStatus
	_, _ = unix.Wait4(res.Pid, &ws, 0, nil)
}

func TestSpawn_PathNotFound_NoDescriptorLeak(t *testing.T) {
	before := countOpenFDs(t)

	_, err := Spawn(Request{
		Path:   "/no/such/executable",
		Stdout: CapturePty,
		Stderr: CapturePipe,
	})
	require.Error(t, err)

	after := countOpenFDs(t)
	require.Equal(t, before, after, "a failed spawn must not leak descriptors")
}

func countOpenFDs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(entries)
}

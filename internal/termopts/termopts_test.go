//go:build linux
// +build linux

package termopts

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openTestPTY opens a primary/secondary PTY pair the same way
// internal/spawn does, kept independent so this package's tests
// don't need to import spawn.
func openTestPTY(t *testing.T) (primary, secondary int) {
	t.Helper()
	p, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	require.NoError(t, err)
	require.NoError(t, unix.IoctlSetPointerInt(p, unix.TIOCSPTLCK, 0))
	n, err := unix.IoctlGetInt(p, unix.TIOCGPTN)
	require.NoError(t, err)
	s, err := unix.Open("/dev/pts/"+strconv.Itoa(n), unix.O_RDWR|unix.O_NOCTTY, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(p)
		_ = unix.Close(s)
	})
	return p, s
}

func TestFromFD_DefaultCooked(t *testing.T) {
	_, secondary := openTestPTY(t)

	s, err := FromFD(secondary)
	require.NoError(t, err)
	require.False(t, s.Has(DisableEcho))
	require.False(t, s.Has(NonCanonical))
	// A fresh Linux PTY starts with OPOST|ONLCR set in c_oflag.
	require.True(t, s.Has(OutputCRLF))
}

func TestApplyTo_RoundTrip(t *testing.T) {
	all := []Set{
		Empty,
		Set(0).With(DisableEcho),
		Set(0).With(NonCanonical),
		Set(0).With(OutputCRLF),
		Set(0).With(DisableEcho).With(NonCanonical),
		Set(0).With(DisableEcho).With(OutputCRLF),
		Set(0).With(NonCanonical).With(OutputCRLF),
		Set(0).With(DisableEcho).With(NonCanonical).With(OutputCRLF),
	}

	for _, want := range all {
		want := want
		t.Run(strconv.Itoa(int(want)), func(t *testing.T) {
			_, secondary := openTestPTY(t)

			require.NoError(t, ApplyTo(secondary, want, true, false))
			got, err := FromFD(secondary)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestFromFD_NotATerminal(t *testing.T) {
	r, w, err := unixPipe()
	require.NoError(t, err)
	defer unix.Close(r)
	defer unix.Close(w)

	_, err = FromFD(r)
	require.Error(t, err)
}

func unixPipe() (r, w int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

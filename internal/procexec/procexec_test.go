package procexec_test

import (
	"testing"
	"time"

	"github.com/polyswarm/microengine-go/internal/procexec"
	"github.com/polyswarm/microengine-go/internal/scanerr"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()

	res, err := procexec.Run(t.Context(), "sh",
		[]string{"-c", "echo out; echo err >&2"},
		procexec.Options{Timeout: 10 * time.Second},
	)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "out\n", res.Stdout)
	require.Equal(t, "err\n", res.Stderr)
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	// without Check the exit code comes back as data
	res, err := procexec.Run(t.Context(), "sh",
		[]string{"-c", "exit 3"},
		procexec.Options{Timeout: 10 * time.Second},
	)
	require.NoError(t, err)
	require.Equal(t, 3, res.ExitCode)

	// with Check it raises CalledProcess carrying the command and code
	_, err = procexec.Run(t.Context(), "sh",
		[]string{"-c", "exit 3"},
		procexec.Options{Timeout: 10 * time.Second, Check: true},
	)
	var se *scanerr.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, scanerr.CalledProcess, se.Kind())
	require.Equal(t, []string{"sh", "-c", "exit 3"}, se.Cmd)
	require.Contains(t, se.Reason, "3")
}

func TestRunCommandNotFound(t *testing.T) {
	t.Parallel()

	_, err := procexec.Run(t.Context(), "definitely-not-a-scanner-binary", nil,
		procexec.Options{Timeout: 10 * time.Second},
	)

	var se *scanerr.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, scanerr.CommandNotFound, se.Kind())
	require.Equal(t, []string{"definitely-not-a-scanner-binary"}, se.Cmd)
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := procexec.Run(t.Context(), "sleep", []string{"30"},
		procexec.Options{Timeout: 200 * time.Millisecond},
	)
	elapsed := time.Since(start)

	var se *scanerr.Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, scanerr.Timeout, se.Kind())
	// the raise happens promptly, the child does not run out its sleep
	require.Less(t, elapsed, 5*time.Second)
}

func TestRunPermissiveDecoding(t *testing.T) {
	t.Parallel()

	// invalid byte sequences are replaced, never an error
	res, err := procexec.Run(t.Context(), "sh",
		[]string{"-c", `printf 'a\377b'`},
		procexec.Options{Timeout: 10 * time.Second},
	)
	require.NoError(t, err)
	require.Equal(t, "a�b", res.Stdout)
}

// Package procexec runs external scanner binaries and maps OS level failure
// modes onto the scanerr taxonomy. It performs no metric reporting.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/polyswarm/microengine-go/internal/scanerr"
)

type Options struct {
	// Timeout kills the process once elapsed. Zero means no limit.
	Timeout time.Duration
	// Check raises a CalledProcess failure on a non-zero exit code.
	Check bool
}

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// waitDelay bounds how long Run waits on a process which ignored the kill
// signal before abandoning its pipes.
const waitDelay = 3 * time.Second

// Run executes name with args, feeding it no stdin and collecting stdout and
// stderr fully, decoded permissively (invalid byte sequences are replaced).
//
// A missing executable raises CommandNotFound, an expired timeout kills the
// process and raises Timeout, pipe or start trouble raises CalledProcess with
// a short reason, and with Options.Check a non-zero exit code raises
// CalledProcess as well. Otherwise the exit code is returned as data.
func Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	argv := append([]string{name}, args...)
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	slog.DebugContext(ctx, "scanner process finished",
		"cmd", strings.Join(argv, " "),
		"elapsed", time.Since(start).String(),
	)

	res := Result{
		Stdout: decode(stdout.Bytes()),
		Stderr: decode(stderr.Bytes()),
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return res, scanerr.NotFound(argv)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, scanerr.New(scanerr.Timeout)
	case ctx.Err() != nil:
		return res, ctx.Err()
	}

	var exit *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		res.ExitCode = exit.ExitCode()
		if opts.Check {
			return res, scanerr.Process(argv, "non-zero return code: "+strconv.Itoa(res.ExitCode))
		}
	default:
		return res, scanerr.Process(argv, err.Error())
	}
	return res, nil
}

func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

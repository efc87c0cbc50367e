package coverage

// runner.go contains child process execution for the NCover tools.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/rs/zerolog"
)

// Command is a single child process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return ncover.BuildCommand(c.Path, c.Args)
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ProcessError is returned when a child process could not be started or
// exited with a non-zero status.
type ProcessError struct {
	Path     string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Path)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s failed to start: %v", e.Path, e.Err)
	}
	if stderr := firstLine(e.Stderr); stderr != "" {
		msg += " (stderr: " + stderr + ")"
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// ExecRunner runs commands as local child processes. Output is streamed to
// Stdout and Stderr when set, and stderr is also kept for error reporting.
type ExecRunner struct {
	Logger zerolog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner that passes child output through to the
// terminal.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	var stderrBuf bytes.Buffer
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = io.Discard
	}
	cmd.Stderr = &stderrBuf
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderrBuf)
	}

	r.Logger.Debug().
		Str("command", c.String()).
		Str("dir", c.Dir).
		Msg("Executing command")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.Logger.Debug().
				Int("exit_code", exitErr.ExitCode()).
				Str("path", c.Path).
				Msg("Command exited with non-zero status")
			return &ProcessError{Path: c.Path, ExitCode: exitErr.ExitCode(), Stderr: stderrBuf.String(), Err: err}
		}
		return &ProcessError{Path: c.Path, ExitCode: -1, Stderr: stderrBuf.String(), Err: err}
	}

	return nil
}

package coverage

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_Success(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()

	var stdout bytes.Buffer
	r := &ExecRunner{Logger: zerolog.Nop(), Stdout: &stdout}

	err := r.Run(context.Background(), Command{Path: sh, Args: []string{"-c", "pwd"}, Dir: dir})
	require.NoError(t, err)

	got, err := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	sh := requireShell(t)
	r := &ExecRunner{Logger: zerolog.Nop()}

	err := r.Run(context.Background(), Command{Path: sh, Args: []string{"-c", "echo broken >&2; exit 3"}})
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 3, procErr.ExitCode)
	assert.Equal(t, "broken\n", procErr.Stderr)
	assert.Contains(t, err.Error(), "exited with code 3")
	assert.Contains(t, err.Error(), "stderr: broken")
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	r := &ExecRunner{Logger: zerolog.Nop()}

	err := r.Run(context.Background(), Command{Path: filepath.Join(t.TempDir(), "NCover.Console.exe")})
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, -1, procErr.ExitCode)
	assert.Contains(t, err.Error(), "failed to start")
}

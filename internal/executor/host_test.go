package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostExecutor_RunShell_CapturesStdoutAndExitCode(t *testing.T) {
	ex := NewHostExecutor(t.TempDir())
	res, err := ex.RunShell(context.Background(), "echo hello", 5)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestHostExecutor_RunShell_NonZeroExitIsNotAGoError(t *testing.T) {
	ex := NewHostExecutor(t.TempDir())
	res, err := ex.RunShell(context.Background(), "exit 7", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestHostExecutor_RunShell_TimesOut(t *testing.T) {
	ex := NewHostExecutor(t.TempDir())
	_, err := ex.RunShell(context.Background(), "sleep 5", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestHostExecutor_ReadWriteFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	ex := NewHostExecutor(dir)
	path := filepath.Join(dir, "nested", "out.txt")

	require.NoError(t, ex.WriteFile(context.Background(), path, []byte("content")))

	data, err := ex.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestHostExecutor_Exists(t *testing.T) {
	dir := t.TempDir()
	ex := NewHostExecutor(dir)
	path := filepath.Join(dir, "f.txt")

	ok, err := ex.Exists(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	ok, err = ex.Exists(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHostExecutor_WorkspacePath_IsIdentity(t *testing.T) {
	ex := NewHostExecutor("/work")
	assert.Equal(t, "/work/sub", ex.WorkspacePath("/work/sub"))
}

package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

func newFSFixture(t *testing.T) (string, *guard.PathGuard, executor.Executor) {
	t.Helper()
	dir := t.TempDir()
	return dir, guard.NewPathGuard(dir), executor.NewHostExecutor(dir)
}

func TestReadFileTool_ReadsExistingFile(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello there"), 0o644))

	tool := NewReadFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path})

	assert.False(t, result.IsError)
	assert.Equal(t, "hello there", result.ForLLM)
}

func TestReadFileTool_MissingPathArgIsError(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	tool := NewReadFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestReadFileTool_RejectsPathOutsideWorkspace(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	tool := NewReadFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": "/etc/passwd"})
	assert.True(t, result.IsError)
}

func TestWriteFileTool_CreatesNewFile(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "new.txt")
	tool := NewWriteFileTool(dir, g, ex)

	result := tool.Execute(context.Background(), map[string]interface{}{"path": path, "content": "abc"})
	assert.False(t, result.IsError)
	assert.Contains(t, result.ForLLM, "created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestWriteFileTool_OverwriteReportsOverwrote(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	tool := NewWriteFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path, "content": "new"})
	assert.Contains(t, result.ForLLM, "overwrote")
}

func TestEditFileTool_ReplacesUniqueMatch(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "edit.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo bar baz"), 0o644))

	tool := NewEditFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path, "find": "bar", "replace": "qux"})
	assert.False(t, result.IsError)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo qux baz", string(data))
}

func TestEditFileTool_AmbiguousMatchWithoutReplaceAllIsError(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "edit.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo foo"), 0o644))

	tool := NewEditFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path, "find": "foo", "replace": "bar"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.ForLLM, "occurs 3 times")
}

func TestEditFileTool_ReplaceAllReplacesEveryOccurrence(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "edit.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo foo"), 0o644))

	tool := NewEditFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"path": path, "find": "foo", "replace": "bar", "replace_all": true,
	})
	assert.False(t, result.IsError)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bar bar bar", string(data))
}

func TestEditFileTool_FindNotFoundIsError(t *testing.T) {
	dir, g, ex := newFSFixture(t)
	path := filepath.Join(dir, "edit.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	tool := NewEditFileTool(dir, g, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path, "find": "nope", "replace": "x"})
	assert.True(t, result.IsError)
}

func TestBashTool_RunsCommandAndReportsExitCode(t *testing.T) {
	dir := t.TempDir()
	cg := guard.NewCommandGuard()
	cg.ApplyEnv("echo")
	ex := executor.NewHostExecutor(dir)

	tool := NewBashTool(cg, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"command": "echo hi"})

	assert.False(t, result.IsError)
	assert.Contains(t, result.ForLLM, "exit code: 0")
	assert.Contains(t, result.ForLLM, "hi")
}

func TestBashTool_RejectsDisallowedCommand(t *testing.T) {
	dir := t.TempDir()
	cg := guard.NewCommandGuard()
	cg.ApplyEnv("echo")
	ex := executor.NewHostExecutor(dir)

	tool := NewBashTool(cg, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{"command": "rm -rf /"})
	assert.True(t, result.IsError)
}

func TestBashTool_MissingCommandIsError(t *testing.T) {
	dir := t.TempDir()
	cg := guard.NewCommandGuard()
	ex := executor.NewHostExecutor(dir)

	tool := NewBashTool(cg, ex)
	result := tool.Execute(context.Background(), map[string]interface{}{})
	assert.True(t, result.IsError)
}

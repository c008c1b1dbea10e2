package tools

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDelegateBinary writes a tiny shell script masquerading as the
// delegate agent binary, so DelegateTool.Execute can be exercised without
// shelling out to a real coding agent.
func fakeDelegateBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-delegate.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestDelegateTool_ParsesJSONResultAndSessionID(t *testing.T) {
	bin := fakeDelegateBinary(t, `echo '{"result":"done","session_id":"abc123"}'`)
	tool := NewDelegateTool(bin, t.TempDir())

	result := tool.Execute(context.Background(), map[string]interface{}{"prompt": "do the thing"})

	assert.False(t, result.IsError)
	assert.Contains(t, result.ForLLM, "done")
	assert.Contains(t, result.ForLLM, "abc123")
}

func TestDelegateTool_MissingPromptIsError(t *testing.T) {
	tool := NewDelegateTool("/bin/true", t.TempDir())
	result := tool.Execute(context.Background(), map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestDelegateTool_InvalidJSONOutputIsError(t *testing.T) {
	bin := fakeDelegateBinary(t, `echo 'not json'`)
	tool := NewDelegateTool(bin, t.TempDir())

	result := tool.Execute(context.Background(), map[string]interface{}{"prompt": "x"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.ForLLM, "invalid JSON")
}

func TestDelegateTool_NonZeroExitIsError(t *testing.T) {
	bin := fakeDelegateBinary(t, `exit 1`)
	tool := NewDelegateTool(bin, t.TempDir())

	result := tool.Execute(context.Background(), map[string]interface{}{"prompt": "x"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.ForLLM, "delegate agent failed")
}

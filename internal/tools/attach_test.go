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

type fakeUploader struct {
	calls []struct{ channelID, path, title string }
	err   error
}

func (f *fakeUploader) UploadFile(_ context.Context, channelID, path, title string) error {
	f.calls = append(f.calls, struct{ channelID, path, title string }{channelID, path, title})
	return f.err
}

func TestAttachTool_RequiresChannelIDOnContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	tool := NewAttachTool(dir, guard.NewPathGuard(dir), executor.NewHostExecutor(dir), &fakeUploader{})
	result := tool.Execute(context.Background(), map[string]interface{}{"path": path})

	assert.True(t, result.IsError)
	assert.Contains(t, result.ForLLM, "only available within a channel run")
}

func TestAttachTool_UploadsFileWhenChannelIDPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	uploader := &fakeUploader{}
	tool := NewAttachTool(dir, guard.NewPathGuard(dir), executor.NewHostExecutor(dir), uploader)
	ctx := WithChannelID(context.Background(), "chan1")

	result := tool.Execute(ctx, map[string]interface{}{"path": path, "title": "caption"})

	assert.False(t, result.IsError)
	assert.True(t, result.Silent)
	require.Len(t, uploader.calls, 1)
	assert.Equal(t, "chan1", uploader.calls[0].channelID)
	assert.Equal(t, "caption", uploader.calls[0].title)
}

func TestAttachTool_MissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	tool := NewAttachTool(dir, guard.NewPathGuard(dir), executor.NewHostExecutor(dir), &fakeUploader{})
	ctx := WithChannelID(context.Background(), "chan1")

	result := tool.Execute(ctx, map[string]interface{}{"path": filepath.Join(dir, "missing.txt")})
	assert.True(t, result.IsError)
}

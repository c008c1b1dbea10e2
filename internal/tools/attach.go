package tools

import (
	"context"
	"fmt"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

// ChatUploader is the slice of ChatTransport the attach tool needs — kept
// narrow so tools never depend on the full transport package.
type ChatUploader interface {
	UploadFile(ctx context.Context, channelID, path, title string) error
}

// channelIDKey is how dispatchTool threads the invoking run's channel id
// down to the one tool that needs to address the chat directly. The
// registry is built once and shared across every channel's runs, so the
// channel id can't live on the tool itself.
type channelIDKey struct{}

// WithChannelID attaches channelID to ctx for AttachTool to read. Called by
// the agent run loop before every tool dispatch.
func WithChannelID(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, channelIDKey{}, channelID)
}

func channelIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(channelIDKey{}).(string)
	return id
}

// AttachTool uploads a workspace file to the chat via the active transport.
type AttachTool struct {
	workspace string
	guard     *guard.PathGuard
	exec      executor.Executor
	uploader  ChatUploader
}

func NewAttachTool(workspace string, g *guard.PathGuard, ex executor.Executor, uploader ChatUploader) *AttachTool {
	return &AttachTool{workspace: workspace, guard: g, exec: ex, uploader: uploader}
}

func (t *AttachTool) Name() string        { return "attach" }
func (t *AttachTool) Description() string { return "Upload a file from the workspace to the chat" }
func (t *AttachTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to upload",
			},
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Optional caption shown with the upload",
			},
		},
		"required": []string{"path"},
	}
}

func (t *AttachTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	title, _ := args["title"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}

	decision := t.guard.Check(path, t.workspace)
	if !decision.Allowed {
		return ErrorResult(decision.Reason)
	}

	resolved := t.exec.WorkspacePath(decision.Resolved)
	if exists, err := t.exec.Exists(ctx, resolved); err != nil || !exists {
		return ErrorResult(fmt.Sprintf("file not found: %s", path))
	}

	channelID := channelIDFrom(ctx)
	if channelID == "" {
		return ErrorResult("attach is only available within a channel run")
	}

	if err := t.uploader.UploadFile(ctx, channelID, resolved, title); err != nil {
		return ErrorResult(fmt.Sprintf("upload failed: %v", err))
	}

	return SilentResult(fmt.Sprintf("uploaded %s", path))
}

package tools

import (
	"context"
	"fmt"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

// ReadFileTool reads file contents through the path guard and the run's executor.
// Grounded on vanducng-goclaw's ReadFileTool (internal/tools/filesystem.go),
// stripped of its multi-tenant virtual-FS routing — Mother runs one
// workspace per channel, so the sandbox choice is fixed at construction.
type ReadFileTool struct {
	workspace string
	guard     *guard.PathGuard
	exec      executor.Executor
}

func NewReadFileTool(workspace string, g *guard.PathGuard, ex executor.Executor) *ReadFileTool {
	return &ReadFileTool{workspace: workspace, guard: g, exec: ex}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read the contents of a file" }
func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}

	decision := t.guard.Check(path, t.workspace)
	if !decision.Allowed {
		return ErrorResult(decision.Reason)
	}

	data, err := t.exec.ReadFile(ctx, t.exec.WorkspacePath(decision.Resolved))
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read file: %v", err))
	}

	return SilentResult(string(data))
}

package tools

import (
	"context"
	"fmt"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

// WriteFileTool creates or overwrites a file. Same guard/executor shape as
// ReadFileTool.
type WriteFileTool struct {
	workspace string
	guard     *guard.PathGuard
	exec      executor.Executor
}

func NewWriteFileTool(workspace string, g *guard.PathGuard, ex executor.Executor) *WriteFileTool {
	return &WriteFileTool{workspace: workspace, guard: g, exec: ex}
}

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Create a new file or overwrite an existing one with the given content"
}
func (t *WriteFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to write to the file",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	if path == "" {
		return ErrorResult("path is required")
	}

	decision := t.guard.Check(path, t.workspace)
	if !decision.Allowed {
		return ErrorResult(decision.Reason)
	}

	existed, _ := t.exec.Exists(ctx, t.exec.WorkspacePath(decision.Resolved))

	if err := t.exec.WriteFile(ctx, t.exec.WorkspacePath(decision.Resolved), []byte(content)); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write file: %v", err))
	}

	verb := "created"
	if existed {
		verb = "overwrote"
	}
	return NewResult(fmt.Sprintf("%s %s (%d bytes)", verb, path, len(content)))
}

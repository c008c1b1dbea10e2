package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

// EditFileTool performs an exact-match find/replace against an existing
// file. find must occur exactly once unless replace_all is set, matching
// the edit contract spec §4.3 describes.
type EditFileTool struct {
	workspace string
	guard     *guard.PathGuard
	exec      executor.Executor
}

func NewEditFileTool(workspace string, g *guard.PathGuard, ex executor.Executor) *EditFileTool {
	return &EditFileTool{workspace: workspace, guard: g, exec: ex}
}

func (t *EditFileTool) Name() string { return "edit_file" }
func (t *EditFileTool) Description() string {
	return "Replace an exact block of text in a file with new text"
}
func (t *EditFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to edit",
			},
			"find": map[string]interface{}{
				"type":        "string",
				"description": "Exact text to find; must occur exactly once unless replace_all is true",
			},
			"replace": map[string]interface{}{
				"type":        "string",
				"description": "Text to replace it with",
			},
			"replace_all": map[string]interface{}{
				"type":        "boolean",
				"description": "Replace every occurrence instead of requiring exactly one",
			},
		},
		"required": []string{"path", "find", "replace"},
	}
}

func (t *EditFileTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	find, _ := args["find"].(string)
	replace, _ := args["replace"].(string)
	replaceAll, _ := args["replace_all"].(bool)

	if path == "" {
		return ErrorResult("path is required")
	}
	if find == "" {
		return ErrorResult("find must not be empty")
	}

	decision := t.guard.Check(path, t.workspace)
	if !decision.Allowed {
		return ErrorResult(decision.Reason)
	}

	resolved := t.exec.WorkspacePath(decision.Resolved)
	data, err := t.exec.ReadFile(ctx, resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read file: %v", err))
	}

	original := string(data)
	count := strings.Count(original, find)

	switch {
	case count == 0:
		return ErrorResult(fmt.Sprintf("find text not found in %s", path))
	case count > 1 && !replaceAll:
		return ErrorResult(fmt.Sprintf("find text occurs %d times in %s; narrow it to a unique match or set replace_all", count, path))
	}

	var updated string
	if replaceAll {
		updated = strings.ReplaceAll(original, find, replace)
	} else {
		updated = strings.Replace(original, find, replace, 1)
	}

	if err := t.exec.WriteFile(ctx, resolved, []byte(updated)); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write file: %v", err))
	}

	replacements := count
	if !replaceAll {
		replacements = 1
	}
	return NewResult(fmt.Sprintf("%s\n%s", editSummary(path, replacements), unifiedDiffHunk(find, replace)))
}

func editSummary(path string, replacements int) string {
	if replacements == 1 {
		return fmt.Sprintf("edited %s (1 replacement)", path)
	}
	return fmt.Sprintf("edited %s (%d replacements)", path, replacements)
}

// unifiedDiffHunk renders a minimal unified-diff-style before/after block
// for a single find/replace, without needing the whole-file diff machinery.
func unifiedDiffHunk(find, replace string) string {
	var b strings.Builder
	for _, line := range strings.Split(find, "\n") {
		b.WriteString("-" + line + "\n")
	}
	for _, line := range strings.Split(replace, "\n") {
		b.WriteString("+" + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

package tools

import (
	"context"
	"fmt"

	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/guard"
)

// BashTool runs a shell command through the command guard and the run's
// executor. Grounded on vanducng-goclaw's ExecTool (internal/tools/shell.go)
// routing between host and sandboxed execution.
type BashTool struct {
	commandGuard *guard.CommandGuard
	exec         executor.Executor
	defaultTimeoutSec int
}

func NewBashTool(cg *guard.CommandGuard, ex executor.Executor) *BashTool {
	return &BashTool{commandGuard: cg, exec: ex, defaultTimeoutSec: 120}
}

func (t *BashTool) Name() string        { return "bash" }
func (t *BashTool) Description() string { return "Run a shell command in the workspace" }
func (t *BashTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "Shell command to run",
			},
			"timeout_sec": map[string]interface{}{
				"type":        "integer",
				"description": "Timeout in seconds (default 120)",
			},
		},
		"required": []string{"command"},
	}
}

func (t *BashTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	command, _ := args["command"].(string)
	if command == "" {
		return ErrorResult("command is required")
	}

	decision := t.commandGuard.Check(command)
	if !decision.Allowed {
		return ErrorResult(decision.Reason)
	}

	timeout := t.defaultTimeoutSec
	if v, ok := args["timeout_sec"].(float64); ok && v > 0 {
		timeout = int(v)
	}

	result, err := t.exec.RunShell(ctx, command, timeout)
	if err != nil {
		return ErrorResult(fmt.Sprintf("command failed: %v", err))
	}

	out := fmt.Sprintf("exit code: %d\nstdout:\n%s\nstderr:\n%s", result.ExitCode, result.Stdout, result.Stderr)
	if result.ExitCode != 0 {
		return ErrorResult(out)
	}
	return NewResult(out)
}

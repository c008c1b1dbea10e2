package agent

import (
	"encoding/json"
	"fmt"
	"time"
)

// workingCaption is posted as the working-message caption when a tool
// call starts, per spec §4.6 tool dispatch rules.
func workingCaption(label string) string {
	return fmt.Sprintf("*-> %s*", label)
}

// toolSummary renders the thread message posted on tool_execution_end:
// an OK/X summary line, the args as a fenced block, then the
// tail-truncated result as a fenced block.
func toolSummary(toolName, label string, elapsed time.Duration, args map[string]any, result string, isError bool) string {
	status := "OK"
	if isError {
		status = "X"
	}

	argsJSON, _ := json.MarshalIndent(args, "", "  ")

	return fmt.Sprintf("%s %s: %s (%.1fs)\n```\n%s\n```\n```\n%s\n```",
		status, toolName, label, elapsed.Seconds(), string(argsJSON), result)
}

// errorBanner renders the main-thread error banner posted in addition to
// the tool summary when a tool call errors.
func errorBanner(message string) string {
	if len(message) > 200 {
		message = message[:200]
	}
	return fmt.Sprintf("*Error: %s*", message)
}

// toolLabel derives a human label for a tool call from its name and args,
// falling back to the bare name when no obvious label argument exists.
func toolLabel(toolName string, args map[string]any) string {
	for _, key := range []string{"path", "command", "prompt", "title"} {
		if v, ok := args[key].(string); ok && v != "" {
			return fmt.Sprintf("%s %s", toolName, v)
		}
	}
	return toolName
}

// Package executor abstracts running shell commands and touching files
// either directly on the host or inside a named, already-running
// container, translating paths between the two namespaces.
package executor

import "context"

// ShellResult is the outcome of a single shell invocation.
type ShellResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// Executor is implemented by the host and container variants.
type Executor interface {
	// WorkspacePath maps a host-side workspace directory to the path
	// tools should use when addressing files — identical to hostDir for
	// the host executor, "/workspace"-rooted for the container executor.
	WorkspacePath(hostDir string) string

	// RunShell executes command with the given timeout. Cancelling ctx
	// stops the command (abort()).
	RunShell(ctx context.Context, command string, timeoutSec int) (ShellResult, error)

	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
}

const (
	defaultTailLines = 2000
	defaultTailBytes = 50 * 1024
)

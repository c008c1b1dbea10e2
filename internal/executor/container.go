package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ContainerExecutor runs commands inside an already-running container via
// `docker exec`, translating host workspace paths to the container's
// /workspace mount. Grounded on vanducng-goclaw's executeInSandbox routing
// and the container Exec contract used across the pack's sandbox managers.
type ContainerExecutor struct {
	containerName string
	hostWorkspace string
}

const containerWorkspaceRoot = "/workspace"

func NewContainerExecutor(containerName, hostWorkspace string) *ContainerExecutor {
	return &ContainerExecutor{containerName: containerName, hostWorkspace: hostWorkspace}
}

// WorkspacePath maps a host-side workspace directory to its container path.
func (c *ContainerExecutor) WorkspacePath(hostDir string) string {
	rel := strings.TrimPrefix(hostDir, c.hostWorkspace)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return containerWorkspaceRoot
	}
	return containerWorkspaceRoot + "/" + rel
}

func (c *ContainerExecutor) RunShell(ctx context.Context, command string, timeoutSec int) (ShellResult, error) {
	if timeoutSec <= 0 {
		timeoutSec = 600
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	args := []string{"exec", "-w", containerWorkspaceRoot, c.containerName, "sh", "-c", command}
	cmd := exec.CommandContext(runCtx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return ShellResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1},
				fmt.Errorf("command timed out after %ds", timeoutSec)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return ShellResult{}, fmt.Errorf("docker exec: %w", err)
		}
	}

	out, truncatedOut := TailTruncate(stdout.String(), 0, 0)
	errOut, truncatedErr := TailTruncate(stderr.String(), 0, 0)

	return ShellResult{
		Stdout:    out,
		Stderr:    errOut,
		ExitCode:  exitCode,
		Truncated: truncatedOut || truncatedErr,
	}, nil
}

func (c *ContainerExecutor) ReadFile(ctx context.Context, path string) ([]byte, error) {
	containerPath := c.toContainerPath(path)
	cmd := exec.CommandContext(ctx, "docker", "exec", c.containerName, "cat", containerPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker exec cat %s: %w: %s", containerPath, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *ContainerExecutor) WriteFile(ctx context.Context, path string, data []byte) error {
	containerPath := c.toContainerPath(path)
	dir := containerPath[:strings.LastIndex(containerPath, "/")]
	if dir != "" {
		mkdir := exec.CommandContext(ctx, "docker", "exec", c.containerName, "mkdir", "-p", dir)
		if err := mkdir.Run(); err != nil {
			return fmt.Errorf("docker exec mkdir -p %s: %w", dir, err)
		}
	}

	cmd := exec.CommandContext(ctx, "docker", "exec", "-i", c.containerName, "sh", "-c", "cat > "+shellQuote(containerPath))
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker exec write %s: %w: %s", containerPath, err, stderr.String())
	}
	return nil
}

func (c *ContainerExecutor) Exists(ctx context.Context, path string) (bool, error) {
	containerPath := c.toContainerPath(path)
	cmd := exec.CommandContext(ctx, "docker", "exec", c.containerName, "test", "-e", containerPath)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, err
}

// toContainerPath maps a host-rooted path under hostWorkspace to its
// container equivalent; paths already under /workspace pass through.
func (c *ContainerExecutor) toContainerPath(path string) string {
	if strings.HasPrefix(path, containerWorkspaceRoot) {
		return path
	}
	if strings.HasPrefix(path, c.hostWorkspace) {
		return c.WorkspacePath(path)
	}
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

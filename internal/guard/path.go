// Package guard implements path-prefix and command allow-list policy
// enforcement for every tool that touches the filesystem or a shell.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// PathDecision is the result of a path check.
type PathDecision struct {
	Allowed  bool
	Resolved string
	Reason   string
}

// PathGuard enforces that resolved paths fall under one of a fixed set
// of allowed prefixes (the workspace, /tmp, and any configured extras).
type PathGuard struct {
	prefixes []string
}

// NewPathGuard builds a guard allowing workspaceDir, /tmp, and extraPrefixes.
// Each prefix is normalized (made absolute, symlinks resolved best-effort)
// once at construction time.
func NewPathGuard(workspaceDir string, extraPrefixes ...string) *PathGuard {
	all := append([]string{workspaceDir, "/tmp"}, extraPrefixes...)
	g := &PathGuard{}
	for _, p := range all {
		if p == "" {
			continue
		}
		g.prefixes = append(g.prefixes, normalizePrefix(p))
	}
	return g
}

func normalizePrefix(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// Check resolves inputPath against cwd, normalizes it, and reports whether
// it falls under an allowed prefix. The reason names both the input and
// the resolved form, per spec.
func (g *PathGuard) Check(inputPath, cwd string) PathDecision {
	var resolved string
	if filepath.IsAbs(inputPath) {
		resolved = filepath.Clean(inputPath)
	} else {
		resolved = filepath.Clean(filepath.Join(cwd, inputPath))
	}

	real := resolveBestEffort(resolved)

	for _, prefix := range g.prefixes {
		if isPathInside(real, prefix) {
			return PathDecision{Allowed: true, Resolved: real}
		}
	}

	return PathDecision{
		Allowed:  false,
		Resolved: real,
		Reason: fmt.Sprintf("path %q (resolved %q) is outside allowed directories",
			inputPath, real),
	}
}

// resolveBestEffort follows symlinks where possible; for paths that don't
// exist yet it resolves the deepest existing ancestor and rejoins the
// remaining components, so new files still get a canonical parent.
func resolveBestEffort(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	if linfo, err := os.Lstat(path); err == nil && linfo.Mode()&os.ModeSymlink != 0 {
		target, rerr := os.Readlink(path)
		if rerr == nil {
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
			return resolveBestEffort(filepath.Clean(target))
		}
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	parentReal := resolveBestEffort(parent)
	return filepath.Join(parentReal, filepath.Base(path))
}

// isPathInside reports whether child equals or is nested under parent.
func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}

// HasMutableSymlinkParent reports whether any path component is a symlink
// whose parent directory is writable by this process — a TOCTOU rebind
// risk the caller may want to reject in addition to the prefix check.
func HasMutableSymlinkParent(path string) bool {
	clean := filepath.Clean(path)
	components := strings.Split(clean, string(filepath.Separator))
	current := string(filepath.Separator)
	for _, comp := range components {
		if comp == "" {
			continue
		}
		current = filepath.Join(current, comp)
		info, err := os.Lstat(current)
		if err != nil {
			break
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if syscall.Access(filepath.Dir(current), 0x2) == nil {
				return true
			}
		}
	}
	return false
}

// IsHardlinked reports whether a regular file has more than one hardlink,
// a pattern sometimes used to escape path-based access checks.
func IsHardlinked(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	return ok && stat.Nlink > 1
}

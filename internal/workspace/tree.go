// Package workspace renders a bounded directory tree listing, with
// human-readable file sizes, for the system prompt.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxDepth   = 4
	maxEntries = 150
)

var excludedNames = map[string]bool{
	"node_modules":     true,
	"attachments":      true,
	"log.jsonl":        true,
	"context.jsonl":    true,
	"last_prompt.jsonl": true,
}

// Tree renders a depth-4, ≤150-entry listing of root, skipping
// node_modules, attachments, log.jsonl, context.jsonl, last_prompt.jsonl,
// and dot-files, with human-readable sizes for files.
func Tree(root string) (string, error) {
	var b strings.Builder
	count := 0
	err := walk(root, 0, &b, &count)
	if err != nil {
		return "", err
	}
	if count >= maxEntries {
		b.WriteString("... (truncated)\n")
	}
	return b.String(), nil
}

func walk(dir string, depth int, b *strings.Builder, count *int) error {
	if depth > maxDepth || *count >= maxEntries {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	indent := strings.Repeat("  ", depth)
	for _, entry := range entries {
		if *count >= maxEntries {
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || excludedNames[name] {
			continue
		}

		if entry.IsDir() {
			fmt.Fprintf(b, "%s%s/\n", indent, name)
			*count++
			if err := walk(filepath.Join(dir, name), depth+1, b, count); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		size := "?"
		if err == nil {
			size = humanBytes(info.Size())
		}
		fmt.Fprintf(b, "%s%s (%s)\n", indent, name, size)
		*count++
	}
	return nil
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

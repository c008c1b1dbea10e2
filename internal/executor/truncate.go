package executor

import (
	"fmt"
	"strings"
)

// TailTruncate keeps the last maxLines lines / maxBytes bytes of output,
// whichever is more restrictive, and reports whether anything was cut.
// A marker line documents how much was dropped, as spec §4.2 requires.
func TailTruncate(s string, maxLines, maxBytes int) (string, bool) {
	if maxLines <= 0 {
		maxLines = defaultTailLines
	}
	if maxBytes <= 0 {
		maxBytes = defaultTailBytes
	}

	lines := strings.Split(s, "\n")
	droppedLines := 0
	if len(lines) > maxLines {
		droppedLines = len(lines) - maxLines
		lines = lines[droppedLines:]
	}
	out := strings.Join(lines, "\n")

	droppedBytes := 0
	if len(out) > maxBytes {
		droppedBytes = len(out) - maxBytes
		out = out[len(out)-maxBytes:]
	}

	if droppedLines == 0 && droppedBytes == 0 {
		return s, false
	}

	marker := fmt.Sprintf("\n[...truncated: %d lines / %d bytes dropped...]", droppedLines, droppedBytes)
	return out + marker, true
}

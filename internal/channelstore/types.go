// Package channelstore persists the append-only per-channel message log and
// manages attachment downloads, grounded on vanducng-goclaw's session
// history persistence style (internal/tools/sessions_history.go) adapted to
// a flat-file JSONL log instead of a database-backed store.
package channelstore

import "time"

// Attachment is one file referenced by a LogEntry. Local is promised, not
// guaranteed: a failed download leaves the metadata line intact but the
// file missing on disk.
type Attachment struct {
	Original string `json:"original"`
	Local    string `json:"local"`
}

// LogEntry is one line of a channel's log.jsonl.
type LogEntry struct {
	Date        time.Time    `json:"date"`
	Ts          string       `json:"ts"`
	User        string       `json:"user"`
	UserName    string       `json:"userName,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsBot       bool         `json:"isBot"`
}

// sanitizeName replaces any character outside [A-Za-z0-9._-] with '_', used
// to build the attachments/<ts>_<sanitized-name> local path.
func sanitizeName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

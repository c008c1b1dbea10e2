package sessioncontext

import (
	"fmt"
	"regexp"
	"time"

	"github.com/EdibleTuber/mother/internal/channelstore"
)

// headerPattern matches the "[<RFC3339> @<offset>] [<userName>]: " prefix
// sync prepends to materialized user messages, so trimming can strip it
// back off when sampling the last dropped user text.
var headerPattern = regexp.MustCompile(`^\[[^\]]+\] \[[^\]]*\]: `)

// FormatUserHeader renders the exact prefix spec §4.5 requires.
func FormatUserHeader(t time.Time, userName string) string {
	return fmt.Sprintf("[%s @%s] [%s]: ", t.Format(time.RFC3339), t.Format("-07:00"), userName)
}

// StripHeader removes a leading FormatUserHeader prefix, if present.
func StripHeader(text string) string {
	return headerPattern.ReplaceAllString(text, "")
}

// Sync appends to transcript every LogEntry from entries newer than
// highWaterTs, up to and including the current user message (the last
// entry in entries, by construction of the caller). User-authored lines
// become "user" messages with the header prefix; bot lines already
// committed to log.jsonl become single-text-part "assistant" messages.
// Returns the updated transcript and the new high-water ts.
func Sync(transcript []TranscriptMessage, entries []channelstore.LogEntry, highWaterTs string) ([]TranscriptMessage, string) {
	newHighWater := highWaterTs
	seenHighWater := highWaterTs == ""

	for _, e := range entries {
		if !seenHighWater {
			if e.Ts == highWaterTs {
				seenHighWater = true
			}
			continue
		}

		if e.IsBot {
			transcript = append(transcript, TranscriptMessage{
				Role:  "assistant",
				Parts: []Part{{Type: "text", Text: e.Text}},
			})
		} else {
			name := e.UserName
			if name == "" {
				name = e.User
			}
			transcript = append(transcript, userText(FormatUserHeader(e.Date, name)+e.Text))
		}
		newHighWater = e.Ts
	}

	return transcript, newHighWater
}

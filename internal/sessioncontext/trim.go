package sessioncontext

import "fmt"

// partitionTurns splits transcript into maximal contiguous runs, each
// beginning with a user message and ending before the next one. Any
// messages preceding the first user message form a leading partial turn.
func partitionTurns(transcript []TranscriptMessage) [][]TranscriptMessage {
	var turns [][]TranscriptMessage
	var current []TranscriptMessage

	for _, msg := range transcript {
		if msg.Role == "user" && len(current) > 0 {
			turns = append(turns, current)
			current = nil
		}
		current = append(current, msg)
	}
	if len(current) > 0 {
		turns = append(turns, current)
	}
	return turns
}

// Trim keeps the last MaxTurns turns, dropping the rest. When anything is
// dropped, a synthetic leading user message summarizes the last dropped
// user text (prefix-stripped, truncated to 100 chars).
func Trim(transcript []TranscriptMessage) []TranscriptMessage {
	turns := partitionTurns(transcript)
	if len(turns) <= MaxTurns {
		return transcript
	}

	dropped := turns[:len(turns)-MaxTurns]
	kept := turns[len(turns)-MaxTurns:]

	lastDroppedUserText := lastUserText(dropped)
	banner := userText(fmt.Sprintf("[Prior context trimmed. Last topic before trim: %s]", truncate100(StripHeader(lastDroppedUserText))))

	out := []TranscriptMessage{banner}
	for _, turn := range kept {
		out = append(out, turn...)
	}
	return out
}

// lastUserText finds the text of the last user message across the dropped
// turns, scanning from the end.
func lastUserText(turns [][]TranscriptMessage) string {
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		for j := len(turn) - 1; j >= 0; j-- {
			if turn[j].Role == "user" {
				return turn[j].Content
			}
		}
	}
	return ""
}

func truncate100(s string) string {
	runes := []rune(s)
	if len(runes) <= 100 {
		return s
	}
	return string(runes[:100])
}

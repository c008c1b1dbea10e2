package agent

import (
	"fmt"

	"github.com/EdibleTuber/mother/internal/llmbackend"
)

// usageSummary renders the post-run thread message: token totals, cost,
// and the transcript tail's share of the model's context window.
func usageSummary(u llmbackend.Usage, transcriptTailTokens, contextWindow int) string {
	ratio := 0.0
	if contextWindow > 0 {
		ratio = float64(transcriptTailTokens) / float64(contextWindow) * 100
	}
	return fmt.Sprintf(
		"*Usage: %d in / %d out / %d cache-read / %d cache-write — $%.4f — transcript %d/%d tokens (%.1f%%)*",
		u.InputTokens, u.OutputTokens, u.CacheReadTokens, u.CacheWriteTokens, u.CostUSD,
		transcriptTailTokens, contextWindow, ratio,
	)
}

// estimateTokens is a crude chars/4 estimate, used only for the diagnostic
// usage-ratio line — Mother doesn't run the model's actual tokenizer.
func estimateTokens(text string) int {
	return len(text) / 4
}

package sessioncontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/EdibleTuber/mother/internal/channelstore"
)

func TestFormatAndStripHeader(t *testing.T) {
	ts := time.Date(2026, 3, 4, 9, 30, 0, 0, time.FixedZone("", -7*3600))
	header := FormatUserHeader(ts, "bob")
	text := header + "hello there"

	assert.Equal(t, "hello there", StripHeader(text))
	assert.Contains(t, header, "[bob]")
}

func TestSync_SkipsUntilHighWaterThenAppends(t *testing.T) {
	entries := []channelstore.LogEntry{
		{Ts: "1", Text: "already synced", UserName: "alice"},
		{Ts: "2", Text: "reply", IsBot: true},
		{Ts: "3", Text: "new message", UserName: "alice", Date: time.Now()},
	}

	transcript, newHighWater := Sync(nil, entries, "1")

	assert.Equal(t, "3", newHighWater)
	if assert.Len(t, transcript, 2) {
		assert.Equal(t, "assistant", transcript[0].Role)
		assert.Equal(t, "reply", transcript[0].Parts[0].Text)
		assert.Equal(t, "user", transcript[1].Role)
		assert.Contains(t, transcript[1].Content, "new message")
	}
}

func TestSync_EmptyHighWaterTakesEverything(t *testing.T) {
	entries := []channelstore.LogEntry{
		{Ts: "1", Text: "first", UserName: "alice"},
	}
	transcript, newHighWater := Sync(nil, entries, "")
	assert.Equal(t, "1", newHighWater)
	assert.Len(t, transcript, 1)
}

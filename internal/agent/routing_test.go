package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSilent(t *testing.T) {
	assert.True(t, isSilent("[SILENT]"))
	assert.True(t, isSilent("  [SILENT] noted, done."))
	assert.False(t, isSilent("not silent [SILENT]"))
	assert.False(t, isSilent(""))
}

func TestSplitFinal_ShortTextUnsplit(t *testing.T) {
	chunks := splitFinal("short reply")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short reply", chunks[0])
}

func TestSplitFinal_LongTextSplitsWithContinuedSuffix(t *testing.T) {
	text := strings.Repeat("a", 3000)
	chunks := splitFinal(text)

	require.True(t, len(chunks) > 1)
	for _, c := range chunks[:len(chunks)-1] {
		assert.Contains(t, c, "(continued")
	}
	assert.NotContains(t, chunks[len(chunks)-1], "(continued")
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), maxFinalChars)
	}
}

func TestSplitFinal_PrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("a", 1000) + "\n" + strings.Repeat("b", 1000)
	chunks := splitFinal(text)
	require.True(t, len(chunks) >= 1)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 1000)+"\n"+"\n*(continued 2...)*", chunks[0])
	assert.Equal(t, strings.Repeat("b", 1000), chunks[1])
}

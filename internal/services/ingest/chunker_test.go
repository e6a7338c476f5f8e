package ingest

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wsRun = regexp.MustCompile(`\s+`)

func collapseWS(s string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

func TestSplitContent_Empty(t *testing.T) {
	assert.Empty(t, SplitContent("", 100))
	assert.Empty(t, SplitContent("   \n\t ", 100))
}

func TestSplitContent_SingleSentenceFits(t *testing.T) {
	chunks := SplitContent("One short sentence.", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One short sentence.", chunks[0])
}

func TestSplitContent_PacksSentencesGreedily(t *testing.T) {
	content := "Aaaa bbbb. Cccc dddd! Eeee ffff? Gggg hhhh."
	chunks := SplitContent(content, 25)

	// "Aaaa bbbb. Cccc dddd!" is 21 bytes, adding the next sentence would
	// exceed 25, so it flushes.
	require.Len(t, chunks, 2)
	assert.Equal(t, "Aaaa bbbb. Cccc dddd!", chunks[0])
	assert.Equal(t, "Eeee ffff? Gggg hhhh.", chunks[1])
}

func TestSplitContent_ByteBound(t *testing.T) {
	content := strings.Repeat("Short sentence here. ", 50)
	for _, maxBytes := range []int{40, 64, 100, 9000} {
		for i, chunk := range SplitContent(content, maxBytes) {
			assert.LessOrEqual(t, len(chunk), maxBytes, "chunk %d with limit %d", i, maxBytes)
		}
	}
}

func TestSplitContent_OversizeSentenceHardSplit(t *testing.T) {
	// One "sentence" with no terminal punctuation, longer than the limit.
	sentence := strings.Repeat("x", 95)
	chunks := SplitContent(sentence, 30)

	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 30, "chunk %d", i)
	}
	assert.Equal(t, sentence, strings.Join(chunks, ""))
}

func TestSplitContent_HardSplitRespectsRuneBoundaries(t *testing.T) {
	sentence := strings.Repeat("é", 50) // 2 bytes per rune
	chunks := SplitContent(sentence, 15)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, len(chunk), 15, "chunk %d", i)
	}
	assert.Equal(t, sentence, strings.Join(chunks, ""))
}

func TestSplitContent_RoundTrip(t *testing.T) {
	content := "First sentence here. Second one!  Third,\nwith a newline? Fourth and final sentence."
	// Limits chosen so every sentence fits whole, since hard-split windows
	// concatenate without a joining space.
	for _, maxBytes := range []int{30, 40, 60, 500} {
		chunks := SplitContent(content, maxBytes)
		joined := strings.Join(chunks, " ")
		assert.Equal(t, collapseWS(content), collapseWS(joined), "limit %d", maxBytes)
	}
}

func TestSplitContent_TrailingBufferFlushed(t *testing.T) {
	chunks := SplitContent("Complete sentence. trailing fragment without punctuation", 100)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "trailing fragment")
}

package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentence boundary: terminal punctuation followed by whitespace.
var sentenceEndPattern = regexp.MustCompile(`[.!?]\s+`)

// SplitContent splits text into sentence-aligned chunks no larger than
// maxChunkBytes, measured in UTF-8 bytes. Sentences are packed greedily; a
// single sentence larger than the limit is hard-split into byte windows.
// Empty input yields no chunks.
func SplitContent(content string, maxChunkBytes int) []string {
	content = strings.TrimSpace(content)
	if content == "" || maxChunkBytes <= 0 {
		return nil
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
	}

	for _, sentence := range splitSentences(content) {
		if len(sentence) > maxChunkBytes {
			flush()
			chunks = append(chunks, hardSplit(sentence, maxChunkBytes)...)
			continue
		}

		needed := len(sentence)
		if buf.Len() > 0 {
			needed++ // joining space
		}
		if buf.Len()+needed > maxChunkBytes {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitSentences cuts text at terminal punctuation, keeping the punctuation
// with its sentence and dropping the separating whitespace.
func splitSentences(content string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEndPattern.FindAllStringIndex(content, -1) {
		end := loc[0] + 1
		if s := strings.TrimSpace(content[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(content[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// hardSplit cuts an oversized sentence into windows of at most maxBytes,
// backing the cut off to the nearest rune start so no window ends mid-rune.
func hardSplit(s string, maxBytes int) []string {
	var parts []string
	for len(s) > maxBytes {
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxBytes
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

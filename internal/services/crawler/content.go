package crawler

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace reduces every whitespace run to a single space and trims
// the ends.
func CollapseWhitespace(content string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
}

// Truncate cuts content to at most maxLength bytes, preferring the last space
// at or before the limit so words stay whole. With no space before the limit
// it hard-cuts, backing off to a rune boundary. maxLength <= 0 disables
// truncation.
func Truncate(content string, maxLength int) string {
	if maxLength <= 0 || len(content) <= maxLength {
		return content
	}

	window := content[:maxLength]
	if idx := strings.LastIndexByte(window, ' '); idx > 0 {
		return strings.TrimRight(window[:idx], " ")
	}

	cut := maxLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLength
	}
	return content[:cut]
}

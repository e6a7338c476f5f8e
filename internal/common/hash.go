package common

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// HashContent returns a stable hex digest of the given text. NUL bytes are
// replaced with the Unicode replacement character before hashing so that
// identifiers derived from the digest stay safe for any downstream store.
func HashContent(text string) string {
	if strings.ContainsRune(text, '\x00') {
		text = strings.ReplaceAll(text, "\x00", "�")
	}
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

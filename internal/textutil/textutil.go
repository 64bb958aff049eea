package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes a SHA-256 hex hash over parts joined by NUL, so that
// ("ab", "c") and ("a", "bc") hash differently.
func Hash(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

// Truncate shortens s to at most maxRunes runes, appending "..." if
// truncated. It never splits a multi-byte character.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// SingleLine folds line breaks into visible "\n" markers for log output.
func SingleLine(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// Package fingerprint derives the uniqueness key of a lyric line.
package fingerprint

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize collapses every whitespace run to a single space, trims the
// result and lower-cases it. Text is composed to NFC first, so "canción"
// typed with a combining accent collides with its precomposed spelling.
func Normalize(line string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(line)), " "))
}

package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanText drops NUL bytes and invalid UTF-8 sequences, neither of which a postgres
// text column accepts, and trims surrounding whitespace. The bool reports whether
// anything other than whitespace had to be removed.
func CleanText(input string) (string, bool) {
	dirty := strings.ContainsRune(input, 0) || !utf8.ValidString(input)
	if dirty {
		input = strings.ReplaceAll(strings.ToValidUTF8(input, ""), "\x00", "")
	}

	return strings.TrimSpace(input), dirty
}

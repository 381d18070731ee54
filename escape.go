package re

import "strings"

// specialChars are the characters escaped by escapePattern.
const specialChars = "()[]{}?*+-|^$\\.&~# \t\n\r\v\f"

// special contains one entry for each ASCII character; true, if the character needs to be escaped.
var special [128]bool

func init() {
	for i := 0; i < len(specialChars); i++ {
		special[specialChars[i]] = true
	}
}

// escapePattern returns a pattern that matches the text literally.
// Every character of `specialChars` is preceded by a backslash; all other characters are kept.
func escapePattern(s string) string {
	i := strings.IndexFunc(s, func(c rune) bool {
		return c < 128 && special[c]
	})
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(2*len(s) - i)
	b.WriteString(s[:i])

	// a byte loop is correct, because all special characters are ASCII
	for ; i < len(s); i++ {
		if c := s[i]; c < 128 && special[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

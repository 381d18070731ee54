package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Digits of hex strings.
var hexDigits = "0123456789abcdef"

// Repr returns the Starlark representation of a string, using single quotes unless the string
// contains single quotes but no double quotes.
func Repr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)

	var quote byte
	if strings.IndexByte(s, '\'') < 0 || strings.IndexByte(s, '"') >= 0 {
		quote = '\''
	} else {
		quote = '"'
	}

	b.WriteByte(quote)

	var ch rune
	for size := 0; len(s) > 0; s = s[size:] {
		ch, size = utf8.DecodeRuneInString(s)

		// Handle utf8 errors; should not happen
		if ch == utf8.RuneError && size == 1 {
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[(s[0]>>4)&0xf])
			b.WriteByte(hexDigits[s[0]&0xf])
			continue
		}

		switch {
		case ch == rune(quote) || ch == '\\':
			b.WriteByte('\\')
			b.WriteByte(byte(ch))
		case ch == '\t':
			b.WriteString(`\t`)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\r':
			b.WriteString(`\r`)
		case !unicode.IsPrint(ch):
			hexEscape(&b, ch)
		default:
			b.WriteRune(ch)
		}
	}

	b.WriteByte(quote)

	return b.String()
}

// hexEscape escapes the character to a hex sequence and writes it to the string builder.
func hexEscape(w *strings.Builder, ch rune) {
	w.WriteByte('\\')

	var n int
	switch {
	case ch <= 0xff: // Map 8-bit characters to '\xhh'
		w.WriteByte('x')
		n = 2
	case ch <= 0xffff: // Map 16-bit characters to '\uxxxx'
		w.WriteByte('u')
		n = 4
	default: // Map 21-bit characters to '\U00xxxxxx'
		w.WriteByte('U')
		n = 8
	}

	for i := n - 1; i >= 0; i-- {
		w.WriteByte(hexDigits[(ch>>(4*i))&0xf])
	}
}

package regex

import (
	"slices"
	"unicode"
	"unicode/utf8"
)

// runeText is a text decoded into runes, as needed by the regexp2 engine.
// Invalid UTF-8 bytes are decoded as utf8.RuneError, like the Go regex engine does.
type runeText struct {
	chars   []rune
	offsets []int // byte offset of each rune and of the end of the text; nil for ASCII text
}

func newRuneText(s string) runeText {
	if isASCIIString(s) { // if the string has only ASCII characters, offsets are not necessary
		return runeText{chars: []rune(s)}
	}

	chars := make([]rune, 0, len(s))
	offsets := make([]int, 0, len(s)+1)

	for i := 0; i < len(s); {
		ch, size := utf8.DecodeRuneInString(s[i:])

		chars = append(chars, ch)
		offsets = append(offsets, i)

		i += size // if the rune is not valid, the size is 1
	}

	offsets = append(offsets, len(s))

	return runeText{chars: chars, offsets: offsets}
}

// runeIndex converts a byte position to the index of the rune, that starts at or after the position.
func (t runeText) runeIndex(pos int) int {
	if t.offsets == nil {
		return pos
	}

	i, _ := slices.BinarySearch(t.offsets, pos)
	return i
}

// byteIndex converts a rune index to a byte position.
func (t runeText) byteIndex(i int) int {
	if t.offsets == nil {
		return i
	}

	return t.offsets[i]
}

// isASCIIString checks, if the string only contains ASCII characters.
func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

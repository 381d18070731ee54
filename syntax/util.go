package syntax

import "unicode"

// isASCIILetter checks if a given character is an ASCII letter.
func isASCIILetter(b rune) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// isDigit checks if the given character is a decimal digit.
func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isOctDigit checks if the given character is an octal digit.
func isOctDigit(c rune) bool {
	return '0' <= c && c <= '7'
}

// octValue returns the value of a string of octal digits.
func octValue(e string) int {
	v := 0
	for _, c := range e {
		v = 8*v + toDigit(c)
	}
	return v
}

// isHexDigit checks if the given character is a hexadecimal digit.
func isHexDigit(c rune) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// toDigit returns the corresponding integer value of a character.
// The character must be a digit in the set "0123456789".
func toDigit(b rune) int {
	return int(b) - '0'
}

// isWhitespace checks if a given character is a whitespace character.
func isWhitespace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// isIdentifier checks, whether name is a valid group name:
// a letter or underscore, followed by letters, digits or underscores.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for i, c := range name {
		if c == '_' || unicode.IsLetter(c) {
			continue
		}
		if i > 0 && unicode.IsDigit(c) {
			continue
		}
		return false
	}

	return true
}

// hasCase reports whether a character has other case variants.
// Literals without case variants never need case-insensitive matching.
func hasCase(c rune) bool {
	return unicode.SimpleFold(c) != c
}

// isFlag determines whether a character is a valid inline flag.
// The characters 'i', 'm', 's' and 'x' are considered as valid inline flags.
func isFlag(c rune) bool {
	return getFlag(c) != 0
}

// getFlag converts a flag character to its corresponding value.
// If the character is invalid for a flag, the function will return 0.
func getFlag(c rune) Flags {
	switch c {
	case 'i':
		return FlagIgnoreCase
	case 'm':
		return FlagMultiline
	case 's':
		return FlagDotAll
	case 'x':
		return FlagVerbose
	default:
		return 0
	}
}

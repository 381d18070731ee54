package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/magnetde/starlark-fancyre/util"
)

// TemplateRule is a part of a replacement template: either literal text or a reference to a group.
type TemplateRule struct {
	Literal string
	Group   int // -1, if the rule is literal text
}

// IsLiteral reports whether the rule is literal text.
func (t TemplateRule) IsLiteral() bool {
	return t.Group < 0
}

// Indexer resolves the group references of a template.
type Indexer interface {
	SubexpIndex(name string) int
	NumSubexp() int
}

// ParseTemplate parses a replacement template like `\1-\g<name>`.
// Adjacent literal text is merged into a single rule.
func ParseTemplate(g Indexer, template string) ([]TemplateRule, error) {
	var s source
	s.init(template)

	var rules []TemplateRule
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			rules = append(rules, TemplateRule{Literal: lit.String(), Group: -1})
			lit.Reset()
		}
	}

	addGroup := func(i, start int) error {
		if i > g.NumSubexp() {
			return s.errorp(fmt.Sprintf("invalid group reference %d", i), start)
		}

		flush()
		rules = append(rules, TemplateRule{Group: i})
		return nil
	}

	for {
		c, ok := s.read()
		if !ok {
			break
		}
		if c != '\\' {
			lit.WriteRune(c)
			continue
		}

		start := s.tell() - 1

		c, ok = s.read()
		if !ok {
			return nil, s.erroro("bad escape (end of pattern)", 1)
		}

		switch c {
		case 'g':
			if !s.match('<') {
				return nil, s.errorh("missing <")
			}

			name, err := s.getUntil('>', "group name")
			if err != nil {
				return nil, err
			}

			i, err := templateGroup(&s, g, name)
			if err != nil {
				return nil, err
			}

			if err := addGroup(i, start+3); err != nil {
				return nil, err
			}
		case '0':
			lit.WriteRune(rune(octValue(s.nextOct(2))))
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			value := toDigit(c)

			if c1, ok := s.peek(); ok && isDigit(c1) {
				s.read()

				if c2, ok := s.peek(); ok && isOctDigit(c) && isOctDigit(c1) && isOctDigit(c2) {
					s.read()

					value = 8*(8*value+toDigit(c1)) + toDigit(c2)
					if value > 0o377 {
						return nil, s.errorp(fmt.Sprintf(`octal escape value \%c%c%c outside of range 0-0o377`, c, c1, c2), start)
					}

					lit.WriteRune(rune(value))
					continue
				}

				value = 10*value + toDigit(c1)
			}

			if err := addGroup(value, start+1); err != nil {
				return nil, err
			}
		default:
			if r, ok := templateEscape(c); ok {
				lit.WriteRune(r)
			} else if isASCIILetter(c) {
				return nil, s.errorp(fmt.Sprintf(`bad escape \%c`, c), start)
			} else {
				lit.WriteByte('\\')
				lit.WriteRune(c)
			}
		}
	}

	flush()
	return rules, nil
}

// templateGroup resolves the group of a `\g<...>` reference, which is either a number or a name.
func templateGroup(s *source, g Indexer, name string) (int, error) {
	offset := len(name) + 1

	if isDigits(name) {
		i, err := strconv.Atoi(name)
		if err != nil || i >= maxGroups {
			return 0, s.erroro(fmt.Sprintf("invalid group reference %s", name), offset)
		}

		return i, nil
	}

	if !isIdentifier(name) {
		return 0, s.erroro("bad character in group name "+util.Repr(name), offset)
	}

	i := g.SubexpIndex(name)
	if i < 0 {
		return 0, fmt.Errorf("unknown group name %s", util.Repr(name))
	}

	return i, nil
}

// templateEscape returns the character of a single letter escape, that is valid in templates.
func templateEscape(c rune) (rune, bool) {
	switch c {
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	case '\\':
		return '\\', true
	default:
		return 0, false
	}
}

// isDigits reports whether the string is a non-empty sequence of decimal digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if !isDigit(c) {
			return false
		}
	}

	return true
}

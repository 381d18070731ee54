package syntax

import (
	"errors"
	"fmt"
	resyntax "regexp/syntax"
	"strings"
	"unicode/utf8"

	"github.com/magnetde/starlark-fancyre/util"
)

// state represents the current parser state.
// It contains the global flags, a mapping of group names to group numbers,
// the number of opened groups and the set of groups referenced by backreferences.
type state struct {
	flags    Flags
	names    map[string]int
	groups   int
	backrefs util.BitSet
}

// init initializes the parser state.
func (st *state) init(flags Flags) {
	st.flags = flags
	st.names = make(map[string]int)
}

// openGroup opens a new group. If the group has no name, the name value may be empty.
// An error is returned if the group name already exists or if the number of groups exceeds the limit.
func (st *state) openGroup(name string) (int, error) {
	if st.groups >= maxGroups {
		return 0, errors.New("too many groups")
	}

	st.groups++
	gid := st.groups

	if name != "" {
		if ogid, ok := st.names[name]; ok {
			return 0, fmt.Errorf("redefinition of group name %s as group %d; was group %d", util.Repr(name), gid, ogid)
		}

		st.names[name] = gid
	}

	return gid, nil
}

// Parse parses a regex pattern into an expression tree.
// Group numbers start at 1; backreferences are recorded, but not validated against the groups,
// since a reference to a group that is not opened yet is detected by the analysis.
func Parse(pattern string, flags Flags) (*Tree, error) {
	var s source
	s.init(pattern)

	var st state
	st.init(flags)

	e, err := parseAlt(&s, &st, flags, 0)
	if err != nil {
		return nil, err
	}

	if _, ok := s.peek(); ok {
		return nil, s.errorh("unbalanced parenthesis")
	}

	t := &Tree{
		Expr:      e,
		Backrefs:  &st.backrefs,
		Names:     st.names,
		NumGroups: st.groups,
		Flags:     st.flags,
	}

	return t, nil
}

// parseAlt parses an alternation: a|b|c
// If the alternation only contains one element, the element is returned.
// Inline flags of one alternative remain active in the following alternatives.
func parseAlt(s *source, st *state, flags Flags, nested int) (*Expr, error) {
	var items []*Expr

	for {
		e, err := parseConcat(s, st, &flags, nested)
		if err != nil {
			return nil, err
		}

		items = append(items, e)

		if !s.match('|') {
			break
		}
	}

	return newSubsNode(OpAlt, items), nil
}

// parseConcat parses a sequence of items, until the end of the pattern, a '|' or a ')' is found.
// Each character of a literal is a separate item.
func parseConcat(s *source, st *state, flags *Flags, nested int) (*Expr, error) {
	var items []*Expr

	repeated := false // the last item is a repetition
	for {
		c, ok := s.peek()
		if !ok || c == '|' || c == ')' {
			break // end of subpattern
		}

		start := s.tell()
		s.read()

		if *flags&FlagVerbose != 0 {
			// skip whitespace and comments
			if isWhitespace(c) {
				continue
			}
			if c == '#' {
				s.skipUntil('\n')
				continue
			}
		}

		var e *Expr
		var err error

		switch c {
		default:
			e = newLiteral(c, caseInsensitive(*flags, c))

		case '\\':
			e, err = parseEscape(s, st, *flags)

		case '[':
			e, err = parseClass(s, *flags, start)

		case '.':
			e = newAny(*flags&FlagDotAll != 0)

		case '^':
			if *flags&FlagMultiline != 0 {
				e = newEmptyNode(OpStartLine)
			} else {
				e = newEmptyNode(OpStartText)
			}

		case '$':
			if *flags&FlagMultiline != 0 {
				e = newEmptyNode(OpEndLine)
			} else {
				e = newEmptyNode(OpEndText)
			}

		case '?', '*', '+', '{':
			min, max, ok, err := parseQuantifier(s, c, start)
			if err != nil {
				return nil, err
			}
			if !ok {
				// not a repetition, e.g. `{` or `{x}`
				items = append(items, newLiteral(c, false))
				repeated = false
				continue
			}

			if len(items) == 0 {
				return nil, s.errorp("nothing to repeat", start)
			}
			if repeated {
				return nil, s.errorp("multiple repeat", start)
			}

			item := items[len(items)-1]

			if s.match('?') {
				// Non-Greedy Match
				item = newRepeat(min, max, false, item)
			} else if s.match('+') {
				// Possessive Match (Always Greedy)
				item = newAtomicGroup(newRepeat(min, max, true, item))
			} else {
				// Greedy Match
				item = newRepeat(min, max, true, item)
			}

			items[len(items)-1] = item
			repeated = true
			continue

		case '(':
			e, err = parseGroup(s, st, flags, nested, start)
			if err == nil && e == nil {
				continue // comment or inline flags
			}
		}

		if err != nil {
			return nil, err
		}

		items = append(items, e)
		repeated = false
	}

	return newSubsNode(OpConcat, items), nil
}

// caseInsensitive reports whether a literal character must be matched case-insensitively.
func caseInsensitive(flags Flags, c rune) bool {
	return flags&FlagIgnoreCase != 0 && hasCase(c)
}

// parseQuantifier parses the bounds of a repetition, after the first character `c` was read.
// If `c` is '{', but no valid bounds follow, the read position is reset and ok is false.
func parseQuantifier(s *source, c rune, start int) (min, max int, ok bool, err error) {
	switch c {
	case '?':
		return 0, 1, true, nil
	case '*':
		return 0, MaxRepeat, true, nil
	case '+':
		return 1, MaxRepeat, true, nil
	}

	here := s.tell()

	lo, hasLo, err := s.nextInt()
	if err != nil {
		return 0, 0, false, err
	}

	hi, hasHi := lo, hasLo
	if s.match(',') {
		hi, hasHi, err = s.nextInt()
		if err != nil {
			return 0, 0, false, err
		}
	} else if !hasLo {
		s.seek(here)
		return 0, 0, false, nil
	}

	if !s.match('}') {
		s.seek(here)
		return 0, 0, false, nil
	}

	if hasLo {
		min = lo
		if min > maxRepeatCount {
			return 0, 0, false, s.errorp("the repetition number is too large", start)
		}
	}

	if hasHi {
		max = hi
		if max > maxRepeatCount {
			return 0, 0, false, s.errorp("the repetition number is too large", start)
		}
		if max < min {
			return 0, 0, false, s.errorp("min repeat greater than max repeat", start)
		}
	} else {
		max = MaxRepeat
	}

	return min, max, true, nil
}

// groupKind is the kind of a parenthesized expression.
type groupKind int

const (
	groupCapture groupKind = iota
	groupPlain             // non-capturing group, possibly with scoped flags
	groupLook
	groupAtomic
)

// parseGroup parses a parenthesized expression after the '(' was read.
// A nil expression without error is returned for comments and for inline flags without a subpattern,
// which change the flags of the remaining enclosing group.
func parseGroup(s *source, st *state, flags *Flags, nested int, start int) (*Expr, error) {
	kind := groupCapture
	look := LookAhead
	name := ""
	subFlags := *flags

	var err error

	if s.match('?') {
		// options
		char, ok := s.read()
		if !ok {
			return nil, s.errorh("unexpected end of pattern")
		}

		switch char {
		case 'P':
			// python extensions
			if s.match('<') {
				// named group: skip forward to end of name
				name, err = parseGroupName(s, '>')
				if err != nil {
					return nil, err
				}
			} else if s.match('=') {
				// named backreference
				name, err = parseGroupName(s, ')')
				if err != nil {
					return nil, err
				}

				return backrefByName(s, st, name, *flags)
			} else {
				char, ok = s.read()
				if !ok {
					return nil, s.errorh("unexpected end of pattern")
				}

				return nil, s.erroro(fmt.Sprintf("unknown extension ?P%c", char), clen(char)+2)
			}
		case '<':
			if s.match('=') {
				kind, look = groupLook, LookBehind
			} else if s.match('!') {
				kind, look = groupLook, LookBehindNeg
			} else {
				name, err = parseGroupName(s, '>')
				if err != nil {
					return nil, err
				}
			}
		case '=':
			kind, look = groupLook, LookAhead
		case '!':
			kind, look = groupLook, LookAheadNeg
		case '>':
			kind = groupAtomic
		case ':':
			kind = groupPlain
		case '#':
			// comment
			if !s.skipUntil(')') {
				return nil, s.errorp("missing ), unterminated comment", start)
			}

			return nil, nil
		default:
			if !isFlag(char) && char != '-' {
				return nil, s.erroro(fmt.Sprintf("unknown extension ?%c", char), clen(char)+1)
			}

			addFlags, delFlags, scoped, err := parseFlags(s, char)
			if err != nil {
				return nil, err
			}

			if !scoped {
				*flags |= addFlags
				if nested == 0 {
					st.flags |= addFlags
				}

				return nil, nil
			}

			subFlags = (subFlags | addFlags) &^ delFlags
			kind = groupPlain
		}
	}

	// parse group contents

	group := -1
	if kind == groupCapture {
		group, err = st.openGroup(name)
		if err != nil {
			return nil, s.erroro(err.Error(), len(name)+1)
		}
	}

	p, err := parseAlt(s, st, subFlags, nested+1)
	if err != nil {
		return nil, err
	}

	if !s.match(')') {
		return nil, s.errorp("missing ), unterminated subpattern", start)
	}

	switch kind {
	case groupCapture:
		return newGroup(group, name, p), nil
	case groupLook:
		return newLookAround(look, p), nil
	case groupAtomic:
		return newAtomicGroup(p), nil
	default:
		return p, nil
	}
}

// parseGroupName reads a group name, terminated by `end`, and validates it.
func parseGroupName(s *source, end rune) (string, error) {
	name, err := s.getUntil(end, "group name")
	if err != nil {
		return "", err
	}

	if !isIdentifier(name) {
		return "", s.erroro("bad character in group name "+util.Repr(name), len(name)+1)
	}

	return name, nil
}

// backrefByName creates a backreference to a named group.
// The group must be defined before the reference.
func backrefByName(s *source, st *state, name string, flags Flags) (*Expr, error) {
	gid, ok := st.names[name]
	if !ok {
		return nil, s.erroro(fmt.Sprintf("unknown group name %s", util.Repr(name)), len(name)+1)
	}

	st.backrefs.Add(gid)
	return newBackref(gid, flags&FlagIgnoreCase != 0), nil
}

// parseFlags parses the inline flags of a group, after the first flag character `char` was read.
// If the flags are terminated by ')', they apply to the rest of the enclosing group and `scoped` is false.
// An error is returned, if unknown flags were found or a flag is turned on and off at once.
func parseFlags(s *source, char rune) (addFlags, delFlags Flags, scoped bool, err error) {
	var ok bool

	if char != '-' {
		for {
			addFlags |= getFlag(char)

			char, ok = s.read()
			if !ok {
				err = s.errorh("missing -, : or )")
				return
			}

			if char == ')' || char == '-' || char == ':' {
				break
			}

			if !isFlag(char) {
				if isASCIILetter(char) {
					err = s.erroro("unknown flag", clen(char))
					return
				}

				err = s.erroro("missing -, : or )", clen(char))
				return
			}
		}
	}

	if char == ')' {
		return
	}

	if char == '-' {
		char, ok = s.read()
		if !ok {
			err = s.errorh("missing flag")
			return
		}

		for {
			if !isFlag(char) {
				if isASCIILetter(char) {
					err = s.erroro("unknown flag", clen(char))
					return
				}

				err = s.erroro("missing flag", clen(char))
				return
			}

			delFlags |= getFlag(char)

			char, ok = s.read()
			if !ok {
				err = s.errorh("missing :")
				return
			}

			if char == ':' {
				break
			}
		}
	}

	if addFlags&delFlags != 0 {
		err = s.erroro("bad inline flags: flag turned on and off", 1)
		return
	}

	scoped = true
	return
}

// parseEscape parses an escape sequence.
// This function is only called if the last character was a backslash.
func parseEscape(s *source, st *state, flags Flags) (*Expr, error) {
	start := s.tell() - 1

	c, ok := s.read()
	if !ok {
		return nil, s.erroro("bad escape (end of pattern)", 1)
	}

	switch c {
	// positions
	case 'A':
		return newEmptyNode(OpStartText), nil
	case 'z':
		return newEmptyNode(OpEndText), nil
	case 'b', 'B':
		return newDelegate(`\`+string(c), 0, false), nil

	// categories
	case 'd', 'D', 's', 'S', 'w', 'W':
		return newDelegate(`\`+string(c), 1, false), nil

	// escapes
	case 'a':
		return newLiteral('\a', false), nil
	case 'e':
		return newLiteral('\x1b', false), nil
	case 'f':
		return newLiteral('\f', false), nil
	case 'n':
		return newLiteral('\n', false), nil
	case 'r':
		return newLiteral('\r', false), nil
	case 't':
		return newLiteral('\t', false), nil
	case 'v':
		return newLiteral('\v', false), nil
	case 'x':
		r, err := parseHex(s, start)
		if err != nil {
			return nil, err
		}

		return newLiteral(r, caseInsensitive(flags, r)), nil

	// backreferences
	case 'k':
		if !s.match('<') {
			return nil, s.errorh("missing <")
		}

		name, err := parseGroupName(s, '>')
		if err != nil {
			return nil, err
		}

		return backrefByName(s, st, name, flags)
	case '0':
		// octal escape; a single zero refers to the whole match and is rejected later
		e := s.nextOct(2)
		if e == "" {
			st.backrefs.Add(0)
			return newBackref(0, flags&FlagIgnoreCase != 0), nil
		}

		r := rune(octValue(e))
		return newLiteral(r, caseInsensitive(flags, r)), nil
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// octal escape of three digits, else a group reference of up to two digits
		value := toDigit(c)
		if c1, ok := s.peek(); ok && isDigit(c1) {
			s.read()

			if c2, ok := s.peek(); ok && isOctDigit(c) && isOctDigit(c1) && isOctDigit(c2) {
				s.read()

				value = 8*(8*value+toDigit(c1)) + toDigit(c2)
				if value > 0o377 {
					return nil, s.errorp(fmt.Sprintf(`octal escape value \%c%c%c outside of range 0-0o377`, c, c1, c2), start)
				}

				r := rune(value)
				return newLiteral(r, caseInsensitive(flags, r)), nil
			}

			value = 10*value + toDigit(c1)
		}

		st.backrefs.Add(value)
		return newBackref(value, flags&FlagIgnoreCase != 0), nil

	default:
		if !isASCIILetter(c) {
			return newLiteral(c, caseInsensitive(flags, c)), nil
		}
	}

	return nil, s.errorp(fmt.Sprintf(`bad escape \%c`, c), start)
}

// parseHex parses a hexadecimal escape, either `\xhh` or `\x{h...}`, after the 'x' was read.
func parseHex(s *source, start int) (rune, error) {
	var e string
	if s.match('{') {
		e = s.nextHex(8)
		if e == "" || !s.match('}') {
			return 0, s.errorp(`bad escape \x{`, start)
		}
	} else {
		e = s.nextHex(2)
		if len(e) != 2 {
			return 0, s.errorp(fmt.Sprintf(`incomplete escape \x%s`, e), start)
		}
	}

	var r rune
	for _, c := range e {
		r = 16*r + rune(hexValue(c))
	}

	if !utf8.ValidRune(r) {
		return 0, s.errorp(fmt.Sprintf(`bad escape \x%s`, e), start)
	}

	return r, nil
}

// hexValue returns the value of a hexadecimal digit.
func hexValue(c rune) int {
	switch {
	case isDigit(c):
		return toDigit(c)
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

// parseClass parses a character set `[...]` after the '[' was read.
// The set is not interpreted, but delegated to the regex engine as an atom of size 1.
// The syntax of the set is validated with the syntax of the Go regex engine.
func parseClass(s *source, flags Flags, start int) (*Expr, error) {
	s.match('^')

	first := true
	for {
		c, ok := s.read()
		if !ok {
			return nil, s.errorp("unterminated character set", start)
		}

		if c == ']' && !first {
			break
		}

		switch c {
		case '\\':
			if _, ok = s.read(); !ok {
				return nil, s.errorp("unterminated character set", start)
			}
		case '[':
			// POSIX class like `[:alpha:]`
			if s.match(':') {
				if i := strings.Index(s.orig[s.tell():], ":]"); i >= 0 {
					s.seek(s.tell() + i + 2)
				}
			}
		}

		first = false
	}

	text := s.orig[start:s.tell()]

	if _, err := resyntax.Parse(text, resyntax.Perl); err != nil {
		msg := "bad character set"

		var e *resyntax.Error
		if errors.As(err, &e) {
			msg = fmt.Sprintf("%s %s: %s", msg, util.Repr(text), e.Code)
		}

		return nil, s.errorp(msg, start)
	}

	return newDelegate(text, 1, flags&FlagIgnoreCase != 0), nil
}

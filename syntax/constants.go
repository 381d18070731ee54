package syntax

import (
	"math"
	"strconv"
)

// Flags are the options of a pattern.
// The values are the same as those of the Python "re" module, so they can be passed through unchanged.
// See also https://docs.python.org/3/library/re.html#flags.
type Flags uint32

const (
	_                Flags = 1 << iota // TEMPLATE; unused
	FlagIgnoreCase                     // case-insensitive matching; `(?i)`
	_                                  // LOCALE; unsupported
	FlagMultiline                      // `^` and `$` match at line boundaries; `(?m)`
	FlagDotAll                         // `.` matches a newline; `(?s)`
	_                                  // UNICODE; always enabled
	FlagVerbose                        // whitespace and comments are ignored; `(?x)`
	FlagDebug                          // print the annotated pattern after compiling

	// inlineFlags are the flags, that may appear inside a pattern.
	inlineFlags = FlagIgnoreCase | FlagMultiline | FlagDotAll | FlagVerbose
)

const (
	// MaxRepeat is used as the upper bound of an unbounded repetition.
	MaxRepeat = math.MaxInt

	// maxRepeatCount is the largest count allowed in `{m,n}`.
	maxRepeatCount = 1000

	// maxGroups is the maximum number of capturing groups of a pattern.
	maxGroups = 1 << 16
)

// Op is the kind of an expression node.
type Op uint8

// Expression kinds.
// The following kinds exist (ordered by value):
//
//   - EMPTY: matches the empty string; `(?:)`
//   - START_TEXT: beginning of the text; `\A`, or `^` without MULTILINE
//   - END_TEXT: end of the text; `\z`, or `$` without MULTILINE
//   - START_LINE: beginning of a line; `^` with MULTILINE
//   - END_LINE: end of a line; `$` with MULTILINE
//   - ANY: any character; `.`
//   - LITERAL: a single literal character
//   - CONCAT: a sequence of expressions
//   - ALT: alternatives, tried in order; `|`
//   - GROUP: capturing group; `(...)`
//   - LOOK_AROUND: lookahead or lookbehind assertion; `(?=...)`, `(?!...)`, `(?<=...)`, `(?<!...)`
//   - REPEAT: repetition; `?`, `*`, `+`, `{...}`
//   - DELEGATE: atom with a fixed size, matched by the underlying engine; `[...]`, `\d`, `\b`
//   - BACKREF: backreference to a previous group; `\1`, `\k<name>`, `(?P=name)`
//   - ATOMIC_GROUP: group without backtracking; `(?>...)`, and possessive repetitions
const (
	OpEmpty       Op = iota // EMPTY
	OpStartText             // START_TEXT
	OpEndText               // END_TEXT
	OpStartLine             // START_LINE
	OpEndLine               // END_LINE
	OpAny                   // ANY
	OpLiteral               // LITERAL
	OpConcat                // CONCAT
	OpAlt                   // ALT
	OpGroup                 // GROUP
	OpLookAround            // LOOK_AROUND
	OpRepeat                // REPEAT
	OpDelegate              // DELEGATE
	OpBackref               // BACKREF
	OpAtomicGroup           // ATOMIC_GROUP
)

var opNames = [...]string{
	OpEmpty:       "EMPTY",
	OpStartText:   "START_TEXT",
	OpEndText:     "END_TEXT",
	OpStartLine:   "START_LINE",
	OpEndLine:     "END_LINE",
	OpAny:         "ANY",
	OpLiteral:     "LITERAL",
	OpConcat:      "CONCAT",
	OpAlt:         "ALT",
	OpGroup:       "GROUP",
	OpLookAround:  "LOOK_AROUND",
	OpRepeat:      "REPEAT",
	OpDelegate:    "DELEGATE",
	OpBackref:     "BACKREF",
	OpAtomicGroup: "ATOMIC_GROUP",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// LookKind is the direction and polarity of a lookaround assertion.
type LookKind uint8

const (
	LookAhead     LookKind = iota // `(?=...)`
	LookAheadNeg                  // `(?!...)`
	LookBehind                    // `(?<=...)`
	LookBehindNeg                 // `(?<!...)`
)

// Behind reports whether the assertion looks to the left of the current position.
func (k LookKind) Behind() bool {
	return k == LookBehind || k == LookBehindNeg
}

// Negative reports whether the assertion is negated.
func (k LookKind) Negative() bool {
	return k == LookAheadNeg || k == LookBehindNeg
}

var lookNames = [...]string{
	LookAhead:     "AHEAD",
	LookAheadNeg:  "AHEAD_NOT",
	LookBehind:    "BEHIND",
	LookBehindNeg: "BEHIND_NOT",
}

func (k LookKind) String() string {
	if int(k) < len(lookNames) {
		return lookNames[k]
	}
	return "LookKind(" + strconv.Itoa(int(k)) + ")"
}

// prefix returns the opening of the assertion.
func (k LookKind) prefix() string {
	switch k {
	case LookAheadNeg:
		return "(?!"
	case LookBehind:
		return "(?<="
	case LookBehindNeg:
		return "(?<!"
	default:
		return "(?="
	}
}

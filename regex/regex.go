// Package regex compiles patterns into one of three execution strategies,
// chosen from the analysis of the pattern:
// a substring search for literals, the Go regex engine for patterns without backtracking features,
// and the regexp2 engine for everything else.
package regex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/magnetde/starlark-fancyre/analysis"
	"github.com/magnetde/starlark-fancyre/syntax"
)

// Strategy is the way, a compiled pattern is executed.
type Strategy uint8

const (
	StrategyLiteral   Strategy = iota // substring search
	StrategyAutomaton                 // Go regex engine
	StrategyBacktrack                 // regexp2 engine
)

func (s Strategy) String() string {
	switch s {
	case StrategyLiteral:
		return "literal"
	case StrategyAutomaton:
		return "automaton"
	case StrategyBacktrack:
		return "backtrack"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Options configure the compilation of a pattern.
type Options struct {
	// MatchTimeout limits the duration of a single search of the regexp2 engine.
	// A value of zero means no limit.
	MatchTimeout time.Duration
}

// Regexp is a compiled pattern.
// It is safe for concurrent use by multiple goroutines.
type Regexp struct {
	pattern string
	flags   syntax.Flags
	opts    Options

	tree  *syntax.Tree
	info  *analysis.Info // analysis of the pattern, wrapped into group 0
	names []string

	main *engine

	fullOnce sync.Once
	full     *engine // anchored at the end of the text; compiled on first use
	fullErr  error
}

// Compile parses and analyzes a pattern and returns the compiled pattern.
func Compile(pattern string, flags syntax.Flags) (*Regexp, error) {
	return CompileOptions(pattern, flags, Options{})
}

// CompileOptions is like Compile, but also accepts options.
func CompileOptions(pattern string, flags syntax.Flags, opts Options) (*Regexp, error) {
	tree, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, err
	}

	// group 0 is the whole match and can never be referenced from inside
	if tree.Backrefs.Contains(0) {
		return nil, analysis.ErrInvalidBackref
	}

	info, err := analysis.Analyze(syntax.Wrap(tree.Expr), tree.Backrefs)
	if err != nil {
		return nil, err
	}

	e, err := newEngine(tree.Expr, info, opts)
	if err != nil {
		return nil, err
	}

	names := make([]string, 1+tree.NumGroups)
	for name, i := range tree.Names {
		names[i] = name
	}

	re := &Regexp{
		pattern: pattern,
		flags:   tree.Flags,
		opts:    opts,
		tree:    tree,
		info:    info,
		names:   names,
		main:    e,
	}

	return re, nil
}

// MustCompile is like Compile but panics if the pattern cannot be compiled.
func MustCompile(pattern string, flags syntax.Flags) *Regexp {
	re, err := Compile(pattern, flags)
	if err != nil {
		panic(`regex: Compile(` + quote(pattern) + `): ` + err.Error())
	}
	return re
}

func quote(s string) string {
	if strings.ContainsRune(s, '`') {
		return fmt.Sprintf("%q", s)
	}
	return "`" + s + "`"
}

// String returns the source text of the pattern.
func (re *Regexp) String() string { return re.pattern }

// Flags returns the flags of the pattern, including global inline flags.
func (re *Regexp) Flags() syntax.Flags { return re.flags }

// Strategy returns the strategy used to execute the pattern.
func (re *Regexp) Strategy() Strategy { return re.main.strategy }

// Analysis returns the analysis of the pattern. The root is the group 0 around the whole pattern.
// The result must not be modified.
func (re *Regexp) Analysis() *analysis.Info { return re.info }

// Hard reports whether the pattern needs the backtracking engine.
func (re *Regexp) Hard() bool { return re.info.Hard }

// MinSize returns the minimum number of characters of a match.
func (re *Regexp) MinSize() int { return re.info.MinSize }

// Literal returns the text matched by the pattern, if the pattern is a literal.
func (re *Regexp) Literal() (string, bool) { return re.info.Children[0].Literal() }

// NumSubexp returns the number of capturing groups.
func (re *Regexp) NumSubexp() int { return re.tree.NumGroups }

// SubexpNames returns the names of the capturing groups.
// The name of the first element (group 0) and of unnamed groups is the empty string.
func (re *Regexp) SubexpNames() []string { return re.names }

// SubexpIndex returns the index of the group with the given name, or -1 if there is no such group.
func (re *Regexp) SubexpIndex(name string) int {
	if i, ok := re.tree.Names[name]; ok {
		return i
	}
	return -1
}

// Find returns the leftmost match in `s`, starting the search at byte position `pos`.
// The result contains the byte offsets of the match and of all groups, like `regexp.FindStringSubmatchIndex`;
// positions of groups, that did not participate in the match, are -1.
// Text left of `pos` is still visible to assertions like `^` or `\b`.
// If there is no match, nil is returned.
func (re *Regexp) Find(s string, pos int) ([]int, error) {
	if pos < 0 || pos > len(s) {
		return nil, nil
	}

	return re.main.find(s, pos)
}

// FindFull returns a match, that starts at `pos` and ends at the end of `s`.
// Other than checking the bounds of the leftmost match, this also finds matches
// that are not preferred by the regex engine, e.g. "ab" for "a|ab".
func (re *Regexp) FindFull(s string, pos int) ([]int, error) {
	if pos < 0 || pos > len(s) {
		return nil, nil
	}

	re.fullOnce.Do(func() {
		expr := &syntax.Expr{
			Op:   syntax.OpConcat,
			Subs: []*syntax.Expr{re.tree.Expr, {Op: syntax.OpEndText}},
		}

		var info *analysis.Info
		info, re.fullErr = analysis.Analyze(syntax.Wrap(expr), re.tree.Backrefs)
		if re.fullErr != nil {
			return
		}

		re.full, re.fullErr = newEngine(expr, info, re.opts)
	})
	if re.fullErr != nil {
		return nil, re.fullErr
	}

	a, err := re.full.find(s, pos)
	if err != nil || a == nil || a[0] != pos {
		return nil, err
	}

	return a, nil
}

// MatchString reports whether `s` contains any match of the pattern.
func (re *Regexp) MatchString(s string) (bool, error) {
	a, err := re.Find(s, 0)
	return a != nil, err
}

// FindAll returns at most `n` successive, non-overlapping matches, starting the search at `pos`.
// If `n` is negative, all matches are returned.
// Empty matches are included, also right after a previous match.
func (re *Regexp) FindAll(s string, pos, n int) ([][]int, error) {
	if n < 0 {
		n = len(s) + 1
	}

	var result [][]int
	for len(result) < n && pos <= len(s) {
		a, err := re.Find(s, pos)
		if err != nil {
			return nil, err
		}
		if a == nil {
			break
		}

		result = append(result, a)

		// advance past this match; always advance at least one character
		if a[1] > a[0] {
			pos = a[1]
		} else if _, width := utf8.DecodeRuneInString(s[a[1]:]); width > 0 {
			pos = a[1] + width
		} else {
			pos = a[1] + 1
		}
	}

	return result, nil
}

// engine executes a single expression with one strategy.
type engine struct {
	strategy  Strategy
	literal   string
	looksLeft bool
	ncap      int // number of positions of a match, including group 0
	source    string
	timeout   time.Duration

	std  *regexp.Regexp
	back *regexp2.Regexp

	fallbackOnce sync.Once
	fallback     *regexp2.Regexp // used by the automaton strategy, if the left context is needed
	fallbackErr  error
}

// newEngine compiles the expression `e`, whose analysis (including group 0) is `info`.
func newEngine(e *syntax.Expr, info *analysis.Info, opts Options) (*engine, error) {
	en := &engine{
		looksLeft: info.LooksLeft,
		ncap:      2 * info.EndGroup,
		source:    e.String(),
		timeout:   opts.MatchTimeout,
	}

	var err error

	if lit, ok := info.Children[0].Literal(); ok {
		en.strategy = StrategyLiteral
		en.literal = lit
	} else if !info.Hard {
		en.strategy = StrategyAutomaton
		en.std, err = regexp.Compile(en.source)

		// the Go engine limits the size of repetitions, regexp2 does not
		if err != nil {
			if back, err2 := compileBacktrack(en.source, opts); err2 == nil {
				en.strategy = StrategyBacktrack
				en.std, en.back, err = nil, back, nil
			}
		}
	} else {
		en.strategy = StrategyBacktrack
		en.back, err = compileBacktrack(en.source, opts)
	}
	if err != nil {
		return nil, compileError(err)
	}

	return en, nil
}

// compileBacktrack compiles a printed expression for the regexp2 engine.
// All flags are part of the printed expression, so no engine options other than RE2 compatibility are needed.
func compileBacktrack(source string, opts Options) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(source, regexp2.RE2)
	if err != nil {
		return nil, err
	}

	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}

	return re, nil
}

// compileError removes the prefix of the Go regex engine from an error.
func compileError(err error) error {
	if e, ok := strings.CutPrefix(err.Error(), "error parsing regexp: "); ok {
		return errors.New(e)
	}
	return err
}

func (en *engine) find(s string, pos int) ([]int, error) {
	switch en.strategy {
	case StrategyLiteral:
		i := strings.Index(s[pos:], en.literal)
		if i < 0 {
			return nil, nil
		}

		a := en.pad([]int{pos + i, pos + i + len(en.literal)})
		return a, nil

	case StrategyAutomaton:
		if pos == 0 || !en.looksLeft {
			return en.findStd(s, pos), nil
		}

		// slicing the text would hide the left context from `^` or `\b`
		en.fallbackOnce.Do(func() {
			en.fallback, en.fallbackErr = compileBacktrack(en.source, Options{MatchTimeout: en.timeout})
		})
		if en.fallbackErr != nil {
			return nil, en.fallbackErr
		}

		return en.findBacktrack(en.fallback, s, pos)

	default:
		return en.findBacktrack(en.back, s, pos)
	}
}

// findStd searches the text right of `pos` with the Go regex engine.
func (en *engine) findStd(s string, pos int) []int {
	a := en.std.FindStringSubmatchIndex(s[pos:])
	if a == nil {
		return nil
	}

	for i, v := range a {
		if v >= 0 {
			a[i] = v + pos
		}
	}

	return en.pad(a)
}

// findBacktrack searches the text with the regexp2 engine, which works on runes instead of bytes.
func (en *engine) findBacktrack(re *regexp2.Regexp, s string, pos int) ([]int, error) {
	t := newRuneText(s)

	m, err := re.FindRunesMatchStartingAt(t.chars, t.runeIndex(pos))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	a := en.pad(nil)
	for i, g := range m.Groups() {
		if 2*i+1 >= len(a) || len(g.Captures) == 0 {
			continue
		}

		a[2*i] = t.byteIndex(g.Index)
		a[2*i+1] = t.byteIndex(g.Index + g.Length)
	}

	return a, nil
}

// pad extends a match to the positions of all groups.
func (en *engine) pad(a []int) []int {
	for len(a) < en.ncap {
		a = append(a, -1)
	}
	return a
}

// Package re provides a Starlark module for regular expressions with backreferences,
// lookaround assertions and atomic groups.
// Each pattern is analyzed once and executed with the cheapest suitable strategy:
// a substring search, the Go regex engine or the backtracking regexp2 engine.
package re

import (
	"container/list"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"go.starlark.net/starlark"

	"github.com/magnetde/starlark-fancyre/regex"
	"github.com/magnetde/starlark-fancyre/syntax"
)

const (
	// Maximum cache size; 32 should be more than enough, because Starlark scripts stay relatively small.
	maxRegexpCacheSize = 32

	// Maximum possible value of a position.
	// Should be used as the default value of `endpos`, because the position parameters always gets clamped.
	// See also `clamp()`.
	posMax = math.MaxInt

	// supportedFlags are the flags, that can be passed to the module functions.
	supportedFlags = syntax.FlagIgnoreCase | syntax.FlagMultiline | syntax.FlagDotAll | syntax.FlagVerbose | syntax.FlagDebug
)

var zeroInt = starlark.MakeInt(0)

// Module is a module type used for the re module.
// A new type is implemented instead of using the previous `starlarkstruct.Module` type,
// since the module contains a LRU cache for compiled regexps.
// The cache is implemented with a map and a linked list.
// When the cache exceeds the maximum size, the oldest used element is purged.
type Module struct {
	members starlark.StringDict
	opts    regex.Options

	mu    sync.Mutex
	list  *list.List                 // Least recent used regexps
	cache map[cacheKey]*list.Element // Mapping of patterns to list elements
}

// cacheKey is a type, that is used for cache key, containing the pattern and the flags.
type cacheKey struct {
	pattern string
	flags   syntax.Flags
}

// Is necessary, because each list element needs to store the key in the map.
type cacheValue struct {
	pattern *Pattern
	key     cacheKey
}

// NewModule creates a new re module.
func NewModule() *Module {
	return NewModuleOptions(regex.Options{})
}

// NewModuleOptions creates a new re module, that compiles all patterns with the given options.
func NewModuleOptions(opts regex.Options) *Module {
	members := starlark.StringDict{
		"DEBUG":      flagValue(syntax.FlagDebug),
		"I":          flagValue(syntax.FlagIgnoreCase),
		"IGNORECASE": flagValue(syntax.FlagIgnoreCase),
		"M":          flagValue(syntax.FlagMultiline),
		"MULTILINE":  flagValue(syntax.FlagMultiline),
		"NOFLAG":     zeroInt,
		"S":          flagValue(syntax.FlagDotAll),
		"DOTALL":     flagValue(syntax.FlagDotAll),
		"X":          flagValue(syntax.FlagVerbose),
		"VERBOSE":    flagValue(syntax.FlagVerbose),

		"compile": starlark.NewBuiltin("compile", reCompile),
		"purge":   starlark.NewBuiltin("purge", rePurge),

		"search":    starlark.NewBuiltin("search", reSearch),
		"match":     starlark.NewBuiltin("match", reMatch),
		"fullmatch": starlark.NewBuiltin("fullmatch", reFullmatch),
		"findall":   starlark.NewBuiltin("findall", reFindall),
		"split":     starlark.NewBuiltin("split", reSplit),
		"sub":       starlark.NewBuiltin("sub", reSub),
		"subn":      starlark.NewBuiltin("subn", reSub),
		"escape":    starlark.NewBuiltin("escape", reEscape),
	}

	m := Module{
		members: members,
		opts:    opts,
		list:    list.New(),
		cache:   make(map[cacheKey]*list.Element),
	}

	return &m
}

func flagValue(f syntax.Flags) starlark.Int {
	return starlark.MakeUint64(uint64(f))
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value    = (*Module)(nil)
	_ starlark.HasAttrs = (*Module)(nil)
)

func (m *Module) Freeze()               { m.members.Freeze() }
func (m *Module) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", m.Type()) }
func (m *Module) String() string        { return "<module re>" }
func (m *Module) Truth() starlark.Bool  { return true }
func (m *Module) Type() string          { return "module" }

func (m *Module) Attr(name string) (starlark.Value, error) {
	if v, ok := m.members[name]; ok {
		if b, ok := v.(*starlark.Builtin); ok {
			return b.BindReceiver(m), nil
		}

		return v, nil
	}

	return nil, nil
}

func (m *Module) AttrNames() []string { return m.members.Keys() }

// compile compiles a regex pattern. If the pattern is already in the cache,
// the compiled pattern is returned from the cache.
// Else, the pattern is compiled and then added to the cache.
// If the cache exceeds a certain size (`maxRegexpCacheSize`), the oldest element is purged from the cache.
// Patterns compiled with the DEBUG flag are never cached, so the annotated tree is printed every time.
func (m *Module) compile(thread *starlark.Thread, pattern string, flags syntax.Flags) (*Pattern, error) {
	if flags&^supportedFlags != 0 {
		return nil, fmt.Errorf("unsupported flags 0x%x", uint32(flags&^supportedFlags))
	}

	if flags&syntax.FlagDebug != 0 {
		p, err := newPattern(pattern, flags, m.opts)
		if err != nil {
			return nil, err
		}

		printDebug(thread, p)
		return p, nil
	}

	key := cacheKey{pattern, flags}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cache[key]; ok { // pattern found in the cache
		m.list.MoveToFront(e) // "refresh" the pattern in the linked list
		return e.Value.(*cacheValue).pattern, nil
	}

	// purge elements, if the size exceeds a certain threshold
	if m.list.Len() >= maxRegexpCacheSize {
		last := m.list.Back() // determine the oldest element

		delete(m.cache, last.Value.(*cacheValue).key)
		m.list.Remove(last)
	}

	p, err := newPattern(pattern, flags, m.opts)
	if err != nil {
		return nil, err
	}

	m.cache[key] = m.list.PushFront(&cacheValue{
		pattern: p,
		key:     key,
	})

	return p, nil
}

// purge clears the regex cache.
func (m *Module) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.list.Init()
	clear(m.cache)
}

// cacheLen returns the number of cached patterns.
func (m *Module) cacheLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.list.Len()
}

// printDebug prints the annotated tree of a pattern and its strategy.
func printDebug(thread *starlark.Thread, p *Pattern) {
	var b strings.Builder
	b.WriteString(p.re.Analysis().Dump())
	b.WriteString("STRATEGY ")
	b.WriteString(p.re.Strategy().String())

	msg := b.String()
	if thread != nil && thread.Print != nil {
		thread.Print(thread, msg)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
}

// reCompile precompiles a regex string into a pattern object,
// which can be used for matching using its `search`, `match` and other methods.
// Because all member functions of the `re` module cache compiled patterns,
// this function is only necessary, if the number of regexes exceeds the maximum cache size (`maxRegexpCacheSize`).
func reCompile(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "flags?", &flags); err != nil {
		return nil, err
	}

	return compilePattern(thread, b, pattern, flags)
}

// patternParam is a Starlark type, representing the possible types of the pattern parameter.
type patternParam struct {
	compiled *Pattern
	raw      string
}

var _ starlark.Unpacker = (*patternParam)(nil)

func (p *patternParam) Unpack(v starlark.Value) error {
	switch t := v.(type) {
	case *Pattern:
		p.compiled = t
	case starlark.String:
		p.raw = string(t)
	default:
		return errors.New("first argument must be string or compiled pattern")
	}

	return nil
}

// flagsParam is the flags parameter; negative values are rejected.
type flagsParam syntax.Flags

var _ starlark.Unpacker = (*flagsParam)(nil)

func (f *flagsParam) Unpack(v starlark.Value) error {
	i, ok := v.(starlark.Int)
	if !ok {
		return fmt.Errorf("got %s, want int", v.Type())
	}

	u, ok := i.Uint64()
	if !ok || u > math.MaxUint32 {
		return fmt.Errorf("invalid flags %s", i)
	}

	*f = flagsParam(u)
	return nil
}

// rePurge clears the regular expression cache.
func rePurge(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Module)
	m.purge()

	return starlark.None, nil
}

// reSearch scans through the string looking for the first location where the regular expression pattern produces a match,
// and returns a corresponding `Match`. Returns `None` if no position in the string matches the pattern.
func reSearch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		str     string
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &str, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return regexpSearch(p, str, 0, posMax)
}

// regexpSearch - see `reSearch`.
func regexpSearch(p *Pattern, str string, pos, endpos int) (starlark.Value, error) {
	pos, endpos = clampParams(len(str), pos, endpos)

	a, err := p.re.Find(str[:endpos], pos)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return starlark.None, nil
	}

	return newMatch(p, str, a, pos, endpos), nil
}

// clampParams clamps the parameters `pos` and `endpos` in range [0, n], where n is the length of the string.
// If `endpos` is less than `pos`, no match is found.
func clampParams(n, pos, endpos int) (int, int) {
	return clamp(pos, n), clamp(endpos, n)
}

// clamp clamps `pos` between 0 and `length`.
func clamp(pos, length int) int {
	return min(max(pos, 0), length)
}

// reMatch tries to apply the pattern at the start of the string, returning a corresponding `Match`.
// Returns `None` if the string does not match the pattern.
func reMatch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		str     string
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &str, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return regexpMatch(p, str, 0, posMax)
}

// regexpMatch - see `reMatch`.
func regexpMatch(p *Pattern, str string, pos, endpos int) (starlark.Value, error) {
	pos, endpos = clampParams(len(str), pos, endpos)

	// the leftmost match starts at `pos`, if any match starts there
	a, err := p.re.Find(str[:endpos], pos)
	if err != nil {
		return nil, err
	}
	if a == nil || a[0] != pos {
		return starlark.None, nil
	}

	return newMatch(p, str, a, pos, endpos), nil
}

// reFullmatch returns a corresponding `Match`, if the whole string matches the regular expression pattern.
// This function returns `None` if the string does not match the pattern.
func reFullmatch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		str     string
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &str, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return regexpFullmatch(p, str, 0, posMax)
}

// regexpFullmatch - see `reFullmatch`.
func regexpFullmatch(p *Pattern, str string, pos, endpos int) (starlark.Value, error) {
	pos, endpos = clampParams(len(str), pos, endpos)

	a, err := p.re.FindFull(str[:endpos], pos)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return starlark.None, nil
	}

	return newMatch(p, str, a, pos, endpos), nil
}

// reFindall returns all non-overlapping matches of pattern in string, as a list of strings or tuples.
// The string is scanned left-to-right, and matches are returned in the order found.
// If one or more groups are present in the pattern, return a list of groups;
// this will be a list of tuples if the pattern has more than one group.
// Empty matches are included in the result.
func reFindall(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		str     string
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &str, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return regexpFindall(p, str, 0, posMax)
}

// regexpFindall - see `reFindall`.
func regexpFindall(p *Pattern, str string, pos, endpos int) (starlark.Value, error) {
	pos, endpos = clampParams(len(str), pos, endpos)
	s := str[:endpos]

	matches, err := p.re.FindAll(s, pos, -1)
	if err != nil {
		return nil, err
	}

	l := make([]starlark.Value, 0, len(matches))
	for _, match := range matches {
		n := len(match) / 2

		var v starlark.Value
		switch n {
		case 1:
			// Match contains no groups; element is the whole match.
			v = starlark.String(s[match[0]:match[1]])
		case 2:
			// Match contains one group; element is this group.
			v = groupString(s, match, 1)
		default:
			// Match contains multiple groups; element is a tuple of groups.
			t := make(starlark.Tuple, 0, n-1)
			for j := 1; j < n; j++ {
				t = append(t, groupString(s, match, j))
			}

			v = t
		}

		l = append(l, v)
	}

	return starlark.NewList(l), nil
}

// groupString returns the text of a group, or an empty string, if the group did not participate in the match.
func groupString(s string, match []int, i int) starlark.String {
	if match[2*i] < 0 {
		return ""
	}

	return starlark.String(s[match[2*i]:match[2*i+1]])
}

// reSplit splits the string by the occurrences of the pattern.
// If capturing parentheses are used in the pattern, the text of all groups are also returned as part of the resulting list.
// If `maxsplit` is nonzero, at most `maxsplit` splits occur, and the remainder of the string is returned as the final element of the list.
func reSplit(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern  patternParam
		str      string
		maxSplit int
		flags    flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &str, "maxsplit?", &maxSplit, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return split(p, str, maxSplit)
}

// reSub returns the string obtained by replacing the leftmost non-overlapping occurrences of the pattern in string by the replacement `repl`.
// `repl` can be a template string or a function, that is called with the match object.
// Called as `subn`, the number of replacements is returned together with the new string.
func reSub(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern patternParam
		repl    starlark.Value
		str     string
		count   int
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "repl", &repl, "string", &str, "count?", &count, "flags?", &flags); err != nil {
		return nil, err
	}

	p, err := compilePattern(thread, b, pattern, flags)
	if err != nil {
		return nil, err
	}

	return regexpSub(thread, b.Name(), p, repl, str, count)
}

// regexpSub - see `reSub`.
func regexpSub(thread *starlark.Thread, name string, p *Pattern, repl starlark.Value, str string, count int) (starlark.Value, error) {
	r, err := getReplacer(thread, p, repl)
	if err != nil {
		return nil, err
	}

	return sub(p, r, str, count, name == "subn")
}

// reEscape escapes special characters in pattern.
// This is useful if you want to match an arbitrary literal string that may have regular expression metacharacters in it.
func reEscape(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern); err != nil {
		return nil, err
	}

	return starlark.String(escapePattern(pattern)), nil
}

// compilePattern compiles a regex pattern by compiling the pattern using the regex cache.
// The builtin receiver of the first parameter must be of type `*Module`.
// See also `Module.compile`.
func compilePattern(thread *starlark.Thread, b *starlark.Builtin, p patternParam, flags flagsParam) (*Pattern, error) {
	if p.compiled != nil {
		if flags != 0 {
			return nil, errors.New("cannot process flags argument with a compiled pattern")
		}

		return p.compiled, nil
	}

	return b.Receiver().(*Module).compile(thread, p.raw, syntax.Flags(flags))
}

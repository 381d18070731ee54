package re

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"

	"github.com/magnetde/starlark-fancyre/regex"
	"github.com/magnetde/starlark-fancyre/syntax"
	"github.com/magnetde/starlark-fancyre/util"
)

// Pattern is a starlark representation of a compiled regular expression.
type Pattern struct {
	re      *regex.Regexp
	pattern string
	flags   syntax.Flags // flags passed at compilation, without inline flags
}

// newPattern creates a new pattern object, which is also a Starlark value.
func newPattern(pattern string, flags syntax.Flags, opts regex.Options) (*Pattern, error) {
	re, err := regex.CompileOptions(pattern, flags, opts)
	if err != nil {
		return nil, err
	}

	p := Pattern{
		re:      re,
		pattern: pattern,
		flags:   flags,
	}

	return &p, nil
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value      = (*Pattern)(nil)
	_ starlark.HasAttrs   = (*Pattern)(nil)
	_ starlark.Comparable = (*Pattern)(nil)
)

func (p *Pattern) String() string {
	r := util.Repr(p.pattern)
	if len(r) > 200 {
		r = r[:200]
	}

	var b strings.Builder
	b.WriteString("re.compile(")
	b.WriteString(r)
	writeFlags(&b, p.flags&^syntax.FlagDebug)
	b.WriteByte(')')
	return b.String()
}

// flagNames are the names of the flags, indexed by their bit position.
var flagNames = []string{
	"TEMPLATE",
	"IGNORECASE",
	"LOCALE",
	"MULTILINE",
	"DOTALL",
	"UNICODE",
	"VERBOSE",
	"DEBUG",
}

// writeFlags writes the flags like `, re.IGNORECASE|re.DOTALL`, if any flag is set.
func writeFlags(b *strings.Builder, flags syntax.Flags) {
	if flags == 0 {
		return
	}

	b.WriteString(", ")
	first := true

	for i, name := range flagNames {
		f := syntax.Flags(1) << i
		if flags&f == 0 {
			continue
		}
		if !first {
			b.WriteByte('|')
		}
		b.WriteString("re.")
		b.WriteString(name)

		flags &^= f
		first = false
	}

	if flags != 0 {
		if !first {
			b.WriteByte('|')
		}
		b.WriteString("0x")
		b.WriteString(strconv.FormatUint(uint64(flags), 16))
	}
}

func (p *Pattern) Type() string          { return "pattern" }
func (p *Pattern) Freeze()               {}
func (p *Pattern) Truth() starlark.Bool  { return p.pattern != "" }
func (p *Pattern) Hash() (uint32, error) { return starlark.String(p.pattern).Hash() }

// Methods of the pattern object.
var patternMethods = map[string]*starlark.Builtin{
	"search":    starlark.NewBuiltin("search", patternSearch),
	"match":     starlark.NewBuiltin("match", patternMatch),
	"fullmatch": starlark.NewBuiltin("fullmatch", patternFullmatch),
	"findall":   starlark.NewBuiltin("findall", patternFindall),
	"split":     starlark.NewBuiltin("split", patternSplit),
	"sub":       starlark.NewBuiltin("sub", patternSub),
	"subn":      starlark.NewBuiltin("subn", patternSub),
}

// patternMembers contains members of the pattern object.
var patternMembers = map[string]func(p *Pattern) starlark.Value{
	// also contains the global inline flags of the pattern
	"flags":   func(p *Pattern) starlark.Value { return flagValue(p.re.Flags() &^ syntax.FlagDebug) },
	"pattern": func(p *Pattern) starlark.Value { return starlark.String(p.pattern) },
	"groups":  func(p *Pattern) starlark.Value { return starlark.MakeInt(p.re.NumSubexp()) },
	"groupindex": func(p *Pattern) starlark.Value {
		names := p.re.SubexpNames()

		gi := starlark.NewDict(len(names))
		for i, name := range names {
			if len(name) > 0 {
				_ = gi.SetKey(starlark.String(name), starlark.MakeInt(i))
			}
		}

		gi.Freeze()
		return gi
	},

	// results of the analysis
	"strategy": func(p *Pattern) starlark.Value { return starlark.String(p.re.Strategy().String()) },
	"hard":     func(p *Pattern) starlark.Value { return starlark.Bool(p.re.Hard()) },
	"min_size": func(p *Pattern) starlark.Value { return starlark.MakeInt(p.re.MinSize()) },
	"literal": func(p *Pattern) starlark.Value {
		if lit, ok := p.re.Literal(); ok {
			return starlark.String(lit)
		}
		return starlark.None
	},
}

// Attr gets a value for a string attribute.
func (p *Pattern) Attr(name string) (starlark.Value, error) {
	if o, ok := patternMethods[name]; ok {
		return o.BindReceiver(p), nil
	}

	if o, ok := patternMembers[name]; ok {
		return o(p), nil
	}

	return nil, nil
}

// AttrNames lists available dot expression strings.
func (p *Pattern) AttrNames() []string {
	names := make([]string, 0, len(patternMethods)+len(patternMembers))

	for name := range patternMethods {
		names = append(names, name)
	}
	for name := range patternMembers {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

func (p *Pattern) CompareSameType(op starsyntax.Token, y starlark.Value, _ int) (bool, error) {
	o := y.(*Pattern)

	switch op {
	case starsyntax.EQL:
		return patternEquals(p, o), nil
	case starsyntax.NEQ:
		return !patternEquals(p, o), nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", p.Type(), op, o.Type())
	}
}

func patternEquals(x, y *Pattern) bool {
	return x.pattern == y.pattern && x.flags == y.flags
}

// unpackPosArgs unpacks the arguments of the search methods of a pattern.
func unpackPosArgs(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (str string, pos, endpos int, err error) {
	endpos = posMax
	err = starlark.UnpackArgs(b.Name(), args, kwargs, "string", &str, "pos?", &pos, "endpos?", &endpos)
	return
}

// patternSearch - see `reSearch`.
func patternSearch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	str, pos, endpos, err := unpackPosArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return regexpSearch(b.Receiver().(*Pattern), str, pos, endpos)
}

// patternMatch - see `reMatch`.
func patternMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	str, pos, endpos, err := unpackPosArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return regexpMatch(b.Receiver().(*Pattern), str, pos, endpos)
}

// patternFullmatch - see `reFullmatch`.
func patternFullmatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	str, pos, endpos, err := unpackPosArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return regexpFullmatch(b.Receiver().(*Pattern), str, pos, endpos)
}

// patternFindall - see `reFindall`.
func patternFindall(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	str, pos, endpos, err := unpackPosArgs(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return regexpFindall(b.Receiver().(*Pattern), str, pos, endpos)
}

// patternSplit - see `reSplit`.
func patternSplit(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		str      string
		maxSplit int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "string", &str, "maxsplit?", &maxSplit); err != nil {
		return nil, err
	}

	return split(b.Receiver().(*Pattern), str, maxSplit)
}

// patternSub - see `reSub`.
func patternSub(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		repl  starlark.Value
		str   string
		count int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "repl", &repl, "string", &str, "count?", &count); err != nil {
		return nil, err
	}

	return regexpSub(thread, b.Name(), b.Receiver().(*Pattern), repl, str, count)
}

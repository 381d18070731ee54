package re

import (
	"errors"
	"fmt"
	"slices"

	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"

	"github.com/magnetde/starlark-fancyre/util"
)

// Match is the result of a successful search.
type Match struct {
	pattern *Pattern
	str     string

	groups []group

	pos       int
	endpos    int
	lastIndex int
}

// group is the span of a group inside the string; both positions are -1, if the group did not match.
type group struct {
	start int
	end   int
}

func (g group) empty() bool {
	return g.start < 0
}

// newMatch creates a new match object.
func newMatch(p *Pattern, str string, a []int, pos, endpos int) *Match {
	n := 1 + p.re.NumSubexp()

	lastIndex := -1
	lastIndexEnd := -1

	groups := make([]group, n)
	for i := range groups {
		g := group{start: a[2*i], end: a[2*i+1]}

		// the last group is the group, that was closed last
		if i > 0 && !g.empty() && g.end > lastIndexEnd {
			lastIndex = i
			lastIndexEnd = g.end
		}

		groups[i] = g
	}

	m := Match{
		pattern:   p,
		str:       str,
		groups:    groups,
		pos:       pos,
		endpos:    endpos,
		lastIndex: lastIndex,
	}

	return &m
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value      = (*Match)(nil)
	_ starlark.HasAttrs   = (*Match)(nil)
	_ starlark.Mapping    = (*Match)(nil)
	_ starlark.Comparable = (*Match)(nil)
)

func (m *Match) String() string {
	g := m.groups[0]
	return fmt.Sprintf("<re.Match object; span=(%d, %d), match=%s>", g.start, g.end, util.Repr(m.text(g)))
}

func (m *Match) Type() string         { return "match" }
func (m *Match) Freeze()              {}
func (m *Match) Truth() starlark.Bool { return true }

func (m *Match) Hash() (uint32, error) {
	h, _ := m.pattern.Hash() // string type; no error possible

	for _, g := range m.groups {
		h ^= uint32(g.start) ^ uint32(g.end)<<16
		h *= 16777619
	}

	return h, nil
}

// text returns the text matched by a group.
func (m *Match) text(g group) string {
	if g.empty() {
		return ""
	}
	return m.str[g.start:g.end]
}

// matchMethods contains methods of the match object.
var matchMethods = map[string]*starlark.Builtin{
	"group":     starlark.NewBuiltin("group", matchGroup),
	"groups":    starlark.NewBuiltin("groups", matchGroups),
	"groupdict": starlark.NewBuiltin("groupdict", matchGroupDict),
	"start":     starlark.NewBuiltin("start", matchStart),
	"end":       starlark.NewBuiltin("end", matchEnd),
	"span":      starlark.NewBuiltin("span", matchSpan),
}

// matchMembers contains members of the match object.
var matchMembers = map[string]func(m *Match) starlark.Value{
	"pos":    func(m *Match) starlark.Value { return starlark.MakeInt(m.pos) },
	"endpos": func(m *Match) starlark.Value { return starlark.MakeInt(m.endpos) },
	"lastindex": func(m *Match) starlark.Value {
		if m.lastIndex < 0 {
			return starlark.None
		}

		return starlark.MakeInt(m.lastIndex)
	},
	"lastgroup": func(m *Match) starlark.Value {
		if m.lastIndex < 0 {
			return starlark.None
		}

		name := m.pattern.re.SubexpNames()[m.lastIndex]
		if name == "" {
			return starlark.None
		}

		return starlark.String(name)
	},
	"re":     func(m *Match) starlark.Value { return m.pattern },
	"string": func(m *Match) starlark.Value { return starlark.String(m.str) },
}

// Attr gets a value for a string attribute.
func (m *Match) Attr(name string) (starlark.Value, error) {
	if o, ok := matchMethods[name]; ok {
		return o.BindReceiver(m), nil
	}

	if o, ok := matchMembers[name]; ok {
		return o(m), nil
	}

	return nil, nil
}

// AttrNames lists available dot expression strings.
func (m *Match) AttrNames() []string {
	names := make([]string, 0, len(matchMethods)+len(matchMembers))

	for name := range matchMethods {
		names = append(names, name)
	}
	for name := range matchMembers {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// Get returns the value corresponding to the specified key.
// For the match object, this is equal to calling the `group` function.
func (m *Match) Get(v starlark.Value) (starlark.Value, bool, error) {
	g, err := m.group(v)
	if err != nil {
		return nil, false, err
	}

	return g, true, nil
}

func (m *Match) CompareSameType(op starsyntax.Token, y starlark.Value, _ int) (bool, error) {
	o := y.(*Match)

	switch op {
	case starsyntax.EQL:
		return matchEquals(m, o), nil
	case starsyntax.NEQ:
		return !matchEquals(m, o), nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", m.Type(), op, o.Type())
	}
}

func matchEquals(x, y *Match) bool {
	return patternEquals(x.pattern, y.pattern) && x.str == y.str && slices.Equal(x.groups, y.groups) &&
		x.pos == y.pos && x.endpos == y.endpos
}

func (m *Match) group(v starlark.Value) (starlark.Value, error) {
	i, ok := m.getIndex(v)
	if !ok {
		return nil, errors.New("IndexError: no such group")
	}

	g := m.groups[i]
	if g.empty() {
		return starlark.None, nil
	}

	return starlark.String(m.text(g)), nil
}

func (m *Match) getIndex(v starlark.Value) (int, bool) {
	switch t := v.(type) {
	case starlark.Int:
		i, ok := t.Int64()
		if ok && i >= 0 && i < int64(len(m.groups)) {
			return int(i), true
		}
	case starlark.String:
		if i := m.pattern.re.SubexpIndex(string(t)); i >= 0 {
			return i, true
		}
	}

	return 0, false
}

func matchGroup(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), nil, kwargs); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)

	switch len(args) {
	case 0:
		return m.group(zeroInt)
	case 1:
		return m.group(args[0])
	default:
		result := make(starlark.Tuple, len(args))

		for i, arg := range args {
			g, err := m.group(arg)
			if err != nil {
				return nil, err
			}

			result[i] = g
		}

		return result, nil
	}
}

func matchGroups(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var defaultValue starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "default?", &defaultValue); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)

	result := make(starlark.Tuple, 0, len(m.groups)-1)
	for _, g := range m.groups[1:] {
		if g.empty() {
			result = append(result, defaultValue)
		} else {
			result = append(result, starlark.String(m.text(g)))
		}
	}

	return result, nil
}

func matchGroupDict(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var defaultValue starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "default?", &defaultValue); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)

	names := m.pattern.re.SubexpNames() // iterate the names by group number, so the order is retained
	result := starlark.NewDict(len(names))

	for i, name := range names {
		if i == 0 || name == "" {
			continue
		}

		var v starlark.Value = defaultValue
		if g := m.groups[i]; !g.empty() {
			v = starlark.String(m.text(g))
		}

		if err := result.SetKey(starlark.String(name), v); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// unpackGroup unpacks the optional group parameter of `start`, `end` and `span`.
func (m *Match) unpackGroup(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (group, error) {
	var v starlark.Value = zeroInt
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "group?", &v); err != nil {
		return group{}, err
	}

	i, ok := m.getIndex(v)
	if !ok {
		return group{}, errors.New("IndexError: no such group")
	}

	return m.groups[i], nil
}

func matchStart(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	m := b.Receiver().(*Match)

	g, err := m.unpackGroup(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(g.start), nil
}

func matchEnd(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	m := b.Receiver().(*Match)

	g, err := m.unpackGroup(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt(g.end), nil
}

func matchSpan(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	m := b.Receiver().(*Match)

	g, err := m.unpackGroup(b, args, kwargs)
	if err != nil {
		return nil, err
	}

	return starlark.Tuple{starlark.MakeInt(g.start), starlark.MakeInt(g.end)}, nil
}

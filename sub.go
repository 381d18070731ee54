package re

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/magnetde/starlark-fancyre/syntax"
)

// replacer computes the replacement of a match.
type replacer interface {
	withMatch() bool // the replacement depends on the match
	replace(m *Match) (string, error)
}

// templateReplacer replaces matches with a template.
// If the template contains no references, the rules contain a single literal.
type templateReplacer struct {
	rules []syntax.TemplateRule
	match bool
}

// functionReplacer replaces matches with the result of a Starlark function.
type functionReplacer func(m *Match) (string, error)

// Check, if the types satisfy the replacer interface.
var (
	_ replacer = (*templateReplacer)(nil)
	_ replacer = (functionReplacer)(nil)
)

func (r *templateReplacer) withMatch() bool {
	return r.match
}

func (r *templateReplacer) replace(m *Match) (string, error) {
	var b strings.Builder

	for _, t := range r.rules {
		if t.IsLiteral() {
			b.WriteString(t.Literal)
		} else {
			b.WriteString(m.text(m.groups[t.Group]))
		}
	}

	return b.String(), nil
}

func (r functionReplacer) withMatch() bool {
	return true
}

func (r functionReplacer) replace(m *Match) (string, error) {
	return r(m)
}

// getReplacer returns the replacer for the `repl` argument, which is either a template string or a function.
func getReplacer(thread *starlark.Thread, p *Pattern, repl starlark.Value) (replacer, error) {
	switch t := repl.(type) {
	case starlark.String:
		return newTemplateReplacer(p, string(t))
	case starlark.Callable:
		fn := func(m *Match) (string, error) {
			res, err := starlark.Call(thread, t, starlark.Tuple{m}, nil)
			if err != nil {
				return "", err
			}

			s, ok := res.(starlark.String)
			if !ok {
				return "", fmt.Errorf("got %s, want str", res.Type())
			}

			return string(s), nil
		}

		return functionReplacer(fn), nil
	default:
		return nil, fmt.Errorf("got %s, want str or function", repl.Type())
	}
}

// newTemplateReplacer parses the template, if it contains any escapes.
func newTemplateReplacer(p *Pattern, repl string) (replacer, error) {
	if !strings.ContainsRune(repl, '\\') {
		r := templateReplacer{
			rules: []syntax.TemplateRule{{Literal: repl, Group: -1}},
		}

		return &r, nil
	}

	rules, err := syntax.ParseTemplate(p.re, repl)
	if err != nil {
		return nil, err
	}

	r := templateReplacer{
		rules: rules,
		match: true,
	}

	return &r, nil
}

// sub replaces the leftmost `count` matches of `p` in `str`; a count of zero replaces all matches.
// If `subn` is set, the number of replacements is returned as well. See also `reSub`.
func sub(p *Pattern, r replacer, str string, count int, subn bool) (starlark.Value, error) {
	n := -1
	if count > 0 {
		n = count
	} else if count < 0 {
		n = 0
	}

	matches, err := p.re.FindAll(str, 0, n)
	if err != nil {
		return nil, err
	}

	var replaced strings.Builder

	beg := 0
	for _, match := range matches {
		replaced.WriteString(str[beg:match[0]])

		var m *Match
		if r.withMatch() {
			m = newMatch(p, str, match, 0, len(str))
		}

		s, err := r.replace(m)
		if err != nil {
			return nil, err
		}

		replaced.WriteString(s)
		beg = match[1]
	}

	replaced.WriteString(str[beg:])

	res := starlark.String(replaced.String())
	if subn {
		return starlark.Tuple{res, starlark.MakeInt(len(matches))}, nil
	}

	return res, nil
}

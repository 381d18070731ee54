package analysis

import (
	"strings"

	"github.com/magnetde/starlark-fancyre/syntax"
)

// IsLiteral reports whether the expression matches exactly one, case-sensitive text.
// This holds for case-sensitive literals and for concatenations of them.
func (info *Info) IsLiteral() bool {
	switch info.Expr.Op {
	case syntax.OpLiteral:
		return !info.Expr.CaseI
	case syntax.OpConcat:
		for _, child := range info.Children {
			if !child.IsLiteral() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PushLiteral appends the text matched by the expression to `b`.
// It must only be called, if IsLiteral reports true; otherwise it panics.
func (info *Info) PushLiteral(b *strings.Builder) {
	switch info.Expr.Op {
	case syntax.OpLiteral:
		if info.Expr.CaseI {
			panic("analysis: PushLiteral called on a case-insensitive literal")
		}
		b.WriteString(info.Expr.Text)
	case syntax.OpConcat:
		for _, child := range info.Children {
			child.PushLiteral(b)
		}
	default:
		panic("analysis: PushLiteral called on non-literal expression " + info.Expr.Op.String())
	}
}

// Literal returns the text matched by the expression, if the expression is a literal.
func (info *Info) Literal() (string, bool) {
	if !info.IsLiteral() {
		return "", false
	}

	var b strings.Builder
	info.PushLiteral(&b)
	return b.String(), true
}

package syntax

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Precedence levels of the printer.
const (
	precAlt = iota
	precConcat
	precAtom
)

// String returns the pattern represented by the expression.
// The pattern uses a syntax that is understood by both the Go regex engine
// (as long as the expression contains no lookaround, backreference or atomic group)
// and the regexp2 engine. Flags are always printed as scoped groups,
// so the pattern does not depend on global engine options.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b, precAlt)
	return b.String()
}

// write writes the expression to the builder.
// If the expression binds weaker than `prec`, it is enclosed in a non-capturing group.
func (e *Expr) write(b *strings.Builder, prec int) {
	switch e.Op {
	case OpEmpty:
		b.WriteString("(?:)")
	case OpStartText:
		b.WriteString(`\A`)
	case OpEndText:
		b.WriteString(`\z`)
	case OpStartLine:
		b.WriteString("(?m:^)")
	case OpEndLine:
		b.WriteString("(?m:$)")
	case OpAny:
		if e.Newline {
			b.WriteString("(?s:.)")
		} else {
			b.WriteByte('.')
		}
	case OpLiteral:
		text := regexp.QuoteMeta(e.Text)

		switch {
		case e.CaseI:
			b.WriteString("(?i:")
			b.WriteString(text)
			b.WriteByte(')')
		case prec >= precAtom && utf8.RuneCountInString(e.Text) > 1:
			b.WriteString("(?:")
			b.WriteString(text)
			b.WriteByte(')')
		default:
			b.WriteString(text)
		}
	case OpConcat:
		if prec > precConcat {
			b.WriteString("(?:")
		}
		for _, sub := range e.Subs {
			sub.write(b, precConcat)
		}
		if prec > precConcat {
			b.WriteByte(')')
		}
	case OpAlt:
		if prec > precAlt {
			b.WriteString("(?:")
		}
		for i, sub := range e.Subs {
			if i > 0 {
				b.WriteByte('|')
			}
			sub.write(b, precAlt)
		}
		if prec > precAlt {
			b.WriteByte(')')
		}
	case OpGroup:
		b.WriteByte('(')
		e.Sub().write(b, precAlt)
		b.WriteByte(')')
	case OpLookAround:
		b.WriteString(e.Look.prefix())
		e.Sub().write(b, precAlt)
		b.WriteByte(')')
	case OpAtomicGroup:
		b.WriteString("(?>")
		e.Sub().write(b, precAlt)
		b.WriteByte(')')
	case OpRepeat:
		sub := e.Sub()
		if sub.isAtom() {
			sub.write(b, precAtom)
		} else {
			b.WriteString("(?:")
			sub.write(b, precAlt)
			b.WriteByte(')')
		}

		writeQuantifier(b, e.Min, e.Max)
		if !e.Greedy {
			b.WriteByte('?')
		}
	case OpDelegate:
		if e.CaseI {
			b.WriteString("(?i:")
			b.WriteString(e.Text)
			b.WriteByte(')')
		} else {
			b.WriteString(e.Text)
		}
	case OpBackref:
		// enclosed, so that following digits are not read as part of the group number
		if e.CaseI {
			b.WriteString(`(?i:\`)
		} else {
			b.WriteString(`(?:\`)
		}
		b.WriteString(strconv.Itoa(e.Group))
		b.WriteByte(')')
	default:
		panic("unknown expression kind " + e.Op.String())
	}
}

// isAtom reports whether a quantifier can be applied to the printed expression directly.
func (e *Expr) isAtom() bool {
	switch e.Op {
	case OpLiteral:
		return e.CaseI || utf8.RuneCountInString(e.Text) == 1
	case OpDelegate:
		return e.CaseI || e.Size > 0
	case OpAny, OpEmpty, OpStartLine, OpEndLine,
		OpGroup, OpLookAround, OpAtomicGroup, OpBackref:
		return true
	default:
		return false
	}
}

// writeQuantifier writes the shortest notation of the repetition bounds.
func writeQuantifier(b *strings.Builder, min, max int) {
	switch {
	case min == 0 && max == MaxRepeat:
		b.WriteByte('*')
	case min == 1 && max == MaxRepeat:
		b.WriteByte('+')
	case min == 0 && max == 1:
		b.WriteByte('?')
	default:
		b.WriteByte('{')
		b.WriteString(strconv.Itoa(min))
		if max != min {
			b.WriteByte(',')
			if max != MaxRepeat {
				b.WriteString(strconv.Itoa(max))
			}
		}
		b.WriteByte('}')
	}
}

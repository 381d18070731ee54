package analysis

import (
	"strconv"
	"strings"

	"github.com/magnetde/starlark-fancyre/syntax"
	"github.com/magnetde/starlark-fancyre/util"
)

// Dump returns a readable representation of the annotated tree, one node per line.
// Each line contains the kind of the node, its parameters and the analyzed facts.
func (info *Info) Dump() string {
	var b strings.Builder
	info.dump(&b, 0)
	return b.String()
}

func (info *Info) dump(b *strings.Builder, level int) {
	e := info.Expr

	b.WriteString(strings.Repeat("  ", level))
	b.WriteString(e.Op.String())

	switch e.Op {
	case syntax.OpLiteral:
		b.WriteByte(' ')
		b.WriteString(util.Repr(e.Text))
		if e.CaseI {
			b.WriteString(" IGNORECASE")
		}
	case syntax.OpAny:
		if e.Newline {
			b.WriteString(" DOTALL")
		}
	case syntax.OpGroup:
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.Group))
		if e.Name != "" {
			b.WriteByte(' ')
			b.WriteString(util.Repr(e.Name))
		}
	case syntax.OpLookAround:
		b.WriteByte(' ')
		b.WriteString(e.Look.String())
	case syntax.OpRepeat:
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.Min))
		b.WriteByte(' ')
		if e.Max == syntax.MaxRepeat {
			b.WriteString("MAXREPEAT")
		} else {
			b.WriteString(strconv.Itoa(e.Max))
		}
		if !e.Greedy {
			b.WriteString(" LAZY")
		}
	case syntax.OpDelegate:
		b.WriteByte(' ')
		b.WriteString(util.Repr(e.Text))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.Size))
		if e.CaseI {
			b.WriteString(" IGNORECASE")
		}
	case syntax.OpBackref:
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.Group))
		if e.CaseI {
			b.WriteString(" IGNORECASE")
		}
	}

	b.WriteString(" [")
	if info.StartGroup != info.EndGroup {
		b.WriteString("groups=")
		b.WriteString(strconv.Itoa(info.StartGroup))
		b.WriteString("..")
		b.WriteString(strconv.Itoa(info.EndGroup))
		b.WriteByte(' ')
	}

	b.WriteString("min=")
	if info.MinSize == syntax.MaxRepeat {
		b.WriteString("MAX")
	} else {
		b.WriteString(strconv.Itoa(info.MinSize))
	}

	if info.ConstSize {
		b.WriteString(" const")
	}
	if info.Hard {
		b.WriteString(" hard")
	}
	if info.LooksLeft {
		b.WriteString(" left")
	}
	b.WriteString("]\n")

	for _, child := range info.Children {
		child.dump(b, level+1)
	}
}

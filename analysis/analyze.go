// Package analysis annotates a parsed pattern with the facts, that are needed to choose an
// execution strategy: the range of groups of each subexpression, its minimum and constant size,
// whether it requires a backtracking engine, and whether it depends on the text left of the
// current position.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/magnetde/starlark-fancyre/syntax"
	"github.com/magnetde/starlark-fancyre/util"
)

// ErrInvalidBackref is returned, if a backreference refers to a group, that is not opened yet.
var ErrInvalidBackref = errors.New("invalid backreference")

// Info is the analysis of one expression node.
// The tree of infos mirrors the expression tree; it is never modified after it was built,
// so it may be shared between goroutines.
type Info struct {
	Expr     *syntax.Expr // the analyzed expression; must outlive the info
	Children []*Info

	StartGroup int  // index of the first group inside the expression
	EndGroup   int  // index after the last group inside the expression
	MinSize    int  // minimum number of characters matched
	ConstSize  bool // every match has exactly MinSize characters
	Hard       bool // matching needs the backtracking engine
	LooksLeft  bool // matching depends on the text left of the current position
}

// analyzer holds the state of one analysis.
// The group counter is not part of the state; it is passed through the recursion.
type analyzer struct {
	backrefs *util.BitSet
}

// Analyze walks the expression once and returns its annotated tree.
// Groups are indexed from 0 in the order their parenthesis is opened.
// `backrefs` contains the indices of all groups, that are referenced by a backreference;
// it may be nil if there are none.
// The only possible error is ErrInvalidBackref; no partial tree is returned.
func Analyze(expr *syntax.Expr, backrefs *util.BitSet) (*Info, error) {
	a := analyzer{
		backrefs: backrefs,
	}

	info, _, err := a.visit(expr, 0)
	if err != nil {
		return nil, err
	}

	return info, nil
}

// visit analyzes a single expression. `group` is the index of the next group to open;
// the returned index is the next group to open after this expression.
func (a *analyzer) visit(e *syntax.Expr, group int) (*Info, int, error) {
	info := &Info{
		Expr:       e,
		StartGroup: group,
	}

	var child *Info
	var err error

	switch e.Op {
	case syntax.OpEmpty, syntax.OpEndText, syntax.OpEndLine:
		info.ConstSize = true

	case syntax.OpAny:
		info.MinSize = 1
		info.ConstSize = true

	case syntax.OpLiteral:
		// every character of a literal is a node of its own
		info.MinSize = 1
		info.ConstSize = literalConstSize(e.Text, e.CaseI)

	case syntax.OpStartText, syntax.OpStartLine:
		info.ConstSize = true
		info.LooksLeft = true

	case syntax.OpConcat:
		info.ConstSize = true

		for _, sub := range e.Subs {
			child, group, err = a.visit(sub, group)
			if err != nil {
				return nil, 0, err
			}

			// nothing consumed before the child
			info.LooksLeft = info.LooksLeft || (child.LooksLeft && info.MinSize == 0)
			info.MinSize = addSize(info.MinSize, child.MinSize)
			info.ConstSize = info.ConstSize && child.ConstSize
			info.Hard = info.Hard || child.Hard
			info.Children = append(info.Children, child)
		}

	case syntax.OpAlt:
		for i, sub := range e.Subs {
			child, group, err = a.visit(sub, group)
			if err != nil {
				return nil, 0, err
			}

			if i == 0 {
				info.MinSize = child.MinSize
				info.ConstSize = child.ConstSize
			} else {
				info.ConstSize = info.ConstSize && child.ConstSize && info.MinSize == child.MinSize
				info.MinSize = min(info.MinSize, child.MinSize)
			}

			info.Hard = info.Hard || child.Hard
			info.LooksLeft = info.LooksLeft || child.LooksLeft
			info.Children = append(info.Children, child)
		}

	case syntax.OpGroup:
		index := group
		group++

		child, group, err = a.visit(e.Sub(), group)
		if err != nil {
			return nil, 0, err
		}

		info.MinSize = child.MinSize
		info.ConstSize = child.ConstSize
		info.LooksLeft = child.LooksLeft
		info.Hard = child.Hard || a.backrefs.Contains(index)
		info.Children = append(info.Children, child)

	case syntax.OpLookAround:
		child, group, err = a.visit(e.Sub(), group)
		if err != nil {
			return nil, 0, err
		}

		// zero width, regardless of the child
		info.ConstSize = true
		info.Hard = true
		info.LooksLeft = child.LooksLeft
		info.Children = append(info.Children, child)

	case syntax.OpRepeat:
		child, group, err = a.visit(e.Sub(), group)
		if err != nil {
			return nil, 0, err
		}

		info.MinSize = mulSize(child.MinSize, e.Min)
		info.ConstSize = child.ConstSize && e.Min == e.Max
		info.Hard = child.Hard
		info.LooksLeft = child.LooksLeft
		info.Children = append(info.Children, child)

	case syntax.OpDelegate:
		info.MinSize = e.Size
		info.ConstSize = true
		// approximation: every zero-width atom is treated like `\b`, even one anchored at the end
		info.LooksLeft = e.Size == 0

	case syntax.OpBackref:
		if e.Group >= group {
			return nil, 0, ErrInvalidBackref
		}

		// the size of the referenced text is unknown
		info.Hard = true

	case syntax.OpAtomicGroup:
		child, group, err = a.visit(e.Sub(), group)
		if err != nil {
			return nil, 0, err
		}

		info.MinSize = child.MinSize
		info.ConstSize = child.ConstSize
		info.LooksLeft = child.LooksLeft
		info.Hard = true // TODO: could be child.Hard, if the automaton never backtracks into the group anyway
		info.Children = append(info.Children, child)

	default:
		panic(fmt.Sprintf("analysis: unknown expression kind %s", e.Op))
	}

	info.EndGroup = group
	return info, group, nil
}

// literalConstSize reports whether a literal always matches text of the same length.
// The Go regex engine folds case only between single characters (e.g. 'k', 'K' and the Kelvin sign),
// so no case-insensitive match can change the length; full case folding like 'ß' to "SS"
// would require a check against the folding tables here.
func literalConstSize(_ string, _ bool) bool {
	return true
}

// addSize adds two sizes, saturating at math.MaxInt.
func addSize(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// mulSize multiplies a size with a repetition count, saturating at math.MaxInt.
func mulSize(size, n int) int {
	if size != 0 && n > math.MaxInt/size {
		return math.MaxInt
	}
	return size * n
}

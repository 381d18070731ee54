package syntax

import (
	"slices"

	"github.com/magnetde/starlark-fancyre/util"
)

// Expr represents a node in the parsed regex tree.
// Only the fields belonging to the node's kind are set; all others have their zero value.
type Expr struct {
	Op Op

	Text    string   // LITERAL: the literal text; DELEGATE: the source of the delegated atom
	CaseI   bool     // LITERAL, DELEGATE, BACKREF: match case-insensitively
	Newline bool     // ANY: also match '\n'
	Subs    []*Expr  // CONCAT, ALT: the children; GROUP, LOOK_AROUND, REPEAT, ATOMIC_GROUP: the only child
	Min     int      // REPEAT: lower bound
	Max     int      // REPEAT: upper bound; MaxRepeat if unbounded
	Greedy  bool     // REPEAT: greedy repetition
	Look    LookKind // LOOK_AROUND: kind of the assertion
	Size    int      // DELEGATE: fixed number of characters matched
	Group   int      // GROUP: the group number; BACKREF: the referenced group
	Name    string   // GROUP: the group name; may be empty
}

// Tree is the result of parsing a pattern.
type Tree struct {
	Expr      *Expr
	Backrefs  *util.BitSet   // groups referenced by at least one backreference
	Names     map[string]int // mapping of group names to group numbers
	NumGroups int            // number of capturing groups, excluding the implicit group 0
	Flags     Flags          // global flags, including inline global flags
}

// newEmptyNode creates a new node with a given kind and no extra parameters.
// Valid kinds are EMPTY, START_TEXT, END_TEXT, START_LINE and END_LINE.
func newEmptyNode(op Op) *Expr {
	return &Expr{Op: op}
}

// newAny creates a new node of kind ANY.
func newAny(newline bool) *Expr {
	return &Expr{Op: OpAny, Newline: newline}
}

// newLiteral creates a new node of kind LITERAL.
func newLiteral(c rune, casei bool) *Expr {
	return &Expr{Op: OpLiteral, Text: string(c), CaseI: casei}
}

// newSubsNode creates a new node that holds a list of children.
// Valid kinds are CONCAT and ALT.
// If the list has only one element, the element itself is returned; if it is empty, an EMPTY node is returned.
func newSubsNode(op Op, subs []*Expr) *Expr {
	switch len(subs) {
	case 0:
		return newEmptyNode(OpEmpty)
	case 1:
		return subs[0]
	default:
		return &Expr{Op: op, Subs: subs}
	}
}

// newGroup creates a new node of kind GROUP.
func newGroup(group int, name string, sub *Expr) *Expr {
	return &Expr{Op: OpGroup, Group: group, Name: name, Subs: []*Expr{sub}}
}

// newLookAround creates a new node of kind LOOK_AROUND.
func newLookAround(kind LookKind, sub *Expr) *Expr {
	return &Expr{Op: OpLookAround, Look: kind, Subs: []*Expr{sub}}
}

// newRepeat creates a new node of kind REPEAT.
func newRepeat(min, max int, greedy bool, sub *Expr) *Expr {
	return &Expr{Op: OpRepeat, Min: min, Max: max, Greedy: greedy, Subs: []*Expr{sub}}
}

// newDelegate creates a new node of kind DELEGATE.
func newDelegate(text string, size int, casei bool) *Expr {
	return &Expr{Op: OpDelegate, Text: text, Size: size, CaseI: casei}
}

// newBackref creates a new node of kind BACKREF.
func newBackref(group int, casei bool) *Expr {
	return &Expr{Op: OpBackref, Group: group, CaseI: casei}
}

// newAtomicGroup creates a new node of kind ATOMIC_GROUP.
func newAtomicGroup(sub *Expr) *Expr {
	return &Expr{Op: OpAtomicGroup, Subs: []*Expr{sub}}
}

// Wrap returns a group around `e`, that captures the whole match as group 0.
// After wrapping, the group indices of an analysis agree with the group numbers of the pattern.
func Wrap(e *Expr) *Expr {
	return newGroup(0, "", e)
}

// Sub returns the only child of a GROUP, LOOK_AROUND, REPEAT or ATOMIC_GROUP node.
func (e *Expr) Sub() *Expr {
	return e.Subs[0]
}

// Equal reports whether two trees are structurally identical.
func (e *Expr) Equal(o *Expr) bool {
	if e == nil || o == nil {
		return e == o
	}

	if e.Op != o.Op || e.Text != o.Text || e.CaseI != o.CaseI || e.Newline != o.Newline ||
		e.Min != o.Min || e.Max != o.Max || e.Greedy != o.Greedy || e.Look != o.Look ||
		e.Size != o.Size || e.Group != o.Group || e.Name != o.Name {
		return false
	}

	return slices.EqualFunc(e.Subs, o.Subs, (*Expr).Equal)
}

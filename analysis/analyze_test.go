package analysis

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/magnetde/starlark-fancyre/syntax"
)

// analyzeRaw analyzes the pattern without the implicit group 0.
func analyzeRaw(t *testing.T, pattern string) (*Info, error) {
	t.Helper()

	tree, err := syntax.Parse(pattern, 0)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}

	return Analyze(tree.Expr, tree.Backrefs)
}

// analyzeWrapped analyzes the pattern wrapped into group 0 and returns the info of the group.
func analyzeWrapped(t *testing.T, pattern string) *Info {
	t.Helper()

	tree, err := syntax.Parse(pattern, 0)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", pattern, err)
	}

	info, err := Analyze(syntax.Wrap(tree.Expr), tree.Backrefs)
	if err != nil {
		t.Fatalf("Analyze(%q) failed: %v", pattern, err)
	}

	return info
}

// analyzePattern returns the info of the pattern itself, numbered like the pattern groups.
func analyzePattern(t *testing.T, pattern string) *Info {
	t.Helper()
	return analyzeWrapped(t, pattern).Children[0]
}

func TestSizes(t *testing.T) {
	tests := []struct {
		pattern   string
		minSize   int
		constSize bool
	}{
		{"", 0, true},
		{"a", 1, true},
		{"a|b", 1, true},
		{"a|bb", 1, false},
		{"ab", 2, true},
		{"ab*", 1, false},
		{"a{3}", 3, true},
		{"a{3,5}", 3, false},
		{"a{2,}", 2, false},
		{"a??", 0, false},
		{"x*", 0, false},
		{"(?:ab|cd){2}", 4, true},
		{".", 1, true},
		{`[a-z]\d`, 2, true},
		{`\b`, 0, true},
		{"^a$", 1, true},
		{"(?m)^a$", 1, true},
		{"a(?=bcd)", 1, true},
		{"(ab)", 2, true},
		{"(?>ab)", 2, true},
		{`(a)\1`, 1, false},
		{"(?i)a", 1, true},
		{"(?i)ß", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			info := analyzePattern(t, tt.pattern)

			if info.MinSize != tt.minSize {
				t.Errorf("MinSize = %d, want %d", info.MinSize, tt.minSize)
			}
			if info.ConstSize != tt.constSize {
				t.Errorf("ConstSize = %t, want %t", info.ConstSize, tt.constSize)
			}
		})
	}
}

func TestSizeSaturates(t *testing.T) {
	// unbounded repetitions of an unbounded repetition must not overflow
	if got := mulSize(1<<40, 1<<40); got != syntax.MaxRepeat {
		t.Errorf("mulSize overflowed to %d", got)
	}
	if got := addSize(syntax.MaxRepeat, 1); got != syntax.MaxRepeat {
		t.Errorf("addSize overflowed to %d", got)
	}
	if got := mulSize(0, syntax.MaxRepeat); got != 0 {
		t.Errorf("mulSize(0, max) = %d, want 0", got)
	}
}

func TestHard(t *testing.T) {
	tests := []struct {
		pattern string
		hard    bool
	}{
		{"abc", false},
		{"a|b*", false},
		{"(a)(b)", false},
		{"[a-z]+", false},
		{`\bx\B`, false},
		{"(?m)^a$", false},
		{`(a)\1`, true},
		{"(?=a)", true},
		{"(?<!a)b", true},
		{"(?>a)", true},
		{"a++", true},
		{"(?:x(?=y))*", true},
		{"a|(?!b)", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			info := analyzeWrapped(t, tt.pattern)
			if info.Hard != tt.hard {
				t.Errorf("Hard = %t, want %t", info.Hard, tt.hard)
			}
		})
	}
}

func TestBackreferencedGroupIsHard(t *testing.T) {
	info := analyzePattern(t, `(a)(b)\2`)

	if len(info.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(info.Children))
	}

	if info.Children[0].Hard {
		t.Error("group 1 is not referenced and must not be hard")
	}
	if !info.Children[1].Hard {
		t.Error("group 2 is referenced and must be hard")
	}
	if !info.Children[2].Hard {
		t.Error("backreference must be hard")
	}
	if !info.Hard {
		t.Error("hardness must propagate to the concatenation")
	}
}

func TestInvalidBackref(t *testing.T) {
	tests := []string{
		`.\0`,    // group 0 is never opened
		`(.\1)`,  // the group references itself
		`\1(.)`,  // forward reference
		`(a)\2`,  // unknown group
		`(?:a|\1)(b)`,
	}

	for _, pattern := range tests {
		t.Run(pattern, func(t *testing.T) {
			info, err := analyzeRaw(t, pattern)
			if !errors.Is(err, ErrInvalidBackref) {
				t.Errorf("Analyze(%q) error = %v, want %v", pattern, err, ErrInvalidBackref)
			}
			if info != nil {
				t.Errorf("Analyze(%q) returned a partial tree", pattern)
			}
		})
	}
}

func TestValidBackref(t *testing.T) {
	tests := []string{
		`(a)\1`,
		`(a)(b)\2\1`,
		`(?P<x>a)(?P=x)`,
		`(a)(?:b|\1)`,
	}

	for _, pattern := range tests {
		t.Run(pattern, func(t *testing.T) {
			tree, err := syntax.Parse(pattern, 0)
			if err != nil {
				t.Fatal(err)
			}

			if _, err := Analyze(syntax.Wrap(tree.Expr), tree.Backrefs); err != nil {
				t.Errorf("Analyze(%q) failed: %v", pattern, err)
			}
		})
	}
}

func TestLooksLeft(t *testing.T) {
	tests := []struct {
		pattern   string
		looksLeft bool
	}{
		{"a", false},
		{"^a", true},
		{"a^", false},
		{"a*^", true},
		{"(?m)^", true},
		{`\Aa`, true},
		{"$a", false},
		{`\ba`, true},
		{`a\b`, false},
		{`\da`, false},
		{"a|^b", true},
		{"(?:^a)*", true},
		{"(^)", true},
		{"(?=^)", true},
		{"(?<=a)b", false},
		{"(?>^a)", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			info := analyzePattern(t, tt.pattern)
			if info.LooksLeft != tt.looksLeft {
				t.Errorf("LooksLeft = %t, want %t", info.LooksLeft, tt.looksLeft)
			}
		})
	}
}

func TestGroupRanges(t *testing.T) {
	info := analyzeWrapped(t, "(a(b))(c)")

	check := func(name string, info *Info, start, end int) {
		t.Helper()
		if info.StartGroup != start || info.EndGroup != end {
			t.Errorf("%s: groups = %d..%d, want %d..%d", name, info.StartGroup, info.EndGroup, start, end)
		}
	}

	concat := info.Children[0]
	check("group 0", info, 0, 4)
	check("concatenation", concat, 1, 4)
	check("group 1", concat.Children[0], 1, 3)
	check("group 2", concat.Children[0].Children[0].Children[1], 2, 3)
	check("group 3", concat.Children[1], 3, 4)
	check("literal c", concat.Children[1].Children[0], 4, 4)
}

func TestGroupCount(t *testing.T) {
	patterns := []string{
		"",
		"abc",
		"(a)",
		"(a(b))(c)",
		"(?:(a)|(b))*",
		"(?=(a))(?>(b)(c))",
		`(?P<x>a)(?P=x)(d)`,
		"((((a))))",
	}

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			info := analyzeWrapped(t, pattern)

			var groups, maxEnd int
			var walk func(info *Info)
			walk = func(info *Info) {
				if info.StartGroup > info.EndGroup {
					t.Errorf("%s: StartGroup %d > EndGroup %d", info.Expr.Op, info.StartGroup, info.EndGroup)
				}
				if info.Expr.Op == syntax.OpGroup {
					groups++
				}
				maxEnd = max(maxEnd, info.EndGroup)
				for _, child := range info.Children {
					walk(child)
				}
			}
			walk(info)

			if maxEnd != groups {
				t.Errorf("maximum EndGroup = %d, want the number of groups %d", maxEnd, groups)
			}
		})
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		pattern string
		literal string
		ok      bool
	}{
		{"abc", "abc", true},
		{"a", "a", true},
		{`\.\*`, ".*", true},
		{"(?i)123", "123", true},
		{"(?i:a)b", "", false},
		{"abc*", "", false},
		{"(?i)abc", "", false},
		{"(a)", "", false},
		{"a|b", "", false},
		{"", "", false},
		{"^abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			info := analyzePattern(t, tt.pattern)

			if info.IsLiteral() != tt.ok {
				t.Fatalf("IsLiteral() = %t, want %t", info.IsLiteral(), tt.ok)
			}

			got, ok := info.Literal()
			if ok != tt.ok || got != tt.literal {
				t.Errorf("Literal() = %q, %t, want %q, %t", got, ok, tt.literal, tt.ok)
			}
		})
	}
}

func TestPushLiteralAppends(t *testing.T) {
	var b strings.Builder
	b.WriteString("x")

	analyzePattern(t, "abc").PushLiteral(&b)

	if got := b.String(); got != "xabc" {
		t.Errorf("PushLiteral wrote %q, want %q", got, "xabc")
	}
}

func TestPushLiteralPanics(t *testing.T) {
	for _, pattern := range []string{"a*", "(?i)a", "a(b)"} {
		t.Run(pattern, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("PushLiteral on %q did not panic", pattern)
				}
			}()

			var b strings.Builder
			analyzePattern(t, pattern).PushLiteral(&b)
		})
	}
}

func TestLookAroundZeroWidth(t *testing.T) {
	for _, pattern := range []string{"(?=abc)", "(?!a+)", "(?<=ab)", "(?<!x{3})"} {
		t.Run(pattern, func(t *testing.T) {
			info := analyzePattern(t, pattern)

			if info.Expr.Op != syntax.OpLookAround {
				t.Fatalf("expected a lookaround, got %s", info.Expr.Op)
			}
			if info.MinSize != 0 || !info.ConstSize || !info.Hard {
				t.Errorf("lookaround must be zero-width and hard, got min=%d const=%t hard=%t",
					info.MinSize, info.ConstSize, info.Hard)
			}
			if info.Children[0].MinSize == 0 {
				t.Error("the child of the lookaround must keep its own size")
			}
		})
	}
}

func TestIdempotent(t *testing.T) {
	tree, err := syntax.Parse(`(a)(?:b|c)*(?=(d))\1[x-z]{2}`, 0)
	if err != nil {
		t.Fatal(err)
	}

	expr := syntax.Wrap(tree.Expr)

	first, err := Analyze(expr, tree.Backrefs)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Analyze(expr, tree.Backrefs)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("analysis is not deterministic:\n%s\n%s", first.Dump(), second.Dump())
	}
}

// The size of case-insensitive literals is constant, because the Go engine only folds
// single characters. This test fails, once the engine starts to fold multiple characters.
func TestCaseFoldingKeepsSize(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
	}{
		{`(?i:ß)`, "SS"},
		{`(?i:ß)`, "ss"},
		{`(?i:\x{0587})`, "\u0565\u0582"},
		{`(?i:\x{fb00})`, "ff"},
	}

	for _, tt := range tests {
		if regexp.MustCompile(tt.pattern).MatchString(tt.text) {
			t.Errorf("%s matches %q with a different length", tt.pattern, tt.text)
		}
	}

	if !regexp.MustCompile(`(?i:k)`).MatchString("\u212a") {
		t.Error("expected the Kelvin sign to fold to k")
	}
}

func TestDump(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{
			pattern: "a(?=b)",
			want: "GROUP 0 [groups=0..1 min=1 const hard]\n" +
				"  CONCAT [min=1 const hard]\n" +
				"    LITERAL 'a' [min=1 const]\n" +
				"    LOOK_AROUND AHEAD [min=0 const hard]\n" +
				"      LITERAL 'b' [min=1 const]\n",
		},
		{
			pattern: `(?P<x>\d+?)`,
			want: "GROUP 0 [groups=0..2 min=1]\n" +
				"  GROUP 1 'x' [groups=1..2 min=1]\n" +
				"    REPEAT 1 MAXREPEAT LAZY [min=1]\n" +
				"      DELEGATE '\\\\d' 1 [min=1 const]\n",
		},
		{
			pattern: `^(?i:a)b|c`,
			want: "GROUP 0 [groups=0..1 min=1 left]\n" +
				"  ALT [min=1 left]\n" +
				"    CONCAT [min=2 const left]\n" +
				"      START_TEXT [min=0 const left]\n" +
				"      LITERAL 'a' IGNORECASE [min=1 const]\n" +
				"      LITERAL 'b' [min=1 const]\n" +
				"    LITERAL 'c' [min=1 const]\n",
		},
		{
			pattern: `(?i)(a)\1`,
			want: "GROUP 0 [groups=0..2 min=1 hard]\n" +
				"  CONCAT [groups=1..2 min=1 hard]\n" +
				"    GROUP 1 [groups=1..2 min=1 const hard]\n" +
				"      LITERAL 'a' IGNORECASE [min=1 const]\n" +
				"    BACKREF 1 IGNORECASE [min=0 hard]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := analyzeWrapped(t, tt.pattern).Dump(); got != tt.want {
				t.Errorf("Dump() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

package regex

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/magnetde/starlark-fancyre/analysis"
	"github.com/magnetde/starlark-fancyre/syntax"
)

func TestStrategy(t *testing.T) {
	tests := []struct {
		pattern  string
		flags    syntax.Flags
		strategy Strategy
	}{
		{"abc", 0, StrategyLiteral},
		{"a", 0, StrategyLiteral},
		{`a\.b`, 0, StrategyLiteral},
		{"(?i)123", 0, StrategyLiteral},
		{"", 0, StrategyAutomaton},
		{"abc", syntax.FlagIgnoreCase, StrategyAutomaton},
		{"a+b", 0, StrategyAutomaton},
		{"(a)b", 0, StrategyAutomaton},
		{"^abc", 0, StrategyAutomaton},
		{`(a)\1`, 0, StrategyBacktrack},
		{"a(?=b)", 0, StrategyBacktrack},
		{"a++", 0, StrategyBacktrack},
		{"(?>ab|a)c", 0, StrategyBacktrack},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := Compile(tt.pattern, tt.flags)
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.pattern, err)
			}

			if got := re.Strategy(); got != tt.strategy {
				t.Errorf("Strategy() = %s, want %s", got, tt.strategy)
			}
			if re.Hard() != (tt.strategy == StrategyBacktrack) {
				t.Errorf("Hard() = %t does not agree with the strategy", re.Hard())
			}
		})
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		pos     int
		want    []int
	}{
		{"abc", "xxabcabc", 0, []int{2, 5}},
		{"abc", "xxabcabc", 3, []int{5, 8}},
		{"abc", "ab", 0, nil},
		{"a", "aXa", 1, []int{2, 3}},
		{"a(b)?c", "ac", 0, []int{0, 2, -1, -1}},
		{"(a)|(b)", "b", 0, []int{0, 1, -1, -1, 0, 1}},
		{"a$", "aa", 0, []int{1, 2}},
		{"^a", "aa", 1, nil},
		{`\ba`, "aa", 1, nil},
		{`\ba`, "b a", 1, []int{2, 3}},
		{"(?m)^b", "a\nb", 1, []int{2, 3}},
		{"(?m)^b", "ab", 1, nil},
		{`(\w+) \1`, "hello hello world", 0, []int{0, 11, 0, 5}},
		{`(?<=\$)\d+`, "cost: $42", 0, []int{7, 9}},
		{"a(?!b)", "abac", 0, []int{2, 3}},
		{"(?>a+)b", "aaab", 0, []int{0, 4}},
		{"(?>a+)a", "aaaa", 0, nil},
		{"a++a", "aaaa", 0, nil},
		{`ü(.)\1`, "xüzz", 0, []int{1, 5, 3, 4}},
		{`(.)\1`, "abää", 0, []int{2, 6, 2, 4}},
		{`(.)\1`, "\xffx\xff\xff", 0, []int{2, 4, 2, 3}},
		{`(?<=a)b`, "abab", 2, []int{3, 4}},
		{"x", "abc", 4, nil},
		{`(a)\1`, "aA", 0, nil},
		{`(?i)(a)\1`, "aA", 0, []int{0, 2, 0, 1}},
		{`(?i)(?P<x>a)(?P=x)`, "aA", 0, []int{0, 2, 0, 1}},
		{`(?i)(?<x>a)\k<x>`, "Aa", 0, []int{0, 2, 0, 1}},
		{`(a)(?i:\1)`, "xaA", 0, []int{1, 3, 1, 2}},
		{`\101\060`, "xA0", 0, []int{1, 3}},
		{`a\012b`, "a\nb", 0, []int{0, 3}},
		{`(?i)\101`, "xa", 0, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern, 0)

			got, err := re.Find(tt.input, tt.pos)
			if err != nil {
				t.Fatalf("Find(%q, %d) failed: %v", tt.input, tt.pos, err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("Find(%q, %d) = %v, want %v", tt.input, tt.pos, got, tt.want)
			}
		})
	}
}

func TestFindAgreesWithGoRegexp(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
	}{
		{"a+b*", "xxaaabbby"},
		{"(x|y)z", "axzyz"},
		{"[a-c]+", "zzcabz"},
		{`\d{2,3}`, "a1b1234"},
		{"(?i)héllo", "xHÉLLO"},
		{"(a*)(b*)", "bbb"},
		{"(?s)a.b", "a\nb"},
		{"a.b", "a\nb"},
		{"(?m)^x$", "a\nx\nb"},
		{"", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			want := regexp.MustCompile(tt.pattern).FindStringSubmatchIndex(tt.input)

			got, err := MustCompile(tt.pattern, 0).Find(tt.input, 0)
			if err != nil {
				t.Fatal(err)
			}

			if !slices.Equal(got, want) {
				t.Errorf("Find(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestFindFull(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		pos     int
		want    []int
	}{
		{"a|ab", "ab", 0, []int{0, 2}},
		{"a+", "aab", 0, nil},
		{"a+", "aa", 0, []int{0, 2}},
		{"abc", "abc", 0, []int{0, 3}},
		{"abc", "xabc", 0, nil},
		{`(a)\1|x`, "aa", 0, []int{0, 2, 0, 1}},
		{"b+", "abb", 1, []int{1, 3}},
		{"^b+", "abb", 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern, 0)

			got, err := re.FindFull(tt.input, tt.pos)
			if err != nil {
				t.Fatal(err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("FindFull(%q, %d) = %v, want %v", tt.input, tt.pos, got, tt.want)
			}
		})
	}

	// the leftmost match prefers the first alternative
	if got, _ := MustCompile("a|ab", 0).Find("ab", 0); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Find = %v, want [0 1]", got)
	}
}

func TestFindAll(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		n       int
		want    [][]int
	}{
		{`\d*`, "a12b", -1, [][]int{{0, 0}, {1, 3}, {3, 3}, {4, 4}}},
		{"aa", "aaaaa", -1, [][]int{{0, 2}, {2, 4}}},
		{"a", "aaa", 2, [][]int{{0, 1}, {1, 2}}},
		{"", "ü", -1, [][]int{{0, 0}, {2, 2}}},
		{`(\w)\1`, "aabbc", -1, [][]int{{0, 2, 0, 1}, {2, 4, 2, 3}}},
		{"x", "abc", -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := MustCompile(tt.pattern, 0).FindAll(tt.input, 0, tt.n)
			if err != nil {
				t.Fatal(err)
			}

			if !slices.EqualFunc(got, tt.want, slices.Equal[[]int]) {
				t.Errorf("FindAll(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubexp(t *testing.T) {
	re := MustCompile("(a)(?P<x>b)(?:c)", 0)

	if n := re.NumSubexp(); n != 2 {
		t.Errorf("NumSubexp() = %d, want 2", n)
	}
	if names := re.SubexpNames(); !slices.Equal(names, []string{"", "", "x"}) {
		t.Errorf("SubexpNames() = %q", names)
	}
	if i := re.SubexpIndex("x"); i != 2 {
		t.Errorf("SubexpIndex(x) = %d, want 2", i)
	}
	if i := re.SubexpIndex("y"); i != -1 {
		t.Errorf("SubexpIndex(y) = %d, want -1", i)
	}
}

func TestLiteralAndSize(t *testing.T) {
	re := MustCompile(`a\+b`, 0)
	if lit, ok := re.Literal(); !ok || lit != "a+b" {
		t.Errorf("Literal() = %q, %t", lit, ok)
	}
	if re.MinSize() != 3 {
		t.Errorf("MinSize() = %d, want 3", re.MinSize())
	}

	re = MustCompile("a+b", 0)
	if _, ok := re.Literal(); ok {
		t.Error("a+b must not be a literal")
	}
	if re.Analysis().Expr.Op != syntax.OpGroup {
		t.Error("analysis root must be group 0")
	}
}

func TestLargeRepeat(t *testing.T) {
	pattern := "(?:a{1000}){2}"
	if _, err := regexp.Compile(pattern); err == nil {
		t.Fatalf("the Go regex engine accepts %q", pattern)
	}

	re, err := Compile(pattern, 0)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	if re.Hard() || re.Strategy() != StrategyBacktrack {
		t.Errorf("Hard() = %t, Strategy() = %s, want false, backtrack", re.Hard(), re.Strategy())
	}

	s := "b" + strings.Repeat("a", 2001)
	got, err := re.Find(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2001}; !slices.Equal(got, want) {
		t.Errorf("Find() = %v, want %v", got, want)
	}
}

func TestCompileErrors(t *testing.T) {
	for _, pattern := range []string{`.\0`, `\1(a)`, `(a)\2`, `(a)\18`} {
		if _, err := Compile(pattern, 0); !errors.Is(err, analysis.ErrInvalidBackref) {
			t.Errorf("Compile(%q) error = %v, want %v", pattern, err, analysis.ErrInvalidBackref)
		}
	}

	_, err := Compile("(", 0)
	if err == nil || err.Error() != "missing ), unterminated subpattern at position 0" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustCompile did not panic")
		}
		if s, _ := r.(string); !strings.Contains(s, "nothing to repeat") {
			t.Errorf("unexpected panic: %v", r)
		}
	}()

	MustCompile("*", 0)
}

func TestMatchTimeout(t *testing.T) {
	re, err := CompileOptions("(a|aa)+(?=c)", 0, Options{MatchTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	_, err = re.MatchString(strings.Repeat("a", 60))
	if err == nil {
		t.Error("expected a match timeout")
	}
}

func TestConcurrentFind(t *testing.T) {
	re := MustCompile(`\bx`, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			a, err := re.Find("ax x", 1)
			if err != nil || !slices.Equal(a, []int{3, 4}) {
				t.Errorf("Find = %v, %v", a, err)
			}
		}()
	}
	wg.Wait()
}

func TestRuneText(t *testing.T) {
	text := newRuneText("aü\xffb")

	if !slices.Equal(text.chars, []rune{'a', 'ü', '�', 'b'}) {
		t.Errorf("chars = %q", text.chars)
	}
	if !slices.Equal(text.offsets, []int{0, 1, 3, 4, 5}) {
		t.Errorf("offsets = %v", text.offsets)
	}
	if i := text.runeIndex(3); i != 2 {
		t.Errorf("runeIndex(3) = %d, want 2", i)
	}
	if i := text.runeIndex(2); i != 2 { // inside of 'ü'
		t.Errorf("runeIndex(2) = %d, want 2", i)
	}

	ascii := newRuneText("abc")
	if ascii.offsets != nil || ascii.byteIndex(2) != 2 {
		t.Error("ASCII text must not need offsets")
	}
}

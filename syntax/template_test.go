package syntax

import (
	"slices"
	"testing"
)

// groups is an Indexer for a pattern with the given group names.
type groups []string

func (g groups) NumSubexp() int { return len(g) }

func (g groups) SubexpIndex(name string) int {
	if i := slices.Index(g, name); i >= 0 {
		return i + 1
	}
	return -1
}

func TestParseTemplate(t *testing.T) {
	lit := func(s string) TemplateRule { return TemplateRule{Literal: s, Group: -1} }
	ref := func(i int) TemplateRule { return TemplateRule{Group: i} }

	tests := []struct {
		template string
		want     []TemplateRule
	}{
		{"", nil},
		{"abc", []TemplateRule{lit("abc")}},
		{`\1`, []TemplateRule{ref(1)}},
		{`a\2b\1`, []TemplateRule{lit("a"), ref(2), lit("b"), ref(1)}},
		{`\g<0>\g<name>`, []TemplateRule{ref(0), ref(2)}},
		{`\1a`, []TemplateRule{ref(1), lit("a")}},
		{`\101\0\012`, []TemplateRule{lit("A\x00\n")}},
		{`\n\t\\`, []TemplateRule{lit("\n\t\\")}},
		{`\-\.`, []TemplateRule{lit(`\-\.`)}},
	}

	g := groups{"", "name"}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got, err := ParseTemplate(g, tt.template)
			if err != nil {
				t.Fatalf("ParseTemplate(%q) failed: %v", tt.template, err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseTemplate(%q) = %v, want %v", tt.template, got, tt.want)
			}
		})
	}
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{`a\`, "bad escape (end of pattern) at position 1"},
		{`\3`, "invalid group reference 3 at position 1"},
		{`\g<3>`, "invalid group reference 3 at position 3"},
		{`\g`, "missing < at position 2"},
		{`\g<`, "missing group name at position 3"},
		{`\g<a`, "missing >, unterminated name at position 3"},
		{`\g<1a>`, "bad character in group name '1a' at position 3"},
		{`\g<x>`, "unknown group name 'x'"},
		{`\q`, `bad escape \q at position 0`},
		{`\777`, `octal escape value \777 outside of range 0-0o377 at position 0`},
	}

	g := groups{"", "name"}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			_, err := ParseTemplate(g, tt.template)
			if err == nil {
				t.Fatalf("ParseTemplate(%q) succeeded, want error %q", tt.template, tt.want)
			}

			if err.Error() != tt.want {
				t.Errorf("ParseTemplate(%q) error = %q, want %q", tt.template, err.Error(), tt.want)
			}
		})
	}
}

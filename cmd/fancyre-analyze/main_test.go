package main

import (
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		status int
		stdout []string // lines, that must appear in the output
	}{
		{
			name:   "literal",
			args:   []string{"abc", "xabc"},
			status: 0,
			stdout: []string{"strategy: literal", `literal: "abc"`, `"xabc": 0=[1,4]"abc"`},
		},
		{
			name:   "backreference",
			args:   []string{`(\w)\1`, "abbc", "abc"},
			status: 1,
			stdout: []string{"strategy: backtrack", `"abbc": 0=[1,3]"bb" 1=[1,2]"b"`, `"abc": no match`},
		},
		{
			name:   "all matches",
			args:   []string{"-all", "-i", "a(b)?", "AbA"},
			status: 0,
			stdout: []string{"strategy: automaton", `"AbA": 0=[0,2]"Ab" 1=[1,2]"b"`, `"AbA": 0=[2,3]"A" 1=<nil>`},
		},
		{
			name:   "dump",
			args:   []string{"a(?=b)"},
			status: 0,
			stdout: []string{"GROUP 0 [groups=0..1 min=1 const hard]", "    LOOK_AROUND AHEAD [min=0 const hard]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr strings.Builder

			status := run(tt.args, &stdout, &stderr)
			if status != tt.status {
				t.Errorf("status = %d, want %d; stderr: %s", status, tt.status, stderr.String())
			}

			lines := strings.Split(stdout.String(), "\n")
			for _, want := range tt.stdout {
				found := false
				for _, line := range lines {
					if line == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("output does not contain %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr strings.Builder

	if status := run([]string{`\1(a)`}, &stdout, &stderr); status != 2 {
		t.Errorf("status = %d, want 2", status)
	}
	if !strings.Contains(stderr.String(), "invalid backreference") {
		t.Errorf("unexpected error output: %s", stderr.String())
	}

	stderr.Reset()
	if status := run(nil, &stdout, &stderr); status != 2 {
		t.Errorf("status = %d, want 2", status)
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Errorf("usage is not printed: %s", stderr.String())
	}
}

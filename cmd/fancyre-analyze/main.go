// Command fancyre-analyze prints the analysis of a pattern and the matches in the given texts.
//
// Usage:
//
//	fancyre-analyze [flags] pattern [text...]
//
// The exit status is 0, if every text contains a match, 1 if some text contains no match,
// and 2 if the pattern is invalid.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magnetde/starlark-fancyre/regex"
	"github.com/magnetde/starlark-fancyre/syntax"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fancyre-analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		ignoreCase = fs.Bool("i", false, "case-insensitive matching")
		multiline  = fs.Bool("m", false, "^ and $ match at line boundaries")
		dotAll     = fs.Bool("s", false, ". matches a newline")
		verbose    = fs.Bool("x", false, "ignore whitespace and comments in the pattern")
		all        = fs.Bool("all", false, "print all matches instead of the first one")
		timeout    = fs.Duration("timeout", 0, "match timeout of the backtracking engine")
	)

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fancyre-analyze [flags] pattern [text...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	var flags syntax.Flags
	if *ignoreCase {
		flags |= syntax.FlagIgnoreCase
	}
	if *multiline {
		flags |= syntax.FlagMultiline
	}
	if *dotAll {
		flags |= syntax.FlagDotAll
	}
	if *verbose {
		flags |= syntax.FlagVerbose
	}

	re, err := regex.CompileOptions(fs.Arg(0), flags, regex.Options{MatchTimeout: *timeout})
	if err != nil {
		fmt.Fprintf(stderr, "fancyre-analyze: %v\n", err)
		return 2
	}

	fmt.Fprint(stdout, re.Analysis().Dump())
	fmt.Fprintf(stdout, "strategy: %s\n", re.Strategy())
	if lit, ok := re.Literal(); ok {
		fmt.Fprintf(stdout, "literal: %q\n", lit)
	}

	status := 0
	for _, text := range fs.Args()[1:] {
		n := 1
		if *all {
			n = -1
		}

		matches, err := re.FindAll(text, 0, n)
		if err != nil {
			fmt.Fprintf(stderr, "fancyre-analyze: %v\n", err)
			return 2
		}
		if len(matches) == 0 {
			fmt.Fprintf(stdout, "%q: no match\n", text)
			status = 1
			continue
		}

		for _, a := range matches {
			fmt.Fprintf(stdout, "%q: %s\n", text, formatMatch(text, a))
		}
	}

	return status
}

// formatMatch formats the spans and texts of all groups of a match.
func formatMatch(text string, a []int) string {
	var b strings.Builder

	for i := 0; i < len(a); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}

		if a[i] < 0 {
			fmt.Fprintf(&b, "%d=<nil>", i/2)
		} else {
			fmt.Fprintf(&b, "%d=[%d,%d]%q", i/2, a[i], a[i+1], text[a[i]:a[i+1]])
		}
	}

	return b.String()
}

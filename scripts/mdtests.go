// mdtests lists and lints the markdown test corpus.
//
// Usage:
//
//	go run ./scripts/mdtests.go [-lint] [glob]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ddlang/ddc/sexy"
)

type fileReport struct {
	path   string
	cases  []sexy.TestCase
	counts map[sexy.AssertionType]int
}

func loadFile(path string) (*fileReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := sexy.ExtractTestCases(string(content))
	if err != nil {
		return nil, err
	}
	r := &fileReport{path: path, cases: cases, counts: make(map[sexy.AssertionType]int)}
	for _, tc := range cases {
		for _, a := range tc.Assertions {
			r.counts[a.Type]++
		}
	}
	return r, nil
}

// lint reports problems ExtractTestCases accepts but the runner would trip on.
func lint(r *fileReport) []string {
	var problems []string
	seen := make(map[string]int)
	for _, tc := range r.cases {
		if line, ok := seen[tc.Name]; ok {
			problems = append(problems, fmt.Sprintf("%s:%d: duplicate test name %q (first at line %d)", r.path, tc.Line, tc.Name, line))
		} else {
			seen[tc.Name] = tc.Line
		}

		hasError := false
		for _, a := range tc.Assertions {
			if a.Type == sexy.AssertionTypeCompileError && len(a.Lines()) > 0 {
				hasError = true
			}
		}
		for _, a := range tc.Assertions {
			switch a.Type {
			case sexy.AssertionTypeExecute, sexy.AssertionTypeAsm:
				if hasError {
					problems = append(problems, fmt.Sprintf("%s:%d: %s fence in test %q that expects compile errors", r.path, a.Line, a.Type, tc.Name))
				}
			}
			if a.Type == sexy.AssertionTypeAsm && len(a.Lines()) == 0 {
				problems = append(problems, fmt.Sprintf("%s:%d: empty asm fence in test %q", r.path, a.Line, tc.Name))
			}
		}
	}
	return problems
}

func main() {
	lintOnly := flag.Bool("lint", false, "Only report problems; exit 1 if any are found")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdtests [-lint] [glob]\n")
		fmt.Fprintf(os.Stderr, "List or lint markdown test files (default glob: test/*_test.md)\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	pattern := "test/*_test.md"
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(paths)

	var problems []string
	total := make(map[sexy.AssertionType]int)
	cases := 0
	for _, path := range paths {
		r, err := loadFile(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		problems = append(problems, lint(r)...)
		cases += len(r.cases)
		for k, v := range r.counts {
			total[k] += v
		}
		if !*lintOnly {
			fmt.Printf("%s: %d tests\n", path, len(r.cases))
			for _, tc := range r.cases {
				var kinds []string
				for _, a := range tc.Assertions {
					kinds = append(kinds, string(a.Type))
				}
				fmt.Printf("    %-40s %s\n", tc.Name, strings.Join(kinds, ", "))
			}
		}
	}

	if !*lintOnly {
		var kinds []string
		for k := range total {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		fmt.Printf("\n%d files, %d tests\n", len(paths), cases)
		for _, k := range kinds {
			fmt.Printf("    %-16s %d\n", k, total[sexy.AssertionType(k)])
		}
	}

	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p)
	}
	if len(problems) > 0 {
		os.Exit(1)
	}
}

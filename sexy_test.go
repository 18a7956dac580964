package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ddlang/ddc/sexy"
	"github.com/nalgeon/be"
)

func TestSexyAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					if tc.InputType != sexy.InputTypeProgram {
						t.Fatalf("unknown input type: %s", tc.InputType)
					}
					for _, assertion := range tc.Assertions {
						t.Run(string(assertion.Type), func(t *testing.T) {
							runAssertion(t, tc, assertion)
						})
					}
				})
			}
		})
	}
}

func runAssertion(t *testing.T, tc sexy.TestCase, a sexy.Assertion) {
	source := []byte(tc.Input)

	switch a.Type {
	case sexy.AssertionTypeAST:
		program, err := parseSource(source)
		be.Err(t, err, nil)
		actual, err := sexy.Parse(ToSExpr(program))
		be.Err(t, err, nil)
		if err := sexy.Match(a.ParsedSexy, actual); err != nil {
			t.Errorf("line %d: %v", a.Line, err)
		}

	case sexy.AssertionTypeCompileError:
		_, err := compileProgram(source, compileOptions{target: TargetLinux, gc: GCAuto})
		wants := a.Lines()
		if len(wants) == 0 {
			be.Err(t, err, nil)
			return
		}
		if err == nil {
			t.Fatalf("line %d: expected compile errors %q, got none", a.Line, wants)
		}
		for _, want := range wants {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("line %d: error %q does not mention %q", a.Line, err.Error(), want)
			}
		}

	case sexy.AssertionTypeAsm:
		asm, err := compileProgram(source, compileOptions{target: TargetLinux, gc: GCAuto})
		be.Err(t, err, nil)
		assertLinesInOrder(t, a, asm)

	case sexy.AssertionTypeSymbols, sexy.AssertionTypeSymbolsManual:
		mode := GCAuto
		if a.Type == sexy.AssertionTypeSymbolsManual {
			mode = GCManual
		}
		var warn strings.Builder
		_, table, err := checkProgram(source, compileOptions{target: TargetLinux, gc: mode, warn: &warn})
		be.Err(t, err, nil)
		// Manual reclamation of a program that passed analysis never warns.
		if mode == GCManual && warn.Len() > 0 {
			t.Errorf("line %d: unexpected reclamation warnings:\n%s", a.Line, warn.String())
		}
		got := names(table.Symbols())
		if want := a.Lines(); strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("line %d: surviving symbols %q, want %q", a.Line, got, want)
		}

	case sexy.AssertionTypeExecute:
		got := executeProgram(t, tc.Input)
		be.Equal(t, strings.TrimSpace(got), strings.TrimSpace(a.Content))

	default:
		t.Fatalf("line %d: unknown assertion type %s", a.Line, a.Type)
	}
}

// assertLinesInOrder checks that every expected line occurs in asm after
// the previous one. Runs of whitespace compare equal.
func assertLinesInOrder(t *testing.T, a sexy.Assertion, asm string) {
	t.Helper()
	var actual []string
	for _, l := range strings.Split(asm, "\n") {
		actual = append(actual, normalizeAsm(l))
	}
	i := 0
	for _, want := range a.Lines() {
		want = normalizeAsm(want)
		for i < len(actual) && actual[i] != want {
			i++
		}
		if i == len(actual) {
			t.Errorf("line %d: %q not found in order in:\n%s", a.Line, want, asm)
			return
		}
		i++
	}
}

func normalizeAsm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

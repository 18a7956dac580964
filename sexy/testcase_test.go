package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Printing

## Test: print literal
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `ast
(program (print (integer 1)))
` + fence + `

## Test: print sum
` + fence + `dd-program
print 1 + 2;
` + fence + `
` + fence + `ast
(program (print (binary "+" (integer 1) (integer 2))))
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "print literal")
	be.Equal(t, tc1.Input, "print 1;")
	be.Equal(t, tc1.InputType, InputTypeProgram)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc1.Assertions[0].Content, `(program (print (integer 1)))`)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), `(program (print (integer 1)))`)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "print sum")
	be.Equal(t, tc2.Input, "print 1 + 2;")
	be.Equal(t, tc2.Assertions[0].ParsedSexy.String(), `(program (print (binary "+" (integer 1) (integer 2))))`)
}

func TestExtractTestCases_AllAssertionTypes(t *testing.T) {
	markdown := `## Test: everything
` + fence + `dd-program
var x = 3;
print x;
` + fence + `
` + fence + `ast
(program ...)
` + fence + `
` + fence + `compile-error
` + fence + `
` + fence + `asm
bl         printf;
` + fence + `
` + fence + `symbols
x
` + fence + `
` + fence + `symbols-manual
x
` + fence + `
` + fence + `execute
3
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.Input, "var x = 3;\nprint x;")
	be.Equal(t, len(tc.Assertions), 6)
	be.Equal(t, tc.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc.Assertions[1].Type, AssertionTypeCompileError)
	be.Equal(t, tc.Assertions[2].Type, AssertionTypeAsm)
	be.Equal(t, tc.Assertions[3].Type, AssertionTypeSymbols)
	be.Equal(t, tc.Assertions[4].Type, AssertionTypeSymbolsManual)
	be.Equal(t, tc.Assertions[5].Type, AssertionTypeExecute)

	// Only ast fences are parsed as s-expressions.
	be.True(t, tc.Assertions[0].ParsedSexy != nil)
	be.True(t, tc.Assertions[2].ParsedSexy == nil)

	be.Equal(t, len(tc.Assertions[1].Lines()), 0)
	be.Equal(t, tc.Assertions[2].Lines(), []string{"bl         printf;"})
	be.Equal(t, tc.Assertions[5].Content, "3")
}

func TestAssertionLines(t *testing.T) {
	a := Assertion{Content: "  first  \n\n\tsecond\n   \n"}
	be.Equal(t, a.Lines(), []string{"first", "second"})
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Some document

This is just regular markdown content.

## Regular heading

No test cases here.`

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_InvalidSexyAssertion(t *testing.T) {
	markdown := `## Test: invalid sexy
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `ast
(unclosed list
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "failed to parse Sexy assertion"))
	be.True(t, strings.Contains(err.Error(), "line 6"))
}

func TestExtractTestCases_FenceOutsideTestCase(t *testing.T) {
	tests := []struct {
		name      string
		markdown  string
		fenceType string
	}{
		{
			"program fence outside test",
			"# Document\n\n```dd-program\nprint 1;\n```\n",
			"dd-program",
		},
		{
			"ast fence outside test",
			"# Document\n\n```ast\n(program)\n```\n",
			"ast",
		},
		{
			"execute fence outside test",
			"# Document\n\n```execute\n1\n```\n",
			"execute",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.fenceType+" fence found outside of test case"))
			be.True(t, strings.Contains(err.Error(), "line 4"))
		})
	}
}

func TestExtractTestCases_UnknownFenceOutsideTest(t *testing.T) {
	markdown := `# Document with unknown code block

` + fence + `go
func main() {}
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'go' found outside of test case"))
}

func TestExtractTestCases_UnknownFenceInTest(t *testing.T) {
	markdown := `## Test: with unknown fence
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `python
print("hello")
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'python' in test 'with unknown fence'"))
}

func TestExtractTestCases_TestMissingInputFence(t *testing.T) {
	markdown := `## Test: no input
` + fence + `ast
(program)
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no input' has no input fence"))
}

func TestExtractTestCases_TestMissingAssertionFence(t *testing.T) {
	markdown := `## Test: no assertions
` + fence + `dd-program
print 1;
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no assertions' has no assertion fences"))
}

func TestExtractTestCases_MultipleInputFences(t *testing.T) {
	markdown := `## Test: multiple inputs
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `dd-program
print 2;
` + fence + `
` + fence + `execute
1
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "multiple input fences found in test 'multiple inputs'"))
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := `# Document with generic code block

` + fence + `
some code without language
` + fence + `

## Test: valid test
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `execute
1
` + fence + `

` + fence + `
more code without language in test
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Name, "valid test")
	be.Equal(t, testCases[0].Input, "print 1;")
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_ErrorInSecondTest(t *testing.T) {
	markdown := `## Test: first test
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `execute
1
` + fence + `

## Test: second test missing input
` + fence + `execute
2
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'second test missing input' has no input fence"))
}

func TestExtractTestCases_LineNumbers(t *testing.T) {
	markdown := `# Title

## Test: first
` + fence + `dd-program
print 1;
` + fence + `
` + fence + `execute
1
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, testCases[0].Line, 3)
	be.Equal(t, testCases[0].Assertions[0].Line, 8)
}

func TestExtractTestCases_MultilineSexy(t *testing.T) {
	markdown := `## Test: multiline
` + fence + `dd-program
var x = y * 2;
` + fence + `
` + fence + `ast
(program
 (var "x"
  (binary "*"
   (ident "y")
   (integer 2))))
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)

	parsed := testCases[0].Assertions[0].ParsedSexy
	be.Equal(t, parsed.Type, NodeList)
	be.Equal(t, len(parsed.Items), 2)
	be.Equal(t, parsed.Items[0].Text, "program")
	be.Equal(t, parsed.String(), `(program (var "x" (binary "*" (ident "y") (integer 2))))`)
}

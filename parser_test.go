package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func parseOK(t *testing.T, source string) *Program {
	t.Helper()
	l := NewLexer([]byte(source))
	l.NextToken()
	program := ParseProgram(l)
	be.Equal(t, l.Errors.String(), "")
	return program
}

func parseErrors(source string) []string {
	l := NewLexer([]byte(source))
	l.NextToken()
	ParseProgram(l)
	return l.Errors.Errors()
}

func parseExpr(t *testing.T, source string) string {
	t.Helper()
	l := NewLexer([]byte(source))
	l.NextToken()
	expr := ParseExpression(l)
	be.Equal(t, l.Errors.String(), "")
	be.Equal(t, l.CurrTokenType, EOF)
	return ToSExpr(expr)
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", `(integer 42)`},
		{"x", `(ident "x")`},
		{"1 + 2", `(binary "+" (integer 1) (integer 2))`},
		{"1 + 2 * 3", `(binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))`},
		{"(1 + 2) * 3", `(binary "*" (binary "+" (integer 1) (integer 2)) (integer 3))`},
		{"1 - 2 - 3", `(binary "-" (binary "-" (integer 1) (integer 2)) (integer 3))`},
		{"a < b + 1", `(binary "<" (ident "a") (binary "+" (ident "b") (integer 1)))`},
		{"a & b | c", `(binary "|" (binary "&" (ident "a") (ident "b")) (ident "c"))`},
		{"a == b & c", `(binary "&" (binary "==" (ident "a") (ident "b")) (ident "c"))`},
		{"a >= 1 | b <= 2", `(binary "|" (binary ">=" (ident "a") (integer 1)) (binary "<=" (ident "b") (integer 2)))`},
		{"-x * 2", `(binary "*" (unary "-" (ident "x")) (integer 2))`},
		{"~x", `(unary "~" (ident "x"))`},
		{"!(a > b)", `(unary "!" (binary ">" (ident "a") (ident "b")))`},
		{"--1", `(unary "-" (unary "-" (integer 1)))`},
		{"f()", `(call "f" (args))`},
		{"f(1, x + 2)", `(call "f" (args (integer 1) (binary "+" (ident "x") (integer 2))))`},
		{"a[i + 1]", `(idx "a" (binary "+" (ident "i") (integer 1)))`},
		{"f(a[0]) * 2", `(binary "*" (call "f" (args (idx "a" (integer 0)))) (integer 2))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			be.Equal(t, parseExpr(t, tt.input), tt.want)
		})
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"var x = 3;", `(program (var "x" (integer 3)))`},
		{"var a[10];", `(program (var "a" (array (integer 10))))`},
		{"x = x + 1;", `(program (assign "x" (binary "+" (ident "x") (integer 1))))`},
		{"a[2] = 7;", `(program (idx-assign "a" (integer 2) (integer 7)))`},
		{"print 1;", `(program (print (integer 1)))`},
		{"free x;", `(program (free "x"))`},
		{"f(1);", `(program (call "f" (args (integer 1))))`},
		{"{ var y = 1; }", `(program (block (var "y" (integer 1))))`},
		{"if x > 1 { print 1; }", `(program (if (binary ">" (ident "x") (integer 1)) (block (print (integer 1)))))`},
		{
			"if (1 > 2) { print 1; } else { print 2; }",
			`(program (if (binary ">" (integer 1) (integer 2)) (block (print (integer 1))) (block (print (integer 2)))))`,
		},
		{
			"if a { } else if b { } else { print 3; }",
			`(program (if (ident "a") (block) (block (if (ident "b") (block) (block (print (integer 3)))))))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			be.Equal(t, ToSExpr(parseOK(t, tt.input)), tt.want)
		})
	}
}

func TestParseFunctions(t *testing.T) {
	program := parseOK(t, `
		func add(a, b) int {
			return a + b;
		}
		func isPos(n) bool { return n > 0; }
		func hello() { print 1; return; }
	`)
	be.Equal(t, len(program.Decls), 3)
	be.Equal(t, ToSExpr(program.Decls[0]),
		`(func "add" ["a" "b"] int (block (return (binary "+" (ident "a") (ident "b")))))`)
	be.Equal(t, ToSExpr(program.Decls[1]),
		`(func "isPos" ["n"] bool (block (return (binary ">" (ident "n") (integer 0)))))`)
	be.Equal(t, ToSExpr(program.Decls[2]),
		`(func "hello" [] void (block (print (integer 1)) (return)))`)

	fn := program.Decls[0].(*FuncDecl)
	be.Equal(t, fn.Params, []string{"a", "b"})
	be.Equal(t, fn.ReturnType, TypeInt)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"var x = ;", "error: line 1: unexpected ';' in expression"},
		{"var x = 1", "error: line 1: expected ; but got end of file"},
		{"x + 1;", "error: line 1: expression statement must be a function call"},
		{"{ func f() {} }", "error: line 1: function declarations are only allowed at the top level"},
		{"else { }", "error: line 1: unexpected 'else' at start of statement"},
		{"func f() string {}", "error: line 1: unknown return type 'string'"},
		{"print (1;", "error: line 1: expected ) but got ';'"},
		{"\n\nvar 5 = 1;", "error: line 3: expected identifier but got integer 5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			errs := parseErrors(tt.input)
			be.True(t, len(errs) > 0)
			be.Equal(t, errs[0], tt.want)
		})
	}
}

func TestParserStopsAtFirstError(t *testing.T) {
	errs := parseErrors("var = 1; var = 2; var = 3;")
	be.Equal(t, len(errs), 1)
}

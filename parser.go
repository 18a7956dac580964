package main

// The parser stops at the first syntax error; every loop below also checks
// l.Errors so a malformed program cannot spin forever.

// ParseProgram parses declarations until EOF.
func ParseProgram(l *Lexer) *Program {
	program := &Program{}
	for l.CurrTokenType != EOF && !l.Errors.HasErrors() {
		if l.CurrTokenType == FUNC {
			program.Decls = append(program.Decls, parseFunction(l))
		} else {
			program.Decls = append(program.Decls, ParseStatement(l))
		}
	}
	return program
}

// SkipToken advances past the current token, recording an error if it
// doesn't match the expected type.
func SkipToken(l *Lexer, expectedType TokenType) bool {
	if l.CurrTokenType != expectedType {
		l.Errors.Addf("line %d: expected %s but got %s", l.CurrLine, describeToken(expectedType, ""), describeToken(l.CurrTokenType, l.CurrLiteral))
		return false
	}
	l.NextToken()
	return true
}

func describeToken(tt TokenType, lit string) string {
	switch tt {
	case EOF:
		return "end of file"
	case IDENT:
		if lit != "" {
			return "identifier '" + lit + "'"
		}
		return "identifier"
	case INT:
		if lit != "" {
			return "integer " + lit
		}
		return "integer"
	}
	if lit != "" {
		return "'" + lit + "'"
	}
	return string(tt)
}

func expectIdent(l *Lexer) string {
	name := l.CurrLiteral
	if !SkipToken(l, IDENT) {
		return ""
	}
	return name
}

// parseFunction parses: func name(a, b) int { ... }
func parseFunction(l *Lexer) *FuncDecl {
	SkipToken(l, FUNC)
	fn := &FuncDecl{Name: expectIdent(l), ReturnType: TypeVoid}
	SkipToken(l, LPAREN)
	for l.CurrTokenType != RPAREN && l.CurrTokenType != EOF && !l.Errors.HasErrors() {
		fn.Params = append(fn.Params, expectIdent(l))
		if l.CurrTokenType == COMMA {
			SkipToken(l, COMMA)
		} else if l.CurrTokenType != RPAREN {
			SkipToken(l, RPAREN)
		}
	}
	SkipToken(l, RPAREN)

	if l.CurrTokenType == IDENT {
		switch l.CurrLiteral {
		case "int":
			fn.ReturnType = TypeInt
		case "bool":
			fn.ReturnType = TypeBool
		default:
			l.Errors.Addf("line %d: unknown return type '%s'", l.CurrLine, l.CurrLiteral)
		}
		l.NextToken()
	}

	fn.Body = parseBlock(l)
	return fn
}

func parseBlock(l *Lexer) *Block {
	block := &Block{}
	if !SkipToken(l, LBRACE) {
		return block
	}
	for l.CurrTokenType != RBRACE && l.CurrTokenType != EOF && !l.Errors.HasErrors() {
		block.Stmts = append(block.Stmts, ParseStatement(l))
	}
	SkipToken(l, RBRACE)
	return block
}

// ParseStatement parses a statement and returns an AST node
func ParseStatement(l *Lexer) Stmt {
	switch l.CurrTokenType {
	case VAR:
		SkipToken(l, VAR)
		name := expectIdent(l)
		if l.CurrTokenType == LBRACKET {
			SkipToken(l, LBRACKET)
			size := ParseExpression(l)
			SkipToken(l, RBRACKET)
			SkipToken(l, SEMICOLON)
			return &VarDecl{Name: name, Init: &ArraySize{Size: size}}
		}
		SkipToken(l, ASSIGN)
		init := ParseExpression(l)
		SkipToken(l, SEMICOLON)
		return &VarDecl{Name: name, Init: init}

	case IDENT:
		switch l.PeekToken() {
		case ASSIGN:
			name := expectIdent(l)
			SkipToken(l, ASSIGN)
			value := ParseExpression(l)
			SkipToken(l, SEMICOLON)
			return &AssignStmt{Name: name, Value: value}
		case LBRACKET:
			name := expectIdent(l)
			SkipToken(l, LBRACKET)
			index := ParseExpression(l)
			SkipToken(l, RBRACKET)
			SkipToken(l, ASSIGN)
			value := ParseExpression(l)
			SkipToken(l, SEMICOLON)
			return &IndexAssignStmt{Array: name, Index: index, Value: value}
		}
		line := l.CurrLine
		expr := ParseExpression(l)
		SkipToken(l, SEMICOLON)
		if call, ok := expr.(*CallExpr); ok {
			return call
		}
		l.Errors.Addf("line %d: expression statement must be a function call", line)
		return &Block{}

	case IF:
		return parseIf(l)

	case RETURN:
		SkipToken(l, RETURN)
		ret := &ReturnStmt{}
		if l.CurrTokenType != SEMICOLON {
			ret.Value = ParseExpression(l)
		}
		SkipToken(l, SEMICOLON)
		return ret

	case PRINT:
		SkipToken(l, PRINT)
		value := ParseExpression(l)
		SkipToken(l, SEMICOLON)
		return &PrintStmt{Value: value}

	case FREE:
		SkipToken(l, FREE)
		name := expectIdent(l)
		SkipToken(l, SEMICOLON)
		return &FreeStmt{Name: name}

	case LBRACE:
		return parseBlock(l)

	case FUNC:
		l.Errors.Addf("line %d: function declarations are only allowed at the top level", l.CurrLine)
		return &Block{}

	default:
		l.Errors.Addf("line %d: unexpected %s at start of statement", l.CurrLine, describeToken(l.CurrTokenType, l.CurrLiteral))
		return &Block{}
	}
}

func parseIf(l *Lexer) *IfStmt {
	SkipToken(l, IF)
	stmt := &IfStmt{Cond: ParseExpression(l)}
	stmt.Then = parseBlock(l)
	if l.CurrTokenType == ELSE {
		SkipToken(l, ELSE)
		if l.CurrTokenType == IF {
			stmt.Else = &Block{Stmts: []Stmt{parseIf(l)}}
		} else {
			stmt.Else = parseBlock(l)
		}
	}
	return stmt
}

// precedence returns the precedence level for a given token type
func precedence(tokenType TokenType) int {
	switch tokenType {
	case BIT_OR:
		return 1
	case BIT_AND:
		return 2
	case EQ, LT, GT, LE, GE:
		return 3
	case PLUS, MINUS:
		return 4
	case ASTERISK:
		return 5
	default:
		return 0 // not an operator
	}
}

// unaryPrecedence binds prefix operators tighter than any binary operator.
const unaryPrecedence = 6

var binaryOps = map[TokenType]BinaryOp{
	PLUS:     Add,
	MINUS:    Sub,
	ASTERISK: Mul,
	GT:       Greater,
	LT:       Less,
	BIT_AND:  And,
	BIT_OR:   Or,
	EQ:       Equal,
	GE:       GreaterEqual,
	LE:       LessEqual,
}

// ParseExpression parses an expression and returns an AST node
func ParseExpression(l *Lexer) Expr {
	return parseExpressionWithPrecedence(l, 1)
}

// parseExpressionWithPrecedence implements precedence climbing
func parseExpressionWithPrecedence(l *Lexer, minPrec int) Expr {
	var left Expr

	switch l.CurrTokenType {
	case MINUS:
		SkipToken(l, MINUS)
		left = &UnaryExpr{Op: Negate, Operand: parseExpressionWithPrecedence(l, unaryPrecedence)}
	case TILDE:
		SkipToken(l, TILDE)
		left = &UnaryExpr{Op: BitNot, Operand: parseExpressionWithPrecedence(l, unaryPrecedence)}
	case BANG:
		SkipToken(l, BANG)
		left = &UnaryExpr{Op: LogicalNot, Operand: parseExpressionWithPrecedence(l, unaryPrecedence)}
	default:
		left = parsePrimary(l)
	}

	for !l.Errors.HasErrors() {
		prec := precedence(l.CurrTokenType)
		if prec == 0 || prec < minPrec {
			break
		}
		op := binaryOps[l.CurrTokenType]
		l.NextToken()
		right := parseExpressionWithPrecedence(l, prec+1) // left-associative
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left
}

// parsePrimary handles literals, identifiers, calls, indexing and parentheses
func parsePrimary(l *Lexer) Expr {
	switch l.CurrTokenType {
	case INT:
		node := &IntLiteral{Value: l.CurrIntValue}
		SkipToken(l, INT)
		return node

	case IDENT:
		name := expectIdent(l)
		switch l.CurrTokenType {
		case LPAREN:
			SkipToken(l, LPAREN)
			args := &ArgList{}
			for l.CurrTokenType != RPAREN && l.CurrTokenType != EOF && !l.Errors.HasErrors() {
				args.Args = append(args.Args, ParseExpression(l))
				if l.CurrTokenType == COMMA {
					SkipToken(l, COMMA)
				} else if l.CurrTokenType != RPAREN {
					SkipToken(l, RPAREN)
				}
			}
			SkipToken(l, RPAREN)
			return &CallExpr{Name: name, Args: args}
		case LBRACKET:
			SkipToken(l, LBRACKET)
			index := ParseExpression(l)
			SkipToken(l, RBRACKET)
			return &IndexExpr{Array: name, Index: index}
		}
		return &VarRef{Name: name}

	case LPAREN:
		SkipToken(l, LPAREN)
		expr := ParseExpression(l)
		SkipToken(l, RPAREN)
		return expr

	default:
		l.Errors.Addf("line %d: unexpected %s in expression", l.CurrLine, describeToken(l.CurrTokenType, l.CurrLiteral))
		return &IntLiteral{}
	}
}

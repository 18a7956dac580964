package main

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	// Special tokens
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT = "IDENT" // main, foo, _bar
	INT   = "INT"   // 12345

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	TILDE    = "~"
	ASTERISK = "*"

	LT = "<"
	GT = ">"
	EQ = "=="
	LE = "<="
	GE = ">="

	BIT_AND = "&"
	BIT_OR  = "|"

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	LBRACKET  = "["
	RBRACKET  = "]"

	// Keywords
	IF     = "IF"
	ELSE   = "ELSE"
	FUNC   = "FUNC"
	RETURN = "RETURN"
	VAR    = "VAR"
	PRINT  = "PRINT"
	FREE   = "FREE"
)

var keywords = map[string]TokenType{
	"if":     IF,
	"else":   ELSE,
	"func":   FUNC,
	"return": RETURN,
	"var":    VAR,
	"print":  PRINT,
	"free":   FREE,
}

// Lexer scans a null-terminated source buffer one token at a time. The
// current token is exposed through the Curr* fields.
type Lexer struct {
	input []byte
	pos   int
	line  int

	CurrTokenType TokenType
	CurrLiteral   string
	CurrIntValue  int64 // only meaningful when CurrTokenType == INT
	CurrLine      int

	Errors *ErrorCollection
}

// NewLexer creates a lexer over input, appending the terminating 0 byte if
// the caller did not.
func NewLexer(input []byte) *Lexer {
	if len(input) == 0 || input[len(input)-1] != 0 {
		buf := make([]byte, len(input), len(input)+1)
		copy(buf, input)
		input = append(buf, 0)
	}
	return &Lexer{input: input, line: 1, Errors: &ErrorCollection{}}
}

// NextToken scans the next token into the Curr* fields.
// Call repeatedly until CurrTokenType == EOF.
func (l *Lexer) NextToken() {
	l.skipWhitespace()

	c := l.input[l.pos]
	l.CurrIntValue = 0
	l.CurrLine = l.line

	switch {
	case c == 0 && l.atEnd():
		l.set(EOF, "", 0)

	case c == '=':
		if l.input[l.pos+1] == '=' {
			l.set(EQ, "==", 2)
		} else {
			l.set(ASSIGN, "=", 1)
		}

	case c == '<':
		if l.input[l.pos+1] == '=' {
			l.set(LE, "<=", 2)
		} else {
			l.set(LT, "<", 1)
		}

	case c == '>':
		if l.input[l.pos+1] == '=' {
			l.set(GE, ">=", 2)
		} else {
			l.set(GT, ">", 1)
		}

	case c == '+':
		l.set(PLUS, "+", 1)
	case c == '-':
		l.set(MINUS, "-", 1)
	case c == '*':
		l.set(ASTERISK, "*", 1)
	case c == '!':
		l.set(BANG, "!", 1)
	case c == '~':
		l.set(TILDE, "~", 1)
	case c == '&':
		l.set(BIT_AND, "&", 1)
	case c == '|':
		l.set(BIT_OR, "|", 1)
	case c == ',':
		l.set(COMMA, ",", 1)
	case c == ';':
		l.set(SEMICOLON, ";", 1)
	case c == '(':
		l.set(LPAREN, "(", 1)
	case c == ')':
		l.set(RPAREN, ")", 1)
	case c == '{':
		l.set(LBRACE, "{", 1)
	case c == '}':
		l.set(RBRACE, "}", 1)
	case c == '[':
		l.set(LBRACKET, "[", 1)
	case c == ']':
		l.set(RBRACKET, "]", 1)

	case isLetter(c):
		lit := l.readIdentifier()
		l.CurrLiteral = lit
		if kw, ok := keywords[lit]; ok {
			l.CurrTokenType = kw
		} else {
			l.CurrTokenType = IDENT
		}

	case isDigit(c):
		lit, val, ok := l.readNumber()
		l.CurrTokenType = INT
		l.CurrLiteral = lit
		l.CurrIntValue = val
		if !ok {
			l.Errors.Addf("line %d: integer literal %s out of range", l.line, lit)
		}

	default:
		l.Errors.Addf("line %d: unexpected character %q", l.line, c)
		l.set(ILLEGAL, string(c), 1)
	}
}

func (l *Lexer) set(tt TokenType, lit string, width int) {
	l.CurrTokenType = tt
	l.CurrLiteral = lit
	l.pos += width
}

// PeekToken returns the next token type without advancing the lexer.
func (l *Lexer) PeekToken() TokenType {
	saved := *l
	reported := l.Errors.Count()
	l.NextToken()
	next := l.CurrTokenType
	*l = saved
	l.Errors.messages = l.Errors.messages[:reported]
	return next
}

// atEnd reports whether pos is on the terminating 0. A 0 byte anywhere else
// is an ordinary illegal character.
func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)-1
}

func (l *Lexer) skipWhitespace() {
	for {
		c := l.input[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.input[l.pos+1] == '/':
			l.skipLineComment()
		case c == '/' && l.input[l.pos+1] == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	for l.input[l.pos] != '\n' && !l.atEnd() {
		l.pos++
	}
}

func (l *Lexer) skipBlockComment() {
	l.pos += 2
	for !l.atEnd() {
		if l.input[l.pos] == '*' && l.input[l.pos+1] == '/' {
			l.pos += 2
			return
		}
		if l.input[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	l.Errors.Addf("line %d: unterminated block comment", l.line)
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.input[l.pos]) || isDigit(l.input[l.pos]) {
		l.pos++
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() (string, int64, bool) {
	start := l.pos
	var val int64
	ok := true
	for isDigit(l.input[l.pos]) {
		d := int64(l.input[l.pos] - '0')
		if val > (1<<63-1-d)/10 {
			ok = false
		}
		val = val*10 + d
		l.pos++
	}
	return string(l.input[start:l.pos]), val, ok
}

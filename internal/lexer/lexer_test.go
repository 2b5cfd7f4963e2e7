package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `let x = 5 + 10
func add(a: int, b: int) -> int {
  return a + b
}

if x > 10 {
  return "big"
} else {
  return "small"
}

let xs: int[] = [1, 2, 3]
struct Point { x: int, y: int }

// line comment
/* block
   comment */
true && false || !true
`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "5"},
		{PLUS, "+"},
		{INT, "10"},

		{FUNC, "func"},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "a"},
		{COLON, ":"},
		{INT_TYPE, "int"},
		{COMMA, ","},
		{IDENT, "b"},
		{COLON, ":"},
		{INT_TYPE, "int"},
		{RPAREN, ")"},
		{ARROW, "->"},
		{INT_TYPE, "int"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{IDENT, "a"},
		{PLUS, "+"},
		{IDENT, "b"},
		{RBRACE, "}"},

		{IF, "if"},
		{IDENT, "x"},
		{GT, ">"},
		{INT, "10"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{STRING, "big"},
		{RBRACE, "}"},
		{ELSE, "else"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{STRING, "small"},
		{RBRACE, "}"},

		{LET, "let"},
		{IDENT, "xs"},
		{COLON, ":"},
		{INT_TYPE, "int"},
		{LBRACKET, "["},
		{RBRACKET, "]"},
		{ASSIGN, "="},
		{LBRACKET, "["},
		{INT, "1"},
		{COMMA, ","},
		{INT, "2"},
		{COMMA, ","},
		{INT, "3"},
		{RBRACKET, "]"},

		{STRUCT, "struct"},
		{IDENT, "Point"},
		{LBRACE, "{"},
		{IDENT, "x"},
		{COLON, ":"},
		{INT_TYPE, "int"},
		{COMMA, ","},
		{IDENT, "y"},
		{COLON, ":"},
		{INT_TYPE, "int"},
		{RBRACE, "}"},

		{TRUE, "true"},
		{AND, "&&"},
		{FALSE, "false"},
		{OR, "||"},
		{NOT, "!"},
		{TRUE, "true"},

		{EOF, ""},
	}

	l := New(input, "test.flow")

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestFloatLiterals(t *testing.T) {
	input := `3.14 2.0 10 42`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{FLOAT, "3.14"},
		{FLOAT, "2.0"},
		{INT, "10"},
		{INT, "42"},
		{EOF, ""},
	}

	l := New(input, "test.flow")

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	input := `"hello\nworld" "tab\there" "quote\"inside\""`

	l := New(input, "test.flow")

	tok1 := l.NextToken()
	if tok1.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok1.Type)
	}
	if tok1.Literal != "hello\nworld" {
		t.Fatalf("expected %q, got %q", "hello\nworld", tok1.Literal)
	}

	tok2 := l.NextToken()
	if tok2.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok2.Type)
	}
	if tok2.Literal != "tab\there" {
		t.Fatalf("expected %q, got %q", "tab\there", tok2.Literal)
	}

	tok3 := l.NextToken()
	if tok3.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok3.Type)
	}
	if tok3.Literal != `quote"inside"` {
		t.Fatalf("expected %q, got %q", `quote"inside"`, tok3.Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"hello`, "test.flow")
	tok := l.NextToken()
	if tok.Type != INVALID {
		t.Fatalf("expected INVALID, got %q", tok.Type)
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % == != < > <= >= && || ! -> .. ... << >> :: & | ^ ~ ? . : ; ,`

	tests := []TokenType{
		PLUS, MINUS, STAR, SLASH, PERCENT,
		EQ, NEQ, LT, GT, LTE, GTE,
		AND, OR, NOT,
		ARROW, RANGE, ELLIPSIS, SHL, SHR, DCOLON,
		BITAND, BITOR, BITXOR, BITNOT,
		QUESTION, DOT, COLON, SEMICOLON, COMMA,
		EOF,
	}

	l := New(input, "test.flow")

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestKeywords(t *testing.T) {
	keywords := []string{
		"let", "mut", "func", "return", "struct", "type",
		"if", "else", "for", "in", "while", "link", "export",
		"async", "await", "inline", "import", "module", "from",
		"as", "impl", "this", "lambda",
		"int", "float", "string", "bool", "void",
		"true", "false",
	}

	for _, kw := range keywords {
		l := New(kw, "test.flow")
		tok := l.NextToken()

		expectedType := LookupIdent(kw)
		if tok.Type != expectedType {
			t.Errorf("keyword %q: expected type %v, got %v", kw, expectedType, tok.Type)
		}

		if tok.Type == IDENT {
			t.Errorf("keyword %q was parsed as IDENT", kw)
		}
	}
}

func TestLineAndColumn(t *testing.T) {
	input := `let x = 5
func add(a, b) {
  a + b
}`

	l := New(input, "test.flow")

	tok := l.NextToken() // let
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("let: expected 1:1, got %d:%d", tok.Line, tok.Column)
	}

	tok = l.NextToken() // x
	if tok.Line != 1 || tok.Column != 5 {
		t.Errorf("x: expected 1:5, got %d:%d", tok.Line, tok.Column)
	}

	for tok.Type != FUNC {
		tok = l.NextToken()
	}

	if tok.Line != 2 || tok.Column != 1 {
		t.Errorf("func: expected 2:1, got %d:%d", tok.Line, tok.Column)
	}
}

func TestComments(t *testing.T) {
	input := `// This is a comment
let x = 5 // inline comment
/* block
   comment */
func f() { x }`

	expected := []TokenType{
		LET, IDENT, ASSIGN, INT,
		FUNC, IDENT, LPAREN, RPAREN, LBRACE, IDENT, RBRACE,
		EOF,
	}

	l := New(input, "test.flow")
	for _, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("expected %v, got %v (%q)", exp, tok.Type, tok.Literal)
		}
	}
}

func TestShebangSkipped(t *testing.T) {
	input := "#!/usr/bin/env flow\nlet x = 1"
	l := New(input, "test.flow")
	tok := l.NextToken()
	if tok.Type != LET {
		t.Fatalf("expected LET after shebang, got %q", tok.Type)
	}
}

func TestNumbersHaveNoExponentOrHex(t *testing.T) {
	// Flow numeric literals are plain decimal digits only; 'e' and 'x'
	// lex as identifier characters following a number, not as part of it.
	l := New("1e10", "test.flow")
	tok := l.NextToken()
	if tok.Type != INT || tok.Literal != "1" {
		t.Fatalf("expected INT(1), got %q(%q)", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "e10" {
		t.Fatalf("expected IDENT(e10), got %q(%q)", tok.Type, tok.Literal)
	}
}

// Package parser implements Flow's recursive-descent parser with
// Pratt-style precedence climbing for expressions, grounded on the
// AILANG parser's prefix/infix function-table idiom
// (internal/parser/parser.go in the teacher tree).
package parser

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
	"github.com/flow-lang/flowc/internal/sid"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Precedence levels, lowest to highest, matching the language's
// documented operator-precedence table exactly (assignment is handled
// as a separate statement form, not through this table — see
// parseExprOrAssignStmt).
const (
	LOWEST int = iota
	LOGICAL_OR
	LOGICAL_AND
	BIT_OR
	BIT_XOR
	BIT_AND
	EQUALITY   // == !=
	COMPARISON // < <= > >=
	SHIFT      // << >>
	ADDITIVE   // + -
	MULTIPLICATIVE
	UNARY
	POSTFIX // call / index / member
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       LOGICAL_OR,
	lexer.AND:      LOGICAL_AND,
	lexer.BITOR:    BIT_OR,
	lexer.BITXOR:   BIT_XOR,
	lexer.BITAND:   BIT_AND,
	lexer.EQ:       EQUALITY,
	lexer.NEQ:      EQUALITY,
	lexer.LT:       COMPARISON,
	lexer.LTE:      COMPARISON,
	lexer.GT:       COMPARISON,
	lexer.GTE:      COMPARISON,
	lexer.SHL:      SHIFT,
	lexer.SHR:      SHIFT,
	lexer.PLUS:     ADDITIVE,
	lexer.MINUS:    ADDITIVE,
	lexer.STAR:     MULTIPLICATIVE,
	lexer.SLASH:    MULTIPLICATIVE,
	lexer.PERCENT:  MULTIPLICATIVE,
	lexer.LPAREN:   POSTFIX,
	lexer.LBRACKET: POSTFIX,
	lexer.DOT:      POSTFIX,
}

// syncSet is the token-kind synchronization set used by panic-mode
// recovery: tokens that plausibly begin a new statement or declaration.
var syncSet = map[lexer.TokenType]bool{
	lexer.FUNC:   true,
	lexer.STRUCT: true,
	lexer.LET:    true,
	lexer.MUT:    true,
	lexer.RETURN: true,
	lexer.IF:     true,
	lexer.FOR:    true,
	lexer.WHILE:  true,
}

// Parser parses Flow source into a Program. It never aborts on the
// first error: in collector mode it records every *errors.Report and
// returns a best-effort partial AST (spec's panic-mode recovery).
type Parser struct {
	l    *lexer.Lexer
	gen  *sid.Gen
	file string
	errs []*errors.Report

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// noStructLit suppresses `Name { ... }` struct-initializer parsing
	// while true, so that `if cond { ... }`, `while cond { ... }`, and
	// `for x in iter { ... }` don't mistake the block's opening brace
	// for the start of a struct literal — the same ambiguity Go's own
	// grammar resolves by disallowing bare composite literals there.
	noStructLit bool

	// landedOnSync is set by synchronize when panic-mode recovery stops
	// with curToken already sitting on the next declaration/statement's
	// first token, so Parse's top-level loop skips its usual advance.
	landedOnSync bool
}

// New creates a Parser reading from l, whose tokens are all attributed
// to file in reported diagnostics.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{
		l:    l,
		gen:  sid.NewGen(),
		file: file,
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.THIS, p.parseThis)
	p.registerPrefix(lexer.MINUS, p.parseUnary)
	p.registerPrefix(lexer.NOT, p.parseUnary)
	p.registerPrefix(lexer.BITNOT, p.parseUnary)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LAMBDA, p.parseLambda)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, tt := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NEQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE,
		lexer.AND, lexer.OR, lexer.BITAND, lexer.BITOR, lexer.BITXOR,
		lexer.SHL, lexer.SHR,
	} {
		p.registerInfix(tt, p.parseBinary)
	}
	p.registerInfix(lexer.LPAREN, p.parseCall)
	p.registerInfix(lexer.LBRACKET, p.parseIndex)
	p.registerInfix(lexer.DOT, p.parseMemberAccess)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) { p.prefixParseFns[tt] = fn }
func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn)   { p.infixParseFns[tt] = fn }

// Errors returns every diagnostic collected in collector mode.
func (p *Parser) Errors() []*errors.Report { return p.errs }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(tt lexer.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekTokenIs(tt lexer.TokenType) bool { return p.peekToken.Type == tt }

func (p *Parser) curPos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) nextID() sid.ID { return p.gen.Next() }

func (p *Parser) newBase() ast.Base {
	return ast.NewBase(p.curPos(), p.nextID())
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// expectPeek consumes peekToken (making it curToken) if it matches tt,
// reporting PAR001 otherwise.
func (p *Parser) expectPeek(tt lexer.TokenType) bool {
	if p.peekTokenIs(tt) {
		p.nextToken()
		return true
	}
	p.errorf(errors.PAR001, "expected %s, got %s %q", tt, p.peekToken.Type, p.peekToken.Literal)
	return false
}

func (p *Parser) errorf(code string, format string, args ...any) {
	span := ast.Span{Start: p.curPos(), End: p.curPos()}
	p.errs = append(p.errs, errors.New(code, span, format, args...))
}

// synchronize advances tokens until a statement/declaration boundary —
// a semicolon (left as the current token for the caller to step past)
// or a token in syncSet — or EOF. When it stops
// on a syncSet token rather than a semicolon, that token is already the
// start of the next declaration/statement (no progress was needed to
// reach it, or recovery only ate the garbage before it), so it sets
// landedOnSync to tell Parse's top-level loop not to advance past it.
func (p *Parser) synchronize() {
	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			return
		}
		if syncSet[p.curToken.Type] {
			p.landedOnSync = true
			return
		}
		p.nextToken()
	}
}

// Parse parses a complete Program, collecting errors rather than
// aborting, and returns the best-effort partial AST alongside them.
func (p *Parser) Parse() (*ast.Program, []*errors.Report) {
	prog := &ast.Program{Base: p.newBase()}
	for !p.curTokenIs(lexer.EOF) {
		p.landedOnSync = false
		d := p.parseDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
		if !p.landedOnSync && !p.curTokenIs(lexer.EOF) {
			p.nextToken()
		}
	}
	return prog, p.errs
}

package parser

import (
	"strconv"

	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
)

// parseExpression is the Pratt-style precedence-climbing core: it
// parses a prefix expression, then repeatedly extends it leftward
// through infix operators whose precedence exceeds the caller's floor.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf(errors.PAR001, "unexpected token %s %q in expression", p.curToken.Type, p.curToken.Literal)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Expr {
	base := p.newBase()
	name := p.curToken.Literal
	if p.peekTokenIs(lexer.LBRACE) && !p.noStructLit {
		p.nextToken() // consume '{'
		return p.parseStructInit(name, base)
	}
	return &ast.Identifier{Base: base, Name: name}
}

func (p *Parser) parseThis() ast.Expr {
	return &ast.This{Base: p.newBase()}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	base := p.newBase()
	v, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.errorf(errors.PAR001, "invalid integer literal %q", p.curToken.Literal)
		return nil
	}
	return &ast.IntLit{Base: base, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	base := p.newBase()
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf(errors.PAR001, "invalid float literal %q", p.curToken.Literal)
		return nil
	}
	return &ast.FloatLit{Base: base, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return &ast.StringLit{Base: p.newBase(), Value: p.curToken.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return &ast.BoolLit{Base: p.newBase(), Value: p.curTokenIs(lexer.TRUE)}
}

// parseUnary handles the prefix operators `-`, `!`, `~`.
func (p *Parser) parseUnary() ast.Expr {
	base := p.newBase()
	op := p.curToken.Literal
	p.nextToken()
	x := p.parseExpression(UNARY)
	return &ast.Unary{Base: base, Op: op, X: x}
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken() // consume '('
	x := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return x
	}
	return x
}

// parseArrayLiteral parses `[e1, e2, ...]`. Assumes curToken is '['.
func (p *Parser) parseArrayLiteral() ast.Expr {
	base := p.newBase()
	elems := p.parseExprList(lexer.RBRACKET)
	return &ast.ArrayLiteral{Base: base, Elems: elems}
}

// parseExprList parses a comma-separated expression list up to and
// including the closing token end, rejecting a trailing comma.
// Assumes curToken is the opening delimiter.
func (p *Parser) parseExprList(end lexer.TokenType) []ast.Expr {
	var list []ast.Expr

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // comma
		if p.peekTokenIs(end) {
			p.errorf(errors.PAR007, "trailing comma not allowed")
			break
		}
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(end) {
		return list
	}
	return list
}

// parseLambda parses `lambda ( Params? ) (-> Type)? Block`. Assumes
// curToken is 'lambda'.
func (p *Parser) parseLambda() ast.Expr {
	base := p.newBase()
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params := p.parseParams()

	var ret ast.TypeExpr
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken() // '->'
		p.nextToken() // first type token
		ret = p.parseType()
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()

	return &ast.Lambda{Base: base, Params: params, Ret: ret, Body: body}
}

func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	base := p.newBase()
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.Binary{Base: base, Op: op, Left: left, Right: right}
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	base := p.newBase()
	args := p.parseExprList(lexer.RPAREN)
	return &ast.Call{Base: base, Callee: callee, Args: args}
}

func (p *Parser) parseIndex(arr ast.Expr) ast.Expr {
	base := p.newBase()
	p.nextToken() // first token of index expr
	idx := p.parseExpression(LOWEST)
	p.expectPeek(lexer.RBRACKET)
	return &ast.Index{Base: base, Arr: arr, Idx: idx}
}

func (p *Parser) parseMemberAccess(obj ast.Expr) ast.Expr {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		return obj
	}
	return &ast.MemberAccess{Base: base, Obj: obj, Name: p.curToken.Literal}
}

// parseStructInit parses `Name { f1: v1, f2: v2 }`. Called from
// statement/primary contexts where an identifier is known to be
// followed by '{', which parseExpression's table cannot express since
// '{' is not a registered infix operator (it would collide with block
// boundaries in `if`/`for`/`while`/function headers).
func (p *Parser) parseStructInit(name string, base ast.Base) ast.Expr {
	var fields []ast.StructFieldInit

	if !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken() // first field name
		fields = append(fields, p.parseStructFieldInit())
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken() // comma
			if p.peekTokenIs(lexer.RBRACE) {
				p.errorf(errors.PAR007, "trailing comma not allowed in struct initializer")
				break
			}
			p.nextToken()
			fields = append(fields, p.parseStructFieldInit())
		}
	}

	p.expectPeek(lexer.RBRACE)
	return &ast.StructInit{Base: base, Name: name, Fields: fields}
}

func (p *Parser) parseStructFieldInit() ast.StructFieldInit {
	name := p.curToken.Literal
	if !p.expectPeek(lexer.COLON) {
		return ast.StructFieldInit{Name: name}
	}
	p.nextToken()
	return ast.StructFieldInit{Name: name, Value: p.parseExpression(LOWEST)}
}

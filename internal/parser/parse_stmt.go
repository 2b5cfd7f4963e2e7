package parser

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
)

// parseStmt dispatches on curToken to the statement form it begins.
func (p *Parser) parseStmt() ast.Node {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseVarDecl()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprOrAssignStmt()
	}
}

// parseVarDecl parses `let [mut] IDENT (: Type)? (= Expr)? ;`.
func (p *Parser) parseVarDecl() ast.Node {
	base := p.newBase()

	mutable := false
	if p.peekTokenIs(lexer.MUT) {
		p.nextToken()
		mutable = true
	}

	if !p.expectPeek(lexer.IDENT) {
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	var typ ast.TypeExpr
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken() // ':'
		p.nextToken() // first type token
		typ = p.parseType()
	}

	var init ast.Expr
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken() // '='
		p.nextToken() // first expr token
		init = p.parseExpression(LOWEST)
	}

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}

	return &ast.VarDecl{Base: base, Name: name, Mutable: mutable, Type: typ, Init: init}
}

// parseReturn parses `return [Expr] ;`.
func (p *Parser) parseReturn() ast.Node {
	base := p.newBase()

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		return &ast.Return{Base: base}
	}

	p.nextToken()
	value := p.parseExpression(LOWEST)

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}
	return &ast.Return{Base: base, Value: value}
}

// parseCondition parses a condition expression with struct-literal
// parsing suppressed, so the block that follows is never mistaken for
// a struct initializer's braces.
func (p *Parser) parseCondition() ast.Expr {
	p.nextToken()
	prev := p.noStructLit
	p.noStructLit = true
	cond := p.parseExpression(LOWEST)
	p.noStructLit = prev
	return cond
}

// parseIf parses `if Cond Block (else (If | Block))?`.
func (p *Parser) parseIf() ast.Node {
	base := p.newBase()
	cond := p.parseCondition()

	if !p.expectPeek(lexer.LBRACE) {
		p.synchronize()
		return &ast.If{Base: base, Cond: cond}
	}
	then := p.parseBlock()

	node := &ast.If{Base: base, Cond: cond, Then: then}

	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken() // 'else'
		if p.peekTokenIs(lexer.IF) {
			p.nextToken()
			node.Else = p.parseIf()
		} else if p.expectPeek(lexer.LBRACE) {
			node.Else = p.parseBlock()
		}
	}

	return node
}

// parseFor parses both `for IDENT in Expr .. Expr Block` and
// `for IDENT in Expr Block`, distinguishing them by whether a `..`
// token follows the bound expression.
func (p *Parser) parseFor() ast.Node {
	base := p.newBase()

	if !p.expectPeek(lexer.IDENT) {
		p.synchronize()
		return nil
	}
	varName := p.curToken.Literal

	if !p.expectPeek(lexer.IN) {
		p.synchronize()
		return nil
	}

	p.nextToken()
	prev := p.noStructLit
	p.noStructLit = true
	first := p.parseExpression(LOWEST)

	var node *ast.For
	if p.peekTokenIs(lexer.RANGE) {
		p.nextToken() // '..'
		p.nextToken() // first token of end bound
		end := p.parseExpression(LOWEST)
		node = &ast.For{Base: base, Kind: ast.ForRange, Var: varName, Start: first, End: end}
	} else {
		node = &ast.For{Base: base, Kind: ast.ForIterable, Var: varName, Iterable: first}
	}
	p.noStructLit = prev

	if !p.expectPeek(lexer.LBRACE) {
		p.synchronize()
		return node
	}
	node.Body = p.parseBlock()
	return node
}

// parseWhile parses `while Cond Block`.
func (p *Parser) parseWhile() ast.Node {
	base := p.newBase()
	cond := p.parseCondition()

	if !p.expectPeek(lexer.LBRACE) {
		p.synchronize()
		return &ast.While{Base: base, Cond: cond}
	}
	body := p.parseBlock()
	return &ast.While{Base: base, Cond: cond, Body: body}
}

// parseBlock parses a brace-delimited statement sequence. Assumes
// curToken is '{'; leaves curToken on the matching '}'.
func (p *Parser) parseBlock() *ast.Block {
	base := p.newBase()
	block := &ast.Block{Base: base}

	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		p.landedOnSync = false
		s := p.parseStmt()
		if stmt, ok := s.(ast.Stmt); ok {
			block.Stmts = append(block.Stmts, stmt)
		}
		if !p.landedOnSync {
			p.nextToken()
		}
	}

	if p.curTokenIs(lexer.EOF) {
		p.errorf(errors.PAR002, "missing closing '}'")
	}

	return block
}

// parseExprOrAssignStmt parses an expression, then decides between an
// Assign statement and a plain ExprStmt depending on whether an '='
// follows — assignment is a statement form, not an expression-level
// Pratt production, so this check happens here rather than in
// parseExpression's precedence table.
func (p *Parser) parseExprOrAssignStmt() ast.Node {
	base := p.newBase()
	expr := p.parseExpression(LOWEST)

	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken() // '='
		p.nextToken() // first token of value
		value := p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.SEMICOLON) {
			p.synchronize()
		}
		return &ast.Assign{Base: base, Target: expr, Value: value}
	}

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}
	return &ast.ExprStmt{Base: base, X: expr}
}

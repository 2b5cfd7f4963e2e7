package sema

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/symbols"
	"github.com/flow-lang/flowc/internal/types"
)

// checkFunctionBody visits fn's body in a fresh child scope with each
// parameter (and, for a desugared method, the implicit `this`) already
// bound. A missing return on some path in a non-void function is a
// warning per spec.md §9's resolved Open Question (lowering inserts the
// fallback zero value); link-block declarations have no body and are
// skipped.
func (a *Analyzer) checkFunctionBody(fn *ast.Function) {
	if fn.Body == nil {
		return
	}

	sym, ok := a.globals.LookupLocal(symbolName(fn))
	var ret *types.Type
	if ok {
		ret = sym.Type.Result
	} else {
		ret = types.TVoid
	}

	prevScope, prevRet := a.scope, a.currentRet
	a.scope = a.globals.Child()
	a.currentRet = ret

	for i, p := range fn.Params {
		pt := types.TUnknown
		if ok && i < len(sym.Type.Params) {
			pt = sym.Type.Params[i]
		}
		if !a.scope.Define(&symbols.Symbol{Name: p.Name, Type: pt, Mutable: true}) {
			a.errorf(errors.SEM004, ast.Span{Start: p.Pos, End: p.Pos}, "duplicate parameter %q", p.Name)
		}
	}

	a.checkBlock(fn.Body)

	if ret != types.TVoid && !blockAlwaysReturns(fn.Body) {
		a.warnf(errors.SEM009, spanOf(fn), "function %q does not return a value on every path", fn.Name)
	}

	a.scope, a.currentRet = prevScope, prevRet
}

func (a *Analyzer) checkBlock(b *ast.Block) {
	prevScope := a.scope
	a.scope = prevScope.Child()
	for _, s := range b.Stmts {
		a.checkStmt(s)
	}
	a.scope = prevScope
}

func (a *Analyzer) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		a.checkExpr(n.X)
	case *ast.VarDecl:
		a.checkVarDecl(n)
	case *ast.Assign:
		a.checkAssign(n)
	case *ast.Return:
		a.checkReturn(n)
	case *ast.If:
		a.checkIf(n)
	case *ast.While:
		a.checkWhile(n)
	case *ast.For:
		a.checkFor(n)
	case *ast.Block:
		a.checkBlock(n)
	default:
		a.errorf(errors.SEM001, spanOf(s), "unsupported statement %T", s)
	}
}

// checkVarDecl implements spec.md §4.6's variable-declaration rules: a
// declared type and initializer must agree (an int value coercing to a
// declared float); an initializer alone infers the declared type; a
// declared type alone binds the variable with that type and no value.
// A read of such a variable before its first assignment is not
// detected: no diagnostic is reported for it.
func (a *Analyzer) checkVarDecl(n *ast.VarDecl) {
	var declared *types.Type
	if n.Type != nil {
		t, rep := a.registry.Resolve(n.Type)
		if rep != nil {
			a.reports = append(a.reports, rep)
			t = types.TUnknown
		}
		declared = t
	}

	var initType *types.Type
	if n.Init != nil {
		initType = a.checkExpr(n.Init)
	}

	var final *types.Type
	switch {
	case declared != nil && initType != nil:
		if declared != types.TUnknown && initType != types.TUnknown && !numericCompatible(initType, declared) {
			a.errorf(errors.SEM002, spanOf(n), "cannot initialize %q of type %s with value of type %s", n.Name, declared, initType)
		}
		final = declared
	case declared != nil:
		final = declared
	case initType != nil:
		final = initType
	default:
		final = types.TUnknown
	}

	if !a.scope.Define(&symbols.Symbol{Name: n.Name, Type: final, Mutable: n.Mutable}) {
		a.errorf(errors.SEM004, spanOf(n), "%q already declared in this scope", n.Name)
	}
}

// checkAssign implements spec.md §4.6's assignment rule: the target
// must be a defined, mutable variable, or a field/index access whose
// ultimate root variable is mutable.
func (a *Analyzer) checkAssign(n *ast.Assign) {
	targetType := types.TUnknown
	switch t := n.Target.(type) {
	case *ast.Identifier:
		sym, ok := a.scope.Lookup(t.Name)
		if !ok {
			a.errorf(errors.SEM001, spanOf(t), "undefined symbol %q", t.Name)
		} else {
			if !sym.Mutable {
				a.errorf(errors.SEM003, spanOf(n), "cannot assign to immutable variable %q", t.Name)
			}
			targetType = sym.Type
			a.table.Set(t.ID(), sym.Type)
		}
	case *ast.MemberAccess, *ast.Index:
		if !a.rootMutable(n.Target) {
			a.errorf(errors.SEM003, spanOf(n), "cannot assign through an immutable root")
		}
		targetType = a.checkExpr(n.Target)
	default:
		a.errorf(errors.SEM002, spanOf(n), "invalid assignment target")
	}

	valType := a.checkExpr(n.Value)
	if targetType != types.TUnknown && valType != types.TUnknown && !numericCompatible(valType, targetType) {
		a.errorf(errors.SEM002, spanOf(n), "cannot assign value of type %s to target of type %s", valType, targetType)
	}
}

// rootMutable walks a chain of MemberAccess/Index expressions down to
// its root identifier and reports whether that root was declared mutable.
func (a *Analyzer) rootMutable(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Identifier:
		sym, ok := a.scope.Lookup(t.Name)
		return ok && sym.Mutable
	case *ast.MemberAccess:
		return a.rootMutable(t.Obj)
	case *ast.Index:
		return a.rootMutable(t.Arr)
	case *ast.This:
		sym, ok := a.scope.Lookup("this")
		return ok && sym.Mutable
	default:
		return false
	}
}

func (a *Analyzer) checkReturn(n *ast.Return) {
	if n.Value == nil {
		if a.currentRet != nil && a.currentRet != types.TVoid && a.currentRet != types.TUnknown {
			a.errorf(errors.SEM002, spanOf(n), "bare return in function declared to return %s", a.currentRet)
		}
		return
	}
	vt := a.checkExpr(n.Value)
	if a.currentRet == nil || vt == types.TUnknown || a.currentRet == types.TUnknown {
		return
	}
	if !numericCompatible(vt, a.currentRet) {
		a.errorf(errors.SEM002, spanOf(n), "return type mismatch: expected %s, got %s", a.currentRet, vt)
	}
}

func (a *Analyzer) checkIf(n *ast.If) {
	ct := a.checkExpr(n.Cond)
	if ct != types.TUnknown && !ct.Equals(types.TBool) {
		a.errorf(errors.SEM002, spanOf(n.Cond), "if condition must be bool, got %s", ct)
	}
	a.checkBlock(n.Then)
	switch e := n.Else.(type) {
	case *ast.Block:
		a.checkBlock(e)
	case *ast.If:
		a.checkIf(e)
	}
}

func (a *Analyzer) checkWhile(n *ast.While) {
	ct := a.checkExpr(n.Cond)
	if ct != types.TUnknown && !ct.Equals(types.TBool) {
		a.errorf(errors.SEM002, spanOf(n.Cond), "while condition must be bool, got %s", ct)
	}
	a.checkBlock(n.Body)
}

// checkFor binds the loop variable for either surface form: `for i in
// a..b` requires int bounds and binds `i: int`; `for x in arr` requires
// an array and binds `x` to its element type.
func (a *Analyzer) checkFor(n *ast.For) {
	prevScope := a.scope
	a.scope = prevScope.Child()
	defer func() { a.scope = prevScope }()

	var loopVarType *types.Type
	if n.Kind == ast.ForRange {
		st := a.checkExpr(n.Start)
		et := a.checkExpr(n.End)
		if st != types.TUnknown && !st.Equals(types.TInt) {
			a.errorf(errors.SEM002, spanOf(n.Start), "for-range start must be int, got %s", st)
		}
		if et != types.TUnknown && !et.Equals(types.TInt) {
			a.errorf(errors.SEM002, spanOf(n.End), "for-range end must be int, got %s", et)
		}
		loopVarType = types.TInt
	} else {
		it := a.checkExpr(n.Iterable)
		if it == types.TUnknown {
			loopVarType = types.TUnknown
		} else if it.Kind != types.ArrayKind {
			a.errorf(errors.SEM002, spanOf(n.Iterable), "for-in requires an array, got %s", it)
			loopVarType = types.TUnknown
		} else {
			loopVarType = it.Elem
		}
	}

	a.scope.Define(&symbols.Symbol{Name: n.Var, Type: loopVarType, Mutable: false})
	a.checkBlock(n.Body)
}

// blockAlwaysReturns reports whether every control path through b ends
// in a Return, conservatively: loops are never counted as guaranteed to
// run, matching spec.md §7's recovery stance of preferring a false
// negative (a spurious SEM009 warning) over a false positive that
// would hide a genuinely unreachable fallback.
func blockAlwaysReturns(b *ast.Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.Return:
		return true
	case *ast.Block:
		return blockAlwaysReturns(n)
	case *ast.If:
		if n.Else == nil {
			return false
		}
		var elseReturns bool
		switch e := n.Else.(type) {
		case *ast.Block:
			elseReturns = blockAlwaysReturns(e)
		case *ast.If:
			elseReturns = stmtAlwaysReturns(e)
		}
		return blockAlwaysReturns(n.Then) && elseReturns
	default:
		return false
	}
}

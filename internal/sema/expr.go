package sema

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/symbols"
	"github.com/flow-lang/flowc/internal/types"
)

// checkExpr type-checks e, records its resolved type in the side table
// keyed by e.ID(), and returns that type. Recovery on error follows
// spec.md §7: the offending expression gets type Unknown and analysis
// continues without cascading the failure to every later use.
func (a *Analyzer) checkExpr(e ast.Expr) *types.Type {
	t := a.inferExpr(e)
	a.table.Set(e.ID(), t)
	return t
}

func (a *Analyzer) inferExpr(e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.TInt
	case *ast.FloatLit:
		return types.TFloat
	case *ast.StringLit:
		return types.TString
	case *ast.BoolLit:
		return types.TBool
	case *ast.Identifier:
		return a.checkIdentifier(n)
	case *ast.This:
		if sym, ok := a.scope.Lookup("this"); ok {
			return sym.Type
		}
		a.errorf(errors.SEM001, spanOf(n), "'this' used outside a method body")
		return types.TUnknown
	case *ast.Unary:
		return a.checkUnary(n)
	case *ast.Binary:
		return a.checkBinary(n)
	case *ast.Call:
		return a.checkCall(n)
	case *ast.MemberAccess:
		return a.checkMemberAccess(n)
	case *ast.Index:
		return a.checkIndex(n)
	case *ast.ArrayLiteral:
		return a.checkArrayLiteral(n)
	case *ast.StructInit:
		return a.checkStructInit(n)
	case *ast.Lambda:
		return a.checkLambda(n)
	default:
		a.errorf(errors.SEM001, spanOf(e), "unsupported expression %T", e)
		return types.TUnknown
	}
}

func (a *Analyzer) checkIdentifier(n *ast.Identifier) *types.Type {
	sym, ok := a.scope.Lookup(n.Name)
	if !ok {
		a.errorf(errors.SEM001, spanOf(n), "undefined symbol %q", n.Name)
		return types.TUnknown
	}
	return sym.Type
}

func (a *Analyzer) checkUnary(n *ast.Unary) *types.Type {
	xt := a.checkExpr(n.X)
	switch n.Op {
	case "!":
		if xt != types.TUnknown && !xt.Equals(types.TBool) {
			a.errorf(errors.SEM002, spanOf(n), "operator ! requires bool, got %s", xt)
		}
		return types.TBool
	case "-":
		if xt != types.TUnknown && !xt.IsNumeric() {
			a.errorf(errors.SEM002, spanOf(n), "unary - requires a numeric operand, got %s", xt)
			return types.TUnknown
		}
		return xt
	case "~":
		if xt != types.TUnknown && !xt.Equals(types.TInt) {
			a.errorf(errors.SEM002, spanOf(n), "operator ~ requires int, got %s", xt)
		}
		return types.TInt
	default:
		a.errorf(errors.SEM001, spanOf(n), "unknown unary operator %q", n.Op)
		return types.TUnknown
	}
}

func (a *Analyzer) checkBinary(n *ast.Binary) *types.Type {
	lt := a.checkExpr(n.Left)
	rt := a.checkExpr(n.Right)
	if lt == types.TUnknown || rt == types.TUnknown {
		return types.TUnknown
	}

	switch n.Op {
	case "+":
		// spec.md §4.6: "+ with at least one string operand is string
		// concatenation and yields string; mixed types are stringified."
		if lt.Equals(types.TString) || rt.Equals(types.TString) {
			return types.TString
		}
		return a.checkArithmetic(n, lt, rt)
	case "-", "*", "/", "%":
		return a.checkArithmetic(n, lt, rt)
	case "==", "!=", "<", "<=", ">", ">=":
		if !lt.Equals(rt) {
			a.errorf(errors.SEM002, spanOf(n), "comparison operands have mismatched types %s and %s", lt, rt)
		}
		return types.TBool
	case "&&", "||":
		if !lt.Equals(types.TBool) || !rt.Equals(types.TBool) {
			a.errorf(errors.SEM002, spanOf(n), "operator %s requires bool operands", n.Op)
		}
		return types.TBool
	case "&", "|", "^", "<<", ">>":
		if !lt.Equals(types.TInt) || !rt.Equals(types.TInt) {
			a.errorf(errors.SEM002, spanOf(n), "operator %s requires int operands", n.Op)
		}
		return types.TInt
	default:
		a.errorf(errors.SEM001, spanOf(n), "unknown binary operator %q", n.Op)
		return types.TUnknown
	}
}

func (a *Analyzer) checkArithmetic(n *ast.Binary, lt, rt *types.Type) *types.Type {
	if !lt.IsNumeric() || !rt.IsNumeric() {
		a.errorf(errors.SEM002, spanOf(n), "arithmetic operator %s requires numeric operands, got %s and %s", n.Op, lt, rt)
		return types.TUnknown
	}
	if lt.Equals(types.TFloat) || rt.Equals(types.TFloat) {
		return types.TFloat
	}
	return types.TInt
}

// checkCall special-cases its callee: a bare identifier names a
// top-level function directly, alias.name(...) names a function
// imported under an alias, and obj.method(...) resolves through the
// receiver's struct type to a Struct::method symbol, rather than being
// evaluated as an ordinary field access.
func (a *Analyzer) checkCall(n *ast.Call) *types.Type {
	var fnType *types.Type
	isMethod := false

	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if callee.Name == "len" {
			return a.checkLenBuiltin(n, callee)
		}
		sym, ok := a.scope.Lookup(callee.Name)
		if !ok {
			a.errorf(errors.SEM001, spanOf(callee), "undefined function %q", callee.Name)
			return types.TUnknown
		}
		a.table.Set(callee.ID(), sym.Type)
		fnType = sym.Type
	case *ast.MemberAccess:
		if id, ok := callee.Obj.(*ast.Identifier); ok {
			if _, isVar := a.scope.Lookup(id.Name); !isVar {
				if sym, ok := a.scope.Lookup(id.Name + "." + callee.Name); ok {
					a.table.Set(callee.ID(), sym.Type)
					fnType = sym.Type
					break
				}
			}
		}
		isMethod = true
		objType := a.checkExpr(callee.Obj)
		if objType == types.TUnknown {
			return types.TUnknown
		}
		if objType.Kind != types.StructKind {
			a.errorf(errors.SEM007, spanOf(callee), "cannot call method %q on non-struct type %s", callee.Name, objType)
			return types.TUnknown
		}
		sym, ok := a.scope.Lookup(objType.StructName + "::" + callee.Name)
		if !ok {
			a.errorf(errors.SEM007, spanOf(callee), "struct %q has no method %q", objType.StructName, callee.Name)
			return types.TUnknown
		}
		a.table.Set(callee.ID(), sym.Type)
		fnType = sym.Type
	default:
		fnType = a.checkExpr(n.Callee)
	}

	if fnType == types.TUnknown {
		return types.TUnknown
	}
	if fnType.Kind != types.FunctionKind {
		a.errorf(errors.SEM002, spanOf(n), "cannot call non-function type %s", fnType)
		return types.TUnknown
	}

	wantArgs := fnType.Params
	if isMethod && len(wantArgs) > 0 {
		// The receiver symbol's type already carries the implicit `this`
		// parameter; n.Args does not, so drop it from the comparison.
		wantArgs = wantArgs[1:]
	}

	if len(n.Args) != len(wantArgs) {
		a.errorf(errors.SEM006, spanOf(n), "expected %d argument(s), got %d", len(wantArgs), len(n.Args))
	}
	for i, arg := range n.Args {
		at := a.checkExpr(arg)
		if i < len(wantArgs) && at != types.TUnknown && !numericCompatible(at, wantArgs[i]) {
			a.errorf(errors.SEM002, spanOf(arg), "argument %d: expected %s, got %s", i+1, wantArgs[i], at)
		}
	}
	return fnType.Result
}

// checkLenBuiltin special-cases `len(arr)`: it is not a declared
// symbol but a compiler intrinsic the lowering visitor resolves at
// compile time from the array's side-map length entry (spec.md §4.7).
func (a *Analyzer) checkLenBuiltin(n *ast.Call, callee *ast.Identifier) *types.Type {
	if len(n.Args) != 1 {
		a.errorf(errors.SEM006, spanOf(n), "len expects exactly 1 argument, got %d", len(n.Args))
		return types.TUnknown
	}
	at := a.checkExpr(n.Args[0])
	if at != types.TUnknown && at.Kind != types.ArrayKind {
		a.errorf(errors.SEM002, spanOf(n), "len requires an array argument, got %s", at)
	}
	a.table.Set(callee.ID(), types.NewFunction([]*types.Type{at}, types.TInt))
	return types.TInt
}

// numericCompatible allows an int value to satisfy a declared float
// parameter/field/variable. It sees only types, so any int-typed
// expression is accepted, not just an int literal; every other
// mismatch is exact.
func numericCompatible(have, want *types.Type) bool {
	if have.Equals(want) {
		return true
	}
	return have.Equals(types.TInt) && want.Equals(types.TFloat)
}

func (a *Analyzer) checkMemberAccess(n *ast.MemberAccess) *types.Type {
	objType := a.checkExpr(n.Obj)
	if objType == types.TUnknown {
		return types.TUnknown
	}
	if objType.Kind != types.StructKind {
		a.errorf(errors.SEM007, spanOf(n), "cannot access field %q on non-struct type %s", n.Name, objType)
		return types.TUnknown
	}
	info, ok := a.registry.Struct(objType.StructName)
	if !ok {
		a.errorf(errors.SEM007, spanOf(n), "unknown struct %q", objType.StructName)
		return types.TUnknown
	}
	ft, ok := info.FieldType(n.Name)
	if !ok {
		a.errorf(errors.SEM007, spanOf(n), "struct %q has no field %q", objType.StructName, n.Name)
		return types.TUnknown
	}
	return ft
}

func (a *Analyzer) checkIndex(n *ast.Index) *types.Type {
	at := a.checkExpr(n.Arr)
	it := a.checkExpr(n.Idx)
	if it != types.TUnknown && !it.Equals(types.TInt) {
		a.errorf(errors.SEM002, spanOf(n.Idx), "array index must be int, got %s", it)
	}
	if at == types.TUnknown {
		return types.TUnknown
	}
	if at.Kind != types.ArrayKind {
		a.errorf(errors.SEM002, spanOf(n), "cannot index non-array type %s", at)
		return types.TUnknown
	}
	if lit, ok := n.Idx.(*ast.IntLit); ok {
		if arr, ok := n.Arr.(*ast.ArrayLiteral); ok && (lit.Value < 0 || int(lit.Value) >= len(arr.Elems)) {
			a.errorf(errors.SEM008, spanOf(n.Idx), "index %d out of range for array of length %d", lit.Value, len(arr.Elems))
		}
	}
	return at.Elem
}

func (a *Analyzer) checkArrayLiteral(n *ast.ArrayLiteral) *types.Type {
	if len(n.Elems) == 0 {
		return types.NewArray(types.TUnknown)
	}
	elemType := a.checkExpr(n.Elems[0])
	for _, e := range n.Elems[1:] {
		et := a.checkExpr(e)
		if et != types.TUnknown && elemType != types.TUnknown && !numericCompatible(et, elemType) && !numericCompatible(elemType, et) {
			a.errorf(errors.SEM002, spanOf(e), "array element type %s does not match %s", et, elemType)
		}
	}
	return types.NewArray(elemType)
}

func (a *Analyzer) checkStructInit(n *ast.StructInit) *types.Type {
	info, ok := a.registry.Struct(n.Name)
	if !ok {
		a.errorf(errors.SEM001, spanOf(n), "undefined struct %q", n.Name)
		for _, f := range n.Fields {
			a.checkExpr(f.Value)
		}
		return types.TUnknown
	}

	if len(n.Fields) != len(info.Fields) {
		a.errorf(errors.SEM010, spanOf(n), "struct %q initializer has %d field(s), want %d", n.Name, len(n.Fields), len(info.Fields))
	}
	limit := len(n.Fields)
	if len(info.Fields) < limit {
		limit = len(info.Fields)
	}
	for i := 0; i < limit; i++ {
		got := n.Fields[i]
		want := info.Fields[i]
		if got.Name != want.Name {
			a.errorf(errors.SEM010, spanOf(n), "struct %q field %d: expected %q, got %q (fields must appear in declared order)", n.Name, i+1, want.Name, got.Name)
		}
		gt := a.checkExpr(got.Value)
		if gt != types.TUnknown && !numericCompatible(gt, want.Type) {
			a.errorf(errors.SEM002, spanOf(n), "struct %q field %q: expected %s, got %s", n.Name, want.Name, want.Type, gt)
		}
	}
	for i := limit; i < len(n.Fields); i++ {
		a.checkExpr(n.Fields[i].Value)
	}
	return types.NewStruct(n.Name)
}

// checkLambda type-checks an inline function value. Its declared
// return type, if present, drives the body's Return checks the same
// way a top-level function's does; an omitted return type is inferred
// as void (spec.md is silent on inference for a lambda body with no
// explicit return annotation, so this falls back to the same rule
// spec.md §4.6 gives a variable declaration with no initializer-driven
// type: nothing to infer from, so void).
func (a *Analyzer) checkLambda(n *ast.Lambda) *types.Type {
	params := make([]*types.Type, len(n.Params))
	for i, p := range n.Params {
		pt, rep := a.registry.Resolve(p.Type)
		if rep != nil {
			a.reports = append(a.reports, rep)
			pt = types.TUnknown
		}
		params[i] = pt
	}
	ret := types.TVoid
	if n.Ret != nil {
		rt, rep := a.registry.Resolve(n.Ret)
		if rep != nil {
			a.reports = append(a.reports, rep)
			rt = types.TUnknown
		}
		ret = rt
	}

	prevScope, prevRet := a.scope, a.currentRet
	a.scope = prevScope.Child()
	a.currentRet = ret
	for i, p := range n.Params {
		a.scope.Define(&symbols.Symbol{Name: p.Name, Type: params[i], Mutable: false})
	}
	a.checkBlock(n.Body)
	if ret != types.TVoid && !blockAlwaysReturns(n.Body) {
		a.warnf(errors.SEM009, spanOf(n), "lambda may not return a value on every path")
	}
	a.scope, a.currentRet = prevScope, prevRet

	return types.NewFunction(params, ret)
}

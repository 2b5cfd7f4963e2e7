package irgen

import (
	"strconv"
	"strings"

	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/module"
	"github.com/flow-lang/flowc/internal/sema"
	"github.com/flow-lang/flowc/internal/types"
)

// Lowering walks one or more resolved Programs and emits IR through a
// shared Builder — grounded on spec.md §4.7's description of the
// lowering visitor, kept as an ordinary recursive-descent walk over
// the AST the way the teacher's own internal/elaborate package visits
// its core IR, rather than a generic visitor-registration framework
// (spec.md §9's "exhaustive type switch", not a dispatch table).
//
// An array or struct value is never loaded through an extra level of
// indirection: the slot a VarDecl allocates for one IS its storage, so
// reading such an identifier back yields that same pointer rather than
// a fresh loaded register. This is what lets RememberArrayLen/ArrayLen
// key correctly off a later read of the same variable — only scalar
// identifiers go through an actual Load.
type Lowering struct {
	b      *Builder
	loader *module.Loader
	cache  map[string]*sema.Result // canonical path -> analyzed module, shared with sema.Analyzer

	res    *sema.Result
	locals map[string]Value

	seenImports map[string]bool
	tmp         int
}

// NewLowering creates a Lowering targeting b, sharing loader (to fetch
// an already-parsed imported Program by canonical path) and the sema
// analysis cache (to fetch an already-analyzed import's Result).
func NewLowering(b *Builder, loader *module.Loader, cache map[string]*sema.Result) *Lowering {
	return &Lowering{b: b, loader: loader, cache: cache, seenImports: make(map[string]bool)}
}

// Lower emits IR for prog (already analyzed into res, loaded from
// file). A module reachable by more than one import path is only
// lowered once, tracked by canonical path in seenImports — spec.md
// §8 invariant #4, "import idempotence".
func (lw *Lowering) Lower(prog *ast.Program, res *sema.Result, file string) {
	if file != "" {
		if lw.seenImports[file] {
			return
		}
		lw.seenImports[file] = true
	}

	prevRes := lw.res
	lw.res = res
	defer func() { lw.res = prevRes }()

	importIdx := 0
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Import:
			lw.lowerImport(importIdx, res)
			importIdx++
		case *ast.Link:
			lw.lowerLink(decl)
		case *ast.Function:
			lw.lowerFunction(decl)
		case *ast.Impl:
			lw.lowerFunction(decl.Method)
		}
	}
}

func (lw *Lowering) lowerImport(idx int, res *sema.Result) {
	if idx >= len(res.Imports) {
		return
	}
	ri := res.Imports[idx]
	if ri.Path == "" {
		return
	}
	mod := lw.loader.Cached()[ri.Path]
	sub := lw.cache[ri.Path]
	if mod == nil || sub == nil || mod.Partial {
		return
	}
	lw.Lower(mod.Program, sub, ri.Path)
}

func (lw *Lowering) lowerLink(decl *ast.Link) {
	for _, fn := range decl.Funcs {
		sym, _ := lw.res.Globals.LookupLocal(symbolName(fn))
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			pt := types.TUnknown
			if sym != nil && i < len(sym.Type.Params) {
				pt = sym.Type.Params[i]
			}
			params[i] = irType(pt) + " " + p.Name
		}
		ret := "void"
		if sym != nil {
			ret = irType(sym.Type.Result)
		}
		lw.b.DeclareExternal(fn.Name, params, ret, decl.Adapter, decl.Module)
	}
}

func symbolName(fn *ast.Function) string {
	if fn.IsMethod {
		return fn.Receiver + "::" + fn.Name
	}
	return fn.Name
}

func irFuncName(name string) string {
	return strings.ReplaceAll(name, "::", "_")
}

func (lw *Lowering) lowerFunction(fn *ast.Function) {
	if fn.Body == nil {
		return // link-block declarations have no body to lower
	}
	sym, ok := lw.res.Globals.LookupLocal(symbolName(fn))
	retType := types.TVoid
	var paramTypes []*types.Type
	if ok {
		retType = sym.Type.Result
		paramTypes = sym.Type.Params
	}

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		pt := types.TUnknown
		if i < len(paramTypes) {
			pt = paramTypes[i]
		}
		params[i] = irType(pt) + " %" + p.Name
	}

	lw.b.DeclareFunction(irFuncName(symbolName(fn)), params, irType(retType))
	entry := lw.b.Block("entry")
	lw.b.SetBlock(entry)

	prevLocals := lw.locals
	lw.locals = make(map[string]Value)
	for i, p := range fn.Params {
		pt := types.TUnknown
		if i < len(paramTypes) {
			pt = paramTypes[i]
		}
		ptr := lw.b.Alloca(p.Name, irType(pt))
		lw.b.Store(ptr, Value("%"+p.Name), irType(pt))
		lw.locals[p.Name] = ptr
	}

	lw.lowerBlock(fn.Body)

	if !lw.b.HasTerminator() {
		if retType == types.TVoid {
			lw.b.Ret(Void, "void")
		} else {
			lw.b.Ret(zeroValue(retType), irType(retType))
		}
	}
	lw.locals = prevLocals
}

func zeroValue(t *types.Type) Value {
	switch t.Kind {
	case types.Int:
		return Value("0")
	case types.Float:
		return Value("0.0")
	case types.Bool:
		return Value("false")
	case types.String:
		return Value(`""`)
	default:
		return Value("null")
	}
}

func (lw *Lowering) lowerBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		if lw.b.HasTerminator() {
			return
		}
		lw.lowerStmt(s)
	}
}

func (lw *Lowering) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		lw.lowerExpr(n.X)
	case *ast.VarDecl:
		lw.lowerVarDecl(n)
	case *ast.Assign:
		lw.lowerAssign(n)
	case *ast.Return:
		lw.lowerReturn(n)
	case *ast.If:
		lw.lowerIf(n)
	case *ast.While:
		lw.lowerWhile(n)
	case *ast.For:
		lw.lowerFor(n)
	case *ast.Block:
		lw.lowerBlock(n)
	}
}

func (lw *Lowering) typeOf(e ast.Expr) *types.Type {
	return lw.res.Types.MustGet(e.ID())
}

// isAggregate reports whether t is passed around by reference (its
// "value" is a storage pointer, never loaded a second time).
func isAggregate(t *types.Type) bool {
	return t != nil && (t.Kind == types.ArrayKind || t.Kind == types.StructKind)
}

func (lw *Lowering) lowerVarDecl(n *ast.VarDecl) {
	t := lw.typeOf2(n)

	if lit, ok := n.Init.(*ast.ArrayLiteral); ok {
		ptr := lw.b.Alloca(n.Name, irType(t))
		lw.populateArrayLiteral(ptr, t, lit)
		lw.locals[n.Name] = ptr
		return
	}
	if lit, ok := n.Init.(*ast.StructInit); ok {
		ptr := lw.b.Alloca(n.Name, irType(t))
		lw.populateStructInit(ptr, t, lit)
		lw.locals[n.Name] = ptr
		return
	}

	var val Value
	if n.Init != nil {
		val = lw.lowerExpr(n.Init)
	} else {
		val = zeroValue(t)
	}
	ptr := lw.b.Alloca(n.Name, irType(t))
	lw.b.Store(ptr, val, irType(t))
	lw.locals[n.Name] = ptr
}

// typeOf2 recovers a VarDecl's resolved type: its declared type when it
// has one, otherwise its initializer's side-table entry (a VarDecl node
// itself has no side-table entry); a variable with neither a declared
// type nor an initializer renders as unknown.
func (lw *Lowering) typeOf2(n *ast.VarDecl) *types.Type {
	if n.Type != nil {
		if t, rep := lw.res.Registry.Resolve(n.Type); rep == nil {
			return t
		}
	}
	if n.Init != nil {
		return lw.typeOf(n.Init)
	}
	return types.TUnknown
}

func (lw *Lowering) populateArrayLiteral(ptr Value, t *types.Type, lit *ast.ArrayLiteral) {
	elemType := t.Elem
	for i, e := range lit.Elems {
		val := lw.lowerExpr(e)
		slot := lw.b.GEPIndex(ptr, Value(strconv.Itoa(i)), irType(elemType))
		lw.b.Store(slot, val, irType(elemType))
	}
	lw.b.RememberArrayLen(ptr, len(lit.Elems))
}

func (lw *Lowering) populateStructInit(ptr Value, t *types.Type, lit *ast.StructInit) {
	info, ok := lw.res.Registry.Struct(lit.Name)
	if !ok {
		return
	}
	for i, f := range lit.Fields {
		val := lw.lowerExpr(f.Value)
		fieldType := types.TUnknown
		if i < len(info.Fields) {
			fieldType = info.Fields[i].Type
		}
		slot := lw.b.GEPField(ptr, lit.Name, i, f.Name)
		lw.b.Store(slot, val, irType(fieldType))
	}
}

func (lw *Lowering) freshName(prefix string) string {
	lw.tmp++
	return prefix + strconv.Itoa(lw.tmp)
}

func (lw *Lowering) lowerAssign(n *ast.Assign) {
	val := lw.lowerExpr(n.Value)
	ptr, t := lw.lowerAddr(n.Target)
	lw.b.Store(ptr, val, irType(t))
}

// lowerAddr computes the storage address of an lvalue (identifier,
// field, or index expression) plus its resolved type.
func (lw *Lowering) lowerAddr(e ast.Expr) (Value, *types.Type) {
	switch n := e.(type) {
	case *ast.Identifier:
		return lw.locals[n.Name], lw.typeOf(e)
	case *ast.This:
		return lw.locals["this"], lw.typeOf(e)
	case *ast.MemberAccess:
		objPtr, objType := lw.lowerAddr(n.Obj)
		info, _ := lw.res.Registry.Struct(objType.StructName)
		idx := fieldIndexOf(info, n.Name)
		return lw.b.GEPField(objPtr, objType.StructName, idx, n.Name), lw.typeOf(e)
	case *ast.Index:
		arrPtr := lw.lowerExpr(n.Arr)
		idx := lw.lowerExpr(n.Idx)
		elemType := lw.typeOf(e)
		lw.emitBoundsCheck(arrPtr, idx)
		return lw.b.GEPIndex(arrPtr, idx, irType(elemType)), elemType
	default:
		return lw.lowerExpr(e), lw.typeOf(e)
	}
}

func fieldIndexOf(info *types.StructInfo, name string) int {
	if info == nil {
		return 0
	}
	for i, f := range info.Fields {
		if f.Name == name {
			return i
		}
	}
	return 0
}

// emitBoundsCheck emits a comparison against the array's length — a
// compile-time constant when RememberArrayLen recorded one for this
// exact pointer, otherwise a runtime length call — and branches to a
// trap block on failure, per spec.md §4.7 and invariant #6 in §8.
func (lw *Lowering) emitBoundsCheck(arrPtr, idx Value) {
	length, known := lw.b.ArrayLen(arrPtr)
	if !known {
		lw.b.Call("flow_arraylen", []Value{arrPtr}, "i64")
	}
	ok := lw.b.Block("bounds.ok")
	trap := lw.b.Block("bounds.trap")
	lw.b.BoundsCheck(idx, length, ok, trap)

	lw.b.SetBlock(trap)
	lw.b.Trap("index out of range")

	lw.b.SetBlock(ok)
}

func (lw *Lowering) lowerReturn(n *ast.Return) {
	if n.Value == nil {
		lw.b.Ret(Void, "void")
		return
	}
	val := lw.lowerExpr(n.Value)
	lw.b.Ret(val, irType(lw.typeOf(n.Value)))
}

func (lw *Lowering) lowerIf(n *ast.If) {
	cond := lw.lowerExpr(n.Cond)
	thenBlk := lw.b.Block("if.then")
	var elseBlk *Block
	merge := lw.b.Block("if.merge")

	if n.Else != nil {
		elseBlk = lw.b.Block("if.else")
		lw.b.CondBr(cond, thenBlk, elseBlk)
	} else {
		lw.b.CondBr(cond, thenBlk, merge)
	}

	lw.b.SetBlock(thenBlk)
	lw.lowerBlock(n.Then)
	thenDone := lw.b.HasTerminator()
	if !thenDone {
		lw.b.Br(merge)
	}

	elseDone := false
	if n.Else != nil {
		lw.b.SetBlock(elseBlk)
		switch e := n.Else.(type) {
		case *ast.Block:
			lw.lowerBlock(e)
		case *ast.If:
			lw.lowerIf(e)
		}
		elseDone = lw.b.HasTerminator()
		if !elseDone {
			lw.b.Br(merge)
		}
	}

	lw.b.SetBlock(merge)
	if thenDone && elseDone {
		// Neither branch falls through, so nothing reaches the merge block.
		lw.b.emit("unreachable")
		merge.term = true
	}
}

func (lw *Lowering) lowerWhile(n *ast.While) {
	cond := lw.b.Block("while.cond")
	body := lw.b.Block("while.body")
	after := lw.b.Block("while.after")

	lw.b.Br(cond)
	lw.b.SetBlock(cond)
	c := lw.lowerExpr(n.Cond)
	lw.b.CondBr(c, body, after)

	lw.b.SetBlock(body)
	lw.lowerBlock(n.Body)
	if !lw.b.HasTerminator() {
		lw.b.Br(cond)
	}

	lw.b.SetBlock(after)
}

// lowerFor lowers both surface forms to the condition/body/increment
// basic-block pattern spec.md §4.7 names explicitly for the range form.
func (lw *Lowering) lowerFor(n *ast.For) {
	prevLocals := lw.locals
	lw.locals = cloneLocals(lw.locals)
	defer func() { lw.locals = prevLocals }()

	if n.Kind == ast.ForRange {
		start := lw.lowerExpr(n.Start)
		end := lw.lowerExpr(n.End)
		ivar := lw.b.Alloca(n.Var, "i64")
		lw.b.Store(ivar, start, "i64")
		lw.locals[n.Var] = ivar

		cond := lw.b.Block("for.cond")
		body := lw.b.Block("for.body")
		incr := lw.b.Block("for.incr")
		after := lw.b.Block("for.after")

		lw.b.Br(cond)
		lw.b.SetBlock(cond)
		cur := lw.b.Load(ivar, "i64")
		test := lw.b.BinOp("icmp slt", cur, end, "i64")
		lw.b.CondBr(test, body, after)

		lw.b.SetBlock(body)
		lw.lowerBlock(n.Body)
		if !lw.b.HasTerminator() {
			lw.b.Br(incr)
		}

		lw.b.SetBlock(incr)
		cur2 := lw.b.Load(ivar, "i64")
		next := lw.b.BinOp("add", cur2, Value("1"), "i64")
		lw.b.Store(ivar, next, "i64")
		lw.b.Br(cond)

		lw.b.SetBlock(after)
		return
	}

	arrPtr := lw.lowerExpr(n.Iterable)
	length, known := lw.b.ArrayLen(arrPtr)
	if !known {
		lw.b.Call("flow_arraylen", []Value{arrPtr}, "i64")
	}
	elemType := lw.res.Types.MustGet(n.Iterable.ID()).Elem

	ivar := lw.b.Alloca("__idx_"+n.Var, "i64")
	lw.b.Store(ivar, Value("0"), "i64")

	cond := lw.b.Block("forin.cond")
	body := lw.b.Block("forin.body")
	incr := lw.b.Block("forin.incr")
	after := lw.b.Block("forin.after")

	lw.b.Br(cond)
	lw.b.SetBlock(cond)
	cur := lw.b.Load(ivar, "i64")
	test := lw.b.BinOp("icmp slt", cur, Value(strconv.Itoa(length)), "i64")
	lw.b.CondBr(test, body, after)

	lw.b.SetBlock(body)
	elemPtr := lw.b.GEPIndex(arrPtr, cur, irType(elemType))
	elemSlot := lw.b.Alloca(n.Var, irType(elemType))
	loaded := lw.b.Load(elemPtr, irType(elemType))
	lw.b.Store(elemSlot, loaded, irType(elemType))
	lw.locals[n.Var] = elemSlot
	lw.lowerBlock(n.Body)
	if !lw.b.HasTerminator() {
		lw.b.Br(incr)
	}

	lw.b.SetBlock(incr)
	cur2 := lw.b.Load(ivar, "i64")
	next := lw.b.BinOp("add", cur2, Value("1"), "i64")
	lw.b.Store(ivar, next, "i64")
	lw.b.Br(cond)

	lw.b.SetBlock(after)
}

func cloneLocals(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// lowerExpr emits IR for e and returns its value. Scalars are loaded
// through their storage slot; arrays and structs are never loaded a
// second time — their "value" is the slot pointer itself, so a later
// len()/index/field use of the same identifier resolves against the
// same pointer RememberArrayLen recorded (see the Lowering doc comment).
func (lw *Lowering) lowerExpr(e ast.Expr) Value {
	switch n := e.(type) {
	case *ast.IntLit:
		return lw.b.ConstInt(n.Value)
	case *ast.FloatLit:
		return lw.b.ConstFloat(n.Value)
	case *ast.StringLit:
		return lw.b.ConstString(n.Value)
	case *ast.BoolLit:
		return lw.b.ConstBool(n.Value)
	case *ast.Identifier:
		ptr := lw.locals[n.Name]
		t := lw.typeOf(n)
		if isAggregate(t) {
			return ptr
		}
		return lw.b.Load(ptr, irType(t))
	case *ast.This:
		ptr := lw.locals["this"]
		t := lw.typeOf(n)
		if isAggregate(t) {
			return ptr
		}
		return lw.b.Load(ptr, irType(t))
	case *ast.Unary:
		return lw.lowerUnary(n)
	case *ast.Binary:
		return lw.lowerBinary(n)
	case *ast.Call:
		return lw.lowerCall(n)
	case *ast.MemberAccess:
		ptr, t := lw.lowerAddr(n)
		if isAggregate(t) {
			return ptr
		}
		return lw.b.Load(ptr, irType(t))
	case *ast.Index:
		ptr, t := lw.lowerAddr(n)
		if isAggregate(t) {
			return ptr
		}
		return lw.b.Load(ptr, irType(t))
	case *ast.ArrayLiteral:
		t := lw.typeOf(n)
		ptr := lw.b.Alloca(lw.freshName("arrlit."), irType(t))
		lw.populateArrayLiteral(ptr, t, n)
		return ptr
	case *ast.StructInit:
		t := lw.typeOf(n)
		ptr := lw.b.Alloca(lw.freshName("structinit."), irType(t))
		lw.populateStructInit(ptr, t, n)
		return ptr
	case *ast.Lambda:
		// Lambda values type-check (internal/sema) but this visitor does
		// not yet lower them to closures — a lambda is only ever used
		// here as a value-producing placeholder. Documented as a known
		// gap in DESIGN.md rather than silently miscompiled.
		return Value("null")
	default:
		return Value("null")
	}
}

func (lw *Lowering) lowerUnary(n *ast.Unary) Value {
	x := lw.lowerExpr(n.X)
	t := lw.typeOf(n)
	switch n.Op {
	case "-":
		return lw.b.BinOp("sub", zeroValue(t), x, irType(t))
	case "!":
		return lw.b.BinOp("xor", x, Value("true"), "i1")
	case "~":
		return lw.b.BinOp("xor", x, Value("-1"), "i64")
	default:
		return x
	}
}

func (lw *Lowering) lowerBinary(n *ast.Binary) Value {
	// `&&`/`||` short-circuit: a conditional-branch pattern that skips
	// evaluating the right operand entirely, not an eager binary op
	// (SPEC_FULL.md §11, promoted from Design Note to requirement).
	if n.Op == "&&" || n.Op == "||" {
		return lw.lowerShortCircuit(n)
	}

	lt := lw.typeOf(n.Left)
	rt := lw.typeOf(n.Right)

	if n.Op == "+" && (lt.Equals(types.TString) || rt.Equals(types.TString)) {
		l := lw.lowerExpr(n.Left)
		r := lw.lowerExpr(n.Right)
		return lw.b.StrConcat(l, r, fmtSpecifier(lt), fmtSpecifier(rt))
	}

	l := lw.lowerExpr(n.Left)
	r := lw.lowerExpr(n.Right)
	resultType := lw.typeOf(n)
	return lw.b.BinOp(irOp(n.Op), l, r, irType(resultType))
}

// lowerShortCircuit lowers `a && b` / `a || b` to a conditional branch
// that only evaluates b on the path where it affects the result: the
// right-hand block is skipped entirely otherwise.
func (lw *Lowering) lowerShortCircuit(n *ast.Binary) Value {
	l := lw.lowerExpr(n.Left)
	slot := lw.b.Alloca(lw.freshName("sc."), "i1")
	lw.b.Store(slot, l, "i1")

	rhs := lw.b.Block("sc.rhs")
	merge := lw.b.Block("sc.merge")
	if n.Op == "&&" {
		lw.b.CondBr(l, rhs, merge)
	} else {
		lw.b.CondBr(l, merge, rhs)
	}

	lw.b.SetBlock(rhs)
	r := lw.lowerExpr(n.Right)
	lw.b.Store(slot, r, "i1")
	lw.b.Br(merge)

	lw.b.SetBlock(merge)
	return lw.b.Load(slot, "i1")
}

// fmtSpecifier picks the runtime sprintf-style placeholder for t, used
// to assemble StrConcat's format string (spec.md §4.7: "a format
// assembled from the operand IR types").
func fmtSpecifier(t *types.Type) string {
	switch t.Kind {
	case types.Int:
		return "%d"
	case types.Float:
		return "%g"
	case types.Bool:
		return "%t"
	case types.String:
		return "%s"
	default:
		return "%v"
	}
}

func irOp(op string) string {
	switch op {
	case "==":
		return "icmp eq"
	case "!=":
		return "icmp ne"
	case "<":
		return "icmp slt"
	case "<=":
		return "icmp sle"
	case ">":
		return "icmp sgt"
	case ">=":
		return "icmp sge"
	case "&&":
		return "and"
	case "||":
		return "or"
	default:
		return op
	}
}

func (lw *Lowering) lowerCall(n *ast.Call) Value {
	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if callee.Name == "len" {
			return lw.lowerLenCall(n)
		}
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			args[i] = lw.lowerExpr(a)
		}
		retType := lw.typeOf(n)
		ret := "void"
		if retType != types.TVoid {
			ret = irType(retType)
		}
		return lw.b.Call(callee.Name, args, ret)
	case *ast.MemberAccess:
		objType := lw.typeOf(callee.Obj)
		objPtr := lw.lowerExpr(callee.Obj)
		args := make([]Value, 0, len(n.Args)+1)
		args = append(args, objPtr)
		for _, a := range n.Args {
			args = append(args, lw.lowerExpr(a))
		}
		retType := lw.typeOf(n)
		ret := "void"
		if retType != types.TVoid {
			ret = irType(retType)
		}
		name := irFuncName(objType.StructName + "::" + callee.Name)
		return lw.b.Call(name, args, ret)
	default:
		return Value("null")
	}
}

// lowerLenCall resolves `len(arr)` at compile time when the argument's
// length was remembered at allocation, falling back to a runtime call
// otherwise — spec.md §4.7's array-length side-map.
func (lw *Lowering) lowerLenCall(n *ast.Call) Value {
	arg := n.Args[0]
	ptr := lw.lowerExpr(arg)
	if length, known := lw.b.ArrayLen(ptr); known {
		return lw.b.ConstInt(int64(length))
	}
	return lw.b.Call("flow_arraylen", []Value{ptr}, "i64")
}

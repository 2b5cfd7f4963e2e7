// Package ast defines the Flow abstract syntax tree: expressions,
// statements, declarations, and the parsed (unresolved) type syntax.
//
// Nodes are plain Go structs owned exclusively by their enclosing
// Program — child pointers are non-owning. Resolved types are never
// written back onto a node; the semantic analyzer fills a side table
// keyed by each node's ID (see internal/types.Table) instead of
// mutating the tree, so the AST is immutable after parsing.
package ast

import (
	"fmt"
	"strings"

	"github.com/flow-lang/flowc/internal/sid"
)

// Pos is a source location: a file, 1-based line, and 1-based column.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a range in source code, used by diagnostics to underline a region.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the interface every AST node implements.
type Node interface {
	String() string
	Position() Pos
	ID() sid.ID
}

// Base is embedded by every concrete node to provide Position/ID without
// repeating the boilerplate at each node type.
type Base struct {
	Pos Pos
	Nid sid.ID
}

func (b Base) Position() Pos { return b.Pos }
func (b Base) ID() sid.ID    { return b.Nid }

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is any top-level declaration node.
type Decl interface {
	Node
	declNode()
}

// TypeExpr is parsed (unresolved) type syntax, as written in source —
// distinct from types.Type, which is the resolved form the type
// registry produces.
type TypeExpr interface {
	Node
	typeNode()
}

// Program is the root node: a single compilation unit's declarations in
// source order. Top-level statements are permitted by the grammar
// (Decl := ... | Stmt) and appear in Decls alongside true declarations.
type Program struct {
	Base
	Decls []Node
}

func (p *Program) String() string {
	parts := make([]string, 0, len(p.Decls))
	for _, d := range p.Decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}

// ===========================================================================
// Expressions
// ===========================================================================

// IntLit is an integer literal.
type IntLit struct {
	Base
	Value int64
}

func (n *IntLit) String() string { return fmt.Sprintf("%d", n.Value) }
func (*IntLit) exprNode()        {}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Base
	Value float64
}

func (n *FloatLit) String() string { return fmt.Sprintf("%g", n.Value) }
func (*FloatLit) exprNode()        {}

// StringLit is a string literal; Value holds the decoded (escapes
// resolved) text, not the raw source lexeme.
type StringLit struct {
	Base
	Value string
}

func (n *StringLit) String() string { return fmt.Sprintf("%q", n.Value) }
func (*StringLit) exprNode()        {}

// BoolLit is a boolean literal.
type BoolLit struct {
	Base
	Value bool
}

func (n *BoolLit) String() string { return fmt.Sprintf("%t", n.Value) }
func (*BoolLit) exprNode()        {}

// Identifier references a variable, function, or type name.
type Identifier struct {
	Base
	Name string
}

func (n *Identifier) String() string { return n.Name }
func (*Identifier) exprNode()        {}

// This references the implicit receiver inside an impl method body.
type This struct {
	Base
}

func (n *This) String() string { return "this" }
func (*This) exprNode()        {}

// Binary is a binary operator expression.
type Binary struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

func (n *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}
func (*Binary) exprNode() {}

// Unary is a prefix operator expression (!, -, ~).
type Unary struct {
	Base
	Op string
	X  Expr
}

func (n *Unary) String() string { return fmt.Sprintf("(%s%s)", n.Op, n.X) }
func (*Unary) exprNode()        {}

// Call is a function application.
type Call struct {
	Base
	Callee Expr
	Args   []Expr
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ", "))
}
func (*Call) exprNode() {}

// MemberAccess is `obj.name`.
type MemberAccess struct {
	Base
	Obj  Expr
	Name string
}

func (n *MemberAccess) String() string { return fmt.Sprintf("%s.%s", n.Obj, n.Name) }
func (*MemberAccess) exprNode()        {}

// StructFieldInit is one `name: value` pair inside a StructInit.
type StructFieldInit struct {
	Name  string
	Value Expr
}

// StructInit constructs a struct value: `Name { f1: v1, f2: v2 }`.
type StructInit struct {
	Base
	Name   string
	Fields []StructFieldInit
}

func (n *StructInit) String() string {
	parts := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return fmt.Sprintf("%s { %s }", n.Name, strings.Join(parts, ", "))
}
func (*StructInit) exprNode() {}

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	Base
	Elems []Expr
}

func (n *ArrayLiteral) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
func (*ArrayLiteral) exprNode() {}

// Index is `arr[idx]`.
type Index struct {
	Base
	Arr Expr
	Idx Expr
}

func (n *Index) String() string { return fmt.Sprintf("%s[%s]", n.Arr, n.Idx) }
func (*Index) exprNode()        {}

// Lambda is an inline function value: `lambda (p: T, ...) -> T { ... }`.
type Lambda struct {
	Base
	Params []*Param
	Ret    TypeExpr // nil if the return type is to be inferred
	Body   *Block
}

func (n *Lambda) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("lambda(%s) %s", strings.Join(params, ", "), n.Body)
}
func (*Lambda) exprNode() {}

// Param is one function/lambda parameter.
type Param struct {
	Name string
	Type TypeExpr
	Pos  Pos
}

func (p *Param) String() string {
	if p.Type == nil {
		return p.Name
	}
	return fmt.Sprintf("%s: %s", p.Name, p.Type)
}

// ===========================================================================
// Statements
// ===========================================================================

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Base
	X Expr
}

func (n *ExprStmt) String() string { return n.X.String() + ";" }
func (*ExprStmt) stmtNode()        {}

// VarDecl is `let [mut] name [: Type] [= init];`.
type VarDecl struct {
	Base
	Name    string
	Mutable bool
	Type    TypeExpr // nil if omitted
	Init    Expr     // nil if omitted
}

func (n *VarDecl) String() string {
	var b strings.Builder
	b.WriteString("let ")
	if n.Mutable {
		b.WriteString("mut ")
	}
	b.WriteString(n.Name)
	if n.Type != nil {
		fmt.Fprintf(&b, ": %s", n.Type)
	}
	if n.Init != nil {
		fmt.Fprintf(&b, " = %s", n.Init)
	}
	b.WriteString(";")
	return b.String()
}
func (*VarDecl) stmtNode() {}

// Assign is `target = value;`.
type Assign struct {
	Base
	Target Expr
	Value  Expr
}

func (n *Assign) String() string { return fmt.Sprintf("%s = %s;", n.Target, n.Value) }
func (*Assign) stmtNode()        {}

// Return is `return [value];`.
type Return struct {
	Base
	Value Expr // nil for bare `return;`
}

func (n *Return) String() string {
	if n.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", n.Value)
}
func (*Return) stmtNode() {}

// If is `if (cond) then [else else_]`.
type If struct {
	Base
	Cond Expr
	Then *Block
	Else Node // *Block, *If (else-if chain), or nil
}

func (n *If) String() string {
	s := fmt.Sprintf("if %s %s", n.Cond, n.Then)
	if n.Else != nil {
		s += fmt.Sprintf(" else %s", n.Else)
	}
	return s
}
func (*If) stmtNode() {}

// ForKind distinguishes the two surface forms of `for`.
type ForKind int

const (
	// ForRange is `for i in a..b { }`.
	ForRange ForKind = iota
	// ForIterable is `for x in arr { }`.
	ForIterable
)

// For is a `for` loop, either the integer-range form or the
// iterable-array form.
type For struct {
	Base
	Kind     ForKind
	Var      string
	Start    Expr // ForRange only
	End      Expr // ForRange only
	Iterable Expr // ForIterable only
	Body     *Block
}

func (n *For) String() string {
	if n.Kind == ForRange {
		return fmt.Sprintf("for %s in %s..%s %s", n.Var, n.Start, n.End, n.Body)
	}
	return fmt.Sprintf("for %s in %s %s", n.Var, n.Iterable, n.Body)
}
func (*For) stmtNode() {}

// While is `while (cond) { }`.
type While struct {
	Base
	Cond Expr
	Body *Block
}

func (n *While) String() string { return fmt.Sprintf("while %s %s", n.Cond, n.Body) }
func (*While) stmtNode()        {}

// Block is a brace-delimited statement sequence.
type Block struct {
	Base
	Stmts []Stmt
}

func (n *Block) String() string {
	parts := make([]string, len(n.Stmts))
	for i, s := range n.Stmts {
		parts[i] = s.String()
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, " "))
}
func (*Block) stmtNode() {}

// ===========================================================================
// Declarations
// ===========================================================================

// Function is a top-level or `impl`-desugared function declaration.
type Function struct {
	Base
	Name       string
	Params     []*Param
	Ret        TypeExpr // nil means void
	Body       *Block   // nil for link-block foreign declarations
	Exported   bool
	IsMethod   bool   // true if desugared from `impl Struct::method`
	Receiver   string // struct name when IsMethod is true
	Variadic   bool   // true only inside `link` blocks
}

func (n *Function) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.String()
	}
	ret := ""
	if n.Ret != nil {
		ret = fmt.Sprintf(" -> %s", n.Ret)
	}
	if n.Body == nil {
		return fmt.Sprintf("func %s(%s)%s;", n.Name, strings.Join(params, ", "), ret)
	}
	return fmt.Sprintf("func %s(%s)%s %s", n.Name, strings.Join(params, ", "), ret, n.Body)
}
func (*Function) declNode() {}

// FieldDecl is one field of a Struct declaration.
type FieldDecl struct {
	Name string
	Type TypeExpr
	Pos  Pos
}

// Struct is a `struct Name { Type field; ... }` declaration.
type Struct struct {
	Base
	Name     string
	Fields   []*FieldDecl
	Exported bool
}

func (n *Struct) String() string {
	parts := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		parts[i] = fmt.Sprintf("%s %s;", f.Type, f.Name)
	}
	return fmt.Sprintf("struct %s { %s }", n.Name, strings.Join(parts, " "))
}
func (*Struct) declNode() {}

// Impl is `impl Struct::method(...) -> T { ... }`, parsed as a thin
// wrapper around the Function it desugars to (Function.IsMethod=true,
// Function.Receiver=Struct, with an implicit leading `this: Struct` param).
type Impl struct {
	Base
	StructName string
	Method     *Function
}

func (n *Impl) String() string {
	return fmt.Sprintf("impl %s::%s", n.StructName, n.Method.String())
}
func (*Impl) declNode() {}

// TypeDef is `type Name = AliasedType;`.
type TypeDef struct {
	Base
	Name    string
	Aliased TypeExpr
}

func (n *TypeDef) String() string { return fmt.Sprintf("type %s = %s;", n.Name, n.Aliased) }
func (*TypeDef) declNode()        {}

// Link is a `link "adapter" { ... }` foreign-function block.
type Link struct {
	Base
	Adapter    string
	Module     string
	InlineCode string // non-empty if the block contained `inline "...";`
	Funcs      []*Function
}

func (n *Link) String() string {
	return fmt.Sprintf("link %q { ... %d funcs }", n.Adapter, len(n.Funcs))
}
func (*Link) declNode() {}

// Import is `import [{names} from] "path" [as alias];`.
type Import struct {
	Base
	Path     string
	Selected []string // nil means import everything
	Alias    string   // empty means no alias
}

func (n *Import) String() string {
	if len(n.Selected) > 0 {
		return fmt.Sprintf("import { %s } from %q;", strings.Join(n.Selected, ", "), n.Path)
	}
	if n.Alias != "" {
		return fmt.Sprintf("import %q as %s;", n.Path, n.Alias)
	}
	return fmt.Sprintf("import %q;", n.Path)
}
func (*Import) declNode() {}

// Module is `module name;`.
type Module struct {
	Base
	Name string
}

func (n *Module) String() string { return fmt.Sprintf("module %s;", n.Name) }
func (*Module) declNode()        {}

// ===========================================================================
// Type syntax (parsed, unresolved)
// ===========================================================================

// NamedType is a bare primitive or user type name: `int`, `Point`, ...
type NamedType struct {
	Base
	Name string
}

func (n *NamedType) String() string { return n.Name }
func (*NamedType) typeNode()        {}

// ArrayType is `Elem[]`.
type ArrayType struct {
	Base
	Elem TypeExpr
}

func (n *ArrayType) String() string { return fmt.Sprintf("%s[]", n.Elem) }
func (*ArrayType) typeNode()        {}

// GenericType is `Name<Args...>`; the parser also produces this for the
// `T?` sugar as GenericType{Name: "Option", Args: []TypeExpr{T}}.
type GenericType struct {
	Base
	Name string
	Args []TypeExpr
}

func (n *GenericType) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", n.Name, strings.Join(args, ", "))
}
func (*GenericType) typeNode() {}

// FuncType is `Ret lambda [Param, Param, ...]`.
type FuncType struct {
	Base
	Ret    TypeExpr
	Params []TypeExpr
}

func (n *FuncType) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s lambda [%s]", n.Ret, strings.Join(params, ", "))
}
func (*FuncType) typeNode() {}

// NewBase constructs the embeddable Base shared by all node constructors.
func NewBase(pos Pos, id sid.ID) Base {
	return Base{Pos: pos, Nid: id}
}

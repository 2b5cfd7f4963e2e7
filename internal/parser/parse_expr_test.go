package parser

import (
	"fmt"
	"testing"

	"github.com/flow-lang/flowc/internal/ast"
)

func TestLiteralExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"let x = 5;", "5"},
		{"let x = 3.14;", "3.14"},
		{"let x = true;", "true"},
		{"let x = false;", "false"},
		{`let x = "hi";`, `"hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog, errs := parseProgram(t, tt.input)
			checkNoErrors(t, errs)
			decl := prog.Decls[0].(*ast.VarDecl)
			if decl.Init.String() != tt.want {
				t.Errorf("got %s, want %s", decl.Init.String(), tt.want)
			}
		})
	}
}

func TestBinaryPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"let x = 1 + 2 * 3;", "(1 + (2 * 3))"},
		{"let x = (1 + 2) * 3;", "((1 + 2) * 3)"},
		{"let x = a || b && c;", "(a || (b && c))"},
		{"let x = a & b | c ^ d;", "((a & b) | (c ^ d))"},
		{"let x = a == b && c < d;", "((a == b) && (c < d))"},
		{"let x = 1 << 2 + 3;", "(1 << (2 + 3))"},
		{"let x = -a + !b;", "((-a) + (!b))"},
		{"let x = a.b.c;", "a.b.c"},
		{"let x = f(1, 2).g()[0];", "f(1, 2).g()[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog, errs := parseProgram(t, tt.input)
			checkNoErrors(t, errs)
			decl := prog.Decls[0].(*ast.VarDecl)
			if got := decl.Init.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCallExpression(t *testing.T) {
	prog, errs := parseProgram(t, "let x = add(1, 2 * 3, 4 + 5);")
	checkNoErrors(t, errs)
	decl := prog.Decls[0].(*ast.VarDecl)
	call := decl.Init.(*ast.Call)
	if call.Callee.String() != "add" {
		t.Fatalf("callee = %s", call.Callee)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
}

func TestArrayLiteral(t *testing.T) {
	prog, errs := parseProgram(t, "let x = [1, 2, 3];")
	checkNoErrors(t, errs)
	decl := prog.Decls[0].(*ast.VarDecl)
	arr := decl.Init.(*ast.ArrayLiteral)
	if len(arr.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elems))
	}
}

func TestArrayTrailingCommaRejected(t *testing.T) {
	_, errs := parseProgram(t, "let x = [1, 2, ];")
	if len(errs) == 0 {
		t.Fatal("expected a trailing-comma error")
	}
}

func TestStructInitLiteral(t *testing.T) {
	prog, errs := parseProgram(t, "let p = Point { x: 1, y: 2 };")
	checkNoErrors(t, errs)
	decl := prog.Decls[0].(*ast.VarDecl)
	init := decl.Init.(*ast.StructInit)
	if init.Name != "Point" {
		t.Fatalf("expected Point, got %s", init.Name)
	}
	if len(init.Fields) != 2 || init.Fields[0].Name != "x" || init.Fields[1].Name != "y" {
		t.Fatalf("unexpected fields: %+v", init.Fields)
	}
}

func TestIndexExpression(t *testing.T) {
	prog, errs := parseProgram(t, "let x = arr[i + 1];")
	checkNoErrors(t, errs)
	decl := prog.Decls[0].(*ast.VarDecl)
	idx := decl.Init.(*ast.Index)
	if idx.Arr.String() != "arr" {
		t.Fatalf("unexpected base: %s", idx.Arr)
	}
}

func TestLambdaExpression(t *testing.T) {
	prog, errs := parseProgram(t, "let f = lambda (x: int) -> int { return x; };")
	checkNoErrors(t, errs)
	decl := prog.Decls[0].(*ast.VarDecl)
	lambda := decl.Init.(*ast.Lambda)
	if len(lambda.Params) != 1 || lambda.Params[0].Name != "x" {
		t.Fatalf("unexpected params: %+v", lambda.Params)
	}
	if lambda.Ret == nil || lambda.Ret.String() != "int" {
		t.Fatalf("unexpected return type: %v", lambda.Ret)
	}
}

func TestThisExpression(t *testing.T) {
	prog, errs := parseProgram(t, "impl Point::len() -> int { return this.x; }")
	checkNoErrors(t, errs)
	impl := prog.Decls[0].(*ast.Impl)
	ret := impl.Method.Body.Stmts[0].(*ast.Return)
	member := ret.Value.(*ast.MemberAccess)
	if _, ok := member.Obj.(*ast.This); !ok {
		t.Fatalf("expected This receiver, got %T", member.Obj)
	}
}

func TestIfConditionIsNotMistakenForStructLiteral(t *testing.T) {
	prog, errs := parseProgram(t, "func f() { if ready { return; } }")
	checkNoErrors(t, errs)
	fn := prog.Decls[0].(*ast.Function)
	ifStmt := fn.Body.Stmts[0].(*ast.If)
	if _, ok := ifStmt.Cond.(*ast.Identifier); !ok {
		t.Fatalf("expected a bare identifier condition, got %s", fmt.Sprintf("%T", ifStmt.Cond))
	}
}

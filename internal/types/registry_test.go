package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flow-lang/flowc/internal/ast"
)

func namedType(name string) *ast.NamedType {
	return &ast.NamedType{Name: name}
}

func TestRegistryResolveBuiltins(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		in   ast.TypeExpr
		want *Type
	}{
		{"int", namedType("int"), TInt},
		{"float", namedType("float"), TFloat},
		{"bool", namedType("bool"), TBool},
		{"string", namedType("string"), TString},
		{"void", namedType("void"), TVoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRegistryResolveArray(t *testing.T) {
	r := NewRegistry()
	got, err := r.Resolve(&ast.ArrayType{Elem: namedType("int")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equals(NewArray(TInt)) {
		t.Errorf("Resolve() = %s, want int[]", got)
	}
}

func TestRegistryResolveOptionSugar(t *testing.T) {
	r := NewRegistry()
	got, err := r.Resolve(&ast.GenericType{Name: "Option", Args: []ast.TypeExpr{namedType("string")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equals(NewOption(TString)) {
		t.Errorf("Resolve() = %s, want string?", got)
	}
}

func TestRegistryResolveDeclaredStruct(t *testing.T) {
	r := NewRegistry()
	r.DeclareStruct(&StructInfo{
		Name: "Point",
		Fields: []FieldInfo{
			{Name: "x", Type: TInt},
			{Name: "y", Type: TInt},
		},
	})

	got, err := r.Resolve(namedType("Point"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equals(NewStruct("Point")) {
		t.Errorf("Resolve() = %s, want Point", got)
	}

	info, ok := r.Struct("Point")
	if !ok {
		t.Fatal("expected Point to be declared")
	}
	xType, ok := info.FieldType("x")
	if !ok || !xType.Equals(TInt) {
		t.Errorf("expected field x: int, got %v", xType)
	}
}

func TestRegistryResolveUndeclaredType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(namedType("Nope"))
	if err == nil {
		t.Fatal("expected an error for an undeclared type name")
	}
	if err.Code != "SEM001" {
		t.Errorf("expected SEM001, got %s", err.Code)
	}
}

func TestRegistryResolveAliasChain(t *testing.T) {
	r := NewRegistry()
	r.DeclareAlias("Celsius", namedType("float"))
	r.DeclareAlias("Temperature", namedType("Celsius"))

	got, err := r.Resolve(namedType("Temperature"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equals(TFloat) {
		t.Errorf("Resolve() = %s, want float", got)
	}
}

func TestRegistryResolveAliasCycle(t *testing.T) {
	r := NewRegistry()
	r.DeclareAlias("A", namedType("B"))
	r.DeclareAlias("B", namedType("A"))

	_, err := r.Resolve(namedType("A"))
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if err.Code != "SEM005" {
		t.Errorf("expected SEM005, got %s", err.Code)
	}
}

func TestRegistryResolveFuncType(t *testing.T) {
	r := NewRegistry()
	got, err := r.Resolve(&ast.FuncType{
		Ret:    namedType("bool"),
		Params: []ast.TypeExpr{namedType("int"), namedType("string")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := NewFunction([]*Type{TInt, TString}, TBool)
	if !got.Equals(want) {
		t.Errorf("Resolve() = %s, want %s", got, want)
	}
}

func TestRegistryAllStructsMatchesDeclarations(t *testing.T) {
	r := NewRegistry()
	r.DeclareStruct(&StructInfo{
		Name:   "Point",
		Fields: []FieldInfo{{Name: "x", Type: TInt}, {Name: "y", Type: TInt}},
	})
	r.DeclareStruct(&StructInfo{
		Name:   "Line",
		Fields: []FieldInfo{{Name: "a", Type: NewStruct("Point")}, {Name: "b", Type: NewStruct("Point")}},
	})

	want := map[string]*StructInfo{
		"Point": {Name: "Point", Fields: []FieldInfo{{Name: "x", Type: TInt}, {Name: "y", Type: TInt}}},
		"Line": {Name: "Line", Fields: []FieldInfo{
			{Name: "a", Type: NewStruct("Point")},
			{Name: "b", Type: NewStruct("Point")},
		}},
	}

	got := r.AllStructs()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AllStructs() mismatch (-want +got):\n%s", diff)
	}
}

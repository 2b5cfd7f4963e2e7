package types

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"int", TInt, "int"},
		{"float", TFloat, "float"},
		{"bool", TBool, "bool"},
		{"string", TString, "string"},
		{"void", TVoid, "void"},
		{"array of int", NewArray(TInt), "int[]"},
		{"array of array", NewArray(NewArray(TString)), "string[][]"},
		{"struct", NewStruct("Point"), "Point"},
		{"option", NewOption(TInt), "int?"},
		{"function", NewFunction([]*Type{TInt, TBool}, TString), "(int, bool) -> string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same primitive", TInt, TInt, true},
		{"different primitive", TInt, TFloat, false},
		{"same struct name", NewStruct("Point"), NewStruct("Point"), true},
		{"different struct name", NewStruct("Point"), NewStruct("Line"), false},
		{"same array elem", NewArray(TInt), NewArray(TInt), true},
		{"different array elem", NewArray(TInt), NewArray(TFloat), false},
		{"same option elem", NewOption(TInt), NewOption(TInt), true},
		{"different option elem", NewOption(TInt), NewOption(TString), false},
		{
			"same function signature",
			NewFunction([]*Type{TInt}, TBool),
			NewFunction([]*Type{TInt}, TBool),
			true,
		},
		{
			"different arity",
			NewFunction([]*Type{TInt}, TBool),
			NewFunction([]*Type{TInt, TInt}, TBool),
			false,
		},
		{"struct vs array", NewStruct("Point"), NewArray(TInt), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.want {
				t.Errorf("Equals() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOption(t *testing.T) {
	opt := NewOption(TString)
	elem, ok := opt.IsOption()
	if !ok {
		t.Fatal("expected IsOption to report true")
	}
	if !elem.Equals(TString) {
		t.Errorf("expected elem string, got %s", elem)
	}

	if _, ok := TInt.IsOption(); ok {
		t.Error("expected IsOption(int) to report false")
	}
	if _, ok := NewStruct("Point").IsOption(); ok {
		t.Error("expected IsOption(Point) to report false")
	}
}

func TestIsNumeric(t *testing.T) {
	if !TInt.IsNumeric() {
		t.Error("expected int to be numeric")
	}
	if !TFloat.IsNumeric() {
		t.Error("expected float to be numeric")
	}
	if TBool.IsNumeric() {
		t.Error("expected bool to not be numeric")
	}
	if TString.IsNumeric() {
		t.Error("expected string to not be numeric")
	}
}

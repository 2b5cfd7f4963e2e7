package symbols

import (
	"testing"

	"github.com/flow-lang/flowc/internal/types"
)

func TestDefineAndLookup(t *testing.T) {
	s := NewScope()
	ok := s.Define(&Symbol{Name: "x", Type: types.TInt})
	if !ok {
		t.Fatal("expected first definition of x to succeed")
	}

	sym, ok := s.Lookup("x")
	if !ok {
		t.Fatal("expected to find x")
	}
	if !sym.Type.Equals(types.TInt) {
		t.Errorf("expected int, got %s", sym.Type)
	}
}

func TestDuplicateDefineFails(t *testing.T) {
	s := NewScope()
	s.Define(&Symbol{Name: "x", Type: types.TInt})
	if s.Define(&Symbol{Name: "x", Type: types.TBool}) {
		t.Fatal("expected duplicate definition of x to fail")
	}
}

func TestChildScopeFallsBackToParent(t *testing.T) {
	parent := NewScope()
	parent.Define(&Symbol{Name: "x", Type: types.TInt})

	child := parent.Child()
	sym, ok := child.Lookup("x")
	if !ok {
		t.Fatal("expected child scope to find parent's x")
	}
	if !sym.Type.Equals(types.TInt) {
		t.Errorf("expected int, got %s", sym.Type)
	}
}

func TestChildScopeShadowsParent(t *testing.T) {
	parent := NewScope()
	parent.Define(&Symbol{Name: "x", Type: types.TInt})

	child := parent.Child()
	child.Define(&Symbol{Name: "x", Type: types.TString})

	sym, _ := child.Lookup("x")
	if !sym.Type.Equals(types.TString) {
		t.Errorf("expected shadowed string, got %s", sym.Type)
	}

	parentSym, _ := parent.Lookup("x")
	if !parentSym.Type.Equals(types.TInt) {
		t.Errorf("expected parent's int to be unaffected, got %s", parentSym.Type)
	}
}

func TestLookupMissing(t *testing.T) {
	s := NewScope()
	if _, ok := s.Lookup("missing"); ok {
		t.Fatal("expected lookup of an undefined name to fail")
	}
}

func TestLookupLocalDoesNotFallBack(t *testing.T) {
	parent := NewScope()
	parent.Define(&Symbol{Name: "x", Type: types.TInt})
	child := parent.Child()

	if _, ok := child.LookupLocal("x"); ok {
		t.Fatal("expected LookupLocal to not see parent's x")
	}
}

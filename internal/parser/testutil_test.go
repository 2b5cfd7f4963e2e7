package parser

import (
	"testing"

	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
)

func parseProgram(t *testing.T, input string) (*ast.Program, []*errors.Report) {
	t.Helper()
	l := lexer.New(input, "test.flow")
	p := New(l, "test.flow")
	return p.Parse()
}

func checkNoErrors(t *testing.T, errs []*errors.Report) {
	t.Helper()
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		t.Errorf("parser error: %s: %s", e.Code, e.Message)
	}
	t.FailNow()
}

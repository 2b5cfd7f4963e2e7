package irgen

import (
	"strings"
	"testing"

	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
	"github.com/flow-lang/flowc/internal/module"
	"github.com/flow-lang/flowc/internal/parser"
	"github.com/flow-lang/flowc/internal/sema"
)

func lowerSource(t *testing.T, src string) string {
	t.Helper()
	l := lexer.New(src, "test.flow")
	p := parser.New(l, "test.flow")
	prog, perrs := p.Parse()
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}

	a := sema.New(module.NewLoader(), nil)
	res, reports := a.Analyze(prog, "")
	for _, r := range reports {
		if r.Kind == errors.KindError {
			t.Fatalf("unexpected semantic error: %s: %s", r.Code, r.Message)
		}
	}

	b := NewBuilder()
	lw := NewLowering(b, module.NewLoader(), nil)
	lw.Lower(prog, res, "")
	return b.Render()
}

func TestLowerSimpleFunction(t *testing.T) {
	ir := lowerSource(t, `
		func add(a: int, b: int) -> int { return a + b; }
	`)
	if !strings.Contains(ir, "define i64 @add(i64 %a, i64 %b)") {
		t.Errorf("expected add's signature in IR, got:\n%s", ir)
	}
	if !strings.Contains(ir, "ret i64") {
		t.Errorf("expected a ret i64 instruction, got:\n%s", ir)
	}
}

func TestLowerMissingReturnInsertsDefault(t *testing.T) {
	ir := lowerSource(t, `
		func f() -> int {
			let x = 1;
		}
	`)
	if !strings.Contains(ir, "ret i64 0") {
		t.Errorf("expected a synthesized default return, got:\n%s", ir)
	}
}

func TestLowerStringConcatenation(t *testing.T) {
	ir := lowerSource(t, `
		func main() -> string {
			let x = "a" + 1;
			return x;
		}
	`)
	if !strings.Contains(ir, "@flow_strcat") {
		t.Errorf("expected a flow_strcat call, got:\n%s", ir)
	}
}

func TestLowerArrayLiteralAndConstantLen(t *testing.T) {
	ir := lowerSource(t, `
		func main() -> int {
			let xs = [1, 2, 3];
			return len(xs);
		}
	`)
	if strings.Contains(ir, "@flow_arraylen") {
		t.Errorf("expected len() to resolve at compile time, got a runtime call:\n%s", ir)
	}
	if !strings.Contains(ir, "ret i64 3") {
		t.Errorf("expected the constant array length 3 to be returned, got:\n%s", ir)
	}
}

func TestLowerIndexEmitsBoundsCheckAndTrap(t *testing.T) {
	ir := lowerSource(t, `
		func main() -> int {
			let xs = [1, 2, 3];
			let i = 1;
			return xs[i];
		}
	`)
	if !strings.Contains(ir, "bounds.trap") {
		t.Errorf("expected a bounds.trap block, got:\n%s", ir)
	}
	if !strings.Contains(ir, "@flow_trap") {
		t.Errorf("expected a flow_trap call in the trap block, got:\n%s", ir)
	}
}

func TestLowerStructInitAndFieldAccess(t *testing.T) {
	ir := lowerSource(t, `
		struct Point { int x; int y; }
		func main() -> int {
			let p = Point { x: 1, y: 2 };
			return p.x;
		}
	`)
	if !strings.Contains(ir, "getelementptr %Point") {
		t.Errorf("expected a struct field GEP, got:\n%s", ir)
	}
}

func TestLowerMethodCallUsesFlattenedName(t *testing.T) {
	ir := lowerSource(t, `
		struct Point { int x; int y; }
		impl Point::sum() -> int { return this.x + this.y; }
		func main() -> int {
			let p = Point { x: 1, y: 2 };
			return p.sum();
		}
	`)
	if !strings.Contains(ir, "@Point_sum") {
		t.Errorf("expected a call to @Point_sum, got:\n%s", ir)
	}
	if !strings.Contains(ir, "define i64 @Point_sum") {
		t.Errorf("expected Point_sum to be defined, got:\n%s", ir)
	}
}

func TestLowerIfBothBranchesReturnNoDefaultInserted(t *testing.T) {
	ir := lowerSource(t, `
		func f(b: bool) -> int {
			if b {
				return 1;
			} else {
				return 2;
			}
		}
	`)
	if strings.Contains(ir, "ret i64 0") {
		t.Errorf("did not expect a synthesized default return when both branches return, got:\n%s", ir)
	}
	if !strings.Contains(ir, "if.then") || !strings.Contains(ir, "if.else") {
		t.Errorf("expected if.then and if.else blocks, got:\n%s", ir)
	}
}

func TestLowerForRangeEmitsCondBodyIncrBlocks(t *testing.T) {
	ir := lowerSource(t, `
		func main() -> int {
			let mut total = 0;
			for i in 0..10 {
				total = total + i;
			}
			return total;
		}
	`)
	for _, blk := range []string{"for.cond", "for.body", "for.incr", "for.after"} {
		if !strings.Contains(ir, blk) {
			t.Errorf("expected block %q, got:\n%s", blk, ir)
		}
	}
}

func TestLowerLinkDeclaresExternal(t *testing.T) {
	ir := lowerSource(t, `
		link "c" {
			func puts(s: string) -> int;
		}
		func main() -> int { return puts("hi"); }
	`)
	if !strings.Contains(ir, "declare i64 @puts") {
		t.Errorf("expected an external declaration for puts, got:\n%s", ir)
	}
}

func TestLowerLogicalAndShortCircuits(t *testing.T) {
	ir := lowerSource(t, `
		func f(a: bool, b: bool) -> bool {
			return a && b;
		}
	`)
	if !strings.Contains(ir, "sc.rhs") || !strings.Contains(ir, "sc.merge") {
		t.Errorf("expected short-circuit blocks sc.rhs/sc.merge, got:\n%s", ir)
	}
}

func TestLowerWhileEmitsCondBodyAfterBlocks(t *testing.T) {
	ir := lowerSource(t, `
		func main() -> int {
			let mut i = 0;
			while i < 10 {
				i = i + 1;
			}
			return i;
		}
	`)
	for _, blk := range []string{"while.cond", "while.body", "while.after"} {
		if !strings.Contains(ir, blk) {
			t.Errorf("expected block %q, got:\n%s", blk, ir)
		}
	}
}

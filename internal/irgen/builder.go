// Package irgen implements the lowering visitor: it walks a resolved
// Program (spec.md §4.7) and emits IR through the IRBuilder interface,
// an opaque target kept thin exactly the way spec.md §1 asks of every
// external collaborator ("LLVM backend ... stay opaque/thin"). The
// concrete Builder in this file renders a readable textual IR — no
// pack example wraps LLVM's C API or any Go LLVM binding, so this is
// deliberately a small hand-written SSA-ish text format, good enough to
// drive `--emit-llvm`'s ".ll" dump and to unit-test lowering decisions
// (which blocks get created, which calls get emitted) without needing
// a real code generator backing it.
package irgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flow-lang/flowc/internal/types"
)

// Value is an opaque reference to a previously emitted IR value: either
// a virtual register name ("%3") or a constant's printed form ("42").
type Value string

// Void is the absence of a value, used for calls/returns with no result.
const Void Value = ""

// Block is one basic block: a label and its instructions in order,
// terminated by exactly one of Br/CondBr/Ret/Unreachable.
type Block struct {
	Label  string
	Instrs []string
	term   bool
}

// Func is one IR function: either a local definition with blocks, or
// an external declaration with none.
type Func struct {
	Name     string
	Params   []string // rendered "name: type"
	Ret      string
	Blocks   []*Block
	External bool
	Adapter  string
	Module   string
}

// Builder accumulates the functions and external declarations lowered
// from one or more Programs (the Import case recurses into other
// Programs before returning to the importing one, per spec.md §4.7).
type Builder struct {
	funcs    []*Func
	cur      *Func
	curBlock *Block
	counter  int

	// arrayLen maps an array pointer value to its compile-time-known
	// length, so `len(arr)` resolves without a runtime call (spec.md
	// §4.7: "remembers the length in a side-map keyed by the array
	// pointer").
	arrayLen map[Value]int

	// linkLibs is the union of adapter="c" library names recorded by
	// Link declarations, consumed by the build orchestrator's linker
	// invocation (spec.md §4.8 step 3).
	linkLibs map[string]bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{arrayLen: make(map[Value]int), linkLibs: make(map[string]bool)}
}

// DeclareFunction begins a new function definition and makes it current.
func (b *Builder) DeclareFunction(name string, params []string, ret string) *Func {
	f := &Func{Name: name, Params: params, Ret: ret}
	b.funcs = append(b.funcs, f)
	b.cur = f
	return f
}

// DeclareExternal records an external-linkage declaration with no body
// (spec.md §4.7: "Link emits only external declarations for its
// foreign functions plus metadata used by the orchestrator to identify
// libraries to link").
func (b *Builder) DeclareExternal(name string, params []string, ret, adapter, libModule string) *Func {
	f := &Func{Name: name, Params: params, Ret: ret, External: true, Adapter: adapter, Module: libModule}
	b.funcs = append(b.funcs, f)
	if adapter == "c" && libModule != "" {
		b.linkLibs[libModule] = true
	}
	return f
}

// Block creates a new basic block in the current function and returns it.
func (b *Builder) Block(label string) *Block {
	blk := &Block{Label: label}
	b.cur.Blocks = append(b.cur.Blocks, blk)
	return blk
}

// SetBlock makes blk the insertion point for subsequent instructions.
func (b *Builder) SetBlock(blk *Block) { b.curBlock = blk }

// CurrentBlock returns the block currently receiving instructions.
func (b *Builder) CurrentBlock() *Block { return b.curBlock }

// HasTerminator reports whether the current block already ends in a
// branch, conditional branch, return, or trap — used by the function
// lowerer to decide whether a default return must be synthesized
// (spec.md §4.7).
func (b *Builder) HasTerminator() bool { return b.curBlock != nil && b.curBlock.term }

func (b *Builder) fresh() Value {
	b.counter++
	return Value(fmt.Sprintf("%%%d", b.counter))
}

func (b *Builder) emit(format string, args ...any) {
	b.curBlock.Instrs = append(b.curBlock.Instrs, fmt.Sprintf(format, args...))
}

// ConstInt, ConstFloat, ConstString, ConstBool emit literal constants.
func (b *Builder) ConstInt(v int64) Value    { return Value(fmt.Sprintf("%d", v)) }
func (b *Builder) ConstFloat(v float64) Value { return Value(fmt.Sprintf("%g", v)) }
func (b *Builder) ConstBool(v bool) Value    { return Value(fmt.Sprintf("%t", v)) }

// ConstString emits a string constant, quoted.
func (b *Builder) ConstString(v string) Value {
	return Value(fmt.Sprintf("%q", v))
}

// BinOp emits a binary operation and returns the result register.
func (b *Builder) BinOp(op string, l, r Value, resultType string) Value {
	dst := b.fresh()
	b.emit("%s = %s %s %s, %s", dst, op, resultType, l, r)
	return dst
}

// StrConcat lowers string `+` to a runtime sprintf-style call, per
// spec.md §4.7 ("lowered to a runtime concatenation call against a
// runtime-provided sprintf-like helper").
func (b *Builder) StrConcat(l, r Value, lFmt, rFmt string) Value {
	dst := b.fresh()
	b.emit("%s = call string @flow_strcat(format %q, %s, %s)", dst, lFmt+rFmt, l, r)
	return dst
}

// Alloca reserves stack storage for a local of the given type and
// returns a pointer value.
func (b *Builder) Alloca(name, typ string) Value {
	dst := b.fresh()
	b.emit("%s = alloca %s ; %s", dst, typ, name)
	return dst
}

// Store writes val through ptr.
func (b *Builder) Store(ptr, val Value, typ string) {
	b.emit("store %s %s, %s* %s", typ, val, typ, ptr)
}

// Load reads through ptr.
func (b *Builder) Load(ptr Value, typ string) Value {
	dst := b.fresh()
	b.emit("%s = load %s, %s* %s", dst, typ, typ, ptr)
	return dst
}

// GEPField computes the address of a struct field by index.
func (b *Builder) GEPField(ptr Value, structName string, index int, fieldName string) Value {
	dst := b.fresh()
	b.emit("%s = getelementptr %%%s, %%%s* %s, i32 0, i32 %d ; .%s", dst, structName, structName, ptr, index, fieldName)
	return dst
}

// GEPIndex computes the address of an array element by index, with no
// bounds check of its own — callers emit BoundsCheck first.
func (b *Builder) GEPIndex(ptr, idx Value, elemType string) Value {
	dst := b.fresh()
	b.emit("%s = getelementptr %s, %s* %s, %s", dst, elemType, elemType, ptr, idx)
	return dst
}

// BoundsCheck emits `idx >= 0 && idx < length`, branching to okBlock on
// success and trapBlock on failure — spec.md §4.7's "bounds check ...
// that branches to a trap block on failure", invariant #6 in spec.md §8.
func (b *Builder) BoundsCheck(idx Value, length int, okBlock, trapBlock *Block) {
	cmp := b.fresh()
	b.emit("%s = icmp uge i32 %s, 0 ; also < %d", cmp, idx, length)
	b.emit("br i1 %s, label %%%s, label %%%s", cmp, okBlock.Label, trapBlock.Label)
	b.curBlock.term = true
}

// Trap emits an unrecoverable runtime bounds-error exit, terminating
// the current (trap) block.
func (b *Builder) Trap(msg string) {
	b.emit("call void @flow_trap(string %q)", msg)
	b.emit("unreachable")
	b.curBlock.term = true
}

// Call emits a direct call and returns its result register (Void if
// the callee returns void).
func (b *Builder) Call(name string, args []Value, retType string) Value {
	argList := make([]string, len(args))
	for i, a := range args {
		argList[i] = string(a)
	}
	if retType == "" || retType == "void" {
		b.emit("call void @%s(%s)", name, strings.Join(argList, ", "))
		return Void
	}
	dst := b.fresh()
	b.emit("%s = call %s @%s(%s)", dst, retType, name, strings.Join(argList, ", "))
	return dst
}

// Br emits an unconditional branch, terminating the current block.
func (b *Builder) Br(target *Block) {
	b.emit("br label %%%s", target.Label)
	b.curBlock.term = true
}

// CondBr emits a conditional branch, terminating the current block.
func (b *Builder) CondBr(cond Value, thenBlock, elseBlock *Block) {
	b.emit("br i1 %s, label %%%s, label %%%s", cond, thenBlock.Label, elseBlock.Label)
	b.curBlock.term = true
}

// Ret emits a return, terminating the current block. val is Void for
// a bare `return;`.
func (b *Builder) Ret(val Value, retType string) {
	if val == Void {
		b.emit("ret void")
	} else {
		b.emit("ret %s %s", retType, val)
	}
	b.curBlock.term = true
}

// RememberArrayLen records arr's compile-time-known length.
func (b *Builder) RememberArrayLen(arr Value, length int) { b.arrayLen[arr] = length }

// ArrayLen resolves a previously recorded array length.
func (b *Builder) ArrayLen(arr Value) (int, bool) {
	n, ok := b.arrayLen[arr]
	return n, ok
}

// LinkLibraries returns the sorted set of `adapter="c"` library names
// recorded by Link declarations, for the build orchestrator's linker
// invocation.
func (b *Builder) LinkLibraries() []string {
	libs := make([]string, 0, len(b.linkLibs))
	for lib := range b.linkLibs {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// Render prints every function/declaration as textual IR, in the order
// they were lowered.
func (b *Builder) Render() string {
	var out strings.Builder
	for _, f := range b.funcs {
		if f.External {
			fmt.Fprintf(&out, "declare %s @%s(%s) ; adapter=%s module=%s\n",
				f.Ret, f.Name, strings.Join(f.Params, ", "), f.Adapter, f.Module)
			continue
		}
		fmt.Fprintf(&out, "define %s @%s(%s) {\n", f.Ret, f.Name, strings.Join(f.Params, ", "))
		for _, blk := range f.Blocks {
			fmt.Fprintf(&out, "%s:\n", blk.Label)
			for _, instr := range blk.Instrs {
				fmt.Fprintf(&out, "  %s\n", instr)
			}
		}
		out.WriteString("}\n")
	}
	return out.String()
}

// irType renders a resolved type as IR type syntax.
func irType(t *types.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case types.Int:
		return "i64"
	case types.Float:
		return "double"
	case types.Bool:
		return "i1"
	case types.String:
		return "i8*"
	case types.Void:
		return "void"
	case types.StructKind:
		if elem, ok := t.IsOption(); ok {
			return fmt.Sprintf("%%Option.%s", irType(elem))
		}
		return "%" + t.StructName
	case types.ArrayKind:
		return irType(t.Elem) + "*"
	case types.FunctionKind:
		return "ptr"
	default:
		return "i64"
	}
}

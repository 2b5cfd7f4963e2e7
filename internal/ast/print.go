package ast

import (
	"fmt"
	"strings"
)

// Dump renders a Program as an indented tree, for the CLI's --emit-ast
// debug flag. It is a convenience on top of each node's String(); unlike
// String(), which stays on one line, Dump breaks declarations and block
// statements onto their own indented lines so a human can skim a large
// program.
func Dump(prog *Program) string {
	var b strings.Builder
	for _, d := range prog.Decls {
		dumpNode(&b, d, 0)
	}
	return b.String()
}

func dumpNode(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch d := n.(type) {
	case *Function:
		fmt.Fprintf(b, "%sfunc %s\n", indent, d.Name)
		if d.Body != nil {
			for _, s := range d.Body.Stmts {
				dumpNode(b, s, depth+1)
			}
		}
	case *Struct:
		fmt.Fprintf(b, "%sstruct %s\n", indent, d.Name)
	case *Impl:
		fmt.Fprintf(b, "%simpl %s::%s\n", indent, d.StructName, d.Method.Name)
		if d.Method.Body != nil {
			for _, s := range d.Method.Body.Stmts {
				dumpNode(b, s, depth+1)
			}
		}
	case *TypeDef:
		fmt.Fprintf(b, "%s%s\n", indent, d.String())
	case *Link:
		fmt.Fprintf(b, "%s%s\n", indent, d.String())
	case *Import:
		fmt.Fprintf(b, "%s%s\n", indent, d.String())
	case *Module:
		fmt.Fprintf(b, "%s%s\n", indent, d.String())
	case *Block:
		fmt.Fprintf(b, "%s{\n", indent)
		for _, s := range d.Stmts {
			dumpNode(b, s, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	case *If:
		fmt.Fprintf(b, "%sif %s\n", indent, d.Cond)
		dumpNode(b, d.Then, depth+1)
		if d.Else != nil {
			fmt.Fprintf(b, "%selse\n", indent)
			dumpNode(b, d.Else, depth+1)
		}
	case *For:
		fmt.Fprintf(b, "%s%s\n", indent, d.String())
		dumpNode(b, d.Body, depth+1)
	case *While:
		fmt.Fprintf(b, "%swhile %s\n", indent, d.Cond)
		dumpNode(b, d.Body, depth+1)
	default:
		fmt.Fprintf(b, "%s%s\n", indent, n.String())
	}
}

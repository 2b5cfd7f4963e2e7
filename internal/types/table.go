package types

import "github.com/flow-lang/flowc/internal/sid"

// Table is the resolved-type side table the semantic analyzer fills in
// place of mutating ast.Expr nodes. Every expression node's resolved
// type is looked up by its sid.ID once analysis completes.
type Table struct {
	byNode map[sid.ID]*Type
}

// NewTable builds an empty Table.
func NewTable() *Table {
	return &Table{byNode: make(map[sid.ID]*Type)}
}

// Set records the resolved type of a node.
func (t *Table) Set(id sid.ID, typ *Type) {
	t.byNode[id] = typ
}

// Get returns the resolved type of a node, or (nil, false) if analysis
// never reached it (e.g. inside a branch pruned by an earlier error).
func (t *Table) Get(id sid.ID) (*Type, bool) {
	typ, ok := t.byNode[id]
	return typ, ok
}

// MustGet returns the resolved type of a node, or TUnknown if absent.
// Lowering uses this once semantic analysis has already guaranteed a
// type exists for every reachable node.
func (t *Table) MustGet(id sid.ID) *Type {
	if typ, ok := t.byNode[id]; ok {
		return typ
	}
	return TUnknown
}

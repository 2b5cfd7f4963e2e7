// Package types implements the Flow resolved-type model: a tagged union
// over the language's built-in and user-declared types, plus the
// registry that resolves type syntax from the AST into this form.
//
// Resolved types are never written back onto an ast.Expr. The semantic
// analyzer fills a side table (see Table) keyed by each node's sid.ID,
// so the parsed AST stays immutable after parsing.
package types

import (
	"fmt"
	"strings"
)

// Kind tags which case of the Type union a value holds.
type Kind int

const (
	Invalid Kind = iota
	Int
	Float
	Bool
	String
	Void
	Unknown
	StructKind
	ArrayKind
	FunctionKind
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Void:
		return "void"
	case Unknown:
		return "unknown"
	case StructKind:
		return "struct"
	case ArrayKind:
		return "array"
	case FunctionKind:
		return "function"
	default:
		return "invalid"
	}
}

// Type is a resolved Flow type: a closed tagged union. Kind selects
// which of the remaining fields is meaningful:
//
//   - Int, Float, Bool, String, Void, Unknown: no extra fields.
//   - StructKind: StructName names the declared struct (or "Option" for
//     the built-in T? sugar, in which case Elem holds T).
//   - ArrayKind: Elem is the element type.
//   - FunctionKind: Params and Result describe the signature.
type Type struct {
	Kind       Kind
	StructName string
	Elem       *Type
	Params     []*Type
	Result     *Type
}

var (
	TInt     = &Type{Kind: Int}
	TFloat   = &Type{Kind: Float}
	TBool    = &Type{Kind: Bool}
	TString  = &Type{Kind: String}
	TVoid    = &Type{Kind: Void}
	TUnknown = &Type{Kind: Unknown}
)

// NewStruct builds a struct-kind type referencing a declared struct by name.
func NewStruct(name string) *Type {
	return &Type{Kind: StructKind, StructName: name}
}

// NewArray builds an array-kind type over an element type.
func NewArray(elem *Type) *Type {
	return &Type{Kind: ArrayKind, Elem: elem}
}

// NewFunction builds a function-kind type.
func NewFunction(params []*Type, result *Type) *Type {
	return &Type{Kind: FunctionKind, Params: params, Result: result}
}

// NewOption builds the `T?` sugar as the built-in generic struct Option<T>.
// Option is modeled as a struct so field access goes through the same
// struct-field machinery as any other struct.
func NewOption(elem *Type) *Type {
	return &Type{Kind: StructKind, StructName: "Option", Elem: elem}
}

// IsOption reports whether t is the Option<T> built-in struct, returning
// its element type when true.
func (t *Type) IsOption() (*Type, bool) {
	if t != nil && t.Kind == StructKind && t.StructName == "Option" && t.Elem != nil {
		return t.Elem, true
	}
	return nil, false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case StructKind:
		if elem, ok := t.IsOption(); ok {
			return fmt.Sprintf("%s?", elem)
		}
		return t.StructName
	case ArrayKind:
		return fmt.Sprintf("%s[]", t.Elem)
	case FunctionKind:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Result)
	default:
		return t.Kind.String()
	}
}

// Equals reports structural equality: two struct types are equal iff
// they name the same declared struct, two arrays iff their element
// types are equal, two functions iff their signatures match exactly.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case StructKind:
		if t.StructName != other.StructName {
			return false
		}
		if t.StructName == "Option" {
			return t.Elem.Equals(other.Elem)
		}
		return true
	case ArrayKind:
		return t.Elem.Equals(other.Elem)
	case FunctionKind:
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equals(other.Params[i]) {
				return false
			}
		}
		return t.Result.Equals(other.Result)
	default:
		return true
	}
}

// IsNumeric reports whether t is int or float.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == Int || t.Kind == Float)
}

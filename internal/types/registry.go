package types

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
)

// spanAt builds a zero-width Span at a single position, for diagnostics
// that have no wider range to underline.
func spanAt(p ast.Pos) ast.Span {
	return ast.Span{Start: p, End: p}
}

// StructInfo records one declared struct's field order and types.
type StructInfo struct {
	Name   string
	Fields []FieldInfo
}

// FieldInfo is one field of a declared struct.
type FieldInfo struct {
	Name string
	Type *Type
}

// FieldType returns the type of the named field, or nil if absent.
func (s *StructInfo) FieldType(name string) (*Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Registry resolves type syntax (ast.TypeExpr) to resolved types (Type),
// and holds every declared struct and `type` alias in a compilation.
// Alias resolution follows alias chains to their underlying type,
// detecting cycles by name as it walks.
type Registry struct {
	structs map[string]*StructInfo
	aliases map[string]ast.TypeExpr
}

// NewRegistry builds an empty Registry with the Option built-in available
// implicitly through NewOption rather than as a registered struct.
func NewRegistry() *Registry {
	return &Registry{
		structs: make(map[string]*StructInfo),
		aliases: make(map[string]ast.TypeExpr),
	}
}

// DeclareStruct registers a struct's resolved field list.
func (r *Registry) DeclareStruct(info *StructInfo) {
	r.structs[info.Name] = info
}

// Struct looks up a declared struct by name.
func (r *Registry) Struct(name string) (*StructInfo, bool) {
	s, ok := r.structs[name]
	return s, ok
}

// AllStructs returns every declared struct, keyed by name — used when
// importing a module to merge its struct definitions into the
// importer's own registry.
func (r *Registry) AllStructs() map[string]*StructInfo {
	return r.structs
}

// DeclareAlias registers a `type Name = Aliased;` declaration. Resolution
// is deferred until Resolve walks the alias chain, so forward references
// within one module work regardless of declaration order.
func (r *Registry) DeclareAlias(name string, aliased ast.TypeExpr) {
	r.aliases[name] = aliased
}

// Resolve converts parsed type syntax into a resolved Type, following
// alias chains and reporting SEM005 on a cycle.
func (r *Registry) Resolve(te ast.TypeExpr) (*Type, *errors.Report) {
	return r.resolve(te, make(map[string]bool))
}

func (r *Registry) resolve(te ast.TypeExpr, visiting map[string]bool) (*Type, *errors.Report) {
	switch t := te.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "int":
			return TInt, nil
		case "float":
			return TFloat, nil
		case "bool":
			return TBool, nil
		case "string":
			return TString, nil
		case "void":
			return TVoid, nil
		}
		if aliased, ok := r.aliases[t.Name]; ok {
			if visiting[t.Name] {
				return nil, errors.New(errors.SEM005, spanAt(t.Position()),
					"type alias %q is defined in terms of itself", t.Name)
			}
			visiting[t.Name] = true
			resolved, err := r.resolve(aliased, visiting)
			delete(visiting, t.Name)
			return resolved, err
		}
		if _, ok := r.structs[t.Name]; ok {
			return NewStruct(t.Name), nil
		}
		// Forward reference to a struct not yet declared in this pass is
		// allowed; the semantic analyzer pre-declares every struct name
		// before resolving field/signature types, so this path is only
		// reached for a genuinely undeclared name.
		return nil, errors.New(errors.SEM001, spanAt(t.Position()), "undefined type %q", t.Name)

	case *ast.ArrayType:
		elem, err := r.resolve(t.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return NewArray(elem), nil

	case *ast.GenericType:
		if t.Name == "Option" && len(t.Args) == 1 {
			elem, err := r.resolve(t.Args[0], visiting)
			if err != nil {
				return nil, err
			}
			return NewOption(elem), nil
		}
		return nil, errors.New(errors.SEM001, spanAt(t.Position()),
			"unknown generic type %q", t.Name)

	case *ast.FuncType:
		ret, err := r.resolve(t.Ret, visiting)
		if err != nil {
			return nil, err
		}
		params := make([]*Type, len(t.Params))
		for i, p := range t.Params {
			pt, err := r.resolve(p, visiting)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		return NewFunction(params, ret), nil

	default:
		return nil, errors.New(errors.SEM001, spanAt(te.Position()),
			"unrecognized type syntax %T", te)
	}
}

// Package sema implements the Flow semantic analyzer: a pass over a
// parsed Program that resolves every expression's type into a side
// table, validates scope/mutability/arity rules, and builds the
// top-level symbol table the lowering visitor and build orchestrator
// both consume.
//
// Grounded on the teacher's internal/elaborate package's single-pass
// visitor shape (one function per AST kind, threading a mutable
// environment downward) but retargeted at spec.md §4.6: no type
// inference via unification, no dictionary-passing, no effect rows —
// every binding either carries a declared type or one inferred
// directly from its initializer.
package sema

import (
	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/module"
	"github.com/flow-lang/flowc/internal/symbols"
	"github.com/flow-lang/flowc/internal/types"
)

// Result is everything downstream phases (lowering, the build
// orchestrator) need from a successfully (or partially) analyzed
// module.
type Result struct {
	ModuleName string
	Types      *types.Table
	Registry   *types.Registry
	Globals    *symbols.Scope
	// Imports records each import declaration's resolved canonical path,
	// in source order, so the lowering visitor can recurse into them
	// (spec.md §4.7: "Import triggers a recursive lowering of the
	// imported program first").
	Imports []ResolvedImport
}

// ResolvedImport is one processed import declaration.
type ResolvedImport struct {
	Decl *ast.Import
	Path string // canonical file path, empty if resolution failed
}

// Analyzer runs one module's worth of semantic analysis. A fresh
// Analyzer is created per module (spec.md §4.6: "analyzes the imported
// module in a fresh analyzer instance with the same search-path
// list"); the Loader is shared so an imported file already parsed
// during discovery is never re-read from disk.
type Analyzer struct {
	loader *module.Loader
	cache  map[string]*Result // shared across the whole import graph, keyed by canonical path

	moduleName string
	registry   *types.Registry
	table      *types.Table
	globals    *symbols.Scope
	scope      *symbols.Scope

	currentRet *types.Type // declared return type of the function body being visited
	reports    []*errors.Report

	imports []ResolvedImport
}

// New creates an Analyzer sharing loader's module cache. cache, if
// non-nil, is the shared analyzed-module cache used to avoid
// re-analyzing a diamond-imported file; pass nil for a standalone
// (root) analysis.
func New(loader *module.Loader, cache map[string]*Result) *Analyzer {
	if cache == nil {
		cache = make(map[string]*Result)
	}
	reg := types.NewRegistry()
	globals := symbols.NewScope()
	return &Analyzer{
		loader:   loader,
		cache:    cache,
		registry: reg,
		table:    types.NewTable(),
		globals:  globals,
		scope:    globals,
	}
}

// Analyze runs every pass of semantic analysis over prog, which was
// loaded from file (used to resolve relative imports it contains).
func (a *Analyzer) Analyze(prog *ast.Program, file string) (*Result, []*errors.Report) {
	// The result is cached before imports are processed, so a module that
	// imports itself (directly or through others) finds this entry instead
	// of starting another analysis of the same file.
	result := &Result{
		Types:    a.table,
		Registry: a.registry,
		Globals:  a.globals,
	}
	if file != "" {
		a.cache[file] = result
	}

	a.processImports(prog, file)
	a.predeclareTypes(prog)
	a.resolveStructFields(prog)
	a.predeclareFunctions(prog)
	a.visitBodies(prog)

	result.ModuleName = a.moduleName
	result.Imports = a.imports
	return result, a.reports
}

func (a *Analyzer) errorf(code string, span ast.Span, format string, args ...any) {
	a.reports = append(a.reports, errors.New(code, span, format, args...))
}

func (a *Analyzer) warnf(code string, span ast.Span, format string, args ...any) {
	a.reports = append(a.reports, errors.Warning(code, span, format, args...))
}

func spanOf(n ast.Node) ast.Span {
	p := n.Position()
	return ast.Span{Start: p, End: p}
}

// processImports resolves and analyzes every import declaration before
// any of this module's own declarations, so that imported struct types
// and function symbols are visible while registering local
// declarations. Per spec.md §4.6, a successful import copies the
// imported module's top-level symbols into this one, respecting
// `selected` and `alias`; every copied function symbol is marked
// Foreign so the lowering visitor emits an external declaration for it.
func (a *Analyzer) processImports(prog *ast.Program, file string) {
	for _, d := range prog.Decls {
		imp, ok := d.(*ast.Import)
		if !ok {
			continue
		}

		mod, reports := a.loader.Load(imp.Path, file)
		a.reports = append(a.reports, reports...)
		if mod == nil {
			a.imports = append(a.imports, ResolvedImport{Decl: imp})
			continue
		}
		a.imports = append(a.imports, ResolvedImport{Decl: imp, Path: mod.Identity})

		if mod.Partial {
			// spec.md §4.5: a cycle-completing load returns a partial,
			// empty declaration list; there is nothing yet to import.
			continue
		}

		sub, ok := a.cache[mod.Identity]
		if !ok {
			subAnalyzer := New(a.loader, a.cache)
			var subReports []*errors.Report
			sub, subReports = subAnalyzer.Analyze(mod.Program, mod.Identity)
			a.reports = append(a.reports, subReports...)
		}

		a.importFrom(sub, imp)
	}
}

func (a *Analyzer) importFrom(sub *Result, imp *ast.Import) {
	// Struct and alias definitions are merged unconditionally rather
	// than filtered by `selected`: spec.md §4.6 only describes
	// `selected`/`alias` in terms of the symbol table, and a selected
	// function's parameter/return types may reference a struct the
	// import didn't explicitly name. Struct names are assumed unique
	// across a compilation, same as Go's own package-qualified names
	// collapsed here since Flow has no per-module type namespacing.
	for name, info := range sub.Registry.AllStructs() {
		a.registry.DeclareStruct(&types.StructInfo{Name: name, Fields: info.Fields})
	}

	selected := make(map[string]bool, len(imp.Selected))
	for _, name := range imp.Selected {
		selected[name] = true
	}

	sub.Globals.Each(func(name string, sym *symbols.Symbol) {
		if len(selected) > 0 && !selected[name] {
			return
		}
		copied := *sym
		copied.Foreign = true
		localName := name
		if imp.Alias != "" {
			localName = imp.Alias + "." + name
		}
		a.globals.DefineAs(&copied, localName)
	})
}

// predeclareTypes registers every struct name (with an empty field
// list, filled in by resolveStructFields) and every type alias, so
// that a struct field or function signature may reference a struct or
// alias declared later in the same file.
func (a *Analyzer) predeclareTypes(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Module:
			if a.moduleName != "" {
				a.errorf(errors.MOD004, spanOf(decl), "duplicate module declaration")
				continue
			}
			a.moduleName = decl.Name
		case *ast.Struct:
			if _, exists := a.registry.Struct(decl.Name); exists {
				a.errorf(errors.SEM004, spanOf(decl), "struct %q already declared", decl.Name)
				continue
			}
			a.registry.DeclareStruct(&types.StructInfo{Name: decl.Name})
		case *ast.TypeDef:
			a.registry.DeclareAlias(decl.Name, decl.Aliased)
		}
	}
}

// resolveStructFields fills each predeclared struct's field list now
// that every struct/alias name in the file is registered.
func (a *Analyzer) resolveStructFields(prog *ast.Program) {
	for _, d := range prog.Decls {
		decl, ok := d.(*ast.Struct)
		if !ok {
			continue
		}
		info, _ := a.registry.Struct(decl.Name)
		seen := make(map[string]bool, len(decl.Fields))
		for _, f := range decl.Fields {
			if seen[f.Name] {
				a.errorf(errors.SEM004, ast.Span{Start: f.Pos, End: f.Pos},
					"duplicate field %q in struct %q", f.Name, decl.Name)
				continue
			}
			seen[f.Name] = true

			ft, rep := a.registry.Resolve(f.Type)
			if rep != nil {
				a.reports = append(a.reports, rep)
				ft = types.TUnknown
			}
			info.Fields = append(info.Fields, types.FieldInfo{Name: f.Name, Type: ft})
		}
	}
}

// predeclareFunctions registers every top-level function signature —
// plain functions, impl-desugared methods, and link-block foreign
// declarations — as a symbol in globals before any body is visited, so
// mutually recursive and forward-referenced calls resolve.
func (a *Analyzer) predeclareFunctions(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Function:
			a.declareFunctionSymbol(decl, "", "")
		case *ast.Impl:
			a.declareFunctionSymbol(decl.Method, "", "")
		case *ast.Link:
			for _, fn := range decl.Funcs {
				a.declareFunctionSymbol(fn, decl.Adapter, decl.Module)
			}
		}
	}
}

func symbolName(fn *ast.Function) string {
	if fn.IsMethod {
		return fn.Receiver + "::" + fn.Name
	}
	return fn.Name
}

func (a *Analyzer) declareFunctionSymbol(fn *ast.Function, adapter, libModule string) {
	params := make([]*types.Type, 0, len(fn.Params))
	for _, p := range fn.Params {
		pt, rep := a.registry.Resolve(p.Type)
		if rep != nil {
			a.reports = append(a.reports, rep)
			pt = types.TUnknown
		}
		params = append(params, pt)
	}
	ret := types.TVoid
	if fn.Ret != nil {
		rt, rep := a.registry.Resolve(fn.Ret)
		if rep != nil {
			a.reports = append(a.reports, rep)
			rt = types.TUnknown
		}
		ret = rt
	}

	name := symbolName(fn)
	sym := &symbols.Symbol{
		Name:       name,
		Type:       types.NewFunction(params, ret),
		IsFunction: true,
		Foreign:    adapter != "",
		Adapter:    adapter,
		Module:     libModule,
	}
	if !a.globals.Define(sym) {
		a.errorf(errors.SEM004, spanOf(fn), "function %q already declared", name)
	}
}

// visitBodies type-checks every function body, including impl-desugared
// methods. Link-block declarations have no body (fn.Body == nil) and
// are skipped.
func (a *Analyzer) visitBodies(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.Function:
			a.checkFunctionBody(decl)
		case *ast.Impl:
			a.checkFunctionBody(decl.Method)
		}
	}
}

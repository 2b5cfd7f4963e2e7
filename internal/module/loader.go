package module

import (
	"os"
	"sync"

	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/lexer"
	"github.com/flow-lang/flowc/internal/parser"
)

// Module is a parsed, resolved compilation unit: one source file plus
// the subset of its own declarations visible to importers.
type Module struct {
	// Identity is the canonical file path, the loader's cache key.
	Identity string
	// Name is the declared module name (spec.md §4.6: "used only for
	// diagnostics"), empty if the file has no `module` declaration.
	Name string
	// Program is the parsed AST. Partial is true when this value was
	// handed back mid-cycle (spec.md §4.5): Program then reflects
	// whatever has been produced so far, which for this implementation
	// (no incremental per-declaration registration) is an empty decl
	// list, since the module in question has not finished its own parse.
	Program *ast.Program
	Partial bool
	// Imports are this module's own import declarations, in source order.
	Imports []*ast.Import
	// ParseErrors carries any diagnostics collected while parsing this
	// module (panic-mode recovery never aborts, so a parse can still
	// yield a usable partial Program alongside reported errors).
	ParseErrors []*errors.Report
}

// Loader resolves and parses modules on demand, caching by canonical
// path and detecting import cycles via a loading-marker set — both
// grounded on the teacher's internal/module/loader.go, adapted to this
// package's *ast.Program (a flat Decls list, not a pre-split Module/
// Imports/Exports triple) and to this repository's parser/errors API.
type Loader struct {
	resolver *Resolver

	mu      sync.RWMutex
	cache   map[string]*Module
	loading map[string]bool
}

// NewLoader creates a Loader using a fresh Resolver.
func NewLoader() *Loader {
	return &Loader{
		resolver: NewResolver(),
		cache:    make(map[string]*Module),
		loading:  make(map[string]bool),
	}
}

// Resolver exposes the loader's resolver so the build orchestrator can
// prepend manifest search paths before the first Load.
func (l *Loader) Resolver() *Resolver { return l.resolver }

// Load resolves importPath relative to fromFile (empty for the build's
// root file), parses it, and recursively loads its own imports in the
// same call — so a module's loading marker is still installed while its
// transitive dependencies are walked, which is what makes cycle
// detection below work. Every module named anywhere in the import graph
// is read and parsed at most once regardless of how many modules import
// it.
//
// A circular import — a module transitively importing itself while its
// loading marker is still set — does not abort the whole load: the
// Load call that completes the cycle gets back the cycle target's
// in-progress Module (Partial, with an empty decl list) alongside a
// MOD002 Report, per spec.md §4.5's "permitted for symbol export... the
// resolver returns the partial/empty declaration list of the
// cycle-completing module." All reports collected from this module and
// everything it (transitively) imports are returned together, collector
// style, matching the rest of this compiler's never-abort-on-first-error
// philosophy; the caller decides whether any KindError report is fatal.
func (l *Loader) Load(importPath, fromFile string) (*Module, []*errors.Report) {
	canon, err := l.resolver.Resolve(importPath, fromFile)
	if err != nil {
		return nil, []*errors.Report{notFoundReport(importPath, err)}
	}

	if mod := l.getCached(canon); mod != nil {
		return mod, nil
	}

	if l.isLoading(canon) {
		return &Module{Identity: canon, Partial: true, Program: &ast.Program{}}, []*errors.Report{cycleReport(importPath)}
	}

	l.markLoading(canon)
	defer l.unmarkLoading(canon)

	mod, reports := l.parseFile(canon)
	for _, r := range reports {
		if r.Kind == errors.KindError {
			return mod, reports
		}
	}

	for _, imp := range mod.Imports {
		_, depReports := l.Load(imp.Path, canon)
		reports = append(reports, depReports...)
	}

	l.cacheModule(mod)
	return mod, reports
}

func (l *Loader) parseFile(path string) (*Module, []*errors.Report) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, []*errors.Report{errors.NewGeneric("io", err)}
	}

	lx := lexer.New(string(content), path)
	p := parser.New(lx, path)
	program, perrs := p.Parse()

	mod := &Module{
		Identity:    path,
		Program:     program,
		Imports:     importsOf(program),
		Name:        moduleNameOf(program),
		ParseErrors: perrs,
	}
	return mod, perrs
}

func importsOf(prog *ast.Program) []*ast.Import {
	var imports []*ast.Import
	for _, d := range prog.Decls {
		if imp, ok := d.(*ast.Import); ok {
			imports = append(imports, imp)
		}
	}
	return imports
}

func moduleNameOf(prog *ast.Program) string {
	for _, d := range prog.Decls {
		if m, ok := d.(*ast.Module); ok {
			return m.Name
		}
	}
	return ""
}

func (l *Loader) getCached(identity string) *Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[identity]
}

func (l *Loader) cacheModule(mod *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[mod.Identity] = mod
}

func (l *Loader) isLoading(identity string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading[identity]
}

func (l *Loader) markLoading(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading[identity] = true
}

func (l *Loader) unmarkLoading(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.loading, identity)
}

// Cached returns every module loaded so far, keyed by canonical path —
// used by the build orchestrator to enumerate discovered modules after
// the sequential discovery phase completes.
func (l *Loader) Cached() map[string]*Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*Module, len(l.cache))
	for k, v := range l.cache {
		out[k] = v
	}
	return out
}

func notFoundReport(importPath string, err error) *errors.Report {
	span := ast.Span{}
	msg := "module not found: " + importPath
	if nf, ok := err.(*NotFoundError); ok && len(nf.Tried) > 0 {
		return errors.New(errors.MOD001, span, "%s (tried %d location(s))", msg, len(nf.Tried)).
			WithData(map[string]any{"tried": nf.Tried})
	}
	return errors.New(errors.MOD001, span, "%s", msg)
}

func cycleReport(importPath string) *errors.Report {
	return errors.New(errors.MOD002, ast.Span{}, "circular import detected: %s", importPath)
}

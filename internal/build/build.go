// Package build implements the orchestrator: discovery, per-module
// compile, link, and report (spec.md §4.8). Parallelism follows §5's
// permitted-but-not-required invariants (a)-(d), grounded on the
// teacher's sync.RWMutex-guarded module.Loader cache and an
// errgroup-style sync.WaitGroup+channel fan-out — no pack example
// imports golang.org/x/sync, so this package does not either.
package build

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/irgen"
	"github.com/flow-lang/flowc/internal/lexer"
	"github.com/flow-lang/flowc/internal/module"
	"github.com/flow-lang/flowc/internal/parser"
	"github.com/flow-lang/flowc/internal/sema"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Options configures one orchestrator run.
type Options struct {
	Output    string // final linked binary path, default "a.out"
	EmitLLVM  bool   // also write <Output>.ll
	BuildDir  string // intermediate object-file directory, default ".build"
	Verbose   bool
	OptLevel  int      // 0-3, passed through to the linker as a hint
	Linker    string   // linker executable, default "cc"
	ExtraLibs []string // additional library names, each passed to the linker as -l<name>

	// SearchPaths are manifest-derived module search paths (SPEC_FULL.md
	// §6.1/internal/buildcfg), prepended to the resolver ahead of
	// FLOW_PATH and the ~/.flow/packages fallback.
	SearchPaths []string

	// LinkerFlags are passed to the linker verbatim (e.g. "-lm"), as
	// opposed to ExtraLibs which get a "-l" prefix added.
	LinkerFlags []string
}

// DefaultOptions returns the spec.md §6 CLI defaults.
func DefaultOptions() Options {
	return Options{Output: "a.out", BuildDir: ".build", Linker: "cc"}
}

// moduleUnit is one discovered compilation unit.
type moduleUnit struct {
	path       string // canonical source path
	objectPath string

	ir      string
	reports []*errors.Report
	libs    []string
	failed  bool
}

// Result summarizes a finished run for the CLI's reporting step.
type Result struct {
	Modules []ModuleSummary
	Reports []*errors.Report
	Linked  bool
	Binary  string
}

// ModuleSummary is one module's size/status, printed by Report.
type ModuleSummary struct {
	Path       string
	SourceSize int64
	ObjectSize int64
}

// Orchestrator runs discovery, compile, link and report for one root
// file. It owns no state across runs — create one per build.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator with opts; an empty BuildDir, Output or
// Linker falls back to the DefaultOptions value.
func New(opts Options) *Orchestrator {
	if opts.BuildDir == "" {
		opts.BuildDir = ".build"
	}
	if opts.Output == "" {
		opts.Output = "a.out"
	}
	if opts.Linker == "" {
		opts.Linker = "cc"
	}
	return &Orchestrator{opts: opts}
}

// Run executes discovery, compile, link, and report for rootFile.
// Compile failures abort before linking; discovery failures abort
// before compile (spec.md §4.8).
func (o *Orchestrator) Run(rootFile string) (*Result, error) {
	loader := module.NewLoader()
	if len(o.opts.SearchPaths) > 0 {
		loader.Resolver().PrependSearchPaths(o.opts.SearchPaths)
	}

	if o.opts.Verbose {
		fmt.Printf("%s discovering modules from %s\n", cyan("→"), rootFile)
	}
	root, discoverReports := loader.Load(rootFile, "")
	result := &Result{Reports: discoverReports}
	if hasError(discoverReports) {
		return result, fmt.Errorf("discovery failed for %s", rootFile)
	}
	if root == nil {
		return result, fmt.Errorf("could not load root file %s", rootFile)
	}

	if err := os.MkdirAll(o.opts.BuildDir, 0o755); err != nil {
		rep := errors.NewGeneric("io", err)
		result.Reports = append(result.Reports, rep)
		return result, err
	}

	units := o.discoveredUnits(loader)
	if o.opts.Verbose {
		fmt.Printf("%s %d module(s) discovered\n", cyan("→"), len(units))
	}

	o.compileAll(units, loader)

	var anyFailed bool
	for _, u := range units {
		result.Reports = append(result.Reports, u.reports...)
		if u.failed || hasError(u.reports) {
			anyFailed = true
		}
		result.Modules = append(result.Modules, o.summarize(u))
	}
	if anyFailed {
		return result, fmt.Errorf("compilation failed")
	}

	allLibs := collectLibraries(units)
	objPaths := make([]string, len(units))
	for i, u := range units {
		objPaths[i] = u.objectPath
	}

	if err := o.link(objPaths, allLibs); err != nil {
		result.Reports = append(result.Reports, &errors.Report{
			Schema: "flow.diagnostic/v1", Kind: errors.KindError, Code: errors.LNK001,
			Phase: "link", Message: err.Error(),
		})
		return result, err
	}
	result.Linked = true
	result.Binary = o.opts.Output

	o.report(result)
	return result, nil
}

// discoveredUnits walks the loader's fully populated cache (discovery
// is sequential and complete by this point, so reading Cached() here
// needs no further synchronization — spec.md §5 invariant (a)).
func (o *Orchestrator) discoveredUnits(loader *module.Loader) []*moduleUnit {
	cached := loader.Cached()
	paths := make([]string, 0, len(cached))
	for p := range cached {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	units := make([]*moduleUnit, 0, len(paths))
	for _, p := range paths {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		units = append(units, &moduleUnit{
			path:       p,
			objectPath: filepath.Join(o.opts.BuildDir, stem+".o"),
		})
	}
	return units
}

// compileAll runs one compile per module, fanned out across at most
// runtime.NumCPU() goroutines. Each goroutine gets its own semantic
// analyzer and lowering visitor (invariant (b)); object writes target
// disjoint paths (invariant (c)). Compile order doesn't matter because
// cross-module symbols are forward-declared via Link/import handling,
// not discovered by compile order.
func (o *Orchestrator) compileAll(units []*moduleUnit, loader *module.Loader) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(units) {
		workers = len(units)
	}
	if workers == 0 {
		return
	}

	jobs := make(chan *moduleUnit)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				o.compileOne(u, loader)
			}
		}()
	}
	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	wg.Wait()
}

func (o *Orchestrator) compileOne(u *moduleUnit, loader *module.Loader) {
	content, err := os.ReadFile(u.path)
	if err != nil {
		u.failed = true
		u.reports = append(u.reports, errors.NewGeneric("io", err))
		return
	}

	l := lexer.New(string(content), u.path)
	p := parser.New(l, u.path)
	prog, perrs := p.Parse()
	u.reports = append(u.reports, perrs...)
	if hasError(perrs) {
		u.failed = true
		return
	}

	cache := make(map[string]*sema.Result)
	analyzer := sema.New(loader, cache)
	res, sreports := analyzer.Analyze(prog, u.path)
	u.reports = append(u.reports, sreports...)
	if hasError(sreports) {
		u.failed = true
		return
	}

	b := irgen.NewBuilder()
	lw := irgen.NewLowering(b, loader, cache)
	lw.Lower(prog, res, u.path)
	u.ir = b.Render()
	u.libs = b.LinkLibraries()

	if err := os.WriteFile(u.objectPath, []byte(u.ir), 0o644); err != nil {
		u.failed = true
		u.reports = append(u.reports, errors.NewGeneric("io", err))
		return
	}

	if o.opts.EmitLLVM {
		llPath := o.opts.Output + ".ll"
		if err := appendLLVM(llPath, u.ir); err != nil {
			u.reports = append(u.reports, errors.NewGeneric("io", err))
		}
	}
}

func appendLLVM(path, ir string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(ir)
	return err
}

func collectLibraries(units []*moduleUnit) []string {
	seen := make(map[string]bool)
	for _, u := range units {
		for _, lib := range u.libs {
			seen[lib] = true
		}
	}
	libs := make([]string, 0, len(seen))
	for l := range seen {
		libs = append(libs, l)
	}
	sort.Strings(libs)
	return libs
}

// link invokes the platform C/C++ linker with every object file plus
// the union of recorded `link "c" {...}` libraries (spec.md §4.8 step
// 3; adapters other than "c" are runtime-dispatched, never linked).
func (o *Orchestrator) link(objPaths, libs []string) error {
	args := append([]string{}, objPaths...)
	args = append(args, "-o", o.opts.Output)
	for _, lib := range append(libs, o.opts.ExtraLibs...) {
		args = append(args, "-l"+lib)
	}
	args = append(args, o.opts.LinkerFlags...)
	if o.opts.OptLevel > 0 {
		args = append(args, fmt.Sprintf("-O%d", o.opts.OptLevel))
	}

	if o.opts.Verbose {
		fmt.Printf("%s %s %s\n", cyan("→"), o.opts.Linker, strings.Join(args, " "))
	}

	cmd := exec.Command(o.opts.Linker, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", o.opts.Linker, err, out)
	}
	return nil
}

func (o *Orchestrator) summarize(u *moduleUnit) ModuleSummary {
	s := ModuleSummary{Path: u.path}
	if info, err := os.Stat(u.path); err == nil {
		s.SourceSize = info.Size()
	}
	if info, err := os.Stat(u.objectPath); err == nil {
		s.ObjectSize = info.Size()
	}
	return s
}

// report prints per-module progress and a source/object/binary size
// summary (spec.md §4.8 step 4), grounded on cmd/ailang's colored
// progress-line idiom.
func (o *Orchestrator) report(result *Result) {
	for _, m := range result.Modules {
		fmt.Printf("  %s %s (%d bytes -> %d bytes)\n", green("✓"), m.Path, m.SourceSize, m.ObjectSize)
	}
	var totalSrc, totalObj int64
	for _, m := range result.Modules {
		totalSrc += m.SourceSize
		totalObj += m.ObjectSize
	}
	binSize := int64(0)
	if info, err := os.Stat(result.Binary); err == nil {
		binSize = info.Size()
	}
	fmt.Printf("%s %s: %d source byte(s), %d object byte(s), %d binary byte(s)\n",
		bold("Summary"), result.Binary, totalSrc, totalObj, binSize)
}

func hasError(reports []*errors.Report) bool {
	for _, r := range reports {
		if r.Kind == errors.KindError {
			return true
		}
	}
	return false
}

// FormatReports renders diagnostics for the CLI, each with a
// severity-colored label, in the order they were produced (spec.md §4.9: "multiple
// errors are printed in source order" — callers are expected to pass
// reports already collected in that order).
func FormatReports(reports []*errors.Report) string {
	var b strings.Builder
	for _, r := range reports {
		label := red("error")
		if r.Kind == errors.KindWarning {
			label = yellow("warning")
		}
		loc := ""
		if r.Span != nil {
			loc = fmt.Sprintf("%s:%d:%d: ", r.Span.Start.File, r.Span.Start.Line, r.Span.Start.Column)
		}
		fmt.Fprintf(&b, "%s%s[%s]: %s\n", loc, label, r.Code, r.Message)
	}
	return b.String()
}

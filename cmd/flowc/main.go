// Command flowc is the Flow compiler driver: it discovers a root
// file's import graph, compiles each module, links the result, and
// reports progress (spec.md §6). Flag parsing and colored status
// output follow cmd/ailang/main.go's idiom; the actual work is done by
// internal/build.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/flow-lang/flowc/internal/ast"
	"github.com/flow-lang/flowc/internal/build"
	"github.com/flow-lang/flowc/internal/buildcfg"
	"github.com/flow-lang/flowc/internal/errors"
	"github.com/flow-lang/flowc/internal/flowrepl"
	"github.com/flow-lang/flowc/internal/lexer"
	"github.com/flow-lang/flowc/internal/module"
	"github.com/flow-lang/flowc/internal/parser"
	"github.com/flow-lang/flowc/internal/sema"
	"github.com/flow-lang/flowc/internal/source"
)

// Version is set via -ldflags at release build time; "dev" otherwise.
var Version = "dev"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "repl":
			flowrepl.New(Version).Start(os.Stdin, os.Stdout)
			return
		case "check":
			os.Exit(runCheck(os.Args[2:]))
		case "version", "--version":
			printVersion()
			return
		}
	}
	os.Exit(runCompile(os.Args[1:]))
}

func runCompile(args []string) int {
	fs := flag.NewFlagSet("flowc", flag.ContinueOnError)
	output := fs.String("o", "a.out", "output path")
	emitLLVM := fs.Bool("emit-llvm", false, "write textual IR to <output>.ll")
	emitAST := fs.Bool("emit-ast", false, "dump AST (debug)")
	optLevel := fs.Int("O", 0, "optimization level hint to backend (0-3)")
	verbose := fs.Bool("v", false, "verbose progress")
	fs.BoolVar(verbose, "verbose", false, "verbose progress")
	help := fs.Bool("h", false, "usage")
	fs.BoolVar(help, "help", false, "usage")
	fs.Usage = func() { printHelp() }

	// The flag package reads `-O2` as an unknown flag named "O2"; rewrite
	// the attached form so it reaches -O the way `-O 2` and `-O=2` do.
	for i, a := range args {
		if len(a) == 3 && a[:2] == "-O" && a[2] >= '0' && a[2] <= '3' {
			args[i] = "-O=" + a[2:]
		}
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		printHelp()
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s: expected exactly one input file\n", red("Error"))
		printHelp()
		return 2
	}
	rootFile := fs.Arg(0)

	if *emitAST {
		if code := emitASTOnly(rootFile); code != 0 {
			return code
		}
	}

	opts := build.DefaultOptions()
	opts.Output = *output
	opts.EmitLLVM = *emitLLVM
	opts.OptLevel = *optLevel
	opts.Verbose = *verbose

	if manifestPath := buildcfg.Find(filepath.Dir(rootFile)); manifestPath != "" {
		manifest, err := buildcfg.Load(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", yellow("Warning"), manifestPath, err)
		} else {
			applyManifest(manifest, &opts, fs)
		}
	}

	orch := build.New(opts)
	result, err := orch.Run(rootFile)
	if result != nil && len(result.Reports) > 0 {
		printDiagnostics(result.Reports)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	if *verbose {
		fmt.Printf("%s %s\n", green("✓"), bold(opts.Output))
	}
	return 0
}

// applyManifest fills in defaults from flow.yaml for anything the user
// did not pass explicitly on the command line (SPEC_FULL.md §7: "its
// absence changes nothing about spec.md's documented CLI/env behavior"
// — so presence only ever supplies defaults, never overrides flags).
func applyManifest(m *buildcfg.Manifest, opts *build.Options, fs *flag.FlagSet) {
	outputSet, optSet := false, false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			outputSet = true
		case "O":
			optSet = true
		}
	})
	if !outputSet && m.Output != "" {
		opts.Output = m.Output
	}
	if !optSet && m.OptLevel != 0 {
		opts.OptLevel = m.OptLevel
	}
	opts.SearchPaths = m.ResolvedSearchPaths()
	opts.LinkerFlags = m.LinkerFlags
}

func emitASTOnly(rootFile string) int {
	content, err := os.ReadFile(rootFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), rootFile, err)
		return 1
	}
	l := lexer.New(string(content), rootFile)
	p := parser.New(l, rootFile)
	prog, perrs := p.Parse()
	if len(perrs) > 0 {
		printDiagnostics(perrs)
	}
	fmt.Println(ast.Dump(prog))
	return 0
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("flowc check", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: flowc check <file>")
		return 2
	}
	file := fs.Arg(0)
	content, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), file, err)
		return 1
	}

	l := lexer.New(string(content), file)
	p := parser.New(l, file)
	prog, perrs := p.Parse()
	if len(perrs) > 0 {
		printDiagnostics(perrs)
		return 1
	}

	a := sema.New(module.NewLoader(), nil)
	_, reports := a.Analyze(prog, file)
	if len(reports) > 0 {
		printDiagnostics(reports)
	}
	if hasErrorReport(reports) {
		return 1
	}
	fmt.Printf("%s no errors found\n", green("✓"))
	return 0
}

// printDiagnostics formats reports with source-snippet context and a
// caret under the span's start column (spec.md §4.9), in the order
// they were produced.
func printDiagnostics(reports []*errors.Report) {
	srcs := source.NewMap()
	for _, r := range reports {
		label := red("error")
		if r.Kind == errors.KindWarning {
			label = yellow("warning")
		}
		if r.Span == nil {
			fmt.Fprintf(os.Stderr, "%s[%s]: %s\n", label, r.Code, r.Message)
			continue
		}
		pos := r.Span.Start
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s[%s]: %s\n", pos.File, pos.Line, pos.Column, label, r.Code, r.Message)

		if pos.File == "" || pos.File == "<repl>" {
			continue
		}
		f, err := srcs.LoadFile(pos.File)
		if err != nil {
			continue
		}
		before, cur, after := f.Context(pos.Line)
		if before != "" {
			fmt.Fprintf(os.Stderr, "  %4d | %s\n", pos.Line-1, before)
		}
		fmt.Fprintf(os.Stderr, "  %4d | %s\n", pos.Line, cur)
		col := pos.Column
		if col < 1 {
			col = 1
		}
		fmt.Fprintf(os.Stderr, "       | %s^\n", spaces(col-1))
		if after != "" {
			fmt.Fprintf(os.Stderr, "  %4d | %s\n", pos.Line+1, after)
		}
	}
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func hasErrorReport(reports []*errors.Report) bool {
	for _, r := range reports {
		if r.Kind == errors.KindError {
			return true
		}
	}
	return false
}

func printVersion() {
	fmt.Printf("flowc %s\n", bold(Version))
}

func printHelp() {
	fmt.Println(bold("flowc - the Flow compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flowc [options] <input-file>")
	fmt.Println("  flowc repl")
	fmt.Println("  flowc check <file>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -o <file>         output path (default: a.out)")
	fmt.Println("  --emit-llvm       write textual IR to <output>.ll")
	fmt.Println("  --emit-ast        dump AST (debug)")
	fmt.Println("  -O[0-3]           optimization level hint to backend")
	fmt.Println("  -v, --verbose     verbose progress")
	fmt.Println("  -h, --help        usage")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  FLOW_PATH               colon-separated library search paths")
	fmt.Println("  HOME/.flow/packages     default fallback library search path")
	fmt.Println()
	fmt.Printf("Examples:\n")
	fmt.Printf("  %s\n", cyan("flowc main.flow"))
	fmt.Printf("  %s\n", cyan("flowc -o myprog --emit-llvm main.flow"))
	fmt.Printf("  %s\n", cyan("flowc repl"))
}

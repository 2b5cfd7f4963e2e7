// Package module implements import-path resolution and on-demand module
// loading for the Flow compiler, grounded on the teacher's
// internal/module package (resolver.go's path-kind dispatch and
// loader.go's cache/cycle-detection shape), retargeted at spec.md §4.5:
// absolute/relative/library import-path kinds, a canonical-path cache
// keyed by symlink- and dot-resolved file path, and loading-marker cycle
// detection.
package module

import (
	"os"
	"path/filepath"
	"strings"
)

// ImportKind classifies an import path per spec.md §4.5.
type ImportKind int

const (
	// KindRelative paths start with "./" or "../" and resolve against
	// the importing file's directory.
	KindRelative ImportKind = iota
	// KindAbsolute paths start with the OS path separator and are used
	// directly.
	KindAbsolute
	// KindLibrary paths are tried against the ordered search-path list.
	KindLibrary
)

func classify(importPath string) ImportKind {
	if filepath.IsAbs(importPath) {
		return KindAbsolute
	}
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		return KindRelative
	}
	return KindLibrary
}

// sourceExt is the extension Flow source files carry; import strings in
// the spec's own example programs already include it (S4: `import
// "b.flow";`), but it is appended when missing so library-style bare
// names ("list") also resolve.
const sourceExt = ".flow"

// Resolver turns an import path plus the importing file's path into a
// canonical on-disk path. The canonical form (symlinks resolved, `.`/
// `..` removed) is also the loader's cache key, so two spellings of an
// import that name the same file share one parse.
type Resolver struct {
	// searchPaths is the ordered library search-path list: project
	// manifest paths (if any) prepended via PrependSearchPaths, then
	// FLOW_PATH entries, then the ~/.flow/packages fallback — spec.md
	// §6 plus SPEC_FULL.md's manifest addition.
	searchPaths []string
}

// NewResolver builds a Resolver from the process environment: FLOW_PATH
// (OS-list-separator-delimited) ahead of the ~/.flow/packages fallback,
// per spec.md §6.
func NewResolver() *Resolver {
	return &Resolver{searchPaths: defaultSearchPaths()}
}

func defaultSearchPaths() []string {
	var paths []string
	if flowPath := os.Getenv("FLOW_PATH"); flowPath != "" {
		for _, p := range strings.Split(flowPath, string(os.PathListSeparator)) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".flow", "packages"))
	}
	return paths
}

// PrependSearchPaths inserts manifest-derived paths ahead of the
// resolver's existing list, per SPEC_FULL.md's `flow.yaml` addition
// ("merged ahead of FLOW_PATH and before the ~/.flow/packages
// fallback") — since defaultSearchPaths already orders FLOW_PATH before
// the home fallback, prepending here puts manifest paths first of all.
func (r *Resolver) PrependSearchPaths(paths []string) {
	r.searchPaths = append(append([]string{}, paths...), r.searchPaths...)
}

// Canonicalize resolves path to its canonical absolute form: symlinks
// followed, `.`/`..` removed. A path that doesn't exist yet is cleaned
// and made absolute without symlink resolution, matching the teacher's
// fallback for not-yet-written paths.
func Canonicalize(path string) (string, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}
	path = filepath.Clean(path)
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	return resolved, nil
}

// Resolve maps importPath (seen inside fromFile, empty for the build's
// root file) to a canonical source file path.
func (r *Resolver) Resolve(importPath, fromFile string) (string, error) {
	candidate, err := r.candidatePath(importPath, fromFile)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(candidate); statErr != nil {
		return "", &NotFoundError{ImportPath: importPath, Tried: r.searchOrder(importPath, fromFile)}
	}
	return Canonicalize(candidate)
}

func withExt(importPath string) string {
	if strings.HasSuffix(importPath, sourceExt) {
		return importPath
	}
	return importPath + sourceExt
}

func (r *Resolver) candidatePath(importPath, fromFile string) (string, error) {
	path := withExt(importPath)

	switch classify(importPath) {
	case KindAbsolute:
		return path, nil
	case KindRelative:
		if fromFile == "" {
			return "", &NotFoundError{ImportPath: importPath}
		}
		return filepath.Join(filepath.Dir(fromFile), path), nil
	default: // KindLibrary
		if fromFile != "" {
			local := filepath.Join(filepath.Dir(fromFile), path)
			if _, err := os.Stat(local); err == nil {
				return local, nil
			}
		}
		for _, sp := range r.searchPaths {
			candidate := filepath.Join(sp, path)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		if len(r.searchPaths) > 0 {
			return filepath.Join(r.searchPaths[len(r.searchPaths)-1], path), nil
		}
		return path, nil
	}
}

func (r *Resolver) searchOrder(importPath, fromFile string) []string {
	path := withExt(importPath)
	switch classify(importPath) {
	case KindAbsolute:
		return []string{path}
	case KindRelative:
		if fromFile == "" {
			return nil
		}
		return []string{filepath.Join(filepath.Dir(fromFile), path)}
	default:
		var tried []string
		if fromFile != "" {
			tried = append(tried, filepath.Join(filepath.Dir(fromFile), path))
		}
		for _, sp := range r.searchPaths {
			tried = append(tried, filepath.Join(sp, path))
		}
		return tried
	}
}

// NotFoundError reports every path the resolver tried before giving up;
// the loader surfaces it as a MOD001 Report.
type NotFoundError struct {
	ImportPath string
	Tried      []string
}

func (e *NotFoundError) Error() string {
	return "module not found: " + e.ImportPath
}

package module

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want ImportKind
	}{
		{"./utils.flow", KindRelative},
		{"../lib/helper.flow", KindRelative},
		{"/abs/path.flow", KindAbsolute},
		{"list", KindLibrary},
		{"data/structures", KindLibrary},
	}
	for _, tt := range tests {
		if got := classify(tt.path); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWithExt(t *testing.T) {
	if got := withExt("b"); got != "b.flow" {
		t.Errorf("withExt(\"b\") = %q, want b.flow", got)
	}
	if got := withExt("b.flow"); got != "b.flow" {
		t.Errorf("withExt(\"b.flow\") = %q, want unchanged", got)
	}
}

func TestResolveRelativeImport(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "a.flow")
	depFile := filepath.Join(dir, "b.flow")
	if err := os.WriteFile(mainFile, []byte("import \"b.flow\";"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(depFile, []byte("func answer() -> int { return 42; }"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Resolver{}
	resolved, err := r.Resolve("./b.flow", mainFile)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Base(resolved) != "b.flow" {
		t.Errorf("resolved = %s, want basename b.flow", resolved)
	}
}

func TestResolveRelativeWithoutCurrentFileFails(t *testing.T) {
	r := &Resolver{}
	if _, err := r.Resolve("./utils", ""); err == nil {
		t.Fatal("expected error resolving a relative import with no current file")
	}
}

func TestResolveLibraryImportViaSearchPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "list.flow"), []byte("func noop() {}"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Resolver{}
	r.PrependSearchPaths([]string{dir})
	resolved, err := r.Resolve("list", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Dir(resolved) != dir {
		t.Errorf("resolved = %s, want it under %s", resolved, dir)
	}
}

func TestResolveMissingModuleReportsTriedPaths(t *testing.T) {
	r := &Resolver{}
	r.PrependSearchPaths([]string{t.TempDir()})
	_, err := r.Resolve("nope", "")
	if err == nil {
		t.Fatal("expected a not-found error")
	}
	nf, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if len(nf.Tried) == 0 {
		t.Error("expected at least one tried path recorded")
	}
}

func TestPrependSearchPathsOrdering(t *testing.T) {
	r := &Resolver{searchPaths: []string{"/existing"}}
	r.PrependSearchPaths([]string{"/manifest"})
	if r.searchPaths[0] != "/manifest" || r.searchPaths[1] != "/existing" {
		t.Errorf("searchPaths = %v, want manifest path first", r.searchPaths)
	}
}

func TestCanonicalizeResolvesDotSegments(t *testing.T) {
	dir := t.TempDir()
	messy := filepath.Join(dir, "a", "..", "a.flow")
	canon, err := Canonicalize(messy)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if canon != filepath.Join(dir, "a.flow") {
		t.Errorf("Canonicalize(%q) = %q, want %q", messy, canon, filepath.Join(dir, "a.flow"))
	}
}

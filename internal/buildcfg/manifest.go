// Package buildcfg loads the optional project manifest, flow.yaml
// (SPEC_FULL.md §7): a small yaml.v3-decoded document giving the build
// orchestrator a default output path, optimization level, extra module
// search paths, and linker flags. Grounded on the teacher's
// internal/eval_harness/spec.go, the only yaml.v3 consumer in the pack.
package buildcfg

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the decoded form of flow.yaml. Every field is optional;
// a zero Manifest changes nothing about the documented CLI/env
// defaults (SPEC_FULL.md §7).
type Manifest struct {
	Name        string   `yaml:"name"`
	Output      string   `yaml:"output"`
	OptLevel    int      `yaml:"optLevel"`
	SearchPaths []string `yaml:"searchPaths"`
	LinkerFlags []string `yaml:"linkerFlags"`

	// dir is the manifest file's own directory, used to resolve
	// relative SearchPaths entries.
	dir string
}

// FileName is the manifest's fixed name, looked for in the root file's
// directory and each ancestor.
const FileName = "flow.yaml"

// Find walks up from startDir looking for flow.yaml, returning its
// path or "" if none of the ancestors (up to and including the
// filesystem root) has one. No manifest is not an error.
func Find(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and decodes the manifest at path. A missing file is
// returned as a read error like any other; Find returns "" when no
// manifest exists.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// ResolvedSearchPaths returns SearchPaths with relative entries made
// absolute against the manifest's own directory, so a manifest-relative
// `./vendor` resolves the same way regardless of the compiler's
// current working directory.
func (m *Manifest) ResolvedSearchPaths() []string {
	out := make([]string, len(m.SearchPaths))
	for i, p := range m.SearchPaths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(m.dir, p)
	}
	return out
}

// Package source owns the text of loaded Flow files and answers
// line/column slice queries for diagnostic formatting.
package source

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ID identifies a loaded file within a Map. The zero value is invalid.
type ID int

// File holds the canonical path and raw text of one loaded source file,
// plus a lazily-built index of line start offsets.
type File struct {
	ID       ID
	Path     string // canonical path, or a synthetic name for in-memory sources
	Text     string
	lineOnce sync.Once
	lineStart []int // byte offset of the start of each line (0-indexed)
}

// Map owns every file loaded for one compilation.
type Map struct {
	mu    sync.RWMutex
	files []*File
	byPath map[string]ID
}

// NewMap creates an empty source map.
func NewMap() *Map {
	return &Map{byPath: make(map[string]ID)}
}

// AddFile registers in-memory source text under a name and returns its File.
// If the path was already registered, the existing File is returned unchanged.
func (m *Map) AddFile(path, text string) *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPath[path]; ok {
		return m.files[id-1]
	}
	f := &File{Path: path, Text: text}
	m.files = append(m.files, f)
	f.ID = ID(len(m.files))
	m.byPath[path] = f.ID
	return f
}

// LoadFile reads path from disk and registers its contents.
func (m *Map) LoadFile(path string) (*File, error) {
	m.mu.RLock()
	if id, ok := m.byPath[path]; ok {
		f := m.files[id-1]
		m.mu.RUnlock()
		return f, nil
	}
	m.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: cannot read %s: %w", path, err)
	}
	return m.AddFile(path, string(data)), nil
}

// Get returns the file registered under id, or nil if id is unknown.
func (m *Map) Get(id ID) *File {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id <= 0 || int(id) > len(m.files) {
		return nil
	}
	return m.files[id-1]
}

// buildLineIndex lazily computes byte offsets of line starts.
func (f *File) buildLineIndex() {
	f.lineOnce.Do(func() {
		f.lineStart = []int{0}
		for i, r := range f.Text {
			if r == '\n' {
				f.lineStart = append(f.lineStart, i+1)
			}
		}
	})
}

// Line returns the text of the 1-based line n, without its trailing newline.
func (f *File) Line(n int) string {
	f.buildLineIndex()
	if n < 1 || n > len(f.lineStart) {
		return ""
	}
	start := f.lineStart[n-1]
	end := len(f.Text)
	if n < len(f.lineStart) {
		end = f.lineStart[n] - 1
	}
	if end < start {
		end = start
	}
	return strings.TrimSuffix(f.Text[start:end], "\r")
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	f.buildLineIndex()
	return len(f.lineStart)
}

// Context returns up to one line before, the line itself, and one line
// after a given 1-based line number — the window the CLI diagnostic
// formatter underlines with carets.
func (f *File) Context(line int) (before, current, after string) {
	if line > 1 {
		before = f.Line(line - 1)
	}
	current = f.Line(line)
	if line < f.LineCount() {
		after = f.Line(line + 1)
	}
	return
}

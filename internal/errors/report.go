package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flow-lang/flowc/internal/ast"
)

// Kind distinguishes an error-level diagnostic from a warning.
type Kind int

const (
	// KindError fails the compilation once the sink holds at least one.
	KindError Kind = iota
	// KindWarning never fails compilation on its own.
	KindWarning
)

func (k Kind) String() string {
	if k == KindWarning {
		return "warning"
	}
	return "error"
}

// Fix is an optional suggested remedy attached to a Report.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured diagnostic for the Flow compiler.
// Every phase — lexer, parser, semantic analyzer, module resolver,
// lowering visitor, build orchestrator — produces *Report values rather
// than ad hoc error strings, so the CLI and the LSP adapter can consume
// the same representation (spec §4.9).
type Report struct {
	Schema  string         `json:"schema"`         // Always "flow.diagnostic/v1"
	Kind    Kind           `json:"kind"`            // Error or Warning
	Code    string         `json:"code"`            // One of the LEX/PAR/SEM/MOD/IO/LNK codes
	Phase   string         `json:"phase"`           // "lex", "parse", "semantic", "import", "io", "link"
	Message string         `json:"message"`         // Human-readable message
	Span    *ast.Span      `json:"span,omitempty"`  // Source location (optional)
	Data    map[string]any `json:"data,omitempty"`  // Structured data
	Fix     *Fix           `json:"fix,omitempty"`   // Suggested fix (optional)
}

// ReportError wraps a Report as a Go error so it survives errors.As
// unwrapping through ordinary error-handling call chains.
type ReportError struct {
	Rep *Report
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport attempts to extract a *Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error. Call sites should
// `return errors.WrapReport(r)` to preserve the structured form.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds a Report for the given code at the given location.
func New(code string, span ast.Span, message string, args ...any) *Report {
	kind := KindError
	if info, ok := Lookup(code); ok && info.Phase == "" {
		_ = info
	}
	if code == SEM009 {
		kind = KindWarning
	}
	return &Report{
		Schema:  "flow.diagnostic/v1",
		Kind:    kind,
		Code:    code,
		Phase:   phaseOf(code),
		Message: fmt.Sprintf(message, args...),
		Span:    &span,
	}
}

// Warning builds a KindWarning Report.
func Warning(code string, span ast.Span, message string, args ...any) *Report {
	r := New(code, span, message, args...)
	r.Kind = KindWarning
	return r
}

// WithFix attaches a suggested fix and returns the same Report for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// WithData attaches structured context data.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// ToJSON renders the Report as JSON, indented unless compact is true.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric creates an IO001 Report for an error surfaced by the OS
// (e.g. an unreadable file) that has no more specific code.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  "flow.diagnostic/v1",
		Kind:    KindError,
		Code:    "IO001",
		Phase:   phase,
		Message: err.Error(),
	}
}

func phaseOf(code string) string {
	if info, ok := Lookup(code); ok {
		return info.Phase
	}
	return "unknown"
}

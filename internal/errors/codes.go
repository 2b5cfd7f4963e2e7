// Package errors provides the structured diagnostic representation shared
// by every phase of the Flow compiler: lexer, parser, semantic analyzer,
// module resolver, lowering visitor, and build orchestrator all produce
// *Report values through this package rather than ad hoc strings.
package errors

// Error code constants, grouped by the phase taxonomy from the language
// specification: Lex, Parse, Semantic, Import (module), IO, Link.
const (
	// ============================================================================
	// Lex errors (LEX###)
	// ============================================================================

	// LEX001 indicates an unterminated string literal.
	LEX001 = "LEX001"
	// LEX002 indicates a character that matches no token rule.
	LEX002 = "LEX002"
	// LEX003 indicates an unterminated block comment.
	LEX003 = "LEX003"

	// ============================================================================
	// Parse errors (PAR###)
	// ============================================================================

	// PAR001 indicates an unexpected token.
	PAR001 = "PAR001"
	// PAR002 indicates a missing closing delimiter.
	PAR002 = "PAR002"
	// PAR003 indicates invalid function declaration syntax.
	PAR003 = "PAR003"
	// PAR004 indicates invalid struct declaration syntax.
	PAR004 = "PAR004"
	// PAR005 indicates invalid import statement syntax.
	PAR005 = "PAR005"
	// PAR006 indicates invalid type syntax.
	PAR006 = "PAR006"
	// PAR007 indicates a trailing comma in an argument or field list.
	PAR007 = "PAR007"
	// PAR008 indicates invalid link-block syntax.
	PAR008 = "PAR008"
	// PAR009 indicates invalid module declaration syntax.
	PAR009 = "PAR009"
	// PAR010 indicates invalid impl-block syntax.
	PAR010 = "PAR010"

	// ============================================================================
	// Semantic errors (SEM###)
	// ============================================================================

	// SEM001 indicates an undefined symbol.
	SEM001 = "SEM001"
	// SEM002 indicates a type mismatch.
	SEM002 = "SEM002"
	// SEM003 indicates an assignment to an immutable binding.
	SEM003 = "SEM003"
	// SEM004 indicates a duplicate declaration in one scope.
	SEM004 = "SEM004"
	// SEM005 indicates a type alias cycle.
	SEM005 = "SEM005"
	// SEM006 indicates a call with the wrong argument count.
	SEM006 = "SEM006"
	// SEM007 indicates access to a field that does not exist on a struct.
	SEM007 = "SEM007"
	// SEM008 indicates a constant array index known to be out of range.
	SEM008 = "SEM008"
	// SEM009 is a warning: a non-void function has a path with no explicit return.
	SEM009 = "SEM009"
	// SEM010 indicates use of a struct initializer with the wrong field set or order.
	SEM010 = "SEM010"

	// ============================================================================
	// Import / module errors (MOD###)
	// ============================================================================

	// MOD001 indicates the imported file could not be found.
	MOD001 = "MOD001"
	// MOD002 indicates a circular import detected at evaluation time.
	MOD002 = "MOD002"
	// MOD003 indicates a selected import name that the module does not export.
	MOD003 = "MOD003"
	// MOD004 indicates a duplicate module declaration.
	MOD004 = "MOD004"

	// ============================================================================
	// IO errors (IO###)
	// ============================================================================

	// IO001 indicates the root source file could not be read.
	IO001 = "IO001"
	// IO002 indicates the output path could not be written.
	IO002 = "IO002"

	// ============================================================================
	// Link errors (LNK###)
	// ============================================================================

	// LNK001 indicates the platform linker invocation failed.
	LNK001 = "LNK001"
)

// ErrorInfo provides structured information about an error code.
type ErrorInfo struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// Registry maps every known error code to its descriptive information.
var Registry = map[string]ErrorInfo{
	LEX001: {LEX001, "lex", "string", "Unterminated string literal"},
	LEX002: {LEX002, "lex", "char", "Invalid character"},
	LEX003: {LEX003, "lex", "comment", "Unterminated block comment"},

	PAR001: {PAR001, "parse", "syntax", "Unexpected token"},
	PAR002: {PAR002, "parse", "syntax", "Missing closing delimiter"},
	PAR003: {PAR003, "parse", "syntax", "Invalid function declaration"},
	PAR004: {PAR004, "parse", "syntax", "Invalid struct declaration"},
	PAR005: {PAR005, "parse", "syntax", "Invalid import statement"},
	PAR006: {PAR006, "parse", "syntax", "Invalid type syntax"},
	PAR007: {PAR007, "parse", "syntax", "Trailing comma not allowed"},
	PAR008: {PAR008, "parse", "syntax", "Invalid link block"},
	PAR009: {PAR009, "parse", "syntax", "Invalid module declaration"},
	PAR010: {PAR010, "parse", "syntax", "Invalid impl block"},

	SEM001: {SEM001, "semantic", "scope", "Undefined symbol"},
	SEM002: {SEM002, "semantic", "type", "Type mismatch"},
	SEM003: {SEM003, "semantic", "mutability", "Immutability violation"},
	SEM004: {SEM004, "semantic", "scope", "Duplicate declaration"},
	SEM005: {SEM005, "semantic", "type", "Type alias cycle"},
	SEM006: {SEM006, "semantic", "call", "Arity mismatch"},
	SEM007: {SEM007, "semantic", "struct", "Member not found"},
	SEM008: {SEM008, "semantic", "bounds", "Constant index out of range"},
	SEM009: {SEM009, "semantic", "control-flow", "Missing return on some path"},
	SEM010: {SEM010, "semantic", "struct", "Invalid struct initializer"},

	MOD001: {MOD001, "import", "resolution", "Module not found"},
	MOD002: {MOD002, "import", "cycle", "Circular import"},
	MOD003: {MOD003, "import", "export", "Selected name not exported"},
	MOD004: {MOD004, "import", "structure", "Duplicate module declaration"},

	IO001: {IO001, "io", "read", "Source file unreadable"},
	IO002: {IO002, "io", "write", "Output path unwritable"},

	LNK001: {LNK001, "link", "linker", "Linker invocation failed"},
}

// Lookup returns the descriptive information for an error code.
func Lookup(code string) (ErrorInfo, bool) {
	info, ok := Registry[code]
	return info, ok
}

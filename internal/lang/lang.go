// Package lang turns raw source bytes into normalized symbol records.
//
// Each supported language is handled by an Adapter built around a
// tree-sitter grammar plus a small declarative table (queries, branch
// node types). Unknown languages degrade to a line-counting adapter so
// that a project with exotic files still analyzes end to end.
package lang

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Capability describes what an Adapter can extract from source.
type Capability uint8

const (
	CapTokenize Capability = 1 << iota
	CapImports
	CapSymbols
	CapComplexity
)

// Has reports whether c includes cap.
func (c Capability) Has(cap Capability) bool { return c&cap != 0 }

// RefKind classifies a raw reference as written in source.
type RefKind string

const (
	RefImport  RefKind = "imports"
	RefCall    RefKind = "calls"
	RefInherit RefKind = "inherits"
)

// Symbol is one declared symbol (function, class, type) in a file.
type Symbol struct {
	Name string
	Kind string // function, class, method, type
	Line int    // 1-based
}

// Ref is a raw, unresolved reference as written in source. Targets are
// resolved against the project file set by the graph builder.
type Ref struct {
	Target string
	Kind   RefKind
	Line   int
}

// Diagnostic is a non-fatal, file- or edge-scoped finding. Path is filled
// in by the pipeline; adapters produce records that are pure functions of
// content so they can be shared across paths by the content cache.
type Diagnostic struct {
	Code    string `json:"code"` // e.g. syntax-errors, language-unsupported, unresolved-reference
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Diagnostic codes emitted by this package and the graph builder.
const (
	DiagSyntaxErrors        = "syntax-errors"
	DiagLanguageUnsupported = "language-unsupported"
	DiagUnresolvedReference = "unresolved-reference"
	DiagParseError          = "parse-error"
)

// RawCounts carries the line and branch tallies an adapter measures while
// parsing. The metrics computer normalizes these across languages.
type RawCounts struct {
	TotalLines   int
	BlankLines   int
	CommentLines int
	Branches     int
}

// SymbolRecord is the normalized parse output for one source unit.
// It contains no path or hash: records are content-addressed and may be
// reused for any file with identical bytes.
type SymbolRecord struct {
	Language    string
	Caps        Capability
	Symbols     []Symbol
	Refs        []Ref
	Counts      RawCounts
	Diagnostics []Diagnostic
}

// ParseError is the fatal, single-file failure mode. It never aborts a
// job; the pipeline records it as a diagnostic and moves on.
type ParseError struct {
	Path     string
	Language string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s (%s): %s", e.Path, e.Language, e.Reason)
}

// Adapter parses one language. Parse must be a pure function over content:
// no filesystem access, no shared mutable state, so records are safe to
// cache by content hash and workers can run adapters concurrently.
type Adapter interface {
	Language() string
	Capabilities() Capability
	Parse(ctx context.Context, content []byte) (*SymbolRecord, error)
}

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
}

// LanguageForFile returns the canonical language name for a path based on
// its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Registry holds one Adapter per supported language and hands out a
// line-counting fallback for everything else.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry with all built-in tree-sitter adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, spec := range languageSpecs {
		r.adapters[spec.name] = newTreeSitterAdapter(spec)
	}
	return r
}

// Register adds or replaces the adapter for its language.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Language()] = a
}

// ForLanguage returns the adapter for lang, or a fallback line-counting
// adapter when the language is unsupported. Never returns nil.
func (r *Registry) ForLanguage(lang string) Adapter {
	if a, ok := r.adapters[lang]; ok {
		return a
	}
	return &fallbackAdapter{lang: lang}
}

// Supported reports whether a full adapter (not the fallback) exists.
func (r *Registry) Supported(lang string) bool {
	_, ok := r.adapters[lang]
	return ok
}

// Languages returns the names of all registered languages.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

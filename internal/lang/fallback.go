package lang

import (
	"context"
	"fmt"
)

// fallbackAdapter handles languages without a registered adapter. It
// produces line counts only, with a language-unsupported diagnostic, so
// the pipeline still creates a graph node for the file.
type fallbackAdapter struct {
	lang string
}

// Fallback returns the line-counting adapter for a language, for callers
// that want to force degraded handling of an otherwise supported one.
func Fallback(lang string) Adapter {
	return &fallbackAdapter{lang: lang}
}

func (a *fallbackAdapter) Language() string         { return a.lang }
func (a *fallbackAdapter) Capabilities() Capability { return CapTokenize }

func (a *fallbackAdapter) Parse(_ context.Context, content []byte) (*SymbolRecord, error) {
	if isBinary(content) {
		return nil, ErrBinaryContent
	}
	rec := &SymbolRecord{
		Language: a.lang,
		Caps:     CapTokenize,
	}
	rec.Counts.TotalLines, rec.Counts.BlankLines = countLines(content)
	rec.Diagnostics = append(rec.Diagnostics, Diagnostic{
		Code:    DiagLanguageUnsupported,
		Message: fmt.Sprintf("no adapter for language %q; line counts only", a.lang),
	})
	return rec, nil
}

package lang

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrBinaryContent is returned for content that is not text. It is the
// only unrecoverable per-file condition; the pipeline wraps it in a
// ParseError diagnostic without failing the job.
var ErrBinaryContent = errors.New("binary or non-text content")

// treeSitterAdapter implements Adapter for one language via its
// declarative languageSpec. All state is immutable after construction;
// a fresh parser is created per Parse call so concurrent use is safe.
type treeSitterAdapter struct {
	spec    languageSpec
	grammar *sitter.Language
}

func newTreeSitterAdapter(spec languageSpec) *treeSitterAdapter {
	return &treeSitterAdapter{spec: spec, grammar: spec.grammar()}
}

func (a *treeSitterAdapter) Language() string { return a.spec.name }

func (a *treeSitterAdapter) Capabilities() Capability {
	return CapTokenize | CapImports | CapSymbols | CapComplexity
}

func (a *treeSitterAdapter) Parse(ctx context.Context, content []byte) (*SymbolRecord, error) {
	if isBinary(content) {
		return nil, ErrBinaryContent
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(a.grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()
	root := tree.RootNode()

	rec := &SymbolRecord{
		Language: a.spec.name,
		Caps:     a.Capabilities(),
	}
	rec.Counts.TotalLines, rec.Counts.BlankLines = countLines(content)

	if err := a.extractSymbols(root, content, rec); err != nil {
		return nil, err
	}
	if err := a.extractRefs(root, content, rec); err != nil {
		return nil, err
	}

	commentRows := a.walkCounts(root, rec)
	rec.Counts.CommentLines = commentRows

	// Tree-sitter recovers from syntax errors with a partial tree; keep
	// whatever was extracted and flag the file.
	if root.HasError() {
		rec.Diagnostics = append(rec.Diagnostics, Diagnostic{
			Code:    DiagSyntaxErrors,
			Message: fmt.Sprintf("%s source contains syntax errors; symbols may be incomplete", a.spec.name),
		})
	}
	return rec, nil
}

// extractSymbols runs the symbol query. Capture names double as symbol kinds.
func (a *treeSitterAdapter) extractSymbols(root *sitter.Node, content []byte, rec *SymbolRecord) error {
	return a.runQuery(a.spec.symbolQuery, root, content, func(capture, text string, node *sitter.Node) {
		rec.Symbols = append(rec.Symbols, Symbol{
			Name: text,
			Kind: capture,
			Line: int(node.StartPoint().Row) + 1,
		})
	})
}

// extractRefs runs the import, inherit, and call queries in that order so
// ref sequences are stable for identical content.
func (a *treeSitterAdapter) extractRefs(root *sitter.Node, content []byte, rec *SymbolRecord) error {
	err := a.runQuery(a.spec.importQuery, root, content, func(_, text string, node *sitter.Node) {
		rec.Refs = append(rec.Refs, Ref{
			Target: trimImportTarget(text),
			Kind:   RefImport,
			Line:   int(node.StartPoint().Row) + 1,
		})
	})
	if err != nil {
		return err
	}

	if a.spec.inheritQuery != "" {
		err = a.runQuery(a.spec.inheritQuery, root, content, func(_, text string, node *sitter.Node) {
			rec.Refs = append(rec.Refs, Ref{
				Target: text,
				Kind:   RefInherit,
				Line:   int(node.StartPoint().Row) + 1,
			})
		})
		if err != nil {
			return err
		}
	}

	if a.spec.callQuery != "" {
		// Best-effort call classification: a `mod.fn()` call counts as a
		// call reference to `mod` when `mod` is the root of an import in
		// the same file.
		roots := make(map[string]string, len(rec.Refs))
		for _, ref := range rec.Refs {
			if ref.Kind != RefImport {
				continue
			}
			head, _, _ := strings.Cut(ref.Target, ".")
			if _, seen := roots[head]; !seen {
				roots[head] = ref.Target
			}
		}
		err = a.runQuery(a.spec.callQuery, root, content, func(_, text string, node *sitter.Node) {
			target, ok := roots[text]
			if !ok {
				return
			}
			rec.Refs = append(rec.Refs, Ref{
				Target: target,
				Kind:   RefCall,
				Line:   int(node.StartPoint().Row) + 1,
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// runQuery executes a tree-sitter query against root and invokes fn for
// every capture in match order (tree order, so deterministic).
func (a *treeSitterAdapter) runQuery(pattern string, root *sitter.Node, content []byte, fn func(capture, text string, node *sitter.Node)) error {
	q, err := sitter.NewQuery([]byte(pattern), a.grammar)
	if err != nil {
		return fmt.Errorf("%s query: %w", a.spec.name, err)
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, content)
		for _, capture := range match.Captures {
			name := q.CaptureNameForId(capture.Index)
			fn(name, capture.Node.Content(content), capture.Node)
		}
	}
	return nil
}

// walkCounts traverses the tree once, tallying branching constructs into
// rec.Counts.Branches and returning the number of source rows covered by
// comment nodes.
func (a *treeSitterAdapter) walkCounts(root *sitter.Node, rec *SymbolRecord) int {
	commentRows := make(map[uint32]struct{})
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kind := node.Type()
		if a.spec.branchTypes[kind] {
			rec.Counts.Branches++
		}
		if a.spec.commentTypes[kind] {
			for row := node.StartPoint().Row; row <= node.EndPoint().Row; row++ {
				commentRows[row] = struct{}{}
			}
			continue
		}
		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.NamedChild(i))
		}
	}
	return len(commentRows)
}

// trimImportTarget strips string quoting and include brackets from a raw
// import capture, leaving dotted module names untouched.
func trimImportTarget(s string) string {
	return strings.Trim(s, "\"'`<>")
}

// countLines returns (total, blank) line counts for content. A trailing
// newline does not create an extra line.
func countLines(content []byte) (total, blank int) {
	if len(content) == 0 {
		return 0, 0
	}
	for _, line := range bytes.Split(content, []byte{'\n'}) {
		total++
		if len(bytes.TrimSpace(line)) == 0 {
			blank++
		}
	}
	if content[len(content)-1] == '\n' {
		total--
		blank--
	}
	return total, blank
}

// isBinary sniffs the first 512 bytes. Text types and a few text-based
// application/* types pass; everything else is treated as binary.
func isBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	contentType := http.DetectContentType(sample)
	if strings.HasPrefix(contentType, "text/") {
		return false
	}
	for _, allowed := range []string{"json", "xml", "javascript"} {
		if strings.Contains(contentType, allowed) {
			return false
		}
	}
	return true
}

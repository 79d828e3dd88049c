package graph

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/codescope/codescope/internal/lang"
)

// FuzzyConfidence is the weight assigned to basename-only matches.
const FuzzyConfidence = 0.5

// Input pairs a file path with its parsed record. The builder requires
// the complete set for a job: it never resolves against a partial view.
type Input struct {
	Path   string
	Record *lang.SymbolRecord
}

// Builder resolves raw references into graph edges. Resolution order per
// reference: exact path match (relative to the importing file), then
// same-language module-name match within the source roots, then fuzzy
// basename match at reduced confidence.
type Builder struct {
	roots []string
}

// NewBuilder creates a Builder for the given source roots. An empty list
// defaults to the project root.
func NewBuilder(roots []string) *Builder {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	cleaned := make([]string, len(roots))
	for i, r := range roots {
		cleaned[i] = path.Clean(strings.ReplaceAll(r, "\\", "/"))
	}
	return &Builder{roots: cleaned}
}

// extsByLanguage lists the file extensions tried when resolving a
// path-like reference written without an extension.
var extsByLanguage = map[string][]string{
	"python":     {".py"},
	"javascript": {".js", ".jsx"},
	"typescript": {".ts", ".tsx"},
	"java":       {".java"},
	"c":          {".c", ".h"},
	"cpp":        {".cpp", ".cc", ".cxx", ".hpp", ".h"},
	"go":         {".go"},
}

var allExts = []string{".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".c", ".h", ".cpp", ".cc", ".cxx", ".hpp", ".go"}

type resolveIndex struct {
	byPath     map[string]string              // cleaned path -> node id
	byModule   map[string]map[string]string   // language -> module key -> node id
	byBasename map[string][]string            // basename (no ext) -> sorted node ids
}

// Build resolves every reference in the inputs into a deduplicated edge
// set. Identical inputs always yield an identical graph: inputs are
// sorted by node id before resolution and all candidate ties break
// lexicographically.
func (b *Builder) Build(inputs []Input) (*Graph, []lang.Diagnostic, error) {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		return NodeID(sorted[i].Path) < NodeID(sorted[j].Path)
	})

	g := New()
	for _, in := range sorted {
		id := NodeID(in.Path)
		if g.Node(id) != nil {
			return nil, nil, fmt.Errorf("build graph: duplicate node id %q", id)
		}
		g.AddNode(&Node{
			ID:       id,
			Path:     in.Path,
			Language: in.Record.Language,
		})
	}

	idx := b.buildIndex(sorted)

	type edgeKey struct {
		source, target string
		kind           lang.RefKind
	}
	edges := make(map[edgeKey]*Edge)
	type diagKey struct{ path, target string }
	seenDiags := make(map[diagKey]bool)
	var diags []lang.Diagnostic

	for _, in := range sorted {
		sourceID := NodeID(in.Path)
		for _, ref := range in.Record.Refs {
			targetID, confidence := b.resolve(idx, in, ref.Target)
			if targetID == "" {
				key := diagKey{path: in.Path, target: ref.Target}
				if !seenDiags[key] {
					seenDiags[key] = true
					diags = append(diags, lang.Diagnostic{
						Code:    lang.DiagUnresolvedReference,
						Path:    in.Path,
						Message: fmt.Sprintf("reference %q does not resolve to a project file", ref.Target),
						Line:    ref.Line,
					})
				}
				continue
			}
			if targetID == sourceID {
				continue // self-edges are dropped
			}
			key := edgeKey{source: sourceID, target: targetID, kind: ref.Kind}
			if existing, ok := edges[key]; ok {
				if confidence > existing.Confidence {
					existing.Confidence = confidence
				}
				continue
			}
			edges[key] = &Edge{
				Source:     sourceID,
				Target:     targetID,
				Kind:       ref.Kind,
				Confidence: confidence,
			}
		}
	}

	for _, e := range edges {
		g.AddEdge(e)
	}
	g.sortStable()
	return g, diags, nil
}

// buildIndex constructs the three lookup tables used during resolution.
// Inputs must already be sorted by node id so first-wins registration is
// deterministic.
func (b *Builder) buildIndex(sorted []Input) *resolveIndex {
	idx := &resolveIndex{
		byPath:     make(map[string]string),
		byModule:   make(map[string]map[string]string),
		byBasename: make(map[string][]string),
	}
	for _, in := range sorted {
		id := NodeID(in.Path)
		p := path.Clean(strings.ReplaceAll(in.Path, "\\", "/"))
		idx.byPath[p] = id

		base := strings.TrimSuffix(path.Base(p), path.Ext(p))
		idx.byBasename[base] = append(idx.byBasename[base], id)

		language := in.Record.Language
		mods := idx.byModule[language]
		if mods == nil {
			mods = make(map[string]string)
			idx.byModule[language] = mods
		}
		for _, key := range b.moduleKeys(p) {
			if _, taken := mods[key]; !taken {
				mods[key] = id
			}
		}
	}
	// Basename lists are appended in sorted-input order, so they are
	// already sorted; no extra pass needed.
	return idx
}

// moduleKeys returns the module-name keys a file is registered under:
// its root-relative path without extension, plus the package directory
// for index/__init__ files.
func (b *Builder) moduleKeys(p string) []string {
	var keys []string
	for _, root := range b.roots {
		rel := p
		if root != "." {
			if !strings.HasPrefix(p, root+"/") {
				continue
			}
			rel = p[len(root)+1:]
		}
		key := strings.TrimSuffix(rel, path.Ext(rel))
		keys = append(keys, key)
		if base := path.Base(key); base == "__init__" || base == "index" {
			if dir := path.Dir(key); dir != "." {
				keys = append(keys, dir)
			}
		}
	}
	return keys
}

// resolve maps one raw reference to a node id and confidence. Returns
// ("", 0) when nothing matches.
func (b *Builder) resolve(idx *resolveIndex, in Input, target string) (string, float64) {
	language := in.Record.Language
	exts := extsByLanguage[language]
	if exts == nil {
		exts = allExts
	}

	// 1. Exact path match, relative to the importing file's directory.
	slashed := strings.ReplaceAll(target, "\\", "/")
	if isPathLike(slashed) {
		candidate := path.Join(path.Dir(in.Path), slashed)
		if id := lookupPath(idx, candidate, exts); id != "" {
			return id, 1.0
		}
		// Includes and imports are also commonly written relative to a
		// source root rather than the importing file.
		for _, root := range b.roots {
			if id := lookupPath(idx, path.Join(root, slashed), exts); id != "" {
				return id, 1.0
			}
		}
	}

	// 2. Same-language module-name match within the source roots. Dotted
	// module names (python, java) map onto root-relative paths; a known
	// file extension is stripped first so `util.h` keys as `util` while
	// `pkg.mod` keys as `pkg/mod`.
	key := slashed
	if hasKnownExt(key) {
		key = strings.TrimSuffix(key, path.Ext(key))
	}
	key = strings.ReplaceAll(key, ".", "/")
	if key != "" {
		if id, ok := idx.byModule[language][key]; ok {
			return id, 1.0
		}
	}

	// 3. Fuzzy basename match, any language.
	base := path.Base(key)
	if ids := idx.byBasename[base]; len(ids) > 0 {
		// Prefer a candidate other than the importing file itself.
		for _, id := range ids {
			if id != NodeID(in.Path) {
				return id, FuzzyConfidence
			}
		}
		return ids[0], FuzzyConfidence
	}
	return "", 0
}

// lookupPath tries a candidate path exactly and with each extension.
func lookupPath(idx *resolveIndex, candidate string, exts []string) string {
	candidate = path.Clean(candidate)
	if id, ok := idx.byPath[candidate]; ok {
		return id
	}
	if path.Ext(candidate) == "" {
		for _, ext := range exts {
			if id, ok := idx.byPath[candidate+ext]; ok {
				return id
			}
		}
	}
	return ""
}

// isPathLike reports whether a reference is written as a file path rather
// than a module name.
func isPathLike(target string) bool {
	return strings.HasPrefix(target, "./") ||
		strings.HasPrefix(target, "../") ||
		strings.Contains(target, "/") ||
		hasKnownExt(target)
}

func hasKnownExt(target string) bool {
	ext := path.Ext(target)
	if ext == "" {
		return false
	}
	for _, known := range allExts {
		if ext == known {
			return true
		}
	}
	return false
}

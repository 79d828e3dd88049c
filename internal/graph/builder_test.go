package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/lang"
)

func pyInput(path string, imports ...string) Input {
	rec := &lang.SymbolRecord{Language: "python", Caps: lang.CapTokenize | lang.CapImports | lang.CapSymbols | lang.CapComplexity}
	for _, imp := range imports {
		rec.Refs = append(rec.Refs, lang.Ref{Target: imp, Kind: lang.RefImport, Line: 1})
	}
	return Input{Path: path, Record: rec}
}

func jsInput(path string, imports ...string) Input {
	rec := &lang.SymbolRecord{Language: "javascript", Caps: lang.CapTokenize | lang.CapImports}
	for _, imp := range imports {
		rec.Refs = append(rec.Refs, lang.Ref{Target: imp, Kind: lang.RefImport, Line: 1})
	}
	return Input{Path: path, Record: rec}
}

func edgeKeys(g *Graph) []string {
	keys := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		keys[i] = e.Source + "->" + e.Target
	}
	return keys
}

func TestBuild_ModuleNameResolution(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("a.py", "b"),
		pyInput("b.py"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	e := g.Edges[0]
	assert.Equal(t, "a.py", e.Source)
	assert.Equal(t, "b.py", e.Target)
	assert.Equal(t, lang.RefImport, e.Kind)
	assert.Equal(t, 1.0, e.Confidence)
}

func TestBuild_DottedModulePath(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("main.py", "pkg.util"),
		pyInput("pkg/util.py"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "pkg/util.py", g.Edges[0].Target)
	assert.Equal(t, 1.0, g.Edges[0].Confidence)
}

func TestBuild_PackageInitResolution(t *testing.T) {
	g, _, err := NewBuilder(nil).Build([]Input{
		pyInput("main.py", "pkg"),
		pyInput("pkg/__init__.py"),
	})
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "pkg/__init__.py", g.Edges[0].Target)
}

func TestBuild_RelativePathResolution(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		jsInput("src/app.js", "./helper.js", "../shared/common"),
		jsInput("src/helper.js"),
		jsInput("shared/common.js"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.ElementsMatch(t, []string{
		"src/app.js->src/helper.js",
		"src/app.js->shared/common.js",
	}, edgeKeys(g))
	for _, e := range g.Edges {
		assert.Equal(t, 1.0, e.Confidence)
	}
}

func TestBuild_SourceRootResolution(t *testing.T) {
	cRec := &lang.SymbolRecord{Language: "c", Caps: lang.CapTokenize | lang.CapImports}
	cRec.Refs = append(cRec.Refs, lang.Ref{Target: "util/str.h", Kind: lang.RefImport})

	g, diags, err := NewBuilder([]string{"include"}).Build([]Input{
		{Path: "src/main.c", Record: cRec},
		{Path: "include/util/str.h", Record: &lang.SymbolRecord{Language: "c"}},
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "include/util/str.h", g.Edges[0].Target)
}

func TestBuild_FuzzyBasenameFallback(t *testing.T) {
	// Module-name resolution fails (different directory layout), but the
	// basename matches a unique project file.
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("app/main.py", "helpers.strings"),
		pyInput("lib/strings.py"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "lib/strings.py", g.Edges[0].Target)
	assert.Equal(t, FuzzyConfidence, g.Edges[0].Confidence)
}

func TestBuild_UnresolvedReferenceDiagnostic(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("lonely.py", "numpy", "numpy"),
	})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)

	// Duplicate unresolved refs collapse to one diagnostic.
	require.Len(t, diags, 1)
	assert.Equal(t, lang.DiagUnresolvedReference, diags[0].Code)
	assert.Equal(t, "lonely.py", diags[0].Path)
	assert.Contains(t, diags[0].Message, "numpy")
}

func TestBuild_SelfEdgesDropped(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("self.py", "self"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Empty(t, g.Edges)
}

func TestBuild_DuplicateEdgesDeduplicated(t *testing.T) {
	g, _, err := NewBuilder(nil).Build([]Input{
		pyInput("a.py", "b", "b", "b"),
		pyInput("b.py"),
	})
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 1, g.FanIn("b.py"))
	assert.Equal(t, 1, g.FanOut("a.py"))
}

func TestBuild_DuplicateNodeID(t *testing.T) {
	_, _, err := NewBuilder(nil).Build([]Input{
		pyInput("a.py"),
		pyInput("./a.py"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestBuild_CyclesAreValid(t *testing.T) {
	g, diags, err := NewBuilder(nil).Build([]Input{
		pyInput("a.py", "b"),
		pyInput("b.py", "a"),
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Len(t, g.Edges, 2)
}

func TestBuild_DeterministicAcrossInputOrder(t *testing.T) {
	forward := []Input{
		pyInput("a.py", "b", "c"),
		pyInput("b.py", "c"),
		pyInput("c.py"),
		jsInput("web/ui.js", "./widget"),
		jsInput("web/widget.js"),
	}
	reversed := make([]Input, len(forward))
	for i, in := range forward {
		reversed[len(forward)-1-i] = in
	}

	g1, d1, err := NewBuilder(nil).Build(forward)
	require.NoError(t, err)
	g2, d2, err := NewBuilder(nil).Build(reversed)
	require.NoError(t, err)

	assert.Equal(t, g1.Nodes, g2.Nodes)
	assert.Equal(t, g1.Edges, g2.Edges)
	assert.Equal(t, d1, d2)
}

func TestBuild_NodesSortedByID(t *testing.T) {
	g, _, err := NewBuilder(nil).Build([]Input{
		pyInput("z.py"),
		pyInput("a.py"),
		pyInput("m.py"),
	})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, "a.py", g.Nodes[0].ID)
	assert.Equal(t, "m.py", g.Nodes[1].ID)
	assert.Equal(t, "z.py", g.Nodes[2].ID)
}

func TestBuild_CrossLanguageModuleIsolation(t *testing.T) {
	// A python import must not resolve to a javascript module key of the
	// same name; the fuzzy basename step still finds it at low confidence.
	g, _, err := NewBuilder(nil).Build([]Input{
		pyInput("main.py", "config"),
		jsInput("config.js"),
	})
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, FuzzyConfidence, g.Edges[0].Confidence)
}

package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageForFile(t *testing.T) {
	cases := []struct {
		path string
		lang string
		ok   bool
	}{
		{"src/app.py", "python", true},
		{"lib/Util.Java", "java", true},
		{"component.tsx", "typescript", true},
		{"main.cc", "cpp", true},
		{"include/util.h", "c", true},
		{"README.md", "", false},
		{"Makefile", "", false},
	}
	for _, tc := range cases {
		got, ok := LanguageForFile(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.lang, got, tc.path)
	}
}

func TestRegistry_ForLanguage(t *testing.T) {
	r := NewRegistry()

	py := r.ForLanguage("python")
	assert.Equal(t, "python", py.Language())
	assert.True(t, py.Capabilities().Has(CapSymbols))
	assert.True(t, r.Supported("python"))

	cobol := r.ForLanguage("cobol")
	require.NotNil(t, cobol)
	assert.Equal(t, "cobol", cobol.Language())
	assert.Equal(t, CapTokenize, cobol.Capabilities())
	assert.False(t, r.Supported("cobol"))
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	custom := Fallback("python")
	r.Register(custom)
	assert.Same(t, custom, r.ForLanguage("python"))
}

func TestFallback_CountsLinesOnly(t *testing.T) {
	a := Fallback("perl")
	rec, err := a.Parse(context.Background(), []byte("print 1;\n\nprint 2;\n"))
	require.NoError(t, err)

	assert.Equal(t, "perl", rec.Language)
	assert.Equal(t, CapTokenize, rec.Caps)
	assert.Equal(t, 3, rec.Counts.TotalLines)
	assert.Equal(t, 1, rec.Counts.BlankLines)
	assert.Empty(t, rec.Symbols)
	assert.Empty(t, rec.Refs)

	require.Len(t, rec.Diagnostics, 1)
	assert.Equal(t, DiagLanguageUnsupported, rec.Diagnostics[0].Code)
}

func TestFallback_RejectsBinary(t *testing.T) {
	a := Fallback("unknown")
	_, err := a.Parse(context.Background(), []byte{0x7f, 'E', 'L', 'F', 0x00})
	require.ErrorIs(t, err, ErrBinaryContent)
}

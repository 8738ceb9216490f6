package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/queries"
)

func TestParseFileToSexp(t *testing.T) {
	p := New(queries.NewCatalog(), nil)

	out, err := p.ParseFileToSexp(filepath.Join("testdata", "sample.py"))
	require.NoError(t, err)

	assert.Contains(t, out, "(module")
	assert.Contains(t, out, "(class_definition")
	assert.Contains(t, out, "(function_definition")
	// Leaf identifiers surface as quoted source text.
	assert.Contains(t, out, `(identifier "Greeter")`)
	assert.Contains(t, out, `(identifier "format_greeting")`)
	// Field names annotate children.
	assert.Contains(t, out, "name: ")
}

func TestParseFileToSexp_Errors(t *testing.T) {
	p := New(queries.NewCatalog(), nil)

	t.Run("Unknown Extension", func(t *testing.T) {
		_, err := p.ParseFileToSexp("notes.txt")
		assert.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := p.ParseFileToSexp(filepath.Join(t.TempDir(), "gone.py"))
		assert.Error(t, err)
	})
}

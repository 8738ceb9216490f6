package repomap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/crawler"
	"codemap/internal/parser"
	"codemap/internal/queries"
	"codemap/internal/rank"
	"codemap/internal/tag"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newBuilder() *Builder {
	p := parser.New(queries.NewCatalog(), nil)
	return NewBuilder(crawler.New(p, 2), rank.New(rank.DefaultConfig()))
}

func repoFixture(t *testing.T) string {
	return writeTree(t, map[string]string{
		"lib.py": "def process(data):\n    return data\n",
		"app.py": "from lib import process\n\n\ndef main():\n    process(1)\n    process(2)\n    process(3)\n",
	})
}

func rankOf(t *testing.T, ranked []tag.Tag, file string) float64 {
	t.Helper()
	for i := range ranked {
		if ranked[i].File == file {
			return ranked[i].Rank
		}
	}
	t.Fatalf("no tag for %s", file)
	return 0
}

func TestRankedTags(t *testing.T) {
	root := repoFixture(t)

	ranked, err := newBuilder().RankedTags(context.Background(), root, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, ranked)

	// Paths are root-relative slash form.
	for i := range ranked {
		assert.False(t, filepath.IsAbs(ranked[i].File))
		assert.NotContains(t, ranked[i].File, "\\")
	}

	// The heavily referenced definer outranks its caller.
	assert.Greater(t, rankOf(t, ranked, "lib.py"), rankOf(t, ranked, "app.py"))
}

func TestRankedTagsContextFileAcceptsAbsolutePath(t *testing.T) {
	root := repoFixture(t)
	b := newBuilder()

	relCtx, err := b.RankedTags(context.Background(), root, Options{
		ContextFiles: []string{"app.py"},
	})
	require.NoError(t, err)

	absCtx, err := b.RankedTags(context.Background(), root, Options{
		ContextFiles: []string{filepath.Join(root, "app.py")},
	})
	require.NoError(t, err)

	assert.InDelta(t, rankOf(t, relCtx, "app.py"), rankOf(t, absCtx, "app.py"), 1e-9)
	assert.InDelta(t, rankOf(t, relCtx, "lib.py"), rankOf(t, absCtx, "lib.py"), 1e-9)
}

func TestRankedTagsMentionedIdent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"first.py":  "def first_thing():\n    pass\n",
		"second.py": "def second_thing():\n    pass\n",
		"use.py":    "def use():\n    first_thing()\n    second_thing()\n",
	})
	b := newBuilder()

	biased, err := b.RankedTags(context.Background(), root, Options{
		MentionedIdents: []string{"first_thing"},
	})
	require.NoError(t, err)

	assert.Greater(t, rankOf(t, biased, "first.py"), rankOf(t, biased, "second.py"))
}

func TestRankedTagsEmptyRepo(t *testing.T) {
	ranked, err := newBuilder().RankedTags(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestBuildRendersDefinitionsInRankOrder(t *testing.T) {
	root := repoFixture(t)

	text, err := newBuilder().Build(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Contains(t, text, "lib.py:\n")
	assert.Contains(t, text, "app.py:\n")
	assert.Contains(t, text, "function process")
	assert.Contains(t, text, "function main")
	// References never render, only definitions.
	assert.NotContains(t, text, "reference")
	// The definer's block comes first.
	assert.Less(t, strings.Index(text, "lib.py:"), strings.Index(text, "app.py:"))
}

func TestRenderGroupsByFile(t *testing.T) {
	text := Render([]tag.Tag{
		{Name: "process", Kind: "name.definition.function", File: "lib.py", Line: 1, Rank: 0.7},
		{Name: "helper", Kind: "name.definition.function", File: "lib.py", Line: 9, Rank: 0.7},
		{Name: "process", Kind: "name.reference.call", File: "app.py", Line: 5, Rank: 0.3},
		{Name: "main", Kind: "name.definition.function", File: "app.py", Line: 4, Rank: 0.3},
	}, 0)

	want := "lib.py:\n" +
		"     1 │ function process\n" +
		"     9 │ function helper\n" +
		"\n" +
		"app.py:\n" +
		"     4 │ function main\n" +
		"\n"
	assert.Equal(t, want, text)
}

func TestRenderTrimsWholeFilesToBudget(t *testing.T) {
	var ranked []tag.Tag
	for _, file := range []string{"a.py", "b.py", "c.py"} {
		for line := 1; line <= 10; line++ {
			ranked = append(ranked, tag.Tag{
				Name: "some_function_name", Kind: "name.definition.function",
				File: file, Line: line,
			})
		}
	}

	full := Render(ranked, 0)
	blockLen := len(full) / 3

	trimmed := Render(ranked, blockLen/4+1)
	assert.Contains(t, trimmed, "a.py:")
	assert.NotContains(t, trimmed, "b.py:")
	assert.NotContains(t, trimmed, "c.py:")
}

func TestRenderAlwaysEmitsFirstBlock(t *testing.T) {
	ranked := []tag.Tag{
		{Name: "very_long_function_name_here", Kind: "name.definition.function", File: "a.py", Line: 1},
	}

	// A budget far below the first block still yields it; an empty map is
	// useless, an oversized one is merely imperfect.
	text := Render(ranked, 1)
	assert.Contains(t, text, "a.py:")
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(nil, 0))
	assert.Empty(t, Render([]tag.Tag{
		{Name: "x", Kind: "name.reference.call", File: "a.py", Line: 1},
	}, 100))
}

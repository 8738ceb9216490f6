// Package parser turns source files into typed code tags by executing the
// per-language tag queries against tree-sitter syntax trees.
package parser

import (
	"context"
	"errors"
	"os"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"

	"codemap/internal/cache"
	"codemap/internal/queries"
	"codemap/internal/tag"
)

// Parser extracts tags from source files. The compiled-query catalog and the
// optional persistent cache are the only shared state; a fresh tree-sitter
// parser is created per invocation, so concurrent calls on different files
// are safe.
type Parser struct {
	catalog *queries.Catalog
	cache   *cache.TagCache
}

// New creates a parser. tagCache may be nil to disable persistence.
func New(catalog *queries.Catalog, tagCache *cache.TagCache) *Parser {
	return &Parser{catalog: catalog, cache: tagCache}
}

// IsLanguageSupported reports whether the file's extension maps to a
// language with a registered tag query. It never loads or compiles the
// query, so probing unsupported files produces no warnings.
func (p *Parser) IsLanguageSupported(path string) bool {
	lang, ok := detectLanguage(path)
	return ok && p.catalog.Has(lang)
}

// GetTags returns all tags for the file. With useCache, a valid cache entry
// is returned as-is and a fresh parse is written back (even when empty)
// before returning. Every lower-level failure soft-fails to an empty list:
// heterogeneous repositories always contain files this parser cannot handle,
// and one bad file must never abort the batch.
func (p *Parser) GetTags(path string, useCache bool) []tag.Tag {
	if useCache && p.cache != nil {
		if tags, ok := p.cache.Get(path); ok {
			return tags
		}
	}

	tags := p.extract(path)

	if useCache && p.cache != nil {
		p.cache.Set(path, tags)
	}
	return tags
}

func (p *Parser) extract(path string) []tag.Tag {
	lang, ok := detectLanguage(path)
	if !ok {
		log.Debug().Str("file", path).Msg("no language for extension")
		return nil
	}

	grm := grammar(lang)
	if grm == nil {
		log.Debug().Str("file", path).Str("language", lang).Msg("no grammar linked")
		return nil
	}

	query, err := p.catalog.Load(lang, grm)
	if err != nil {
		if errors.Is(err, queries.ErrNoQuery) {
			log.Debug().Str("language", lang).Msg("no tag query registered")
		} else {
			log.Warn().Err(err).Str("language", lang).Msg("tag query unavailable")
		}
		return nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("unreadable file, skipping")
		return nil
	}
	if !utf8.Valid(source) {
		log.Warn().Str("file", path).Msg("not valid UTF-8, skipping")
		return nil
	}

	tree, err := parse(grm, source)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("parse failed, skipping")
		return nil
	}
	defer tree.Close()

	return collectTags(query, tree, source, path)
}

func parse(grm *sitter.Language, source []byte) (*sitter.Tree, error) {
	ps := sitter.NewParser()
	ps.SetLanguage(grm)
	return ps.ParseCtx(context.Background(), nil, source)
}

// collectTags runs the compiled query over the tree and projects every
// "name.*" capture into a Tag. Rows are 0-based in tree-sitter and reported
// 1-based here; columns stay 0-based.
func collectTags(query *sitter.Query, tree *sitter.Tree, source []byte, path string) []tag.Tag {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var tags []tag.Tag
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			kind := query.CaptureNameForId(c.Index)
			// Only "name.*" captures carry an identifier; the enclosing
			// definition/reference captures exist to anchor the pattern.
			if len(kind) < 5 || kind[:5] != "name." {
				continue
			}
			node := c.Node
			tags = append(tags, tag.Tag{
				Name:      node.Content(source),
				Kind:      tag.Kind(kind),
				File:      path,
				Line:      int(node.StartPoint().Row) + 1,
				Column:    int(node.StartPoint().Column),
				EndLine:   int(node.EndPoint().Row) + 1,
				EndColumn: int(node.EndPoint().Column),
			})
		}
	}
	return tags
}

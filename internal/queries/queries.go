// Package queries holds the per-language tree-sitter tag query catalog.
// Query pattern files are embedded resources named "{language}-tags.scm";
// compiled queries are cached per Catalog instance so independent catalogs
// never share state.
package queries

import (
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed *.scm
var patternFS embed.FS

// ErrNoQuery is returned when no tag query resource exists for a language.
var ErrNoQuery = errors.New("no tag query for language")

// Catalog compiles and caches tag queries per language.
type Catalog struct {
	mu       sync.Mutex
	compiled map[string]*sitter.Query
	failed   map[string]error
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		compiled: make(map[string]*sitter.Query),
		failed:   make(map[string]error),
	}
}

// Has reports whether a tag query resource exists for the language. It only
// checks for the embedded file and never compiles or logs, so callers can
// probe support cheaply.
func (c *Catalog) Has(language string) bool {
	_, err := patternFS.ReadFile(language + "-tags.scm")
	return err == nil
}

// Load returns the compiled tag query for the language, compiling it on
// first use. A missing resource yields ErrNoQuery. A malformed query is
// logged once and negative-cached: a bad pattern file degrades that one
// language, not the whole run.
func (c *Catalog) Load(language string, lang *sitter.Language) (*sitter.Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if q, ok := c.compiled[language]; ok {
		return q, nil
	}
	if err, ok := c.failed[language]; ok {
		return nil, err
	}

	src, err := patternFS.ReadFile(language + "-tags.scm")
	if err != nil {
		c.failed[language] = ErrNoQuery
		return nil, ErrNoQuery
	}

	q, err := sitter.NewQuery(src, lang)
	if err != nil {
		err = fmt.Errorf("compile %s-tags.scm: %w", language, err)
		log.Error().Err(err).Str("language", language).Msg("tag query rejected by grammar")
		c.failed[language] = err
		return nil, err
	}

	c.compiled[language] = q
	return q, nil
}

// Languages returns the names of all languages with an embedded query.
func (c *Catalog) Languages() []string {
	entries, err := patternFS.ReadDir(".")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		const suffix = "-tags.scm"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			langs = append(langs, name[:len(name)-len(suffix)])
		}
	}
	return langs
}

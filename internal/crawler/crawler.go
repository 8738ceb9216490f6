// Package crawler walks a repository and extracts tags from every supported
// source file with a bounded worker pool.
package crawler

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"codemap/internal/parser"
	"codemap/internal/tag"
)

// Crawler scans a directory tree for parseable source files.
type Crawler struct {
	parser  *parser.Parser
	workers int
	skipped map[string]struct{}
}

// New creates a crawler. workers <= 0 selects NumCPU. ignore lists
// directory names skipped in addition to the built-in set.
func New(p *parser.Parser, workers int, ignore ...string) *Crawler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	skipped := map[string]struct{}{
		".git":         {},
		".hg":          {},
		"vendor":       {},
		"node_modules": {},
		"testdata":     {},
	}
	for _, dir := range ignore {
		skipped[dir] = struct{}{}
	}
	return &Crawler{
		parser:  p,
		workers: workers,
		skipped: skipped,
	}
}

// Files returns the absolute paths of all supported source files under
// root, honoring the repository's .gitignore when one exists. The walk
// order (and therefore downstream tag order) is deterministic.
func (c *Crawler) Files(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var ignore *gitignore.GitIgnore
	if ig, err := gitignore.CompileIgnoreFile(filepath.Join(absRoot, ".gitignore")); err == nil {
		ignore = ig
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable entry degrades that subtree only.
			log.Debug().Err(err).Str("path", path).Msg("walk error, skipping entry")
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if _, skip := c.skipped[d.Name()]; skip {
				return filepath.SkipDir
			}
			if ignore != nil && rel != "." && ignore.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if !c.parser.IsLanguageSupported(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ExtractTags crawls root and extracts tags from every supported file in
// parallel. Results keep walk order, not completion order, so repeated runs
// over an unchanged tree produce identical tag lists.
func (c *Crawler) ExtractTags(ctx context.Context, root string, useCache bool) ([]tag.Tag, error) {
	files, err := c.Files(root)
	if err != nil {
		return nil, err
	}

	results := make([][]tag.Tag, len(files))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)
	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			results[i] = c.parser.GetTags(f, useCache)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []tag.Tag
	for _, tags := range results {
		all = append(all, tags...)
	}
	log.Debug().Int("files", len(files)).Int("tags", len(all)).Str("root", root).Msg("extraction complete")
	return all, nil
}

// RelTags rewrites absolute tag file paths to be relative to root. Paths
// outside root are left as-is.
func RelTags(root string, tags []tag.Tag) []tag.Tag {
	out := make([]tag.Tag, len(tags))
	copy(out, tags)
	for i := range out {
		if rel, err := filepath.Rel(root, out[i].File); err == nil {
			out[i].File = rel
		}
	}
	return out
}

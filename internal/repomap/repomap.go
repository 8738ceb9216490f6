// Package repomap assembles a ranked, token-budgeted text map of a
// repository from the tag extraction and ranking pipeline.
package repomap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"codemap/internal/crawler"
	"codemap/internal/rank"
	"codemap/internal/tag"
)

// Options controls one map build.
type Options struct {
	// ContextFiles are files already in play (e.g. open in a chat); their
	// neighborhoods rank higher. Paths may be absolute or root-relative.
	ContextFiles []string
	// MentionedIdents are identifiers named in the query context.
	MentionedIdents []string
	// MaxTokens bounds the rendered map size; <= 0 means unbounded.
	MaxTokens int
	// UseCache enables the persistent tag cache.
	UseCache bool
}

// Builder runs the crawl → rank → render pipeline.
type Builder struct {
	crawler *crawler.Crawler
	ranker  *rank.Ranker
}

// NewBuilder wires a Builder.
func NewBuilder(c *crawler.Crawler, r *rank.Ranker) *Builder {
	return &Builder{crawler: c, ranker: r}
}

// RankedTags extracts and ranks all tags under root. Tag file paths in the
// result are root-relative.
func (b *Builder) RankedTags(ctx context.Context, root string, opts Options) ([]tag.Tag, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	all, err := b.crawler.ExtractTags(ctx, absRoot, opts.UseCache)
	if err != nil {
		return nil, fmt.Errorf("extract tags: %w", err)
	}
	all = crawler.RelTags(absRoot, all)

	contextFiles := make(map[string]struct{}, len(opts.ContextFiles))
	for _, f := range opts.ContextFiles {
		if filepath.IsAbs(f) {
			if rel, err := filepath.Rel(absRoot, f); err == nil && !strings.HasPrefix(rel, "..") {
				f = rel
			}
		}
		contextFiles[filepath.ToSlash(f)] = struct{}{}
	}
	mentioned := make(map[string]struct{}, len(opts.MentionedIdents))
	for _, id := range opts.MentionedIdents {
		mentioned[id] = struct{}{}
	}

	// Graph and personalization key on exact path strings; normalize tag
	// paths to slash form to match the context set.
	for i := range all {
		all[i].File = filepath.ToSlash(all[i].File)
	}

	return b.ranker.RankTags(all, contextFiles, mentioned), nil
}

// Build renders the ranked map text for root, trimmed to the token budget.
func (b *Builder) Build(ctx context.Context, root string, opts Options) (string, error) {
	ranked, err := b.RankedTags(ctx, root, opts)
	if err != nil {
		return "", err
	}
	return Render(ranked, opts.MaxTokens), nil
}

// Render groups ranked tags by file (files in rank order, definitions only)
// and trims whole files from the bottom until the text fits the budget.
func Render(ranked []tag.Tag, maxTokens int) string {
	blocks := fileBlocks(ranked)

	var out strings.Builder
	for _, block := range blocks {
		if maxTokens > 0 && estimateTokens(out.String()+block) > maxTokens && out.Len() > 0 {
			break
		}
		out.WriteString(block)
	}
	return out.String()
}

func fileBlocks(ranked []tag.Tag) []string {
	var order []string
	byFile := make(map[string][]tag.Tag)
	for i := range ranked {
		t := ranked[i]
		if !t.Kind.IsDefinition() {
			continue
		}
		if _, seen := byFile[t.File]; !seen {
			order = append(order, t.File)
		}
		byFile[t.File] = append(byFile[t.File], t)
	}

	blocks := make([]string, 0, len(order))
	for _, file := range order {
		var b strings.Builder
		fmt.Fprintf(&b, "%s:\n", file)
		for _, t := range byFile[file] {
			fmt.Fprintf(&b, "  %4d │ %s %s\n", t.Line, t.Kind.Category(), t.Name)
		}
		b.WriteString("\n")
		blocks = append(blocks, b.String())
	}
	return blocks
}

// estimateTokens is the usual rough chars/4 estimate; real token counting
// belongs to the consumer holding a tokenizer.
func estimateTokens(text string) int {
	return len(text) / 4
}

// LogSummary emits a debug line describing a built map.
func LogSummary(root, text string) {
	log.Debug().Str("root", root).Int("approx_tokens", estimateTokens(text)).Msg("repo map rendered")
}

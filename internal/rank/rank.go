// Package rank scores files by personalized PageRank over the reference
// graph and broadcasts file ranks onto tags.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"codemap/internal/graph"
	"codemap/internal/tag"
)

// Config holds the ranking constants. The heuristic thresholds and
// multipliers mirror the observed repo-map behavior; they are configuration,
// not tuned truths, so callers can recalibrate against their own corpus.
type Config struct {
	Damping       float64 `yaml:"damping"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`

	PersonalizeFactor float64 `yaml:"personalize_factor"`

	MentionedMultiplier   float64 `yaml:"mentioned_multiplier"`
	WellNamedMultiplier   float64 `yaml:"well_named_multiplier"`
	PrivateMultiplier     float64 `yaml:"private_multiplier"`
	ContextFileMultiplier float64 `yaml:"context_file_multiplier"`
	OverDefinedMultiplier float64 `yaml:"over_defined_multiplier"`

	WellNamedMinLen      int `yaml:"well_named_min_len"`
	OverDefinedThreshold int `yaml:"over_defined_threshold"`
}

// DefaultConfig returns the documented defaults. Damping 0.85, tolerance
// 1e-6 and the 100-iteration cap are fixed here so ranking is reproducible
// across runs and in tests.
func DefaultConfig() Config {
	return Config{
		Damping:               0.85,
		Tolerance:             1e-6,
		MaxIterations:         100,
		PersonalizeFactor:     100.0,
		MentionedMultiplier:   10.0,
		WellNamedMultiplier:   10.0,
		PrivateMultiplier:     0.1,
		ContextFileMultiplier: 50.0,
		OverDefinedMultiplier: 0.1,
		WellNamedMinLen:       8,
		OverDefinedThreshold:  5,
	}
}

// Ranker ranks tag sets.
type Ranker struct {
	cfg Config
}

// New creates a Ranker. Only a wholly-zero Config is replaced with
// DefaultConfig; any explicitly set field makes the whole config literal,
// so zero stays a usable value (a multiplier of 0 disables its heuristic).
// Partial configs should start from DefaultConfig and override fields.
func New(cfg Config) *Ranker {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Ranker{cfg: cfg}
}

// RankTags ranks every tag by its file's PageRank score and returns the
// tags sorted by descending rank (stable for ties). contextFiles biases the
// random-walk restarts toward files already in play; mentionedIdents
// amplifies edges labeled with identifiers the user named. Ranking is a
// best-effort enhancement: on any internal failure the input is returned
// unmodified.
func (r *Ranker) RankTags(all []tag.Tag, contextFiles, mentionedIdents map[string]struct{}) (ranked []tag.Tag) {
	if len(all) == 0 {
		return []tag.Tag{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("ranking failed, returning unranked tags")
			ranked = all
		}
	}()

	g := graph.Build(all)
	if g.NodeCount() == 0 {
		log.Debug().Msg("reference graph has no nodes, skipping rank")
		return all
	}

	personalization := r.personalize(all, contextFiles, mentionedIdents)
	weights := r.adjustWeights(g, contextFiles, mentionedIdents)

	scores := pageRank(g, weights, personalization, r.cfg)

	ranked = make([]tag.Tag, len(all))
	copy(ranked, all)
	for i := range ranked {
		ranked[i].Rank = scores[ranked[i].File]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})
	return ranked
}

// TopRanked truncates a ranked tag list to at most limit entries.
func TopRanked(ranked []tag.Tag, limit int) []tag.Tag {
	if limit < 0 || limit >= len(ranked) {
		return ranked
	}
	return ranked[:limit]
}

// personalize builds the restart bias: every distinct tagged file splits a
// budget of PersonalizeFactor, and a file earns its share by being a
// context file or by containing a mentioned identifier (not doubled).
func (r *Ranker) personalize(all []tag.Tag, contextFiles, mentionedIdents map[string]struct{}) map[string]float64 {
	files := tag.DistinctFiles(all)
	base := r.cfg.PersonalizeFactor / float64(len(files))

	personalization := make(map[string]float64)
	for f := range files {
		if _, ok := contextFiles[f]; ok {
			personalization[f] = base
		}
	}
	if len(mentionedIdents) > 0 {
		for i := range all {
			if _, ok := mentionedIdents[all[i].Name]; ok {
				personalization[all[i].File] = base
			}
		}
	}
	return personalization
}

// adjustWeights applies the heuristic multipliers to every edge's base
// weight. The multipliers overlap on purpose: a mentioned, well-named
// identifier compounds to ×100.
func (r *Ranker) adjustWeights(g *graph.Graph, contextFiles, mentionedIdents map[string]struct{}) []float64 {
	weights := make([]float64, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		w := e.Weight

		if _, ok := mentionedIdents[e.Ident]; ok {
			w *= r.cfg.MentionedMultiplier
		}
		if r.isWellNamed(e.Ident) {
			w *= r.cfg.WellNamedMultiplier
		}
		if strings.HasPrefix(e.Ident, "_") {
			w *= r.cfg.PrivateMultiplier
		}
		if _, ok := contextFiles[e.From]; ok {
			w *= r.cfg.ContextFileMultiplier
		}
		if len(g.Defines[e.Ident]) > r.cfg.OverDefinedThreshold {
			w *= r.cfg.OverDefinedMultiplier
		}

		weights[i] = w
	}
	return weights
}

// isWellNamed reports whether an identifier looks deliberately named:
// long enough and either snake_case or mixed case.
func (r *Ranker) isWellNamed(ident string) bool {
	if len(ident) < r.cfg.WellNamedMinLen {
		return false
	}
	if strings.Contains(ident, "_") {
		return true
	}
	var hasUpper, hasLower bool
	for _, c := range ident {
		if unicode.IsUpper(c) {
			hasUpper = true
		}
		if unicode.IsLower(c) {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

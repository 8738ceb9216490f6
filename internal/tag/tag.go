// Package tag defines the code tag record produced by the parser and
// consumed by the graph builder and ranker.
package tag

import "strings"

// Kind is the dotted taxonomy label attached to a tag capture,
// e.g. "name.definition.class" or "name.reference.call".
type Kind string

// Tag is one recorded occurrence of a named code element with its source
// span. Tags are detached from the parse tree: once created they carry no
// references back to tree-sitter state and are safe to cache and share.
type Tag struct {
	Name      string  `json:"name"`
	Kind      Kind    `json:"kind"`
	File      string  `json:"file"`
	Line      int     `json:"line"`     // 1-based
	Column    int     `json:"column"`   // 0-based
	EndLine   int     `json:"end_line"` // 1-based
	EndColumn int     `json:"end_column"`
	Rank      float64 `json:"rank,omitempty"`
}

// IsDefinition reports whether the kind marks a definition site.
func (k Kind) IsDefinition() bool {
	return strings.Contains(string(k), "definition")
}

// IsReference reports whether the kind marks a reference site.
func (k Kind) IsReference() bool {
	return strings.Contains(string(k), "reference")
}

// Category returns the last segment of the dotted kind, e.g. "class" for
// "name.definition.class". Empty kinds yield "".
func (k Kind) Category() string {
	s := string(k)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DistinctFiles returns the set of file paths appearing in tags.
func DistinctFiles(tags []Tag) map[string]struct{} {
	files := make(map[string]struct{})
	for i := range tags {
		files[tags[i].File] = struct{}{}
	}
	return files
}

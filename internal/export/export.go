// Package export serializes ranked tags to a JSON index document validated
// against an embedded schema.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"codemap/internal/tag"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("codemap-index.json", schemaJSON)

// Document is the JSON index of one pipeline run.
type Document struct {
	Version     int         `json:"version"`
	Root        string      `json:"root"`
	GeneratedAt time.Time   `json:"generated_at"`
	Files       []FileEntry `json:"files"`
}

// FileEntry groups one file's ranked tags.
type FileEntry struct {
	Path string    `json:"path"`
	Rank float64   `json:"rank"`
	Tags []tag.Tag `json:"tags"`
}

// BuildDocument groups ranked tags by file, preserving rank order.
func BuildDocument(root string, ranked []tag.Tag) Document {
	doc := Document{
		Version:     1,
		Root:        root,
		GeneratedAt: time.Now().UTC(),
		Files:       []FileEntry{},
	}

	index := make(map[string]int)
	for i := range ranked {
		t := ranked[i]
		pos, seen := index[t.File]
		if !seen {
			pos = len(doc.Files)
			index[t.File] = pos
			doc.Files = append(doc.Files, FileEntry{Path: t.File, Rank: t.Rank, Tags: []tag.Tag{}})
		}
		doc.Files[pos].Tags = append(doc.Files[pos].Tags, t)
	}
	return doc
}

// Validate checks the document against the embedded schema. A failure here
// is a bug in document construction, not an input condition, so it is
// returned rather than absorbed.
func (d Document) Validate() error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("index document failed schema validation: %w", err)
	}
	return nil
}

// Write validates and encodes the document.
func Write(w io.Writer, d Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// extLanguages maps file extensions to language names. Language names double
// as the query resource prefix ("{language}-tags.scm").
var extLanguages = map[string]string{
	".py":   "python",
	".pyw":  "python",
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".java": "java",
	".rb":   "ruby",
	".rake": "ruby",
	".rs":   "rust",
}

// detectLanguage returns the language name for a file path, based on its
// extension.
func detectLanguage(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extLanguages[ext]
	return lang, ok
}

// grammar returns the tree-sitter grammar for a language name, or nil when
// no grammar is linked in.
func grammar(language string) *sitter.Language {
	switch language {
	case "python":
		return python.GetLanguage()
	case "go":
		return golang.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "ruby":
		return ruby.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	}
	return nil
}

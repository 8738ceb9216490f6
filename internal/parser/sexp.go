package parser

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseFileToSexp renders the file's full syntax tree as an indented
// S-expression: named nodes as "(type field: child ...)", unnamed and
// terminal nodes as their quoted source text. Diagnostics only; unlike
// GetTags this surfaces errors to the caller.
func (p *Parser) ParseFileToSexp(path string) (string, error) {
	lang, ok := detectLanguage(path)
	if !ok {
		return "", fmt.Errorf("no language detected for %s", path)
	}
	grm := grammar(lang)
	if grm == nil {
		return "", fmt.Errorf("no grammar linked for language %s", lang)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	tree, err := parse(grm, source)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	var b strings.Builder
	writeSexp(&b, tree.RootNode(), source, 0)
	b.WriteByte('\n')
	return b.String(), nil
}

func writeSexp(b *strings.Builder, node *sitter.Node, source []byte, depth int) {
	if !node.IsNamed() {
		b.WriteString(strconv.Quote(node.Content(source)))
		return
	}

	b.WriteByte('(')
	b.WriteString(node.Type())

	count := int(node.ChildCount())
	if count == 0 {
		// Terminal named node: show its text so leaf identifiers are
		// readable in the dump.
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(node.Content(source)))
	}
	for i := 0; i < count; i++ {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth+1))
		if field := node.FieldNameForChild(i); field != "" {
			b.WriteString(field)
			b.WriteString(": ")
		}
		writeSexp(b, node.Child(i), source, depth+1)
	}
	b.WriteByte(')')
}

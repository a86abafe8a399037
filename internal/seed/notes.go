// Package seed supplies the demo documents inserted by the starter.
package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"vector-starter/internal/collections"
)

// DefaultNotes returns the built-in notes.
func DefaultNotes() []collections.Note {
	return []collections.Note{
		{
			Title: "Vector databases",
			Body:  "A vector database stores embeddings and finds the nearest neighbors of a query vector.",
		},
		{
			Title: "Embeddings",
			Body:  "An embedding model turns text into a dense vector so that similar meaning lands close together.",
		},
		{
			Title: "Grocery list",
			Body:  "Milk, eggs, sourdough bread and a bag of coffee beans.",
		},
		{
			Title: "Weekend hike",
			Body:  "Trail starts at the north parking lot; bring water and a rain jacket.",
		},
	}
}

// Parser turns markdown documents into notes.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a markdown parser.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// LoadNotes parses every *.md file directly under dir, sorted by filename.
func (p *Parser) LoadNotes(dir string) ([]collections.Note, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing markdown files: %w", err)
	}
	sort.Strings(paths)

	notes := make([]collections.Note, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		note := p.ParseNote(content, filepath.Base(path))
		if note.Body == "" {
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// ParseNote converts one markdown document into a note. The title is the
// first level-1 heading, else the first level-2 heading, else derived from
// filename. The body is the plain text of everything except the title
// heading.
func (p *Parser) ParseNote(content []byte, filename string) collections.Note {
	if len(content) == 0 {
		return collections.Note{Title: titleFromFilename(filename)}
	}

	doc := p.md.Parser().Parse(text.NewReader(content))
	titleNode := findTitle(doc)

	title := titleFromFilename(filename)
	if titleNode != nil {
		title = nodeText(titleNode, content)
	}

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if s := strings.TrimSpace(blockText(n, content, titleNode)); s != "" {
			blocks = append(blocks, s)
		}
	}

	return collections.Note{
		Title: title,
		Body:  strings.Join(blocks, "\n"),
	}
}

func findTitle(doc ast.Node) ast.Node {
	var h1, h2 ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			if heading.Level == 1 && h1 == nil {
				h1 = heading
				return ast.WalkStop, nil
			}
			if heading.Level == 2 && h2 == nil {
				h2 = heading
			}
		}
		return ast.WalkContinue, nil
	})
	if h1 != nil {
		return h1
	}
	return h2
}

// blockText returns the text of a block node, one line per leaf block.
// skip and everything below it is left out.
func blockText(n ast.Node, content []byte, skip ast.Node) string {
	if n == skip {
		return ""
	}
	switch node := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var sb strings.Builder
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			sb.Write(line.Value(content))
		}
		return sb.String()
	case *ast.ThematicBreak, *ast.HTMLBlock:
		return ""
	}

	if n.Type() == ast.TypeBlock && n.HasChildren() && n.FirstChild().Type() == ast.TypeBlock {
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if s := strings.TrimSpace(blockText(c, content, skip)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return nodeText(n, content)
}

// nodeText concatenates the inline text below n.
func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(content))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// titleFromFilename removes the extension and capitalizes words.
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

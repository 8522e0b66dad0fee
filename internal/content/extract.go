// Package content extracts plain chapter text from rendered chapter trees and
// markdown sources, and chunks it for the library search index.
package content

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// blockElements introduce paragraph breaks in the extracted text.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "blockquote": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "tr": {}, "br": {}, "figcaption": {},
}

// skippedElements carry no visible text.
var skippedElements = map[string]struct{}{
	"script": {}, "style": {}, "head": {}, "noscript": {}, "template": {},
}

// ExtractHTML returns the visible text of a rendered chapter tree. Block
// elements become paragraph breaks; script and style subtrees are skipped;
// whitespace inside paragraphs is collapsed.
func ExtractHTML(tree *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedElements[n.Data]; skip {
				return
			}
			if _, block := blockElements[n.Data]; block {
				sb.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if tree != nil {
		walk(tree)
	}
	return normalize(sb.String())
}

// markdownParser is shared; goldmark parsers are safe for concurrent use.
var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// ExtractMarkdown returns the plain text of a markdown chapter source.
// Headings, paragraphs, list items and table rows each become their own
// paragraph; inline markup is dropped.
func ExtractMarkdown(source []byte) (string, error) {
	if len(source) == 0 {
		return "", nil
	}

	doc := markdownParser.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			sb.WriteString("\n\n")
			return ast.WalkContinue, nil
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			return ast.WalkContinue, nil
		case *ast.String:
			sb.Write(node.Value)
			return ast.WalkContinue, nil
		case *ast.CodeBlock:
			sb.WriteString("\n\n")
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			sb.WriteString("\n\n")
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}

		// Table extension nodes are matched by kind name; each row becomes a
		// pipe-separated line.
		kindName := n.Kind().String()
		if strings.Contains(kindName, "TableRow") || strings.Contains(kindName, "TableHeader") {
			sb.WriteString("\n\n")
			sb.WriteString(tableRowText(n, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown: %w", err)
	}

	return normalize(sb.String()), nil
}

func tableRowText(row ast.Node, source []byte) string {
	var sb strings.Builder
	cells := 0
	_ = ast.Walk(row, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if strings.Contains(n.Kind().String(), "TableCell") {
			if cells > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(strings.TrimSpace(nodeText(n, source)))
			cells++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// normalize collapses intra-paragraph whitespace and reduces blank-line runs
// to single paragraph breaks.
func normalize(s string) string {
	paragraphs := strings.Split(s, "\n\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		fields := strings.FieldsFunc(p, unicode.IsSpace)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n\n")
}

package toc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseNav reads an EPUB navigation document (an already-extracted XHTML file)
// and returns its table-of-contents tree. The toc nav element is preferred
// when the document carries several nav elements; otherwise the first nav with
// a list is used. Entries without their own id attribute get sequential
// "navId-N" IDs assigned in document order, stable across reparses of the same
// document.
func ParseNav(r io.Reader) ([]Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document: %w", err)
	}

	nav := findTocNav(doc)
	if nav == nil {
		return nil, fmt.Errorf("nav document has no toc nav element")
	}
	list := findChildElement(nav, "ol", "ul")
	if list == nil {
		return nil, fmt.Errorf("toc nav element has no list")
	}

	counter := 0
	return parseList(list, &counter), nil
}

func parseList(list *html.Node, counter *int) []Node {
	var nodes []Node
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		node, ok := parseEntry(li, counter)
		if !ok {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func parseEntry(li *html.Node, counter *int) (Node, bool) {
	anchor := findChildElement(li, "a", "span")
	if anchor == nil {
		return Node{}, false
	}

	*counter++
	node := Node{
		ID:    attr(anchor, "id"),
		Title: strings.TrimSpace(textContent(anchor)),
		Href:  attr(anchor, "href"),
	}
	if node.ID == "" {
		node.ID = fmt.Sprintf("navId-%d", *counter)
	}

	if sub := findChildElement(li, "ol", "ul"); sub != nil {
		node.Children = parseList(sub, counter)
	}
	return node, true
}

// findTocNav prefers the nav marked epub:type="toc" and falls back to the
// first nav in the document.
func findTocNav(doc *html.Node) *html.Node {
	var first, toc *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if toc != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "nav" {
			if first == nil {
				first = n
			}
			if strings.EqualFold(attr(n, "epub:type"), "toc") {
				toc = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if toc != nil {
		return toc
	}
	return first
}

// findChildElement returns the first direct child matching any of the names.
func findChildElement(n *html.Node, names ...string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		for _, name := range names {
			if c.Data == name {
				return c
			}
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

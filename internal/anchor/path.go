package anchor

import "golang.org/x/net/html"

// pathTo computes the child-index path from the tree root down to n.
// Every child node counts toward the index, element or not, so the path is
// reconstructable from any structurally identical parse of the chapter.
func pathTo(n *html.Node) []int {
	var reversed []int
	for n != nil && n.Parent != nil {
		idx := 0
		for sib := n.Parent.FirstChild; sib != nil && sib != n; sib = sib.NextSibling {
			idx++
		}
		reversed = append(reversed, idx)
		n = n.Parent
	}

	path := make([]int, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path
}

// walkPath follows a child-index path from root. Returns nil when any step
// runs past the available children. Index paths address exactly one node, so
// resolution is inherently the document-order first match even when duplicated
// markup yields equal-content siblings.
func walkPath(root *html.Node, path []int) *html.Node {
	n := root
	for _, idx := range path {
		child := n.FirstChild
		for i := 0; i < idx && child != nil; i++ {
			child = child.NextSibling
		}
		if child == nil {
			return nil
		}
		n = child
	}
	return n
}

// root walks up to the topmost node of the tree containing n.
func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// nextInDocument advances n in document order (depth first, children before
// siblings), never leaving the tree.
func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

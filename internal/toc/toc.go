// Package toc models a book's table of contents and the reconciliation of
// externally supplied chapter titles into it.
package toc

// Node is one table-of-contents entry. IDs are assigned when the nav document
// is parsed and are never regenerated afterwards; title enhancement matches
// strictly by ID.
type Node struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Href     string `json:"href,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Merge returns a copy of the tree with each node's title replaced by the
// mapping entry for its ID. Nodes without a mapping entry are copied
// unchanged, and mapping entries that match no node are silently ignored.
// The input tree is not modified.
func Merge(tree []Node, titles map[string]string) []Node {
	if len(tree) == 0 {
		return tree
	}
	out := make([]Node, len(tree))
	for i, n := range tree {
		out[i] = n
		if title, ok := titles[n.ID]; ok {
			out[i].Title = title
		}
		out[i].Children = Merge(n.Children, titles)
	}
	return out
}

// Walk visits every node depth-first, parents before children.
func Walk(tree []Node, fn func(Node)) {
	for _, n := range tree {
		fn(n)
		Walk(n.Children, fn)
	}
}

// Count returns the total number of nodes in the tree.
func Count(tree []Node) int {
	total := 0
	Walk(tree, func(Node) { total++ })
	return total
}

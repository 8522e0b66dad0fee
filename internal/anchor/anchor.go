// Package anchor converts live text selections into durable anchors and
// resolves anchors back into text ranges against freshly rendered chapter
// trees.
//
// Anchors hold a structural path (child indices from the chapter root down to
// a text node) plus character offsets, never node references: node references
// do not survive re-pagination. Resolution is lazy and has three outcomes:
// resolved, pending (chapter not materialized yet) and structure-changed
// (chapter materialized but the path no longer exists).
package anchor

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrInvalidSelection is returned when a selection cannot produce an anchor:
// empty, spanning chapter boundaries, or touching non-text nodes.
var ErrInvalidSelection = errors.New("invalid selection")

// Anchor is a durable reference to a span of chapter text.
// StartOffset == EndOffset is only legal for zero-width note markers, which
// anchor to the preceding character boundary.
type Anchor struct {
	ChapterID   string `json:"chapterId"`
	Path        []int  `json:"path"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`

	// EndPath is set when the selection ends in a different text node than it
	// starts in. Empty EndPath means the anchor is contained in one node.
	EndPath []int `json:"endPath,omitempty"`
}

// Collapsed reports whether the anchor is a zero-width note marker.
func (a Anchor) Collapsed() bool {
	return len(a.EndPath) == 0 && a.StartOffset == a.EndOffset
}

// Selection is a live text selection handed over by the renderer.
type Selection struct {
	ChapterID   string
	Start       *html.Node
	End         *html.Node
	StartOffset int
	EndOffset   int
}

// TextRange is a resolved anchor: live text nodes plus offsets, valid only for
// the tree it was resolved against.
type TextRange struct {
	Start       *html.Node
	End         *html.Node
	StartOffset int
	EndOffset   int
}

// Outcome classifies a resolution attempt.
type Outcome int

const (
	// Resolved means the range is live in the supplied tree.
	Resolved Outcome = iota
	// Pending means the chapter is not materialized; retry once it renders.
	Pending
	// StructureChanged means the chapter is materialized but the anchored path
	// no longer exists. The caller degrades to excerpt-only display.
	StructureChanged
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Pending:
		return "pending"
	case StructureChanged:
		return "structure-changed"
	default:
		return "unknown"
	}
}

// Resolution is the result of resolving an anchor against a chapter tree.
// Range is only meaningful when Outcome is Resolved.
type Resolution struct {
	Outcome Outcome
	Range   TextRange
}

package anchor

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Create computes a durable anchor from a live selection. It fails with
// ErrInvalidSelection when the selection is empty, collapsed, touches non-text
// nodes, or spans two chapter trees. Zero-width note markers go through
// CreatePoint instead.
func Create(sel Selection) (Anchor, error) {
	if err := validate(sel); err != nil {
		return Anchor{}, err
	}
	if sel.Start == sel.End && sel.StartOffset == sel.EndOffset {
		return Anchor{}, fmt.Errorf("%w: selection is collapsed", ErrInvalidSelection)
	}

	a := Anchor{
		ChapterID:   sel.ChapterID,
		Path:        pathTo(sel.Start),
		StartOffset: sel.StartOffset,
		EndOffset:   sel.EndOffset,
	}
	if sel.Start != sel.End {
		a.EndPath = pathTo(sel.End)
	}
	return a, nil
}

// CreatePoint computes a zero-width note-marker anchor at the given character
// boundary of a text node.
func CreatePoint(chapterID string, node *html.Node, offset int) (Anchor, error) {
	if node == nil || node.Type != html.TextNode {
		return Anchor{}, fmt.Errorf("%w: marker must target a text node", ErrInvalidSelection)
	}
	if offset < 0 || offset > len(node.Data) {
		return Anchor{}, fmt.Errorf("%w: marker offset %d out of bounds", ErrInvalidSelection, offset)
	}
	return Anchor{
		ChapterID:   chapterID,
		Path:        pathTo(node),
		StartOffset: offset,
		EndOffset:   offset,
	}, nil
}

func validate(sel Selection) error {
	if sel.Start == nil || sel.End == nil {
		return fmt.Errorf("%w: no selection", ErrInvalidSelection)
	}
	if sel.Start.Type != html.TextNode || sel.End.Type != html.TextNode {
		return fmt.Errorf("%w: selection endpoints must be text nodes", ErrInvalidSelection)
	}
	if sel.StartOffset < 0 || sel.StartOffset > len(sel.Start.Data) {
		return fmt.Errorf("%w: start offset %d out of bounds", ErrInvalidSelection, sel.StartOffset)
	}
	if sel.EndOffset < 0 || sel.EndOffset > len(sel.End.Data) {
		return fmt.Errorf("%w: end offset %d out of bounds", ErrInvalidSelection, sel.EndOffset)
	}
	if root(sel.Start) != root(sel.End) {
		return fmt.Errorf("%w: selection spans chapter boundary", ErrInvalidSelection)
	}
	return nil
}

// Resolve re-walks the anchor's structural path against the currently rendered
// chapter tree. A nil tree means the chapter is not materialized and the
// resolution is pending, not failed.
func Resolve(a Anchor, tree *html.Node) Resolution {
	if tree == nil {
		return Resolution{Outcome: Pending}
	}

	start := walkPath(tree, a.Path)
	if start == nil || start.Type != html.TextNode {
		return Resolution{Outcome: StructureChanged}
	}

	end := start
	endOffset := a.EndOffset
	if len(a.EndPath) > 0 {
		end = walkPath(tree, a.EndPath)
		if end == nil || end.Type != html.TextNode {
			return Resolution{Outcome: StructureChanged}
		}
	}

	if a.StartOffset > len(start.Data) || endOffset > len(end.Data) {
		return Resolution{Outcome: StructureChanged}
	}

	return Resolution{
		Outcome: Resolved,
		Range: TextRange{
			Start:       start,
			End:         end,
			StartOffset: a.StartOffset,
			EndOffset:   endOffset,
		},
	}
}

// Excerpt extracts the selected text, used as the display snapshot stored with
// an annotation so it survives later resolution failures.
func Excerpt(sel Selection) string {
	if sel.Start == nil || sel.End == nil {
		return ""
	}
	if sel.Start == sel.End {
		if sel.StartOffset > sel.EndOffset || sel.EndOffset > len(sel.Start.Data) {
			return ""
		}
		return sel.Start.Data[sel.StartOffset:sel.EndOffset]
	}

	var b strings.Builder
	b.WriteString(sel.Start.Data[sel.StartOffset:])
	for n := nextInDocument(sel.Start); n != nil && n != sel.End; n = nextInDocument(n) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	if sel.EndOffset <= len(sel.End.Data) {
		b.WriteString(sel.End.Data[:sel.EndOffset])
	}
	return b.String()
}

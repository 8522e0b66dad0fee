package anchor

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const chapterHTML = `<html><body>
<p>Alice was beginning to get very tired.</p>
<p>So she was considering, <i>in her own mind</i>, whether the pleasure
of making a daisy-chain would be worth the trouble.</p>
</body></html>`

func parseChapter(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	return doc
}

// findText returns the first text node (document order) containing the substring.
func findText(t *testing.T, tree *html.Node, substr string) *html.Node {
	t.Helper()
	for n := tree; n != nil; n = nextInDocument(n) {
		if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
			return n
		}
	}
	t.Fatalf("no text node containing %q", substr)
	return nil
}

func TestCreate_Resolve_RoundTrip(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	node := findText(t, tree, "Alice was beginning")

	sel := Selection{
		ChapterID:   "chap01",
		Start:       node,
		End:         node,
		StartOffset: 0,
		EndOffset:   5, // "Alice"
	}

	a, err := Create(sel)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ChapterID != "chap01" {
		t.Errorf("ChapterID = %q", a.ChapterID)
	}
	if a.Collapsed() {
		t.Error("range anchor reported as collapsed")
	}

	res := Resolve(a, tree)
	if res.Outcome != Resolved {
		t.Fatalf("Resolve() outcome = %v, want resolved", res.Outcome)
	}
	if res.Range.Start != node || res.Range.End != node {
		t.Error("Resolve() did not return the original node")
	}
	if res.Range.StartOffset != 0 || res.Range.EndOffset != 5 {
		t.Errorf("Resolve() offsets = %d..%d, want 0..5", res.Range.StartOffset, res.Range.EndOffset)
	}
}

func TestResolve_AgainstReparsedTree(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	node := findText(t, tree, "daisy-chain")

	off := strings.Index(node.Data, "daisy-chain")
	sel := Selection{
		ChapterID:   "chap01",
		Start:       node,
		End:         node,
		StartOffset: off,
		EndOffset:   off + len("daisy-chain"),
	}
	a, err := Create(sel)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A fresh parse of the same chapter stands in for re-pagination: same
	// structure, brand new nodes.
	fresh := parseChapter(t, chapterHTML)
	res := Resolve(a, fresh)
	if res.Outcome != Resolved {
		t.Fatalf("Resolve() outcome = %v, want resolved", res.Outcome)
	}
	got := res.Range.Start.Data[res.Range.StartOffset:res.Range.EndOffset]
	if got != "daisy-chain" {
		t.Errorf("resolved text = %q, want %q", got, "daisy-chain")
	}
}

func TestCreate_CrossNodeSelection(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	start := findText(t, tree, "So she was considering")
	end := findText(t, tree, "whether the pleasure")

	sel := Selection{
		ChapterID:   "chap01",
		Start:       start,
		End:         end,
		StartOffset: 0,
		EndOffset:   len(end.Data),
	}
	a, err := Create(sel)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(a.EndPath) == 0 {
		t.Fatal("cross-node anchor must carry an end path")
	}

	res := Resolve(a, tree)
	if res.Outcome != Resolved {
		t.Fatalf("Resolve() outcome = %v", res.Outcome)
	}
	if res.Range.Start != start || res.Range.End != end {
		t.Error("cross-node resolution returned wrong nodes")
	}

	excerpt := Excerpt(sel)
	if !strings.Contains(excerpt, "in her own mind") {
		t.Errorf("Excerpt() = %q, missing intermediate node text", excerpt)
	}
}

func TestCreate_InvalidSelections(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	node := findText(t, tree, "Alice")
	other := parseChapter(t, chapterHTML)
	foreign := findText(t, other, "Alice")

	tests := []struct {
		name string
		sel  Selection
	}{
		{"nil nodes", Selection{}},
		{"collapsed", Selection{Start: node, End: node, StartOffset: 3, EndOffset: 3}},
		{"offset out of bounds", Selection{Start: node, End: node, StartOffset: 0, EndOffset: len(node.Data) + 1}},
		{"negative offset", Selection{Start: node, End: node, StartOffset: -1, EndOffset: 3}},
		{"cross-chapter", Selection{Start: node, End: foreign, StartOffset: 0, EndOffset: 3}},
		{"non-text node", Selection{Start: node.Parent, End: node, StartOffset: 0, EndOffset: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Create(tt.sel); !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("Create() error = %v, want ErrInvalidSelection", err)
			}
		})
	}
}

func TestCreatePoint(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	node := findText(t, tree, "Alice")

	a, err := CreatePoint("chap01", node, 5)
	if err != nil {
		t.Fatalf("CreatePoint() error = %v", err)
	}
	if !a.Collapsed() {
		t.Error("point anchor must be collapsed")
	}

	res := Resolve(a, tree)
	if res.Outcome != Resolved {
		t.Fatalf("Resolve() outcome = %v", res.Outcome)
	}
	if res.Range.StartOffset != 5 || res.Range.EndOffset != 5 {
		t.Errorf("marker offsets = %d..%d, want 5..5", res.Range.StartOffset, res.Range.EndOffset)
	}

	if _, err := CreatePoint("chap01", node.Parent, 0); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("CreatePoint() on element error = %v, want ErrInvalidSelection", err)
	}
}

func TestResolve_PendingAndStructureChanged(t *testing.T) {
	tree := parseChapter(t, chapterHTML)
	node := findText(t, tree, "Alice")
	a, err := Create(Selection{ChapterID: "chap01", Start: node, End: node, StartOffset: 0, EndOffset: 5})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if res := Resolve(a, nil); res.Outcome != Pending {
		t.Errorf("Resolve(nil tree) outcome = %v, want pending", res.Outcome)
	}

	// Structurally different chapter: the path runs past the children.
	edited := parseChapter(t, `<html><body><div></div></body></html>`)
	if res := Resolve(a, edited); res.Outcome != StructureChanged {
		t.Errorf("Resolve(edited tree) outcome = %v, want structure-changed", res.Outcome)
	}

	// Same shape but shorter text: offsets run past the node data.
	short := parseChapter(t, `<html><body>
<p>Al</p>
<p>So she was considering, <i>x</i>, y</p>
</body></html>`)
	if res := Resolve(a, short); res.Outcome != StructureChanged {
		t.Errorf("Resolve(short tree) outcome = %v, want structure-changed", res.Outcome)
	}
}

package toc

import (
	"reflect"
	"strings"
	"testing"
)

func sampleTree() []Node {
	return []Node{
		{ID: "navId-1", Title: "Chapter 1", Href: "ch1.xhtml"},
		{ID: "navId-2", Title: "Chapter 2", Href: "ch2.xhtml", Children: []Node{
			{ID: "navId-3", Title: "Section 2.1", Href: "ch2.xhtml#s1"},
		}},
		{ID: "navId-4", Title: "Chapter 3", Href: "ch3.xhtml"},
	}
}

func TestMerge(t *testing.T) {
	tree := sampleTree()
	original := sampleTree()

	got := Merge(tree, map[string]string{"navId-2": "Mocked Chapter 2"})

	if got[1].Title != "Mocked Chapter 2" {
		t.Errorf("matched node title = %q, want %q", got[1].Title, "Mocked Chapter 2")
	}
	if got[0].Title != "Chapter 1" || got[2].Title != "Chapter 3" {
		t.Errorf("sibling titles changed: %q, %q", got[0].Title, got[2].Title)
	}
	if got[1].Children[0].Title != "Section 2.1" {
		t.Errorf("child title changed: %q", got[1].Children[0].Title)
	}
	if got[1].Href != "ch2.xhtml" || got[1].ID != "navId-2" {
		t.Errorf("non-title fields changed: %+v", got[1])
	}
	if !reflect.DeepEqual(tree, original) {
		t.Error("Merge modified its input tree")
	}
}

func TestMergeNestedMatch(t *testing.T) {
	got := Merge(sampleTree(), map[string]string{"navId-3": "Renamed Section"})
	if got[1].Children[0].Title != "Renamed Section" {
		t.Errorf("nested title = %q, want %q", got[1].Children[0].Title, "Renamed Section")
	}
}

func TestMergeUnmatchedEntriesIgnored(t *testing.T) {
	tree := sampleTree()
	got := Merge(tree, map[string]string{"navId-99": "Nowhere"})
	if !reflect.DeepEqual(got, tree) {
		t.Errorf("unmatched mapping changed the tree: %+v", got)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, map[string]string{"x": "y"}); got != nil {
		t.Errorf("Merge(nil) = %v, want nil", got)
	}
}

const navDoc = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
<nav epub:type="landmarks"><ol><li><a href="cover.xhtml">Cover</a></li></ol></nav>
<nav epub:type="toc">
  <ol>
    <li><a href="ch1.xhtml">Chapter 1</a></li>
    <li><a href="ch2.xhtml">Chapter 2</a>
      <ol>
        <li><a href="ch2.xhtml#s1">Section 2.1</a></li>
      </ol>
    </li>
    <li><a id="epilogue" href="epi.xhtml">Epilogue</a></li>
  </ol>
</nav>
</body>
</html>`

func TestParseNav(t *testing.T) {
	tree, err := ParseNav(strings.NewReader(navDoc))
	if err != nil {
		t.Fatalf("ParseNav() error: %v", err)
	}

	want := []Node{
		{ID: "navId-1", Title: "Chapter 1", Href: "ch1.xhtml"},
		{ID: "navId-2", Title: "Chapter 2", Href: "ch2.xhtml", Children: []Node{
			{ID: "navId-3", Title: "Section 2.1", Href: "ch2.xhtml#s1"},
		}},
		{ID: "epilogue", Title: "Epilogue", Href: "epi.xhtml"},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("ParseNav() = %+v, want %+v", tree, want)
	}
}

func TestParseNavStableIDs(t *testing.T) {
	a, err := ParseNav(strings.NewReader(navDoc))
	if err != nil {
		t.Fatalf("ParseNav() error: %v", err)
	}
	b, err := ParseNav(strings.NewReader(navDoc))
	if err != nil {
		t.Fatalf("ParseNav() error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("reparsing the same document yielded different IDs")
	}
}

func TestParseNavNoNav(t *testing.T) {
	if _, err := ParseNav(strings.NewReader("<html><body><p>hi</p></body></html>")); err == nil {
		t.Error("expected error for document without nav")
	}
}

func TestCount(t *testing.T) {
	if got := Count(sampleTree()); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
}

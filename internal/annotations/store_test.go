package annotations

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/net/html"

	"github.com/fossabot/versicle/internal/anchor"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/storage/mocks"
)

const chapterHTML = `<html><body><div>
<p>Alice was beginning to get very tired of sitting by her sister.</p>
<p>Once or twice she had peeped into the book.</p>
</div></body></html>`

func parseChapter(t *testing.T) *html.Node {
	t.Helper()
	tree, err := html.Parse(strings.NewReader(chapterHTML))
	if err != nil {
		t.Fatalf("failed to parse chapter: %v", err)
	}
	return tree
}

func findTextNode(root *html.Node, substr string) *html.Node {
	if root.Type == html.TextNode && strings.Contains(root.Data, substr) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findTextNode(c, substr); n != nil {
			return n
		}
	}
	return nil
}

func validSelection(t *testing.T) anchor.Selection {
	t.Helper()
	tree := parseChapter(t)
	node := findTextNode(tree, "Alice was beginning")
	if node == nil {
		t.Fatal("text node not found")
	}
	return anchor.Selection{
		ChapterID:   "ch-1",
		Start:       node,
		End:         node,
		StartOffset: 1,
		EndOffset:   6,
	}
}

func fastOptions() Options {
	return Options{PersistRetries: 3, PersistBackoff: time.Millisecond}
}

func openStore(t *testing.T, backend storage.AnnotationStore) *Store {
	t.Helper()
	s, err := Open(context.Background(), "book-1", backend, fastOptions(), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s
}

func TestOpenLoadsExisting(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)

	older := storage.AnnotationRecord{
		ID: "a-1", BookID: "book-1", ChapterID: "ch-1",
		Path: []int{1, 0, 0}, StartOffset: 0, EndOffset: 5,
		Kind: "highlight", Color: "yellow", Excerpt: "Alice",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := storage.AnnotationRecord{
		ID: "a-2", BookID: "book-1", ChapterID: "ch-1",
		Path: []int{1, 0, 0}, StartOffset: 10, EndOffset: 10,
		Kind: "note", Note: "check this",
		CreatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").
		Return([]storage.AnnotationRecord{newer, older}, nil)

	s := openStore(t, backend)
	defer s.Close()

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("List() returned %d annotations, want 2", len(got))
	}
	if got[0].ID != "a-1" || got[1].ID != "a-2" {
		t.Errorf("List() order = %s, %s; want a-1, a-2", got[0].ID, got[1].ID)
	}
	if got[0].Anchor.Path == nil || got[0].Anchor.StartOffset != 0 {
		t.Errorf("anchor not restored: %+v", got[0].Anchor)
	}
}

func TestAddPersistsAsync(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	var saved *storage.AnnotationRecord
	backend.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *storage.AnnotationRecord) error {
			saved = rec
			return nil
		})

	s := openStore(t, backend)

	ann, err := s.Add(validSelection(t), KindHighlight, "yellow", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if ann.ID == "" {
		t.Error("annotation has no ID")
	}
	if ann.Excerpt != "lice " {
		t.Errorf("excerpt = %q, want %q", ann.Excerpt, "lice ")
	}

	s.Close() // drains the persistence queue

	if saved == nil {
		t.Fatal("annotation was not persisted")
	}
	if saved.ID != ann.ID || saved.Color != "yellow" || saved.Kind != "highlight" {
		t.Errorf("persisted record = %+v", saved)
	}
}

func TestAddInvalidSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	s := openStore(t, backend)
	defer s.Close()

	_, err := s.Add(anchor.Selection{ChapterID: "ch-1"}, KindHighlight, "yellow", "")
	if !errors.Is(err, anchor.ErrInvalidSelection) {
		t.Errorf("Add() error = %v, want ErrInvalidSelection", err)
	}
	if len(s.List()) != 0 {
		t.Error("invalid selection produced a local annotation")
	}
}

func TestUpdateNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)
	backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	s := openStore(t, backend)

	ann, err := s.Add(validSelection(t), KindNote, "", "first draft")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.UpdateNote(ann.ID, "final text"); err != nil {
		t.Fatalf("UpdateNote() error: %v", err)
	}

	got, err := s.Get(ann.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Note != "final text" {
		t.Errorf("note = %q, want %q", got.Note, "final text")
	}

	if err := s.UpdateNote("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateNote(missing) = %v, want ErrNotFound", err)
	}
	s.Close()
}

func TestRemoveAndReAddNewID(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)
	backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	backend.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	s := openStore(t, backend)

	sel := validSelection(t)
	first, err := s.Add(sel, KindHighlight, "green", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.Remove(first.ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	second, err := s.Add(sel, KindHighlight, "green", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if second.ID == first.ID {
		t.Error("annotation ID was reused")
	}

	list := s.List()
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("List() = %+v", list)
	}
	s.Close()
}

func TestRemoveUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	s := openStore(t, backend)
	defer s.Close()

	if err := s.Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrNotFound", err)
	}
}

func TestMutateAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	s := openStore(t, backend)
	s.Close()

	if _, err := s.Add(validSelection(t), KindHighlight, "yellow", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Add() after Close = %v, want ErrClosed", err)
	}
	if _, err := s.AddNoteAt(validSelection(t), "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("AddNoteAt() after Close = %v, want ErrClosed", err)
	}
	if err := s.UpdateNote("any", "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("UpdateNote() after Close = %v, want ErrClosed", err)
	}
	if err := s.Remove("any"); !errors.Is(err, ErrClosed) {
		t.Errorf("Remove() after Close = %v, want ErrClosed", err)
	}

	// A second Close stays a no-op.
	s.Close()
}

func TestPersistRetriesWithBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	transient := errors.New("db locked")
	gomock.InOrder(
		backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(transient),
		backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(transient),
		backend.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
	)

	s := openStore(t, backend)

	if _, err := s.Add(validSelection(t), KindHighlight, "blue", ""); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	s.Close()
}

func TestPersistFailureKeepsLocalState(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)
	backend.EXPECT().Save(gomock.Any(), gomock.Any()).
		Return(errors.New("backend gone")).Times(3)

	s := openStore(t, backend)

	ann, err := s.Add(validSelection(t), KindHighlight, "pink", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	s.Close()

	// Local state is authoritative even after retries ran out.
	if _, err := s.Get(ann.ID); err != nil {
		t.Errorf("annotation lost after persistence failure: %v", err)
	}
}

func TestPersistOrderFIFO(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockAnnotationStore(ctrl)
	backend.EXPECT().ListByBook(gomock.Any(), "book-1").Return(nil, nil)

	var order []string
	backend.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *storage.AnnotationRecord) error {
			order = append(order, rec.Note)
			return nil
		}).Times(2)

	s := openStore(t, backend)

	ann, err := s.Add(validSelection(t), KindNote, "", "v1")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.UpdateNote(ann.ID, "v2"); err != nil {
		t.Fatalf("UpdateNote() error: %v", err)
	}
	s.Close()

	if len(order) != 2 || order[0] != "v1" || order[1] != "v2" {
		t.Errorf("persist order = %v, want [v1 v2]", order)
	}
}

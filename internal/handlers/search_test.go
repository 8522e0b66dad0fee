package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fossabot/versicle/internal/search"
)

type stubSearcher struct {
	results []search.Result
	err     error
	indexed map[string][]search.Chapter
	removed []string
	query   string
	bookID  string
	lastK   int
}

func (s *stubSearcher) IndexBook(ctx context.Context, bookID string, chapters []search.Chapter) error {
	if s.indexed == nil {
		s.indexed = map[string][]search.Chapter{}
	}
	s.indexed[bookID] = chapters
	return s.err
}

func (s *stubSearcher) RemoveBook(ctx context.Context, bookID string) error {
	s.removed = append(s.removed, bookID)
	return s.err
}

func (s *stubSearcher) Search(ctx context.Context, query, bookID string, k int) ([]search.Result, error) {
	s.query, s.bookID, s.lastK = query, bookID, k
	return s.results, s.err
}

func searchRouter(h *SearchHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/search", h.Search)
	r.Post("/api/books/{bookID}/index", h.Index)
	r.Delete("/api/books/{bookID}/index", h.RemoveIndex)
	return r
}

func TestSearchHandler_Search(t *testing.T) {
	engine := &stubSearcher{results: []search.Result{
		{BookID: "b1", BookTitle: "Alice in Wonderland", ChapterID: "ch2", ChunkIndex: 3, Snippet: "down the rabbit hole", Score: 0.91},
	}}
	handler := NewSearchHandler(engine)

	body := `{"query":"rabbit hole","bookId":"b1","limit":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	searchRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if engine.query != "rabbit hole" || engine.bookID != "b1" || engine.lastK != 5 {
		t.Errorf("engine called with query=%q bookID=%q k=%d", engine.query, engine.bookID, engine.lastK)
	}

	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	hit := resp.Results[0]
	if hit.BookTitle != "Alice in Wonderland" || hit.Snippet != "down the rabbit hole" {
		t.Errorf("unexpected hit: %+v", hit)
	}
}

func TestSearchHandler_Search_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":"  "}`},
		{"not json", `:::`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSearchHandler(&stubSearcher{})

			req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			searchRouter(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSearchHandler_Search_EngineError(t *testing.T) {
	handler := NewSearchHandler(&stubSearcher{err: errors.New("qdrant unavailable")})

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"anything"}`))
	rec := httptest.NewRecorder()
	searchRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestSearchHandler_Index(t *testing.T) {
	engine := &stubSearcher{}
	handler := NewSearchHandler(engine)

	body := `{"chapters":[
		{"id":"ch1","text":"Plain chapter text."},
		{"id":"ch2","markdown":"# Heading\n\nBody paragraph."}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/b1/index", strings.NewReader(body))
	rec := httptest.NewRecorder()
	searchRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	chapters := engine.indexed["b1"]
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Text != "Plain chapter text." {
		t.Errorf("first chapter text = %q", chapters[0].Text)
	}
	if chapters[1].Text != "Heading\n\nBody paragraph." {
		t.Errorf("markdown chapter text = %q, want extracted plain text", chapters[1].Text)
	}
}

func TestSearchHandler_Index_MissingChapterID(t *testing.T) {
	handler := NewSearchHandler(&stubSearcher{})

	body := `{"chapters":[{"text":"no id"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/b1/index", strings.NewReader(body))
	rec := httptest.NewRecorder()
	searchRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchHandler_RemoveIndex(t *testing.T) {
	engine := &stubSearcher{}
	handler := NewSearchHandler(engine)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/b1/index", nil)
	rec := httptest.NewRecorder()
	searchRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(engine.removed) != 1 || engine.removed[0] != "b1" {
		t.Errorf("removed = %v, want [b1]", engine.removed)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/storage/mocks"
)

func TestLibraryHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	books := mocks.NewMockBookStore(ctrl)
	positions := mocks.NewMockPositionStore(ctrl)

	added := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	books.EXPECT().ListAll(gomock.Any()).Return([]storage.BookRecord{
		{ID: "b1", Title: "Alice in Wonderland", Author: "Lewis Carroll", AddedAt: added, LastRead: added.Add(time.Hour)},
		{ID: "b2", Title: "Moby Dick", AddedAt: added},
	}, nil)
	positions.EXPECT().Load(gomock.Any(), "b1").Return(&storage.PositionRecord{
		BookID:  "b1",
		Locator: "epubcfi(/6/4!/4/2:10)",
		Percent: 37.5,
	}, nil)
	positions.EXPECT().Load(gomock.Any(), "b2").Return(nil, storage.ErrNotFound)

	handler := NewLibraryHandler(books, positions)

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp LibraryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Books) != 2 {
		t.Fatalf("got %d books, want 2", len(resp.Books))
	}

	first := resp.Books[0]
	if first.ID != "b1" || first.Title != "Alice in Wonderland" {
		t.Errorf("unexpected first book: %+v", first)
	}
	if first.Locator != "epubcfi(/6/4!/4/2:10)" || first.Percent != 37.5 {
		t.Errorf("continue-reading missing: locator=%q percent=%v", first.Locator, first.Percent)
	}
	if first.LastRead == "" {
		t.Error("expected lastRead to be set")
	}

	second := resp.Books[1]
	if second.Locator != "" || second.Percent != 0 {
		t.Errorf("book without position should have empty continue-reading, got %+v", second)
	}
	if second.LastRead != "" {
		t.Errorf("unread book should have empty lastRead, got %q", second.LastRead)
	}
}

func TestLibraryHandler_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	books := mocks.NewMockBookStore(ctrl)
	positions := mocks.NewMockPositionStore(ctrl)

	books.EXPECT().Get(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	handler := NewLibraryHandler(books, positions)

	r := chi.NewRouter()
	r.Get("/api/library/{bookID}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/library/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLibraryHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	books := mocks.NewMockBookStore(ctrl)
	positions := mocks.NewMockPositionStore(ctrl)

	books.EXPECT().Delete(gomock.Any(), "b1").Return(nil)

	handler := NewLibraryHandler(books, positions)

	r := chi.NewRouter()
	r.Delete("/api/library/{bookID}", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/library/b1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

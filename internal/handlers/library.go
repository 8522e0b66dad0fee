package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/progress"
	"github.com/fossabot/versicle/internal/storage"
)

// LibraryHandler serves the book library and continue-reading entry points.
type LibraryHandler struct {
	books     storage.BookStore
	positions storage.PositionStore
}

// BookResponse is the JSON representation of one library book.
type BookResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author,omitempty"`
	AddedAt  string  `json:"addedAt"`
	LastRead string  `json:"lastRead,omitempty"`
	Locator  string  `json:"locator,omitempty"`
	Percent  float64 `json:"percent"`
}

// LibraryResponse is the JSON response for the library listing.
type LibraryResponse struct {
	Books []BookResponse `json:"books"`
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(books storage.BookStore, positions storage.PositionStore) *LibraryHandler {
	return &LibraryHandler{books: books, positions: positions}
}

// List handles GET /api/library requests. Each book carries its last persisted
// reading position so the client can offer continue-reading without a second
// round trip.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	records, err := h.books.ListAll(r.Context())
	if err != nil {
		logger.Error("failed to list books", "error", err)
		http.Error(w, "failed to list books", http.StatusInternalServerError)
		return
	}

	resp := LibraryResponse{Books: make([]BookResponse, 0, len(records))}
	for _, rec := range records {
		book := BookResponse{
			ID:      rec.ID,
			Title:   rec.Title,
			Author:  rec.Author,
			AddedAt: rec.AddedAt.UTC().Format(time.RFC3339),
		}
		if !rec.LastRead.IsZero() {
			book.LastRead = rec.LastRead.UTC().Format(time.RFC3339)
		}

		pos, ok, err := progress.ContinueReading(r.Context(), h.positions, rec.ID)
		if err != nil {
			logger.Error("failed to load reading position", "book_id", rec.ID, "error", err)
			http.Error(w, "failed to load reading position", http.StatusInternalServerError)
			return
		}
		if ok {
			book.Locator = pos.Locator
			book.Percent = pos.Percent
		}

		resp.Books = append(resp.Books, book)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode library response", "error", err)
	}
}

// Get handles GET /api/library/{bookID} requests.
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	rec, err := h.books.Get(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to load book", "book_id", bookID, "error", err)
		http.Error(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	book := BookResponse{
		ID:      rec.ID,
		Title:   rec.Title,
		Author:  rec.Author,
		AddedAt: rec.AddedAt.UTC().Format(time.RFC3339),
	}
	if !rec.LastRead.IsZero() {
		book.LastRead = rec.LastRead.UTC().Format(time.RFC3339)
	}
	if pos, ok, err := progress.ContinueReading(r.Context(), h.positions, rec.ID); err == nil && ok {
		book.Locator = pos.Locator
		book.Percent = pos.Percent
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(book); err != nil {
		logger.Error("failed to encode book response", "error", err)
	}
}

// Delete handles DELETE /api/library/{bookID} requests. Dependent annotations,
// positions, and lexicon rules are removed by the database's foreign keys.
func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	if err := h.books.Delete(r.Context(), bookID); err != nil {
		logger.Error("failed to delete book", "book_id", bookID, "error", err)
		http.Error(w, "failed to delete book", http.StatusInternalServerError)
		return
	}

	logger.Info("book removed from library", "book_id", bookID)
	w.WriteHeader(http.StatusNoContent)
}

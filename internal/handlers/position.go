package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/location"
	"github.com/fossabot/versicle/internal/storage"
)

// PositionHandler serves reading-position sync for remote clients. In-process
// reader sessions debounce their own writes; this endpoint is for clients
// that track position on their side and push the settled value.
type PositionHandler struct {
	positions storage.PositionStore
	history   storage.HistoryStore
	books     storage.BookStore
}

// SavePositionRequest is the JSON request for a position write. ReadRange is
// an optional range descriptor merged into the book's reading history.
type SavePositionRequest struct {
	Locator   string `json:"locator"`
	ReadRange string `json:"readRange,omitempty"`
}

// PositionResponse is the JSON representation of a persisted position.
type PositionResponse struct {
	BookID    string  `json:"bookId"`
	Locator   string  `json:"locator"`
	Percent   float64 `json:"percent"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewPositionHandler creates a new position handler. Percent is derived from
// the locator and the book's recorded spine extents; books without extents
// persist percent 0.
func NewPositionHandler(positions storage.PositionStore, history storage.HistoryStore, books storage.BookStore) *PositionHandler {
	return &PositionHandler{positions: positions, history: history, books: books}
}

// Save handles PUT /api/library/{bookID}/position requests.
func (h *PositionHandler) Save(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	var req SavePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	loc, err := location.Parse(req.Locator)
	if err != nil {
		http.Error(w, "invalid locator", http.StatusBadRequest)
		return
	}

	book, err := h.books.Get(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to load book", "book_id", bookID, "error", err)
		http.Error(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	percent := location.Fraction(loc, book.Extents) * 100
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	rec := storage.PositionRecord{
		BookID:    bookID,
		Locator:   req.Locator,
		Percent:   percent,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.positions.Save(r.Context(), &rec); err != nil {
		logger.Error("failed to save position", "book_id", bookID, "error", err)
		http.Error(w, "failed to save position", http.StatusInternalServerError)
		return
	}

	if req.ReadRange != "" {
		ranges, err := h.history.LoadRanges(r.Context(), bookID)
		if err != nil {
			logger.Warn("failed to load reading history", "book_id", bookID, "error", err)
		} else {
			merged := location.MergeRanges(ranges, req.ReadRange)
			if err := h.history.SaveRanges(r.Context(), bookID, merged); err != nil {
				logger.Warn("failed to save reading history", "book_id", bookID, "error", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(PositionResponse{
		BookID:    rec.BookID,
		Locator:   rec.Locator,
		Percent:   rec.Percent,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}); err != nil {
		logger.Error("failed to encode position response", "error", err)
	}
}

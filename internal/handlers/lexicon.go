package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/tts"
)

// LexiconHandler serves pronunciation rule management for the TTS pipeline.
type LexiconHandler struct {
	lexicon storage.LexiconStore
}

// LexiconRulePayload is the JSON representation of one pronunciation rule.
type LexiconRulePayload struct {
	ID            string `json:"id,omitempty"`
	BookID        string `json:"bookId,omitempty"`
	Original      string `json:"original"`
	Replacement   string `json:"replacement"`
	IsRegex       bool   `json:"isRegex"`
	CaseSensitive bool   `json:"caseSensitive"`
	Position      int    `json:"position"`
}

// LexiconListResponse is the JSON response for the rule listing.
type LexiconListResponse struct {
	Rules []LexiconRulePayload `json:"rules"`
}

// LexiconImportResponse is the JSON response for a CSV import.
type LexiconImportResponse struct {
	Imported int `json:"imported"`
}

// NewLexiconHandler creates a new lexicon handler.
func NewLexiconHandler(lexicon storage.LexiconStore) *LexiconHandler {
	return &LexiconHandler{lexicon: lexicon}
}

// List handles GET /api/lexicon requests. The optional book query parameter
// scopes the listing; global rules are always included, ahead of book rules.
func (h *LexiconHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := r.URL.Query().Get("book")

	records, err := h.lexicon.ListForBook(r.Context(), bookID)
	if err != nil {
		logger.Error("failed to list lexicon rules", "book_id", bookID, "error", err)
		http.Error(w, "failed to list lexicon rules", http.StatusInternalServerError)
		return
	}

	resp := LexiconListResponse{Rules: make([]LexiconRulePayload, 0, len(records))}
	for _, rec := range records {
		resp.Rules = append(resp.Rules, LexiconRulePayload{
			ID:            rec.ID,
			BookID:        rec.BookID,
			Original:      rec.Original,
			Replacement:   rec.Replacement,
			IsRegex:       rec.IsRegex,
			CaseSensitive: rec.CaseSensitive,
			Position:      rec.Position,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode lexicon response", "error", err)
	}
}

// Create handles POST /api/lexicon requests.
func (h *LexiconHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req LexiconRulePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Original == "" {
		http.Error(w, "original is required", http.StatusBadRequest)
		return
	}
	if req.IsRegex {
		if _, err := regexp.Compile(req.Original); err != nil {
			http.Error(w, "original is not a valid regular expression", http.StatusBadRequest)
			return
		}
	}

	rec := storage.LexiconRuleRecord{
		ID:            uuid.NewString(),
		BookID:        req.BookID,
		Original:      req.Original,
		Replacement:   req.Replacement,
		IsRegex:       req.IsRegex,
		CaseSensitive: req.CaseSensitive,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.lexicon.Save(r.Context(), &rec); err != nil {
		logger.Error("failed to save lexicon rule", "error", err)
		http.Error(w, "failed to save lexicon rule", http.StatusInternalServerError)
		return
	}

	logger.Info("lexicon rule created", "rule_id", rec.ID, "book_id", rec.BookID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(LexiconRulePayload{
		ID:            rec.ID,
		BookID:        rec.BookID,
		Original:      rec.Original,
		Replacement:   rec.Replacement,
		IsRegex:       rec.IsRegex,
		CaseSensitive: rec.CaseSensitive,
		Position:      rec.Position,
	}); err != nil {
		logger.Error("failed to encode lexicon response", "error", err)
	}
}

// Delete handles DELETE /api/lexicon/{ruleID} requests.
func (h *LexiconHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	ruleID := chi.URLParam(r, "ruleID")

	if err := h.lexicon.Delete(r.Context(), ruleID); err != nil {
		logger.Error("failed to delete lexicon rule", "rule_id", ruleID, "error", err)
		http.Error(w, "failed to delete lexicon rule", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/lexicon/import requests. The request body is a CSV
// document; the parsed rules replace the existing rule list for the scope
// given by the book query parameter.
func (h *LexiconHandler) Import(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := r.URL.Query().Get("book")

	records, err := tts.ParseLexiconCSV(r.Body)
	if err != nil {
		http.Error(w, "invalid CSV document", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	for i := range records {
		records[i].ID = uuid.NewString()
		records[i].BookID = bookID
		records[i].Position = i
		records[i].CreatedAt = now
	}

	if err := h.lexicon.ReplaceAll(r.Context(), bookID, records); err != nil {
		logger.Error("failed to import lexicon rules", "book_id", bookID, "error", err)
		http.Error(w, "failed to import lexicon rules", http.StatusInternalServerError)
		return
	}

	logger.Info("lexicon rules imported", "book_id", bookID, "count", len(records))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LexiconImportResponse{Imported: len(records)}); err != nil {
		logger.Error("failed to encode import response", "error", err)
	}
}

// Export handles GET /api/lexicon/export requests, returning the rule list for
// the scope as a CSV document.
func (h *LexiconHandler) Export(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := r.URL.Query().Get("book")

	records, err := h.lexicon.ListForBook(r.Context(), bookID)
	if err != nil {
		logger.Error("failed to list lexicon rules", "book_id", bookID, "error", err)
		http.Error(w, "failed to list lexicon rules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="lexicon.csv"`)
	if err := tts.WriteLexiconCSV(w, records); err != nil {
		logger.Error("failed to write lexicon CSV", "error", err)
	}
}

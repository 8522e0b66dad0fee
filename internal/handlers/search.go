package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/content"
	"github.com/fossabot/versicle/internal/search"
)

// Searcher indexes book content and answers semantic queries over it.
type Searcher interface {
	IndexBook(ctx context.Context, bookID string, chapters []search.Chapter) error
	RemoveBook(ctx context.Context, bookID string) error
	Search(ctx context.Context, query, bookID string, k int) ([]search.Result, error)
}

// SearchHandler serves semantic library search.
type SearchHandler struct {
	engine Searcher
}

// SearchRequest is the JSON request for a search query.
type SearchRequest struct {
	Query  string `json:"query"`
	BookID string `json:"bookId,omitempty"` // Empty searches the whole library
	Limit  int    `json:"limit,omitempty"`
}

// SearchResultPayload is the JSON representation of one hit.
type SearchResultPayload struct {
	BookID     string  `json:"bookId"`
	BookTitle  string  `json:"bookTitle,omitempty"`
	ChapterID  string  `json:"chapterId"`
	ChunkIndex int     `json:"chunkIndex"`
	Snippet    string  `json:"snippet"`
	Score      float32 `json:"score"`
}

// SearchResponse is the JSON response for a search query.
type SearchResponse struct {
	Results []SearchResultPayload `json:"results"`
}

// IndexChapterPayload is one chapter of content submitted for indexing. Text
// is used as-is when present, otherwise Markdown is converted to plain text.
type IndexChapterPayload struct {
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// IndexRequest is the JSON request for (re)indexing a book.
type IndexRequest struct {
	Chapters []IndexChapterPayload `json:"chapters"`
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(engine Searcher) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/search requests.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	results, err := h.engine.Search(r.Context(), req.Query, req.BookID, req.Limit)
	if err != nil {
		logger.Error("search failed", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	resp := SearchResponse{Results: make([]SearchResultPayload, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, SearchResultPayload{
			BookID:     res.BookID,
			BookTitle:  res.BookTitle,
			ChapterID:  res.ChapterID,
			ChunkIndex: res.ChunkIndex,
			Snippet:    res.Snippet,
			Score:      res.Score,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode search response", "error", err)
	}
}

// Index handles POST /api/books/{bookID}/index requests.
func (h *SearchHandler) Index(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	chapters := make([]search.Chapter, 0, len(req.Chapters))
	for _, ch := range req.Chapters {
		if ch.ID == "" {
			http.Error(w, "chapter id is required", http.StatusBadRequest)
			return
		}
		text := ch.Text
		if text == "" && ch.Markdown != "" {
			extracted, err := content.ExtractMarkdown([]byte(ch.Markdown))
			if err != nil {
				logger.Error("failed to extract markdown", "chapter_id", ch.ID, "error", err)
				http.Error(w, "failed to extract chapter text", http.StatusBadRequest)
				return
			}
			text = extracted
		}
		chapters = append(chapters, search.Chapter{ID: ch.ID, Text: text})
	}

	if err := h.engine.IndexBook(r.Context(), bookID, chapters); err != nil {
		logger.Error("failed to index book", "book_id", bookID, "error", err)
		http.Error(w, "failed to index book", http.StatusInternalServerError)
		return
	}

	logger.Info("book indexed", "book_id", bookID, "chapters", len(chapters))
	w.WriteHeader(http.StatusNoContent)
}

// RemoveIndex handles DELETE /api/books/{bookID}/index requests.
func (h *SearchHandler) RemoveIndex(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	if err := h.engine.RemoveBook(r.Context(), bookID); err != nil {
		logger.Error("failed to remove book index", "book_id", bookID, "error", err)
		http.Error(w, "failed to remove book index", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

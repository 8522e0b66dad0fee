package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/storage"
)

// AnnotationsHandler serves highlight and note persistence for clients.
type AnnotationsHandler struct {
	annotations storage.AnnotationStore
	books       storage.BookStore
}

// AnnotationPayload is the JSON representation of one annotation.
type AnnotationPayload struct {
	ID          string `json:"id,omitempty"`
	BookID      string `json:"bookId"`
	ChapterID   string `json:"chapterId"`
	Path        []int  `json:"path"`
	EndPath     []int  `json:"endPath,omitempty"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	Kind        string `json:"kind"`
	Color       string `json:"color,omitempty"`
	Note        string `json:"note,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// AnnotationListResponse is the JSON response for the annotation listing.
type AnnotationListResponse struct {
	Annotations []AnnotationPayload `json:"annotations"`
}

// UpdateNoteRequest is the JSON request for updating an annotation's note.
type UpdateNoteRequest struct {
	Note string `json:"note"`
}

// NewAnnotationsHandler creates a new annotations handler.
func NewAnnotationsHandler(annotations storage.AnnotationStore, books storage.BookStore) *AnnotationsHandler {
	return &AnnotationsHandler{annotations: annotations, books: books}
}

// List handles GET /api/books/{bookID}/annotations requests.
func (h *AnnotationsHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	records, err := h.annotations.ListByBook(r.Context(), bookID)
	if err != nil {
		logger.Error("failed to list annotations", "book_id", bookID, "error", err)
		http.Error(w, "failed to list annotations", http.StatusInternalServerError)
		return
	}

	resp := AnnotationListResponse{Annotations: make([]AnnotationPayload, 0, len(records))}
	for _, rec := range records {
		resp.Annotations = append(resp.Annotations, toPayload(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode annotations response", "error", err)
	}
}

// Create handles POST /api/books/{bookID}/annotations requests.
func (h *AnnotationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")

	var req AnnotationPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateAnnotation(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.books.Get(r.Context(), bookID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to load book", "book_id", bookID, "error", err)
		http.Error(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	rec := storage.AnnotationRecord{
		ID:          uuid.NewString(),
		BookID:      bookID,
		ChapterID:   req.ChapterID,
		Path:        req.Path,
		EndPath:     req.EndPath,
		StartOffset: req.StartOffset,
		EndOffset:   req.EndOffset,
		Kind:        req.Kind,
		Color:       req.Color,
		Note:        req.Note,
		Excerpt:     req.Excerpt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.annotations.Save(r.Context(), &rec); err != nil {
		logger.Error("failed to save annotation", "book_id", bookID, "error", err)
		http.Error(w, "failed to save annotation", http.StatusInternalServerError)
		return
	}

	logger.Info("annotation created", "annotation_id", rec.ID, "book_id", bookID, "kind", rec.Kind)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toPayload(rec)); err != nil {
		logger.Error("failed to encode annotation response", "error", err)
	}
}

// UpdateNote handles PUT /api/books/{bookID}/annotations/{annotationID}/note
// requests.
func (h *AnnotationsHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")
	annotationID := chi.URLParam(r, "annotationID")

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, ok := h.find(w, r, bookID, annotationID)
	if !ok {
		return
	}

	rec.Note = req.Note
	if err := h.annotations.Save(r.Context(), rec); err != nil {
		logger.Error("failed to update annotation", "annotation_id", annotationID, "error", err)
		http.Error(w, "failed to update annotation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toPayload(*rec)); err != nil {
		logger.Error("failed to encode annotation response", "error", err)
	}
}

// Delete handles DELETE /api/books/{bookID}/annotations/{annotationID}
// requests.
func (h *AnnotationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())
	bookID := chi.URLParam(r, "bookID")
	annotationID := chi.URLParam(r, "annotationID")

	if _, ok := h.find(w, r, bookID, annotationID); !ok {
		return
	}

	if err := h.annotations.Delete(r.Context(), annotationID); err != nil {
		logger.Error("failed to delete annotation", "annotation_id", annotationID, "error", err)
		http.Error(w, "failed to delete annotation", http.StatusInternalServerError)
		return
	}

	logger.Info("annotation deleted", "annotation_id", annotationID, "book_id", bookID)
	w.WriteHeader(http.StatusNoContent)
}

// find loads the annotation and verifies it belongs to the book. It writes the
// error response itself and reports success through the second return value.
func (h *AnnotationsHandler) find(w http.ResponseWriter, r *http.Request, bookID, annotationID string) (*storage.AnnotationRecord, bool) {
	logger := contextutil.LoggerFromContext(r.Context())

	records, err := h.annotations.ListByBook(r.Context(), bookID)
	if err != nil {
		logger.Error("failed to list annotations", "book_id", bookID, "error", err)
		http.Error(w, "failed to list annotations", http.StatusInternalServerError)
		return nil, false
	}
	for i := range records {
		if records[i].ID == annotationID {
			return &records[i], true
		}
	}
	http.Error(w, "annotation not found", http.StatusNotFound)
	return nil, false
}

func validateAnnotation(req *AnnotationPayload) error {
	if req.ChapterID == "" {
		return errors.New("chapterId is required")
	}
	if len(req.Path) == 0 {
		return errors.New("path is required")
	}
	if req.StartOffset < 0 || req.EndOffset < 0 {
		return errors.New("offsets must be non-negative")
	}
	if len(req.EndPath) == 0 && req.EndOffset < req.StartOffset {
		return errors.New("endOffset must not precede startOffset")
	}
	switch req.Kind {
	case "highlight":
		// Zero-width anchors are reserved for note markers.
		if len(req.EndPath) == 0 && req.StartOffset == req.EndOffset {
			return errors.New("highlights must span text")
		}
	case "note":
	default:
		return errors.New("kind must be highlight or note")
	}
	return nil
}

func toPayload(rec storage.AnnotationRecord) AnnotationPayload {
	return AnnotationPayload{
		ID:          rec.ID,
		BookID:      rec.BookID,
		ChapterID:   rec.ChapterID,
		Path:        rec.Path,
		EndPath:     rec.EndPath,
		StartOffset: rec.StartOffset,
		EndOffset:   rec.EndOffset,
		Kind:        rec.Kind,
		Color:       rec.Color,
		Note:        rec.Note,
		Excerpt:     rec.Excerpt,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/tts"
)

// TTSHandler serves spoken-text previews of the segmentation pipeline.
type TTSHandler struct {
	segmenter *tts.Segmenter
	lexicon   storage.LexiconStore
}

// TTSPreviewRequest is the JSON request for a preview. BookID scopes which
// lexicon rules apply; empty applies only the global rules.
type TTSPreviewRequest struct {
	Text   string `json:"text"`
	BookID string `json:"bookId,omitempty"`
}

// TTSUnitPayload is one sentence unit of the preview. Spoken is empty when the
// sanitizer drops the whole sentence.
type TTSUnitPayload struct {
	Text   string `json:"text"`
	Spoken string `json:"spoken"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// TTSPreviewResponse is the JSON response for a preview.
type TTSPreviewResponse struct {
	Units []TTSUnitPayload `json:"units"`
}

// NewTTSHandler creates a new TTS preview handler.
func NewTTSHandler(segmenter *tts.Segmenter, lexicon storage.LexiconStore) *TTSHandler {
	return &TTSHandler{segmenter: segmenter, lexicon: lexicon}
}

// Preview handles POST /api/tts/preview requests. The response shows every
// segmented sentence alongside the text the speech engine would receive after
// sanitization and lexicon substitution.
func (h *TTSHandler) Preview(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req TTSPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	records, err := h.lexicon.ListForBook(r.Context(), req.BookID)
	if err != nil {
		logger.Error("failed to list lexicon rules", "book_id", req.BookID, "error", err)
		http.Error(w, "failed to list lexicon rules", http.StatusInternalServerError)
		return
	}
	rules := tts.RulesFromRecords(records)

	units := h.segmenter.Segment(req.Text)
	resp := TTSPreviewResponse{Units: make([]TTSUnitPayload, 0, len(units))}
	for _, u := range units {
		resp.Units = append(resp.Units, TTSUnitPayload{
			Text:   u.Text,
			Spoken: tts.ApplyLexicon(tts.Sanitize(u.Text), rules),
			Start:  u.Start,
			End:    u.End,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode preview response", "error", err)
	}
}

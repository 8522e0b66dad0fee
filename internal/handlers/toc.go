package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fossabot/versicle/internal/contextutil"
	"github.com/fossabot/versicle/internal/genai"
	"github.com/fossabot/versicle/internal/llm"
	"github.com/fossabot/versicle/internal/toc"
)

// TitleEnhancer rewrites flat chapter titles into descriptive ones.
type TitleEnhancer interface {
	EnhanceTitles(ctx context.Context, entries []genai.Entry) (map[string]string, error)
	Usage() llm.Usage
}

// TocHandler serves table-of-contents title enhancement.
type TocHandler struct {
	enhancer TitleEnhancer
}

// TocEnhanceRequest is the JSON request for a TOC enhancement. Either a parsed
// tree or a raw EPUB navigation document may be submitted.
type TocEnhanceRequest struct {
	Tree []toc.Node `json:"tree,omitempty"`
	Nav  string     `json:"nav,omitempty"`
}

// TocEnhanceResponse is the JSON response carrying the enhanced tree.
type TocEnhanceResponse struct {
	Tree  []toc.Node `json:"tree"`
	Usage llm.Usage  `json:"usage"`
}

// NewTocHandler creates a new TOC handler.
func NewTocHandler(enhancer TitleEnhancer) *TocHandler {
	return &TocHandler{enhancer: enhancer}
}

// Enhance handles POST /api/toc/enhance requests. Unenhanced titles keep
// their original text; the response tree always mirrors the input shape.
func (h *TocHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req TocEnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tree := req.Tree
	if len(tree) == 0 && req.Nav != "" {
		parsed, err := toc.ParseNav(strings.NewReader(req.Nav))
		if err != nil {
			http.Error(w, "invalid navigation document", http.StatusBadRequest)
			return
		}
		tree = parsed
	}
	if len(tree) == 0 {
		http.Error(w, "tree or nav is required", http.StatusBadRequest)
		return
	}

	var entries []genai.Entry
	toc.Walk(tree, func(n toc.Node) {
		entries = append(entries, genai.Entry{ID: n.ID, Title: n.Title})
	})

	titles, err := h.enhancer.EnhanceTitles(r.Context(), entries)
	if err != nil {
		logger.Error("failed to enhance titles", "error", err)
		http.Error(w, "failed to enhance titles", http.StatusInternalServerError)
		return
	}

	resp := TocEnhanceResponse{
		Tree:  toc.Merge(tree, titles),
		Usage: h.enhancer.Usage(),
	}

	logger.Info("toc enhanced", "entries", len(entries), "enhanced", len(titles))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode toc response", "error", err)
	}
}

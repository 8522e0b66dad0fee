package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/storage/mocks"
)

func lexiconRouter(h *LexiconHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/lexicon", h.List)
	r.Post("/api/lexicon", h.Create)
	r.Delete("/api/lexicon/{ruleID}", h.Delete)
	r.Post("/api/lexicon/import", h.Import)
	r.Get("/api/lexicon/export", h.Export)
	return r
}

func TestLexiconHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLexiconStore(ctrl)

	store.EXPECT().ListForBook(gomock.Any(), "b1").Return([]storage.LexiconRuleRecord{
		{ID: "r1", Original: "Dr.", Replacement: "Doctor", Position: 0},
		{ID: "r2", BookID: "b1", Original: "Smaug", Replacement: "Smowg", Position: 1},
	}, nil)

	handler := NewLexiconHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/lexicon?book=b1", nil)
	rec := httptest.NewRecorder()
	lexiconRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp LexiconListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(resp.Rules))
	}
	if resp.Rules[0].ID != "r1" || resp.Rules[1].BookID != "b1" {
		t.Errorf("unexpected rules: %+v", resp.Rules)
	}
}

func TestLexiconHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLexiconStore(ctrl)

	var saved storage.LexiconRuleRecord
	store.EXPECT().Save(gomock.Any(), gomock.Any()).
		Do(func(_ any, rec *storage.LexiconRuleRecord) { saved = *rec }).
		Return(nil)

	handler := NewLexiconHandler(store)

	body := `{"original":"Hermione","replacement":"her-MY-oh-nee","caseSensitive":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/lexicon", strings.NewReader(body))
	rec := httptest.NewRecorder()
	lexiconRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if saved.ID == "" {
		t.Error("expected a generated rule ID")
	}
	if saved.Original != "Hermione" || saved.Replacement != "her-MY-oh-nee" || !saved.CaseSensitive {
		t.Errorf("saved rule = %+v", saved)
	}
}

func TestLexiconHandler_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing original", `{"replacement":"x"}`},
		{"bad regex", `{"original":"[unclosed","isRegex":true}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := NewLexiconHandler(mocks.NewMockLexiconStore(ctrl))

			req := httptest.NewRequest(http.MethodPost, "/api/lexicon", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			lexiconRouter(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLexiconHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLexiconStore(ctrl)

	store.EXPECT().Delete(gomock.Any(), "r1").Return(nil)

	handler := NewLexiconHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/lexicon/r1", nil)
	rec := httptest.NewRecorder()
	lexiconRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestLexiconHandler_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLexiconStore(ctrl)

	var replaced []storage.LexiconRuleRecord
	store.EXPECT().ReplaceAll(gomock.Any(), "b1", gomock.Any()).
		Do(func(_ any, _ string, rules []storage.LexiconRuleRecord) { replaced = rules }).
		Return(nil)

	handler := NewLexiconHandler(store)

	csv := "original,replacement,isRegex,caseSensitive\n" +
		"read,red,false,false\n" +
		"colou?r,KUHLER,true,true\n"
	req := httptest.NewRequest(http.MethodPost, "/api/lexicon/import?book=b1", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	lexiconRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp LexiconImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Imported != 2 {
		t.Errorf("Imported = %d, want 2", resp.Imported)
	}

	if len(replaced) != 2 {
		t.Fatalf("got %d replaced rules, want 2", len(replaced))
	}
	for i, rule := range replaced {
		if rule.ID == "" {
			t.Errorf("rule %d has no ID", i)
		}
		if rule.BookID != "b1" {
			t.Errorf("rule %d BookID = %q, want b1", i, rule.BookID)
		}
		if rule.Position != i {
			t.Errorf("rule %d Position = %d", i, rule.Position)
		}
	}
	if !replaced[1].IsRegex || !replaced[1].CaseSensitive {
		t.Errorf("second rule lost flags: %+v", replaced[1])
	}
}

func TestLexiconHandler_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLexiconStore(ctrl)

	store.EXPECT().ListForBook(gomock.Any(), "").Return([]storage.LexiconRuleRecord{
		{ID: "r1", Original: "read", Replacement: "red"},
	}, nil)

	handler := NewLexiconHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/lexicon/export", nil)
	rec := httptest.NewRecorder()
	lexiconRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", got)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "original,replacement,isRegex,caseSensitive\n") {
		t.Errorf("missing CSV header: %q", body)
	}
	if !strings.Contains(body, "read,red,false,false") {
		t.Errorf("missing rule row: %q", body)
	}
}

// Package genai implements AI-assisted chapter title enhancement. The model
// proposes descriptive titles for generic table-of-contents entries; results
// are consumed strictly as an ID-keyed title map and merged by the toc
// package.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fossabot/versicle/internal/llm"
)

const systemPrompt = `You rewrite table-of-contents entries for an e-book.
Given a JSON array of {"id", "title"} entries, propose a more descriptive title
for each entry. Respond with a single JSON object mapping each id to its new
title. Do not add ids that were not in the input.`

// ChatClient is the chat completion dependency of the enhancer.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, llm.Usage, error)
}

// Entry is one table-of-contents entry submitted for enhancement.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Enhancer asks the model for improved chapter titles and tracks cumulative
// token usage across requests.
type Enhancer struct {
	client ChatClient
	logger *slog.Logger

	mu    sync.Mutex
	usage llm.Usage
}

// NewEnhancer creates a title enhancer backed by the given chat client.
func NewEnhancer(client ChatClient, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{client: client, logger: logger}
}

// EnhanceTitles returns the model's proposed titles keyed by entry ID. IDs
// the model invents are dropped so the result can only retitle entries that
// were submitted; entries the model left out are simply absent from the map.
func (e *Enhancer) EnhanceTitles(ctx context.Context, entries []Entry) (map[string]string, error) {
	if len(entries) == 0 {
		return map[string]string{}, nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}

	content, usage, err := e.client.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: string(payload)},
	}, llm.ChatParams{Temperature: 0.3})

	e.mu.Lock()
	e.usage.PromptTokens += usage.PromptTokens
	e.usage.CompletionTokens += usage.CompletionTokens
	e.usage.TotalTokens += usage.TotalTokens
	e.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to enhance titles: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		known[entry.ID] = struct{}{}
	}

	titles := make(map[string]string, len(raw))
	for id, title := range raw {
		if _, ok := known[id]; !ok {
			e.logger.Warn("model returned unknown toc id, dropping", "id", id)
			continue
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		titles[id] = title
	}
	return titles, nil
}

// Usage returns the cumulative token usage across all enhancement requests.
func (e *Enhancer) Usage() llm.Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// wrap JSON responses in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

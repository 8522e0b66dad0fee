// Package search implements library semantic search: chapter text is chunked,
// embedded and indexed in the vector store; queries are embedded and matched
// against it, optionally scoped to one book.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fossabot/versicle/internal/content"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/vectorstore"
)

// Embedder is the embeddings dependency of the engine.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Chapter is one chapter's extracted plain text, as fed to IndexBook.
type Chapter struct {
	ID   string
	Text string
}

// Result is one search hit.
type Result struct {
	BookID     string  `json:"bookId"`
	BookTitle  string  `json:"bookTitle"`
	ChapterID  string  `json:"chapterId"`
	ChunkID    string  `json:"chunkId"`
	ChunkIndex int     `json:"chunkIndex"`
	Snippet    string  `json:"snippet"`
	Score      float32 `json:"score"`
}

// Engine ties the embeddings client, the vector store and the chunk records
// together.
type Engine struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	chunks     storage.ChunkStore
	books      storage.BookStore
	collection string
	logger     *slog.Logger
}

// New creates a search engine over the given collection.
func New(embedder Embedder, store vectorstore.VectorStore, chunks storage.ChunkStore, books storage.BookStore, collection string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder:   embedder,
		store:      store,
		chunks:     chunks,
		books:      books,
		collection: collection,
		logger:     logger,
	}
}

// IndexBook replaces the search index entries for a book with freshly chunked
// and embedded chapter text. Stale vector points from a previous indexing run
// are removed first.
func (e *Engine) IndexBook(ctx context.Context, bookID string, chapters []Chapter) error {
	var records []storage.ChunkRecord
	var texts []string
	for _, ch := range chapters {
		for _, chunk := range content.ChunkText(ch.Text) {
			records = append(records, storage.ChunkRecord{
				ID:         uuid.NewString(),
				BookID:     bookID,
				ChapterID:  ch.ID,
				ChunkIndex: chunk.Index,
				Text:       chunk.Text,
			})
			texts = append(texts, chunk.Text)
		}
	}

	removed, err := e.chunks.DeleteByBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to clear old chunks: %w", err)
	}
	if len(removed) > 0 {
		if err := e.store.Delete(ctx, e.collection, removed); err != nil {
			return fmt.Errorf("failed to clear old vectors: %w", err)
		}
	}

	if len(records) == 0 {
		e.logger.Info("book produced no indexable chunks", "book_id", bookID)
		return nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := e.chunks.ReplaceForBook(ctx, bookID, records); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	points := make([]vectorstore.Point, len(records))
	for i, rec := range records {
		points[i] = vectorstore.Point{
			ID:  rec.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				"book_id":     rec.BookID,
				"chapter_id":  rec.ChapterID,
				"chunk_index": rec.ChunkIndex,
			},
		}
	}
	if err := e.store.Upsert(ctx, e.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	e.logger.Info("book indexed", "book_id", bookID, "chapters", len(chapters), "chunks", len(records))
	return nil
}

// RemoveBook drops a book's chunks and vector points.
func (e *Engine) RemoveBook(ctx context.Context, bookID string) error {
	removed, err := e.chunks.DeleteByBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if len(removed) == 0 {
		return nil
	}
	if err := e.store.Delete(ctx, e.collection, removed); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// Search embeds the query and returns the top k matching chunks. An empty
// bookID searches the whole library.
func (e *Engine) Search(ctx context.Context, query, bookID string, k int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if k <= 0 {
		k = 10
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filters map[string]any
	if bookID != "" {
		filters = map[string]any{"book_id": bookID}
	}

	hits, err := e.store.Search(ctx, e.collection, vectors[0], k, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	titles := make(map[string]string)
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		rec, err := e.chunks.Get(ctx, hit.PointID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// The vector store can briefly hold points for chunks that
				// were just re-indexed.
				e.logger.Warn("search hit without chunk record, skipping", "point_id", hit.PointID)
				continue
			}
			return nil, fmt.Errorf("failed to load chunk: %w", err)
		}

		title, ok := titles[rec.BookID]
		if !ok {
			book, err := e.books.Get(ctx, rec.BookID)
			if err == nil {
				title = book.Title
			}
			titles[rec.BookID] = title
		}

		results = append(results, Result{
			BookID:     rec.BookID,
			BookTitle:  title,
			ChapterID:  rec.ChapterID,
			ChunkID:    rec.ID,
			ChunkIndex: rec.ChunkIndex,
			Snippet:    rec.Text,
			Score:      hit.Score,
		})
	}
	return results, nil
}

package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks github.com/fossabot/versicle/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for search-index chunk persistence.
type ChunkStore interface {
	// Get returns a chunk by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*ChunkRecord, error)
	// ListByBook returns all chunks for a book in chapter/index order.
	ListByBook(ctx context.Context, bookID string) ([]ChunkRecord, error)
	// ReplaceForBook atomically replaces all chunks for a book.
	ReplaceForBook(ctx context.Context, bookID string, chunks []ChunkRecord) error
	// DeleteByBook removes all chunks for a book and returns the removed IDs,
	// so the caller can drop the matching vector store points.
	DeleteByBook(ctx context.Context, bookID string) ([]string, error)
}

// ChunkRepo provides chunk persistence.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Get returns a chunk by ID, or ErrNotFound.
func (r *ChunkRepo) Get(ctx context.Context, id string) (*ChunkRecord, error) {
	var rec ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, book_id, chapter_id, chunk_index, text FROM chunks WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.BookID, &rec.ChapterID, &rec.ChunkIndex, &rec.Text)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}
	return &rec, nil
}

// ListByBook returns all chunks for a book in chapter/index order.
func (r *ChunkRepo) ListByBook(ctx context.Context, bookID string) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, book_id, chapter_id, chunk_index, text FROM chunks WHERE book_id = ? ORDER BY chapter_id, chunk_index",
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.ID, &rec.BookID, &rec.ChapterID, &rec.ChunkIndex, &rec.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, rec)
	}

	return chunks, rows.Err()
}

// ReplaceForBook atomically replaces all chunks for a book.
func (r *ChunkRepo) ReplaceForBook(ctx context.Context, bookID string, chunks []ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	for _, rec := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, book_id, chapter_id, chunk_index, text) VALUES (?, ?, ?, ?, ?)",
			rec.ID, rec.BookID, rec.ChapterID, rec.ChunkIndex, rec.Text,
		); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// DeleteByBook removes all chunks for a book and returns the removed IDs.
func (r *ChunkRepo) DeleteByBook(ctx context.Context, bookID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM chunks WHERE book_id = ?", bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE book_id = ?", bookID); err != nil {
		return nil, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return ids, nil
}

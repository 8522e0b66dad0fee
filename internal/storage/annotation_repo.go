package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_annotation_store.go -package=mocks github.com/fossabot/versicle/internal/storage AnnotationStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// AnnotationStore defines the interface for annotation persistence.
// All operations are at-least-once-retryable: Save is an upsert and Delete of
// a missing row is not an error.
type AnnotationStore interface {
	// ListByBook returns all annotations for a book ordered by creation time.
	ListByBook(ctx context.Context, bookID string) ([]AnnotationRecord, error)
	// Save inserts or updates an annotation.
	Save(ctx context.Context, rec *AnnotationRecord) error
	// Delete removes an annotation by ID.
	Delete(ctx context.Context, id string) error
}

// AnnotationRepo provides methods for annotation persistence.
// It implements the AnnotationStore interface.
type AnnotationRepo struct {
	db *sql.DB
}

// NewAnnotationRepo creates a new AnnotationRepo.
func NewAnnotationRepo(db *sql.DB) *AnnotationRepo {
	return &AnnotationRepo{db: db}
}

// ListByBook returns all annotations for a book ordered by creation time.
func (r *AnnotationRepo) ListByBook(ctx context.Context, bookID string) ([]AnnotationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, chapter_id, path, end_path, start_offset, end_offset,
		        kind, color, note, excerpt, created_at
		 FROM annotations WHERE book_id = ? ORDER BY created_at, id`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []AnnotationRecord
	for rows.Next() {
		var rec AnnotationRecord
		var pathJSON string
		var endPathJSON sql.NullString
		var createdAtStr string
		if err := rows.Scan(&rec.ID, &rec.BookID, &rec.ChapterID, &pathJSON, &endPathJSON,
			&rec.StartOffset, &rec.EndOffset, &rec.Kind, &rec.Color, &rec.Note,
			&rec.Excerpt, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}

		if err := json.Unmarshal([]byte(pathJSON), &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to decode anchor path: %w", err)
		}
		if endPathJSON.Valid && endPathJSON.String != "" {
			if err := json.Unmarshal([]byte(endPathJSON.String), &rec.EndPath); err != nil {
				return nil, fmt.Errorf("failed to decode anchor end path: %w", err)
			}
		}
		rec.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// Save inserts or updates an annotation.
func (r *AnnotationRepo) Save(ctx context.Context, rec *AnnotationRecord) error {
	pathJSON, err := json.Marshal(rec.Path)
	if err != nil {
		return fmt.Errorf("failed to encode anchor path: %w", err)
	}
	endPathJSON := ""
	if len(rec.EndPath) > 0 {
		raw, err := json.Marshal(rec.EndPath)
		if err != nil {
			return fmt.Errorf("failed to encode anchor end path: %w", err)
		}
		endPathJSON = string(raw)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO annotations (id, book_id, chapter_id, path, end_path, start_offset,
		                          end_offset, kind, color, note, excerpt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 color = excluded.color, note = excluded.note`,
		rec.ID, rec.BookID, rec.ChapterID, string(pathJSON), endPathJSON,
		rec.StartOffset, rec.EndOffset, rec.Kind, rec.Color, rec.Note, rec.Excerpt,
		rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}
	return nil
}

// Delete removes an annotation by ID. Deleting a missing annotation is a no-op.
func (r *AnnotationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	return nil
}

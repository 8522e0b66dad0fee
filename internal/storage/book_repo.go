package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_book_store.go -package=mocks github.com/fossabot/versicle/internal/storage BookStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// BookStore defines the interface for book record operations.
type BookStore interface {
	// Get returns a book by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*BookRecord, error)
	// ListAll returns all books ordered by added_at descending.
	ListAll(ctx context.Context) ([]BookRecord, error)
	// Upsert inserts a new book or updates title/author/extents of an
	// existing one.
	Upsert(ctx context.Context, book *BookRecord) error
	// TouchLastRead updates the last_read timestamp for a book.
	TouchLastRead(ctx context.Context, id string) error
	// Delete removes a book and, via foreign keys, its dependent records.
	Delete(ctx context.Context, id string) error
}

// BookRepo provides methods for book record operations.
// It implements the BookStore interface.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo creates a new BookRepo.
func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

// Get returns a book by ID, or ErrNotFound.
func (r *BookRepo) Get(ctx context.Context, id string) (*BookRecord, error) {
	var book BookRecord
	var extentsJSON sql.NullString
	var addedAtStr string
	var lastReadStr sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, author, extents, added_at, last_read FROM books WHERE id = ?",
		id,
	).Scan(&book.ID, &book.Title, &book.Author, &extentsJSON, &addedAtStr, &lastReadStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query book: %w", err)
	}

	if extentsJSON.Valid && extentsJSON.String != "" {
		if err := json.Unmarshal([]byte(extentsJSON.String), &book.Extents); err != nil {
			return nil, fmt.Errorf("failed to parse extents: %w", err)
		}
	}
	book.AddedAt, err = parseTimestamp(addedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse added_at timestamp: %w", err)
	}
	if lastReadStr.Valid && lastReadStr.String != "" {
		book.LastRead, err = parseTimestamp(lastReadStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_read timestamp: %w", err)
		}
	}

	return &book, nil
}

// ListAll returns all books ordered by added_at descending.
func (r *BookRepo) ListAll(ctx context.Context) ([]BookRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, author, extents, added_at, last_read FROM books ORDER BY added_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var books []BookRecord
	for rows.Next() {
		var book BookRecord
		var extentsJSON sql.NullString
		var addedAtStr string
		var lastReadStr sql.NullString
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &extentsJSON, &addedAtStr, &lastReadStr); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		if extentsJSON.Valid && extentsJSON.String != "" {
			if err := json.Unmarshal([]byte(extentsJSON.String), &book.Extents); err != nil {
				return nil, fmt.Errorf("failed to parse extents: %w", err)
			}
		}
		book.AddedAt, err = parseTimestamp(addedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse added_at timestamp: %w", err)
		}
		if lastReadStr.Valid && lastReadStr.String != "" {
			book.LastRead, err = parseTimestamp(lastReadStr.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse last_read timestamp: %w", err)
			}
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// Upsert inserts a new book or updates title/author/extents of an existing one.
func (r *BookRepo) Upsert(ctx context.Context, book *BookRecord) error {
	extentsJSON := ""
	if len(book.Extents) > 0 {
		raw, err := json.Marshal(book.Extents)
		if err != nil {
			return fmt.Errorf("failed to marshal extents: %w", err)
		}
		extentsJSON = string(raw)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, extents, added_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, author = excluded.author, extents = excluded.extents`,
		book.ID, book.Title, book.Author, extentsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert book: %w", err)
	}
	return nil
}

// TouchLastRead updates the last_read timestamp for a book.
func (r *BookRepo) TouchLastRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE books SET last_read = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last_read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check touch result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a book and, via foreign keys, its dependent records.
func (r *BookRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

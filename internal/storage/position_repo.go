package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_position_store.go -package=mocks github.com/fossabot/versicle/internal/storage PositionStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks github.com/fossabot/versicle/internal/storage HistoryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PositionStore defines the interface for reading-position persistence.
type PositionStore interface {
	// Load returns the persisted reading position for a book, or ErrNotFound
	// when the book has never produced a debounced write.
	Load(ctx context.Context, bookID string) (*PositionRecord, error)
	// Save upserts the reading position for a book.
	Save(ctx context.Context, rec *PositionRecord) error
}

// HistoryStore defines the interface for reading-history persistence.
type HistoryStore interface {
	// LoadRanges returns the merged read ranges for a book; empty when none.
	LoadRanges(ctx context.Context, bookID string) ([]string, error)
	// SaveRanges upserts the merged read ranges for a book.
	SaveRanges(ctx context.Context, bookID string, ranges []string) error
}

// PositionRepo provides reading-position and reading-history persistence.
// It implements both PositionStore and HistoryStore.
type PositionRepo struct {
	db *sql.DB
}

// NewPositionRepo creates a new PositionRepo.
func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

// Load returns the persisted reading position for a book, or ErrNotFound.
func (r *PositionRepo) Load(ctx context.Context, bookID string) (*PositionRecord, error) {
	var rec PositionRecord
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT book_id, locator, percent, updated_at FROM reading_positions WHERE book_id = ?",
		bookID,
	).Scan(&rec.BookID, &rec.Locator, &rec.Percent, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading position: %w", err)
	}

	rec.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &rec, nil
}

// Save upserts the reading position for a book.
func (r *PositionRepo) Save(ctx context.Context, rec *PositionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reading_positions (book_id, locator, percent, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (book_id) DO UPDATE SET
		 locator = excluded.locator, percent = excluded.percent, updated_at = CURRENT_TIMESTAMP`,
		rec.BookID, rec.Locator, rec.Percent,
	)
	if err != nil {
		return fmt.Errorf("failed to save reading position: %w", err)
	}
	return nil
}

// LoadRanges returns the merged read ranges for a book; empty when none.
func (r *PositionRepo) LoadRanges(ctx context.Context, bookID string) ([]string, error) {
	var rangesJSON string
	err := r.db.QueryRowContext(ctx,
		"SELECT read_ranges FROM reading_history WHERE book_id = ?", bookID,
	).Scan(&rangesJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading history: %w", err)
	}

	var ranges []string
	if err := json.Unmarshal([]byte(rangesJSON), &ranges); err != nil {
		return nil, fmt.Errorf("failed to decode read ranges: %w", err)
	}
	return ranges, nil
}

// SaveRanges upserts the merged read ranges for a book.
func (r *PositionRepo) SaveRanges(ctx context.Context, bookID string, ranges []string) error {
	rangesJSON, err := json.Marshal(ranges)
	if err != nil {
		return fmt.Errorf("failed to encode read ranges: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reading_history (book_id, read_ranges, last_updated)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (book_id) DO UPDATE SET
		 read_ranges = excluded.read_ranges, last_updated = CURRENT_TIMESTAMP`,
		bookID, string(rangesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save reading history: %w", err)
	}
	return nil
}

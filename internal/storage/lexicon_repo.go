package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_lexicon_store.go -package=mocks github.com/fossabot/versicle/internal/storage LexiconStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// LexiconStore defines the interface for pronunciation lexicon persistence.
// Rules are ordered; ListForBook returns global rules first, then the book's
// own rules, each block in position order.
type LexiconStore interface {
	// ListForBook returns global rules followed by the book's rules.
	ListForBook(ctx context.Context, bookID string) ([]LexiconRuleRecord, error)
	// Save inserts a rule, assigning an ID and position when absent.
	Save(ctx context.Context, rec *LexiconRuleRecord) error
	// Delete removes a rule by ID.
	Delete(ctx context.Context, id string) error
	// ReplaceAll atomically replaces the rule list for a scope (bookID may be
	// empty for the global scope). Used by CSV import.
	ReplaceAll(ctx context.Context, bookID string, rules []LexiconRuleRecord) error
}

// LexiconRepo provides lexicon rule persistence.
// It implements the LexiconStore interface.
type LexiconRepo struct {
	db *sql.DB
}

// NewLexiconRepo creates a new LexiconRepo.
func NewLexiconRepo(db *sql.DB) *LexiconRepo {
	return &LexiconRepo{db: db}
}

// ListForBook returns global rules followed by the book's rules.
func (r *LexiconRepo) ListForBook(ctx context.Context, bookID string) ([]LexiconRuleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, original, replacement, is_regex, case_sensitive, position, created_at
		 FROM lexicon_rules WHERE book_id = '' OR book_id = ?
		 ORDER BY book_id, position`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lexicon rules: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var rules []LexiconRuleRecord
	for rows.Next() {
		var rec LexiconRuleRecord
		var createdAtStr string
		if err := rows.Scan(&rec.ID, &rec.BookID, &rec.Original, &rec.Replacement,
			&rec.IsRegex, &rec.CaseSensitive, &rec.Position, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan lexicon rule: %w", err)
		}
		rec.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		rules = append(rules, rec)
	}

	return rules, rows.Err()
}

// Save inserts a rule, assigning an ID and position when absent.
func (r *LexiconRepo) Save(ctx context.Context, rec *LexiconRuleRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Position == 0 {
		var maxPos sql.NullInt64
		err := r.db.QueryRowContext(ctx,
			"SELECT MAX(position) FROM lexicon_rules WHERE book_id = ?", rec.BookID,
		).Scan(&maxPos)
		if err != nil {
			return fmt.Errorf("failed to compute rule position: %w", err)
		}
		rec.Position = int(maxPos.Int64) + 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lexicon_rules (id, book_id, original, replacement, is_regex, case_sensitive, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 original = excluded.original, replacement = excluded.replacement,
		 is_regex = excluded.is_regex, case_sensitive = excluded.case_sensitive`,
		rec.ID, rec.BookID, rec.Original, rec.Replacement, rec.IsRegex, rec.CaseSensitive, rec.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to save lexicon rule: %w", err)
	}
	return nil
}

// Delete removes a rule by ID.
func (r *LexiconRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM lexicon_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lexicon rule: %w", err)
	}
	return nil
}

// ReplaceAll atomically replaces the rule list for a scope.
func (r *LexiconRepo) ReplaceAll(ctx context.Context, bookID string, rules []LexiconRuleRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lexicon_rules WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("failed to clear lexicon rules: %w", err)
	}

	for i := range rules {
		rec := &rules[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		rec.BookID = bookID
		rec.Position = i + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lexicon_rules (id, book_id, original, replacement, is_regex, case_sensitive, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.BookID, rec.Original, rec.Replacement, rec.IsRegex, rec.CaseSensitive, rec.Position,
		); err != nil {
			return fmt.Errorf("failed to insert lexicon rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lexicon rules: %w", err)
	}
	return nil
}

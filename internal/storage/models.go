package storage

import "time"

// BookRecord represents a library book in the database. Ingestion itself is an
// external concern; the engine only keys its state off the book ID.
type BookRecord struct {
	ID       string // UUID or content hash assigned at ingestion
	Title    string
	Author   string
	Extents  []int // Per-spine-item character counts, recorded at ingestion
	AddedAt  time.Time
	LastRead time.Time // Zero when the book was never opened
}

// AnnotationRecord represents a persisted highlight or note.
type AnnotationRecord struct {
	ID          string // UUID, never reused
	BookID      string
	ChapterID   string
	Path        []int // Structural path to the start text node
	EndPath     []int // Empty when the anchor lives in one node
	StartOffset int
	EndOffset   int
	Kind        string // "highlight" or "note"
	Color       string // Empty for notes
	Note        string
	Excerpt     string // Snapshot of the anchored text at creation time
	CreatedAt   time.Time
}

// PositionRecord represents the persisted reading position for a book.
type PositionRecord struct {
	BookID    string
	Locator   string  // Serialized location descriptor
	Percent   float64 // 0..100
	UpdatedAt time.Time
}

// HistoryRecord represents the merged set of read ranges for a book.
type HistoryRecord struct {
	BookID      string
	ReadRanges  []string // Sorted, non-overlapping range tokens
	LastUpdated time.Time
}

// LexiconRuleRecord represents one pronunciation substitution rule.
// BookID is empty for global rules. Position orders application; list order is
// the only precedence the lexicon honors.
type LexiconRuleRecord struct {
	ID            string
	BookID        string
	Original      string
	Replacement   string
	IsRegex       bool
	CaseSensitive bool
	Position      int
	CreatedAt     time.Time
}

// ChunkRecord represents a chapter text chunk indexed for library search.
type ChunkRecord struct {
	ID         string // UUID (same as the vector store point ID)
	BookID     string
	ChapterID  string
	ChunkIndex int // Index within the chapter (starts at 0)
	Text       string
}

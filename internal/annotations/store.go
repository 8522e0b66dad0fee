// Package annotations holds the in-memory authoritative annotation set for
// the currently open book. Mutations apply locally first and persist
// asynchronously; the local state stays authoritative for the session even
// when persistence fails.
package annotations

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fossabot/versicle/internal/anchor"
	"github.com/fossabot/versicle/internal/storage"
)

// Kind distinguishes highlights from note markers.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindNote      Kind = "note"
)

// ErrNotFound is returned for operations on an unknown annotation ID.
var ErrNotFound = errors.New("annotation not found")

// ErrClosed is returned for mutations after Close.
var ErrClosed = errors.New("annotation store closed")

// Annotation is one highlight or note of the open book.
type Annotation struct {
	ID        string        `json:"id"`
	BookID    string        `json:"bookId"`
	Anchor    anchor.Anchor `json:"anchor"`
	Kind      Kind          `json:"kind"`
	Color     string        `json:"color,omitempty"`
	Note      string        `json:"note,omitempty"`
	Excerpt   string        `json:"excerpt"`
	CreatedAt time.Time     `json:"createdAt"`
}

type persistOp struct {
	record *storage.AnnotationRecord // nil for deletes
	delete string
}

// Store owns the annotations of one open book. All mutating calls go through
// one mutex, so concurrent adds can never interleave ID assignment, and the
// persistence worker applies writes in submission order (FIFO).
type Store struct {
	bookID  string
	backend storage.AnnotationStore
	logger  *slog.Logger

	retries int
	backoff time.Duration

	mu     sync.Mutex
	items  []Annotation
	closed bool

	ops  chan persistOp
	done chan struct{}
}

// Options tunes the persistence retry policy.
type Options struct {
	PersistRetries int
	PersistBackoff time.Duration
}

// Open loads the book's persisted annotations and starts the persistence
// worker.
func Open(ctx context.Context, bookID string, backend storage.AnnotationStore, opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PersistRetries < 1 {
		opts.PersistRetries = 3
	}
	if opts.PersistBackoff <= 0 {
		opts.PersistBackoff = 250 * time.Millisecond
	}

	records, err := backend.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	s := &Store{
		bookID:  bookID,
		backend: backend,
		logger:  logger,
		retries: opts.PersistRetries,
		backoff: opts.PersistBackoff,
		items:   make([]Annotation, 0, len(records)),
		ops:     make(chan persistOp, 64),
		done:    make(chan struct{}),
	}
	for _, rec := range records {
		s.items = append(s.items, fromRecord(rec))
	}

	go s.persistLoop()
	return s, nil
}

// Add creates an annotation from a live selection. It fails with the anchor
// package's ErrInvalidSelection when the selection cannot produce an anchor;
// otherwise the annotation is immediately visible locally and persistence
// happens in the background.
func (s *Store) Add(sel anchor.Selection, kind Kind, color, note string) (Annotation, error) {
	a, err := anchor.Create(sel)
	if err != nil {
		return Annotation{}, err
	}
	excerpt := anchor.Excerpt(sel)
	return s.append(a, kind, color, note, excerpt)
}

// AddNoteAt creates a zero-width note marker at a point in the chapter text.
func (s *Store) AddNoteAt(sel anchor.Selection, note string) (Annotation, error) {
	a, err := anchor.CreatePoint(sel.ChapterID, sel.Start, sel.StartOffset)
	if err != nil {
		return Annotation{}, err
	}
	return s.append(a, KindNote, "", note, "")
}

func (s *Store) append(a anchor.Anchor, kind Kind, color, note, excerpt string) (Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Annotation{}, ErrClosed
	}

	ann := Annotation{
		ID:        uuid.NewString(),
		BookID:    s.bookID,
		Anchor:    a,
		Kind:      kind,
		Color:     color,
		Note:      note,
		Excerpt:   excerpt,
		CreatedAt: time.Now().UTC(),
	}
	s.items = append(s.items, ann)
	s.enqueue(persistOp{record: toRecord(ann)})
	return ann, nil
}

// UpdateNote replaces the note text of an annotation.
func (s *Store) UpdateNote(id, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items[i].Note = note
		s.enqueue(persistOp{record: toRecord(s.items[i])})
		return nil
	}
	return ErrNotFound
}

// Remove deletes an annotation. The ID is never reused: re-annotating the
// same span later produces a new annotation with a fresh ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.enqueue(persistOp{delete: id})
		return nil
	}
	return ErrNotFound
}

// List returns the annotations ordered by creation time.
func (s *Store) List() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Annotation, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Get returns one annotation by ID.
func (s *Store) Get(id string) (Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ann := range s.items {
		if ann.ID == id {
			return ann, nil
		}
	}
	return Annotation{}, ErrNotFound
}

func (s *Store) enqueue(op persistOp) {
	// Blocks when the worker falls far behind rather than dropping a write.
	s.ops <- op
}

// Close stops the persistence worker after draining queued writes. Later
// mutations fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.ops)
	s.mu.Unlock()
	<-s.done
}

// persistLoop applies queued writes in order. Each write is retried with
// exponential backoff; exhausted retries surface as a warning and the write is
// dropped, local state stays authoritative.
func (s *Store) persistLoop() {
	defer close(s.done)
	for op := range s.ops {
		s.persist(op)
	}
}

func (s *Store) persist(op persistOp) {
	ctx := context.Background()
	delay := s.backoff
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if op.record != nil {
			err = s.backend.Save(ctx, op.record)
		} else {
			err = s.backend.Delete(ctx, op.delete)
		}
		if err == nil {
			return
		}
		if attempt < s.retries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	s.logger.Warn("annotation persistence failed, keeping local state",
		"book_id", s.bookID, "attempts", s.retries, "error", err)
}

func toRecord(ann Annotation) *storage.AnnotationRecord {
	return &storage.AnnotationRecord{
		ID:          ann.ID,
		BookID:      ann.BookID,
		ChapterID:   ann.Anchor.ChapterID,
		Path:        ann.Anchor.Path,
		EndPath:     ann.Anchor.EndPath,
		StartOffset: ann.Anchor.StartOffset,
		EndOffset:   ann.Anchor.EndOffset,
		Kind:        string(ann.Kind),
		Color:       ann.Color,
		Note:        ann.Note,
		Excerpt:     ann.Excerpt,
		CreatedAt:   ann.CreatedAt,
	}
}

func fromRecord(rec storage.AnnotationRecord) Annotation {
	return Annotation{
		ID:     rec.ID,
		BookID: rec.BookID,
		Anchor: anchor.Anchor{
			ChapterID:   rec.ChapterID,
			Path:        rec.Path,
			EndPath:     rec.EndPath,
			StartOffset: rec.StartOffset,
			EndOffset:   rec.EndOffset,
		},
		Kind:      Kind(rec.Kind),
		Color:     rec.Color,
		Note:      rec.Note,
		Excerpt:   rec.Excerpt,
		CreatedAt: rec.CreatedAt,
	}
}

// Package reader owns the "open book" context: one Session per open book ties
// the annotation store, the progress tracker and the TTS controller to the
// renderer's event stream. Switching books tears the session down and builds a
// new one; there is never more than one book's state live per session.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/fossabot/versicle/internal/anchor"
	"github.com/fossabot/versicle/internal/annotations"
	"github.com/fossabot/versicle/internal/progress"
	"github.com/fossabot/versicle/internal/storage"
	"github.com/fossabot/versicle/internal/tts"
)

// Renderer is the external collaborator that materializes chapters and draws
// decorations. Structure returns nil while a chapter is not materialized.
type Renderer interface {
	Structure(chapterID string) *html.Node
	DecorateHighlight(r anchor.TextRange, color string)
	MarkNote(r anchor.TextRange)
}

// Stores bundles the persistence collaborators a session needs.
type Stores struct {
	Books       storage.BookStore
	Annotations storage.AnnotationStore
	Positions   storage.PositionStore
	History     storage.HistoryStore
	Lexicon     storage.LexiconStore
}

// Options tunes session behavior.
type Options struct {
	DebounceQuiet  time.Duration
	MinSession     time.Duration
	PersistRetries int
	PersistBackoff time.Duration
	// Extents are per-spine-item character extents for percent computation.
	Extents []int
	// Abbreviations extends the segmenter's default abbreviation list.
	Abbreviations []string
}

// DecorationReport summarizes one DecorateAnnotations pass.
type DecorationReport struct {
	Resolved int
	Pending  int
	Degraded int
}

// Session is the open-book context object.
type Session struct {
	bookID   string
	renderer Renderer
	logger   *slog.Logger

	annotations *annotations.Store
	tracker     *progress.Tracker
	controller  *tts.Controller

	mu     sync.Mutex
	closed bool
}

// Open builds a session for one book: loads its annotations, starts the
// progress tracker and prepares a TTS controller seeded with the book's
// lexicon rules.
func Open(ctx context.Context, bookID string, renderer Renderer, stores Stores, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("book_id", bookID)

	anns, err := annotations.Open(ctx, bookID, stores.Annotations, annotations.Options{
		PersistRetries: opts.PersistRetries,
		PersistBackoff: opts.PersistBackoff,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}

	var rules []tts.LexiconRule
	if stores.Lexicon != nil {
		records, err := stores.Lexicon.ListForBook(ctx, bookID)
		if err != nil {
			anns.Close()
			return nil, fmt.Errorf("failed to load lexicon rules: %w", err)
		}
		rules = tts.RulesFromRecords(records)
	}

	tracker := progress.New(bookID, stores.Positions, stores.History, progress.Options{
		Quiet:      opts.DebounceQuiet,
		MinSession: opts.MinSession,
		Extents:    opts.Extents,
	}, logger)

	controller := tts.NewController(tts.NewSegmenter(opts.Abbreviations), rules, logger)

	if stores.Books != nil {
		if err := stores.Books.TouchLastRead(ctx, bookID); err != nil {
			logger.Warn("failed to touch last read", "error", err)
		}
	}

	return &Session{
		bookID:      bookID,
		renderer:    renderer,
		logger:      logger,
		annotations: anns,
		tracker:     tracker,
		controller:  controller,
	}, nil
}

// Annotations exposes the session's annotation store.
func (s *Session) Annotations() *annotations.Store { return s.annotations }

// TTS exposes the session's playback controller.
func (s *Session) TTS() *tts.Controller { return s.controller }

// BookID returns the open book's ID.
func (s *Session) BookID() string { return s.bookID }

// OnLocationChanged forwards a renderer location event to the progress
// tracker. readRange optionally names the visible content range for reading
// history; pass "" when the renderer does not report one.
func (s *Session) OnLocationChanged(locator, readRange string) {
	s.tracker.OnLocationChanged(locator, readRange)
}

// OnVisibleTextChanged requeues the TTS controller from the new visible text.
// Any playback in progress is abandoned; the queue restarts at index 0.
func (s *Session) OnVisibleTextChanged(text string) {
	s.controller.SetText(text)
}

// DecorateAnnotations resolves the chapter's annotations against the
// currently materialized tree and emits decoration requests for the resolved
// ones. Pending annotations are skipped until the chapter renders; anchors
// whose path no longer exists degrade to excerpt-only display.
func (s *Session) DecorateAnnotations(chapterID string) DecorationReport {
	tree := s.renderer.Structure(chapterID)

	var report DecorationReport
	for _, ann := range s.annotations.List() {
		if ann.Anchor.ChapterID != chapterID {
			continue
		}
		res := anchor.Resolve(ann.Anchor, tree)
		switch res.Outcome {
		case anchor.Resolved:
			report.Resolved++
			if ann.Kind == annotations.KindNote && ann.Anchor.Collapsed() {
				s.renderer.MarkNote(res.Range)
			} else {
				s.renderer.DecorateHighlight(res.Range, ann.Color)
			}
		case anchor.Pending:
			report.Pending++
		case anchor.StructureChanged:
			report.Degraded++
			s.logger.Debug("annotation degraded to excerpt", "annotation_id", ann.ID, "chapter_id", chapterID)
		}
	}
	return report
}

// Close tears the session down: pending debounced writes are discarded, the
// TTS queue is dropped and queued annotation writes are drained.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.tracker.Close()
	s.controller.Close()
	s.annotations.Close()
}

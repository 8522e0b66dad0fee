// Package progress tracks the reading position of the open book. Location
// events are debounced into a single pending-write slot; only the latest
// location within a quiet window is ever persisted, and nothing is persisted
// until a minimum amount of reading time has passed since the book was opened.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fossabot/versicle/internal/location"
	"github.com/fossabot/versicle/internal/storage"
)

// Options tunes the debounce behavior.
type Options struct {
	// Quiet is how long a location must remain stable before it is persisted.
	Quiet time.Duration
	// MinSession is the minimum elapsed time since open before any write.
	MinSession time.Duration
	// Extents are the per-spine-item character extents used to compute the
	// completion percentage. Empty extents yield percent 0.
	Extents []int
}

type pendingWrite struct {
	locator   string
	percent   float64
	readRange string
	at        time.Time
}

// Tracker owns the reading position of one open book.
type Tracker struct {
	bookID    string
	positions storage.PositionStore
	history   storage.HistoryStore
	logger    *slog.Logger

	quiet      time.Duration
	minSession time.Duration
	extents    []int
	openedAt   time.Time

	mu      sync.Mutex
	pending *pendingWrite
	timer   *time.Timer
	closed  bool
}

// New creates a tracker for the given book. history may be nil when read-range
// tracking is not wanted.
func New(bookID string, positions storage.PositionStore, history storage.HistoryStore, opts Options, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Quiet <= 0 {
		opts.Quiet = time.Second
	}
	return &Tracker{
		bookID:     bookID,
		positions:  positions,
		history:    history,
		logger:     logger,
		quiet:      opts.Quiet,
		minSession: opts.MinSession,
		extents:    opts.Extents,
		openedAt:   time.Now(),
	}
}

// OnLocationChanged records a new location from the renderer. The write slot
// is overwritten, not queued: rapid navigation drops intermediate locations by
// design. readRange optionally names the range of content that just became
// visible; it is merged into the reading history on the same debounced write.
func (t *Tracker) OnLocationChanged(locator, readRange string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	percent := 0.0
	if loc, err := location.Parse(locator); err == nil {
		percent = location.Fraction(loc, t.extents) * 100
	} else {
		t.logger.Debug("unparseable locator, keeping percent 0", "locator", locator, "error", err)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.pending = &pendingWrite{
		locator:   locator,
		percent:   percent,
		readRange: readRange,
		at:        time.Now(),
	}
	t.resetTimerLocked(t.quiet)
}

// resetTimerLocked arms the debounce timer, replacing any previous deadline.
// The timer is reset, not extended: each new event restarts the quiet window.
func (t *Tracker) resetTimerLocked(d time.Duration) {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, t.flush)
}

func (t *Tracker) flush() {
	t.mu.Lock()
	if t.closed || t.pending == nil {
		t.mu.Unlock()
		return
	}

	// The session gate postpones, rather than drops, the first write.
	if elapsed := time.Since(t.openedAt); elapsed < t.minSession {
		t.resetTimerLocked(t.minSession - elapsed)
		t.mu.Unlock()
		return
	}

	w := t.pending
	t.pending = nil
	t.mu.Unlock()

	ctx := context.Background()
	rec := &storage.PositionRecord{
		BookID:    t.bookID,
		Locator:   w.locator,
		Percent:   w.percent,
		UpdatedAt: w.at.UTC(),
	}
	if err := t.positions.Save(ctx, rec); err != nil {
		t.logger.Warn("failed to persist reading position", "book_id", t.bookID, "error", err)
		return
	}

	if t.history != nil && w.readRange != "" {
		t.mergeHistory(ctx, w.readRange)
	}
}

func (t *Tracker) mergeHistory(ctx context.Context, readRange string) {
	existing, err := t.history.LoadRanges(ctx, t.bookID)
	if err != nil {
		t.logger.Warn("failed to load reading history", "book_id", t.bookID, "error", err)
		return
	}
	merged := location.MergeRanges(existing, readRange)
	if err := t.history.SaveRanges(ctx, t.bookID, merged); err != nil {
		t.logger.Warn("failed to persist reading history", "book_id", t.bookID, "error", err)
	}
}

// Close cancels any pending debounced write without flushing it.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// ContinueReading returns the latest persisted position for a book, suitable
// for the library's continue-reading affordance. A book that never produced a
// debounced write reports ok false.
func ContinueReading(ctx context.Context, positions storage.PositionStore, bookID string) (*storage.PositionRecord, bool, error) {
	rec, err := positions.Load(ctx, bookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rec, true, nil
}

package tts

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// State is the playback state of a Controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyQueue reports playback attempted with no sentence units. It is a
	// UI state rather than a failure of the caller's input.
	ErrEmptyQueue = errors.New("tts: queue is empty")

	// ErrNotReady reports a playback command issued before any text was queued.
	ErrNotReady = errors.New("tts: queue not ready")

	errClosed = errors.New("tts: controller closed")
)

// Controller drives playback over a segmented sentence queue. The queue is
// rebuilt, never patched, on each visible-text change; sentence indices are
// only meaningful within a single queue version.
type Controller struct {
	mu sync.Mutex

	segmenter *Segmenter
	rules     []LexiconRule
	logger    *slog.Logger

	state   State
	units   []SentenceUnit
	index   int
	version uint64
	rate    float64
	closed  bool
}

// NewController returns a Controller in the Idle state.
func NewController(segmenter *Segmenter, rules []LexiconRule, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		segmenter: segmenter,
		rules:     rules,
		logger:    logger,
		state:     StateIdle,
		rate:      1.0,
	}
}

// SetText requeues the controller from new visible text. Playback in progress
// is abandoned, the text is re-segmented, and the controller lands in Ready at
// index 0 of the new queue (Empty when segmentation yields no speakable
// units). The queue version is bumped so stale unit references can be
// detected.
func (c *Controller) SetText(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.state = StateLoading
	c.version++
	c.index = 0
	c.units = c.buildQueue(raw)

	if len(c.units) == 0 {
		c.state = StateEmpty
		c.logger.Debug("tts queue empty", "version", c.version)
		return
	}
	c.state = StateReady
	c.logger.Debug("tts queue rebuilt", "version", c.version, "units", len(c.units))
}

// SetRules replaces the lexicon rule list. The new rules take effect on the
// next requeue.
func (c *Controller) SetRules(rules []LexiconRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
}

func (c *Controller) buildQueue(raw string) []SentenceUnit {
	segmented := c.segmenter.Segment(raw)
	units := make([]SentenceUnit, 0, len(segmented))
	for _, u := range segmented {
		spoken := ApplyLexicon(Sanitize(u.Text), c.rules)
		if strings.TrimSpace(spoken) == "" {
			continue // sanitizer reduced the sentence to nothing
		}
		u.Index = len(units)
		u.Spoken = spoken
		units = append(units, u)
	}
	return units
}

// Play starts or resumes playback.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	switch c.state {
	case StateReady, StatePaused:
		c.state = StatePlaying
		return nil
	case StatePlaying:
		return nil
	case StateEmpty:
		return ErrEmptyQueue
	default:
		return ErrNotReady
	}
}

// Pause suspends playback. A no-op outside Playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePlaying {
		c.state = StatePaused
	}
}

// Rewind steps back one sentence, clamped at the start of the queue. The
// play/pause state is unchanged.
func (c *Controller) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.navigable() {
		return
	}
	if c.index > 0 {
		c.index--
	}
	if c.state == StateEnded {
		c.state = StatePaused
	}
}

// Forward steps ahead one sentence. Stepping past the final sentence
// transitions to Ended rather than failing.
func (c *Controller) Forward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.navigable() {
		return
	}
	if c.index < len(c.units)-1 {
		c.index++
		return
	}
	c.state = StateEnded
}

// Advance is Forward driven by unit completion during playback.
func (c *Controller) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return
	}
	if c.index < len(c.units)-1 {
		c.index++
		return
	}
	c.state = StateEnded
}

// Seek jumps to the given sentence index, clamped to queue bounds.
func (c *Controller) Seek(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.navigable() {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.units)-1 {
		index = len(c.units) - 1
	}
	c.index = index
	if c.state == StateEnded {
		c.state = StatePaused
	}
}

func (c *Controller) navigable() bool {
	if c.closed || len(c.units) == 0 {
		return false
	}
	switch c.state {
	case StateReady, StatePlaying, StatePaused, StateEnded:
		return true
	}
	return false
}

// SetRate sets the playback speed multiplier. Rate is orthogonal to the
// playback state and applies to whichever unit is active.
func (c *Controller) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate <= 0 {
		return
	}
	c.rate = rate
}

// Rate returns the current playback speed multiplier.
func (c *Controller) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Current returns the active sentence unit, reporting false when the queue
// has none.
func (c *Controller) Current() (SentenceUnit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.units) == 0 || c.index >= len(c.units) {
		return SentenceUnit{}, false
	}
	return c.units[c.index], true
}

// Units returns a copy of the current queue.
func (c *Controller) Units() []SentenceUnit {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentenceUnit, len(c.units))
	copy(out, c.units)
	return out
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index returns the current sentence index.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Version returns the current queue version. The version increments on every
// requeue.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Len returns the number of sentence units in the current queue.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

// Close discards the queue and any pending requeue. Further commands are
// no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.units = nil
	c.index = 0
	c.state = StateIdle
}

// Package location implements the position model for reflowable book content.
//
// Positions are expressed as EPUB-CFI-style tokens ("epubcfi(/6/4!/4/10/2:3)").
// A locator survives re-pagination because it addresses the content tree, not
// the rendered layout. Locators from the same book are totally ordered.
package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidLocator = errors.New("invalid locator")

// Step is one element step within a locator path. The assertion is an optional
// bracketed hint carried for display; it does not participate in ordering.
type Step struct {
	Index     int
	Assertion string
}

// Locator is a parsed position descriptor. Parts are the step sequences
// separated by indirection ("!"); Offset is the character offset within the
// terminal text node, or -1 when absent.
type Locator struct {
	Parts  [][]Step
	Offset int
}

const (
	prefix = "epubcfi("
	suffix = ")"
)

// Parse parses an "epubcfi(...)" token into a Locator.
func Parse(raw string) (Locator, error) {
	body, err := unwrap(raw)
	if err != nil {
		return Locator{}, err
	}
	return parseBody(body)
}

// unwrap strips the epubcfi( ... ) envelope.
func unwrap(raw string) (string, error) {
	if !strings.HasPrefix(raw, prefix) || !strings.HasSuffix(raw, suffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, raw)
	}
	return raw[len(prefix) : len(raw)-len(suffix)], nil
}

// parseBody parses the content of a CFI without its envelope.
func parseBody(body string) (Locator, error) {
	if body == "" {
		return Locator{}, fmt.Errorf("%w: empty body", ErrInvalidLocator)
	}

	loc := Locator{Offset: -1}

	for _, part := range strings.Split(body, "!") {
		if part == "" {
			return Locator{}, fmt.Errorf("%w: empty indirection in %q", ErrInvalidLocator, body)
		}
		steps, offset, err := parseSteps(part)
		if err != nil {
			return Locator{}, err
		}
		if offset >= 0 {
			loc.Offset = offset
		}
		loc.Parts = append(loc.Parts, steps)
	}

	return loc, nil
}

// parseSteps parses one "/4/10[id]/2:17" step sequence. A character offset is
// only legal on the final step.
func parseSteps(part string) ([]Step, int, error) {
	if !strings.HasPrefix(part, "/") {
		return nil, -1, fmt.Errorf("%w: step sequence %q must start with /", ErrInvalidLocator, part)
	}

	offset := -1
	if colon := strings.LastIndex(part, ":"); colon != -1 {
		parsed, err := strconv.Atoi(part[colon+1:])
		if err != nil || parsed < 0 {
			return nil, -1, fmt.Errorf("%w: bad offset in %q", ErrInvalidLocator, part)
		}
		offset = parsed
		part = part[:colon]
	}

	var steps []Step
	for _, raw := range strings.Split(part[1:], "/") {
		step, err := parseStep(raw)
		if err != nil {
			return nil, -1, err
		}
		steps = append(steps, step)
	}
	return steps, offset, nil
}

func parseStep(raw string) (Step, error) {
	assertion := ""
	if open := strings.Index(raw, "["); open != -1 {
		if !strings.HasSuffix(raw, "]") {
			return Step{}, fmt.Errorf("%w: unterminated assertion in %q", ErrInvalidLocator, raw)
		}
		assertion = raw[open+1 : len(raw)-1]
		raw = raw[:open]
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return Step{}, fmt.Errorf("%w: bad step %q", ErrInvalidLocator, raw)
	}
	return Step{Index: index, Assertion: assertion}, nil
}

// String serializes the locator back to its "epubcfi(...)" form, assertions
// included.
func (l Locator) String() string {
	return prefix + l.body(true) + suffix
}

// Normalize returns the canonical form of the locator: assertions stripped.
// Two locators addressing the same content position normalize to the same
// string.
func (l Locator) Normalize() string {
	return prefix + l.body(false) + suffix
}

func (l Locator) body(withAssertions bool) string {
	var b strings.Builder
	for pi, part := range l.Parts {
		if pi > 0 {
			b.WriteByte('!')
		}
		for _, step := range part {
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(step.Index))
			if withAssertions && step.Assertion != "" {
				b.WriteByte('[')
				b.WriteString(step.Assertion)
				b.WriteByte(']')
			}
		}
	}
	if l.Offset >= 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(l.Offset))
	}
	return b.String()
}

// Compare orders two locators from the same book. It walks the flattened step
// sequence; a locator that is a strict prefix of another sorts first, and the
// character offset breaks ties on equal paths.
func Compare(a, b Locator) int {
	as, bs := a.flatten(), b.flatten()
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}
	if len(as) != len(bs) {
		if len(as) < len(bs) {
			return -1
		}
		return 1
	}
	switch {
	case a.Offset == b.Offset:
		return 0
	case a.Offset < b.Offset:
		return -1
	default:
		return 1
	}
}

// flatten folds parts into a single index sequence for ordering. The
// indirection boundary itself is order-neutral.
func (l Locator) flatten() []int {
	var out []int
	for _, part := range l.Parts {
		for _, step := range part {
			out = append(out, step.Index)
		}
	}
	return out
}

// SpineIndex derives the index of the spine item the locator points into.
// CFI element steps are even-numbered, so the second step of the first part
// maps to spine position step/2 - 1. Returns -1 when the shape is unexpected.
func (l Locator) SpineIndex() int {
	if len(l.Parts) == 0 || len(l.Parts[0]) < 2 {
		return -1
	}
	step := l.Parts[0][1].Index
	if step < 2 || step%2 != 0 {
		return -1
	}
	return step/2 - 1
}

// Fraction computes the fractional position of the locator within the book's
// linear extent, given per-spine-item character extents. Feeds the progress
// tracker's percentComplete.
func Fraction(l Locator, extents []int) float64 {
	total := 0
	for _, e := range extents {
		total += e
	}
	if total == 0 {
		return 0
	}

	idx := l.SpineIndex()
	if idx < 0 {
		return 0
	}
	if idx >= len(extents) {
		return 1
	}

	before := 0
	for i := 0; i < idx; i++ {
		before += extents[i]
	}
	within := 0
	if l.Offset > 0 {
		within = l.Offset
		if within > extents[idx] {
			within = extents[idx]
		}
	}
	return float64(before+within) / float64(total)
}

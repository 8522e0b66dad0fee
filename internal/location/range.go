package location

import (
	"fmt"
	"sort"
	"strings"
)

// Range is a parsed three-part CFI range "epubcfi(parent,start,end)". The
// parent is the shared path prefix; start and end are relative continuations.
type Range struct {
	Parent string
	Start  string
	End    string
}

// ParseRange splits a range token into its parent/start/end components.
// Returns an error for anything that is not a three-part range.
func ParseRange(raw string) (Range, error) {
	body, err := unwrap(raw)
	if err != nil {
		return Range{}, err
	}
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return Range{}, fmt.Errorf("%w: range %q must have three parts", ErrInvalidLocator, raw)
	}
	return Range{Parent: parts[0], Start: parts[1], End: parts[2]}, nil
}

// String re-serializes the range.
func (r Range) String() string {
	return prefix + r.Parent + "," + r.Start + "," + r.End + suffix
}

// FullStart returns the absolute locator of the range start.
func (r Range) FullStart() (Locator, error) {
	return parseBody(r.Parent + r.Start)
}

// FullEnd returns the absolute locator of the range end.
func (r Range) FullEnd() (Locator, error) {
	return parseBody(r.Parent + r.End)
}

// NewRange builds a range token from two absolute locator strings. The common
// prefix is factored out, backtracking so the split lands on a path delimiter
// rather than inside a step number.
func NewRange(start, end string) (string, error) {
	sb, err := unwrap(start)
	if err != nil {
		return "", err
	}
	eb, err := unwrap(end)
	if err != nil {
		return "", err
	}

	i := 0
	for i < len(sb) && i < len(eb) && sb[i] == eb[i] {
		i++
	}
	// i may sit one past the end of sb when one body is a prefix of the
	// other (identical endpoints, or same-node offsets like :1 and :12).
	for i > 0 {
		if i < len(sb) {
			c := sb[i]
			if c == '/' || c == '!' || c == ':' {
				break
			}
		}
		i--
	}

	return prefix + sb[:i] + "," + sb[i:] + "," + eb[i:] + suffix, nil
}

// parsedRange pairs a Range with its resolved endpoints for sorting/merging.
type parsedRange struct {
	start Locator
	end   Locator
}

// MergeRanges coalesces a set of range tokens, optionally with one new range,
// into a minimal sorted set of non-overlapping ranges. Tokens that fail to
// parse are dropped; the reading-history store only ever feeds it tokens it
// produced itself.
func MergeRanges(ranges []string, newRange string) []string {
	all := ranges
	if newRange != "" {
		all = append(append([]string{}, ranges...), newRange)
	}
	if len(all) == 0 {
		return nil
	}

	var parsed []parsedRange
	for _, raw := range all {
		r, err := ParseRange(raw)
		if err != nil {
			continue
		}
		start, err := r.FullStart()
		if err != nil {
			continue
		}
		end, err := r.FullEnd()
		if err != nil {
			continue
		}
		parsed = append(parsed, parsedRange{start: start, end: end})
	}
	if len(parsed) == 0 {
		return nil
	}

	sort.Slice(parsed, func(i, j int) bool {
		return Compare(parsed[i].start, parsed[j].start) < 0
	})

	merged := []parsedRange{parsed[0]}
	for _, next := range parsed[1:] {
		current := &merged[len(merged)-1]
		if Compare(next.start, current.end) <= 0 {
			if Compare(next.end, current.end) > 0 {
				current.end = next.end
			}
		} else {
			merged = append(merged, next)
		}
	}

	out := make([]string, 0, len(merged))
	for _, m := range merged {
		token, err := NewRange(m.start.String(), m.end.String())
		if err != nil {
			continue
		}
		out = append(out, token)
	}
	return out
}

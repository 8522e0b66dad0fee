// Package tts implements the text side of the text-to-speech pipeline:
// sentence segmentation, text sanitization, pronunciation lexicon substitution
// and the playback queue state machine. Audio synthesis itself lives behind an
// external provider; this package only produces the sentence queue that
// drives it.
package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SentenceUnit is one entry of the playback queue. Start/End reference the
// visible-text coordinate space the unit was extracted from; indices are only
// stable within one visible-text version.
type SentenceUnit struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Spoken string `json:"spoken"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// DefaultAbbreviations are terminal-dot words that never end a sentence.
// User-supplied additions extend, not replace, this list.
var DefaultAbbreviations = []string{
	"Mr.", "Mrs.", "Ms.", "Prof.", "Gen.", "Rep.", "Sen.",
	"Jr.", "Sr.", "vs.", "etc.", "i.e.", "e.g.", "cf.",
}

// Segmenter splits visible text into sentence units.
type Segmenter struct {
	abbreviations map[string]struct{}
}

// NewSegmenter creates a segmenter with the default abbreviation list plus the
// supplied extras. Matching is case-insensitive.
func NewSegmenter(extra []string) *Segmenter {
	abbrev := make(map[string]struct{}, len(DefaultAbbreviations)+len(extra))
	for _, a := range DefaultAbbreviations {
		abbrev[strings.ToLower(a)] = struct{}{}
	}
	for _, a := range extra {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !strings.HasSuffix(a, ".") {
			a += "."
		}
		abbrev[strings.ToLower(a)] = struct{}{}
	}
	return &Segmenter{abbreviations: abbrev}
}

// Segment splits text into sentence units. Empty or whitespace-only input
// yields an empty sequence; that is "no text available", not an error.
func (s *Segmenter) Segment(text string) []SentenceUnit {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []SentenceUnit
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminal(r) {
			i += size
			continue
		}

		// Fold runs of terminators ("...", "?!") into one break point.
		end := i + size
		for end < len(text) {
			nr, nsize := utf8.DecodeRuneInString(text[end:])
			if !isTerminal(nr) {
				break
			}
			end += nsize
		}
		// Trailing closers stay attached to the sentence, so "Ms. Jones"
		// inside quotes or brackets does not detach its terminator.
		for end < len(text) {
			nr, nsize := utf8.DecodeRuneInString(text[end:])
			if !isCloser(nr) {
				break
			}
			end += nsize
		}

		if r == '.' && s.isAbbreviation(text, i) {
			i = end
			continue
		}
		if r == '.' && splitsNumber(text, i) {
			i = end
			continue
		}
		if !startsNewSentence(text, end) {
			i = end
			continue
		}

		if unit, ok := makeUnit(text, start, end); ok {
			units = append(units, unit)
		}
		start = end
		i = end
	}

	if unit, ok := makeUnit(text, start, len(text)); ok {
		units = append(units, unit)
	}

	for idx := range units {
		units[idx].Index = idx
	}
	return units
}

// makeUnit trims a candidate span and reports whether anything speakable is
// left in it.
func makeUnit(text string, start, end int) (SentenceUnit, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	trimmed := strings.TrimRightFunc(text[start:end], unicode.IsSpace)
	if trimmed == "" {
		return SentenceUnit{}, false
	}
	return SentenceUnit{
		Text:  trimmed,
		Start: start,
		End:   start + len(trimmed),
	}, true
}

// isAbbreviation reports whether the dot at byte offset i terminates a known
// abbreviation rather than a sentence.
func (s *Segmenter) isAbbreviation(text string, i int) bool {
	wordStart := i
	for wordStart > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:wordStart])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		wordStart -= size
	}
	word := strings.ToLower(text[wordStart : i+1])
	_, ok := s.abbreviations[word]
	return ok
}

// splitsNumber reports whether the dot sits between two digits ("3.14").
func splitsNumber(text string, i int) bool {
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	if !unicode.IsDigit(prev) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(text[i+1:])
	return unicode.IsDigit(next)
}

// startsNewSentence reports whether the text following a break point looks
// like a fresh sentence: end of input, or whitespace followed by anything that
// is not a lowercase continuation.
func startsNewSentence(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, size := utf8.DecodeRuneInString(text[end:])
	if !unicode.IsSpace(r) {
		return false
	}
	j := end + size
	for j < len(text) {
		nr, nsize := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(nr) {
			return !unicode.IsLower(nr)
		}
		j += nsize
	}
	return true
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '»', '”', '’':
		return true
	}
	return false
}

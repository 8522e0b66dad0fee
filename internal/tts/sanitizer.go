package tts

import (
	"regexp"
	"strings"
)

// Sanitize strips non-speech artifacts from one extracted text block before it
// is handed to the synthesizer: standalone page numbers, visual separators,
// URLs (reduced to their domain) and citation markers. Blocks that carry no
// speech at all come back empty.
func Sanitize(text string) string {
	if pageNumberRe.MatchString(text) {
		return ""
	}
	if separatorRe.MatchString(text) {
		return ""
	}

	out := urlRe.ReplaceAllString(text, "$1")
	out = numericCitationRe.ReplaceAllString(out, "")
	out = authorYearCitationRe.ReplaceAllString(out, "")

	out = spaceRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

var (
	// A block that is nothing but a (possibly labelled) page number.
	pageNumberRe = regexp.MustCompile(`(?i)^\s*(?:(?:page|pg\.?)\s*)?\d+\s*$`)

	// A block that is nothing but a visual separator run.
	separatorRe = regexp.MustCompile(`^\s*(?:\*{3,}|-{3,}|_{3,})\s*$`)

	// URLs collapse to their domain. The optional path tail must not end in
	// sentence punctuation so a trailing period stays with the sentence.
	urlRe = regexp.MustCompile(`https?://(?:www\.)?([-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,63})(?:[-a-zA-Z0-9()@:%_+.~#?&/=]*[^.,?!:;"'` + "`" + `\s])?`)

	// Citation markers: "[1]", "[1, 2, 3]" and author-year forms like
	// "(Smith, 2020)" or "(Jones 2021:24)".
	numericCitationRe    = regexp.MustCompile(`\[\d+(?:\s*,\s*\d+)*\]`)
	authorYearCitationRe = regexp.MustCompile(`\([A-Z][^()]*\d{4}(?::\d+)?[^()]*\)`)

	spaceRunRe = regexp.MustCompile(`[ \t]{2,}`)
)

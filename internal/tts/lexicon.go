package tts

import (
	"regexp"

	"github.com/fossabot/versicle/internal/storage"
)

// LexiconRule is one pronunciation substitution. Rules apply in list order;
// list order is the only precedence, so callers that need longest-match-wins
// order their rules accordingly.
type LexiconRule struct {
	Original      string
	Replacement   string
	IsRegex       bool
	CaseSensitive bool
}

// RulesFromRecords converts persisted lexicon records into rules, preserving
// their stored order.
func RulesFromRecords(records []storage.LexiconRuleRecord) []LexiconRule {
	rules := make([]LexiconRule, 0, len(records))
	for _, rec := range records {
		rules = append(rules, LexiconRule{
			Original:      rec.Original,
			Replacement:   rec.Replacement,
			IsRegex:       rec.IsRegex,
			CaseSensitive: rec.CaseSensitive,
		})
	}
	return rules
}

// span is a piece of the working text. Consumed spans hold replacement text
// and are never reconsidered by later rules, so substitution cannot recurse
// into its own output.
type span struct {
	text     string
	consumed bool
}

// ApplyLexicon rewrites sentence text according to the rules, in order.
// Matching is literal-substring by default, case-insensitive unless the rule
// says otherwise; regex rules use Go regexp syntax. Rules whose pattern fails
// to compile are skipped.
func ApplyLexicon(text string, rules []LexiconRule) string {
	if text == "" || len(rules) == 0 {
		return text
	}

	spans := []span{{text: text}}
	for _, rule := range rules {
		re, err := compileRule(rule)
		if err != nil {
			continue
		}
		var next []span
		for _, sp := range spans {
			if sp.consumed || sp.text == "" {
				next = append(next, sp)
				continue
			}
			next = append(next, splitSpan(sp.text, re, rule.Replacement)...)
		}
		spans = next
	}

	out := make([]byte, 0, len(text))
	for _, sp := range spans {
		out = append(out, sp.text...)
	}
	return string(out)
}

// splitSpan applies one compiled rule to an unconsumed span, marking the
// replacement pieces consumed.
func splitSpan(text string, re *regexp.Regexp, replacement string) []span {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []span{{text: text}}
	}

	var out []span
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, span{text: text[prev:loc[0]]})
		}
		out = append(out, span{text: replacement, consumed: true})
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, span{text: text[prev:]})
	}
	return out
}

func compileRule(rule LexiconRule) (*regexp.Regexp, error) {
	pattern := rule.Original
	if !rule.IsRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !rule.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

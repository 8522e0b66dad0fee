package tts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fossabot/versicle/internal/storage"
)

const lexiconCSVHeader = "original,replacement,isRegex,caseSensitive"

// ParseLexiconCSV reads user-importable lexicon rules. The expected layout is
// a header row followed by original,replacement[,isRegex[,caseSensitive]]
// rows; rows missing the replacement column are skipped.
func ParseLexiconCSV(r io.Reader) ([]storage.LexiconRuleRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows may omit the boolean columns
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse lexicon csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil // header only or empty
	}

	var rules []storage.LexiconRuleRecord
	for _, row := range rows[1:] {
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		rec := storage.LexiconRuleRecord{
			Original:    row[0],
			Replacement: row[1],
		}
		if len(row) > 2 {
			rec.IsRegex = parseCSVBool(row[2])
		}
		if len(row) > 3 {
			rec.CaseSensitive = parseCSVBool(row[3])
		}
		rules = append(rules, rec)
	}
	return rules, nil
}

// WriteLexiconCSV serializes rules in the import format.
func WriteLexiconCSV(w io.Writer, rules []storage.LexiconRuleRecord) error {
	if _, err := fmt.Fprintln(w, lexiconCSVHeader); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	for _, rec := range rules {
		row := []string{
			rec.Original,
			rec.Replacement,
			strconv.FormatBool(rec.IsRegex),
			strconv.FormatBool(rec.CaseSensitive),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseListCSV reads a one-column list (used for the abbreviation settings).
// A first line equal to the expected header, case-insensitively, is skipped.
func ParseListCSV(r io.Reader, expectedHeader string) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read list csv: %w", err)
	}

	var items []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(items) == 0 && expectedHeader != "" && strings.EqualFold(line, expectedHeader) {
			expectedHeader = "" // header consumed
			continue
		}
		items = append(items, line)
	}
	return items, nil
}

// WriteListCSV serializes a one-column list with the given header.
func WriteListCSV(w io.Writer, items []string, header string) error {
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(w, item); err != nil {
			return err
		}
	}
	return nil
}

func parseCSVBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1"
}

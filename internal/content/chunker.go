package content

import (
	"strings"
	"unicode/utf8"
)

const (
	minChunkSize = 50
	maxChunkSize = 700 // runes, targets ~450 tokens for a 512-token embedding model
)

// Chunk is one piece of chapter text sized for embedding.
type Chunk struct {
	Index int
	Text  string
}

// ChunkText splits extracted chapter text into chunks for the search index.
// Paragraphs are packed together up to maxChunkSize; chunks shorter than
// minChunkSize are merged forward; oversized paragraphs are split at
// paragraph, line, then sentence boundaries. Size is measured in runes to
// stay consistent with embedding token estimation.
func ChunkText(text string) []Chunk {
	paragraphs := strings.Split(normalize(text), "\n\n")

	var chunks []Chunk
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Text: current.String()})
		current.Reset()
	}

	for _, p := range paragraphs {
		if p == "" {
			continue
		}
		pRunes := utf8.RuneCountInString(p)
		curRunes := utf8.RuneCountInString(current.String())

		if curRunes > 0 && curRunes+pRunes+2 > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	chunks = mergeSmall(chunks)

	var result []Chunk
	for _, c := range chunks {
		result = append(result, splitOversized(c)...)
	}
	for i := range result {
		result[i].Index = i
	}
	return result
}

// mergeSmall merges chunks below minChunkSize into their successor when the
// merge stays within maxChunkSize.
func mergeSmall(chunks []Chunk) []Chunk {
	var out []Chunk
	i := 0
	for i < len(chunks) {
		current := chunks[i]
		for i+1 < len(chunks) && utf8.RuneCountInString(current.Text) < minChunkSize {
			merged := current.Text + "\n\n" + chunks[i+1].Text
			if utf8.RuneCountInString(merged) > maxChunkSize {
				break
			}
			current.Text = merged
			i++
		}
		out = append(out, current)
		i++
	}
	return out
}

// splitOversized splits a chunk that exceeds maxChunkSize, preferring
// paragraph boundaries, then line breaks, then sentence ends, then a hard
// split.
func splitOversized(chunk Chunk) []Chunk {
	if utf8.RuneCountInString(chunk.Text) <= maxChunkSize {
		return []Chunk{chunk}
	}

	var splits []Chunk
	runes := []rune(chunk.Text)
	start := 0
	for start < len(runes) {
		end := start + maxChunkSize
		if end >= len(runes) {
			splits = append(splits, Chunk{Text: string(runes[start:])})
			break
		}

		window := string(runes[start:end])
		splitPoint := end
		if b := strings.LastIndex(window, "\n\n"); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 2
		} else if b := strings.LastIndex(window, "\n"); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 1
		} else if b := strings.LastIndex(window, ". "); b != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:b]) + 2
		}

		splits = append(splits, Chunk{Text: strings.TrimSpace(string(runes[start:splitPoint]))})
		start = splitPoint
	}
	return splits
}

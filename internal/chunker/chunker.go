// Package chunker splits extracted document text into overlapping
// fixed-size segments sized for embedding.
package chunker

import (
	"strings"

	"github.com/askdocs/askdocs/internal/extract"
)

// Fragment is one chunk of a source document, carrying its provenance label.
type Fragment struct {
	Text   string
	Source string
}

// Splitter cuts text into segments of at most size characters with
// overlap characters shared between consecutive segments.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. Invalid values fall back to 1000/200.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 200
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// SplitDocuments splits each document's text, preserving the source label
// on every resulting fragment. Empty input yields no fragments.
func (s *Splitter) SplitDocuments(docs []extract.Document) []Fragment {
	var fragments []Fragment
	for _, doc := range docs {
		for _, seg := range s.Split(doc.Text) {
			fragments = append(fragments, Fragment{Text: seg, Source: doc.Source})
		}
	}
	return fragments
}

// Split cuts text into segments of at most s.size characters. Cuts prefer
// a paragraph break, then a line break, then a word boundary inside the
// window before falling back to a hard character cut. Segments are
// whitespace-trimmed and never empty.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []string{strings.TrimSpace(text)}
	}

	var segments []string
	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cutPoint(runes, start, end)
		}

		if seg := strings.TrimSpace(string(runes[start:end])); seg != "" {
			segments = append(segments, seg)
		}

		if end == len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			// Always make forward progress, even with pathological overlap.
			next = start + 1
		}
		start = next
	}

	return segments
}

// cutPoint finds the best cut position in runes[start:limit], scanning
// backward for a boundary in the second half of the window so segments
// stay reasonably full.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	floor := start + s.size/2

	// Paragraph break.
	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}
	// Line break.
	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	// Word boundary.
	for i := limit - 1; i > floor; i-- {
		if runes[i] == ' ' || runes[i] == '\t' {
			return i + 1
		}
	}
	return limit
}

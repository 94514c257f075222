// Package chunker splits normalized document text into overlapping windows
// that end on sentence boundaries where possible.
package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultSize is the default window length in characters.
	DefaultSize = 1000

	// DefaultOverlap is the default number of characters shared by
	// neighbouring windows.
	DefaultOverlap = 200

	// boundaryWindow is how far back from a window's end the chunker looks
	// for a sentence-ending period.
	boundaryWindow = 100
)

// Chunk is a contiguous window of a document. StartPos and EndPos are
// character offsets into the normalized text; Text is the trimmed window.
type Chunk struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	StartPos int    `json:"start_pos"`
	EndPos   int    `json:"end_pos"`
}

// Validate checks the chunking parameters.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: size %d, overlap %d", ErrInvalidOverlap, size, overlap)
	}
	return nil
}

// Split cuts text into windows of at most size characters, each sharing
// overlap characters with the previous one. A window that does not reach the
// end of the text is shortened to end just after the last '.' found within
// its final 100 characters. Empty text yields an empty slice.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	chunks := []Chunk{}
	runes := []rune(text)
	if len(runes) == 0 {
		return chunks, nil
	}

	start := 0
	for start < len(runes) {
		end := start + size
		if end < len(runes) {
			end = sentenceEnd(runes, start, end, overlap)
		} else {
			end = len(runes)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, Chunk{
				ID:       len(chunks),
				Text:     piece,
				StartPos: start,
				EndPos:   end,
			})
		}

		if end >= len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks, nil
}

// sentenceEnd returns the offset just past the last period in
// [max(end-boundaryWindow, start), end). The window keeps its full length
// when there is no period, or when snapping would stop the cursor from
// moving forward.
func sentenceEnd(runes []rune, start, end, overlap int) int {
	lo := max(end-boundaryWindow, start)
	for i := end - 1; i >= lo; i-- {
		if runes[i] != '.' {
			continue
		}
		if i+1-overlap > start {
			return i + 1
		}
		break
	}
	return end
}

// Package indexer splits documents into chunks and discovers them on disk.
package indexer

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidText is returned when text is not valid UTF-8.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// Chunker splits text into overlapping character windows.
type Chunker struct {
	size    int
	overlap int
	minLen  int
}

// NewChunker creates a chunker producing windows of size runes that overlap by
// overlap runes. Fragments of minLen runes or fewer are dropped.
func NewChunker(size, overlap, minLen int) *Chunker {
	if size <= 0 {
		size = 300
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap, minLen: minLen}
}

// Stride is the distance between the starts of consecutive windows.
func (c *Chunker) Stride() int {
	if s := c.size - c.overlap; s > 0 {
		return s
	}
	return 1
}

// Chunk splits text into trimmed fragments. When every fragment is too short the
// whole trimmed text is returned as a single fragment. Blank text yields nil.
func (c *Chunker) Chunk(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidText
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	stride := c.Stride()
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		frag := strings.TrimSpace(string(runes[start:end]))
		if utf8.RuneCountInString(frag) > c.minLen {
			chunks = append(chunks, frag)
		}
	}
	if len(chunks) == 0 {
		return []string{text}, nil
	}
	return chunks, nil
}

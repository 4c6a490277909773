// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import (
	"fmt"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Span is one window of the source text. Start and End are rune offsets,
// End exclusive.
type Span struct {
	Index int
	Start int
	End   int
	Text  string
}

// Validate rejects parameters for which the window would never advance.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidInput, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", domain.ErrInvalidInput, overlap, size)
	}
	return nil
}

// Split cuts text into windows of at most size runes. Each window starts
// size-overlap runes after the previous one; the last may be shorter.
// Empty text yields no spans.
func Split(text string, size, overlap int) ([]Span, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	spans := make([]Span, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		spans = append(spans, Span{
			Index: len(spans),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
	}
	return spans, nil
}

// Chunker holds validated parameters so callers can split repeatedly.
type Chunker struct {
	size    int
	overlap int
}

// New validates size and overlap once.
func New(size, overlap int) (*Chunker, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Split(text string) []Span {
	spans, _ := Split(text, c.size, c.overlap)
	return spans
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

func TestSplit_Empty(t *testing.T) {
	spans, err := Split("", 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %d", len(spans))
	}
}

func TestSplit_InvalidParams(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if _, err := New(tt.size, tt.overlap); err == nil {
				t.Error("New should reject the same parameters")
			}
		})
	}
}

func TestSplit_ShortText(t *testing.T) {
	spans, err := Split("hello", 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Text != "hello" || spans[0].Start != 0 || spans[0].End != 5 {
		t.Errorf("unexpected span: %+v", spans[0])
	}
}

func TestSplit_Offsets(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	spans, err := Split(text, 10, 4)
	if err != nil {
		t.Fatal(err)
	}

	wantStarts := []int{0, 6, 12, 18, 24}
	if len(spans) != len(wantStarts) {
		t.Fatalf("expected %d spans, got %d", len(wantStarts), len(spans))
	}
	for i, s := range spans {
		if s.Index != i {
			t.Errorf("span %d has index %d", i, s.Index)
		}
		if s.Start != wantStarts[i] {
			t.Errorf("span %d starts at %d, want %d", i, s.Start, wantStarts[i])
		}
		if s.Text != text[s.Start:s.End] {
			t.Errorf("span %d text %q does not match offsets", i, s.Text)
		}
	}
	if spans[len(spans)-1].Text != "yz" {
		t.Errorf("final span = %q, want %q", spans[len(spans)-1].Text, "yz")
	}
}

// Coverage, ordering and overlap hold over a grid of inputs.
func TestSplit_Properties(t *testing.T) {
	texts := []string{
		"x",
		strings.Repeat("The plaintiff was injured. ", 40),
		"Déjà vu: §1983 claims — naïve café résumé ünïcödé",
	}
	params := [][2]int{{1, 0}, {5, 0}, {5, 4}, {7, 3}, {100, 20}, {1000, 200}}

	for _, text := range texts {
		runes := []rune(text)
		for _, p := range params {
			size, overlap := p[0], p[1]
			spans, err := Split(text, size, overlap)
			if err != nil {
				t.Fatalf("Split(size=%d, overlap=%d): %v", size, overlap, err)
			}
			if spans[0].Start != 0 {
				t.Errorf("first span must start at 0")
			}
			if spans[len(spans)-1].End != len(runes) {
				t.Errorf("last span must end at text length")
			}
			for i, s := range spans {
				if s.Text == "" {
					t.Errorf("span %d is empty", i)
				}
				if s.End-s.Start > size {
					t.Errorf("span %d longer than size %d", i, size)
				}
				if string(runes[s.Start:s.End]) != s.Text {
					t.Errorf("span %d text does not match offsets", i)
				}
				if i == 0 {
					continue
				}
				prev := spans[i-1]
				if s.Start <= prev.Start {
					t.Errorf("span %d does not advance", i)
				}
				if s.Start > prev.End {
					t.Errorf("gap between span %d and %d", i-1, i)
				}
				if prev.End-s.Start != overlap && prev.End != len(runes) {
					t.Errorf("spans %d/%d overlap by %d, want %d", i-1, i, prev.End-s.Start, overlap)
				}
			}
		}
	}
}

func TestChunker(t *testing.T) {
	c, err := New(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		t.Fatal(err)
	}
	spans := c.Split(strings.Repeat("a", 2500))
	if len(spans) != 4 {
		t.Errorf("expected 4 spans, got %d", len(spans))
	}
	if c.Size() != 1000 || c.Overlap() != 200 {
		t.Errorf("unexpected params %d/%d", c.Size(), c.Overlap())
	}
}

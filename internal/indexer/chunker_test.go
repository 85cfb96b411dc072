package indexer

import (
	"errors"
	"strings"
	"testing"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(10, 3, 2)
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %v, want %v", len(chunks), chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestChunker_ConsecutiveOverlap(t *testing.T) {
	c := NewChunker(300, 30, 50)
	text := strings.Repeat("0123456789", 100)
	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(chunks); i++ {
		cur, next := chunks[i], chunks[i+1]
		if len(cur) != 300 || len(next) < 30 {
			continue
		}
		if cur[len(cur)-30:] != next[:30] {
			t.Errorf("chunks %d and %d do not overlap by 30 characters", i, i+1)
		}
	}
	if len(chunks) < 3 {
		t.Errorf("expected several chunks, got %d", len(chunks))
	}
}

func TestChunker_ShortTextFallsBackToWhole(t *testing.T) {
	c := NewChunker(300, 30, 50)
	tests := []string{
		"Short note.",
		"  padded short note  \n",
		strings.Repeat("x", 50),
	}
	for _, in := range tests {
		chunks, err := c.Chunk(in)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 1 || chunks[0] != strings.TrimSpace(in) {
			t.Errorf("Chunk(%q) = %v, want single trimmed fragment", in, chunks)
		}
	}
}

func TestChunker_DropsShortTail(t *testing.T) {
	c := NewChunker(100, 0, 50)
	text := strings.Repeat("a", 100) + strings.Repeat("b", 20)
	chunks, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != strings.Repeat("a", 100) {
		t.Errorf("got %v", chunks)
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := NewChunker(300, 30, 50)
	for _, in := range []string{"", "   ", "\n\t  "} {
		chunks, err := c.Chunk(in)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 0 {
			t.Errorf("Chunk(%q) should be empty, got %v", in, chunks)
		}
	}
}

func TestChunker_Multibyte(t *testing.T) {
	c := NewChunker(4, 1, 0)
	chunks, err := c.Chunk("日本語のテキスト")
	if err != nil {
		t.Fatal(err)
	}
	if chunks[0] != "日本語の" || chunks[1] != "のテキス" {
		t.Errorf("got %v", chunks)
	}
}

func TestChunker_InvalidUTF8(t *testing.T) {
	_, err := NewChunker(300, 30, 50).Chunk("bad\xffbytes")
	if !errors.Is(err, ErrInvalidText) {
		t.Fatalf("expected ErrInvalidText, got %v", err)
	}
}

func TestChunker_Stride(t *testing.T) {
	tests := []struct {
		size, overlap, want int
	}{
		{300, 30, 270},
		{10, 10, 1},
		{10, 20, 1},
		{0, 0, 300},
	}
	for _, tt := range tests {
		if got := NewChunker(tt.size, tt.overlap, 0).Stride(); got != tt.want {
			t.Errorf("Stride(%d, %d) = %d, want %d", tt.size, tt.overlap, got, tt.want)
		}
	}
}

package rag

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("Mild headache since this morning.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Mild headache since this morning." {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	if got := s.Split("   \n\n  "); got != nil {
		t.Fatalf("expected nil for blank input, got %#v", got)
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	s := NewSplitter(40, 10)
	text := "First paragraph about fever.\n\nSecond paragraph about cough.\n\nThird paragraph about fatigue."
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if strings.Contains(c, "\n\n") {
			t.Fatalf("chunk crosses a paragraph break: %q", c)
		}
	}
}

func TestSplitRespectsSizeLimit(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("symptom onset was gradual over several days ", 20)
	for _, c := range s.Split(text) {
		if len(c) > 50 {
			t.Fatalf("chunk exceeds size limit (%d bytes): %q", len(c), c)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s := NewSplitter(60, 15)
	text := "Patient reports chest pain.\nPain worsens when breathing deeply.\nNo fever or cough reported.\nSymptoms started two days ago."
	a := s.Split(text)
	b := s.Split(text)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic chunk %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestSplitCoversAllContent(t *testing.T) {
	s := NewSplitter(50, 10)
	text := "Fever and chills overnight.\nDry cough since Monday.\nMild shortness of breath on exertion.\nNo chest pain at rest."
	chunks := s.Split(text)
	joined := strings.Join(chunks, "\n")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q lost during splitting", word)
		}
	}
	for _, c := range chunks {
		if !strings.Contains(text, c) {
			t.Fatalf("chunk is not a substring of the input: %q", c)
		}
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := NewSplitter(40, 20)
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		if len(prevWords) == 0 {
			continue
		}
		last := prevWords[len(prevWords)-1]
		if !strings.Contains(chunks[i], last) {
			t.Fatalf("chunk %d does not carry trailing context %q: %q", i, last, chunks[i])
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.Size != DefaultChunkSize || s.Overlap != DefaultChunkOverlap {
		t.Fatalf("unexpected defaults: %d/%d", s.Size, s.Overlap)
	}
}

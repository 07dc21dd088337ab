package rag

import (
	"testing"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestVectorSearchOrdersBySimilarity(t *testing.T) {
	idx := newTestIndex(t)
	add := func(id, content string, vec []float32) {
		if err := idx.Add(IndexedChunk{ID: id, Source: "kb", Content: content, Type: "text"}, vec); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}
	add("kb#0", "influenza overview", []float32{1, 0, 0})
	add("kb#1", "migraine overview", []float32{0, 1, 0})
	add("kb#2", "flu treatment", []float32{0.9, 0.1, 0})

	hits := idx.VectorSearch([]float32{1, 0, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "kb#0" || hits[1].Chunk.ID != "kb#2" {
		t.Fatalf("unexpected order: %s, %s", hits[0].Chunk.ID, hits[1].Chunk.ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("scores not descending: %f < %f", hits[0].Score, hits[1].Score)
	}
}

func TestVectorSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	if hits := idx.VectorSearch([]float32{1, 0}, 4); len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestKeywordSearchFindsTerm(t *testing.T) {
	idx := newTestIndex(t)
	chunks := []IndexedChunk{
		{ID: "kb#0", Source: "kb", Content: "Pneumonia is an infection that inflames the lungs.", Type: "text"},
		{ID: "kb#1", Source: "kb", Content: "Migraine causes intense throbbing headaches.", Type: "text"},
	}
	for _, c := range chunks {
		if err := idx.Add(c, nil); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	hits, err := idx.KeywordSearch("pneumonia", 4)
	if err != nil {
		t.Fatalf("KeywordSearch: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.ID != "kb#0" {
		t.Fatalf("unexpected hits: %#v", hits)
	}
}

func TestIndexLen(t *testing.T) {
	idx := newTestIndex(t)
	if idx.Len() != 0 {
		t.Fatalf("expected empty index")
	}
	if err := idx.Add(IndexedChunk{ID: "u#0", Source: "u", Content: "fever"}, []float32{1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 chunk, got %d", idx.Len())
	}
}

package rag

import (
	"math"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
)

// IndexedChunk is one chunk held in the in-memory index together with
// its source metadata.
type IndexedChunk struct {
	ID       string // "<source>#<seq>"
	Source   string
	Seq      int
	Content  string
	HasImage bool
	ImageID  string
	Type     string // "text" or "multimodal"
}

// SearchHit is one retrieval result. Score is cosine similarity for
// vector search (higher is more similar) or BM25 for keyword search.
type SearchHit struct {
	Chunk IndexedChunk
	Score float64
}

// Index holds the embedded chunks in memory: a flat vector list for
// cosine search plus a mem-only BM25 index over the same content for
// keyword search. Reads vastly outnumber writes.
type Index struct {
	mu      sync.RWMutex
	bleve   bleve.Index
	meta    map[string]IndexedChunk
	vectors []chunkVector
}

type chunkVector struct {
	id  string
	vec []float32
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{
		bleve: idx,
		meta:  make(map[string]IndexedChunk),
	}, nil
}

// Add indexes a chunk under both representations. A nil vector keeps
// the chunk keyword-searchable only.
func (x *Index) Add(chunk IndexedChunk, vec []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.meta[chunk.ID] = chunk
	if vec != nil {
		x.vectors = append(x.vectors, chunkVector{id: chunk.ID, vec: vec})
	}
	return x.bleve.Index(chunk.ID, map[string]string{"content": chunk.Content})
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.meta)
}

// VectorSearch returns up to k chunks ordered by descending cosine
// similarity to the query vector. An empty index yields an empty
// result.
func (x *Index) VectorSearch(q []float32, k int) []SearchHit {
	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		id    string
		score float64
	}
	scoreds := make([]scored, 0, len(x.vectors))
	for _, v := range x.vectors {
		scoreds = append(scoreds, scored{id: v.id, score: cosine(q, v.vec)})
	}
	sort.SliceStable(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })

	var out []SearchHit
	for _, sc := range scoreds {
		out = append(out, SearchHit{Chunk: x.meta[sc.id], Score: sc.score})
		if len(out) >= k {
			break
		}
	}
	return out
}

// KeywordSearch returns up to k chunks by BM25 relevance. Used as the
// degraded retrieval path when embeddings are unavailable.
func (x *Index) KeywordSearch(q string, k int) ([]SearchHit, error) {
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := x.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []SearchHit
	for _, hit := range res.Hits {
		out = append(out, SearchHit{Chunk: x.meta[hit.ID], Score: hit.Score})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

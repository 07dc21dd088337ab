package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/oubia/medtriage/internal/store"
	"github.com/oubia/medtriage/internal/vision"
	"github.com/oubia/medtriage/provider"
)

const embedBatchSize = 64

// ChunkStore is the persistence boundary for knowledge-base chunks.
// *store.Store satisfies it; a nil ChunkStore keeps everything in
// memory.
type ChunkStore interface {
	InsertChunks(ctx context.Context, recs []store.ChunkRecord) error
	ListChunks(ctx context.Context) ([]store.ChunkRecord, error)
}

// Result is one similarity-search hit surfaced to callers.
type Result struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Type    string  `json:"type"`
	ImageID string  `json:"image_id,omitempty"`
	Match   string  `json:"match"` // "vector", or "keyword" when embeddings were unavailable
}

// HybridResult carries both retrieval channels, unmerged.
type HybridResult struct {
	VectorResults []Result `json:"vector_results"`
	GraphResults  string   `json:"graph_results"`
}

// IngestResult reports a multimodal ingestion outcome.
type IngestResult struct {
	Success       bool   `json:"success"`
	TextChunks    int    `json:"text_chunks"`
	ImageID       string `json:"image_id,omitempty"`
	ImageAnalysis string `json:"image_analysis,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Service is the hybrid retrieval layer: vector search over embedded
// chunks plus lexical lookup in the entity graph, with ingestion of
// text and image-bearing content.
type Service struct {
	provider provider.Provider
	index    *Index
	graph    *Graph
	splitter *Splitter
	chunks   ChunkStore
	images   *vision.Analyzer
	topK     int
	logger   *log.Logger
}

func NewService(p provider.Provider, index *Index, graph *Graph, splitter *Splitter, chunks ChunkStore, images *vision.Analyzer, topK int) *Service {
	if topK <= 0 {
		topK = 4
	}
	return &Service{
		provider: p,
		index:    index,
		graph:    graph,
		splitter: splitter,
		chunks:   chunks,
		images:   images,
		topK:     topK,
		logger:   log.New(log.Writer(), "[RAG] ", log.LstdFlags),
	}
}

// TopK returns the default result count for searches.
func (s *Service) TopK() int { return s.topK }

// Graph exposes the entity graph for neighbourhood queries.
func (s *Service) Graph() *Graph { return s.graph }

// SimilaritySearch returns up to k chunks ranked by cosine similarity
// (higher is more similar). When the embedding call fails it degrades
// to BM25 keyword search over the same chunks, tagging the results so
// callers can tell; an empty index yields an empty result.
func (s *Service) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = s.topK
	}
	if s.index.Len() == 0 {
		return nil, nil
	}

	vecs, err := s.provider.CreateEmbedding(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		s.logger.Printf("embedding failed, falling back to keyword search: %v", err)
		hits, kerr := s.index.KeywordSearch(query, k)
		if kerr != nil {
			return nil, fmt.Errorf("keyword fallback failed: %w", kerr)
		}
		return toResults(hits, "keyword"), nil
	}
	return toResults(s.index.VectorSearch(vecs[0], k), "vector"), nil
}

// KeywordSearch queries the BM25 index directly, without touching the
// embedding backend. Health checks use it as a cheap liveness probe.
func (s *Service) KeywordSearch(query string, k int) ([]Result, error) {
	hits, err := s.index.KeywordSearch(query, k)
	if err != nil {
		return nil, err
	}
	return toResults(hits, "keyword"), nil
}

// GraphQuery performs the lexical knowledge-graph lookup.
func (s *Service) GraphQuery(query string) string {
	return s.graph.Query(query)
}

// HybridSearch runs both retrieval channels and returns them unmerged.
func (s *Service) HybridSearch(ctx context.Context, query string, k int) (HybridResult, error) {
	vector, err := s.SimilaritySearch(ctx, query, k)
	if err != nil {
		return HybridResult{}, err
	}
	return HybridResult{
		VectorResults: vector,
		GraphResults:  s.graph.Query(query),
	}, nil
}

// IngestText splits the text, embeds every chunk, persists the rows
// and indexes them. Returns the number of chunks created.
func (s *Service) IngestText(ctx context.Context, text, source string) (int, error) {
	if source == "" {
		source = "user"
	}
	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return 0, nil
	}

	chunks := make([]IndexedChunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = IndexedChunk{
			ID:      fmt.Sprintf("%s#%d", source, i),
			Source:  source,
			Seq:     i,
			Content: content,
			Type:    "text",
		}
	}
	if err := s.indexChunks(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IngestMultimodal ingests text plus an optional image. With an image
// the stored document combines the patient text, a short vision
// summary and the detailed findings; a failure on the image path
// yields success=false with zero chunks indexed.
func (s *Service) IngestMultimodal(ctx context.Context, text, imageData, source string, saveImage bool) IngestResult {
	if imageData == "" {
		if text == "" {
			return IngestResult{Success: true}
		}
		n, err := s.IngestText(ctx, text, source)
		if err != nil {
			return IngestResult{Error: err.Error()}
		}
		return IngestResult{Success: true, TextChunks: n}
	}

	summary := s.images.Summarize(ctx, imageData)
	analysis, err := s.images.Analyze(ctx, imageData, text, saveImage)
	if err != nil {
		res := IngestResult{Error: err.Error()}
		if analysis != nil {
			res.ImageID = analysis.ImageID
		}
		return res
	}

	combined := ""
	if text != "" {
		combined += fmt.Sprintf("Patient Query: %s\n\n", text)
	}
	combined += fmt.Sprintf("Medical Image Analysis:\n%s\n\n", summary)
	combined += fmt.Sprintf("Detailed Findings:\n%s", analysis.Analysis)

	if source == "" {
		source = "user"
	}
	pieces := s.splitter.Split(combined)
	chunks := make([]IndexedChunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = IndexedChunk{
			ID:       fmt.Sprintf("%s#%d", source, i),
			Source:   source,
			Seq:      i,
			Content:  content,
			HasImage: true,
			ImageID:  analysis.ImageID,
			Type:     "multimodal",
		}
	}
	if err := s.indexChunks(ctx, chunks); err != nil {
		return IngestResult{ImageID: analysis.ImageID, Error: err.Error()}
	}
	return IngestResult{
		Success:       true,
		TextChunks:    len(chunks),
		ImageID:       analysis.ImageID,
		ImageAnalysis: analysis.Analysis,
	}
}

// Rehydrate rebuilds the in-memory index from the persisted chunk
// rows. Chunks whose re-embedding fails stay keyword-searchable.
func (s *Service) Rehydrate(ctx context.Context) (int, error) {
	if s.chunks == nil {
		return 0, nil
	}
	recs, err := s.chunks.ListChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading chunks: %w", err)
	}
	for start := 0; start < len(recs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(recs) {
			end = len(recs)
		}
		batch := recs[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Content
		}
		vecs, err := s.provider.CreateEmbedding(ctx, texts)
		if err != nil {
			s.logger.Printf("re-embedding batch failed, indexing keyword-only: %v", err)
			vecs = nil
		}
		for i, rec := range batch {
			chunk := IndexedChunk{
				ID:       fmt.Sprintf("%s#%d", rec.Source, rec.Seq),
				Source:   rec.Source,
				Seq:      rec.Seq,
				Content:  rec.Content,
				HasImage: rec.HasImage,
				ImageID:  rec.ImageID,
				Type:     chunkType(rec.HasImage),
			}
			var vec []float32
			if vecs != nil && i < len(vecs) {
				vec = vecs[i]
			}
			if err := s.index.Add(chunk, vec); err != nil {
				return 0, err
			}
		}
	}
	return len(recs), nil
}

// indexChunks embeds, persists and indexes a batch.
func (s *Service) indexChunks(ctx context.Context, chunks []IndexedChunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.provider.CreateEmbedding(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	if s.chunks != nil {
		recs := make([]store.ChunkRecord, len(chunks))
		for i, c := range chunks {
			recs[i] = store.ChunkRecord{
				Source:   c.Source,
				Seq:      c.Seq,
				Content:  c.Content,
				HasImage: c.HasImage,
				ImageID:  c.ImageID,
			}
		}
		if err := s.chunks.InsertChunks(ctx, recs); err != nil {
			return fmt.Errorf("persisting chunks: %w", err)
		}
	}

	for i, c := range chunks {
		var vec []float32
		if i < len(vecs) {
			vec = vecs[i]
		}
		if err := s.index.Add(c, vec); err != nil {
			return err
		}
	}
	return nil
}

func toResults(hits []SearchHit, match string) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{
			Content: h.Chunk.Content,
			Source:  h.Chunk.Source,
			Score:   h.Score,
			Type:    h.Chunk.Type,
			ImageID: h.Chunk.ImageID,
			Match:   match,
		})
	}
	return out
}

func chunkType(hasImage bool) string {
	if hasImage {
		return "multimodal"
	}
	return "text"
}

package rag

import "strings"

// Default chunking geometry for knowledge-base text.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// chunkSeparators is the preference order for split points: paragraph
// break, line break, word break, then single characters.
var chunkSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most Size bytes, preferring the
// coarsest separator that keeps pieces under the limit, and carries
// Overlap bytes of trailing context into the next chunk.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split recursively partitions text. The result is deterministic and,
// modulo surrounding whitespace, covers every piece of the input.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, chunkSeparators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			rest = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	parts := strings.Split(text, sep)

	var chunks []string
	var pending []string
	for _, part := range parts {
		if len(part) < s.Size {
			pending = append(pending, part)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, part)
		} else {
			chunks = append(chunks, s.split(part, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, sep)...)
	}
	return chunks
}

// merge packs small pieces into chunks of at most Size bytes joined by
// sep, sliding a window so consecutive chunks share roughly Overlap
// bytes of trailing context.
func (s *Splitter) merge(parts []string, sep string) []string {
	sepLen := len(sep)
	var chunks []string
	var window []string
	total := 0

	joinLen := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, part := range parts {
		if total+len(part)+joinLen(len(window)) > s.Size && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.Overlap || (total+len(part)+joinLen(len(window)) > s.Size && total > 0) {
				total -= len(window[0]) + joinLen(len(window)-1)
				window = window[1:]
			}
		}
		total += len(part) + joinLen(len(window))
		window = append(window, part)
	}
	if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

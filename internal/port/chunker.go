package port

import "github.com/Vaibhav2543/deep-researcher/internal/domain"

// Chunker splits extracted document text into overlapping passages.
// Empty input yields no chunks and no error.
type Chunker interface {
	Chunk(source, text string) []domain.Chunk
}

package domain

import "time"

// Document is an uploaded file that has been (or is being) indexed.
// Documents are append-only: they are created on upload and removed
// only by an explicit reindex.
type Document struct {
	ID      string
	Name    string
	Size    int64
	ModTime time.Time
}

// Chunk is a contiguous span of text from one document. Seq is the
// stable position of the chunk within its source document. Chunks are
// immutable after creation.
type Chunk struct {
	ID     string
	Source string
	Seq    int
	Text   string
}

// ScoredChunk is a chunk paired with its distance to a query vector.
// Smaller distance means more relevant.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// SourceRef is one retrieved passage cited in an answer. JSON keys
// match the wire format of GET /results/{job_id}.
type SourceRef struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Dist   float64 `json:"dist"`
}

// QueryResult is the final product of a completed query job.
type QueryResult struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

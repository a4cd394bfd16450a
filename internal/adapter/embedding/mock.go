package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// MockEmbedder produces deterministic vectors derived from the input
// text. Texts sharing n-grams land near each other, which is enough for
// tests and for running the daemon without an embedding model.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension < 1 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *MockEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		end := i + 3
		if end > len(runes) {
			end = len(runes)
		}
		h := sha256.Sum256([]byte(string(runes[i:end])))
		slot := int(binary.BigEndian.Uint32(h[:4])) % e.dimension
		if slot < 0 {
			slot = -slot
		}
		vec[slot]++
	}

	// Unit-normalize so cosine distances are well-behaved.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}

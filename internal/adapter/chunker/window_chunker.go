package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

// WindowChunker splits document text into overlapping fixed-size
// passages. Sizes are measured in runes so multi-byte text never gets
// cut mid-character. Adjacent chunks share exactly `overlap` runes, so
// concatenating each chunk's unique suffix reconstructs the input.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

func NewWindowChunker(chunkSize, overlap int) *WindowChunker {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &WindowChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk splits text into passages. Empty or whitespace-only input
// yields no chunks; callers treat that as "no extractable text".
func (c *WindowChunker) Chunk(source, text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []domain.Chunk{c.newChunk(source, 0, text)}
	}

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []domain.Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, c.newChunk(source, len(chunks), string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

func (c *WindowChunker) newChunk(source string, seq int, text string) domain.Chunk {
	return domain.Chunk{
		ID:     generateChunkID(source, seq, text),
		Source: source,
		Seq:    seq,
		Text:   text,
	}
}

// generateChunkID hashes the chunk content along with its position, so
// re-uploading a modified file under the same name produces new ids.
func generateChunkID(source string, seq int, text string) string {
	data := fmt.Sprintf("%s:%d:%s", source, seq, text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}

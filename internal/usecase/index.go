package usecase

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/store"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
	"github.com/Vaibhav2543/deep-researcher/internal/port"
)

// ErrEmptyIndex indicates a query arrived before any document was
// successfully indexed.
var ErrEmptyIndex = errors.New("no documents indexed")

// IndexUseCase is the embedding index: it embeds chunks, keeps them
// searchable through a nearest-neighbor strategy, and persists them so
// the index survives restarts.
//
// Concurrent Search during Add is safe: a chunk becomes visible to
// readers only after its vector is fully stored.
type IndexUseCase struct {
	embedder port.Embedder
	nn       port.NearestNeighborIndex
	store    *store.BoltStore
	logger   *zap.Logger

	mu     sync.RWMutex
	chunks map[string]domain.Chunk
	order  []string // chunk ids in insertion order, for Sources()
}

// NewIndexUseCase builds the index and reloads any persisted state.
// An unreadable on-disk index is logged and discarded; startup never
// fails because of a corrupt index file.
func NewIndexUseCase(
	embedder port.Embedder,
	nn port.NearestNeighborIndex,
	st *store.BoltStore,
	logger *zap.Logger,
) (*IndexUseCase, error) {
	u := &IndexUseCase{
		embedder: embedder,
		nn:       nn,
		store:    st,
		logger:   logger,
		chunks:   make(map[string]domain.Chunk),
	}

	records, err := st.Load()
	if err != nil {
		logger.Warn("failed to load persisted index, starting empty", zap.Error(err))
		if err := st.Reset(); err != nil {
			return nil, fmt.Errorf("failed to reset unreadable index: %w", err)
		}
		return u, nil
	}

	if len(records) > 0 {
		items := make([]port.VectorItem, 0, len(records))
		for _, r := range records {
			u.chunks[r.Chunk.ID] = r.Chunk
			u.order = append(u.order, r.Chunk.ID)
			items = append(items, port.VectorItem{ID: r.Chunk.ID, Vector: r.Vector})
		}
		if err := nn.Add(items); err != nil {
			return nil, fmt.Errorf("failed to rebuild search index: %w", err)
		}
		logger.Info("index reloaded from disk",
			zap.Int("chunks", len(records)),
			zap.Int("dimension", len(records[0].Vector)))
	}

	return u, nil
}

// nnIndex snapshots the current search structure; Reset may swap it
// while queries are in flight.
func (u *IndexUseCase) nnIndex() port.NearestNeighborIndex {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nn
}

// Add embeds the chunks and appends them to the index. Returns the
// number of chunks indexed.
func (u *IndexUseCase) Add(chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := u.embedder.Embed(texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]store.Record, len(chunks))
	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 {
			return 0, fmt.Errorf("embedder returned an empty vector for chunk %s", c.ID)
		}
		records[i] = store.Record{Chunk: c, Vector: vectors[i]}
		items[i] = port.VectorItem{ID: c.ID, Vector: vectors[i]}
	}

	if err := u.store.Append(records); err != nil {
		return 0, fmt.Errorf("failed to persist chunks: %w", err)
	}

	// Metadata first, then the search structure: a chunk id surfaced
	// by a concurrent Search always resolves to a full chunk.
	u.mu.Lock()
	nn := u.nn
	for _, c := range chunks {
		u.chunks[c.ID] = c
		u.order = append(u.order, c.ID)
	}
	u.mu.Unlock()

	if err := nn.Add(items); err != nil {
		return 0, fmt.Errorf("failed to index vectors: %w", err)
	}

	return len(chunks), nil
}

// Search embeds the query and returns the k closest chunks ordered by
// ascending distance, with exact duplicate texts removed.
func (u *IndexUseCase) Search(query string, k int) ([]domain.ScoredChunk, error) {
	nn := u.nnIndex()
	if nn.Count() == 0 {
		return nil, ErrEmptyIndex
	}

	vectors, err := u.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	neighbors, err := nn.Search(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	seen := make(map[string]struct{}, len(neighbors))
	results := make([]domain.ScoredChunk, 0, len(neighbors))
	for _, n := range neighbors {
		chunk, ok := u.chunks[n.ID]
		if !ok {
			continue
		}
		if _, dup := seen[chunk.Text]; dup {
			continue
		}
		seen[chunk.Text] = struct{}{}
		results = append(results, domain.ScoredChunk{Chunk: chunk, Distance: n.Distance})
	}

	return results, nil
}

// Sources returns the distinct source names currently indexed, in
// first-seen order.
func (u *IndexUseCase) Sources() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	seen := make(map[string]struct{})
	var sources []string
	for _, id := range u.order {
		src := u.chunks[id].Source
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

// Count returns the number of indexed chunks.
func (u *IndexUseCase) Count() int {
	return u.nnIndex().Count()
}

// Reset clears the index in memory and on disk, and swaps in a fresh
// search structure. Used by explicit reindexing.
func (u *IndexUseCase) Reset(fresh port.NearestNeighborIndex) error {
	if err := u.store.Reset(); err != nil {
		return fmt.Errorf("failed to reset persisted index: %w", err)
	}

	u.mu.Lock()
	u.chunks = make(map[string]domain.Chunk)
	u.order = nil
	u.nn = fresh
	u.mu.Unlock()

	return nil
}

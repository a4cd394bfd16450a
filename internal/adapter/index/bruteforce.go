package index

import (
	"sort"
	"sync"

	"github.com/Vaibhav2543/deep-researcher/internal/port"
)

// BruteForce is the exact nearest-neighbor strategy: a linear scan
// over an insertion-ordered slice. It is the default backend and the
// fallback when the approximate index is not selected; its ordering is
// the reference behavior the approximate strategy must approach.
type BruteForce struct {
	mu      sync.RWMutex
	entries []port.VectorItem
}

func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Add appends items. Readers running concurrently see either the
// state before the whole batch or after it, never a partial vector.
func (b *BruteForce) Add(items []port.VectorItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, items...)
	return nil
}

// Search returns up to k neighbors sorted by ascending distance.
// Equal distances keep insertion order.
func (b *BruteForce) Search(query []float32, k int) ([]port.Neighbor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.entries) == 0 || k <= 0 {
		return nil, nil
	}

	neighbors := make([]port.Neighbor, len(b.entries))
	for i, entry := range b.entries {
		neighbors[i] = port.Neighbor{
			ID:       entry.ID,
			Distance: cosineDistance(query, entry.Vector),
		}
	}

	// Stable sort over the insertion-ordered slice breaks distance
	// ties by insertion order.
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

// Count returns the number of indexed vectors.
func (b *BruteForce) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

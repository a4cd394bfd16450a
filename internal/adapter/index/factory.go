package index

import "github.com/Vaibhav2543/deep-researcher/internal/port"

// New selects the search strategy at construction time. Anything other
// than "hnsw" gets the exact linear scan.
func New(backend string) port.NearestNeighborIndex {
	if backend == "hnsw" {
		return NewHNSW(DefaultHNSWConfig())
	}
	return NewBruteForce()
}

package port

// VectorItem is a vector to be inserted into a nearest-neighbor index.
type VectorItem struct {
	ID     string
	Vector []float32
}

// Neighbor is a single nearest-neighbor search result.
type Neighbor struct {
	ID       string
	Distance float64
}

// NearestNeighborIndex finds the k vectors closest to a query vector.
//
// Implementations are selected at construction time (exact linear scan
// or approximate graph search) and must satisfy the same ordering
// contract: results sorted by ascending distance, ties broken by
// insertion order. All methods are safe for concurrent use; a reader
// never observes a partially-inserted item.
type NearestNeighborIndex interface {
	// Add appends items to the index.
	Add(items []VectorItem) error

	// Search returns up to k neighbors of the query, closest first.
	Search(query []float32, k int) ([]Neighbor, error)

	// Count returns the number of indexed vectors.
	Count() int
}

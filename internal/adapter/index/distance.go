// Package index provides the nearest-neighbor search strategies behind
// the port.NearestNeighborIndex interface. Both implementations order
// results by ascending cosine distance with ties broken by insertion
// order.
package index

import "math"

// cosineDistance is 1 minus the cosine similarity of two vectors.
// Identical direction gives 0; orthogonal vectors give 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

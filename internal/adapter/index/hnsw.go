package index

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Vaibhav2543/deep-researcher/internal/port"
)

// HNSW is the approximate nearest-neighbor strategy: a hierarchical
// navigable small world graph (Malkov & Yashunin, 2016). Search cost
// grows logarithmically instead of linearly, at the price of exactness.
// It satisfies the same result-ordering contract as BruteForce.
type HNSW struct {
	mu         sync.RWMutex
	nodes      map[string]*hnswNode
	entryPoint string
	maxLevel   int
	nextOrder  int
	cfg        HNSWConfig
	rng        *rand.Rand
}

type hnswNode struct {
	id        string
	vector    []float32
	order     int // insertion sequence, used for tie-breaking
	neighbors [][]string
}

// HNSWConfig tunes graph construction and search.
type HNSWConfig struct {
	M              int     // connections per node per layer
	MMax           int     // connections at layer 0, normally 2*M
	EfConstruction int     // beam width while inserting
	EfSearch       int     // beam width while searching
	ML             float64 // level generation factor, 1/ln(M)
}

// DefaultHNSWConfig returns sensible defaults.
func DefaultHNSWConfig() HNSWConfig {
	m := 16
	return HNSWConfig{
		M:              m,
		MMax:           m * 2,
		EfConstruction: 200,
		EfSearch:       100,
		ML:             1.0 / math.Log(float64(m)),
	}
}

func NewHNSW(cfg HNSWConfig) *HNSW {
	if cfg.M <= 0 {
		cfg = DefaultHNSWConfig()
	}
	return &HNSW{
		nodes:    make(map[string]*hnswNode),
		maxLevel: -1,
		cfg:      cfg,
		// Fixed seed keeps graph construction reproducible.
		rng: rand.New(rand.NewSource(42)),
	}
}

// Add inserts items one at a time under the write lock, so concurrent
// readers never see a half-linked node.
func (h *HNSW) Add(items []port.VectorItem) error {
	for _, item := range items {
		h.mu.Lock()
		h.insert(item)
		h.mu.Unlock()
	}
	return nil
}

func (h *HNSW) insert(item port.VectorItem) {
	level := h.randomLevel()

	node := &hnswNode{
		id:        item.ID,
		vector:    item.Vector,
		order:     h.nextOrder,
		neighbors: make([][]string, level+1),
	}
	h.nextOrder++
	h.nodes[item.ID] = node

	if h.entryPoint == "" {
		h.entryPoint = item.ID
		h.maxLevel = level
		return
	}

	entryID := h.greedyDescend(item.Vector, h.entryPoint, h.maxLevel, level)

	for l := min(level, h.maxLevel); l >= 0; l-- {
		candidates := h.searchLayer(item.Vector, entryID, h.cfg.EfConstruction, l)

		mLayer := h.cfg.M
		if l == 0 {
			mLayer = h.cfg.MMax
		}
		if len(candidates) > mLayer {
			candidates = candidates[:mLayer]
		}

		node.neighbors[l] = make([]string, 0, len(candidates))
		for _, c := range candidates {
			node.neighbors[l] = append(node.neighbors[l], c.ID)

			neighbor := h.nodes[c.ID]
			if neighbor == nil || l >= len(neighbor.neighbors) {
				continue
			}
			neighbor.neighbors[l] = append(neighbor.neighbors[l], item.ID)
			if len(neighbor.neighbors[l]) > mLayer {
				neighbor.neighbors[l] = h.pruneConnections(neighbor.vector, neighbor.neighbors[l], mLayer)
			}
		}

		if len(candidates) > 0 {
			entryID = candidates[0].ID
		}
	}

	if level > h.maxLevel {
		h.entryPoint = item.ID
		h.maxLevel = level
	}
}

// Search returns up to k approximate neighbors, closest first.
func (h *HNSW) Search(query []float32, k int) ([]port.Neighbor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 || h.entryPoint == "" || k <= 0 {
		return nil, nil
	}

	entryID := h.greedyDescend(query, h.entryPoint, h.maxLevel, 0)
	candidates := h.searchLayer(query, entryID, h.cfg.EfSearch, 0)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return h.nodes[candidates[i].ID].order < h.nodes[candidates[j].ID].order
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// Count returns the number of indexed vectors.
func (h *HNSW) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// greedyDescend walks from the top layer down to targetLevel+1,
// hill-climbing toward the query at each layer.
func (h *HNSW) greedyDescend(query []float32, startID string, fromLevel, targetLevel int) string {
	currentID := startID
	current := h.nodes[currentID]
	if current == nil {
		return startID
	}

	for l := fromLevel; l > targetLevel; l-- {
		for changed := true; changed; {
			changed = false
			if l >= len(current.neighbors) {
				continue
			}
			for _, neighborID := range current.neighbors[l] {
				neighbor := h.nodes[neighborID]
				if neighbor == nil {
					continue
				}
				if cosineDistance(query, neighbor.vector) < cosineDistance(query, current.vector) {
					current = neighbor
					currentID = neighborID
					changed = true
				}
			}
		}
	}
	return currentID
}

// searchLayer runs a beam search of width ef at one layer and returns
// candidates sorted by ascending distance.
func (h *HNSW) searchLayer(query []float32, entryID string, ef, layer int) []port.Neighbor {
	entry := h.nodes[entryID]
	if entry == nil {
		return nil
	}

	visited := map[string]bool{entryID: true}
	entryDist := cosineDistance(query, entry.vector)

	candidates := &neighborHeap{entries: []port.Neighbor{{ID: entryID, Distance: entryDist}}, max: false}
	results := &neighborHeap{entries: []port.Neighbor{{ID: entryID, Distance: entryDist}}, max: true}
	heap.Init(candidates)
	heap.Init(results)

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(port.Neighbor)

		if results.Len() > 0 && closest.Distance > results.entries[0].Distance {
			break
		}

		node := h.nodes[closest.ID]
		if node == nil || layer >= len(node.neighbors) {
			continue
		}

		for _, neighborID := range node.neighbors[layer] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor := h.nodes[neighborID]
			if neighbor == nil {
				continue
			}

			dist := cosineDistance(query, neighbor.vector)
			if results.Len() < ef {
				heap.Push(candidates, port.Neighbor{ID: neighborID, Distance: dist})
				heap.Push(results, port.Neighbor{ID: neighborID, Distance: dist})
			} else if dist < results.entries[0].Distance {
				heap.Push(candidates, port.Neighbor{ID: neighborID, Distance: dist})
				heap.Pop(results)
				heap.Push(results, port.Neighbor{ID: neighborID, Distance: dist})
			}
		}
	}

	out := make([]port.Neighbor, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(port.Neighbor)
	}
	return out
}

// pruneConnections keeps the m closest of a node's neighbors.
func (h *HNSW) pruneConnections(vector []float32, neighborIDs []string, m int) []string {
	type scored struct {
		id   string
		dist float64
	}
	dists := make([]scored, 0, len(neighborIDs))
	for _, id := range neighborIDs {
		if node := h.nodes[id]; node != nil {
			dists = append(dists, scored{id: id, dist: cosineDistance(vector, node.vector)})
		}
	}
	sort.SliceStable(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	if m > len(dists) {
		m = len(dists)
	}
	kept := make([]string, m)
	for i := 0; i < m; i++ {
		kept[i] = dists[i].id
	}
	return kept
}

// P(level = l) follows (1/M)^l, capped to keep the graph shallow.
func (h *HNSW) randomLevel() int {
	level := 0
	for h.rng.Float64() < h.cfg.ML && level < 16 {
		level++
	}
	return level
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package index

import "github.com/Vaibhav2543/deep-researcher/internal/port"

// neighborHeap is a binary heap over neighbors. With max=false it pops
// the closest entry (candidate frontier); with max=true it keeps the
// furthest entry on top (beam eviction).
type neighborHeap struct {
	entries []port.Neighbor
	max     bool
}

func (h *neighborHeap) Len() int { return len(h.entries) }

func (h *neighborHeap) Less(i, j int) bool {
	if h.max {
		return h.entries[i].Distance > h.entries[j].Distance
	}
	return h.entries[i].Distance < h.entries[j].Distance
}

func (h *neighborHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *neighborHeap) Push(x any) {
	h.entries = append(h.entries, x.(port.Neighbor))
}

func (h *neighborHeap) Pop() any {
	last := len(h.entries) - 1
	entry := h.entries[last]
	h.entries = h.entries[:last]
	return entry
}

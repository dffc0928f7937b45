package mot

// affinityPair is a candidate detection-track match
type affinityPair struct {
	detection int
	track     int
	score     float64
}

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion

// affinityHeap is max-heap by score
type affinityHeap []*affinityPair

func (h affinityHeap) Len() int           { return len(h) }
func (h affinityHeap) Less(i, j int) bool { return h[i].score > h[j].score }
func (h affinityHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *affinityHeap) Push(x *affinityPair) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the maximum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *affinityHeap) Pop() *affinityPair {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	heapSize := len(*h)
	lastNode := (*h)[heapSize-1]
	*h = (*h)[0 : heapSize-1]
	return lastNode
}

func (h affinityHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h affinityHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}

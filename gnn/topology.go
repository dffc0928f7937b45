package gnn

import (
	"github.com/pkg/errors"
)

// Topology is a directed graph over node indices of a single frame.
// Messages flow from Src[k] to Dst[k]. The first N nodes are detections and
// the next M nodes are tracks, the same split as in the embeddings buffer.
// The core never mutates a topology.
type Topology struct {
	// Total number of nodes (N+M)
	NumNodes int
	// Source node of each edge
	Src []int
	// Destination node of each edge
	Dst []int
}

// NewTopology creates topology from parallel source/destination slices
func NewTopology(numNodes int, src, dst []int) (*Topology, error) {
	topo := &Topology{
		NumNodes: numNodes,
		Src:      src,
		Dst:      dst,
	}
	if err := topo.Validate(numNodes); err != nil {
		return nil, err
	}
	return topo, nil
}

// FullyConnected creates a complete directed graph over n nodes.
// Self loops are added when selfLoops is true.
func FullyConnected(n int, selfLoops bool) *Topology {
	capacity := n * (n - 1)
	if selfLoops {
		capacity = n * n
	}
	if capacity < 0 {
		capacity = 0
	}
	topo := &Topology{
		NumNodes: n,
		Src:      make([]int, 0, capacity),
		Dst:      make([]int, 0, capacity),
	}
	for src := 0; src < n; src++ {
		for dst := 0; dst < n; dst++ {
			if src == dst && !selfLoops {
				continue
			}
			topo.Src = append(topo.Src, src)
			topo.Dst = append(topo.Dst, dst)
		}
	}
	return topo
}

// BipartiteFromAffinity creates graph where detection i and track j exchange messages
// (both directions) whenever initial affinity (adjacency) entry (i, j) is positive.
// Every node receives a self loop so no node is left without incoming messages.
func BipartiteFromAffinity(init *Affinity) *Topology {
	n, m := init.Dims()
	topo := &Topology{
		NumNodes: n + m,
		Src:      make([]int, 0),
		Dst:      make([]int, 0),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if init.At(i, j) > 0 {
				topo.AddEdge(i, n+j)
				topo.AddEdge(n+j, i)
			}
		}
	}
	topo.AddSelfLoops()
	return topo
}

// AddEdge appends directed edge src -> dst. Indices are checked on validation, not here.
func (topo *Topology) AddEdge(src, dst int) {
	topo.Src = append(topo.Src, src)
	topo.Dst = append(topo.Dst, dst)
}

// AddSelfLoops appends edge i -> i for every node which does not have one yet
func (topo *Topology) AddSelfLoops() {
	hasLoop := make([]bool, topo.NumNodes)
	for k := range topo.Src {
		if topo.Src[k] == topo.Dst[k] && topo.Src[k] >= 0 && topo.Src[k] < topo.NumNodes {
			hasLoop[topo.Src[k]] = true
		}
	}
	for i := 0; i < topo.NumNodes; i++ {
		if !hasLoop[i] {
			topo.AddEdge(i, i)
		}
	}
}

// NumEdges returns number of directed edges
func (topo *Topology) NumEdges() int {
	return len(topo.Src)
}

// Validate checks that topology covers exactly numNodes nodes and every edge references a node in [0, numNodes)
func (topo *Topology) Validate(numNodes int) error {
	if topo == nil {
		return errors.Wrap(ErrShapeMismatch, "topology is nil")
	}
	if topo.NumNodes != numNodes {
		return errors.Wrapf(ErrShapeMismatch, "topology has %d nodes, expected N+M=%d", topo.NumNodes, numNodes)
	}
	if len(topo.Src) != len(topo.Dst) {
		return errors.Wrapf(ErrShapeMismatch, "topology has %d sources and %d destinations", len(topo.Src), len(topo.Dst))
	}
	for k := range topo.Src {
		if topo.Src[k] < 0 || topo.Src[k] >= numNodes {
			return errors.Wrapf(ErrShapeMismatch, "edge %d: source node index %d out of range [0,%d)", k, topo.Src[k], numNodes)
		}
		if topo.Dst[k] < 0 || topo.Dst[k] >= numNodes {
			return errors.Wrapf(ErrShapeMismatch, "edge %d: destination node index %d out of range [0,%d)", k, topo.Dst[k], numNodes)
		}
	}
	return nil
}

// inNeighbors groups sources by destination. Must be called on validated topology.
func (topo *Topology) inNeighbors() [][]int {
	neighbors := make([][]int, topo.NumNodes)
	for k := range topo.Src {
		dst := topo.Dst[k]
		neighbors[dst] = append(neighbors[dst], topo.Src[k])
	}
	return neighbors
}

package mot

import (
	"github.com/LdDl/mot-gnn/gnn"
)

// GatedAdjacency returns N×M initial adjacency between detections and tracks:
// 1 if centers are closer than gatingDistance, 0 otherwise.
// Non-positive gatingDistance connects every pair.
func GatedAdjacency(detections, tracks []*Track, gatingDistance float64) *gnn.Affinity {
	adjacency, _ := gnn.NewAffinity(len(detections), len(tracks), nil)
	for i, detection := range detections {
		for j, track := range tracks {
			if gatingDistance <= 0 || detection.DistanceTo(track) < gatingDistance {
				adjacency.Set(i, j, 1)
			}
		}
	}
	return adjacency
}

// GatedTopology builds bipartite graph over detections (nodes 0..N-1) and tracks (nodes N..N+M-1).
// Every node gets a self loop, so nodes outside of any gate still keep their own embedding.
func GatedTopology(detections, tracks []*Track, gatingDistance float64) *gnn.Topology {
	return gnn.BipartiteFromAffinity(GatedAdjacency(detections, tracks, gatingDistance))
}

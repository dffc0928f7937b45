package mot

import (
	"sort"

	"github.com/LdDl/mot-gnn/gnn"
	"github.com/arthurkushman/go-hungarian"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy takes pairs in order of decreasing affinity: faster but potentially suboptimal
	MatchingAlgorithmGreedy
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return "unknown"
	}
}

// Match is a detection-track pair selected by assignment
type Match struct {
	// Row of affinity matrix
	Detection int
	// Column of affinity matrix
	Track int
	// Affinity of the pair
	Score float64
}

// AssignAffinity solves assignment problem over N×M affinity matrix (rows are detections, columns are tracks).
// Every detection and every track is used at most once, pairs with affinity below minAffinity are never returned.
// Matches are sorted by detection index.
func AssignAffinity(affinity *gnn.Affinity, algorithm MatchingAlgorithm, minAffinity float64) []Match {
	if affinity.IsEmpty() {
		return []Match{}
	}
	var matches []Match
	switch algorithm {
	case MatchingAlgorithmHungarian:
		matches = hungarianMatching(affinity, minAffinity)
	case MatchingAlgorithmGreedy:
		matches = greedyMatching(affinity, minAffinity)
	default:
		matches = greedyMatching(affinity, minAffinity)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Detection < matches[j].Detection
	})
	return matches
}

// hungarianMatching assigns detections to tracks with the Hungarian solver, then improves
// the assignment by pairwise exchanges: two rows swap their columns while that raises total affinity.
// The solver's reduction steps may stop at a suboptimal assignment, exchanges fix the common cases.
func hungarianMatching(affinity *gnn.Affinity, minAffinity float64) []Match {
	numDetections, numTracks := affinity.Dims()
	// Rectangular matrix - pad to make it square
	// Padding is done with 0.0 values (lowest affinity)
	paddedSize := maxInt(numDetections, numTracks)
	paddedMatrix := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		paddedMatrix[i] = make([]float64, paddedSize)
	}
	for i := 0; i < numDetections; i++ {
		for j := 0; j < numTracks; j++ {
			paddedMatrix[i][j] = affinity.At(i, j)
		}
	}
	// Solver works on its own copy
	solverMatrix := make([][]float64, paddedSize)
	for i := range paddedMatrix {
		solverMatrix[i] = append([]float64(nil), paddedMatrix[i]...)
	}
	assignmentsMap := hungarian.SolveMax(solverMatrix)

	columnOf := make([]int, paddedSize)
	columnUsed := make([]bool, paddedSize)
	for i := range columnOf {
		columnOf[i] = -1
	}
	for row, rowMap := range assignmentsMap {
		// Inner map contains one entry: {column: affinity}
		for column := range rowMap {
			if row < 0 || row >= paddedSize || column < 0 || column >= paddedSize || columnUsed[column] {
				continue
			}
			columnOf[row] = column
			columnUsed[column] = true
			break
		}
	}
	// Rows left without column by the solver take free ones
	free := 0
	for row := range columnOf {
		if columnOf[row] >= 0 {
			continue
		}
		for columnUsed[free] {
			free++
		}
		columnOf[row] = free
		columnUsed[free] = true
	}
	improveByExchanges(paddedMatrix, columnOf)

	matches := make([]Match, 0)
	for detectionIndex, trackIndex := range columnOf {
		// Dummy rows and columns
		if detectionIndex >= numDetections || trackIndex >= numTracks {
			continue
		}
		score := affinity.At(detectionIndex, trackIndex)
		if score < minAffinity {
			continue
		}
		matches = append(matches, Match{
			Detection: detectionIndex,
			Track:     trackIndex,
			Score:     score,
		})
	}
	return matches
}

// exchangeGain is minimal improvement of total affinity for which two rows swap columns
const exchangeGain = 1e-12

// improveByExchanges swaps columns of row pairs until no swap raises total affinity.
// Every swap strictly raises the total, so the loop ends.
func improveByExchanges(matrix [][]float64, columnOf []int) {
	for improved := true; improved; {
		improved = false
		for a := 0; a < len(columnOf); a++ {
			for b := a + 1; b < len(columnOf); b++ {
				ca, cb := columnOf[a], columnOf[b]
				current := matrix[a][ca] + matrix[b][cb]
				swapped := matrix[a][cb] + matrix[b][ca]
				if swapped > current+exchangeGain {
					columnOf[a], columnOf[b] = cb, ca
					improved = true
				}
			}
		}
	}
}

// greedyMatching repeatedly takes the best remaining pair
func greedyMatching(affinity *gnn.Affinity, minAffinity float64) []Match {
	numDetections, numTracks := affinity.Dims()
	priorityQueue := make(affinityHeap, 0, numDetections*numTracks)
	for i := 0; i < numDetections; i++ {
		for j := 0; j < numTracks; j++ {
			score := affinity.At(i, j)
			if score < minAffinity {
				continue
			}
			priorityQueue.Push(&affinityPair{
				detection: i,
				track:     j,
				score:     score,
			})
		}
	}
	matches := make([]Match, 0)
	matchedDetections := make(map[int]struct{})
	matchedTracks := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		pair := priorityQueue.Pop()
		if _, found := matchedDetections[pair.detection]; found {
			continue
		}
		if _, found := matchedTracks[pair.track]; found {
			continue
		}
		matches = append(matches, Match{
			Detection: pair.detection,
			Track:     pair.track,
			Score:     pair.score,
		})
		matchedDetections[pair.detection] = struct{}{}
		matchedTracks[pair.track] = struct{}{}
	}
	return matches
}

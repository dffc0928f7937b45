package gnn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AffinityLoss is a supervised loss between predicted and ground-truth affinity of the same shape
type AffinityLoss func(pred, gt *Affinity) float64

const (
	AffinityLossBCE = "bce"
	AffinityLossMSE = "mse"
)

// Probabilities are clamped to [probEps, 1-probEps] before taking logarithms
const probEps = 1e-7

// PositiveThreshold is the ground-truth value from which a detection-track pair is a match
const PositiveThreshold = 0.5

// affinityLosses maps configuration tag to loss. Resolved once in NewModel.
var affinityLosses = map[string]AffinityLoss{
	AffinityLossBCE: BinaryCrossEntropyLoss,
	AffinityLossMSE: MeanSquaredLoss,
}

// AffinityLossByName returns loss registered for the given tag
func AffinityLossByName(name string) (AffinityLoss, error) {
	loss, ok := affinityLosses[name]
	if !ok {
		return nil, errors.Wrapf(ErrConfiguration, "unknown affinity loss '%s'", name)
	}
	return loss, nil
}

// BinaryCrossEntropyLoss is mean binary cross-entropy of pred against gt with the
// entropy of every label in [0, 1] subtracted, i.e. mean of BCE(p, t) − H(t).
// For labels in [0, 1] it is non-negative and vanishes when pred equals gt.
// Labels outside [0, 1] are left uncorrected and can drive it negative.
// Empty matrices give zero loss.
func BinaryCrossEntropyLoss(pred, gt *Affinity) float64 {
	p := pred.RawData()
	t := gt.RawData()
	if len(p) == 0 {
		return 0
	}
	sum := 0.0
	for k := range p {
		sum += crossEntropy(clampProb(p[k]), t[k]) - labelEntropy(t[k])
	}
	return sum / float64(len(p))
}

// MeanSquaredLoss is mean squared difference between pred and gt
func MeanSquaredLoss(pred, gt *Affinity) float64 {
	p := pred.RawData()
	t := gt.RawData()
	if len(p) == 0 {
		return 0
	}
	sum := 0.0
	for k := range p {
		diff := p[k] - t[k]
		sum += diff * diff
	}
	return sum / float64(len(p))
}

func crossEntropy(p, t float64) float64 {
	return -(t*math.Log(p) + (1-t)*math.Log(1-p))
}

func labelEntropy(t float64) float64 {
	if t < 0 || t > 1 {
		return 0
	}
	return crossEntropy(clampProb(t), t)
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, probEps), 1-probEps)
}

// TripletLoss is a margin-based metric-learning loss over node embeddings.
// Ground truth decides which detection-track pairs are positive.
type TripletLoss struct {
	Margin float64
}

// NewTripletLoss creates triplet loss with given margin
func NewTripletLoss(margin float64) (*TripletLoss, error) {
	if margin < 0 || math.IsNaN(margin) {
		return nil, errors.Wrapf(ErrConfiguration, "triplet margin must be non-negative, got %f", margin)
	}
	return &TripletLoss{
		Margin: margin,
	}, nil
}

// Compute returns mean of max(0, ‖a−p‖ − ‖a−n‖ + margin) over all triplets.
// Anchors are detections with a positive track and tracks with a positive detection,
// negatives are nodes on the other side which are not positives of the anchor.
// If there are no triplets loss is zero.
func (loss *TripletLoss) Compute(embeddings *mat.Dense, gt *Affinity, n, m int) float64 {
	if n == 0 || m == 0 {
		return 0
	}
	dist := make([]float64, n*m)
	for i := 0; i < n; i++ {
		det := embeddings.RawRowView(i)
		for j := 0; j < m; j++ {
			dist[FlatIndex(i, j, m)] = floats.Distance(det, embeddings.RawRowView(n+j), 2)
		}
	}
	positive := func(i, j int) bool {
		return gt.At(i, j) >= PositiveThreshold
	}

	sum := 0.0
	count := 0
	// Detections as anchors
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if !positive(i, j) {
				continue
			}
			for k := 0; k < m; k++ {
				if positive(i, k) {
					continue
				}
				sum += math.Max(0, dist[FlatIndex(i, j, m)]-dist[FlatIndex(i, k, m)]+loss.Margin)
				count++
			}
		}
	}
	// Tracks as anchors
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			if !positive(i, j) {
				continue
			}
			for k := 0; k < n; k++ {
				if positive(k, j) {
					continue
				}
				sum += math.Max(0, dist[FlatIndex(i, j, m)]-dist[FlatIndex(k, j, m)]+loss.Margin)
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

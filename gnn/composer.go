package gnn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Losses is an accumulated training objective.
// Values are plain scalars: holding them does not keep any computation alive.
type Losses struct {
	// Sum of affinity and triplet losses
	Total float64
	// Accumulated affinity (pairwise classification) loss
	Affinity float64
	// Accumulated triplet (metric-learning) loss
	Triplet float64
	// Number of layers which contributed
	Layers int
}

// Add returns sum of two accumulators
func (losses Losses) Add(other Losses) Losses {
	return Losses{
		Total:    losses.Total + other.Total,
		Affinity: losses.Affinity + other.Affinity,
		Triplet:  losses.Triplet + other.Triplet,
		Layers:   losses.Layers + other.Layers,
	}
}

// Check returns invariant violation if total loss is negative or not a number
func (losses Losses) Check() error {
	if math.IsNaN(losses.Total) {
		return errors.Wrapf(ErrInvariantViolation, "total loss is NaN (affinity=%f, triplet=%f)", losses.Affinity, losses.Triplet)
	}
	if losses.Total < 0 {
		return errors.Wrapf(ErrInvariantViolation, "negative total loss %f (affinity=%f, triplet=%f)", losses.Total, losses.Affinity, losses.Triplet)
	}
	return nil
}

// Composer computes the per-layer training objective
type Composer struct {
	affinity AffinityLoss
	triplet  *TripletLoss
}

// NewComposer creates composer from an affinity loss and a triplet loss
func NewComposer(affinity AffinityLoss, triplet *TripletLoss) (*Composer, error) {
	if affinity == nil {
		return nil, errors.Wrap(ErrConfiguration, "affinity loss is nil")
	}
	if triplet == nil {
		return nil, errors.Wrap(ErrConfiguration, "triplet loss is nil")
	}
	return &Composer{
		affinity: affinity,
		triplet:  triplet,
	}, nil
}

// Compose returns contribution of a single layer: affinity loss of pred against gt
// plus triplet loss over embeddings. Both matrices must be N×M and embeddings must have N+M rows.
func (composer *Composer) Compose(pred, gt *Affinity, embeddings *mat.Dense, n, m int) (Losses, error) {
	if err := pred.checkShape(n, m, "predicted"); err != nil {
		return Losses{}, err
	}
	if err := gt.checkShape(n, m, "ground truth"); err != nil {
		return Losses{}, err
	}
	if err := checkSplit(embeddings, n, m); err != nil {
		return Losses{}, err
	}
	affLoss := composer.affinity(pred, gt)
	tripletLoss := composer.triplet.Compute(embeddings, gt, n, m)
	return Losses{
		Total:    affLoss + tripletLoss,
		Affinity: affLoss,
		Triplet:  tripletLoss,
		Layers:   1,
	}, nil
}

package mot

import (
	"math/rand/v2"

	"github.com/LdDl/mot-gnn/gnn"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MeanPointEncoder turns object's points into appearance feature:
// per-feature mean over points, optionally projected to model's feature size.
type MeanPointEncoder struct {
	// Number of values per point, e.g. 4 for (x, y, z, intensity)
	NumInputFeatures int
	// Optional projection NumInputFeatures -> feature size
	Projection *gnn.Linear
}

// NewMeanPointEncoder creates encoder. Projection is created only if featureSize differs from numInputFeatures.
func NewMeanPointEncoder(numInputFeatures, featureSize int, src rand.Source) (*MeanPointEncoder, error) {
	if numInputFeatures <= 0 {
		return nil, errors.Errorf("number of input features must be positive, got %d", numInputFeatures)
	}
	enc := MeanPointEncoder{
		NumInputFeatures: numInputFeatures,
	}
	if featureSize != numInputFeatures {
		projection, err := gnn.NewLinear(numInputFeatures, featureSize, src)
		if err != nil {
			return nil, errors.Wrap(err, "Can't create projection")
		}
		enc.Projection = projection
	}
	return &enc, nil
}

// FeatureSize returns size of produced features
func (enc *MeanPointEncoder) FeatureSize() int {
	if enc.Projection != nil {
		return enc.Projection.OutputSize()
	}
	return enc.NumInputFeatures
}

// Encode returns feature for a single object. Every point must have exactly NumInputFeatures values.
func (enc *MeanPointEncoder) Encode(points [][]float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, errors.New("object has no points")
	}
	mean := make([]float64, enc.NumInputFeatures)
	for i, point := range points {
		if len(point) != enc.NumInputFeatures {
			return nil, errors.Errorf("point %d has %d features, expected %d", i, len(point), enc.NumInputFeatures)
		}
		floats.Add(mean, point)
	}
	floats.Scale(1.0/float64(len(points)), mean)
	if enc.Projection == nil {
		return mean, nil
	}
	projected, err := enc.Projection.Forward(mat.NewDense(1, enc.NumInputFeatures, mean))
	if err != nil {
		return nil, errors.Wrap(err, "Can't project feature")
	}
	return projected.RawRowView(0), nil
}

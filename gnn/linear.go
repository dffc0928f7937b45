package gnn

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is a fully connected layer: y = x·Wᵀ + b
type Linear struct {
	// Weights, shape (out, in)
	Weight *mat.Dense
	// Bias, shape (1, out)
	Bias *mat.Dense
}

// NewLinear creates layer with Glorot-uniform weights and zero bias
func NewLinear(in, out int, src rand.Source) (*Linear, error) {
	if in <= 0 || out <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "linear layer needs positive sizes, got in=%d out=%d", in, out)
	}
	limit := math.Sqrt(6.0 / float64(in+out))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	weights := make([]float64, out*in)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	return &Linear{
		Weight: mat.NewDense(out, in, weights),
		Bias:   mat.NewDense(1, out, nil),
	}, nil
}

// InputSize returns expected number of input features
func (l *Linear) InputSize() int {
	_, in := l.Weight.Dims()
	return in
}

// OutputSize returns number of output features
func (l *Linear) OutputSize() int {
	out, _ := l.Weight.Dims()
	return out
}

// Forward applies layer to every row of x
func (l *Linear) Forward(x *mat.Dense) (*mat.Dense, error) {
	y, err := l.forwardNoBias(x)
	if err != nil {
		return nil, err
	}
	l.addBias(y)
	return y, nil
}

// forwardNoBias computes x·Wᵀ only
func (l *Linear) forwardNoBias(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != l.InputSize() {
		return nil, errors.Wrapf(ErrShapeMismatch, "linear layer expects %d features, got %d", l.InputSize(), cols)
	}
	y := mat.NewDense(rows, l.OutputSize(), nil)
	y.Mul(x, l.Weight.T())
	return y, nil
}

func (l *Linear) addBias(y *mat.Dense) {
	rows, _ := y.Dims()
	bias := l.Bias.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := y.RawRowView(i)
		for k := range row {
			row[k] += bias[k]
		}
	}
}

func (l *Linear) stateDict(prefix string, sd map[string]*mat.Dense) {
	sd[prefix+".weight"] = l.Weight
	sd[prefix+".bias"] = l.Bias
}

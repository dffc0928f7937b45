package gnn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Regressor maps every row of a relative edge-feature matrix to one affinity score
type Regressor interface {
	// Regress returns one score per row of edges
	Regress(edges *mat.Dense) ([]float64, error)
	// InputSize returns expected edge-feature dimensionality
	InputSize() int
	// StateDict adds named parameters to sd, keys prefixed with prefix
	StateDict(prefix string, sd map[string]*mat.Dense)
}

// RegressorConfig describes edge regression head
type RegressorConfig struct {
	// Registered regressor tag: "mlp" or "linear"
	Type string `yaml:"type"`
	// Hidden layer sizes of MLP regressor
	HiddenSizes []int `yaml:"hidden_sizes"`
}

// RegressorFactory creates regressor for the given edge-feature dimensionality
type RegressorFactory func(cfg RegressorConfig, inputSize int, src rand.Source) (Regressor, error)

const (
	RegressorMLP    = "mlp"
	RegressorLinear = "linear"
)

// regressors maps configuration tag to constructor. Resolved once in NewModel.
var regressors = map[string]RegressorFactory{
	RegressorMLP: func(cfg RegressorConfig, inputSize int, src rand.Source) (Regressor, error) {
		return NewMLPRegressor(inputSize, cfg.HiddenSizes, src)
	},
	RegressorLinear: func(cfg RegressorConfig, inputSize int, src rand.Source) (Regressor, error) {
		return NewMLPRegressor(inputSize, nil, src)
	},
}

// NewRegressor creates regressor registered for cfg.Type
func NewRegressor(cfg RegressorConfig, inputSize int, src rand.Source) (Regressor, error) {
	if cfg.Type == "" {
		return nil, errors.Wrap(ErrConfiguration, "edge regression head is not configured")
	}
	factory, ok := regressors[cfg.Type]
	if !ok {
		return nil, errors.Wrapf(ErrConfiguration, "unknown edge regression type '%s'", cfg.Type)
	}
	return factory(cfg, inputSize, src)
}

// MLPRegressor is a multilayer perceptron with ReLU hidden layers and sigmoid output,
// so every score lies in (0, 1)
type MLPRegressor struct {
	Layers []*Linear
}

// NewMLPRegressor creates inputSize -> hiddenSizes... -> 1 perceptron
func NewMLPRegressor(inputSize int, hiddenSizes []int, src rand.Source) (*MLPRegressor, error) {
	sizes := append([]int{inputSize}, hiddenSizes...)
	sizes = append(sizes, 1)
	layers := make([]*Linear, len(sizes)-1)
	for i := range layers {
		layer, err := NewLinear(sizes[i], sizes[i+1], src)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create regressor layer %d", i)
		}
		layers[i] = layer
	}
	return &MLPRegressor{
		Layers: layers,
	}, nil
}

// InputSize returns expected edge-feature dimensionality
func (reg *MLPRegressor) InputSize() int {
	return reg.Layers[0].InputSize()
}

// Regress returns sigmoid score for every row of edges
func (reg *MLPRegressor) Regress(edges *mat.Dense) ([]float64, error) {
	h := edges
	for i, layer := range reg.Layers {
		next, err := layer.Forward(h)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't apply regressor layer %d", i)
		}
		if i < len(reg.Layers)-1 {
			next.Apply(func(_, _ int, v float64) float64 {
				return relu(v)
			}, next)
		}
		h = next
	}
	rows, _ := h.Dims()
	scores := make([]float64, rows)
	for k := range scores {
		scores[k] = sigmoid(h.At(k, 0))
	}
	return scores, nil
}

// StateDict adds layer parameters to sd
func (reg *MLPRegressor) StateDict(prefix string, sd map[string]*mat.Dense) {
	for i, layer := range reg.Layers {
		layer.stateDict(fmt.Sprintf("%s.%d", prefix, i), sd)
	}
}

// RegressAffinity scores flattened pairwise edges and reshapes scores to N×M.
// Score of edges row FlatIndex(i, j, m) becomes entry (i, j).
// If N·M is zero, edges may be nil and empty N×M matrix is returned.
func RegressAffinity(reg Regressor, edges *mat.Dense, n, m int) (*Affinity, error) {
	if reg == nil {
		return nil, errors.Wrap(ErrConfiguration, "edge regression head is nil")
	}
	if n == 0 || m == 0 {
		return NewAffinity(n, m, nil)
	}
	if edges == nil {
		return nil, errors.Wrapf(ErrShapeMismatch, "edges are nil, expected %d rows", n*m)
	}
	rows, _ := edges.Dims()
	if rows != n*m {
		return nil, errors.Wrapf(ErrShapeMismatch, "edges have %d rows, expected N*M=%d", rows, n*m)
	}
	scores, err := reg.Regress(edges)
	if err != nil {
		return nil, errors.Wrap(err, "Can't regress affinity")
	}
	if len(scores) != n*m {
		return nil, errors.Wrapf(ErrShapeMismatch, "regressor returned %d scores, expected N*M=%d", len(scores), n*m)
	}
	// Row-major (i-major, j-minor) layout of Affinity is the same as FlatIndex
	return NewAffinity(n, m, scores)
}

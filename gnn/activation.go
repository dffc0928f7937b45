package gnn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Activation is an elementwise nonlinearity applied after each graph layer
type Activation func(float64) float64

const (
	ActivationReLU = "relu"
	ActivationTanh = "tanh"
)

// activations maps configuration tag to nonlinearity. Resolved once in NewModel.
var activations = map[string]Activation{
	ActivationReLU: relu,
	ActivationTanh: math.Tanh,
}

// ActivationByName returns nonlinearity registered for the given tag
func ActivationByName(name string) (Activation, error) {
	act, ok := activations[name]
	if !ok {
		return nil, errors.Wrapf(ErrConfiguration, "unknown activation '%s'", name)
	}
	return act, nil
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// applyInPlace applies act to every element of x
func (act Activation) applyInPlace(x *mat.Dense) {
	x.Apply(func(_, _ int, v float64) float64 {
		return act(v)
	}, x)
}

package gnn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LayerFunc is called with 0-based layer index and activated output of that layer
type LayerFunc func(layer int, embeddings *mat.Dense) error

// Stack is a sequence of identical edge-convolution layers, each followed by activation
type Stack struct {
	Layers     []*EdgeConv
	activation Activation
}

// NewStack creates numLayers layers of featureSize -> featureSize
func NewStack(featureSize, numLayers int, activation Activation, allowZeroInDegree bool, src rand.Source) (*Stack, error) {
	if numLayers <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "number of graph layers must be positive, got %d", numLayers)
	}
	if activation == nil {
		return nil, errors.Wrap(ErrConfiguration, "activation is nil")
	}
	layers := make([]*EdgeConv, numLayers)
	for i := range layers {
		layer, err := NewEdgeConv(featureSize, featureSize, allowZeroInDegree, src)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create graph layer %d", i)
		}
		layers[i] = layer
	}
	return &Stack{
		Layers:     layers,
		activation: activation,
	}, nil
}

// Apply runs all layers in order over the same topology.
// onLayer (optional) sees the output of every layer before the next one starts.
func (stack *Stack) Apply(topo *Topology, x *mat.Dense, onLayer LayerFunc) (*mat.Dense, error) {
	numNodes, _ := x.Dims()
	if err := topo.Validate(numNodes); err != nil {
		return nil, err
	}
	neighbors := topo.inNeighbors()
	h := x
	for i, layer := range stack.Layers {
		next, err := layer.apply(neighbors, h)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't apply graph layer %d", i)
		}
		stack.activation.applyInPlace(next)
		h = next
		if onLayer != nil {
			if err := onLayer(i, h); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

func (stack *Stack) stateDict(sd map[string]*mat.Dense) {
	for i, layer := range stack.Layers {
		layer.stateDict(fmt.Sprintf("layers.%d", i), sd)
	}
}

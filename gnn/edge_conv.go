package gnn

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// EdgeConv is an edge-convolution layer (https://arxiv.org/pdf/1801.07829).
// For every node i:
//
//	h_i = max over in-neighbors j of Θ(x_j − x_i) + Φ(x_i)
//
// where max is taken per feature.
type EdgeConv struct {
	Theta *Linear
	Phi   *Linear
	// If false, a node without incoming edges is a shape error, otherwise it gets zero embedding
	allowZeroInDegree bool
}

// NewEdgeConv creates layer mapping in features to out features
func NewEdgeConv(in, out int, allowZeroInDegree bool, src rand.Source) (*EdgeConv, error) {
	theta, err := NewLinear(in, out, src)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create theta transform")
	}
	phi, err := NewLinear(in, out, src)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create phi transform")
	}
	return &EdgeConv{
		Theta:             theta,
		Phi:               phi,
		allowZeroInDegree: allowZeroInDegree,
	}, nil
}

// Apply computes updated embeddings. Topology must cover exactly the rows of x.
func (conv *EdgeConv) Apply(topo *Topology, x *mat.Dense) (*mat.Dense, error) {
	numNodes, _ := x.Dims()
	if err := topo.Validate(numNodes); err != nil {
		return nil, err
	}
	return conv.apply(topo.inNeighbors(), x)
}

// apply works on pre-grouped neighbors so the stack validates topology only once
func (conv *EdgeConv) apply(neighbors [][]int, x *mat.Dense) (*mat.Dense, error) {
	numNodes, _ := x.Dims()
	// Θ is linear, so Θ(x_j − x_i) = Θx_j − Θx_i + b_Θ
	thetaX, err := conv.Theta.forwardNoBias(x)
	if err != nil {
		return nil, errors.Wrap(err, "Can't apply theta transform")
	}
	phiX, err := conv.Phi.Forward(x)
	if err != nil {
		return nil, errors.Wrap(err, "Can't apply phi transform")
	}
	out := conv.Theta.OutputSize()
	thetaBias := conv.Theta.Bias.RawRowView(0)
	h := mat.NewDense(numNodes, out, nil)
	for i := 0; i < numNodes; i++ {
		row := h.RawRowView(i)
		if len(neighbors[i]) == 0 {
			if !conv.allowZeroInDegree {
				return nil, errors.Wrapf(ErrShapeMismatch, "node %d has no incoming edges", i)
			}
			continue
		}
		for k := range row {
			row[k] = math.Inf(-1)
		}
		self := thetaX.RawRowView(i)
		selfPhi := phiX.RawRowView(i)
		for _, j := range neighbors[i] {
			other := thetaX.RawRowView(j)
			for k := range row {
				msg := other[k] - self[k] + thetaBias[k] + selfPhi[k]
				if msg > row[k] {
					row[k] = msg
				}
			}
		}
	}
	return h, nil
}

func (conv *EdgeConv) stateDict(prefix string, sd map[string]*mat.Dense) {
	conv.Theta.stateDict(prefix+".theta", sd)
	conv.Phi.stateDict(prefix+".phi", sd)
}

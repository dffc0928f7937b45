package gnn

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	eps = 0.00001
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(mode Mode, numLayers, featureSize int) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.NumLayers = numLayers
	cfg.FeatureSize = featureSize
	cfg.EdgeRegression.HiddenSizes = []int{4}
	return cfg
}

func newTestModel(t *testing.T, cfg Config, options ...Option) *Model {
	t.Helper()
	options = append([]Option{WithLogger(discardLogger()), WithMetrics(false)}, options...)
	model, err := NewModel(cfg, options...)
	require.NoError(t, err)
	return model
}

func randomEmbeddings(rows, cols int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rnd.Float64()*2 - 1
	}
	return mat.NewDense(rows, cols, data)
}

func onesEmbeddings(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 1.0
	}
	return mat.NewDense(rows, cols, data)
}

func identityAffinity(t *testing.T, n, m int) *Affinity {
	t.Helper()
	aff, err := NewAffinity(n, m, nil)
	require.NoError(t, err)
	for i := 0; i < n && i < m; i++ {
		aff.Set(i, i, 1.0)
	}
	return aff
}

// probeRegressor scores a row as Σ (k+1)·row[k], so transposed pairs get different scores
type probeRegressor struct {
	size int
}

func (probe probeRegressor) score(row []float64) float64 {
	sum := 0.0
	for k, v := range row {
		sum += float64(k+1) * v
	}
	return sum
}

func (probe probeRegressor) Regress(edges *mat.Dense) ([]float64, error) {
	rows, _ := edges.Dims()
	scores := make([]float64, rows)
	for k := range scores {
		scores[k] = probe.score(edges.RawRowView(k))
	}
	return scores, nil
}

func (probe probeRegressor) InputSize() int {
	return probe.size
}

func (probe probeRegressor) StateDict(prefix string, sd map[string]*mat.Dense) {}

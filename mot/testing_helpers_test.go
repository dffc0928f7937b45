package mot

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/LdDl/mot-gnn/gnn"
	"gonum.org/v1/gonum/mat"
)

// closenessRegressor scores a detection-track pair as 1/(1+‖edge‖), so equal embeddings give 1
type closenessRegressor struct {
	size int
}

func (reg closenessRegressor) Regress(edges *mat.Dense) ([]float64, error) {
	rows, _ := edges.Dims()
	scores := make([]float64, rows)
	for k := range scores {
		norm := 0.0
		for _, v := range edges.RawRowView(k) {
			norm += v * v
		}
		scores[k] = 1.0 / (1.0 + math.Sqrt(norm))
	}
	return scores, nil
}

func (reg closenessRegressor) InputSize() int {
	return reg.size
}

func (reg closenessRegressor) StateDict(prefix string, sd map[string]*mat.Dense) {}

// passthroughModel returns single-layer inference model whose graph layer keeps non-negative embeddings as is
func passthroughModel(t *testing.T, featureSize int) *gnn.Model {
	t.Helper()
	cfg := gnn.DefaultConfig()
	cfg.Mode = gnn.ModeInfer
	cfg.NumLayers = 1
	cfg.FeatureSize = featureSize
	model, err := gnn.NewModel(
		cfg,
		gnn.WithRegressor(closenessRegressor{size: featureSize}),
		gnn.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		gnn.WithMetrics(false),
	)
	if err != nil {
		t.Fatal(err)
	}
	identity := mat.NewDense(featureSize, featureSize, nil)
	for i := 0; i < featureSize; i++ {
		identity.Set(i, i, 1.0)
	}
	sd := map[string]*mat.Dense{
		"layers.0.theta.weight": mat.NewDense(featureSize, featureSize, nil),
		"layers.0.theta.bias":   mat.NewDense(1, featureSize, nil),
		"layers.0.phi.weight":   identity,
		"layers.0.phi.bias":     mat.NewDense(1, featureSize, nil),
	}
	if err := model.LoadStateDict(sd, true); err != nil {
		t.Fatal(err)
	}
	return model
}

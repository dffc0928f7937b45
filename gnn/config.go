package gnn

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mode selects what a forward pass returns
type Mode string

const (
	// ModeTrain computes losses along with affinity matrix
	ModeTrain Mode = "train"
	// ModeInfer computes affinity matrix only
	ModeInfer Mode = "infer"
)

// Config holds model assembly parameters
type Config struct {
	// Node embedding dimensionality (input and output of every graph layer)
	FeatureSize int `yaml:"feature_size"`
	// Number of edge-convolution layers
	NumLayers int `yaml:"num_gnn_layers"`
	// Nonlinearity after each layer: "relu" or "tanh"
	Activation string `yaml:"activation"`
	// Compute losses after every layer instead of only after the last one
	LossEveryLayer bool `yaml:"loss_every_layer"`
	// "train" or "infer"
	Mode Mode `yaml:"mode"`
	// Nodes without incoming edges get zero embedding instead of failing
	AllowZeroInDegree bool `yaml:"allow_zero_in_degree"`
	// Triplet loss margin
	TripletMargin float64 `yaml:"triplet_margin"`
	// Affinity loss tag: "bce" or "mse"
	AffinityLoss string `yaml:"affinity_loss"`
	// Edge regression head
	EdgeRegression RegressorConfig `yaml:"edge_regression"`
	// Seed for weights initialization
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() Config {
	return Config{
		FeatureSize:       128,
		NumLayers:         4,
		Activation:        ActivationReLU,
		LossEveryLayer:    true,
		Mode:              ModeTrain,
		AllowZeroInDegree: false,
		TripletMargin:     10,
		AffinityLoss:      AffinityLossBCE,
		EdgeRegression: RegressorConfig{
			Type:        RegressorMLP,
			HiddenSizes: []int{64},
		},
		Seed: 1,
	}
}

// LoadConfig reads YAML configuration on top of defaults using strict parsing
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Can't open model config '%s'", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	// Empty file means defaults
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(ErrConfiguration, "Can't parse model config '%s': %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values which do not depend on registries
func (cfg Config) Validate() error {
	if cfg.FeatureSize <= 0 {
		return errors.Wrapf(ErrConfiguration, "feature_size must be positive, got %d", cfg.FeatureSize)
	}
	if cfg.NumLayers <= 0 {
		return errors.Wrapf(ErrConfiguration, "num_gnn_layers must be positive, got %d", cfg.NumLayers)
	}
	if cfg.Mode != ModeTrain && cfg.Mode != ModeInfer {
		return errors.Wrapf(ErrConfiguration, "mode must be '%s' or '%s', got '%s'", ModeTrain, ModeInfer, cfg.Mode)
	}
	if cfg.TripletMargin < 0 {
		return errors.Wrapf(ErrConfiguration, "triplet_margin must be non-negative, got %f", cfg.TripletMargin)
	}
	for i, size := range cfg.EdgeRegression.HiddenSizes {
		if size <= 0 {
			return errors.Wrapf(ErrConfiguration, "edge_regression.hidden_sizes[%d] must be positive, got %d", i, size)
		}
	}
	return nil
}

func (cfg Config) String() string {
	return fmt.Sprintf("feature_size=%d layers=%d activation=%s loss_every_layer=%t mode=%s regression=%s%v affinity_loss=%s margin=%g",
		cfg.FeatureSize, cfg.NumLayers, cfg.Activation, cfg.LossEveryLayer, cfg.Mode,
		cfg.EdgeRegression.Type, cfg.EdgeRegression.HiddenSizes, cfg.AffinityLoss, cfg.TripletMargin)
}

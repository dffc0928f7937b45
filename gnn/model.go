package gnn

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/LdDl/mot-gnn/metrics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of a forward pass
type Result struct {
	// Predicted N×M affinity of the last layer
	Affinity *Affinity
	// Accumulated losses. Nil in inference mode.
	Losses *Losses
}

// Model is the affinity regression network: edge-convolution stack, edge regression head and loss composer
type Model struct {
	cfg        Config
	stack      *Stack
	regressor  Regressor
	composer   *Composer
	logger     *slog.Logger
	useMetrics bool
}

type modelOptions struct {
	regressor    Regressor
	regressorSet bool
	logger       *slog.Logger
	src          rand.Source
	useMetrics   bool
}

// Option customizes model assembly
type Option func(*modelOptions)

// WithRegressor replaces configured edge regression head. Passing nil is a configuration error.
func WithRegressor(reg Regressor) Option {
	return func(opts *modelOptions) {
		opts.regressor = reg
		opts.regressorSet = true
	}
}

// WithLogger sets structured logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(opts *modelOptions) {
		opts.logger = logger
	}
}

// WithSource sets randomness for weights initialization. Default is PCG seeded with Config.Seed.
func WithSource(src rand.Source) Option {
	return func(opts *modelOptions) {
		opts.src = src
	}
}

// WithMetrics enables or disables Prometheus collectors. Enabled by default.
func WithMetrics(enabled bool) Option {
	return func(opts *modelOptions) {
		opts.useMetrics = enabled
	}
}

// NewModel assembles model. Every configuration tag is resolved here, never during forward pass.
func NewModel(cfg Config, options ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := modelOptions{
		logger:     slog.Default(),
		src:        rand.NewPCG(cfg.Seed, cfg.Seed),
		useMetrics: true,
	}
	for _, option := range options {
		option(&opts)
	}

	activation, err := ActivationByName(cfg.Activation)
	if err != nil {
		return nil, err
	}
	affinityLoss, err := AffinityLossByName(cfg.AffinityLoss)
	if err != nil {
		return nil, err
	}
	tripletLoss, err := NewTripletLoss(cfg.TripletMargin)
	if err != nil {
		return nil, err
	}
	composer, err := NewComposer(affinityLoss, tripletLoss)
	if err != nil {
		return nil, err
	}
	stack, err := NewStack(cfg.FeatureSize, cfg.NumLayers, activation, cfg.AllowZeroInDegree, opts.src)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create graph layers")
	}

	regressor := opts.regressor
	if !opts.regressorSet {
		regressor, err = NewRegressor(cfg.EdgeRegression, cfg.FeatureSize, opts.src)
		if err != nil {
			return nil, errors.Wrap(err, "Can't create edge regression head")
		}
	}
	if regressor == nil {
		return nil, errors.Wrap(ErrConfiguration, "edge regression head is nil")
	}
	if regressor.InputSize() != cfg.FeatureSize {
		return nil, errors.Wrapf(ErrConfiguration, "edge regression head expects %d features, graph layers emit %d", regressor.InputSize(), cfg.FeatureSize)
	}

	return &Model{
		cfg:        cfg,
		stack:      stack,
		regressor:  regressor,
		composer:   composer,
		logger:     opts.logger,
		useMetrics: opts.useMetrics,
	}, nil
}

// Config returns configuration model was assembled from
func (model *Model) Config() Config {
	return model.cfg
}

// Mode returns fixed mode of the model
func (model *Model) Mode() Mode {
	return model.cfg.Mode
}

// Stack returns graph layers
func (model *Model) Stack() *Stack {
	return model.stack
}

// Regressor returns edge regression head
func (model *Model) Regressor() Regressor {
	return model.regressor
}

// Composer returns loss composer
func (model *Model) Composer() *Composer {
	return model.composer
}

// Forward runs graph layers over embeddings (N detections followed by M tracks) and regresses N×M affinity.
// In training mode gt must be N×M and losses are accumulated either after every layer
// or once after the last layer. In inference mode gt is ignored and may be nil.
func (model *Model) Forward(topo *Topology, embeddings *mat.Dense, gt *Affinity, n, m int) (*Result, error) {
	start := time.Now()
	defer func() {
		if model.useMetrics {
			metrics.ForwardDuration.WithLabelValues(string(model.cfg.Mode)).Observe(time.Since(start).Seconds())
		}
	}()

	train := model.cfg.Mode == ModeTrain
	if err := checkSplit(embeddings, n, m); err != nil {
		return nil, err
	}
	if embeddings != nil {
		if _, d := embeddings.Dims(); d != model.cfg.FeatureSize {
			return nil, errors.Wrapf(ErrShapeMismatch, "embeddings have %d features, expected %d", d, model.cfg.FeatureSize)
		}
	}
	if err := topo.Validate(n + m); err != nil {
		return nil, err
	}
	if train {
		if err := gt.checkShape(n, m, "ground truth"); err != nil {
			return nil, err
		}
	}

	if n+m == 0 {
		return model.emptyResult(train)
	}

	losses := Losses{}
	var pred *Affinity
	score := func(layer int, h *mat.Dense) error {
		aff, err := model.regress(h, n, m)
		if err != nil {
			return errors.Wrapf(err, "Can't regress affinity after layer %d", layer)
		}
		pred = aff
		if !train {
			return nil
		}
		layerLosses, err := model.composer.Compose(aff, gt, h, n, m)
		if err != nil {
			return errors.Wrapf(err, "Can't compute losses after layer %d", layer)
		}
		losses = losses.Add(layerLosses)
		model.logger.Debug("layer losses", "layer", layer, "affinity", layerLosses.Affinity, "triplet", layerLosses.Triplet)
		return nil
	}

	var onLayer LayerFunc
	// Intermediate affinity matters only for supervision
	if model.cfg.LossEveryLayer && train {
		onLayer = score
	}
	final, err := model.stack.Apply(topo, embeddings, onLayer)
	if err != nil {
		return nil, err
	}
	if onLayer == nil {
		if err := score(len(model.stack.Layers)-1, final); err != nil {
			return nil, err
		}
	}
	if rows, cols := pred.Dims(); rows != n || cols != m {
		return nil, errors.Wrapf(ErrShapeMismatch, "regressed affinity is %dx%d, expected %dx%d", rows, cols, n, m)
	}

	if !train {
		return &Result{Affinity: pred}, nil
	}
	if err := model.finishLosses(losses); err != nil {
		return nil, err
	}
	return &Result{Affinity: pred, Losses: &losses}, nil
}

// Infer runs forward pass of an inference-mode model and returns affinity only
func (model *Model) Infer(topo *Topology, embeddings *mat.Dense, n, m int) (*Affinity, error) {
	if model.cfg.Mode != ModeInfer {
		return nil, errors.Wrapf(ErrConfiguration, "Infer called on model in '%s' mode", model.cfg.Mode)
	}
	result, err := model.Forward(topo, embeddings, nil, n, m)
	if err != nil {
		return nil, err
	}
	return result.Affinity, nil
}

// regress builds pairwise edges from embeddings and scores them
func (model *Model) regress(embeddings *mat.Dense, n, m int) (*Affinity, error) {
	edges, err := PairwiseEdges(embeddings, n, m)
	if err != nil {
		return nil, err
	}
	return RegressAffinity(model.regressor, edges, n, m)
}

// lossLayers is number of layers contributing to losses
func (model *Model) lossLayers() int {
	if model.cfg.LossEveryLayer {
		return model.cfg.NumLayers
	}
	return 1
}

// emptyResult handles graph without nodes: there is nothing to propagate, every loss term is zero
func (model *Model) emptyResult(train bool) (*Result, error) {
	aff, err := NewAffinity(0, 0, nil)
	if err != nil {
		return nil, err
	}
	if !train {
		return &Result{Affinity: aff}, nil
	}
	losses := Losses{Layers: model.lossLayers()}
	if err := model.finishLosses(losses); err != nil {
		return nil, err
	}
	return &Result{Affinity: aff, Losses: &losses}, nil
}

// finishLosses enforces non-negative total loss and reports it
func (model *Model) finishLosses(losses Losses) error {
	if err := losses.Check(); err != nil {
		if model.useMetrics {
			metrics.InvariantViolations.Inc()
		}
		model.logger.Error("aborting forward pass", "error", err, "layers", losses.Layers)
		return err
	}
	if model.useMetrics {
		metrics.LastLoss.WithLabelValues("total").Set(losses.Total)
		metrics.LastLoss.WithLabelValues("affinity").Set(losses.Affinity)
		metrics.LastLoss.WithLabelValues("triplet").Set(losses.Triplet)
	}
	return nil
}

// Package metrics holds Prometheus collectors of the affinity model and the graph tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered in the default registry on package initialization.
var (
	// ForwardDuration measures forward pass time, labeled by model mode
	ForwardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motgnn_forward_duration_seconds",
			Help:    "Duration of GNN forward passes in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"},
	)

	// LastLoss holds losses of the latest training forward pass, labeled by kind (total, affinity, triplet)
	LastLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "motgnn_last_loss",
			Help: "Loss values of the latest training forward pass",
		},
		[]string{"kind"},
	)

	// InvariantViolations counts forward passes aborted because of negative or NaN loss
	InvariantViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "motgnn_loss_invariant_violations_total",
			Help: "Number of forward passes aborted because of negative or NaN total loss",
		},
	)

	// ActiveTracks is number of tracks kept by graph tracker after the latest frame
	ActiveTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motgnn_tracker_active_tracks",
			Help: "Number of tracks kept by the graph tracker",
		},
	)
)

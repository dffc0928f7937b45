// Package gnn scores detection-track pairs of a single frame with a graph neural network.
//
// Detections (first N nodes) and tracks (next M nodes) exchange messages through a
// stack of edge-convolution layers. A regression head then maps every
// detection-track relative vector embeddings[N+j] − embeddings[i] to an affinity
// score, giving the N×M matrix consumed by an assignment solver.
// In training mode the model also accumulates an affinity loss and a triplet loss,
// either after every layer or once after the last layer.
//
// gonum matrices can't have a zero dimension. Where N, M or N·M is zero the package uses
// nil *mat.Dense for embeddings and pairwise edges, and Affinity keeps its N×M shape.
//
// A forward pass is strictly sequential and owns its inputs for its whole duration.
package gnn

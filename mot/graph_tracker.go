package mot

import (
	"bytes"
	"log/slog"
	"sort"

	"github.com/LdDl/mot-gnn/gnn"
	"github.com/LdDl/mot-gnn/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// GraphTracker is Multi-object tracker (MOT) which associates detections with tracks
// by affinity regressed by graph neural network.
type GraphTracker struct {
	// Main storage
	Objects map[uuid.UUID]*Track
	// Affinity model. Must be in inference mode
	model *gnn.Model
	// Detections and tracks farther than this distance (meters) are not connected in graph
	// and can't be matched. Non-positive value disables gating. Default is 5.0
	gatingDistance float64
	// Pairs with lower affinity are never matched. Default is 0.5
	minAffinity float64
	// Max no match (max number of frames when object could not be found again). Default is 5
	maxNoMatch int
	// Assignment algorithm. Default is Hungarian
	algorithm MatchingAlgorithm
	logger    *slog.Logger
}

// NewDefaultGraphTracker creates default instance of GraphTracker
func NewDefaultGraphTracker(model *gnn.Model) (*GraphTracker, error) {
	return NewGraphTracker(model, 5.0, 0.5, 5, MatchingAlgorithmHungarian)
}

// NewGraphTracker creates new instance of GraphTracker
func NewGraphTracker(model *gnn.Model, gatingDistance, minAffinity float64, maxNoMatch int, algorithm MatchingAlgorithm) (*GraphTracker, error) {
	if model == nil {
		return nil, errors.Wrap(gnn.ErrConfiguration, "affinity model is nil")
	}
	if model.Mode() != gnn.ModeInfer {
		return nil, errors.Wrapf(gnn.ErrConfiguration, "tracker needs model in '%s' mode, got '%s'", gnn.ModeInfer, model.Mode())
	}
	if maxNoMatch < 0 {
		return nil, errors.Wrapf(gnn.ErrConfiguration, "max no match must be non-negative, got %d", maxNoMatch)
	}
	return &GraphTracker{
		Objects:        make(map[uuid.UUID]*Track),
		model:          model,
		gatingDistance: gatingDistance,
		minAffinity:    minAffinity,
		maxNoMatch:     maxNoMatch,
		algorithm:      algorithm,
		logger:         slog.Default(),
	}, nil
}

// SetLogger sets structured logger
func (tracker *GraphTracker) SetLogger(logger *slog.Logger) {
	tracker.logger = logger
}

// MatchObjects associates detections of a new frame with existing tracks.
// Matched detections take ID of the track, unmatched detections become new tracks,
// tracks without match for more than maxNoMatch frames are removed.
func (tracker *GraphTracker) MatchObjects(newObjects []*Track) error {
	for objectID := range tracker.Objects {
		// Make sure that object is marked as deactivated
		tracker.Objects[objectID].Deactivate()
	}

	// Deterministic column order
	trackIDs := make([]uuid.UUID, 0, len(tracker.Objects))
	for objectID := range tracker.Objects {
		trackIDs = append(trackIDs, objectID)
	}
	sort.Slice(trackIDs, func(i, j int) bool {
		return bytes.Compare(trackIDs[i][:], trackIDs[j][:]) < 0
	})
	tracks := make([]*Track, len(trackIDs))
	for j, objectID := range trackIDs {
		tracks[j] = tracker.Objects[objectID]
	}

	embeddings, err := tracker.embeddings(newObjects, tracks)
	if err != nil {
		return err
	}
	n, m := len(newObjects), len(tracks)
	adjacency := GatedAdjacency(newObjects, tracks, tracker.gatingDistance)
	affinity, err := tracker.model.Infer(gnn.BipartiteFromAffinity(adjacency), embeddings, n, m)
	if err != nil {
		return errors.Wrap(err, "Can't infer affinity")
	}
	// Pairs outside of gate are impossible: lowest affinity for the solver and skipped after it
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if adjacency.At(i, j) <= 0 {
				affinity.Set(i, j, 0)
			}
		}
	}

	matches := AssignAffinity(affinity, tracker.algorithm, tracker.minAffinity)
	matchedDetections := make(map[int]struct{}, len(matches))
	matchedTracks := make(map[int]struct{}, len(matches))
	for _, match := range matches {
		// Zero affinity still passes non-positive minAffinity
		if adjacency.At(match.Detection, match.Track) <= 0 {
			continue
		}
		objectID := trackIDs[match.Track]
		detection := newObjects[match.Detection]
		err := tracker.Objects[objectID].Update(detection)
		if err != nil {
			return errors.Wrapf(err, "Can't update track with id %s", objectID.String())
		}
		// We need to update ID of new object to match existing one
		detection.SetID(objectID)
		matchedDetections[match.Detection] = struct{}{}
		matchedTracks[match.Track] = struct{}{}
	}

	// Register unmatched detections
	for i, detection := range newObjects {
		if _, ok := matchedDetections[i]; ok {
			continue
		}
		detection.Activate()
		tracker.Objects[detection.GetID()] = detection
	}

	// Clean up existing data
	for j, objectID := range trackIDs {
		if _, ok := matchedTracks[j]; ok {
			continue
		}
		tracker.Objects[objectID].IncNoMatch()
		// Remove object if it was not found for a long time
		if tracker.Objects[objectID].GetNoMatchTimes() > tracker.maxNoMatch {
			delete(tracker.Objects, objectID)
		}
	}

	metrics.ActiveTracks.Set(float64(len(tracker.Objects)))
	tracker.logger.Debug("frame matched", "detections", n, "tracks", m, "matches", len(matches), "objects", len(tracker.Objects))
	return nil
}

// embeddings stacks features of detections followed by tracks into (N+M)×D matrix
func (tracker *GraphTracker) embeddings(detections, tracks []*Track) (*mat.Dense, error) {
	total := len(detections) + len(tracks)
	if total == 0 {
		return nil, nil
	}
	featureSize := tracker.model.Config().FeatureSize
	data := make([]float64, 0, total*featureSize)
	for i, detection := range detections {
		if len(detection.GetFeature()) != featureSize {
			return nil, errors.Wrapf(gnn.ErrShapeMismatch, "detection %d has %d features, expected %d", i, len(detection.GetFeature()), featureSize)
		}
		data = append(data, detection.GetFeature()...)
	}
	for _, track := range tracks {
		if len(track.GetFeature()) != featureSize {
			return nil, errors.Wrapf(gnn.ErrShapeMismatch, "track %s has %d features, expected %d", track.GetID(), len(track.GetFeature()), featureSize)
		}
		data = append(data, track.GetFeature()...)
	}
	return mat.NewDense(total, featureSize, data), nil
}

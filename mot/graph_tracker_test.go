package mot

import (
	"errors"
	"testing"

	"github.com/LdDl/mot-gnn/gnn"
	"github.com/google/uuid"
)

func TestGraphTrackerKeepsIdentities(t *testing.T) {
	model := passthroughModel(t, 3)
	tracker, err := NewDefaultGraphTracker(model)
	if err != nil {
		t.Fatal(err)
	}

	type object struct {
		center  Point
		feature []float64
	}
	framesIterations := [][]object{
		{
			{NewPoint(0, 0, 0), []float64{1, 1, 1}},
			{NewPoint(10, 0, 0), []float64{5, 5, 5}},
		},
		{
			// Detections come in different order
			{NewPoint(10.3, 0.1, 0), []float64{5, 5, 5.1}},
			{NewPoint(0.2, 0.1, 0), []float64{1, 1.1, 1}},
		},
		{
			{NewPoint(0.5, 0.2, 0), []float64{1, 1.1, 1}},
			{NewPoint(10.5, 0.1, 0), []float64{5, 5.1, 5.1}},
			// Newcomer
			{NewPoint(0, 20, 0), []float64{3, 3, 3}},
		},
	}

	var nearID, farID uuid.UUID
	for iter, frame := range framesIterations {
		detections := make([]*Track, len(frame))
		for j, obj := range frame {
			detections[j] = NewTrack(obj.center, obj.feature)
		}
		if err := tracker.MatchObjects(detections); err != nil {
			t.Fatal(err)
		}
		for _, detection := range detections {
			near := detection.GetCenter().X < 5 && detection.GetCenter().Y < 5
			far := detection.GetCenter().X > 5
			switch {
			case iter == 0 && near:
				nearID = detection.GetID()
			case iter == 0 && far:
				farID = detection.GetID()
			case near && detection.GetID() != nearID:
				t.Errorf("frame %d: near object changed id", iter)
			case far && detection.GetID() != farID:
				t.Errorf("frame %d: far object changed id", iter)
			}
		}
	}

	correctNumOfObjects := 3
	if len(tracker.Objects) != correctNumOfObjects {
		t.Errorf("incorrect number of objects: %d, expected: %d", len(tracker.Objects), correctNumOfObjects)
	}
	nearTrack, ok := tracker.Objects[nearID]
	if !ok {
		t.Fatalf("near object is lost")
	}
	if len(nearTrack.GetTrack()) != 3 {
		t.Errorf("incorrect track length: %d, expected: 3", len(nearTrack.GetTrack()))
	}
	for objectID, object := range tracker.Objects {
		if !object.IsActive() {
			t.Errorf("object %s should be active", objectID)
		}
	}
}

func TestGraphTrackerRemovesLostObjects(t *testing.T) {
	model := passthroughModel(t, 3)
	tracker, err := NewGraphTracker(model, 5.0, 0.5, 2, MatchingAlgorithmGreedy)
	if err != nil {
		t.Fatal(err)
	}
	if err := tracker.MatchObjects([]*Track{NewTrack(NewPoint(0, 0, 0), []float64{1, 1, 1})}); err != nil {
		t.Fatal(err)
	}
	for iter := 1; iter <= 3; iter++ {
		if err := tracker.MatchObjects([]*Track{}); err != nil {
			t.Fatal(err)
		}
		correctNumOfObjects := 1
		if iter == 3 {
			correctNumOfObjects = 0
		}
		if len(tracker.Objects) != correctNumOfObjects {
			t.Errorf("frame %d: incorrect number of objects: %d, expected: %d", iter, len(tracker.Objects), correctNumOfObjects)
		}
	}
}

func TestGraphTrackerGating(t *testing.T) {
	model := passthroughModel(t, 3)
	tracker, err := NewDefaultGraphTracker(model)
	if err != nil {
		t.Fatal(err)
	}
	first := NewTrack(NewPoint(0, 0, 0), []float64{1, 1, 1})
	if err := tracker.MatchObjects([]*Track{first}); err != nil {
		t.Fatal(err)
	}
	// Same appearance, but too far away
	jumped := NewTrack(NewPoint(50, 0, 0), []float64{1, 1, 1})
	if err := tracker.MatchObjects([]*Track{jumped}); err != nil {
		t.Fatal(err)
	}
	if jumped.GetID() == first.GetID() {
		t.Errorf("objects outside of gate must not be matched")
	}
	if len(tracker.Objects) != 2 {
		t.Errorf("incorrect number of objects: %d, expected: 2", len(tracker.Objects))
	}
}

func TestGraphTrackerGatingWithoutAffinityThreshold(t *testing.T) {
	model := passthroughModel(t, 3)
	for _, algorithm := range []MatchingAlgorithm{MatchingAlgorithmHungarian, MatchingAlgorithmGreedy} {
		tracker, err := NewGraphTracker(model, 5.0, 0, 5, algorithm)
		if err != nil {
			t.Fatal(err)
		}
		first := NewTrack(NewPoint(0, 0, 0), []float64{1, 1, 1})
		if err := tracker.MatchObjects([]*Track{first}); err != nil {
			t.Fatal(err)
		}
		jumped := NewTrack(NewPoint(50, 0, 0), []float64{1, 1, 1})
		if err := tracker.MatchObjects([]*Track{jumped}); err != nil {
			t.Fatal(err)
		}
		if jumped.GetID() == first.GetID() {
			t.Errorf("%s: objects outside of gate must not be matched", algorithm)
		}
		if len(tracker.Objects) != 2 {
			t.Errorf("%s: incorrect number of objects: %d, expected: 2", algorithm, len(tracker.Objects))
		}
	}
}

func TestGraphTrackerFeatureMismatch(t *testing.T) {
	model := passthroughModel(t, 3)
	tracker, err := NewDefaultGraphTracker(model)
	if err != nil {
		t.Fatal(err)
	}
	err = tracker.MatchObjects([]*Track{NewTrack(NewPoint(0, 0, 0), []float64{1, 1})})
	if !errors.Is(err, gnn.ErrShapeMismatch) {
		t.Errorf("expected shape mismatch, got %v", err)
	}
}

func TestGraphTrackerNeedsInferenceModel(t *testing.T) {
	cfg := gnn.DefaultConfig()
	cfg.FeatureSize = 3
	cfg.NumLayers = 1
	model, err := gnn.NewModel(cfg, gnn.WithMetrics(false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewDefaultGraphTracker(model); !errors.Is(err, gnn.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if _, err := NewDefaultGraphTracker(nil); !errors.Is(err, gnn.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestGatedTopology(t *testing.T) {
	detections := []*Track{
		NewTrack(NewPoint(0, 0, 0), nil),
		NewTrack(NewPoint(100, 0, 0), nil),
	}
	tracks := []*Track{
		NewTrack(NewPoint(1, 0, 0), nil),
	}
	topo := GatedTopology(detections, tracks, 5.0)
	// One detection-track pair in both directions plus three self loops
	if topo.NumEdges() != 5 {
		t.Errorf("incorrect number of edges: %d, expected: 5", topo.NumEdges())
	}
	topo = GatedTopology(detections, tracks, 0)
	if topo.NumEdges() != 7 {
		t.Errorf("incorrect number of edges without gating: %d, expected: 7", topo.NumEdges())
	}
}

package mot

import (
	"math"
	"testing"
)

func TestTrackUpdate(t *testing.T) {
	tr := NewTrack(NewPoint(0, 0, 0), []float64{1, 2, 3})
	tr.IncNoMatch()
	tr.IncNoMatch()
	detection := NewTrack(NewPoint(1, 1, 0), []float64{4, 5, 6})
	if err := tr.Update(detection); err != nil {
		t.Fatal(err)
	}
	if !tr.IsActive() {
		t.Errorf("track should be active after update")
	}
	if tr.GetNoMatchTimes() != 0 {
		t.Errorf("no match times should be reset, got %d", tr.GetNoMatchTimes())
	}
	if tr.GetCenter() != NewPoint(1, 1, 0) {
		t.Errorf("incorrect center: %v", tr.GetCenter())
	}
	if tr.GetFeature()[2] != 6 {
		t.Errorf("feature should be taken from detection, got %v", tr.GetFeature())
	}
	if len(tr.GetTrack()) != 2 {
		t.Errorf("incorrect track length: %d, expected: 2", len(tr.GetTrack()))
	}
}

func TestTrackUpdateFeatureMismatch(t *testing.T) {
	tr := NewTrack(NewPoint(0, 0, 0), []float64{1, 2, 3})
	detection := NewTrack(NewPoint(0, 0, 0), []float64{1, 2})
	if err := tr.Update(detection); err == nil {
		t.Errorf("expected error on feature size mismatch")
	}
}

func TestTrackMaxLen(t *testing.T) {
	tr := NewTrack(NewPoint(0, 0, 0), []float64{1})
	tr.SetMaxTrackLen(3)
	for i := 1; i <= 5; i++ {
		if err := tr.Update(NewTrack(NewPoint(float64(i), 0, 0), []float64{1})); err != nil {
			t.Fatal(err)
		}
	}
	history := tr.GetTrack()
	if len(history) != 3 {
		t.Fatalf("incorrect track length: %d, expected: 3", len(history))
	}
	if history[0].X != 3 || history[2].X != 5 {
		t.Errorf("oldest points should be dropped: %v", history)
	}
}

func TestTrackFromPoints(t *testing.T) {
	encoder, err := NewMeanPointEncoder(4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	points := [][]float64{
		{0, 0, 0, 10},
		{2, 4, 6, 20},
	}
	tr, err := NewTrackFromPoints(points, encoder)
	if err != nil {
		t.Fatal(err)
	}
	if tr.GetCenter() != NewPoint(1, 2, 3) {
		t.Errorf("incorrect center: %v", tr.GetCenter())
	}
	if math.Abs(tr.GetFeature()[3]-15) > eps {
		t.Errorf("incorrect mean intensity: %f", tr.GetFeature()[3])
	}
	if _, err := NewTrackFromPoints(nil, encoder); err == nil {
		t.Errorf("expected error for object without points")
	}
}

func TestTrackDistance(t *testing.T) {
	a := NewTrack(NewPoint(0, 0, 0), nil)
	b := NewTrack(NewPoint(1, 2, 2), nil)
	if math.Abs(a.DistanceTo(b)-3) > eps {
		t.Errorf("incorrect distance: %f, expected: 3", a.DistanceTo(b))
	}
}

package mot

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Track is a tracked object (or a fresh detection before association).
// It carries appearance feature vector consumed by the affinity model and 3D center used for gating.
// There is no motion model: position of a track is position of its last matched detection.
type Track struct {
	id           uuid.UUID
	center       Point
	feature      []float64
	track        []Point
	maxTrackLen  int
	active       bool
	noMatchTimes int
}

// NewTrack creates new track from a detection center and its feature vector
func NewTrack(center Point, feature []float64) *Track {
	tr := Track{
		id:           uuid.New(),
		center:       center,
		feature:      feature,
		track:        make([]Point, 0, 150),
		maxTrackLen:  150,
		active:       false,
		noMatchTimes: 0,
	}
	tr.track = append(tr.track, center)
	return &tr
}

// NewTrackFromPoints creates new track from object's points (x, y, z, ...): center is mean position,
// feature is produced by encoder
func NewTrackFromPoints(points [][]float64, encoder *MeanPointEncoder) (*Track, error) {
	feature, err := encoder.Encode(points)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode object points")
	}
	center := Point{}
	for _, row := range points {
		p := NewPointFrom(row)
		center.X += p.X
		center.Y += p.Y
		center.Z += p.Z
	}
	count := float64(len(points))
	center.X /= count
	center.Y /= count
	center.Z /= count
	return NewTrack(center, feature), nil
}

// Activate activates track
func (tr *Track) Activate() {
	tr.active = true
}

// Deactivate deactivates track
func (tr *Track) Deactivate() {
	tr.active = false
}

// IsActive returns true if track was matched or registered on the latest frame
func (tr *Track) IsActive() bool {
	return tr.active
}

// GetID returns track's identifier
func (tr *Track) GetID() uuid.UUID {
	return tr.id
}

// SetID sets track's identifier
func (tr *Track) SetID(newID uuid.UUID) {
	tr.id = newID
}

// GetCenter returns track's current center
func (tr *Track) GetCenter() Point {
	return tr.center
}

// GetFeature returns track's appearance feature. Be careful: this is not copy of feature, but reference to it
func (tr *Track) GetFeature() []float64 {
	return tr.feature
}

// GetTrack returns track's history of centers. Be careful: this is not copy of track, but reference to it
func (tr *Track) GetTrack() []Point {
	return tr.track
}

// GetMaxTrackLen returns track's max history length
func (tr *Track) GetMaxTrackLen() int {
	return tr.maxTrackLen
}

// SetMaxTrackLen sets track's max history length
func (tr *Track) SetMaxTrackLen(newMaxTrackLen int) {
	tr.maxTrackLen = newMaxTrackLen
}

// GetNoMatchTimes returns track's no match times
func (tr *Track) GetNoMatchTimes() int {
	return tr.noMatchTimes
}

// IncNoMatch increases track's no match times
func (tr *Track) IncNoMatch() {
	tr.noMatchTimes++
}

// ResetNoMatch resets track's no match times
func (tr *Track) ResetNoMatch() {
	tr.noMatchTimes = 0
}

// DistanceTo returns distance to other track (center to center)
func (tr *Track) DistanceTo(other *Track) float64 {
	return euclideanDistance(tr.center, other.center)
}

// Update takes center and feature of matched detection
func (tr *Track) Update(detection *Track) error {
	if len(detection.feature) != len(tr.feature) {
		return errors.Errorf("feature size mismatch: track has %d, detection has %d", len(tr.feature), len(detection.feature))
	}
	tr.center = detection.center
	tr.feature = detection.feature
	tr.active = true
	tr.noMatchTimes = 0

	tr.track = append(tr.track, tr.center)
	if len(tr.track) > tr.maxTrackLen {
		tr.track = tr.track[1:]
	}
	return nil
}

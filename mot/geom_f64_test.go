package mot

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264, Z: 0}
	p2 := Point{X: 421, Y: 427, Z: 0}
	correnctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}

	p3 := Point{X: 1, Y: 2, Z: 3}
	p4 := Point{X: 3, Y: 5, Z: 9}
	// sqrt(4 + 9 + 36) = 7
	answer = euclideanDistance(p3, p4)
	if math.Abs(answer-7.0) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, 7.0)
	}
}

func TestNewPointFrom(t *testing.T) {
	p := NewPointFrom([]float64{1.5, -2, 0.25, 117})
	if p != NewPoint(1.5, -2, 0.25) {
		t.Errorf("Wrong point: %v", p)
	}
	short := NewPointFrom([]float64{4})
	if short != NewPoint(4, 0, 0) {
		t.Errorf("Wrong point: %v", short)
	}
}

package mot

import (
	"math"
)

// Point is a position in the 3D sensor (world) frame, meters
type Point struct {
	X float64
	Y float64
	Z float64
}

func NewPoint(x, y, z float64) Point {
	return Point{
		X: x,
		Y: y,
		Z: z,
	}
}

// NewPointFrom takes first three components of a point-cloud row (x, y, z, ...)
func NewPointFrom(row []float64) Point {
	p := Point{}
	if len(row) > 0 {
		p.X = row[0]
	}
	if len(row) > 1 {
		p.Y = row[1]
	}
	if len(row) > 2 {
		p.Z = row[2]
	}
	return p
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2) + math.Pow(p1.Z-p2.Z, 2))
}

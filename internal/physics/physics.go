// Package physics provides the distance, angle and random helpers shared by
// every entity of the card.
package physics

import (
	"math"
	"math/rand"
)

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle checks if a point lies strictly inside a circle.
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) < radius*radius
}

// Angle returns the direction from (x1,y1) to (x2,y2) in radians.
func Angle(x1, y1, x2, y2 float64) float64 {
	return math.Atan2(y2-y1, x2-x1)
}

// Polar returns the vector of the given length pointing along angle.
func Polar(angle, length float64) (x, y float64) {
	return math.Cos(angle) * length, math.Sin(angle) * length
}

// Rotate rotates (x,y) around the origin by angle radians.
func Rotate(x, y, angle float64) (float64, float64) {
	sin, cos := math.Sincos(angle)
	return x*cos - y*sin, x*sin + y*cos
}

// Random returns a uniformly distributed value in [min, max).
func Random(r *rand.Rand, min, max float64) float64 {
	return r.Float64()*(max-min) + min
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package geometry computes the scalar measurements the rule engine
// consumes: joint angles and relative joint offsets. All functions are pure.
package geometry

import "math"

// Point is a 2D landmark position in a consistent coordinate space
// (normalized or pixel, x right, y down).
type Point struct {
	X float64
	Y float64
}

// Angle returns the angle in degrees at vertex b between the rays b->a and
// b->c, in [0, 180]. The cosine is clamped before arccos to absorb floating
// point drift. Degenerate rays (zero length) yield 0.
func Angle(a, b, c Point) float64 {
	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	na := math.Hypot(bax, bay)
	nc := math.Hypot(bcx, bcy)
	if na == 0 || nc == 0 {
		return 0
	}

	cos := (bax*bcx + bay*bcy) / (na * nc)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// VerticalAngle returns the angle in degrees between the segment
// bottom->top and the upward vertical axis, in [0, 180]. Used for the
// forward-head check: ears directly above shoulders give 0.
func VerticalAngle(top, bottom Point) float64 {
	dx := top.X - bottom.X
	dy := top.Y - bottom.Y

	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0
	}

	// Up is -y in image coordinates.
	cos := -dy / n
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// ForwardOffsetX returns how far p sits ahead of q along the facing
// direction, in the points' coordinate units. Positive means p extends past
// q the way the subject faces; facingRight maps "ahead" to +x.
func ForwardOffsetX(p, q Point, facingRight bool) float64 {
	if facingRight {
		return p.X - q.X
	}
	return q.X - p.X
}

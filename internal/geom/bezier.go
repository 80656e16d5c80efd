package geom

import "math"

// CubicAt evaluates the cubic bezier p0, c1, c2, p1 at t in [0, 1].
func CubicAt(p0, c1, c2, p1 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}

// Flatten step limits.
const (
	MinCubicSteps = 4
	MaxCubicSteps = 64
)

// CubicSteps picks the number of line segments for flattening a cubic, based
// on the length of its control polygon. The result is in
// [MinCubicSteps, MaxCubicSteps].
func CubicSteps(p0, c1, c2, p1 Point) int {
	poly := c1.Sub(p0).Len() + c2.Sub(c1).Len() + p1.Sub(c2).Len()
	if !finite(poly) {
		return MinCubicSteps
	}
	n := int(math.Ceil(poly / 4))
	return max(MinCubicSteps, min(MaxCubicSteps, n))
}

// FlattenCubic appends the points of the cubic after p0 (p0 itself is not
// included, p1 is always last) to dst.
func FlattenCubic(dst []Point, p0, c1, c2, p1 Point) []Point {
	n := CubicSteps(p0, c1, c2, p1)
	for i := 1; i < n; i++ {
		dst = append(dst, CubicAt(p0, c1, c2, p1, float64(i)/float64(n)))
	}
	return append(dst, p1)
}

// CubicBounds returns the exact axis-aligned bounds of a cubic bezier.
func CubicBounds(p0, c1, c2, p1 Point) Rect {
	pts := []Point{p0, p1}
	for _, t := range cubicExtrema(p0.X, c1.X, c2.X, p1.X) {
		pts = append(pts, CubicAt(p0, c1, c2, p1, t))
	}
	for _, t := range cubicExtrema(p0.Y, c1.Y, c2.Y, p1.Y) {
		pts = append(pts, CubicAt(p0, c1, c2, p1, t))
	}
	return RectFromPoints(pts)
}

// cubicExtrema returns parameters in (0, 1) where the derivative of the 1D
// cubic is zero.
func cubicExtrema(p0, p1, p2, p3 float64) []float64 {
	// B'(t)/3 = a t^2 + b t + c
	a := -p0 + 3*p1 - 3*p2 + p3
	b := 2 * (p0 - 2*p1 + p2)
	c := p1 - p0

	var ts []float64
	keep := func(t float64) {
		if t > 0 && t < 1 {
			ts = append(ts, t)
		}
	}

	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) > eps {
			keep(-c / b)
		}
		return ts
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return ts
	}
	sq := math.Sqrt(disc)
	keep((-b + sq) / (2 * a))
	keep((-b - sq) / (2 * a))
	return ts
}

package geometry

import (
	"math"

	"github.com/lucent/lucent/core-go/internal/geom"
)

// Sampling limits for ellipse tessellation.
const (
	MinEllipseSegments = 16
	MaxEllipseSegments = 256
)

// Magic number for bezier approximation of a circle/ellipse
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
const kappa = 0.5522847498

// Ellipse is centered at (CenterX, CenterY). Radii are never negative.
type Ellipse struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	RadiusX float64 `json:"radiusX"`
	RadiusY float64 `json:"radiusY"`
}

// NewEllipse clamps negative radii to zero.
func NewEllipse(cx, cy, rx, ry float64) *Ellipse {
	return &Ellipse{CenterX: cx, CenterY: cy, RadiusX: max(rx, 0), RadiusY: max(ry, 0)}
}

// EllipseSegments returns the number of boundary samples for an ellipse
// whose larger radius is r: roughly one sample every 8 units of
// circumference, within [MinEllipseSegments, MaxEllipseSegments].
func EllipseSegments(r float64) int {
	if !(r > 0) || math.IsInf(r, 0) {
		return MinEllipseSegments
	}
	n := int(math.Ceil(2 * math.Pi * r / 8))
	return max(MinEllipseSegments, min(MaxEllipseSegments, n))
}

func (e *Ellipse) Bounds() geom.Rect {
	return geom.Rect{
		X:      e.CenterX - e.RadiusX,
		Y:      e.CenterY - e.RadiusY,
		Width:  2 * e.RadiusX,
		Height: 2 * e.RadiusY,
	}
}

func (e *Ellipse) Outline() Outline {
	cx, cy, rx, ry := e.CenterX, e.CenterY, e.RadiusX, e.RadiusY
	kx, ky := rx*kappa, ry*kappa

	// Four bezier curves to approximate an ellipse
	var o Outline
	o.MoveTo(geom.Pt(cx+rx, cy))
	o.CubicTo(geom.Pt(cx+rx, cy+ky), geom.Pt(cx+kx, cy+ry), geom.Pt(cx, cy+ry))
	o.CubicTo(geom.Pt(cx-kx, cy+ry), geom.Pt(cx-rx, cy+ky), geom.Pt(cx-rx, cy))
	o.CubicTo(geom.Pt(cx-rx, cy-ky), geom.Pt(cx-kx, cy-ry), geom.Pt(cx, cy-ry))
	o.CubicTo(geom.Pt(cx+kx, cy-ry), geom.Pt(cx+rx, cy-ky), geom.Pt(cx+rx, cy))
	o.Close()
	return o
}

// FillVertices returns a triangle fan: the center, then N+1 boundary
// samples where the last repeats the first.
func (e *Ellipse) FillVertices() []geom.Point {
	n := EllipseSegments(max(e.RadiusX, e.RadiusY))
	out := make([]geom.Point, 0, n+2)
	out = append(out, geom.Pt(e.CenterX, e.CenterY))
	for i := 0; i <= n; i++ {
		out = append(out, e.sample(i, n, e.RadiusX, e.RadiusY))
	}
	return out
}

// StrokeVertices returns N+1 outer/inner pairs, offset radially by half
// the width. Inner radii stop at zero.
func (e *Ellipse) StrokeVertices(width float64) []geom.Point {
	hw := max(width, 0) / 2
	n := EllipseSegments(max(e.RadiusX, e.RadiusY))
	out := make([]geom.Point, 0, 2*(n+1))
	for i := 0; i <= n; i++ {
		out = append(out,
			e.sample(i, n, e.RadiusX+hw, e.RadiusY+hw),
			e.sample(i, n, max(e.RadiusX-hw, 0), max(e.RadiusY-hw, 0)),
		)
	}
	return out
}

func (e *Ellipse) sample(i, n int, rx, ry float64) geom.Point {
	if i == n {
		i = 0 // close exactly on the first sample
	}
	theta := 2 * math.Pi * float64(i) / float64(n)
	return geom.Pt(e.CenterX+rx*math.Cos(theta), e.CenterY+ry*math.Sin(theta))
}

func (e *Ellipse) Clone() Geometry {
	c := *e
	return &c
}

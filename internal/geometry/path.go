package geometry

import (
	"errors"

	"github.com/lucent/lucent/core-go/internal/geom"
)

// ErrTooFewPoints is returned for paths with fewer than two points.
var ErrTooFewPoints = errors.New("path requires at least two points")

// PathPoint is an anchor with optional absolute bezier handles.
type PathPoint struct {
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	HandleIn  *geom.Point `json:"handleIn,omitempty"`
	HandleOut *geom.Point `json:"handleOut,omitempty"`
}

func (p PathPoint) Anchor() geom.Point { return geom.Pt(p.X, p.Y) }

// Path is a sequence of anchors joined by lines or cubic beziers. A segment
// is a cubic when its start has a HandleOut or its end has a HandleIn.
type Path struct {
	Points []PathPoint `json:"points"`
	Closed bool        `json:"closed"`
}

// NewPath validates the point count and copies the points.
func NewPath(points []PathPoint, closed bool) (*Path, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	p := &Path{Points: clonePoints(points), Closed: closed}
	return p, nil
}

func clonePoints(points []PathPoint) []PathPoint {
	out := make([]PathPoint, len(points))
	for i, pt := range points {
		out[i] = pt
		if pt.HandleIn != nil {
			h := *pt.HandleIn
			out[i].HandleIn = &h
		}
		if pt.HandleOut != nil {
			h := *pt.HandleOut
			out[i].HandleOut = &h
		}
	}
	return out
}

// segment returns the control points for the segment from a to b and
// whether it is a curve.
func segment(a, b PathPoint) (c1, c2 geom.Point, curved bool) {
	if a.HandleOut == nil && b.HandleIn == nil {
		return geom.Point{}, geom.Point{}, false
	}
	c1, c2 = a.Anchor(), b.Anchor()
	if a.HandleOut != nil {
		c1 = *a.HandleOut
	}
	if b.HandleIn != nil {
		c2 = *b.HandleIn
	}
	return c1, c2, true
}

func (p *Path) Outline() Outline {
	var o Outline
	if len(p.Points) == 0 {
		return o
	}
	o.MoveTo(p.Points[0].Anchor())
	for i := 1; i < len(p.Points); i++ {
		p.appendSegment(&o, p.Points[i-1], p.Points[i])
	}
	if p.Closed {
		last, first := p.Points[len(p.Points)-1], p.Points[0]
		if c1, c2, curved := segment(last, first); curved {
			o.CubicTo(c1, c2, first.Anchor())
		}
		o.Close()
	}
	return o
}

func (p *Path) appendSegment(o *Outline, a, b PathPoint) {
	if c1, c2, curved := segment(a, b); curved {
		o.CubicTo(c1, c2, b.Anchor())
		return
	}
	o.LineTo(b.Anchor())
}

// Bounds includes the extent of curved segments, not just the anchors.
func (p *Path) Bounds() geom.Rect {
	return p.Outline().Bounds()
}

// Flatten returns the boundary as a polyline. Curved segments are split
// into line segments. For closed paths the closing point is not repeated.
func (p *Path) Flatten() []geom.Point {
	if len(p.Points) == 0 {
		return nil
	}
	out := []geom.Point{p.Points[0].Anchor()}
	for i := 1; i < len(p.Points); i++ {
		out = flattenSegment(out, p.Points[i-1], p.Points[i])
	}
	if p.Closed && len(p.Points) > 1 {
		out = flattenSegment(out, p.Points[len(p.Points)-1], p.Points[0])
		out = out[:len(out)-1]
	}
	return out
}

func flattenSegment(dst []geom.Point, a, b PathPoint) []geom.Point {
	c1, c2, curved := segment(a, b)
	if !curved {
		return append(dst, b.Anchor())
	}
	return geom.FlattenCubic(dst, a.Anchor(), c1, c2, b.Anchor())
}

// FillVertices fans from the centroid of the flattened boundary. Open
// paths have no fill.
func (p *Path) FillVertices() []geom.Point {
	if !p.Closed {
		return nil
	}
	pts := p.Flatten()
	if len(pts) == 0 {
		return nil
	}
	var c geom.Point
	for _, pt := range pts {
		c = c.Add(pt)
	}
	c = c.Mul(1 / float64(len(pts)))

	out := make([]geom.Point, 0, len(pts)+2)
	out = append(out, c)
	out = append(out, pts...)
	return append(out, pts[0])
}

// StrokeVertices emits, for every flattened vertex, a left and a right
// vertex offset by half the width along the normal of the local tangent.
// Closed paths repeat the first pair at the end.
func (p *Path) StrokeVertices(width float64) []geom.Point {
	hw := max(width, 0) / 2
	pts := p.Flatten()
	n := len(pts)
	out := make([]geom.Point, 0, 2*n+2)
	for i := range pts {
		t := tangent(pts, i, p.Closed)
		normal := geom.Pt(-t.Y, t.X).Mul(hw)
		out = append(out, pts[i].Add(normal), pts[i].Sub(normal))
	}
	if p.Closed && n > 0 {
		out = append(out, out[0], out[1])
	}
	return out
}

// tangent is the unit direction at vertex i, averaging the incoming and
// outgoing directions at interior vertices.
func tangent(pts []geom.Point, i int, closed bool) geom.Point {
	n := len(pts)
	var in, out geom.Point
	switch {
	case i > 0:
		in = pts[i].Sub(pts[i-1]).Normalize()
	case closed && n > 1:
		in = pts[0].Sub(pts[n-1]).Normalize()
	}
	switch {
	case i < n-1:
		out = pts[i+1].Sub(pts[i]).Normalize()
	case closed && n > 1:
		out = pts[0].Sub(pts[i]).Normalize()
	}
	if t := in.Add(out).Normalize(); t != (geom.Point{}) {
		return t
	}
	if out != (geom.Point{}) {
		return out
	}
	if in != (geom.Point{}) {
		return in
	}
	return geom.Pt(1, 0)
}

func (p *Path) Clone() Geometry {
	return &Path{Points: clonePoints(p.Points), Closed: p.Closed}
}

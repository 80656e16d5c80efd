// Package geometry holds the parametric shape definitions and turns them
// into outlines for painting and flat vertex buffers for GPU upload.
// All coordinates are in geometry-local space, before any transform.
package geometry

import "github.com/lucent/lucent/core-go/internal/geom"

// Geometry is implemented by every shape kind.
type Geometry interface {
	// Bounds is the axis-aligned bounding box.
	Bounds() geom.Rect
	// Outline is the boundary used for painting fills and strokes.
	Outline() Outline
	// FillVertices returns a triangle strip (rectangles, text) or a
	// triangle fan (ellipses, closed paths). Open paths return nothing.
	FillVertices() []geom.Point
	// StrokeVertices returns a triangle strip of alternating outer and
	// inner vertices for a stroke of the given width.
	StrokeVertices(width float64) []geom.Point
	Clone() Geometry
}

// Op is an outline segment operation.
type Op uint8

const (
	OpMove Op = iota
	OpLine
	OpCubic
	OpClose
)

// Segment is one outline segment. MoveTo and LineTo use Pts[0], CubicTo
// uses Pts[0] and Pts[1] as control points and Pts[2] as the end point.
type Segment struct {
	Op  Op
	Pts [3]geom.Point
}

// Outline is a sequence of segments, possibly with several subpaths.
type Outline []Segment

// PathCommand represents a single path segment in wire form:
// {"M", x, y}, {"L", x, y}, {"C", x1, y1, x2, y2, x, y} or {"Z"}.
type PathCommand []interface{}

func (o *Outline) MoveTo(p geom.Point) { *o = append(*o, Segment{Op: OpMove, Pts: [3]geom.Point{p}}) }
func (o *Outline) LineTo(p geom.Point) { *o = append(*o, Segment{Op: OpLine, Pts: [3]geom.Point{p}}) }
func (o *Outline) Close()              { *o = append(*o, Segment{Op: OpClose}) }

func (o *Outline) CubicTo(c1, c2, p geom.Point) {
	*o = append(*o, Segment{Op: OpCubic, Pts: [3]geom.Point{c1, c2, p}})
}

// Transform returns a copy of the outline with every point mapped through m.
func (o Outline) Transform(m geom.Matrix2D) Outline {
	out := make(Outline, len(o))
	for i, s := range o {
		out[i] = s
		for j := range s.Pts {
			out[i].Pts[j] = m.Apply(s.Pts[j])
		}
	}
	return out
}

// Commands converts the outline to wire path commands.
func (o Outline) Commands() []PathCommand {
	cmds := make([]PathCommand, 0, len(o))
	for _, s := range o {
		switch s.Op {
		case OpMove:
			cmds = append(cmds, PathCommand{"M", s.Pts[0].X, s.Pts[0].Y})
		case OpLine:
			cmds = append(cmds, PathCommand{"L", s.Pts[0].X, s.Pts[0].Y})
		case OpCubic:
			cmds = append(cmds, PathCommand{"C",
				s.Pts[0].X, s.Pts[0].Y,
				s.Pts[1].X, s.Pts[1].Y,
				s.Pts[2].X, s.Pts[2].Y,
			})
		case OpClose:
			cmds = append(cmds, PathCommand{"Z"})
		}
	}
	return cmds
}

// Bounds computes the exact bounds of the outline, including curve extrema.
func (o Outline) Bounds() geom.Rect {
	var (
		pts  []geom.Point
		cur  geom.Point
		r    geom.Rect
		have bool
	)
	add := func(b geom.Rect) {
		if !have {
			r, have = b, true
			return
		}
		r = unionInclusive(r, b)
	}
	for _, s := range o {
		switch s.Op {
		case OpMove, OpLine:
			pts = append(pts, s.Pts[0])
			cur = s.Pts[0]
		case OpCubic:
			add(geom.CubicBounds(cur, s.Pts[0], s.Pts[1], s.Pts[2]))
			cur = s.Pts[2]
		}
	}
	if len(pts) > 0 {
		add(geom.RectFromPoints(pts))
	}
	return r
}

// unionInclusive unions two rects, keeping zero-area inputs (a horizontal
// line still has a bounding box).
func unionInclusive(a, b geom.Rect) geom.Rect {
	minX := min(a.X, b.X)
	minY := min(a.Y, b.Y)
	maxX := max(a.X+a.Width, b.X+b.Width)
	maxY := max(a.Y+a.Height, b.Y+b.Height)
	return geom.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// boxFill is the TL, BL, TR, BR triangle strip for an axis-aligned box.
func boxFill(r geom.Rect) []geom.Point {
	return []geom.Point{
		{X: r.X, Y: r.Y},
		{X: r.X, Y: r.Y + r.Height},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
	}
}

// boxStroke walks the corners TL, TR, BR, BL and back to TL, emitting an
// outer and an inner vertex for each.
func boxStroke(r geom.Rect, width float64) []geom.Point {
	hw := max(width, 0) / 2
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	return []geom.Point{
		{X: x0 - hw, Y: y0 - hw}, {X: x0 + hw, Y: y0 + hw},
		{X: x1 + hw, Y: y0 - hw}, {X: x1 - hw, Y: y0 + hw},
		{X: x1 + hw, Y: y1 + hw}, {X: x1 - hw, Y: y1 - hw},
		{X: x0 - hw, Y: y1 + hw}, {X: x0 + hw, Y: y1 - hw},
		{X: x0 - hw, Y: y0 - hw}, {X: x0 + hw, Y: y0 + hw},
	}
}

func boxOutline(r geom.Rect) Outline {
	var o Outline
	o.MoveTo(geom.Pt(r.X, r.Y))
	o.LineTo(geom.Pt(r.X+r.Width, r.Y))
	o.LineTo(geom.Pt(r.X+r.Width, r.Y+r.Height))
	o.LineTo(geom.Pt(r.X, r.Y+r.Height))
	o.Close()
	return o
}

package geometry

import "github.com/lucent/lucent/core-go/internal/geom"

// Rectangle is an axis-aligned box. Width and Height are never negative.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRectangle clamps negative dimensions to zero.
func NewRectangle(x, y, width, height float64) *Rectangle {
	return &Rectangle{X: x, Y: y, Width: max(width, 0), Height: max(height, 0)}
}

func (r *Rectangle) Bounds() geom.Rect {
	return geom.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (r *Rectangle) Outline() Outline                          { return boxOutline(r.Bounds()) }
func (r *Rectangle) FillVertices() []geom.Point                { return boxFill(r.Bounds()) }
func (r *Rectangle) StrokeVertices(width float64) []geom.Point { return boxStroke(r.Bounds(), width) }

func (r *Rectangle) Clone() Geometry {
	c := *r
	return &c
}

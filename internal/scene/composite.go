package scene

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/raster"
)

// ExportBounds is the union of the painted areas of every visible,
// textured node, in document space.
func ExportBounds(g *Graph) (geom.Rect, bool) {
	var out geom.Rect
	found := false
	for _, n := range g.Nodes {
		if !n.Visible {
			continue
		}
		if b, ok := n.TextureBounds(); ok {
			out = out.Union(b)
			found = true
		}
	}
	return out, found && !out.IsEmpty()
}

// Composite draws the visible nodes of g that fall in area into a new
// image at scale pixels per document unit. The viewport is not applied.
// Output wider or taller than limit pixels fails with
// document.ErrTextureTooLarge.
func Composite(g *Graph, area geom.Rect, scale float64, limit int) (*image.RGBA, error) {
	if area.IsEmpty() || scale <= 0 {
		return nil, fmt.Errorf("%w: composite area", document.ErrEmptyBounds)
	}
	if !area.IsFinite() {
		return nil, fmt.Errorf("%w: composite area is unbounded", document.ErrTextureTooLarge)
	}
	w, h, err := raster.PixelSize(area.Width, area.Height, scale, limit)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	toPixels := geom.Scale(scale, scale).Multiply(geom.Translate(-area.X, -area.Y))

	for _, n := range g.Nodes {
		if !n.Visible || n.Texture == nil {
			continue
		}
		r := n.Texture.Raster
		m := toPixels.
			Multiply(n.Matrix.To2D()).
			Multiply(geom.Translate(n.Offset.X, n.Offset.Y)).
			Multiply(geom.Scale(1/r.Scale, 1/r.Scale))
		draw.BiLinear.Transform(dst, aff3(m), r.Image, r.Image.Bounds(), draw.Over, nil)
	}
	return dst, nil
}

// aff3 converts column-order [a b c d e f] to x/image's row-major form.
func aff3(m geom.Matrix2D) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Render composites the whole visible scene at scale.
func (b *Builder) Render(scale float64) (*image.RGBA, error) {
	g := b.Graph()
	area, ok := ExportBounds(g)
	if !ok {
		return nil, fmt.Errorf("%w: nothing visible", document.ErrEmptyBounds)
	}
	return Composite(g, area, scale, b.cache.Limit())
}

// WritePNG encodes the composited scene to w.
func (b *Builder) WritePNG(w io.Writer, scale float64) error {
	img, err := b.Render(scale)
	if err != nil {
		return err
	}
	return raster.EncodePNG(w, img)
}

// ExportPNG writes the composited scene to path. It reports false, and
// leaves no partial file, when there is nothing to draw or the target is
// unwritable.
func (b *Builder) ExportPNG(path string, scale float64) bool {
	img, err := b.Render(scale)
	if err != nil {
		b.logger.Warn("export failed", "path", path, "error", err)
		return false
	}
	if err := raster.WritePNG(path, img); err != nil {
		b.logger.Warn("export failed", "path", path, "error", err)
		return false
	}
	return true
}

// Package raster renders a single item's geometry and appearances into an
// offscreen RGBA image, using rasterx for fills and strokes.
package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/geometry"
	"github.com/lucent/lucent/core-go/internal/paint"
)

// Defaults matching the texture cache configuration.
const (
	DefaultScale   = 2.0
	DefaultPadding = 4.0
	DefaultMaxSize = 8192
	// HardMaxSize caps the side length even when MaxSize is zero.
	HardMaxSize = 16384
)

// Rasterizer renders items at a fixed sample scale. Padding is added on
// every side, in geometry units, so rotated placement does not clip
// antialiased edges.
type Rasterizer struct {
	Scale   float64
	Padding float64
	MaxSize int
}

func New() Rasterizer {
	return Rasterizer{Scale: DefaultScale, Padding: DefaultPadding, MaxSize: DefaultMaxSize}
}

// Limit is the effective side length cap in pixels.
func (r Rasterizer) Limit() int {
	if r.MaxSize <= 0 || r.MaxSize > HardMaxSize {
		return HardMaxSize
	}
	return r.MaxSize
}

// PixelSize converts a size in geometry units to whole pixels at scale.
// Sizes that are not finite or exceed limit on either side fail with
// document.ErrTextureTooLarge before any integer conversion.
func PixelSize(width, height, scale float64, limit int) (int, int, error) {
	pw := math.Ceil(width * scale)
	ph := math.Ceil(height * scale)
	if math.IsNaN(pw) || math.IsNaN(ph) || pw > float64(limit) || ph > float64(limit) {
		return 0, 0, fmt.Errorf("%w: %gx%g exceeds %d", document.ErrTextureTooLarge, pw, ph, limit)
	}
	return int(pw), int(ph), nil
}

// Raster is a rendered item.
type Raster struct {
	Image *image.RGBA
	// Bounds is the painted area in geometry space, before padding.
	Bounds  geom.Rect
	Scale   float64
	Padding float64
}

// Offset is where the image's top-left corner sits in geometry space.
func (r *Raster) Offset() geom.Point {
	return geom.Pt(r.Bounds.X-r.Padding, r.Bounds.Y-r.Padding)
}

// DisplaySize is the image size in geometry units.
func (r *Raster) DisplaySize() (float64, float64) {
	b := r.Image.Bounds()
	return float64(b.Dx()) / r.Scale, float64(b.Dy()) / r.Scale
}

// PaintBounds is the geometry bounds grown by half the widest visible
// stroke, since strokes straddle the outline.
func PaintBounds(it *document.Item) (geom.Rect, bool) {
	b, ok := it.LocalBounds()
	if !ok {
		return geom.Rect{}, false
	}
	if w := paint.MaxStroke(it.Appearances); w > 0 {
		b = b.Inset(w / 2)
	}
	return b, true
}

// Rasterize renders it. Organizational items and items with empty paint
// bounds fail with document.ErrEmptyBounds; images larger than Limit
// on either side fail with document.ErrTextureTooLarge.
func (r Rasterizer) Rasterize(it *document.Item) (*Raster, error) {
	if !it.IsShape() {
		return nil, fmt.Errorf("%w: %s is not drawable", document.ErrEmptyBounds, it.Type)
	}
	bounds, _ := PaintBounds(it)
	if !bounds.IsFinite() {
		return nil, fmt.Errorf("%w: %s has unbounded extent", document.ErrTextureTooLarge, it.ID)
	}
	if bounds.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", document.ErrEmptyBounds, it.ID)
	}
	scale := r.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	w, h, err := PixelSize(bounds.Width+2*r.Padding, bounds.Height+2*r.Padding, scale, r.Limit())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", it.ID, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	toPixels := geom.Scale(scale, scale).Multiply(geom.Translate(r.Padding-bounds.X, r.Padding-bounds.Y))
	outline := it.Geometry.Outline().Transform(toPixels)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	dasher := rasterx.NewDasher(w, h, scanner)

	openPath := false
	if p, ok := it.Geometry.(*geometry.Path); ok {
		openPath = !p.Closed
	}

	for _, a := range it.Appearances {
		if !a.Paints() {
			continue
		}
		switch a.Kind {
		case paint.KindFill:
			if openPath {
				continue
			}
			filler.Clear()
			filler.SetColor(a.RGBA())
			addOutline(filler, outline)
			filler.Draw()
		case paint.KindStroke:
			dasher.Clear()
			dasher.SetStroke(
				fixed.Int26_6(a.Width*scale*64), fixed.Int26_6(4*64),
				rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Miter, nil, 0,
			)
			dasher.SetColor(a.RGBA())
			addOutline(dasher, outline)
			dasher.Draw()
		}
	}

	if t, ok := it.Geometry.(*geometry.Text); ok {
		if err := drawText(img, t, geom.Pt(r.Padding-bounds.X, r.Padding-bounds.Y), scale); err != nil {
			return nil, err
		}
	}

	return &Raster{Image: img, Bounds: bounds, Scale: scale, Padding: r.Padding}, nil
}

// addOutline feeds the outline to a rasterx adder, one subpath at a time.
func addOutline(a rasterx.Adder, o geometry.Outline) {
	open := false
	for _, s := range o {
		switch s.Op {
		case geometry.OpMove:
			if open {
				a.Stop(false)
			}
			a.Start(toFixed(s.Pts[0]))
			open = true
		case geometry.OpLine:
			a.Line(toFixed(s.Pts[0]))
		case geometry.OpCubic:
			a.CubeBezier(toFixed(s.Pts[0]), toFixed(s.Pts[1]), toFixed(s.Pts[2]))
		case geometry.OpClose:
			a.Stop(true)
			open = false
		}
	}
	if open {
		a.Stop(false)
	}
}

func toFixed(p geom.Point) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X, p.Y)
}

// drawText paints the wrapped lines of t. Wrapping is measured at the
// unscaled size so line breaks match the item's box.
func drawText(img *image.RGBA, t *geometry.Text, shift geom.Point, scale float64) error {
	c, err := paint.ParseColor(t.Color)
	if err != nil {
		return fmt.Errorf("%w: %w", document.ErrInvalidField, err)
	}
	if t.Opacity <= 0 || c.A == 0 || t.Content == "" {
		return nil
	}

	measure, err := geometry.NewFace(t.FontFamily, t.FontSize)
	if err != nil {
		return err
	}
	defer measure.Close()
	face, err := geometry.NewFace(t.FontFamily, t.FontSize*scale)
	if err != nil {
		return err
	}
	defer face.Close()

	lines := geometry.WrapLines(measure, t.Content, t.Width)
	lineHeight := geometry.LineHeight(face)
	ascent := float64(face.Metrics().Ascent) / 64

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(paint.WithOpacity(c, t.Opacity)),
		Face: face,
	}
	x := (t.X + shift.X) * scale
	y := (t.Y+shift.Y)*scale + ascent
	for _, line := range lines {
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
		d.DrawString(line)
		y += lineHeight
	}
	return nil
}

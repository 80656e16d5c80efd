// Package paint describes how shapes are painted: an ordered list of fill
// and stroke appearances, each with its own color and opacity.
package paint

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

type Kind string

const (
	KindFill   Kind = "fill"
	KindStroke Kind = "stroke"
)

// MaxStrokeWidth is the widest stroke an appearance may carry.
const MaxStrokeWidth = 100.0

// DefaultColor is used when an appearance or text item omits its color.
const DefaultColor = "#ffffff"

// Appearance is one paint layer of a shape. Width is only meaningful for
// strokes and is always zero for fills.
type Appearance struct {
	Kind    Kind    `json:"type"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width,omitempty"`
	Visible bool    `json:"visible"`
}

// NewFill returns a visible fill with opacity clamped to [0, 1].
func NewFill(c string, opacity float64) Appearance {
	return Appearance{Kind: KindFill, Color: c, Opacity: clamp(opacity, 0, 1), Visible: true}
}

// NewStroke returns a visible stroke with width clamped to [0, MaxStrokeWidth]
// and opacity clamped to [0, 1].
func NewStroke(c string, width, opacity float64) Appearance {
	return Appearance{
		Kind:    KindStroke,
		Color:   c,
		Width:   clamp(width, 0, MaxStrokeWidth),
		Opacity: clamp(opacity, 0, 1),
		Visible: true,
	}
}

// Defaults returns the appearances given to shapes created without any:
// a transparent white fill under a 1px white stroke.
func Defaults() []Appearance {
	return []Appearance{
		NewFill(DefaultColor, 0),
		NewStroke(DefaultColor, 1, 1),
	}
}

// Normalize clamps numeric fields into range and clears Width on fills.
func (a Appearance) Normalize() Appearance {
	a.Opacity = clamp(a.Opacity, 0, 1)
	if a.Kind == KindStroke {
		a.Width = clamp(a.Width, 0, MaxStrokeWidth)
	} else {
		a.Width = 0
	}
	return a
}

// Validate checks the kind and color of the appearance.
func (a Appearance) Validate() error {
	switch a.Kind {
	case KindFill, KindStroke:
	default:
		return fmt.Errorf("unknown appearance type %q", a.Kind)
	}
	if _, err := ParseColor(a.Color); err != nil {
		return err
	}
	return nil
}

// RGBA returns the appearance color premultiplied by its opacity.
// Unparseable colors paint as transparent.
func (a Appearance) RGBA() color.RGBA {
	c, err := ParseColor(a.Color)
	if err != nil {
		return color.RGBA{}
	}
	return WithOpacity(c, a.Opacity)
}

// Paints reports whether the appearance contributes pixels.
func (a Appearance) Paints() bool {
	if !a.Visible || a.Opacity <= 0 {
		return false
	}
	if a.Kind == KindStroke && a.Width <= 0 {
		return false
	}
	return true
}

// FirstFill returns the index of the first fill in list, or -1.
func FirstFill(list []Appearance) int {
	return first(list, KindFill)
}

// FirstStroke returns the index of the first stroke in list, or -1.
func FirstStroke(list []Appearance) int {
	return first(list, KindStroke)
}

func first(list []Appearance, k Kind) int {
	for i, a := range list {
		if a.Kind == k {
			return i
		}
	}
	return -1
}

// MaxStroke returns the width of the widest visible stroke in list.
func MaxStroke(list []Appearance) float64 {
	var w float64
	for _, a := range list {
		if a.Kind == KindStroke && a.Visible && a.Width > w {
			w = a.Width
		}
	}
	return w
}

// Clone copies the list.
func Clone(list []Appearance) []Appearance {
	if list == nil {
		return nil
	}
	out := make([]Appearance, len(list))
	copy(out, list)
	return out
}

// ParseColor accepts #rgb, #rrggbb, #aarrggbb, CSS color names and
// "transparent". The result is non-premultiplied with the parsed alpha.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if lower == "transparent" {
		return color.NRGBA{}, nil
	}
	if !strings.HasPrefix(s, "#") {
		named, ok := colornames.Map[lower]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: named.A}, nil
	}

	alpha := uint8(0xff)
	hex := s
	if len(s) == 9 {
		var a uint8
		if _, err := fmt.Sscanf(s[1:3], "%02x", &a); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = a
		hex = "#" + s[3:]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// WithOpacity scales the color's alpha by opacity and returns it premultiplied.
func WithOpacity(c color.NRGBA, opacity float64) color.RGBA {
	a := float64(c.A) * clamp(opacity, 0, 1)
	na := color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a + 0.5)}
	r, g, b, al := na.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(al >> 8)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package geometry

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lucent/lucent/core-go/internal/geom"
)

// Text limits and defaults.
const (
	MinFontSize       = 8.0
	MaxFontSize       = 200.0
	DefaultFontSize   = 16.0
	DefaultFontFamily = "Sans Serif"
	DefaultTextWidth  = 100.0
	MinTextWidth      = 1.0
)

// Text is a wrapped text box. A zero Height means the box grows to fit its
// wrapped content.
type Text struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Content    string  `json:"text"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"textColor"`
	Opacity    float64 `json:"textOpacity"`
}

// Normalize clamps the box and font parameters into range.
func (t *Text) Normalize() {
	t.Width = max(t.Width, MinTextWidth)
	t.Height = max(t.Height, 0)
	t.FontSize = min(max(t.FontSize, MinFontSize), MaxFontSize)
	t.Opacity = min(max(t.Opacity, 0), 1)
	if t.FontFamily == "" {
		t.FontFamily = DefaultFontFamily
	}
}

// BoxHeight is the explicit height, or the measured height of the wrapped
// content when the height is automatic.
func (t *Text) BoxHeight() float64 {
	if t.Height > 0 {
		return t.Height
	}
	face, err := NewFace(t.FontFamily, t.FontSize)
	if err != nil {
		return float64(max(1, len(strings.Split(t.Content, "\n")))) * t.FontSize * 1.2
	}
	defer face.Close()
	lines := WrapLines(face, t.Content, t.Width)
	return float64(max(1, len(lines))) * LineHeight(face)
}

func (t *Text) Bounds() geom.Rect {
	return geom.Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.BoxHeight()}
}

func (t *Text) Outline() Outline                          { return boxOutline(t.Bounds()) }
func (t *Text) FillVertices() []geom.Point                { return boxFill(t.Bounds()) }
func (t *Text) StrokeVertices(width float64) []geom.Point { return boxStroke(t.Bounds(), width) }

func (t *Text) Clone() Geometry {
	c := *t
	return &c
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	monoFont    *opentype.Font
	fontsErr    error
)

func loadFonts() {
	regularFont, fontsErr = opentype.Parse(goregular.TTF)
	if fontsErr != nil {
		fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
		return
	}
	monoFont, fontsErr = opentype.Parse(gomono.TTF)
	if fontsErr != nil {
		fontsErr = fmt.Errorf("parse mono font: %w", fontsErr)
	}
}

// NewFace returns a face for the family at size points (72 DPI, so one
// point is one unit). Families containing "mono" or "courier" map to Go
// Mono, everything else to Go Regular. Faces are not safe for concurrent
// use; callers own and close them.
func NewFace(family string, size float64) (font.Face, error) {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return nil, fontsErr
	}
	f := regularFont
	lf := strings.ToLower(family)
	if strings.Contains(lf, "mono") || strings.Contains(lf, "courier") {
		f = monoFont
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// LineHeight is the face's recommended line spacing.
func LineHeight(face font.Face) float64 {
	return fixedToFloat(face.Metrics().Height)
}

// WrapLines breaks content into lines no wider than width, splitting at
// explicit newlines and then greedily at spaces. A single word wider than
// width stays on its own line.
func WrapLines(face font.Face, content string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if fixedToFloat(font.MeasureString(face, candidate)) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

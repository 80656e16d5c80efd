package document

import (
	"reflect"

	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/geometry"
	"github.com/lucent/lucent/core-go/internal/paint"
	"github.com/lucent/lucent/core-go/internal/typeid"
)

// Data is the structured form of an item, as exchanged with callers and
// stored in history. Numbers are float64, lists are []any and nested
// objects are map[string]any, matching what encoding/json decodes.
type Data = map[string]any

type ItemType string

const (
	TypeRectangle ItemType = "rectangle"
	TypeEllipse   ItemType = "ellipse"
	TypePath      ItemType = "path"
	TypeText      ItemType = "text"
	TypeLayer     ItemType = "layer"
	TypeGroup     ItemType = "group"
)

// IsShape reports whether items of this type are drawable.
func (t ItemType) IsShape() bool {
	switch t {
	case TypeRectangle, TypeEllipse, TypePath, TypeText:
		return true
	}
	return false
}

// IsContainer reports whether items of this type can be parents.
func (t ItemType) IsContainer() bool {
	return t == TypeLayer || t == TypeGroup
}

func (t ItemType) idPrefix() string {
	switch t {
	case TypeRectangle:
		return typeid.PrefixRectangle
	case TypeEllipse:
		return typeid.PrefixEllipse
	case TypePath:
		return typeid.PrefixPath
	case TypeText:
		return typeid.PrefixText
	case TypeLayer:
		return typeid.PrefixLayer
	default:
		return typeid.PrefixGroup
	}
}

// Item is one entry of the document sequence. Geometry, Appearances and
// Transform are only set for shapes; layers and groups are organizational.
type Item struct {
	ID       string
	Type     ItemType
	Name     string
	ParentID string
	Visible  bool
	Locked   bool

	Geometry    geometry.Geometry
	Appearances []paint.Appearance
	Transform   geom.Transform
}

// NewLayer returns a visible, unlocked layer with a fresh id.
func NewLayer(name string) *Item {
	return &Item{ID: typeid.NewLayerID(), Type: TypeLayer, Name: name, Visible: true}
}

// NewGroup returns a visible, unlocked group with a fresh id.
func NewGroup(name, parentID string) *Item {
	return &Item{ID: typeid.NewGroupID(), Type: TypeGroup, Name: name, ParentID: parentID, Visible: true}
}

func (it *Item) IsShape() bool     { return it.Type.IsShape() }
func (it *Item) IsContainer() bool { return it.Type.IsContainer() }

// Fill returns the first fill appearance, if any.
func (it *Item) Fill() (paint.Appearance, bool) {
	if i := paint.FirstFill(it.Appearances); i >= 0 {
		return it.Appearances[i], true
	}
	return paint.Appearance{}, false
}

// Stroke returns the first stroke appearance, if any.
func (it *Item) Stroke() (paint.Appearance, bool) {
	if i := paint.FirstStroke(it.Appearances); i >= 0 {
		return it.Appearances[i], true
	}
	return paint.Appearance{}, false
}

// LocalBounds is the untransformed geometry bounds. Organizational items
// have none.
func (it *Item) LocalBounds() (geom.Rect, bool) {
	if it.Geometry == nil {
		return geom.Rect{}, false
	}
	return it.Geometry.Bounds(), true
}

// Bounds is the axis-aligned box of the geometry after the item transform.
func (it *Item) Bounds() (geom.Rect, bool) {
	r, ok := it.LocalBounds()
	if !ok {
		return r, false
	}
	return it.Transform.Effective().TransformRect(r), true
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	if it.Geometry != nil {
		c.Geometry = it.Geometry.Clone()
	}
	c.Appearances = paint.Clone(it.Appearances)
	c.Transform = it.Transform.Clone()
	return &c
}

// Data serializes the item to its structured form.
func (it *Item) Data() Data {
	d := Data{
		"type":    string(it.Type),
		"id":      it.ID,
		"name":    it.Name,
		"visible": it.Visible,
		"locked":  it.Locked,
	}
	if it.ParentID != "" {
		d["parentId"] = it.ParentID
	}
	if !it.IsShape() {
		return d
	}

	switch g := it.Geometry.(type) {
	case *geometry.Rectangle:
		d["geometry"] = map[string]any{"x": g.X, "y": g.Y, "width": g.Width, "height": g.Height}
	case *geometry.Ellipse:
		d["geometry"] = map[string]any{
			"centerX": g.CenterX, "centerY": g.CenterY,
			"radiusX": g.RadiusX, "radiusY": g.RadiusY,
		}
	case *geometry.Path:
		pts := make([]any, len(g.Points))
		for i, p := range g.Points {
			m := map[string]any{"x": p.X, "y": p.Y}
			if p.HandleIn != nil {
				m["handleIn"] = map[string]any{"x": p.HandleIn.X, "y": p.HandleIn.Y}
			}
			if p.HandleOut != nil {
				m["handleOut"] = map[string]any{"x": p.HandleOut.X, "y": p.HandleOut.Y}
			}
			pts[i] = m
		}
		d["geometry"] = map[string]any{"points": pts, "closed": g.Closed}
	case *geometry.Text:
		d["x"] = g.X
		d["y"] = g.Y
		d["width"] = g.Width
		d["height"] = g.Height
		d["text"] = g.Content
		d["fontFamily"] = g.FontFamily
		d["fontSize"] = g.FontSize
		d["textColor"] = g.Color
		d["textOpacity"] = g.Opacity
	}

	apps := make([]any, len(it.Appearances))
	for i, a := range it.Appearances {
		apps[i] = appearanceData(a)
	}
	d["appearances"] = apps
	d["transform"] = transformData(it.Transform)
	return d
}

func appearanceData(a paint.Appearance) map[string]any {
	m := map[string]any{
		"type":    string(a.Kind),
		"color":   a.Color,
		"opacity": a.Opacity,
		"visible": a.Visible,
	}
	if a.Kind == paint.KindStroke {
		m["width"] = a.Width
	}
	return m
}

func transformData(t geom.Transform) map[string]any {
	m := map[string]any{
		"translateX": t.TranslateX,
		"translateY": t.TranslateY,
		"rotate":     t.Rotate,
		"scaleX":     t.ScaleX,
		"scaleY":     t.ScaleY,
	}
	if t.Pivot != nil {
		m["pivotX"] = t.Pivot.X
		m["pivotY"] = t.Pivot.Y
	}
	return m
}

// ContentData is the subset of the structured form that determines how
// an item looks before placement: geometry (or text fields) and
// appearances. Identity, name, flags and transform are excluded.
func (it *Item) ContentData() Data {
	d := it.Data()
	for _, k := range []string{"id", "name", "visible", "locked", "parentId", "transform"} {
		delete(d, k)
	}
	return d
}

// Equal compares two structured representations.
func Equal(a, b Data) bool {
	return reflect.DeepEqual(a, b)
}

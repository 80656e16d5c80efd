package document

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/geometry"
	"github.com/lucent/lucent/core-go/internal/paint"
	"github.com/lucent/lucent/core-go/internal/typeid"
)

// Keys every item accepts. Editing only these never counts as a content
// change, so it is allowed on locked items.
var commonKeys = []string{"name", "visible", "locked", "parentId"}

var geometryKeys = map[ItemType][]string{
	TypeRectangle: {"x", "y", "width", "height"},
	TypeEllipse:   {"centerX", "centerY", "radiusX", "radiusY"},
	TypePath:      {"points", "closed"},
}

var textKeys = []string{"x", "y", "width", "height", "text", "fontFamily", "fontSize", "textColor", "textOpacity"}

var paintKeys = []string{"fillColor", "fillOpacity", "strokeColor", "strokeWidth", "strokeOpacity"}

// Parse validates structured data and builds an item from it. Missing
// fields take their defaults, out-of-range numbers are clamped and a
// missing id is generated. Wrongly typed or unparseable fields fail with
// ErrInvalidField, an unrecognized type tag with ErrUnknownType.
func Parse(d Data) (*Item, error) {
	rawType, ok := d["type"].(string)
	if !ok || rawType == "" {
		return nil, fmt.Errorf("%w: missing type", ErrUnknownType)
	}
	t := ItemType(strings.ToLower(rawType))

	it := &Item{Type: t}
	var err error
	if it.ID, err = str(d, "id", ""); err != nil {
		return nil, err
	}
	if it.Name, err = str(d, "name", ""); err != nil {
		return nil, err
	}
	if it.Visible, err = boolean(d, "visible", true); err != nil {
		return nil, err
	}
	if it.Locked, err = boolean(d, "locked", false); err != nil {
		return nil, err
	}
	if it.ParentID, err = str(d, "parentId", ""); err != nil {
		return nil, err
	}

	switch t {
	case TypeLayer:
		it.ParentID = ""
	case TypeGroup:
	case TypeRectangle, TypeEllipse, TypePath:
		g, err := object(d, "geometry")
		if err != nil {
			return nil, err
		}
		if it.Geometry, err = parseGeometry(t, g); err != nil {
			return nil, err
		}
		if err := parseShape(it, d, paint.Defaults()); err != nil {
			return nil, err
		}
	case TypeText:
		if it.Geometry, err = parseText(d); err != nil {
			return nil, err
		}
		if err := parseShape(it, d, nil); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, rawType)
	}

	if it.ID == "" {
		it.ID = typeid.New(t.idPrefix())
	}
	return it, nil
}

func parseShape(it *Item, d Data, defaults []paint.Appearance) error {
	apps, err := parseAppearances(d, defaults)
	if err != nil {
		return err
	}
	it.Appearances = apps

	tr, err := object(d, "transform")
	if err != nil {
		return err
	}
	it.Transform, err = parseTransform(tr)
	return err
}

func parseGeometry(t ItemType, g map[string]any) (geometry.Geometry, error) {
	switch t {
	case TypeRectangle:
		v, err := numbers(g, []string{"x", "y", "width", "height"}, 0)
		if err != nil {
			return nil, fmt.Errorf("rectangle: %w", err)
		}
		return geometry.NewRectangle(v[0], v[1], v[2], v[3]), nil
	case TypeEllipse:
		v, err := numbers(g, []string{"centerX", "centerY", "radiusX", "radiusY"}, 0)
		if err != nil {
			return nil, fmt.Errorf("ellipse: %w", err)
		}
		return geometry.NewEllipse(v[0], v[1], v[2], v[3]), nil
	default:
		return parsePath(g)
	}
}

func parsePath(g map[string]any) (*geometry.Path, error) {
	raw, err := list(g, "points")
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}
	closed, err := boolean(g, "closed", false)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}

	points := make([]geometry.PathPoint, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path: %w: points[%d] is not an object", ErrInvalidField, i)
		}
		xy, err := numbers(m, []string{"x", "y"}, 0)
		if err != nil {
			return nil, fmt.Errorf("path: points[%d]: %w", i, err)
		}
		pt := geometry.PathPoint{X: xy[0], Y: xy[1]}
		if pt.HandleIn, err = handle(m, "handleIn"); err != nil {
			return nil, fmt.Errorf("path: points[%d]: %w", i, err)
		}
		if pt.HandleOut, err = handle(m, "handleOut"); err != nil {
			return nil, fmt.Errorf("path: points[%d]: %w", i, err)
		}
		points = append(points, pt)
	}

	p, err := geometry.NewPath(points, closed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return p, nil
}

func handle(m map[string]any, key string) (*geom.Point, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	h, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidField, key)
	}
	xy, err := numbers(h, []string{"x", "y"}, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &geom.Point{X: xy[0], Y: xy[1]}, nil
}

func parseText(d Data) (*geometry.Text, error) {
	t := &geometry.Text{}
	var err error
	fields := []struct {
		key string
		def float64
		dst *float64
	}{
		{"x", 0, &t.X},
		{"y", 0, &t.Y},
		{"width", geometry.DefaultTextWidth, &t.Width},
		{"height", 0, &t.Height},
		{"fontSize", geometry.DefaultFontSize, &t.FontSize},
		{"textOpacity", 1, &t.Opacity},
	}
	for _, f := range fields {
		if *f.dst, err = number(d, f.key, f.def); err != nil {
			return nil, fmt.Errorf("text: %w", err)
		}
	}
	if t.Content, err = str(d, "text", ""); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	if t.FontFamily, err = str(d, "fontFamily", geometry.DefaultFontFamily); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	if t.Color, err = str(d, "textColor", paint.DefaultColor); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	if _, err := paint.ParseColor(t.Color); err != nil {
		return nil, fmt.Errorf("text: %w: %w", ErrInvalidField, err)
	}
	t.Normalize()
	return t, nil
}

func parseAppearances(d Data, defaults []paint.Appearance) ([]paint.Appearance, error) {
	raw, err := list(d, "appearances")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return paint.Clone(defaults), nil
	}

	out := make([]paint.Appearance, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: appearances[%d] is not an object", ErrInvalidField, i)
		}
		a, err := parseAppearance(m)
		if err != nil {
			return nil, fmt.Errorf("appearances[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func parseAppearance(m map[string]any) (paint.Appearance, error) {
	kind, err := str(m, "type", "")
	if err != nil {
		return paint.Appearance{}, err
	}
	a := paint.Appearance{Kind: paint.Kind(kind)}
	if a.Color, err = str(m, "color", paint.DefaultColor); err != nil {
		return a, err
	}
	if a.Visible, err = boolean(m, "visible", true); err != nil {
		return a, err
	}
	switch a.Kind {
	case paint.KindFill:
		a.Opacity, err = number(m, "opacity", 0)
	case paint.KindStroke:
		if a.Width, err = number(m, "width", 1); err != nil {
			return a, err
		}
		a.Opacity, err = number(m, "opacity", 1)
	}
	if err != nil {
		return a, err
	}
	if err := a.Validate(); err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return a.Normalize(), nil
}

func parseTransform(m map[string]any) (geom.Transform, error) {
	v, err := numbers(m, []string{"translateX", "translateY", "rotate"}, 0)
	if err != nil {
		return geom.Transform{}, fmt.Errorf("transform: %w", err)
	}
	s, err := numbers(m, []string{"scaleX", "scaleY"}, 1)
	if err != nil {
		return geom.Transform{}, fmt.Errorf("transform: %w", err)
	}
	t := geom.Transform{TranslateX: v[0], TranslateY: v[1], Rotate: v[2], ScaleX: s[0], ScaleY: s[1]}

	// A null pivot clears it.
	if m["pivotX"] != nil && m["pivotY"] != nil {
		p, err := numbers(m, []string{"pivotX", "pivotY"}, 0)
		if err != nil {
			return geom.Transform{}, fmt.Errorf("transform: %w", err)
		}
		t.Pivot = &geom.Point{X: p[0], Y: p[1]}
	}
	return t, nil
}

// Merge applies a partial property map to a copy of it and re-validates
// the result. It returns the updated item and the sorted top-level keys
// whose values changed. The input item is never modified.
//
// Nested "geometry" and "transform" maps merge key by key, "appearances"
// replaces the whole list, geometry field names may be given flat, and
// fillColor, fillOpacity, strokeColor, strokeWidth and strokeOpacity edit
// the first fill or stroke, adding one when missing. Whole-object keys
// apply before the flat shortcuts, so a shortcut always wins.
func Merge(it *Item, partial Data) (*Item, []string, error) {
	before := it.Data()
	merged := it.Data()

	for _, key := range mergeOrder(partial) {
		val := partial[key]
		switch {
		case key == "type" || key == "id":
			if s, ok := val.(string); !ok || !strings.EqualFold(s, fmt.Sprint(before[key])) {
				return nil, nil, fmt.Errorf("%w: %s cannot change", ErrInvalidField, key)
			}
		case key == "parentId" && it.Type == TypeLayer:
			if val != nil && val != "" {
				return nil, nil, fmt.Errorf("%w: layers cannot have a parent", ErrInvalidParent)
			}
		case slices.Contains(commonKeys, key):
			merged[key] = val
		case !it.IsShape():
			return nil, nil, fmt.Errorf("%w: unknown key %q for %s", ErrInvalidField, key, it.Type)
		case key == "appearances":
			merged[key] = val
		case key == "transform":
			if err := mergeInto(merged, key, val); err != nil {
				return nil, nil, err
			}
		case key == "geometry" && it.Type == TypeText:
			m, ok := val.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("%w: geometry is not an object", ErrInvalidField)
			}
			for k, v := range m {
				if !slices.Contains(textKeys, k) {
					return nil, nil, fmt.Errorf("%w: unknown key %q for text", ErrInvalidField, k)
				}
				merged[k] = v
			}
		case key == "geometry":
			if err := mergeInto(merged, key, val); err != nil {
				return nil, nil, err
			}
		case it.Type == TypeText && slices.Contains(textKeys, key):
			merged[key] = val
		case slices.Contains(geometryKeys[it.Type], key):
			g := merged["geometry"].(map[string]any)
			g[key] = val
		case slices.Contains(paintKeys, key):
			if err := mergePaint(merged, key, val); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, fmt.Errorf("%w: unknown key %q for %s", ErrInvalidField, key, it.Type)
		}
	}

	updated, err := Parse(merged)
	if err != nil {
		return nil, nil, err
	}
	updated.ID = it.ID

	after := updated.Data()
	var changed []string
	for _, k := range slices.Sorted(maps.Keys(union(before, after))) {
		if !Equal(Data{"v": before[k]}, Data{"v": after[k]}) {
			changed = append(changed, k)
		}
	}
	return updated, changed, nil
}

// mergeOrder sorts the keys of partial: whole-object keys first, then the
// flat geometry and paint shortcuts, each group by name.
func mergeOrder(partial Data) []string {
	whole := func(k string) bool {
		switch k {
		case "type", "id", "appearances", "geometry", "transform":
			return true
		}
		return slices.Contains(commonKeys, k)
	}
	keys := slices.Sorted(maps.Keys(partial))
	slices.SortStableFunc(keys, func(a, b string) int {
		wa, wb := whole(a), whole(b)
		switch {
		case wa == wb:
			return 0
		case wa:
			return -1
		default:
			return 1
		}
	})
	return keys
}

// IsContentEdit reports whether a partial property map touches anything
// beyond name, visibility, lock state or parent.
func IsContentEdit(partial Data) bool {
	for k := range partial {
		if k == "type" || k == "id" || slices.Contains(commonKeys, k) {
			continue
		}
		return true
	}
	return false
}

func mergeInto(dst Data, key string, val any) error {
	m, ok := val.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s is not an object", ErrInvalidField, key)
	}
	cur, _ := dst[key].(map[string]any)
	next := make(map[string]any, len(cur)+len(m))
	maps.Copy(next, cur)
	maps.Copy(next, m)
	dst[key] = next
	return nil
}

func mergePaint(dst Data, key string, val any) error {
	kind := paint.KindFill
	field := strings.ToLower(strings.TrimPrefix(key, "fill"))
	if strings.HasPrefix(key, "stroke") {
		kind = paint.KindStroke
		field = strings.ToLower(strings.TrimPrefix(key, "stroke"))
	}

	apps, _ := dst["appearances"].([]any)
	apps = slices.Clone(apps)
	idx := -1
	for i, a := range apps {
		if m, ok := a.(map[string]any); ok && m["type"] == string(kind) {
			idx = i
			break
		}
	}
	if idx < 0 {
		a := paint.NewFill(paint.DefaultColor, 1)
		if kind == paint.KindStroke {
			a = paint.NewStroke(paint.DefaultColor, 1, 1)
		}
		apps = append(apps, appearanceData(a))
		idx = len(apps) - 1
	}
	m := maps.Clone(apps[idx].(map[string]any))
	m[field] = val
	apps[idx] = m
	dst["appearances"] = apps
	return nil
}

func union(a, b Data) Data {
	out := maps.Clone(a)
	maps.Copy(out, b)
	return out
}

func str(m map[string]any, key, def string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidField, key)
	}
	return s, nil
}

func boolean(m map[string]any, key string, def bool) (bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidField, key)
	}
	return b, nil
}

func number(m map[string]any, key string, def float64) (float64, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return def, nil
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidField, key, err)
		}
		v = f
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidField, key)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidField, key)
	}
	return v, nil
}

func numbers(m map[string]any, keys []string, def float64) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, err := number(m, k, def)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func object(m map[string]any, key string) (map[string]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	o, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidField, key)
	}
	return o, nil
}

func list(m map[string]any, key string) ([]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	l, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidField, key)
	}
	return l, nil
}

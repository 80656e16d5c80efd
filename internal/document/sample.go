package document

import "github.com/lucent/lucent/core-go/internal/typeid"

// NewSampleItems returns a small starter document: one layer holding a
// rectangle, an ellipse, a curved path and a caption. Index 0 is topmost.
func NewSampleItems() []Data {
	layerID := typeid.NewLayerID()

	return []Data{
		{
			"type":    string(TypeLayer),
			"id":      layerID,
			"name":    "Layer 1",
			"visible": true,
			"locked":  false,
		},
		{
			"type":       string(TypeText),
			"name":       "Caption",
			"parentId":   layerID,
			"x":          40.0,
			"y":          260.0,
			"width":      320.0,
			"text":       "Lucent",
			"fontFamily": "Sans Serif",
			"fontSize":   32.0,
			"textColor":  "#e0e0e0",
		},
		{
			"type":     string(TypePath),
			"name":     "Wave",
			"parentId": layerID,
			"geometry": map[string]any{
				"points": []any{
					map[string]any{"x": 40.0, "y": 220.0, "handleOut": map[string]any{"x": 100.0, "y": 160.0}},
					map[string]any{"x": 200.0, "y": 220.0, "handleIn": map[string]any{"x": 140.0, "y": 280.0}},
					map[string]any{"x": 360.0, "y": 220.0},
				},
				"closed": false,
			},
			"appearances": []any{
				map[string]any{"type": "stroke", "color": "#4ecdc4", "width": 3.0, "opacity": 1.0, "visible": true},
			},
		},
		{
			"type":     string(TypeEllipse),
			"name":     "Circle",
			"parentId": layerID,
			"geometry": map[string]any{"centerX": 280.0, "centerY": 110.0, "radiusX": 60.0, "radiusY": 60.0},
			"appearances": []any{
				map[string]any{"type": "fill", "color": "#ff6b6b", "opacity": 1.0, "visible": true},
			},
		},
		{
			"type":     string(TypeRectangle),
			"name":     "Box",
			"parentId": layerID,
			"geometry": map[string]any{"x": 40.0, "y": 50.0, "width": 160.0, "height": 120.0},
			"appearances": []any{
				map[string]any{"type": "fill", "color": "#1a1a2e", "opacity": 1.0, "visible": true},
				map[string]any{"type": "stroke", "color": "#e0e0e0", "width": 2.0, "opacity": 1.0, "visible": true},
			},
			"transform": map[string]any{"rotate": 8.0, "pivotX": 120.0, "pivotY": 110.0},
		},
	}
}

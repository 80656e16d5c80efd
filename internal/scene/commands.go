package scene

import (
	"encoding/json"
	"strconv"

	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/geometry"
)

// DrawCommand is one placement for the presentation layer, in painter's
// order. Hidden nodes are included with visible false so layer panels can
// still list them.
type DrawCommand struct {
	Op       string                 `json:"op"` // "texture"
	ObjectID string                 `json:"objectId"`
	Name     string                 `json:"name,omitempty"`
	Visible  bool                   `json:"visible"`
	Version  string                 `json:"version,omitempty"`
	Matrix   []float64              `json:"matrix"` // 4x4 row-major item transform
	View     []float64              `json:"view"`   // 4x4 row-major viewport transform
	OffsetX  float64                `json:"offsetX"`
	OffsetY  float64                `json:"offsetY"`
	Width    float64                `json:"width"`
	Height   float64                `json:"height"`
	Bounds   Bounds                 `json:"bounds"`
	Path     []geometry.PathCommand `json:"path,omitempty"` // untransformed outline, for external hit testing
}

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// toBounds keeps the result JSON-encodable; unbounded rects become zero.
func toBounds(r geom.Rect) Bounds {
	if !r.IsFinite() {
		return Bounds{}
	}
	return Bounds{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Compile generates the draw command list for a graph. outline looks up
// the geometry outline for an item id and may be nil.
func Compile(g *Graph, outline func(id string) geometry.Outline) []DrawCommand {
	if g == nil {
		return nil
	}
	cmds := make([]DrawCommand, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		cmd := DrawCommand{
			Op:       "texture",
			ObjectID: n.ItemID,
			Name:     n.Name,
			Visible:  n.Visible,
			Matrix:   n.Matrix.ToSlice(),
			View:     n.View.ToSlice(),
			OffsetX:  n.Offset.X,
			OffsetY:  n.Offset.Y,
			Width:    n.Width,
			Height:   n.Height,
			Bounds:   toBounds(n.Bounds),
		}
		if n.Texture != nil {
			cmd.Version = strconv.FormatUint(n.Texture.Version, 16)
		}
		if outline != nil {
			cmd.Path = outline(n.ItemID).Commands()
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func DrawCommandsToJSON(cmds []DrawCommand) (string, error) {
	data, err := json.Marshal(cmds)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// NodeBounds is the union of the bounds of the given nodes. Unknown ids
// are skipped.
func NodeBounds(g *Graph, ids []string) geom.Rect {
	var out geom.Rect
	if g == nil {
		return out
	}
	for _, id := range ids {
		if n, ok := g.NodesByID[id]; ok {
			out = out.Union(n.Bounds)
		}
	}
	return out
}

func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(toBounds(r))
	return string(data)
}

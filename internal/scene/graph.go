package scene

import (
	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/texcache"
)

// Graph is the render-ready state of the document. Nodes are in painter's
// order: the first node is drawn first (bottom), the last on top.
type Graph struct {
	Nodes     []*Node
	NodesByID map[string]*Node
}

// Node places one shape's cached texture.
type Node struct {
	ItemID  string
	Name    string
	Type    document.ItemType
	Visible bool

	// Texture is nil for hidden nodes and for items that could not be
	// rasterized.
	Texture *texcache.Entry
	// Offset is the texture's top-left corner in geometry space; Width and
	// Height are its size in geometry units.
	Offset geom.Point
	Width  float64
	Height float64

	// Matrix is the item transform, View is the viewport transform.
	Matrix geom.Matrix4
	View   geom.Matrix4

	// Bounds is the transformed geometry bounds, in document space.
	Bounds geom.Rect
}

func NewGraph() *Graph {
	return &Graph{NodesByID: make(map[string]*Node)}
}

func (g *Graph) add(n *Node) {
	g.Nodes = append(g.Nodes, n)
	g.NodesByID[n.ItemID] = n
}

// Screen is the full placement matrix: View · Matrix.
func (n *Node) Screen() geom.Matrix4 {
	return n.View.Multiply(n.Matrix)
}

// TextureBounds is the painted area in document space, or false when the
// node has no texture.
func (n *Node) TextureBounds() (geom.Rect, bool) {
	if n.Texture == nil {
		return geom.Rect{}, false
	}
	return n.Matrix.To2D().TransformRect(n.Texture.Bounds()), true
}

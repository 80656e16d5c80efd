// Package scene turns the document model into placement nodes over cached
// textures. Any model change, zoom change or offset change invalidates the
// whole graph; the texture cache keeps the rebuild cheap.
package scene

import (
	"log/slog"

	"github.com/lucent/lucent/core-go/internal/canvas"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/texcache"
)

type State int

const (
	NeedsFullRebuild State = iota
	UpToDate
)

func (s State) String() string {
	if s == UpToDate {
		return "upToDate"
	}
	return "needsFullRebuild"
}

type Option func(*Builder)

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Builder owns the retained graph for one model.
type Builder struct {
	model *canvas.Model
	cache *texcache.Cache

	state  State
	graph  *Graph
	zoom   float64
	offset geom.Point

	rebuilds    int
	unsubscribe func()
	logger      *slog.Logger
}

// NewBuilder subscribes to model changes. Call Close to detach.
func NewBuilder(model *canvas.Model, cache *texcache.Cache, opts ...Option) *Builder {
	b := &Builder{
		model:  model,
		cache:  cache,
		state:  NeedsFullRebuild,
		graph:  NewGraph(),
		zoom:   1,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	b.unsubscribe = model.Subscribe(b.onEvent)
	return b
}

func (b *Builder) onEvent(e canvas.Event) {
	switch e.Kind {
	case canvas.EventItemAdded, canvas.EventItemRemoved, canvas.EventItemModified,
		canvas.EventItemsCleared, canvas.EventItemsReordered:
		b.Invalidate()
	}
}

func (b *Builder) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Builder) State() State { return b.state }

// Rebuilds counts full rebuilds since creation.
func (b *Builder) Rebuilds() int { return b.rebuilds }

func (b *Builder) Invalidate() { b.state = NeedsFullRebuild }

func (b *Builder) Zoom() float64 { return b.zoom }

// SetZoom changes the view scale. Non-positive values are ignored.
func (b *Builder) SetZoom(z float64) {
	if z <= 0 || z == b.zoom {
		return
	}
	b.zoom = z
	b.Invalidate()
}

func (b *Builder) Offset() geom.Point { return b.offset }

func (b *Builder) SetOffset(p geom.Point) {
	if !p.IsFinite() || p == b.offset {
		return
	}
	b.offset = p
	b.Invalidate()
}

// View is translate(offset) · scale(zoom).
func (b *Builder) View() geom.Matrix4 {
	return geom.Translate4(b.offset.X, b.offset.Y, 0).Multiply(geom.Scale4(b.zoom, b.zoom, 1))
}

// ToDocument maps a viewport point back to document space.
func (b *Builder) ToDocument(x, y float64) geom.Point {
	v := b.View().To2D()
	if v.IsIdentity() {
		return geom.Pt(x, y)
	}
	return geom.Pt(v.Invert().TransformPoint(x, y))
}

// Graph returns the current graph, rebuilding it first if needed.
func (b *Builder) Graph() *Graph {
	if b.state == NeedsFullRebuild {
		b.graph = b.build()
		b.state = UpToDate
		b.rebuilds++
	}
	return b.graph
}

// RenderOrder is the ids of the graph's nodes in painter's order.
func (b *Builder) RenderOrder() []string {
	g := b.Graph()
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.ItemID
	}
	return out
}

// build walks the items bottom to top, so index 0 is painted last.
// Layers and groups contribute no node.
func (b *Builder) build() *Graph {
	g := NewGraph()
	view := b.View()
	items := b.model.Items()
	keep := make(map[string]bool, len(items))

	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if !it.IsShape() {
			continue
		}
		n := &Node{
			ItemID:  it.ID,
			Name:    it.Name,
			Type:    it.Type,
			Visible: b.model.EffectiveVisible(i),
			Matrix:  it.Transform.Effective4(),
			View:    view,
		}
		n.Bounds, _ = it.Bounds()
		keep[it.ID] = true
		if n.Visible {
			if tex := b.cache.GetOrCreate(it, it.ID); tex != nil {
				n.Texture = tex
				n.Offset = tex.Offset()
				n.Width, n.Height = tex.DisplaySize()
			}
		}
		g.add(n)
	}

	if dropped := b.cache.Retain(keep); dropped > 0 {
		b.logger.Debug("textures released", "count", dropped)
	}
	return g
}

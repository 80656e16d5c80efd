package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucent/lucent/core-go/internal/canvas"
	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/geometry"
	"github.com/lucent/lucent/core-go/internal/raster"
	"github.com/lucent/lucent/core-go/internal/texcache"
)

func rect(name string, x, y, w, h float64) document.Data {
	return document.Data{
		"type":     "rectangle",
		"name":     name,
		"geometry": map[string]any{"x": x, "y": y, "width": w, "height": h},
		"appearances": []any{
			map[string]any{"type": "fill", "color": "#ff0000", "opacity": 1.0},
		},
	}
}

func setup(t *testing.T) (*canvas.Model, *texcache.Cache, *Builder) {
	t.Helper()
	m := canvas.New()
	c := texcache.New()
	b := NewBuilder(m, c)
	t.Cleanup(b.Close)
	return m, c, b
}

func names(b *Builder) []string {
	g := b.Graph()
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Name
	}
	return out
}

func TestRenderOrderReversesItems(t *testing.T) {
	m, _, b := setup(t)
	for _, n := range []string{"First", "Second", "Third"} {
		_, err := m.AddItem(rect(n, 0, 0, 10, 10))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Third", "Second", "First"}, names(b))

	items := m.Items()
	assert.Equal(t, []string{items[2].ID, items[1].ID, items[0].ID}, b.RenderOrder())
}

func TestRenderOrderSkipsContainers(t *testing.T) {
	m, _, b := setup(t)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		if r.Intn(4) == 0 {
			_, err := m.AddLayer()
			require.NoError(t, err)
			continue
		}
		_, err := m.AddItem(rect(fmt.Sprintf("r%d", i), float64(i), 0, 5, 5))
		require.NoError(t, err)
	}

	var want []string
	items := m.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].IsShape() {
			want = append(want, items[i].ID)
		}
	}
	assert.Equal(t, want, b.RenderOrder())
}

func TestLayerVisibilityCascades(t *testing.T) {
	m, _, b := setup(t)
	li, err := m.AddLayer()
	require.NoError(t, err)
	layer, _ := m.Item(li)

	d := rect("Child", 0, 0, 20, 20)
	d["parentId"] = layer.ID
	ri, err := m.AddItem(d)
	require.NoError(t, err)
	child, _ := m.Item(ri)

	require.NoError(t, m.ToggleVisibility(li))

	g := b.Graph()
	require.Len(t, g.Nodes, 1)
	n := g.NodesByID[child.ID]
	require.NotNil(t, n)
	assert.False(t, n.Visible)
	assert.Nil(t, n.Texture)

	require.NoError(t, m.ToggleVisibility(li))
	n = b.Graph().NodesByID[child.ID]
	assert.True(t, n.Visible)
	assert.NotNil(t, n.Texture)
}

func TestStateMachine(t *testing.T) {
	m, _, b := setup(t)
	assert.Equal(t, NeedsFullRebuild, b.State())

	b.Graph()
	assert.Equal(t, UpToDate, b.State())
	assert.Equal(t, 1, b.Rebuilds())

	b.Graph()
	assert.Equal(t, 1, b.Rebuilds(), "no rebuild while up to date")

	idx, err := m.AddItem(rect("A", 0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, NeedsFullRebuild, b.State())
	b.Graph()

	require.NoError(t, m.UpdateItem(idx, document.Data{"x": 5.0}))
	assert.Equal(t, NeedsFullRebuild, b.State())
	b.Graph()

	b.SetZoom(2)
	assert.Equal(t, NeedsFullRebuild, b.State())
	b.Graph()
	b.SetZoom(2)
	b.SetZoom(-1)
	assert.Equal(t, UpToDate, b.State())

	b.SetOffset(geom.Pt(10, 20))
	assert.Equal(t, NeedsFullRebuild, b.State())
	b.Graph()

	require.True(t, m.Undo())
	assert.Equal(t, NeedsFullRebuild, b.State())
	b.Graph()

	m.Clear()
	assert.Equal(t, NeedsFullRebuild, b.State())
	assert.Empty(t, b.Graph().Nodes)

	b.Close()
	_, err = m.AddItem(rect("B", 0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, UpToDate, b.State(), "detached builder ignores events")
}

func TestRebuildReusesTextures(t *testing.T) {
	m, c, b := setup(t)
	idx, err := m.AddItem(rect("A", 0, 0, 100, 100))
	require.NoError(t, err)
	it, _ := m.Item(idx)

	before := b.Graph().NodesByID[it.ID].Texture
	require.NotNil(t, before)

	require.NoError(t, m.UpdateItem(idx, document.Data{"transform": map[string]any{"rotate": 30.0, "translateX": 40.0}}))
	n := b.Graph().NodesByID[it.ID]
	assert.Same(t, before, n.Texture)
	assert.InDeltaSlice(t, it.Transform.Effective4().ToSlice(), n.Matrix.ToSlice(), 1e-12)

	require.NoError(t, m.UpdateItem(idx, document.Data{"fillColor": "#0000ff"}))
	assert.NotSame(t, before, b.Graph().NodesByID[it.ID].Texture)

	require.NoError(t, m.RemoveItem(idx))
	b.Graph()
	assert.Equal(t, 0, c.Len(), "removed items release their texture")
}

func TestNodePlacement(t *testing.T) {
	m, _, b := setup(t)
	_, err := m.AddItem(rect("A", 10, 20, 30, 40))
	require.NoError(t, err)
	b.SetZoom(2)
	b.SetOffset(geom.Pt(5, 6))

	n := b.Graph().Nodes[0]
	assert.Equal(t, geom.Pt(6, 16), n.Offset)
	assert.Equal(t, 38.0, n.Width)
	assert.Equal(t, 48.0, n.Height)

	x, y := n.Screen().TransformPoint(10, 20)
	assert.InDelta(t, 25.0, x, 1e-12)
	assert.InDelta(t, 46.0, y, 1e-12)
}

func TestNodeBounds(t *testing.T) {
	m, _, b := setup(t)
	_, err := m.AddItem(rect("Top", 0, 0, 50, 50))
	require.NoError(t, err)
	_, err = m.AddItem(rect("Bottom", 25, 25, 50, 50))
	require.NoError(t, err)
	items := m.Items()

	sel := NodeBounds(b.Graph(), []string{items[0].ID, items[1].ID, "missing"})
	assert.Equal(t, geom.Rect{Width: 75, Height: 75}, sel)
	assert.JSONEq(t, `{"x":0,"y":0,"width":75,"height":75}`, RectToJSON(sel))
}

func TestToDocumentInvertsView(t *testing.T) {
	_, _, b := setup(t)
	assert.Equal(t, geom.Pt(12, 34), b.ToDocument(12, 34))

	b.SetZoom(2)
	b.SetOffset(geom.Pt(10, -4))
	p := b.ToDocument(30, 16)
	assert.InDelta(t, 10.0, p.X, 1e-12)
	assert.InDelta(t, 10.0, p.Y, 1e-12)

	x, y := b.View().TransformPoint(p.X, p.Y)
	assert.InDelta(t, 30.0, x, 1e-12)
	assert.InDelta(t, 16.0, y, 1e-12)
}

func TestCompile(t *testing.T) {
	m, _, b := setup(t)
	_, err := m.AddItem(rect("A", 0, 0, 10, 10))
	require.NoError(t, err)
	it, _ := m.Item(0)

	outline := func(id string) geometry.Outline {
		i := m.IndexOf(id)
		item, _ := m.Item(i)
		return item.Geometry.Outline()
	}
	cmds := Compile(b.Graph(), outline)
	require.Len(t, cmds, 1)
	assert.Equal(t, "texture", cmds[0].Op)
	assert.Equal(t, it.ID, cmds[0].ObjectID)
	assert.True(t, cmds[0].Visible)
	assert.NotEmpty(t, cmds[0].Version)
	assert.Len(t, cmds[0].Matrix, 16)
	assert.Equal(t, "M", cmds[0].Path[0][0])

	s, err := DrawCommandsToJSON(cmds)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &decoded))
	assert.Equal(t, "A", decoded[0]["name"])
}

func TestCompositeAndExport(t *testing.T) {
	m, _, b := setup(t)
	_, err := m.AddItem(rect("A", 0, 0, 100, 100))
	require.NoError(t, err)

	g := b.Graph()
	area, ok := ExportBounds(g)
	require.True(t, ok)
	assert.Equal(t, geom.Rect{Width: 100, Height: 100}, area)

	img, err := Composite(g, area, 1, raster.DefaultMaxSize)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	px := img.RGBAAt(50, 50)
	assert.Greater(t, px.R, uint8(240))
	assert.Greater(t, px.A, uint8(240))

	path := filepath.Join(t.TempDir(), "scene.png")
	assert.True(t, b.ExportPNG(path, 1))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	assert.False(t, b.ExportPNG(filepath.Join(t.TempDir(), "nope", "scene.png"), 1))
}

func TestExportEmptyScene(t *testing.T) {
	_, _, b := setup(t)
	path := filepath.Join(t.TempDir(), "empty.png")
	assert.False(t, b.ExportPNG(path, 1))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = Composite(b.Graph(), geom.Rect{}, 1, raster.DefaultMaxSize)
	assert.ErrorIs(t, err, document.ErrEmptyBounds)
}

func TestExportRejectsOversizedScene(t *testing.T) {
	m, _, b := setup(t)
	_, err := m.AddItem(rect("Near", 0, 0, 10, 10))
	require.NoError(t, err)
	_, err = m.AddItem(rect("Far", 1e7, 1e7, 10, 10))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "huge.png")
	assert.False(t, b.ExportPNG(path, 8))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = b.Render(8)
	assert.ErrorIs(t, err, document.ErrTextureTooLarge)

	_, err = Composite(b.Graph(), geom.Rect{Width: math.Inf(1), Height: 10}, 1, raster.DefaultMaxSize)
	assert.ErrorIs(t, err, document.ErrTextureTooLarge)
}

func TestOverflowingItemHasNoTexture(t *testing.T) {
	m, c, b := setup(t)
	_, err := m.AddItem(rect("Huge", 0, 0, 1e300, 10))
	require.NoError(t, err)
	_, err = m.AddItem(rect("Small", 0, 0, 10, 10))
	require.NoError(t, err)

	g := b.Graph()
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "Small", g.Nodes[0].Name)
	assert.NotNil(t, g.Nodes[0].Texture)
	assert.Nil(t, g.Nodes[1].Texture)
	assert.Equal(t, 1, c.Len())

	img, err := b.Render(1)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
}

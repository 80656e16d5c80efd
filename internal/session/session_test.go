package session

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucent/lucent/core-go/internal/canvas"
	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/scene"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession() *Session {
	return New(WithLogger(quiet()))
}

func rect(name string, x float64) document.Data {
	return document.Data{
		"type":     "rectangle",
		"name":     name,
		"geometry": map[string]any{"x": x, "y": 0.0, "width": 20.0, "height": 20.0},
		"appearances": []any{
			map[string]any{"type": "fill", "color": "#336699", "opacity": 1.0},
		},
	}
}

func intp(i int) *int           { return &i }
func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

func itemID(t *testing.T, s *Session, index int) string {
	t.Helper()
	items := s.Items()
	require.Greater(t, len(items), index)
	return items[index]["id"].(string)
}

func TestApplyAddAndUpdate(t *testing.T) {
	s := newSession()
	res := s.Apply(Operation{ID: "op1", Type: OpItemAdd, Item: rect("A", 0)})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "op1", res.OperationID)
	require.NotNil(t, res.Index)
	assert.Equal(t, 0, *res.Index)

	id := itemID(t, s, 0)
	res = s.Apply(Operation{Type: OpItemUpdate, ItemID: id, Props: document.Data{"x": 50.0}})
	require.True(t, res.OK, res.Error)

	res = s.Apply(Operation{Type: OpItemGet, Index: intp(0)})
	require.True(t, res.OK)
	d := res.Data.(document.Data)
	assert.Equal(t, 50.0, d["geometry"].(map[string]any)["x"])

	res = s.Apply(Operation{Type: OpHistoryUndo})
	assert.True(t, res.OK)
	assert.True(t, res.Changed)
	assert.Equal(t, 0.0, s.Items()[0]["geometry"].(map[string]any)["x"])
}

func TestApplyRejections(t *testing.T) {
	s := newSession()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)

	tests := []struct {
		name string
		op   Operation
		code string
	}{
		{"unknown op", Operation{Type: "item.explode", Index: intp(0)}, "unknownOperation"},
		{"missing item", Operation{Type: OpItemAdd}, "invalidField"},
		{"unknown type", Operation{Type: OpItemAdd, Item: document.Data{"type": "star"}}, "unknownType"},
		{"no address", Operation{Type: OpItemRemove}, "invalidField"},
		{"missing id", Operation{Type: OpItemRemove, ItemID: "rect_nope"}, "notFound"},
		{"out of range", Operation{Type: OpItemRemove, Index: intp(3)}, "indexOutOfRange"},
		{"missing props", Operation{Type: OpItemUpdate, Index: intp(0)}, "invalidField"},
		{"missing to", Operation{Type: OpItemMove, Index: intp(0)}, "invalidField"},
		{"missing name", Operation{Type: OpItemRename, Index: intp(0)}, "invalidField"},
		{"bad parent", Operation{Type: OpItemReparent, Index: intp(0), ParentID: strp("layer_missing")}, "invalidParent"},
		{"missing zoom", Operation{Type: OpViewZoom}, "invalidField"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Apply(tt.op)
			assert.False(t, res.OK)
			assert.Equal(t, tt.code, res.Code, res.Error)
			assert.NotEmpty(t, res.Error)
		})
	}
	assert.Len(t, s.Items(), 1)
}

func TestApplyLocked(t *testing.T) {
	s := newSession()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	require.True(t, s.Apply(Operation{Type: OpItemToggleLocked, Index: intp(0)}).OK)

	res := s.Apply(Operation{Type: OpItemUpdate, Index: intp(0), Props: document.Data{"width": 5.0}})
	assert.False(t, res.OK)
	assert.Equal(t, "locked", res.Code)

	res = s.Apply(Operation{Type: OpItemRename, Index: intp(0), Name: strp("Still editable")})
	assert.True(t, res.OK)
	assert.Equal(t, "Still editable", s.Items()[0]["name"])
}

func TestApplyTransaction(t *testing.T) {
	s := newSession()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	before := s.Items()[0]

	require.True(t, s.Apply(Operation{Type: OpTransactionBegin}).OK)
	for _, p := range []document.Data{{"x": 10.0}, {"width": 80.0}, {"fillColor": "#ff0000"}} {
		require.True(t, s.Apply(Operation{Type: OpItemUpdate, Index: intp(0), Props: p}).OK)
	}
	res := s.Apply(Operation{Type: OpTransactionEnd})
	require.True(t, res.OK)
	assert.True(t, res.Changed)

	require.True(t, s.Apply(Operation{Type: OpHistoryUndo}).Changed)
	assert.Equal(t, before, s.Items()[0])
}

func TestApplyStructure(t *testing.T) {
	s := newSession()
	res := s.Apply(Operation{Type: OpLayerAdd})
	require.True(t, res.OK)
	layerID := itemID(t, s, 0)

	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("B", 30)}).OK)
	aID, bID := itemID(t, s, 1), itemID(t, s, 2)

	res = s.Apply(Operation{Type: OpItemReparent, ItemID: bID, ParentID: strp(layerID)})
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.Index)
	assert.Equal(t, 1, *res.Index, "reparented item follows its parent")

	res = s.Apply(Operation{Type: OpItemMove, ItemID: aID, To: intp(0)})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 0, *res.Index)

	res = s.Apply(Operation{Type: OpItemsGroup, ItemIDs: []string{aID}})
	require.True(t, res.OK, res.Error)
	grp, _ := s.Apply(Operation{Type: OpItemGet, Index: res.Index}).Data.(document.Data)
	assert.Equal(t, "group", grp["type"])

	res = s.Apply(Operation{Type: OpItemToggleVisibility, ItemID: aID})
	require.True(t, res.OK)

	require.True(t, s.Apply(Operation{Type: OpItemsClear}).OK)
	assert.Empty(t, s.Items())
	assert.True(t, s.Apply(Operation{Type: OpHistoryUndo}).Changed)
	assert.Len(t, s.Items(), 4)
	assert.True(t, s.Apply(Operation{Type: OpHistoryRedo}).Changed)
	assert.Empty(t, s.Items())
}

func TestApplySceneQueries(t *testing.T) {
	s := newSession()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("B", 100)}).OK)

	res := s.Apply(Operation{Type: OpSceneRender})
	require.True(t, res.OK)
	cmds := res.Data.([]scene.DrawCommand)
	require.Len(t, cmds, 2)
	assert.Equal(t, "B", cmds[0].Name)
	assert.Equal(t, "A", cmds[1].Name)

	res = s.Apply(Operation{Type: OpSceneBounds})
	require.True(t, res.OK)
	assert.Equal(t, scene.Bounds{Width: 120, Height: 20}, res.Data)

	res = s.Apply(Operation{Type: OpSceneBounds, Indices: []int{1}})
	require.True(t, res.OK)
	assert.Equal(t, scene.Bounds{X: 100, Width: 20, Height: 20}, res.Data)

	require.True(t, s.Apply(Operation{Type: OpViewZoom, Zoom: floatp(2)}).OK)
	require.True(t, s.Apply(Operation{Type: OpViewOffset, X: floatp(5), Y: floatp(5)}).OK)
	res = s.Apply(Operation{Type: OpViewToDocument, X: floatp(25), Y: floatp(45)})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, geom.Pt(10, 20), res.Data)
	assert.Equal(t, "invalidField", s.Apply(Operation{Type: OpViewToDocument, X: floatp(1)}).Code)
	cmds = s.Scene()
	assert.Equal(t, 2.0, cmds[0].View[0])
	assert.Equal(t, 5.0, cmds[0].View[3])

	res = s.Apply(Operation{Type: OpItemsList})
	require.True(t, res.OK)
	assert.Len(t, res.Data, 2)
}

func TestResultJSON(t *testing.T) {
	s := newSession()
	res := s.Apply(Operation{ID: "x", Type: OpItemAdd, Item: rect("A", 0)})
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operationId":"x","ok":true,"index":0}`, string(b))

	res = s.Apply(Operation{ID: "y", Type: OpItemRemove, Index: intp(9)})
	b, err = json.Marshal(res)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, false, m["ok"])
	assert.Equal(t, "indexOutOfRange", m["code"])
}

func TestLoadSampleAndExport(t *testing.T) {
	s := newSession()
	require.NoError(t, s.LoadSample())
	snap := s.Snapshot()
	assert.Len(t, snap.Items, len(document.NewSampleItems()))
	assert.False(t, snap.CanUndo)

	var buf bytes.Buffer
	require.NoError(t, s.WritePNG(&buf, 1))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestSubscribe(t *testing.T) {
	s := newSession()
	var kinds []canvas.EventKind
	unsub := s.Subscribe(func(e canvas.Event) { kinds = append(kinds, e.Kind) })

	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	assert.Equal(t, []canvas.EventKind{canvas.EventItemAdded, canvas.EventHistoryChanged}, kinds)

	unsub()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("B", 0)}).OK)
	assert.Len(t, kinds, 2)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(quiet())
	a := r.Create()
	b := r.Create()
	assert.Equal(t, 2, r.Len())
	assert.NotEqual(t, a.ID, b.ID)

	got, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, r.Remove(a.ID))
	assert.False(t, r.Remove(a.ID))
	assert.True(t, a.Closed())
	assert.Equal(t, "sessionClosed", a.Apply(Operation{Type: OpHistoryUndo}).Code)
	assert.Equal(t, []string{b.ID}, r.IDs())
}

func TestOverflowingItemRendersWithoutTexture(t *testing.T) {
	s := newSession()
	huge := rect("Huge", 0)
	huge["geometry"] = map[string]any{"x": 0.0, "y": 0.0, "width": 1e300, "height": 10.0}
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: huge}).OK)
	round := document.Data{
		"type":     "ellipse",
		"geometry": map[string]any{"centerX": 0.0, "centerY": 0.0, "radiusX": 1e308, "radiusY": 1e308},
	}
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: round}).OK)

	res := s.Apply(Operation{Type: OpSceneRender})
	require.True(t, res.OK, res.Error)
	cmds := res.Data.([]scene.DrawCommand)
	require.Len(t, cmds, 2)
	for _, c := range cmds {
		assert.Empty(t, c.Version)
	}
	_, err := json.Marshal(res)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.ErrorIs(t, s.WritePNG(&buf, 1), document.ErrEmptyBounds)
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	s := newSession()
	require.True(t, s.Apply(Operation{Type: OpItemAdd, Item: rect("A", 0)}).OK)
	s.Close()
	s.Close()
	assert.True(t, s.Closed())

	res := s.Apply(Operation{ID: "late", Type: OpItemAdd, Item: rect("B", 0)})
	assert.False(t, res.OK)
	assert.Equal(t, "late", res.OperationID)
	assert.Equal(t, "sessionClosed", res.Code)
	assert.Len(t, s.Items(), 1)

	var buf bytes.Buffer
	assert.ErrorIs(t, s.WritePNG(&buf, 1), ErrClosed)
	assert.False(t, s.ExportPNG(t.TempDir()+"/out.png", 1))
	assert.ErrorIs(t, s.LoadSample(), ErrClosed)
}

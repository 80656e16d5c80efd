package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func assertPoint(t *testing.T, want Point, gotX, gotY float64) {
	t.Helper()
	assert.InDelta(t, want.X, gotX, tol)
	assert.InDelta(t, want.Y, gotY, tol)
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// Scale applied first, then translate.
	m := Translate(10, 0).Multiply(Scale(2, 2))
	x, y := m.TransformPoint(1, 1)
	assertPoint(t, Pt(12, 2), x, y)
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, -3).Multiply(RotateDegrees(30)).Multiply(Scale(2, 0.5))
	x, y := m.Multiply(m.Invert()).TransformPoint(7, 11)
	assertPoint(t, Pt(7, 11), x, y)

	assert.True(t, Scale(0, 1).Invert().IsIdentity())
}

func TestMatrixTransformRect(t *testing.T) {
	r := RotateDegrees(90).TransformRect(Rect{X: 0, Y: 0, Width: 10, Height: 20})
	assert.InDelta(t, -20, r.X, tol)
	assert.InDelta(t, 0, r.Y, tol)
	assert.InDelta(t, 20, r.Width, tol)
	assert.InDelta(t, 10, r.Height, tol)
}

func TestMatrix4MatchesMatrix2D(t *testing.T) {
	tr := Transform{TranslateX: 15, TranslateY: -4, Rotate: 37, ScaleX: 1.5, ScaleY: 0.75}
	m2 := tr.Matrix()
	m4 := tr.Matrix4()
	for _, p := range []Point{{0, 0}, {3, 9}, {-12, 4.5}} {
		x2, y2 := m2.TransformPoint(p.X, p.Y)
		x4, y4 := m4.TransformPoint(p.X, p.Y)
		assert.InDelta(t, x2, x4, tol)
		assert.InDelta(t, y2, y4, tol)
	}
	assert.InDeltaSlice(t, m2.ToSlice(), m4.To2D().ToSlice(), tol)
	assert.InDeltaSlice(t, m2.To4().ToSlice(), m4.ToSlice(), tol)
}

func TestTransformIdentity(t *testing.T) {
	id := IdentityTransform()
	assert.True(t, id.IsIdentity())
	assert.True(t, id.Matrix().IsIdentity())
	assert.True(t, id.Matrix4().IsIdentity())

	id.Pivot = &Point{X: 50, Y: 50}
	assert.True(t, id.Effective().IsIdentity())
	assert.True(t, id.Effective4().IsIdentity())
}

func TestTransformAroundPivotKeepsPivotFixed(t *testing.T) {
	tr := Transform{Rotate: 90, ScaleX: 2, ScaleY: 2, Pivot: &Point{X: 50, Y: 50}}

	x, y := tr.Effective().TransformPoint(50, 50)
	assertPoint(t, Pt(50, 50), x, y)

	x, y = tr.Effective4().TransformPoint(50, 50)
	assertPoint(t, Pt(50, 50), x, y)

	// (60, 50) is 10 right of the pivot: rotated 90 and doubled it lands 20 below.
	x, y = tr.Effective().TransformPoint(60, 50)
	assertPoint(t, Pt(50, 70), x, y)
}

func TestTransformPivotWithTranslate(t *testing.T) {
	tr := Transform{TranslateX: 10, TranslateY: 5, Rotate: 180, ScaleX: 1, ScaleY: 1}
	x, y := tr.MatrixAround(0, 0).TransformPoint(1, 0)
	assertPoint(t, Pt(9, 5), x, y)

	x, y = tr.Matrix4Around(2, 0).TransformPoint(1, 0)
	assertPoint(t, Pt(13, 5), x, y)
}

func TestTransformCloneCopiesPivot(t *testing.T) {
	tr := Transform{ScaleX: 1, ScaleY: 1, Pivot: &Point{X: 1, Y: 2}}
	c := tr.Clone()
	c.Pivot.X = 99
	assert.Equal(t, 1.0, tr.Pivot.X)
}

func TestScaleForResize(t *testing.T) {
	tests := []struct {
		name    string
		scale   float64
		size    float64
		delta   float64
		fromMin bool
		want    float64
	}{
		{"grow max edge", 1, 100, 50, false, 1.5},
		{"shrink max edge", 1, 100, -50, false, 0.5},
		{"grow min edge", 1, 100, -50, true, 1.5},
		{"shrink min edge", 2, 100, 100, true, 1},
		{"clamp to one pixel", 1, 100, -500, false, 0.01},
		{"zero size keeps scale", 3, 0, 10, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScaleForResize(tt.scale, tt.size, tt.delta, tt.fromMin), tol)
		})
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: -5, Width: 10, Height: 10}
	assert.Equal(t, Rect{X: 0, Y: -5, Width: 15, Height: 15}, a.Union(b))
	assert.Equal(t, a, a.Union(Rect{}))
	assert.Equal(t, b, Rect{}.Union(b))
}

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints([]Point{{3, 4}, {-1, 10}, {7, 2}})
	assert.Equal(t, Rect{X: -1, Y: 2, Width: 8, Height: 8}, r)
	assert.Equal(t, Rect{}, RectFromPoints(nil))
}

func TestCubicEndpoints(t *testing.T) {
	p0, c1, c2, p1 := Pt(0, 0), Pt(0, 50), Pt(100, 50), Pt(100, 0)
	assert.Equal(t, p0, CubicAt(p0, c1, c2, p1, 0))
	assert.Equal(t, p1, CubicAt(p0, c1, c2, p1, 1))

	pts := FlattenCubic(nil, p0, c1, c2, p1)
	require.NotEmpty(t, pts)
	assert.Equal(t, p1, pts[len(pts)-1])
	assert.GreaterOrEqual(t, len(pts), MinCubicSteps)
	assert.LessOrEqual(t, len(pts), MaxCubicSteps)
}

func TestCubicStepsClamped(t *testing.T) {
	assert.Equal(t, MinCubicSteps, CubicSteps(Pt(0, 0), Pt(0, 0), Pt(1, 0), Pt(1, 0)))
	assert.Equal(t, MaxCubicSteps, CubicSteps(Pt(0, 0), Pt(0, 5000), Pt(5000, 5000), Pt(5000, 0)))
	assert.Equal(t, MinCubicSteps, CubicSteps(Pt(0, 0), Pt(math.NaN(), 0), Pt(1, 0), Pt(1, 0)))
}

func TestCubicBounds(t *testing.T) {
	// Symmetric arch peaks at t=0.5, y = 0.75 * 40.
	r := CubicBounds(Pt(0, 0), Pt(0, 40), Pt(100, 40), Pt(100, 0))
	assert.InDelta(t, 0, r.X, tol)
	assert.InDelta(t, 0, r.Y, tol)
	assert.InDelta(t, 100, r.Width, tol)
	assert.InDelta(t, 30, r.Height, tol)
}

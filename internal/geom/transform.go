package geom

import "math"

// Transform is a non-destructive placement applied to a shape's geometry.
// Operations compose as translate, then rotate, then scale.
type Transform struct {
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Rotate     float64 `json:"rotate"` // degrees
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	// Pivot is an absolute point in geometry space that rotation and
	// scale are applied around. Nil means the geometry origin.
	Pivot *Point `json:"pivot,omitempty"`
}

// IdentityTransform returns a transform with no effect.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// IsIdentity reports whether t has zero translation and rotation and unit scale.
// The pivot is irrelevant for an identity transform.
func (t Transform) IsIdentity() bool {
	return t.TranslateX == 0 && t.TranslateY == 0 && t.Rotate == 0 &&
		t.ScaleX == 1 && t.ScaleY == 1
}

// Matrix returns T(translate) · R(rotate) · S(scale).
func (t Transform) Matrix() Matrix2D {
	return Translate(t.TranslateX, t.TranslateY).
		Multiply(RotateDegrees(t.Rotate)).
		Multiply(Scale(t.ScaleX, t.ScaleY))
}

// MatrixAround returns the transform with rotation and scale applied around
// (cx, cy): T(translate) · T(c) · R · S · T(-c).
func (t Transform) MatrixAround(cx, cy float64) Matrix2D {
	if t.IsIdentity() {
		return Identity()
	}
	return Translate(t.TranslateX, t.TranslateY).
		Multiply(Translate(cx, cy)).
		Multiply(RotateDegrees(t.Rotate)).
		Multiply(Scale(t.ScaleX, t.ScaleY)).
		Multiply(Translate(-cx, -cy))
}

// Effective returns the pivot-centered matrix when a pivot is set and the
// plain matrix otherwise.
func (t Transform) Effective() Matrix2D {
	if t.Pivot != nil {
		return t.MatrixAround(t.Pivot.X, t.Pivot.Y)
	}
	return t.Matrix()
}

// Matrix4 returns the 4x4 form of Matrix for GPU node placement.
func (t Transform) Matrix4() Matrix4 {
	return Translate4(t.TranslateX, t.TranslateY, 0).
		Multiply(RotateZ4(t.Rotate)).
		Multiply(Scale4(t.ScaleX, t.ScaleY, 1))
}

// Matrix4Around returns the 4x4 form of MatrixAround.
func (t Transform) Matrix4Around(cx, cy float64) Matrix4 {
	if t.IsIdentity() {
		return Identity4()
	}
	return Translate4(t.TranslateX, t.TranslateY, 0).
		Multiply(Translate4(cx, cy, 0)).
		Multiply(RotateZ4(t.Rotate)).
		Multiply(Scale4(t.ScaleX, t.ScaleY, 1)).
		Multiply(Translate4(-cx, -cy, 0))
}

// Effective4 is the 4x4 counterpart of Effective.
func (t Transform) Effective4() Matrix4 {
	if t.Pivot != nil {
		return t.Matrix4Around(t.Pivot.X, t.Pivot.Y)
	}
	return t.Matrix4()
}

// Clone returns a deep copy of t.
func (t Transform) Clone() Transform {
	if t.Pivot != nil {
		p := *t.Pivot
		t.Pivot = &p
	}
	return t
}

// ScaleForResize computes the scale factor after dragging a resize handle by
// delta (in local, unrotated units). Dragging the min edge (left/top) grows
// the shape for negative deltas. The displayed size never drops below 1.
func ScaleForResize(currentScale, geometrySize, delta float64, fromMinEdge bool) float64 {
	if geometrySize <= 0 {
		return currentScale
	}
	displayed := geometrySize * currentScale
	if fromMinEdge {
		displayed -= delta
	} else {
		displayed += delta
	}
	return math.Max(1, displayed) / geometrySize
}

package geom

import "math"

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation matrix (angle in radians).
func Rotate(radians float64) Matrix2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// RotateDegrees returns a rotation matrix (angle in degrees).
func RotateDegrees(degrees float64) Matrix2D {
	return Rotate(degrees * math.Pi / 180.0)
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Apply maps p through the matrix.
func (m Matrix2D) Apply(p Point) Point {
	x, y := m.TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}

// TransformRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix2D) TransformRect(r Rect) Rect {
	x0, y0 := m.TransformPoint(r.X, r.Y)
	x1, y1 := m.TransformPoint(r.X+r.Width, r.Y)
	x2, y2 := m.TransformPoint(r.X+r.Width, r.Y+r.Height)
	x3, y3 := m.TransformPoint(r.X, r.Y+r.Height)

	minX := min(x0, x1, x2, x3)
	minY := min(y0, y1, y2, y3)
	maxX := max(x0, x1, x2, x3)
	maxY := max(y0, y1, y2, y3)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// To4 embeds the affine matrix in a homogeneous 4x4 matrix acting on the z=0 plane.
func (m Matrix2D) To4() Matrix4 {
	return Matrix4{
		m[0], m[2], 0, m[4],
		m[1], m[3], 0, m[5],
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Matrix4 is a row-major homogeneous 4x4 matrix, as consumed by GPU
// transform nodes. Element (row, col) lives at index row*4+col.
type Matrix4 [16]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate4 returns a translation in x, y, z.
func Translate4(tx, ty, tz float64) Matrix4 {
	m := Identity4()
	m[3], m[7], m[11] = tx, ty, tz
	return m
}

// Scale4 returns a scale in x, y, z.
func Scale4(sx, sy, sz float64) Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = sx, sy, sz
	return m
}

// RotateZ4 returns a rotation about the z axis (angle in degrees).
func RotateZ4(degrees float64) Matrix4 {
	rad := degrees * math.Pi / 180.0
	cos, sin := math.Cos(rad), math.Sin(rad)
	m := Identity4()
	m[0], m[1] = cos, -sin
	m[4], m[5] = sin, cos
	return m
}

// Multiply returns m * other, so 'other' is applied first.
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var out Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * other[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// TransformPoint maps (x, y, 0, 1) and returns the projected x, y.
func (m Matrix4) TransformPoint(x, y float64) (float64, float64) {
	tx := m[0]*x + m[1]*y + m[3]
	ty := m[4]*x + m[5]*y + m[7]
	w := m[12]*x + m[13]*y + m[15]
	if w != 0 && w != 1 {
		return tx / w, ty / w
	}
	return tx, ty
}

// To2D drops the z row and column. Valid for matrices built from 2D operations.
func (m Matrix4) To2D() Matrix2D {
	return Matrix2D{m[0], m[4], m[1], m[5], m[3], m[7]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix4) IsIdentity() bool {
	const eps = 1e-10
	id := Identity4()
	for i := range m {
		if math.Abs(m[i]-id[i]) >= eps {
			return false
		}
	}
	return true
}

// ToSlice returns the elements in row-major order.
func (m Matrix4) ToSlice() []float64 {
	out := make([]float64, 16)
	copy(out, m[:])
	return out
}

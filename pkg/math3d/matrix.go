package math3d

import (
	"fmt"
	"strings"
)

// Matrix is a general rows×cols matrix stored row-major.
// Shape mismatches are programming errors and panic.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix returns a zero matrix of the given shape.
func NewMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("math3d: invalid matrix shape %dx%d", rows, cols))
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// IdentityMatrix returns the n×n identity.
func IdentityMatrix(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

// PointMatrix embeds v as the homogeneous column (x, y, z, 1).
func PointMatrix(v Vec3) *Matrix {
	m := NewMatrix(4, 1)
	m.Data[0], m.Data[1], m.Data[2], m.Data[3] = v.X, v.Y, v.Z, 1
	return m
}

// At returns the element at (row, col).
func (m *Matrix) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set sets the element at (row, col).
func (m *Matrix) Set(row, col int, v float64) {
	m.Data[row*m.Cols+col] = v
}

// Mul returns m * b.
func (m *Matrix) Mul(b *Matrix) *Matrix {
	if m.Cols != b.Rows {
		panic(fmt.Sprintf("math3d: cannot multiply %dx%d by %dx%d", m.Rows, m.Cols, b.Rows, b.Cols))
	}
	out := NewMatrix(m.Rows, b.Cols)
	for i := range m.Rows {
		for j := range b.Cols {
			var sum float64
			for k := range m.Cols {
				sum += m.At(i, k) * b.At(k, j)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// Transpose returns the transposed matrix.
func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	for i := range m.Rows {
		for j := range m.Cols {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// Vec3 reads a 4x1 homogeneous column back into 3D, dividing by w.
func (m *Matrix) Vec3() Vec3 {
	if m.Rows != 4 || m.Cols != 1 {
		panic(fmt.Sprintf("math3d: %dx%d is not a homogeneous point", m.Rows, m.Cols))
	}
	return V4(m.Data[0], m.Data[1], m.Data[2], m.Data[3]).PerspectiveDivide()
}

// Mat4FromMatrix converts a 4x4 Matrix into a Mat4.
func Mat4FromMatrix(m *Matrix) Mat4 {
	if m.Rows != 4 || m.Cols != 4 {
		panic(fmt.Sprintf("math3d: %dx%d is not 4x4", m.Rows, m.Cols))
	}
	var out Mat4
	for row := range 4 {
		for col := range 4 {
			out.Set(row, col, m.At(row, col))
		}
	}
	return out
}

func (m *Matrix) String() string {
	var sb strings.Builder
	for i := range m.Rows {
		for j := range m.Cols {
			if j > 0 {
				sb.WriteByte('\t')
			}
			fmt.Fprintf(&sb, "%g", m.At(i, j))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

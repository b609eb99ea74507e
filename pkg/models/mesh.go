// Package models provides mesh loading and representation for tinyraster.
package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// ErrIndexOutOfRange is wrapped by Validate when a face references a
// missing attribute.
var ErrIndexOutOfRange = errors.New("index out of range")

// Mesh holds three independent attribute lists and the faces that index
// into them.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	UVs       []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     []Face

	// FlatNormals is set when Normals holds one normal per face rather
	// than per-vertex data.
	FlatNormals bool

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// FaceVertex is one corner of a face. Each field indexes its own list;
// -1 marks an absent attribute.
type FaceVertex struct {
	Position int
	UV       int
	Normal   int
}

// Face is a triangle.
type Face [3]FaceVertex

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Positions: make([]math3d.Vec3, 0),
		UVs:       make([]math3d.Vec2, 0),
		Normals:   make([]math3d.Vec3, 0),
		Faces:     make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]

	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// FitUnitCube centers the mesh on the origin and scales it uniformly so
// its largest dimension spans [-1,1].
func (m *Mesh) FitUnitCube() {
	m.CalculateBounds()
	size := m.Size()
	extent := max(size.X, size.Y, size.Z)

	fit := math3d.Translate(m.Center().Negate())
	if extent > 0 {
		fit = math3d.ScaleUniform(2 / extent).Mul(fit)
	}
	m.Transform(fit)
}

// Transform applies a transformation matrix to positions and normals.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Positions {
		m.Positions[i] = mat.MulVec3(m.Positions[i])
	}
	// Rotation and uniform scale only; non-uniform scale skews normals.
	for i := range m.Normals {
		m.Normals[i] = mat.MulVec3Dir(m.Normals[i]).Normalize()
	}
	m.CalculateBounds()
}

// FaceNormal returns the unit normal of face i using counter-clockwise
// winding: (v1-v0)×(v2-v0).
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	v0 := m.Positions[f[0].Position]
	v1 := m.Positions[f[1].Position]
	v2 := m.Positions[f[2].Position]
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// CalculateNormals replaces the normal list with one normal per face
// (flat shading).
func (m *Mesh) CalculateNormals() {
	m.FlatNormals = true
	m.Normals = make([]math3d.Vec3, len(m.Faces))
	for i := range m.Faces {
		m.Normals[i] = m.FaceNormal(i)
		for j := range 3 {
			m.Faces[i][j].Normal = i
		}
	}
}

// CalculateSmoothNormals replaces the normal list with one averaged
// normal per position. Larger faces weigh more.
func (m *Mesh) CalculateSmoothNormals() {
	m.FlatNormals = false
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	for i := range m.Faces {
		f := &m.Faces[i]
		v0 := m.Positions[f[0].Position]
		v1 := m.Positions[f[1].Position]
		v2 := m.Positions[f[2].Position]

		n := v1.Sub(v0).Cross(v2.Sub(v0)) // Don't normalize yet
		for j := range 3 {
			p := f[j].Position
			m.Normals[p] = m.Normals[p].Add(n)
			f[j].Normal = p
		}
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// Validate checks every face index against its attribute list.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		for j, fv := range f {
			if fv.Position < 0 || fv.Position >= len(m.Positions) {
				return fmt.Errorf("face %d vertex %d: position %d of %d: %w", i, j, fv.Position, len(m.Positions), ErrIndexOutOfRange)
			}
			if fv.UV < -1 || fv.UV >= len(m.UVs) {
				return fmt.Errorf("face %d vertex %d: uv %d of %d: %w", i, j, fv.UV, len(m.UVs), ErrIndexOutOfRange)
			}
			if fv.Normal < -1 || fv.Normal >= len(m.Normals) {
				return fmt.Errorf("face %d vertex %d: normal %d of %d: %w", i, j, fv.Normal, len(m.Normals), ErrIndexOutOfRange)
			}
		}
	}
	return nil
}

// EnsureVertexNormals generates smooth per-position normals when the mesh
// has none or only per-face ones, and reports whether it did.
func (m *Mesh) EnsureVertexNormals() bool {
	if len(m.Normals) > 0 && !m.FlatNormals {
		return false
	}
	m.CalculateSmoothNormals()
	return true
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Positions: make([]math3d.Vec3, len(m.Positions)),
		UVs:       make([]math3d.Vec2, len(m.UVs)),
		Normals:   make([]math3d.Vec3, len(m.Normals)),
		Faces:     make([]Face, len(m.Faces)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,

		FlatNormals: m.FlatNormals,
	}
	copy(clone.Positions, m.Positions)
	copy(clone.UVs, m.UVs)
	copy(clone.Normals, m.Normals)
	copy(clone.Faces, m.Faces)
	return clone
}

// PositionCount returns the number of positions.
func (m *Mesh) PositionCount() int {
	return len(m.Positions)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// Position returns position i.
func (m *Mesh) Position(i int) math3d.Vec3 {
	return m.Positions[i]
}

// UV returns texture coordinate i.
func (m *Mesh) UV(i int) math3d.Vec2 {
	return m.UVs[i]
}

// Normal returns normal i.
func (m *Mesh) Normal(i int) math3d.Vec3 {
	return m.Normals[i]
}

// FaceIndices returns the position, uv and normal indices of face i.
// Implements render.MeshSource.
func (m *Mesh) FaceIndices(i int) (pos, uv, norm [3]int) {
	for j, fv := range m.Faces[i] {
		pos[j] = fv.Position
		uv[j] = fv.UV
		norm[j] = fv.Normal
	}
	return pos, uv, norm
}

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

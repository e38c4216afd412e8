// Package models provides triangle meshes, procedural primitives and the
// glTF importer that turns documents into scene graphs.
package models

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// Mesh is an indexed triangle mesh in local space.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	Faces     [][3]int // indices into Positions, counter-clockwise front

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p math3d.Vec3) int {
	m.Positions = append(m.Positions, p)
	return len(m.Positions) - 1
}

// AddTriangle appends the triangle (a, b, c).
func (m *Mesh) AddTriangle(a, b, c int) {
	m.Faces = append(m.Faces, [3]int{a, b, c})
}

// AddQuad appends the quad (a, b, c, d) as the triangles (a, b, c) and (a, c, d).
func (m *Mesh) AddQuad(a, b, c, d int) {
	m.AddTriangle(a, b, c)
	m.AddTriangle(a, c, d)
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
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
	return m.BoundsMin.Midpoint(m.BoundsMax)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// GetFace returns the vertex indices for face i.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i]
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) math3d.Vec3 {
	return m.Positions[i]
}

// FaceNormal returns the unit normal of face i, following its winding.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	a, b, c := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

package models

import (
	"math"

	"github.com/taigrr/umbra/pkg/math3d"
)

// boxFaces lists the corners of each box side, counter-clockwise seen from
// outside. Corner i has bit 0 set for max X, bit 1 for max Y, bit 2 for max Z.
var boxFaces = [6][4]int{
	{1, 3, 7, 5}, // +X
	{0, 4, 6, 2}, // -X
	{2, 6, 7, 3}, // +Y
	{0, 1, 5, 4}, // -Y
	{4, 5, 7, 6}, // +Z
	{0, 2, 3, 1}, // -Z
}

// NewBox creates a closed axis-aligned box with 8 shared corners and 12
// outward-facing triangles.
func NewBox(lo, hi math3d.Vec3) *Mesh {
	m := NewMesh("box")
	for i := range 8 {
		p := lo
		if i&1 != 0 {
			p.X = hi.X
		}
		if i&2 != 0 {
			p.Y = hi.Y
		}
		if i&4 != 0 {
			p.Z = hi.Z
		}
		m.AddVertex(p)
	}
	for _, f := range boxFaces {
		m.AddQuad(f[0], f[1], f[2], f[3])
	}
	m.CalculateBounds()
	return m
}

// NewTetrahedron creates a closed tetrahedron with an equilateral base of
// circumradius 1 in the z=0 plane (normal +Z) and its apex at (0, 0, -1).
func NewTetrahedron() *Mesh {
	m := NewMesh("tetrahedron")
	h := math.Sqrt(3) / 2
	b0 := m.AddVertex(math3d.V3(1, 0, 0))
	b1 := m.AddVertex(math3d.V3(-0.5, h, 0))
	b2 := m.AddVertex(math3d.V3(-0.5, -h, 0))
	apex := m.AddVertex(math3d.V3(0, 0, -1))

	m.AddTriangle(b0, b1, b2)
	m.AddTriangle(b0, apex, b1)
	m.AddTriangle(b1, apex, b2)
	m.AddTriangle(b2, apex, b0)
	m.CalculateBounds()
	return m
}

// NewPlane creates an open square of the given half extent at height y,
// facing +Y.
func NewPlane(half, y float64) *Mesh {
	m := NewMesh("plane")
	a := m.AddVertex(math3d.V3(-half, y, -half))
	b := m.AddVertex(math3d.V3(-half, y, half))
	c := m.AddVertex(math3d.V3(half, y, half))
	d := m.AddVertex(math3d.V3(half, y, -half))
	m.AddQuad(a, b, c, d)
	m.CalculateBounds()
	return m
}

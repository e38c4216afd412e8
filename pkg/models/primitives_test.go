package models

import (
	"testing"

	"github.com/taigrr/umbra/pkg/math3d"
)

// edgeUses counts how often each undirected edge appears across faces.
func edgeUses(m *Mesh) map[[2]int]int {
	uses := make(map[[2]int]int)
	for _, f := range m.Faces {
		for i := range 3 {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			uses[[2]int{a, b}]++
		}
	}
	return uses
}

func TestPrimitiveTopology(t *testing.T) {
	tests := []struct {
		name      string
		mesh      *Mesh
		triangles int
		vertices  int
		closed    bool
	}{
		{"box", NewBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)), 12, 8, true},
		{"tetrahedron", NewTetrahedron(), 4, 4, true},
		{"plane", NewPlane(5, 0), 2, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mesh.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount = %d, want %d", got, tt.triangles)
			}
			if got := tt.mesh.VertexCount(); got != tt.vertices {
				t.Errorf("VertexCount = %d, want %d", got, tt.vertices)
			}
			boundary := 0
			for edge, n := range edgeUses(tt.mesh) {
				switch {
				case n == 1:
					boundary++
				case n > 2:
					t.Errorf("edge %v shared by %d faces", edge, n)
				}
			}
			if tt.closed && boundary != 0 {
				t.Errorf("closed mesh has %d boundary edges", boundary)
			}
			if !tt.closed && boundary == 0 {
				t.Error("open mesh has no boundary edges")
			}
		})
	}
}

func TestPrimitiveNormalsPointOutward(t *testing.T) {
	for _, m := range []*Mesh{
		NewBox(math3d.V3(0, 1, 0), math3d.V3(2, 3, 4)),
		NewTetrahedron(),
	} {
		center := m.Center()
		for i := range m.TriangleCount() {
			f := m.GetFace(i)
			centroid := m.Position(f[0]).Add(m.Position(f[1])).Add(m.Position(f[2])).Scale(1.0 / 3)
			if m.FaceNormal(i).Dot(centroid.Sub(center)) <= 0 {
				t.Errorf("%s face %d normal %v points inward", m.Name, i, m.FaceNormal(i))
			}
		}
	}
}

func TestPlaneFacesUp(t *testing.T) {
	m := NewPlane(2, 0.5)
	for i := range m.TriangleCount() {
		if n := m.FaceNormal(i); !n.ApproxEqual(math3d.Up(), 1e-12) {
			t.Errorf("face %d normal = %v, want +Y", i, n)
		}
	}
	if m.BoundsMin.Y != 0.5 || m.BoundsMax.Y != 0.5 {
		t.Errorf("bounds Y = [%v, %v], want 0.5", m.BoundsMin.Y, m.BoundsMax.Y)
	}
}

package shadow

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/scene"
)

// Face is a casting triangle of a Mesh, wound so that Normal points to the
// casting side.
type Face struct {
	V        [3]int
	Normal   math3d.Vec3
	TwoSided bool
}

// Mesh is the indexed casting geometry built from a soup. Vertices that
// compare equal are shared, which is what makes edges findable.
type Mesh struct {
	Vertices      []math3d.Vec4
	Faces         []Face
	VertexNormals []math3d.Vec3

	// Degenerate counts dropped zero-area triangles.
	Degenerate int
}

// BuildMesh deduplicates the casting triangles of s into an indexed mesh.
func BuildMesh(s *Soup, skipTransparent bool) *Mesh {
	m := &Mesh{}
	index := make(map[math3d.Vec4]int, 3*s.Len())
	vertex := func(p math3d.Vec4) int {
		if i, ok := index[p]; ok {
			return i
		}
		i := len(m.Vertices)
		index[p] = i
		m.Vertices = append(m.Vertices, p)
		return i
	}

	for i := range s.Triangles {
		if !s.Casting(i, skipTransparent) {
			continue
		}
		t := &s.Triangles[i]
		v := [3]int{vertex(t.V[0]), vertex(t.V[1]), vertex(t.V[2])}
		// CW winding and back casting each flip the casting side.
		if (t.FrontFace == gputypes.FrontFaceCW) != (t.Cast == scene.CastBack) {
			v[1], v[2] = v[2], v[1]
		}
		n := m.faceNormal(v)
		if n == (math3d.Vec3{}) {
			m.Degenerate++
			continue
		}
		m.Faces = append(m.Faces, Face{V: v, Normal: n, TwoSided: t.Cast == scene.CastFrontAndBack})
	}

	m.VertexNormals = make([]math3d.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		for _, vi := range f.V {
			m.VertexNormals[vi] = m.VertexNormals[vi].Add(f.Normal)
		}
	}
	for i, n := range m.VertexNormals {
		m.VertexNormals[i] = n.Normalize()
	}
	return m
}

func (m *Mesh) faceNormal(v [3]int) math3d.Vec3 {
	a, b, c := m.Vertices[v[0]].Vec3(), m.Vertices[v[1]].Vec3(), m.Vertices[v[2]].Vec3()
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSq() == 0 || math.IsNaN(n.LenSq()) {
		return math3d.Vec3{}
	}
	return n.Normalize()
}

// Position returns vertex i as a point.
func (m *Mesh) Position(i int) math3d.Vec3 {
	return m.Vertices[i].Vec3()
}

// Facing returns how much face f turns toward the light, as the dot product
// of its normal with the direction to the light. Two-sided faces always
// turn their better side.
func (m *Mesh) Facing(f int, light math3d.Vec4) float64 {
	face := &m.Faces[f]
	d := face.Normal.Dot(ToLight(light, m.Position(face.V[0])))
	if face.TwoSided {
		return math.Abs(d)
	}
	return d
}

// oriented returns the vertices of face f wound so that the normal points
// toward the light. Only two-sided faces are ever reversed.
func (m *Mesh) oriented(f int, light math3d.Vec4) [3]int {
	face := &m.Faces[f]
	if face.TwoSided && face.Normal.Dot(ToLight(light, m.Position(face.V[0]))) < 0 {
		return [3]int{face.V[0], face.V[2], face.V[1]}
	}
	return face.V
}

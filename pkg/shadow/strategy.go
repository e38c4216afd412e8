package shadow

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// buildInput is what every geometry builder works from.
type buildInput struct {
	mesh   *Mesh
	edges  *Adjacency
	light  math3d.Vec4
	method Method
}

// strategy is the resolved behavior of a mode.
type strategy struct {
	mode Mode

	// lightDependent geometry is rebuilt whenever the light moves.
	lightDependent bool
	// edges reports whether the builder needs adjacency, and which faces
	// take part in it.
	edges       bool
	edgeFilter  func(m *Mesh) func(f int) bool
	drawVolumes bool

	build func(in *buildInput) *Geometry
}

func resolveStrategy(m Mode) strategy {
	s := strategy{mode: m, drawVolumes: true}
	switch m {
	case ModeCPUPerTriangle:
		s.lightDependent = true
		s.build = buildCPUPerTriangle
	case ModeGPUPerTriangle:
		s.build = buildGPUPerTriangle
	case ModeGPUSilhouette:
		s.edges = true
		s.edgeFilter = oneSidedFaces
		s.build = buildGPUSilhouette
	case ModeCPUFindGPUExtrude:
		s.lightDependent = true
		s.edges = true
		s.build = buildCPUFindGPUExtrude
	case ModeDebugSilhouette:
		s.lightDependent = true
		s.edges = true
		s.drawVolumes = false
		s.build = buildDebugSilhouette
	default:
		s.mode = ModeCPUSilhouette
		s.lightDependent = true
		s.edges = true
		s.build = buildCPUSilhouette
	}
	return s
}

// oneSidedFaces keeps two-sided faces out of the adjacency. Gated modes
// cannot orient them without a light, so they are extruded per face in both
// windings instead.
func oneSidedFaces(m *Mesh) func(f int) bool {
	return func(f int) bool { return !m.Faces[f].TwoSided }
}

func cpuCaps(in *buildInput, g *Geometry) {
	if in.method != ZFail {
		return
	}
	m := in.mesh
	for f := range m.Faces {
		if m.Facing(f, in.light) <= 0 {
			continue
		}
		v := m.oriented(f, in.light)
		g.Caps = appendCaps(g.Caps, m.Vertices[v[0]], m.Vertices[v[1]], m.Vertices[v[2]], in.light)
	}
}

func buildCPUSilhouette(in *buildInput) *Geometry {
	g := &Geometry{}
	sil := FindSilhouette(in.mesh, in.edges, in.light)
	g.SilhouetteEdges = len(sil)
	for _, e := range sil {
		g.Sides = appendSide(g.Sides, in.mesh.Vertices[e.P1], in.mesh.Vertices[e.P2], in.light)
	}
	cpuCaps(in, g)
	return g
}

func buildCPUPerTriangle(in *buildInput) *Geometry {
	g := &Geometry{}
	m := in.mesh
	for f := range m.Faces {
		if m.Facing(f, in.light) <= 0 {
			continue
		}
		v := m.oriented(f, in.light)
		for k := range 3 {
			g.Sides = appendSide(g.Sides, m.Vertices[v[k]], m.Vertices[v[(k+1)%3]], in.light)
		}
	}
	cpuCaps(in, g)
	return g
}

func buildCPUFindGPUExtrude(in *buildInput) *Geometry {
	g := &Geometry{}
	m := in.mesh
	sil := FindSilhouette(m, in.edges, in.light)
	g.SilhouetteEdges = len(sil)
	for _, e := range sil {
		g.Sides = appendGatedSide(g.Sides, m.Vertices[e.P1], m.Vertices[e.P2], math3d.Vec3{}, math3d.Vec3{})
	}
	if in.method == ZFail {
		for f := range m.Faces {
			if m.Facing(f, in.light) <= 0 {
				continue
			}
			v := m.oriented(f, in.light)
			a, b, c := m.Vertices[v[0]], m.Vertices[v[1]], m.Vertices[v[2]]
			far := func(p math3d.Vec4) VolumeVertex { return VolumeVertex{Pos: p, Extrude: true} }
			g.Caps = append(g.Caps, fixed(a), fixed(b), fixed(c), far(c), far(b), far(a))
		}
	}
	return g
}

// windings returns the face in each winding it may cast from, paired with
// the normal of that winding.
func windings(f *Face) ([][3]int, []math3d.Vec3) {
	if !f.TwoSided {
		return [][3]int{f.V}, []math3d.Vec3{f.Normal}
	}
	return [][3]int{f.V, {f.V[0], f.V[2], f.V[1]}},
		[]math3d.Vec3{f.Normal, f.Normal.Negate()}
}

func appendGatedFace(g *Geometry, m *Mesh, f *Face, method Method) {
	vs, ns := windings(f)
	for i, v := range vs {
		for k := range 3 {
			g.Sides = appendGatedSide(g.Sides, m.Vertices[v[k]], m.Vertices[v[(k+1)%3]], ns[i], math3d.Vec3{})
		}
		if method == ZFail {
			g.Caps = appendGatedCaps(g.Caps, m.Vertices[v[0]], m.Vertices[v[1]], m.Vertices[v[2]], ns[i])
		}
	}
}

func buildGPUPerTriangle(in *buildInput) *Geometry {
	g := &Geometry{}
	for f := range in.mesh.Faces {
		appendGatedFace(g, in.mesh, &in.mesh.Faces[f], in.method)
	}
	return g
}

func buildGPUSilhouette(in *buildInput) *Geometry {
	g := &Geometry{}
	m := in.mesh
	for i := range in.edges.Edges {
		e := &in.edges.Edges[i]
		a, b := m.Vertices[e.P1], m.Vertices[e.P2]
		if !e.Forward {
			a, b = b, a
		}
		n1 := m.Faces[e.T1].Normal
		n2 := n1.Negate()
		if !e.Boundary() {
			n2 = m.Faces[e.T2].Normal
		}
		g.Sides = appendGatedSide(g.Sides, a, b, n1, n2)
		g.Sides = appendGatedSide(g.Sides, b, a, n2, n1)
	}
	for f := range m.Faces {
		face := &m.Faces[f]
		if face.TwoSided {
			appendGatedFace(g, m, face, in.method)
			continue
		}
		if in.method == ZFail {
			g.Caps = appendGatedCaps(g.Caps, m.Vertices[face.V[0]], m.Vertices[face.V[1]], m.Vertices[face.V[2]], face.Normal)
		}
	}
	return g
}

func buildDebugSilhouette(in *buildInput) *Geometry {
	sil := FindSilhouette(in.mesh, in.edges, in.light)
	return &Geometry{
		Outline:         outline(in.mesh, sil),
		SilhouetteEdges: len(sil),
	}
}

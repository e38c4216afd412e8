package shadow

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// SilhouetteEdge is an ordered vertex pair. The side quad extruded from
// P1 to P2 faces out of the shadow volume.
type SilhouetteEdge struct {
	P1, P2 int
}

// FindSilhouette returns the edges of adj that separate faces turned
// toward the light from faces turned away. Boundary edges are always part
// of the silhouette.
func FindSilhouette(m *Mesh, adj *Adjacency, light math3d.Vec4) []SilhouetteEdge {
	var out []SilhouetteEdge
	for i := range adj.Edges {
		e := &adj.Edges[i]
		if !e.Boundary() && m.Facing(e.T1, light)*m.Facing(e.T2, light) > 0 {
			continue
		}
		out = append(out, orientEdge(m, e, light))
	}
	return out
}

// orientEdge orders e so that the quad it extrudes winds away from the
// mesh, judged by which side of the light ray the tiebreak points.
func orientEdge(m *Mesh, e *Edge, light math3d.Vec4) SilhouetteEdge {
	p1, p2 := m.Position(e.P1), m.Position(e.P2)
	ray := ToLight(light, p1).Negate()
	if ray.Cross(p2.Sub(p1)).Dot(e.Tiebreak) > 0 {
		return SilhouetteEdge{e.P2, e.P1}
	}
	return SilhouetteEdge{e.P1, e.P2}
}

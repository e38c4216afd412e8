package shadow

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// Edge joins two mesh vertices and the faces on either side. Indices refer
// into the owning Mesh; T2 is -1 on a boundary edge.
type Edge struct {
	P1, P2 int
	T1, T2 int

	// Forward reports whether T1 traverses the edge from P1 to P2.
	Forward bool
	// Tiebreak points from the edge midpoint toward the midpoint of the
	// opposite vertices. It tells which side of the edge the mesh lies on.
	Tiebreak math3d.Vec3
}

// Boundary reports whether the edge has a single adjacent face.
func (e *Edge) Boundary() bool { return e.T2 < 0 }

// Adjacency is the edge arena of a mesh.
type Adjacency struct {
	Edges []Edge

	// OverAdjacent counts faces that found their edge already shared by
	// two others. Those faces are left out of that edge.
	OverAdjacent int
}

type edgeKey struct{ lo, hi int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BuildAdjacency connects the faces of m accepted by include through their
// shared edges. A nil include accepts every face.
func BuildAdjacency(m *Mesh, include func(f int) bool) *Adjacency {
	adj := &Adjacency{}
	lookup := make(map[edgeKey]int, 3*len(m.Faces)/2)
	opposite := make(map[int][2]int) // edge -> opposite vertex per side

	for fi, f := range m.Faces {
		if include != nil && !include(fi) {
			continue
		}
		for k := range 3 {
			a, b, c := f.V[k], f.V[(k+1)%3], f.V[(k+2)%3]
			key := keyOf(a, b)
			ei, ok := lookup[key]
			if !ok {
				lookup[key] = len(adj.Edges)
				opposite[len(adj.Edges)] = [2]int{c, -1}
				adj.Edges = append(adj.Edges, Edge{
					P1: key.lo, P2: key.hi,
					T1: fi, T2: -1,
					Forward: a == key.lo,
				})
				continue
			}
			e := &adj.Edges[ei]
			if e.T2 >= 0 {
				adj.OverAdjacent++
				continue
			}
			e.T2 = fi
			opp := opposite[ei]
			opp[1] = c
			opposite[ei] = opp
		}
	}

	for ei := range adj.Edges {
		e := &adj.Edges[ei]
		opp := opposite[ei]
		mid := m.Position(e.P1).Midpoint(m.Position(e.P2))
		far := m.Position(opp[0])
		if opp[1] >= 0 {
			far = far.Midpoint(m.Position(opp[1]))
		}
		e.Tiebreak = far.Sub(mid)
	}

	if adj.OverAdjacent > 0 {
		Logger().Warn("non-manifold edges: extra faces ignored", "faces", adj.OverAdjacent)
	}
	return adj
}

// BoundaryCount returns the number of edges with a single face.
func (a *Adjacency) BoundaryCount() int {
	n := 0
	for i := range a.Edges {
		if a.Edges[i].Boundary() {
			n++
		}
	}
	return n
}

package shadow

import (
	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/render"
)

// Geometry is the shadow volume built for one scene state.
type Geometry struct {
	Sides []VolumeVertex // triangle list
	Caps  []VolumeVertex // triangle list, z-fail only

	// Outline holds the silhouette as lines in debug mode.
	Outline *render.Lines

	// SilhouetteEdges counts edges found on the CPU. Gated modes leave the
	// decision to the draw and report zero.
	SilhouetteEdges int
}

// SideTriangles returns the number of side triangles.
func (g *Geometry) SideTriangles() int { return len(g.Sides) / 3 }

// CapTriangles returns the number of cap triangles.
func (g *Geometry) CapTriangles() int { return len(g.Caps) / 3 }

// volume draws volume vertices, resolving gated extrusion against a light.
// It plays the role of the vertex stage.
type volume struct {
	verts []VolumeVertex
	light math3d.Vec4
}

func (v *volume) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleList
}

func (v *volume) VertexCount() int { return len(v.verts) }

func (v *volume) Vertex(i int) math3d.Vec4 {
	return v.verts[i].Resolve(v.light)
}

// SilhouetteColor is the color of debug outlines.
var SilhouetteColor = render.ColorYellow

func outline(m *Mesh, edges []SilhouetteEdge) *render.Lines {
	l := render.NewLines()
	for _, e := range edges {
		l.AddSegment(m.Vertices[e.P1], m.Vertices[e.P2], SilhouetteColor)
	}
	return l
}

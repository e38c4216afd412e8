package shadow

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
)

// Triangle is one collected triangle in world space.
type Triangle struct {
	V     [3]math3d.Vec4
	Color color.RGBA

	// FrontFace is the winding that marks the front side, after the
	// configured face ordering has been applied.
	FrontFace gputypes.FrontFace
	// Cast is the side that casts shadows. It is never CastAuto.
	Cast    scene.CastFace
	Blended bool
}

// Normal returns the unit normal of the triangle in its stored order.
func (t *Triangle) Normal() math3d.Vec3 {
	a, b, c := t.V[0].Vec3(), t.V[1].Vec3(), t.V[2].Vec3()
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// Soup is the flat triangle list collected from a scene graph.
type Soup struct {
	Triangles []Triangle

	opaque  []int
	blended []int
}

// Collect walks root and flattens every geometry node into world-space
// triangles with their resolved state.
func Collect(root *scene.Node, cfg Config) *Soup {
	s := &Soup{}
	scene.Walk(root, scene.DefaultContext(), func(n *scene.Node, ctx scene.Context) bool {
		if n.Geometry == nil {
			return true
		}
		front := resolveFrontFace(cfg.FaceOrdering, ctx.FrontFace)
		cast := resolveCastFace(cfg.ShadowCastingFace, ctx)
		blended := ctx.Blended()
		for i := range n.Geometry.TriangleCount() {
			face := n.Geometry.GetFace(i)
			t := Triangle{
				Color:     ctx.Color,
				FrontFace: front,
				Cast:      cast,
				Blended:   blended,
			}
			for k, idx := range face {
				t.V[k] = ctx.World.MulVec4(math3d.Point(n.Geometry.Position(idx)))
			}
			if blended {
				s.blended = append(s.blended, len(s.Triangles))
			} else {
				s.opaque = append(s.opaque, len(s.Triangles))
			}
			s.Triangles = append(s.Triangles, t)
		}
		return true
	})
	return s
}

func resolveFrontFace(o FaceOrdering, inherited gputypes.FrontFace) gputypes.FrontFace {
	switch o {
	case OrderCCW:
		return gputypes.FrontFaceCCW
	case OrderCW:
		return gputypes.FrontFaceCW
	}
	return inherited
}

// resolveCastFace picks the casting side: the configuration wins over the
// scene, and CastAuto falls back to the side the cull mode keeps.
func resolveCastFace(configured scene.CastFace, ctx scene.Context) scene.CastFace {
	if configured != scene.CastAuto {
		return configured
	}
	if ctx.CastFace != scene.CastAuto {
		return ctx.CastFace
	}
	switch ctx.CullMode {
	case gputypes.CullModeBack:
		return scene.CastFront
	case gputypes.CullModeFront:
		return scene.CastBack
	}
	return scene.CastFrontAndBack
}

// Len returns the number of triangles.
func (s *Soup) Len() int { return len(s.Triangles) }

// Casting reports whether triangle i contributes to shadow volumes.
func (s *Soup) Casting(i int, skipTransparent bool) bool {
	return !(skipTransparent && s.Triangles[i].Blended)
}

// Opaque returns a drawable over the triangles drawn without blending.
func (s *Soup) Opaque() *SoupView { return newSoupView(s, s.opaque) }

// Blended returns a drawable over the alpha-blended triangles.
func (s *Soup) Blended() *SoupView { return newSoupView(s, s.blended) }

// SoupView draws a subset of a soup.
type SoupView struct {
	soup   *Soup
	tris   []int
	bounds render.AABB
}

func newSoupView(s *Soup, tris []int) *SoupView {
	v := &SoupView{soup: s, tris: tris}
	if len(tris) == 0 {
		return v
	}
	first := s.Triangles[tris[0]].V[0].Vec3()
	v.bounds = render.NewAABB(first, first)
	for _, ti := range tris {
		for _, p := range s.Triangles[ti].V {
			v.bounds = v.bounds.Extend(p.Vec3())
		}
	}
	return v
}

// Len returns the number of triangles in the view.
func (v *SoupView) Len() int { return len(v.tris) }

// Topology implements render.Drawable.
func (v *SoupView) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleList
}

// VertexCount implements render.Drawable.
func (v *SoupView) VertexCount() int { return 3 * len(v.tris) }

// Vertex implements render.Drawable.
func (v *SoupView) Vertex(i int) math3d.Vec4 {
	return v.soup.Triangles[v.tris[i/3]].V[i%3]
}

// PrimitiveColor implements render.Surface.
func (v *SoupView) PrimitiveColor(prim int) color.RGBA {
	return v.soup.Triangles[v.tris[prim]].Color
}

// PrimitiveNormal implements render.Surface.
func (v *SoupView) PrimitiveNormal(prim int) math3d.Vec3 {
	return v.soup.Triangles[v.tris[prim]].Normal()
}

// Bounds returns the world-space box around the view's triangles.
func (v *SoupView) Bounds() render.AABB { return v.bounds }

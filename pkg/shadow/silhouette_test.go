package shadow

import (
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/models"
	"github.com/taigrr/umbra/pkg/scene"
)

// triList is an ad hoc indexed geometry.
type triList struct {
	pos   []math3d.Vec3
	faces [][3]int
}

func (g *triList) TriangleCount() int         { return len(g.faces) }
func (g *triList) GetFace(i int) [3]int       { return g.faces[i] }
func (g *triList) Position(i int) math3d.Vec3 { return g.pos[i] }

func meshOf(g scene.Geometry, cfg Config) *Mesh {
	root := scene.NewGeometryNode("mesh", g, color.RGBA{200, 200, 200, 255})
	return BuildMesh(Collect(root, cfg), cfg.SkipTransparent)
}

func unitBox() *models.Mesh {
	return models.NewBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
}

func TestBuildMeshSharesVertices(t *testing.T) {
	m := meshOf(unitBox(), DefaultConfig())
	if len(m.Vertices) != 8 || len(m.Faces) != 12 {
		t.Fatalf("box mesh = %d vertices, %d faces, want 8, 12", len(m.Vertices), len(m.Faces))
	}
	for i, v := range m.Vertices {
		if v.W != 1 {
			t.Errorf("vertex %d W = %v, want 1", i, v.W)
		}
		if m.VertexNormals[i].Dot(v.Vec3()) <= 0 {
			t.Errorf("vertex normal %d = %+v points into the box", i, m.VertexNormals[i])
		}
	}
	for i, f := range m.Faces {
		c := m.Position(f.V[0]).Add(m.Position(f.V[1])).Add(m.Position(f.V[2]))
		if f.Normal.Dot(c) <= 0 {
			t.Errorf("face %d normal %+v points into the box", i, f.Normal)
		}
	}
}

func TestBuildMeshDropsDegenerateFaces(t *testing.T) {
	g := &triList{
		pos:   []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 1, 0)},
		faces: [][3]int{{0, 1, 2}, {0, 1, 3}},
	}
	m := meshOf(g, DefaultConfig())
	if len(m.Faces) != 1 || m.Degenerate != 1 {
		t.Errorf("faces = %d, degenerate = %d, want 1, 1", len(m.Faces), m.Degenerate)
	}
}

func TestCastingSideFlipsWinding(t *testing.T) {
	cw := gputypes.FrontFaceCW
	tests := []struct {
		name  string
		state *scene.StateSet
		cfg   func(*Config)
		wantY float64
	}{
		{"front", nil, nil, 1},
		{"back", &scene.StateSet{CastFace: scene.CastBack}, nil, -1},
		{"clockwise", &scene.StateSet{FrontFace: &cw}, nil, -1},
		{"clockwise back", &scene.StateSet{FrontFace: &cw, CastFace: scene.CastBack}, nil, 1},
		{"forced ccw", &scene.StateSet{FrontFace: &cw}, func(c *Config) { c.FaceOrdering = OrderCCW }, 1},
		{"forced back", nil, func(c *Config) { c.ShadowCastingFace = scene.CastBack }, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			root := scene.NewGeometryNode("plane", models.NewPlane(1, 0), color.RGBA{})
			root.State = tt.state
			m := BuildMesh(Collect(root, cfg), cfg.SkipTransparent)
			for i, f := range m.Faces {
				if math.Abs(f.Normal.Y-tt.wantY) > 1e-12 {
					t.Errorf("face %d normal = %+v, want Y %v", i, f.Normal, tt.wantY)
				}
			}
		})
	}
}

func TestResolveCastFace(t *testing.T) {
	tests := []struct {
		name       string
		configured scene.CastFace
		inherited  scene.CastFace
		cull       gputypes.CullMode
		want       scene.CastFace
	}{
		{"cull back", scene.CastAuto, scene.CastAuto, gputypes.CullModeBack, scene.CastFront},
		{"cull front", scene.CastAuto, scene.CastAuto, gputypes.CullModeFront, scene.CastBack},
		{"no culling", scene.CastAuto, scene.CastAuto, gputypes.CullModeNone, scene.CastFrontAndBack},
		{"scene override", scene.CastAuto, scene.CastBack, gputypes.CullModeBack, scene.CastBack},
		{"config override", scene.CastFrontAndBack, scene.CastBack, gputypes.CullModeBack, scene.CastFrontAndBack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := scene.DefaultContext()
			ctx.CastFace = tt.inherited
			ctx.CullMode = tt.cull
			if got := resolveCastFace(tt.configured, ctx); got != tt.want {
				t.Errorf("resolveCastFace = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	blend := gputypes.BlendStateAlpha()
	root := scene.NewNode("root")
	root.Transform = math3d.Translate(math3d.V3(0, 5, 0))
	root.AddChild(scene.NewGeometryNode("box", unitBox(), color.RGBA{255, 0, 0, 255}))
	glass := root.AddChild(scene.NewGeometryNode("glass", models.NewPlane(1, 0), color.RGBA{0, 0, 255, 128}))
	glass.State = &scene.StateSet{Blend: &blend}

	s := Collect(root, DefaultConfig())
	if s.Len() != 14 || s.Opaque().Len() != 12 || s.Blended().Len() != 2 {
		t.Fatalf("soup = %d (%d opaque, %d blended), want 14 (12, 2)", s.Len(), s.Opaque().Len(), s.Blended().Len())
	}
	b := s.Opaque().Bounds()
	if !b.Min.ApproxEqual(math3d.V3(-1, 4, -1), 1e-12) || !b.Max.ApproxEqual(math3d.V3(1, 6, 1), 1e-12) {
		t.Errorf("opaque bounds = %+v", b)
	}
	if c := s.Blended().PrimitiveColor(0); c != (color.RGBA{0, 0, 255, 128}) {
		t.Errorf("blended color = %v", c)
	}

	cfg := DefaultConfig()
	if m := BuildMesh(s, cfg.SkipTransparent); len(m.Faces) != 12 {
		t.Errorf("with SkipTransparent, %d casting faces, want 12", len(m.Faces))
	}
	if m := BuildMesh(s, false); len(m.Faces) != 14 {
		t.Errorf("without SkipTransparent, %d casting faces, want 14", len(m.Faces))
	}
}

func TestAdjacency(t *testing.T) {
	tests := []struct {
		name     string
		geom     scene.Geometry
		edges    int
		boundary int
	}{
		{"box", unitBox(), 18, 0},
		{"tetrahedron", models.NewTetrahedron(), 6, 0},
		{"plane", models.NewPlane(1, 0), 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := meshOf(tt.geom, DefaultConfig())
			adj := BuildAdjacency(m, nil)
			if len(adj.Edges) != tt.edges || adj.BoundaryCount() != tt.boundary {
				t.Errorf("edges = %d (%d boundary), want %d (%d)", len(adj.Edges), adj.BoundaryCount(), tt.edges, tt.boundary)
			}
			if adj.OverAdjacent != 0 {
				t.Errorf("OverAdjacent = %d, want 0", adj.OverAdjacent)
			}
			for i, e := range adj.Edges {
				f := m.Faces[e.T1].V
				forward := false
				for k := range 3 {
					if f[k] == e.P1 && f[(k+1)%3] == e.P2 {
						forward = true
					}
				}
				if forward != e.Forward {
					t.Errorf("edge %d Forward = %v, want %v", i, e.Forward, forward)
				}
			}
		})
	}
}

func TestAdjacencyOverAdjacent(t *testing.T) {
	g := &triList{
		pos: []math3d.Vec3{
			math3d.V3(0, 0, 0), math3d.V3(1, 0, 0),
			math3d.V3(0, 1, 0), math3d.V3(0, -1, 0), math3d.V3(0, 0, 1),
		},
		faces: [][3]int{{0, 1, 2}, {1, 0, 3}, {0, 1, 4}},
	}
	adj := BuildAdjacency(meshOf(g, DefaultConfig()), nil)
	if adj.OverAdjacent != 1 {
		t.Errorf("OverAdjacent = %d, want 1", adj.OverAdjacent)
	}
	if len(adj.Edges) != 7 {
		t.Errorf("edges = %d, want 7", len(adj.Edges))
	}
}

func TestFindSilhouette(t *testing.T) {
	tests := []struct {
		name  string
		geom  scene.Geometry
		light math3d.Vec4
		want  int
		onto  func(p math3d.Vec3) bool
	}{
		{"box under point light", unitBox(), math3d.V4(0, 10, 0, 1), 4, func(p math3d.Vec3) bool { return p.Y == 1 }},
		{"tetrahedron lit from +Z", models.NewTetrahedron(), math3d.V4(0, 0, 1, 0), 3, func(p math3d.Vec3) bool { return p.Z == 0 }},
		{"tetrahedron lit from -Z", models.NewTetrahedron(), math3d.V4(0, 0, -1, 0), 3, func(p math3d.Vec3) bool { return p.Z == 0 }},
		{"plane keeps its boundary", models.NewPlane(1, 0), math3d.V4(0, 5, 0, 1), 4, func(p math3d.Vec3) bool { return p.Y == 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := meshOf(tt.geom, DefaultConfig())
			sil := FindSilhouette(m, BuildAdjacency(m, nil), tt.light)
			if len(sil) != tt.want {
				t.Fatalf("silhouette edges = %d, want %d", len(sil), tt.want)
			}
			for _, e := range sil {
				if !tt.onto(m.Position(e.P1)) || !tt.onto(m.Position(e.P2)) {
					t.Errorf("unexpected silhouette edge %+v-%+v", m.Position(e.P1), m.Position(e.P2))
				}
			}
		})
	}
}

func TestBoxSilhouetteIsOneLoop(t *testing.T) {
	m := meshOf(unitBox(), DefaultConfig())
	adj := BuildAdjacency(m, nil)
	for _, light := range []math3d.Vec4{
		math3d.V4(3, 6, -2, 1),
		math3d.V4(-4, 0.5, 5, 1),
		math3d.V4(1, 2, 3, 0),
	} {
		sil := FindSilhouette(m, adj, light)
		next := map[int]int{}
		incident := map[int]int{}
		for _, e := range sil {
			if _, dup := next[e.P1]; dup {
				t.Fatalf("light %+v: vertex %d starts two edges", light, e.P1)
			}
			next[e.P1] = e.P2
			incident[e.P1]++
			incident[e.P2]++
		}
		for v, n := range incident {
			if n != 2 {
				t.Errorf("light %+v: vertex %d has %d silhouette edges, want 2", light, v, n)
			}
		}
		// Follow the directed edges from any vertex; a single loop
		// returns to it after visiting every edge.
		start := sil[0].P1
		v, steps := start, 0
		for {
			v = next[v]
			steps++
			if v == start || steps > len(sil) {
				break
			}
		}
		if v != start || steps != len(sil) {
			t.Errorf("light %+v: loop of %d steps over %d edges", light, steps, len(sil))
		}
	}
}

// TestSideQuadsFaceOutward checks that every extruded side triangle of a
// convex caster winds away from the caster's center.
func TestSideQuadsFaceOutward(t *testing.T) {
	tests := []struct {
		name   string
		geom   scene.Geometry
		center math3d.Vec3
		light  math3d.Vec4
	}{
		{"box", unitBox(), math3d.Zero3(), math3d.V4(0, 10, 0, 1)},
		{"box oblique", unitBox(), math3d.Zero3(), math3d.V4(3, 6, -2, 1)},
		{"tetrahedron", models.NewTetrahedron(), math3d.V3(0, 0, -0.25), math3d.V4(0, 0, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := meshOf(tt.geom, DefaultConfig())
			g := buildCPUSilhouette(&buildInput{mesh: m, edges: BuildAdjacency(m, nil), light: tt.light})
			if len(g.Sides) == 0 {
				t.Fatal("no side geometry")
			}
			// Far vertices are directions; offsetting the near vertex
			// by them gives a finite stand-in.
			point := func(v VolumeVertex, near math3d.Vec4) math3d.Vec3 {
				if v.Pos.W == 0 {
					return near.Vec3().Add(v.Pos.Vec3())
				}
				return v.Pos.Vec3()
			}
			for i := 0; i < len(g.Sides); i += 6 {
				a, b := g.Sides[i].Pos, g.Sides[i+5].Pos
				p0 := a.Vec3()
				p1 := point(g.Sides[i+1], a)
				p2 := point(g.Sides[i+2], b)
				n := p1.Sub(p0).Cross(p2.Sub(p0))
				mid := a.Vec3().Midpoint(b.Vec3())
				if n.Dot(mid.Sub(tt.center)) <= 0 {
					t.Errorf("quad %d normal %+v faces into the caster", i/6, n)
				}
			}
		})
	}
}

func TestInfinity(t *testing.T) {
	p := math3d.V4(1, 2, 3, 1)
	tests := []struct {
		name  string
		light math3d.Vec4
		want  math3d.Vec3
	}{
		{"point", math3d.V4(0, 10, 0, 1), math3d.V3(1, -8, 3)},
		{"directional", math3d.V4(0, 1, 0, 0), math3d.V3(0, -1, 0)},
		{"weighted point", math3d.V4(0, 20, 0, 2), math3d.V3(2, -16, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infinity(p, tt.light)
			if got.W != 0 {
				t.Errorf("W = %v, want 0", got.W)
			}
			if !got.Vec3().ApproxEqual(tt.want, 1e-12) {
				t.Errorf("Infinity = %+v, want %+v", got.Vec3(), tt.want)
			}
		})
	}
}

func TestResolveGate(t *testing.T) {
	above := math3d.V4(0, 10, 0, 1)
	below := math3d.V4(0, -10, 0, 1)
	up := math3d.V3(0, 1, 0)
	p := math3d.V4(1, 0, 0, 1)

	tests := []struct {
		name    string
		v       VolumeVertex
		light   math3d.Vec4
		extrude bool
	}{
		{"fixed", VolumeVertex{Pos: p, Lit: up}, above, false},
		{"ungated", VolumeVertex{Pos: p, Extrude: true}, below, true},
		{"lit", VolumeVertex{Pos: p, Extrude: true, Lit: up}, above, true},
		{"unlit", VolumeVertex{Pos: p, Extrude: true, Lit: up}, below, false},
		{"dark side lit too", VolumeVertex{Pos: p, Extrude: true, Lit: up, Dark: up}, above, false},
		{"dark side away", VolumeVertex{Pos: p, Extrude: true, Lit: up, Dark: up.Negate()}, above, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Resolve(tt.light)
			if extruded := got.W == 0; extruded != tt.extrude {
				t.Errorf("Resolve = %+v, extruded %v, want %v", got, extruded, tt.extrude)
			}
		})
	}
}

func BenchmarkFindSilhouette(b *testing.B) {
	m := meshOf(unitBox(), DefaultConfig())
	adj := BuildAdjacency(m, nil)
	light := math3d.V4(3, 6, -2, 1)
	for b.Loop() {
		FindSilhouette(m, adj, light)
	}
}

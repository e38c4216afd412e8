package shadow

import (
	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
)

// Render queue bins used by the controller, in execution order.
const (
	BinAmbient     = 1 // stencil clear, then ambient or depth-only pass
	BinVolumeFront = 2
	BinVolumeBack  = 3
	BinLight       = 4
	BinDebug       = 5
	BinBlended     = 6
)

// Light is a homogeneous light position. W=0 makes it directional, shining
// along -XYZ.
type Light struct {
	Position  math3d.Vec4
	Intensity float64
}

// defaultLight shades the scene when no light is given.
var defaultLight = Light{Position: math3d.V4(0, 1, 0, 0), Intensity: 0.7}

// Stats describes the geometry of the last rebuild.
type Stats struct {
	Triangles       int // collected
	CastingFaces    int
	Vertices        int // shared casting vertices
	Edges           int
	BoundaryEdges   int
	OverAdjacent    int
	SilhouetteEdges int
	SideTriangles   int
	CapTriangles    int
	Rebuilds        int
}

type cache struct {
	generation uint64 // generation the geometry was built for
	light      math3d.Vec4
	soup       *Soup
	geometry   *Geometry
}

// Controller turns a scene and a light into shadowed draws.
type Controller struct {
	cfg        Config
	strategy   strategy
	generation uint64
	cache      cache
	stats      Stats

	dev      render.Device
	twoSided bool
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{}
	c.SetConfig(cfg)
	return c
}

// Config returns the current configuration.
func (c *Controller) Config() Config { return c.cfg }

// SetConfig replaces the configuration and invalidates cached geometry.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg
	c.strategy = resolveStrategy(cfg.Mode)
	c.dev = nil
	c.generation++
	Logger().Debug("resolved shadow strategy",
		"mode", c.strategy.mode,
		"method", cfg.Method,
		"update", cfg.UpdateStrategy,
		"light_dependent", c.strategy.lightDependent)
}

// MarkDirty forces a rebuild on the next Process call.
func (c *Controller) MarkDirty() { c.generation++ }

// Geometry returns the cached shadow geometry, or nil before the first
// rebuild.
func (c *Controller) Geometry() *Geometry { return c.cache.geometry }

// Stats returns statistics of the last rebuild.
func (c *Controller) Stats() Stats { return c.stats }

// Process records one frame of draws for root into q. A nil light renders
// the scene once, unshadowed, with a default light.
func (c *Controller) Process(q *render.Queue, root *scene.Node, light *Light) {
	if light == nil {
		soup := Collect(root, c.cfg)
		lit := render.Lighting{Light: defaultLight.Position, Ambient: c.cfg.Ambient, Diffuse: defaultLight.Intensity}
		q.Submit(BinAmbient, soup.Opaque(), sceneState(&lit))
		c.submitBlended(q, soup, &lit)
		return
	}

	if c.stale(light) {
		c.rebuild(root, light)
	}
	soup, geo := c.cache.soup, c.cache.geometry

	if c.cfg.ClearStencil {
		q.ClearStencil(BinAmbient, 0)
	}
	if c.cfg.AmbientPass {
		lit := render.Lighting{Light: light.Position, Ambient: c.cfg.Ambient}
		q.Submit(BinAmbient, soup.Opaque(), sceneState(&lit))
	} else {
		s := sceneState(nil)
		s.Color.WriteMask = gputypes.ColorWriteMaskNone
		q.Submit(BinAmbient, soup.Opaque(), s)
	}

	if c.strategy.drawVolumes {
		c.submitVolumes(q, geo, light.Position)
	}

	lit := render.Lighting{Light: light.Position, Diffuse: light.Intensity}
	s := sceneState(&lit)
	s.DepthStencil.DepthWriteEnabled = false
	s.DepthStencil.DepthCompare = gputypes.CompareFunctionLessEqual
	s.DepthStencil.StencilFront = stencilFace(gputypes.CompareFunctionEqual, keep, keep)
	s.DepthStencil.StencilBack = s.DepthStencil.StencilFront
	s.StencilReference = 0
	s.Color.Blend = &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	q.Submit(BinLight, soup.Opaque(), s)

	if geo.Outline != nil && geo.Outline.Len() > 0 {
		ds := sceneState(nil)
		ds.Primitive.Topology = gputypes.PrimitiveTopologyLineList
		q.Submit(BinDebug, geo.Outline, ds)
	}

	full := render.Lighting{Light: light.Position, Ambient: c.cfg.Ambient, Diffuse: light.Intensity}
	c.submitBlended(q, soup, &full)
}

// stale reports whether the cached geometry must be rebuilt for light.
func (c *Controller) stale(light *Light) bool {
	switch {
	case c.cache.geometry == nil:
		return true
	case c.cfg.UpdateStrategy == EachFrame:
		return true
	case c.cache.generation != c.generation:
		return true
	}
	return c.strategy.lightDependent && c.cache.light != light.Position
}

func (c *Controller) rebuild(root *scene.Node, light *Light) {
	soup := Collect(root, c.cfg)
	mesh := BuildMesh(soup, c.cfg.SkipTransparent)
	in := &buildInput{mesh: mesh, light: light.Position, method: c.cfg.Method}
	if c.strategy.edges {
		var include func(int) bool
		if c.strategy.edgeFilter != nil {
			include = c.strategy.edgeFilter(mesh)
		}
		in.edges = BuildAdjacency(mesh, include)
	}
	geo := c.strategy.build(in)

	c.cache = cache{
		generation: c.generation,
		light:      light.Position,
		soup:       soup,
		geometry:   geo,
	}
	c.stats = Stats{
		Triangles:       soup.Len(),
		CastingFaces:    len(mesh.Faces),
		Vertices:        len(mesh.Vertices),
		SilhouetteEdges: geo.SilhouetteEdges,
		SideTriangles:   geo.SideTriangles(),
		CapTriangles:    geo.CapTriangles(),
		Rebuilds:        c.stats.Rebuilds + 1,
	}
	if in.edges != nil {
		c.stats.Edges = len(in.edges.Edges)
		c.stats.BoundaryEdges = in.edges.BoundaryCount()
		c.stats.OverAdjacent = in.edges.OverAdjacent
	}
	Logger().Debug("rebuilt shadow geometry",
		"mode", c.strategy.mode,
		"triangles", c.stats.Triangles,
		"edges", c.stats.Edges,
		"silhouette", c.stats.SilhouetteEdges,
		"sides", c.stats.SideTriangles,
		"caps", c.stats.CapTriangles)
}

var (
	keep = gputypes.StencilOperationKeep
	incr = gputypes.StencilOperationIncrementWrap
	decr = gputypes.StencilOperationDecrementWrap
)

func stencilFace(cmp gputypes.CompareFunction, depthFail, pass gputypes.StencilOperation) gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     cmp,
		FailOp:      keep,
		DepthFailOp: depthFail,
		PassOp:      pass,
	}
}

// volumeOps returns the stencil operations for front and back volume faces.
func volumeOps(m Method) (front, back gputypes.StencilFaceState) {
	always := gputypes.CompareFunctionAlways
	if m == ZFail {
		return stencilFace(always, decr, keep), stencilFace(always, incr, keep)
	}
	return stencilFace(always, keep, incr), stencilFace(always, keep, decr)
}

// sceneState is the state of passes that draw the collected scene. Culling
// is off because the soup mixes windings.
func sceneState(lit *render.Lighting) render.StateBlock {
	s := render.NewStateBlock()
	s.DepthStencil.DepthCompare = gputypes.CompareFunctionLess
	s.Lighting = lit
	return s
}

func (c *Controller) submitVolumes(q *render.Queue, geo *Geometry, light math3d.Vec4) {
	dev := q.Device()
	if dev != c.dev {
		c.dev = dev
		c.twoSided = twoSided(c.cfg.StencilImplementation, capabilities(dev))
		Logger().Debug("selected stencil path",
			"implementation", c.cfg.StencilImplementation,
			"two_sided", c.twoSided)
	}

	draws := []render.Drawable{&volume{verts: geo.Sides, light: light}}
	if len(geo.Caps) > 0 {
		draws = append(draws, &volume{verts: geo.Caps, light: light})
	}

	base := render.NewStateBlock()
	base.DepthStencil.DepthWriteEnabled = false
	base.DepthStencil.DepthCompare = gputypes.CompareFunctionLess
	base.Color.WriteMask = gputypes.ColorWriteMaskNone
	front, back := volumeOps(c.cfg.Method)

	if c.twoSided {
		s := base
		s.DepthStencil.StencilFront = front
		s.DepthStencil.StencilBack = back
		for _, d := range draws {
			q.Submit(BinVolumeFront, d, s)
		}
		return
	}

	// One-sided stencil applies the same ops to both faces, so front and
	// back faces are drawn in separate culled passes.
	fs := base
	fs.Primitive.CullMode = gputypes.CullModeBack
	fs.DepthStencil.StencilFront = front
	fs.DepthStencil.StencilBack = front
	bs := base
	bs.Primitive.CullMode = gputypes.CullModeFront
	bs.DepthStencil.StencilFront = back
	bs.DepthStencil.StencilBack = back
	for _, d := range draws {
		q.Submit(BinVolumeFront, d, fs)
		q.Submit(BinVolumeBack, d, bs)
	}
}

func (c *Controller) submitBlended(q *render.Queue, soup *Soup, lit *render.Lighting) {
	view := soup.Blended()
	if view.Len() == 0 {
		return
	}
	s := sceneState(lit)
	s.DepthStencil.DepthWriteEnabled = false
	blend := gputypes.BlendStateAlpha()
	s.Color.Blend = &blend
	q.Submit(BinBlended, view, s)
}

package shadow

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/models"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
)

var overhead = Light{Position: math3d.V4(0, 10, 0, 1), Intensity: 0.7}

// groundAndBox is a floating box above a ground plane.
func groundAndBox() *scene.Node {
	root := scene.NewNode("root")
	root.AddChild(scene.NewGeometryNode("ground", models.NewPlane(5, 0), render.ColorGray))
	root.AddChild(scene.NewGeometryNode("box",
		models.NewBox(math3d.V3(-1, 1, -1), math3d.V3(1, 3, 1)), render.ColorWhite))
	return root
}

// renderStencil draws one frame of groundAndBox and returns the rasterizer.
func renderStencil(t *testing.T, cfg Config, oneSided bool) *render.Rasterizer {
	t.Helper()
	const w, h = 160, 120
	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0, 8, 8))
	cam.SetAspectRatio(float64(w) / float64(h))
	cam.SetInfiniteFar(true)
	cam.LookAt(math3d.Zero3())

	r := render.NewRasterizer(cam, render.NewFramebuffer(w, h))
	r.OneSidedStencil = oneSided
	r.BeginFrame(render.ColorBlack)

	q := render.NewQueue(r)
	NewController(cfg).Process(q, groundAndBox(), &overhead)
	q.Execute()
	return r
}

func pixelOf(t *testing.T, r *render.Rasterizer, p math3d.Vec3) (int, int) {
	t.Helper()
	x, y, _, ok := r.Camera().WorldToScreen(p, r.Width(), r.Height())
	if !ok {
		t.Fatalf("%+v is off screen", p)
	}
	return int(x), int(y)
}

func TestStencilOneSidedMatchesTwoSided(t *testing.T) {
	shaded := math3d.V3(0.6, 0, 0.3) // on the ground under the box
	open := math3d.V3(3, 0, -2)

	for _, mode := range modes {
		for _, method := range methods {
			t.Run(fmt.Sprintf("%s/%s", mode, method), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Mode = mode
				cfg.Method = method

				two := renderStencil(t, cfg, false)
				one := renderStencil(t, cfg, true)
				if !slices.Equal(two.StencilBuffer(), one.StencilBuffer()) {
					t.Fatal("one-sided and two-sided stencil buffers differ")
				}

				x, y := pixelOf(t, two, open)
				if s := two.Stencil(x, y); s != 0 {
					t.Errorf("lit ground stencil = %d, want 0", s)
				}
				x, y = pixelOf(t, two, shaded)
				s := two.Stencil(x, y)
				if mode == ModeDebugSilhouette {
					if s != 0 {
						t.Errorf("debug mode stencil = %d, want 0", s)
					}
					return
				}
				if s == 0 {
					t.Error("shadowed ground stencil = 0, want non-zero")
				}
				dark := two.Framebuffer().GetPixel(x, y)
				lit := two.Framebuffer().GetPixel(pixelOf(t, two, open))
				if lit.R <= dark.R {
					t.Errorf("lit ground %v is not brighter than shadowed ground %v", lit, dark)
				}
			})
		}
	}
}

func TestProcessBins(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func(*Config)
		oneSided bool
		want     []int
	}{
		{"two-sided zfail", nil, false,
			[]int{BinAmbient, BinAmbient, BinVolumeFront, BinVolumeFront, BinLight}},
		{"one-sided zfail", nil, true,
			[]int{BinAmbient, BinAmbient, BinVolumeFront, BinVolumeFront, BinVolumeBack, BinVolumeBack, BinLight}},
		{"two-sided zpass", func(c *Config) { c.Method = ZPass }, false,
			[]int{BinAmbient, BinAmbient, BinVolumeFront, BinLight}},
		{"forced one-sided", func(c *Config) { c.StencilImplementation = StencilOneSided }, false,
			[]int{BinAmbient, BinAmbient, BinVolumeFront, BinVolumeFront, BinVolumeBack, BinVolumeBack, BinLight}},
		{"no clear", func(c *Config) { c.ClearStencil = false; c.Method = ZPass }, false,
			[]int{BinAmbient, BinVolumeFront, BinLight}},
		{"debug", func(c *Config) { c.Mode = ModeDebugSilhouette }, false,
			[]int{BinAmbient, BinAmbient, BinLight, BinDebug}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			r := render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(8, 8))
			r.OneSidedStencil = tt.oneSided
			q := render.NewQueue(r)
			NewController(cfg).Process(q, groundAndBox(), &overhead)
			if got := q.Priorities(); !slices.Equal(got, tt.want) {
				t.Errorf("bins = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessWithoutLight(t *testing.T) {
	root := groundAndBox()
	blend := render.ColorBlue
	blend.A = 128
	glass := root.AddChild(scene.NewGeometryNode("glass", models.NewPlane(1, 4), blend))
	b := gputypes.BlendStateAlpha()
	glass.State = &scene.StateSet{Blend: &b}

	r := render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(8, 8))
	q := render.NewQueue(r)
	c := NewController(DefaultConfig())
	c.Process(q, root, nil)
	if got, want := q.Priorities(), []int{BinAmbient, BinBlended}; !slices.Equal(got, want) {
		t.Errorf("bins = %v, want %v", got, want)
	}
	if c.Geometry() != nil {
		t.Error("no geometry should be built without a light")
	}
}

func TestGeometryCaching(t *testing.T) {
	moved := Light{Position: math3d.V4(2, 10, 0, 1), Intensity: 0.7}
	tests := []struct {
		name       string
		mode       Mode
		update     UpdateStrategy
		sameLight  bool
		movedLight bool
	}{
		{"each frame", ModeCPUSilhouette, EachFrame, false, false},
		{"manual cpu", ModeCPUSilhouette, ManualInvalidate, true, false},
		{"manual gpu", ModeGPUSilhouette, ManualInvalidate, true, true},
		{"manual gpu per triangle", ModeGPUPerTriangle, ManualInvalidate, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			cfg.UpdateStrategy = tt.update
			c := NewController(cfg)
			root := groundAndBox()
			q := render.NewQueue(render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(4, 4)))

			c.Process(q, root, &overhead)
			first := c.Geometry()
			c.Process(q, root, &overhead)
			if got := c.Geometry() == first; got != tt.sameLight {
				t.Errorf("same light reused geometry = %v, want %v", got, tt.sameLight)
			}
			first = c.Geometry()
			c.Process(q, root, &moved)
			if got := c.Geometry() == first; got != tt.movedLight {
				t.Errorf("moved light reused geometry = %v, want %v", got, tt.movedLight)
			}

			first = c.Geometry()
			c.MarkDirty()
			c.Process(q, root, &moved)
			if c.Geometry() == first {
				t.Error("MarkDirty did not force a rebuild")
			}
			first = c.Geometry()
			c.SetConfig(cfg)
			c.Process(q, root, &moved)
			if c.Geometry() == first {
				t.Error("SetConfig did not force a rebuild")
			}
		})
	}
}

func TestStats(t *testing.T) {
	c := NewController(DefaultConfig())
	q := render.NewQueue(render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(4, 4)))
	c.Process(q, groundAndBox(), &overhead)

	want := Stats{
		Triangles:       14,
		CastingFaces:    14,
		Vertices:        12,
		Edges:           23,
		BoundaryEdges:   4,
		SilhouetteEdges: 8, // box top rim and ground border
		SideTriangles:   16,
		CapTriangles:    8, // box top and ground, near and far
		Rebuilds:        1,
	}
	if got := c.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

type countingDevice struct {
	probes int
}

func (d *countingDevice) Capabilities() render.Capabilities {
	d.probes++
	return render.Capabilities{TwoSidedStencil: true, StencilBits: 8}
}
func (d *countingDevice) ClearStencil(uint32)                     {}
func (d *countingDevice) Draw(render.Drawable, render.StateBlock) {}

func TestCapabilitiesProbedOnce(t *testing.T) {
	dev := &countingDevice{}
	for range 3 {
		if !capabilities(dev).TwoSidedStencil {
			t.Fatal("two-sided stencil not reported")
		}
	}
	if dev.probes != 1 {
		t.Errorf("probes = %d, want 1", dev.probes)
	}

	tests := []struct {
		impl StencilImplementation
		caps bool
		want bool
	}{
		{StencilAuto, true, true},
		{StencilAuto, false, false},
		{StencilOneSided, true, false},
		{StencilTwoSided, true, true},
		{StencilTwoSided, false, false},
	}
	for _, tt := range tests {
		if got := twoSided(tt.impl, render.Capabilities{TwoSidedStencil: tt.caps}); got != tt.want {
			t.Errorf("twoSided(%v, %v) = %v, want %v", tt.impl, tt.caps, got, tt.want)
		}
	}
}

func TestLoggerReportsRebuilds(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	q := render.NewQueue(render.NewRasterizer(render.NewCamera(), render.NewFramebuffer(4, 4)))
	NewController(DefaultConfig()).Process(q, groundAndBox(), &overhead)
	if !strings.Contains(buf.String(), "rebuilt shadow geometry") {
		t.Errorf("log output missing rebuild record:\n%s", buf.String())
	}
	if !Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("configured logger should be enabled")
	}
}

func TestNopLogger(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should discard everything")
	}
}

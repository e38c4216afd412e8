package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
	"github.com/taigrr/umbra/pkg/shadow"
)

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with harmonica spring for smooth velocity decay
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Orbit places the camera on a sphere around the scene.
type Orbit struct {
	Pitch, Yaw RotationAxis
	Distance   float64
	Target     math3d.Vec3
}

// NewOrbit creates an orbit looking down at the origin.
func NewOrbit(fps int) *Orbit {
	o := &Orbit{
		Pitch:    NewRotationAxis(fps),
		Yaw:      NewRotationAxis(fps),
		Distance: 11,
	}
	o.Pitch.Position = 0.6
	return o
}

// ApplyImpulse adds rotational velocity.
func (o *Orbit) ApplyImpulse(pitch, yaw float64) {
	o.Pitch.Velocity += pitch
	o.Yaw.Velocity += yaw
}

func (o *Orbit) zoom(delta float64) {
	o.Distance = math.Min(30, math.Max(3, o.Distance+delta))
}

// Update advances the springs and keeps the camera above the ground.
func (o *Orbit) Update() {
	o.Pitch.Update()
	o.Yaw.Update()
	o.Pitch.Position = math.Min(1.5, math.Max(0.05, o.Pitch.Position))
}

// Position returns the camera position.
func (o *Orbit) Position() math3d.Vec3 {
	cp := math.Cos(o.Pitch.Position)
	return o.Target.Add(math3d.V3(
		math.Sin(o.Yaw.Position)*cp,
		math.Sin(o.Pitch.Position),
		math.Cos(o.Yaw.Position)*cp,
	).Scale(o.Distance))
}

// LightRig swings the light around the scene on a spring so that every
// step produces a smooth sweep of shadows.
type LightRig struct {
	Angle, Height float64
	Radius        float64
	Directional   bool
	Intensity     float64

	target   float64
	velocity float64
	spring   harmonica.Spring
}

// NewLightRig creates a light above and to the side of the origin.
func NewLightRig(fps int) *LightRig {
	return &LightRig{
		Angle:     0.8,
		target:    0.8,
		Height:    7,
		Radius:    4,
		Intensity: 0.7,
		spring:    harmonica.NewSpring(harmonica.FPS(fps), 3.0, 0.8),
	}
}

func (l *LightRig) swing(delta float64) { l.target += delta }

func (l *LightRig) raise(delta float64) {
	l.Height = math.Min(15, math.Max(2, l.Height+delta))
}

// Update moves the light toward its target angle.
func (l *LightRig) Update() {
	l.Angle, l.velocity = l.spring.Update(l.Angle, l.velocity, l.target)
}

// Light returns the homogeneous light for the current rig state.
func (l *LightRig) Light() shadow.Light {
	p := math3d.V3(math.Sin(l.Angle)*l.Radius, l.Height, math.Cos(l.Angle)*l.Radius)
	if l.Directional {
		return shadow.Light{Position: math3d.Direction(p.Normalize()), Intensity: l.Intensity}
	}
	return shadow.Light{Position: math3d.Point(p), Intensity: l.Intensity}
}

// viewer owns the render pipeline for one framebuffer.
type viewer struct {
	controller *shadow.Controller
	root       *scene.Node
	camera     *render.Camera
	rasterizer *render.Rasterizer
	queue      *render.Queue
	bg         render.Color

	orbit    *Orbit
	light    *LightRig
	showGrid bool
}

func newViewer(cfg shadow.Config, root *scene.Node, width, height int, bg render.Color) *viewer {
	camera := render.NewCamera()
	camera.SetFOV(math.Pi / 3)
	camera.SetClipPlanes(0.1, 100)
	camera.SetInfiniteFar(true)

	v := &viewer{
		controller: shadow.NewController(cfg),
		root:       root,
		camera:     camera,
		bg:         bg,
		orbit:      NewOrbit(*targetFPS),
		light:      NewLightRig(*targetFPS),
	}
	v.resize(width, height)
	v.update()
	return v
}

func (v *viewer) resize(width, height int) {
	v.camera.SetAspectRatio(float64(width) / float64(height))
	v.rasterizer = render.NewRasterizer(v.camera, render.NewFramebuffer(width, height))
	v.queue = render.NewQueue(v.rasterizer)
}

// update advances the camera and light springs.
func (v *viewer) update() {
	v.orbit.Update()
	v.light.Update()
	v.camera.SetPosition(v.orbit.Position())
	v.camera.LookAt(v.orbit.Target)
}

// frame renders the scene, then the light marker and grid on top.
func (v *viewer) frame() {
	v.rasterizer.BeginFrame(v.bg)
	light := v.light.Light()
	v.controller.Process(v.queue, v.root, &light)

	overlay := render.NewLines()
	if light.Position.W != 0 {
		overlay.AddCross(light.Position.Vec3(), 0.6, render.ColorYellow)
	}
	if v.showGrid {
		overlay.AddGrid(12, 1, 0.01, render.RGB(70, 70, 80))
	}
	if overlay.Len() > 0 {
		s := render.NewStateBlock()
		s.Primitive.Topology = gputypes.PrimitiveTopologyLineList
		v.queue.Submit(shadow.BinDebug, overlay, s)
	}
	v.queue.Execute()
}

func (v *viewer) cycleMode() {
	cfg := v.controller.Config()
	cfg.Mode = (cfg.Mode + 1) % (shadow.ModeDebugSilhouette + 1)
	v.controller.SetConfig(cfg)
}

func (v *viewer) toggleMethod() {
	cfg := v.controller.Config()
	if cfg.Method == shadow.ZFail {
		cfg.Method = shadow.ZPass
	} else {
		cfg.Method = shadow.ZFail
	}
	v.controller.SetConfig(cfg)
}

func (v *viewer) cycleStencil() {
	cfg := v.controller.Config()
	cfg.StencilImplementation = (cfg.StencilImplementation + 1) % (shadow.StencilTwoSided + 1)
	v.controller.SetConfig(cfg)
}

// HUD renders an overlay with scene info and shadow statistics
type HUD struct {
	title     string
	polyCount int
	show      bool
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD
func NewHUD(title string, polyCount int) *HUD {
	return &HUD{
		title:     title,
		polyCount: polyCount,
		show:      true,
		fpsTime:   time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD overlay directly to the terminal
func (h *HUD) Render(width, height int, v *viewer) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works)
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)
	if !h.show {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.title)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + fmt.Sprintf("%s%s%s %s %s", bold, bgBlack, fgWhite, h.title, reset))

	polyStr := fmt.Sprintf("%d polys", h.polyCount)
	fmt.Print(moveTo(1, max(width-len(polyStr)-1, 1)) +
		fmt.Sprintf("%s%s%s %s %s", bgBlack, fgCyan, bold, polyStr, reset))

	cfg := v.controller.Config()
	st := v.controller.Stats()
	light := "point"
	if v.light.Directional {
		light = "directional"
	}
	status := fmt.Sprintf("%s / %s / %s stencil / %s light  sil %d  sides %d  caps %d",
		cfg.Mode, cfg.Method, cfg.StencilImplementation, light,
		st.SilhouetteEdges, st.SideTriangles, st.CapTriangles)
	fmt.Print(moveTo(height, 1) + fmt.Sprintf("%s%s %s %s", bgBlack, fgWhite, status, reset))

	hint := fmt.Sprintf("%s%s%s M/Z/O modes %s", bgBlack, dim, fgYellow, reset)
	fmt.Print(moveTo(height, max(width-14, 1)) + hint)
}

// parseColor parses "R,G,B".
func parseColor(s string) (render.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return render.Color{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return render.Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		rgb[i] = uint8(n)
	}
	return render.RGB(rgb[0], rgb[1], rgb[2]), nil
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: dimensions must be positive", s)
	}
	return w, h, nil
}

package main

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/models"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
	"github.com/taigrr/umbra/pkg/shadow"
)

// demo holds the demo scene and the nodes the viewer animates.
type demo struct {
	root    *scene.Node
	spinner *scene.Node
	spin    float64
}

// newDemo builds a ground plane with a floating box, a spinning
// tetrahedron, a double-sided banner and a translucent pane.
func newDemo() *demo {
	root := scene.NewNode("demo")
	root.AddChild(scene.NewGeometryNode("ground", models.NewPlane(6, 0), render.ColorGray))

	root.AddChild(scene.NewGeometryNode("box",
		models.NewBox(math3d.V3(-1, 1, -1), math3d.V3(1, 2.5, 1)), render.RGB(200, 180, 160)))

	spinner := scene.NewGeometryNode("tetrahedron", models.NewTetrahedron(), render.RGB(90, 160, 220))
	root.AddChild(spinner)

	banner := scene.NewGeometryNode("banner", models.NewPlane(0.8, 0), render.RGB(220, 90, 90))
	banner.Transform = math3d.Translate(math3d.V3(-3, 1.5, 2)).Mul(math3d.RotateX(math.Pi / 2))
	none := gputypes.CullModeNone
	banner.State = &scene.StateSet{CullMode: &none}
	root.AddChild(banner)

	blend := gputypes.BlendStateAlpha()
	pane := scene.NewGeometryNode("pane", models.NewPlane(0.7, 0), render.RGBA(120, 220, 255, 110))
	pane.Transform = math3d.Translate(math3d.V3(3, 1.2, -1.5)).Mul(math3d.RotateZ(math.Pi / 2))
	pane.State = &scene.StateSet{Blend: &blend, CullMode: &none}
	root.AddChild(pane)

	d := &demo{root: root, spinner: spinner}
	d.place()
	return d
}

// advance spins the tetrahedron by angle radians.
func (d *demo) advance(angle float64) {
	d.spin += angle
	d.place()
}

func (d *demo) place() {
	d.spinner.Transform = math3d.Translate(math3d.V3(2.5, 1.8, 2)).
		Mul(math3d.RotateY(d.spin)).
		Mul(math3d.RotateX(-math.Pi / 2))
}

// modelScene loads a glTF document, scales it to fit a 3-unit cube and
// stands it on a ground plane.
func modelScene(path string) (*scene.Node, error) {
	model, err := models.LoadScene(path)
	if err != nil {
		return nil, err
	}

	b := shadow.Collect(model, shadow.DefaultConfig()).Opaque().Bounds()
	size := b.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	fit := scene.NewNode("fit")
	if extent > 0 {
		s := 3 / extent
		c := b.Center()
		fit.Transform = math3d.Scale(math3d.V3(s, s, s)).
			Mul(math3d.Translate(math3d.V3(-c.X, -b.Min.Y+0.5/s, -c.Z)))
	}
	fit.AddChild(model)

	root := scene.NewNode("model")
	root.AddChild(scene.NewGeometryNode("ground", models.NewPlane(6, 0), render.ColorGray))
	root.AddChild(fit)
	return root, nil
}

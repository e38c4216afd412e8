package render

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Lines is a line-list drawable built from world-space segments.
type Lines struct {
	points []math3d.Vec4
	colors []color.RGBA // one per segment
}

// NewLines creates an empty line list.
func NewLines() *Lines {
	return &Lines{}
}

// AddSegment appends a segment between two homogeneous points.
func (l *Lines) AddSegment(a, b math3d.Vec4, c color.RGBA) {
	l.points = append(l.points, a, b)
	l.colors = append(l.colors, c)
}

// AddLine appends a segment between two finite points.
func (l *Lines) AddLine(a, b math3d.Vec3, c color.RGBA) {
	l.AddSegment(math3d.Point(a), math3d.Point(b), c)
}

// AddCross appends three axis-aligned segments of the given size centered
// on pos, used to mark a point.
func (l *Lines) AddCross(pos math3d.Vec3, size float64, c color.RGBA) {
	h := size / 2
	l.AddLine(math3d.V3(pos.X-h, pos.Y, pos.Z), math3d.V3(pos.X+h, pos.Y, pos.Z), c)
	l.AddLine(math3d.V3(pos.X, pos.Y-h, pos.Z), math3d.V3(pos.X, pos.Y+h, pos.Z), c)
	l.AddLine(math3d.V3(pos.X, pos.Y, pos.Z-h), math3d.V3(pos.X, pos.Y, pos.Z+h), c)
}

// AddGrid appends a grid on the XZ plane at height y.
func (l *Lines) AddGrid(size, step, y float64, c color.RGBA) {
	half := size / 2
	for x := -half; x <= half; x += step {
		l.AddLine(math3d.V3(x, y, -half), math3d.V3(x, y, half), c)
	}
	for z := -half; z <= half; z += step {
		l.AddLine(math3d.V3(-half, y, z), math3d.V3(half, y, z), c)
	}
}

// Len returns the number of segments.
func (l *Lines) Len() int {
	return len(l.colors)
}

// Topology implements Drawable.
func (l *Lines) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyLineList
}

// VertexCount implements Drawable.
func (l *Lines) VertexCount() int {
	return len(l.points)
}

// Vertex implements Drawable.
func (l *Lines) Vertex(i int) math3d.Vec4 {
	return l.points[i]
}

// PrimitiveColor implements Surface.
func (l *Lines) PrimitiveColor(prim int) color.RGBA {
	return l.colors[prim]
}

// PrimitiveNormal implements Surface. Lines are never shaded.
func (l *Lines) PrimitiveNormal(int) math3d.Vec3 {
	return math3d.Zero3()
}

// drawLines draws a line list as an overlay: segments are clipped to the
// near plane and drawn without depth or stencil tests.
func (r *Rasterizer) drawLines(d Drawable, s *StateBlock) {
	if s.Color.WriteMask == gputypes.ColorWriteMaskNone {
		return
	}
	viewProj := r.camera.ViewProjectionMatrix()
	surf, _ := d.(Surface)

	for prim := range d.VertexCount() / 2 {
		a := viewProj.MulVec4(d.Vertex(prim * 2))
		b := viewProj.MulVec4(d.Vertex(prim*2 + 1))
		a, b, ok := clipSegment(a, b)
		if !ok {
			continue
		}
		c := ColorWhite
		if surf != nil {
			c = surf.PrimitiveColor(prim)
		}
		sa, sb := r.toScreen(a), r.toScreen(b)
		r.fb.DrawLine(clampPixel(sa.X), clampPixel(sa.Y), clampPixel(sb.X), clampPixel(sb.Y), c)
	}
}

// clampPixel converts a screen coordinate to a pixel index, bounding it so
// far-away endpoints do not overflow the line walk.
func clampPixel(v float64) int {
	const limit = 1 << 16
	switch {
	case v > limit:
		return limit
	case v < -limit:
		return -limit
	}
	return int(v)
}

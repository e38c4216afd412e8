package render

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Drawable is a non-indexed vertex stream in world space. Vertices are
// homogeneous: W=0 vertices are points at infinity.
type Drawable interface {
	Topology() gputypes.PrimitiveTopology
	VertexCount() int
	Vertex(i int) math3d.Vec4
}

// Surface is implemented by drawables that carry per-primitive attributes.
// Drawables without it are drawn white and unshaded.
type Surface interface {
	PrimitiveColor(prim int) color.RGBA
	PrimitiveNormal(prim int) math3d.Vec3
}

// Bounded is implemented by drawables with finite world-space bounds. The
// device skips them when the box is outside the view frustum.
type Bounded interface {
	Bounds() AABB
}

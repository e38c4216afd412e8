package render

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Lighting enables flat per-primitive shading for a draw.
type Lighting struct {
	// Light is a homogeneous position. W=0 means a directional light whose
	// rays travel along -XYZ.
	Light   math3d.Vec4
	Ambient float64
	Diffuse float64
}

// ToLight returns the unit vector from p toward the light.
func (l Lighting) ToLight(p math3d.Vec3) math3d.Vec3 {
	return l.Light.Vec3().Sub(p.Scale(l.Light.W)).Normalize()
}

// Intensity returns the flat shading factor for a surface point with unit
// normal n.
func (l Lighting) Intensity(p, n math3d.Vec3) float64 {
	return l.Ambient + l.Diffuse*math.Max(0, n.Dot(l.ToLight(p)))
}

// StateBlock is the fixed-function state a draw is rasterized with.
type StateBlock struct {
	Primitive    gputypes.PrimitiveState
	DepthStencil gputypes.DepthStencilState
	Color        gputypes.ColorTargetState

	// StencilReference is the reference value for stencil compares and
	// the Replace operation.
	StencilReference uint32
	// BlendConstant is the color used by the Constant blend factors.
	BlendConstant [4]float64

	// Lighting shades primitives that provide normals. Nil draws the
	// primitive color unshaded.
	Lighting *Lighting
}

// NewStateBlock returns an opaque, depth-tested state that writes all color
// channels and leaves the stencil buffer untouched.
func NewStateBlock() StateBlock {
	return StateBlock{
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		DepthStencil: gputypes.DefaultDepthStencilState(gputypes.TextureFormatDepth24PlusStencil8),
		Color: gputypes.ColorTargetState{
			Format:    gputypes.TextureFormatRGBA8Unorm,
			WriteMask: gputypes.ColorWriteMaskAll,
		},
		BlendConstant: [4]float64{1, 1, 1, 1},
	}
}

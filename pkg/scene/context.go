package scene

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Context is the resolved, inherited state at a node during traversal.
// It is a value: each level derives its own copy and never writes back.
type Context struct {
	World     math3d.Mat4
	FrontFace gputypes.FrontFace
	CullMode  gputypes.CullMode
	Blend     *gputypes.BlendState
	CastFace  CastFace
	Color     color.RGBA
}

// DefaultContext is the state at the root: identity transform, CCW front
// faces, back-face culling, no blending and opaque white.
func DefaultContext() Context {
	return Context{
		World:     math3d.Identity(),
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeBack,
		Color:     color.RGBA{255, 255, 255, 255},
	}
}

// Enter returns the context for n, given the context of its parent.
func (c Context) Enter(n *Node) Context {
	next := c
	next.World = c.World.Mul(n.Transform)
	if n.Color != (color.RGBA{}) {
		next.Color = n.Color
	}
	if s := n.State; s != nil {
		if s.FrontFace != nil {
			next.FrontFace = *s.FrontFace
		}
		if s.CullMode != nil {
			next.CullMode = *s.CullMode
		}
		if s.Blend != nil {
			next.Blend = s.Blend
		}
		if s.CastFace != CastAuto {
			next.CastFace = s.CastFace
		}
	}
	return next
}

// Blended reports whether geometry under this context is alpha blended.
func (c Context) Blended() bool {
	return c.Blend != nil
}

// VisitFunc is called once per node with the node's resolved context.
// Returning false skips the node's children.
type VisitFunc func(n *Node, ctx Context) bool

// Walk visits root and its descendants depth-first, starting from ctx.
// The tree is never modified.
func Walk(root *Node, ctx Context, fn VisitFunc) {
	if root == nil {
		return
	}
	here := ctx.Enter(root)
	if !fn(root, here) {
		return
	}
	for _, child := range root.Children {
		Walk(child, here, fn)
	}
}

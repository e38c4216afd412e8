// Package scene provides the retained scene graph consumed by the shadow
// collector: nodes with local transforms, geometry and render-state
// overrides that are inherited down the tree.
package scene

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Geometry is an indexed triangle source in node-local space.
type Geometry interface {
	TriangleCount() int
	GetFace(i int) [3]int
	Position(i int) math3d.Vec3
}

// CastFace selects which side of a surface casts shadows.
type CastFace int

const (
	// CastAuto inherits the casting face from the effective cull mode.
	CastAuto CastFace = iota
	// CastFront casts from the side the winding order marks as front.
	CastFront
	// CastBack casts from the back side.
	CastBack
	// CastFrontAndBack treats the surface as two-sided.
	CastFrontAndBack
)

// String returns the casting face name.
func (f CastFace) String() string {
	switch f {
	case CastAuto:
		return "auto"
	case CastFront:
		return "front"
	case CastBack:
		return "back"
	case CastFrontAndBack:
		return "front-and-back"
	default:
		return "unknown"
	}
}

// StateSet holds render-state overrides attached to a subtree.
// Nil fields and CastAuto leave the inherited value in place.
type StateSet struct {
	FrontFace *gputypes.FrontFace
	CullMode  *gputypes.CullMode
	Blend     *gputypes.BlendState
	CastFace  CastFace
}

// Node is one element of the scene graph.
type Node struct {
	Name      string
	Transform math3d.Mat4 // local, relative to the parent
	State     *StateSet
	Geometry  Geometry
	Color     color.RGBA // zero value inherits the parent color
	Children  []*Node
}

// NewNode creates an empty node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: math3d.Identity(),
	}
}

// NewGeometryNode creates a leaf node drawing g in the given color.
func NewGeometryNode(name string, g Geometry, c color.RGBA) *Node {
	n := NewNode(name)
	n.Geometry = g
	n.Color = c
	return n
}

// AddChild appends child and returns it for chaining.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// StateSetOrCreate returns the node's state set, allocating one if needed.
func (n *Node) StateSetOrCreate() *StateSet {
	if n.State == nil {
		n.State = &StateSet{}
	}
	return n.State
}

// TriangleCount returns the number of triangles in the subtree.
func (n *Node) TriangleCount() int {
	total := 0
	if n.Geometry != nil {
		total += n.Geometry.TriangleCount()
	}
	for _, c := range n.Children {
		total += c.TriangleCount()
	}
	return total
}

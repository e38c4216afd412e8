package render

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0. Points with a positive
// distance lie on the kept side.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

func planeOf(v math3d.Vec4) Plane {
	p := Plane{Normal: v.Vec3(), D: v.W}
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Scale(1 / l)
		p.D /= l
	}
	return p
}

// Distance returns the signed distance from the plane to q.
func (p Plane) Distance(q math3d.Vec3) float64 {
	return p.Normal.Dot(q) + p.D
}

// Frustum planes, normals pointing inward.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum is the clip volume of a view-projection matrix in world space.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromMatrix extracts the clip planes of a column-major
// view-projection matrix (Gribb/Hartmann). An infinite projection leaves
// the far plane with a zero normal and a positive D, which keeps everything.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(i int) math3d.Vec4 {
		return math3d.V4(m[i], m[i+4], m[i+8], m[i+12])
	}
	w := row(3)

	var f Frustum
	for axis := range 3 {
		r := row(axis)
		f.Planes[2*axis] = planeOf(w.Add(r))
		f.Planes[2*axis+1] = planeOf(w.Sub(r))
	}
	return f
}

// Contains reports whether q lies inside all six planes.
func (f Frustum) Contains(q math3d.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(q) < 0 {
			return false
		}
	}
	return true
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// It is conservative: boxes near a frustum corner can pass without being
// visible.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, p := range f.Planes {
		if p.Distance(box.farthest(p.Normal)) < 0 {
			return false
		}
	}
	return true
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB returns the box spanning min to max.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Extend returns the smallest box holding b and q.
func (b AABB) Extend(q math3d.Vec3) AABB {
	return AABB{Min: b.Min.Min(q), Max: b.Max.Max(q)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() math3d.Vec3 { return b.Min.Midpoint(b.Max) }

// Size returns the edge lengths of the box.
func (b AABB) Size() math3d.Vec3 { return b.Max.Sub(b.Min) }

// farthest returns the corner furthest along dir.
func (b AABB) farthest(dir math3d.Vec3) math3d.Vec3 {
	c := b.Min
	if dir.X >= 0 {
		c.X = b.Max.X
	}
	if dir.Y >= 0 {
		c.Y = b.Max.Y
	}
	if dir.Z >= 0 {
		c.Z = b.Max.Z
	}
	return c
}

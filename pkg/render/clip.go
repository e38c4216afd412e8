package render

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// minClipW keeps vertices strictly in front of the eye so the perspective
// divide is defined. There is no far plane: vertices at infinity project
// onto the far end of the depth range and stay visible.
const minClipW = 1e-9

// clipPlanes are the homogeneous half-spaces every primitive is clipped
// against, as signed distances that are >= 0 inside.
var clipPlanes = [...]func(v math3d.Vec4) float64{
	func(v math3d.Vec4) float64 { return v.Z + v.W }, // near
	func(v math3d.Vec4) float64 { return v.W - minClipW },
}

// clipPolygon clips a convex clip-space polygon with Sutherland-Hodgman.
// Intersections are always interpolated from the inside vertex toward the
// outside one, so an edge shared by two primitives is cut at bit-identical
// points regardless of the direction it is traversed in.
func clipPolygon(poly []math3d.Vec4) []math3d.Vec4 {
	for _, dist := range clipPlanes {
		if len(poly) == 0 {
			return nil
		}
		out := make([]math3d.Vec4, 0, len(poly)+1)
		prev := poly[len(poly)-1]
		dPrev := dist(prev)
		for _, cur := range poly {
			dCur := dist(cur)
			switch {
			case dCur >= 0 && dPrev >= 0:
				out = append(out, cur)
			case dCur >= 0:
				out = append(out, intersect(cur, prev, dCur, dPrev), cur)
			case dPrev >= 0:
				out = append(out, intersect(prev, cur, dPrev, dCur))
			}
			prev, dPrev = cur, dCur
		}
		poly = out
	}
	return poly
}

// intersect returns the point where the segment from in (inside, distance
// dIn) to out (outside, distance dOut) crosses the plane.
func intersect(in, out math3d.Vec4, dIn, dOut float64) math3d.Vec4 {
	return in.Lerp(out, dIn/(dIn-dOut))
}

// clipSegment clips the segment a-b and reports whether any part remains.
func clipSegment(a, b math3d.Vec4) (math3d.Vec4, math3d.Vec4, bool) {
	for _, dist := range clipPlanes {
		da, db := dist(a), dist(b)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			a = intersect(b, a, db, da)
		case db < 0:
			b = intersect(a, b, da, db)
		}
	}
	return a, b, true
}

// lessVec4 orders clip-space vertices lexicographically.
func lessVec4(a, b math3d.Vec4) bool {
	switch {
	case a.X != b.X:
		return a.X < b.X
	case a.Y != b.Y:
		return a.Y < b.Y
	case a.Z != b.Z:
		return a.Z < b.Z
	}
	return a.W < b.W
}

// rotateToMin rotates poly in place so its smallest vertex comes first,
// keeping the cyclic order. A polygon and its reverse then fan-triangulate
// into the same triangles, which keeps depth interpolation identical for
// coincident surfaces submitted with opposite windings.
func rotateToMin(poly []math3d.Vec4) {
	best := 0
	for i := 1; i < len(poly); i++ {
		if lessVec4(poly[i], poly[best]) {
			best = i
		}
	}
	if best == 0 {
		return
	}
	rotated := append(append(make([]math3d.Vec4, 0, len(poly)), poly[best:]...), poly[:best]...)
	copy(poly, rotated)
}

package shadow

import (
	"github.com/taigrr/umbra/pkg/math3d"
)

// Infinity projects p away from the light onto the plane at infinity. The
// result always has W=0.
func Infinity(p, light math3d.Vec4) math3d.Vec4 {
	v := p.Scale(light.W).Sub(light)
	v.W = 0
	return v
}

// ToLight returns the unit vector from p toward a homogeneous light
// position.
func ToLight(light math3d.Vec4, p math3d.Vec3) math3d.Vec3 {
	return light.Vec3().Sub(p.Scale(light.W)).Normalize()
}

// VolumeVertex is a vertex of shadow volume geometry. Extruded vertices are
// projected to infinity when drawn, either always or when their gate opens.
type VolumeVertex struct {
	Pos     math3d.Vec4
	Extrude bool

	// Lit and Dark gate the extrusion: it happens when Lit faces the light
	// and Dark does not. A zero Lit normal extrudes unconditionally, and a
	// zero Dark normal never blocks.
	Lit, Dark math3d.Vec3
}

// Resolve returns the position the vertex is drawn at for the given light.
func (v VolumeVertex) Resolve(light math3d.Vec4) math3d.Vec4 {
	if !v.Extrude {
		return v.Pos
	}
	if v.Lit != (math3d.Vec3{}) {
		toLight := ToLight(light, v.Pos.Vec3())
		if v.Lit.Dot(toLight) <= 0 || v.Dark.Dot(toLight) > 0 {
			return v.Pos
		}
	}
	return Infinity(v.Pos, light)
}

func fixed(p math3d.Vec4) VolumeVertex { return VolumeVertex{Pos: p} }

// appendQuad appends the side quad (a, a', b', b) as the triangles
// (a, a', b') and (a, b', b), where a' and b' are the far vertices.
func appendQuad(dst []VolumeVertex, a, aFar, bFar, b VolumeVertex) []VolumeVertex {
	return append(dst, a, aFar, bFar, a, bFar, b)
}

// appendSide extrudes the edge a→b on the CPU.
func appendSide(dst []VolumeVertex, a, b, light math3d.Vec4) []VolumeVertex {
	return appendQuad(dst, fixed(a), fixed(Infinity(a, light)), fixed(Infinity(b, light)), fixed(b))
}

// appendGatedSide leaves the extrusion of a→b to the draw. A zero lit
// normal extrudes unconditionally.
func appendGatedSide(dst []VolumeVertex, a, b math3d.Vec4, lit, dark math3d.Vec3) []VolumeVertex {
	far := func(p math3d.Vec4) VolumeVertex {
		return VolumeVertex{Pos: p, Extrude: true, Lit: lit, Dark: dark}
	}
	return appendQuad(dst, fixed(a), far(a), far(b), fixed(b))
}

// appendCaps appends the light cap (a, b, c) and the dark cap, its
// reversed projection at infinity, both on the CPU.
func appendCaps(dst []VolumeVertex, a, b, c, light math3d.Vec4) []VolumeVertex {
	return append(dst,
		fixed(a), fixed(b), fixed(c),
		fixed(Infinity(c, light)), fixed(Infinity(b, light)), fixed(Infinity(a, light)),
	)
}

// appendGatedCaps appends the light cap and a dark twin that is extruded
// when lit faces the light. Otherwise the twin coincides with the light cap
// with opposite winding and the two cancel in the stencil buffer.
func appendGatedCaps(dst []VolumeVertex, a, b, c math3d.Vec4, lit math3d.Vec3) []VolumeVertex {
	far := func(p math3d.Vec4) VolumeVertex {
		return VolumeVertex{Pos: p, Extrude: true, Lit: lit}
	}
	return append(dst, fixed(a), fixed(b), fixed(c), far(c), far(b), far(a))
}

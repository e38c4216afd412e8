// Package math3d provides the vector and matrix types shared by the scene,
// the software renderer and the shadow-volume builder.
package math3d

import "math"

// Vec3 is a point or direction in 3D.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Zero3 returns the origin.
func Zero3() Vec3 { return Vec3{} }

// Up returns +Y, the world up axis.
func Up() Vec3 { return Vec3{0, 1, 0} }

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Negate() Vec3         { return Vec3{-a.X, -a.Y, -a.Z} }
func (a Vec3) Dot(b Vec3) float64   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) LenSq() float64       { return a.Dot(a) }
func (a Vec3) Len() float64         { return math.Sqrt(a.LenSq()) }

// Cross returns a × b. With right-handed axes, X × Y = Z.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Normalize returns a scaled to unit length. The zero vector stays zero.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{a.X / l, a.Y / l, a.Z / l}
}

// Midpoint returns (a + b) / 2.
func (a Vec3) Midpoint(b Vec3) Vec3 { return a.Add(b).Scale(0.5) }

// Min and Max are component-wise.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// ApproxEqual reports whether no component of a and b differs by more
// than eps.
func (a Vec3) ApproxEqual(b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Z-b.Z) <= eps
}

// Vec4 is a homogeneous point. W=1 marks a finite point and W=0 a point at
// infinity, which doubles as a direction.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 is shorthand for Vec4{x, y, z, w}.
func V4(x, y, z, w float64) Vec4 { return Vec4{x, y, z, w} }

// Point lifts p to (p, 1).
func Point(p Vec3) Vec4 { return Vec4{p.X, p.Y, p.Z, 1} }

// Direction lifts d to the point at infinity (d, 0).
func Direction(d Vec3) Vec4 { return Vec4{d.X, d.Y, d.Z, 0} }

// Vec3 drops W.
func (v Vec4) Vec3() Vec3 { return Vec3{v.X, v.Y, v.Z} }

func (a Vec4) Add(b Vec4) Vec4      { return Vec4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }
func (a Vec4) Sub(b Vec4) Vec4      { return Vec4{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W} }
func (a Vec4) Scale(s float64) Vec4 { return Vec4{a.X * s, a.Y * s, a.Z * s, a.W * s} }

// Lerp interpolates all four components, so a segment between a finite
// point and a point at infinity stays a straight line after projection.
func (a Vec4) Lerp(b Vec4, t float64) Vec4 {
	return a.Add(b.Sub(a).Scale(t))
}

// PerspectiveDivide returns XYZ/W. Points at infinity keep XYZ.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return v.Vec3()
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}

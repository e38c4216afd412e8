package render

import (
	"math"

	"github.com/taigrr/umbra/pkg/math3d"
)

// Camera is a perspective look-at camera. The view and projection matrices
// are rebuilt lazily after a setter runs.
type Camera struct {
	Position math3d.Vec3

	FOV         float64 // vertical, radians
	AspectRatio float64
	Near        float64
	Far         float64
	InfiniteFar bool // ignore Far and put the far plane at infinity

	forward math3d.Vec3

	view, proj, viewProj          math3d.Mat4
	viewDirty, projDirty, vpDirty bool
}

// NewCamera returns a camera at (0, 10, 0) looking down -Z with a 60 degree
// field of view.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 10, 0),
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
		forward:     math3d.V3(0, 0, -1),
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetInfiniteFar switches between a finite far plane and one at infinity.
// Shadow volumes extruded to infinity need the latter to stay unclipped.
func (c *Camera) SetInfiniteFar(infinite bool) {
	c.InfiniteFar = infinite
	c.projDirty = true
}

// SetPosition moves the camera without changing where it looks.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
}

// SetAspectRatio sets width / height.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far distances. Far is unused while
// InfiniteFar is set.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// LookAt turns the camera toward target. A target at the camera position
// leaves the direction unchanged.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position)
	if dir.LenSq() == 0 {
		return
	}
	c.forward = dir.Normalize()
	c.viewDirty = true
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 { return c.forward }

// Right returns the unit vector to the right of the view direction, level
// with the ground. Looking straight up or down it falls back to +X.
func (c *Camera) Right() math3d.Vec3 {
	r := c.forward.Cross(math3d.Up())
	if r.LenSq() < 1e-12 {
		return math3d.V3(1, 0, 0)
	}
	return r.Normalize()
}

// Up returns the camera's up vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.forward)
}

// ViewMatrix returns the world-to-eye transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		r, u, f := c.Right(), c.Up(), c.forward
		p := c.Position
		c.view = math3d.Mat4{
			r.X, u.X, -f.X, 0,
			r.Y, u.Y, -f.Y, 0,
			r.Z, u.Z, -f.Z, 0,
			-r.Dot(p), -u.Dot(p), f.Dot(p), 1,
		}
		c.viewDirty = false
		c.vpDirty = true
	}
	return c.view
}

// ProjectionMatrix returns the eye-to-clip transform.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		if c.InfiniteFar {
			c.proj = math3d.InfinitePerspective(c.FOV, c.AspectRatio, c.Near)
		} else {
			c.proj = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		}
		c.projDirty = false
		c.vpDirty = true
	}
	return c.proj
}

// ViewProjectionMatrix returns projection * view. It stays current even when
// ViewMatrix or ProjectionMatrix were refreshed separately since the last
// call.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	if c.vpDirty {
		c.viewProj = proj.Mul(view)
		c.vpDirty = false
	}
	return c.viewProj
}

// WorldToScreen projects p to pixel coordinates and NDC depth. ok is false
// when p is behind the camera or outside the clip volume.
func (c *Camera) WorldToScreen(p math3d.Vec3, width, height int) (x, y, depth float64, ok bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.Point(p))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	if math.Abs(ndc.X) > 1 || math.Abs(ndc.Y) > 1 || math.Abs(ndc.Z) > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X + 1) * 0.5 * float64(width)
	y = (1 - ndc.Y) * 0.5 * float64(height)
	return x, y, ndc.Z, true
}

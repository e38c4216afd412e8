// Package render provides the software device the shadow passes run on:
// a rasterizer with color, depth and stencil buffers driven by gputypes
// render state, plus the camera, frustum and terminal output around it.
package render

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/taigrr/umbra/pkg/math3d"
)

// Rasterizer is a software Device rendering into a Framebuffer.
type Rasterizer struct {
	camera       *Camera
	fb           *Framebuffer
	depth        []float64    // Depth buffer (1D array, row-major)
	stencil      []uint8      // Stencil buffer, same layout
	frustum      Frustum      // Cached frustum planes
	frustumDirty bool         // Whether frustum needs recalculation
	CullingStats CullingStats // Statistics for debugging/benchmarking

	// OneSidedStencil emulates hardware without separate back-face
	// stencil state: StencilFront applies to both facings and
	// Capabilities reports no two-sided support.
	OneSidedStencil bool
}

// CullingStats tracks frustum culling of bounded drawables.
type CullingStats struct {
	MeshesTested int // Total drawables tested for culling
	MeshesCulled int // Drawables culled (not rendered)
	MeshesDrawn  int // Drawables that passed culling
}

// screenVertex is a vertex after the perspective divide and viewport
// mapping.
type screenVertex struct {
	X, Y float64 // Screen position in pixels
	Z    float64 // NDC depth
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
	r.Resize()
	return r
}

// Resize resizes the depth and stencil buffers to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.depth = nil
		r.stencil = nil
		return
	}
	r.depth = make([]float64, r.fb.Width*r.fb.Height)
	r.stencil = make([]uint8, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Camera returns the camera the rasterizer projects with.
func (r *Rasterizer) Camera() *Camera {
	return r.camera
}

// Framebuffer returns the color target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// BeginFrame clears color to bg, depth to the far value and stencil to
// zero, and picks up camera movement since the last frame.
func (r *Rasterizer) BeginFrame(bg Color) {
	if r.fb != nil {
		r.fb.Clear(bg)
	}
	r.ClearDepth()
	r.ClearStencil(0)
	r.InvalidateFrustum()
	r.ResetCullingStats()
}

// ClearDepth clears the depth buffer.
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.depth)
	if n == 0 {
		return
	}
	r.depth[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.depth[i:], r.depth[:i])
	}
}

// ClearStencil fills the stencil buffer with the low 8 bits of value.
func (r *Rasterizer) ClearStencil(value uint32) {
	v := uint8(value)
	for i := range r.stencil {
		r.stencil[i] = v
	}
}

// Capabilities implements Device.
func (r *Rasterizer) Capabilities() Capabilities {
	return Capabilities{
		TwoSidedStencil: !r.OneSidedStencil,
		StencilBits:     8,
	}
}

// Depth returns the depth at (x, y), or +Inf out of bounds.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.Inf(1)
	}
	return r.depth[y*r.Width()+x]
}

// Stencil returns the stencil value at (x, y), or 0 out of bounds.
func (r *Rasterizer) Stencil(x, y int) uint8 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return 0
	}
	return r.stencil[y*r.Width()+x]
}

// StencilBuffer returns a copy of the stencil buffer.
func (r *Rasterizer) StencilBuffer() []uint8 {
	out := make([]uint8, len(r.stencil))
	copy(out, r.stencil)
	return out
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves or rotates.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// UpdateFrustum recalculates the frustum planes from the camera.
func (r *Rasterizer) UpdateFrustum() {
	if r.frustumDirty {
		r.frustum = NewFrustumFromMatrix(r.camera.ViewProjectionMatrix())
		r.frustumDirty = false
	}
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(worldBounds)
}

// Draw implements Device. Triangle and line lists are supported; other
// topologies are ignored.
func (r *Rasterizer) Draw(d Drawable, s StateBlock) {
	if r.fb == nil || d == nil {
		return
	}
	if b, ok := d.(Bounded); ok {
		r.CullingStats.MeshesTested++
		if !r.IsVisible(b.Bounds()) {
			r.CullingStats.MeshesCulled++
			return
		}
		r.CullingStats.MeshesDrawn++
	}

	switch d.Topology() {
	case gputypes.PrimitiveTopologyTriangleList:
		r.drawTriangles(d, &s)
	case gputypes.PrimitiveTopologyLineList:
		r.drawLines(d, &s)
	}
}

func (r *Rasterizer) drawTriangles(d Drawable, s *StateBlock) {
	viewProj := r.camera.ViewProjectionMatrix()
	surf, _ := d.(Surface)
	ccw := s.Primitive.FrontFace == gputypes.FrontFaceCCW

	var in [3]math3d.Vec4
	sv := make([]screenVertex, 0, 5)

	for prim := range d.VertexCount() / 3 {
		for i := range 3 {
			in[i] = viewProj.MulVec4(d.Vertex(prim*3 + i))
		}
		poly := clipPolygon(in[:])
		if len(poly) < 3 {
			continue
		}
		rotateToMin(poly)

		sv = sv[:0]
		for _, v := range poly {
			sv = append(sv, r.toScreen(v))
		}

		// Screen Y points down, so a negative screen area is
		// counter-clockwise in NDC.
		area := polygonArea(sv)
		if area == 0 {
			continue
		}
		front := (area < 0) == ccw
		if culled(s.Primitive.CullMode, front) {
			continue
		}

		face := s.DepthStencil.StencilFront
		if !front && !r.OneSidedStencil {
			face = s.DepthStencil.StencilBack
		}
		src := r.shade(d, surf, prim, s)

		for k := 1; k+1 < len(sv); k++ {
			r.fillTriangle(sv[0], sv[k], sv[k+1], &face, src, s)
		}
	}
}

func (r *Rasterizer) toScreen(v math3d.Vec4) screenVertex {
	invW := 1.0 / v.W
	return screenVertex{
		X: (v.X*invW + 1) * 0.5 * float64(r.Width()),
		Y: (1 - v.Y*invW) * 0.5 * float64(r.Height()),
		Z: v.Z * invW,
	}
}

// polygonArea returns twice the signed screen-space area.
func polygonArea(sv []screenVertex) float64 {
	var sum float64
	prev := sv[len(sv)-1]
	for _, v := range sv {
		sum += prev.X*v.Y - v.X*prev.Y
		prev = v
	}
	return sum
}

func culled(mode gputypes.CullMode, front bool) bool {
	switch mode {
	case gputypes.CullModeBack:
		return !front
	case gputypes.CullModeFront:
		return front
	}
	return false
}

// shade computes the flat color of a primitive. Normals are turned toward
// the eye so open and double-sided surfaces light from either side.
func (r *Rasterizer) shade(d Drawable, surf Surface, prim int, s *StateBlock) rgba {
	if surf == nil {
		return rgba{1, 1, 1, 1}
	}
	c := toRGBA(surf.PrimitiveColor(prim))
	if s.Lighting == nil {
		return c
	}

	var centroid math3d.Vec3
	for i := range 3 {
		centroid = centroid.Add(d.Vertex(prim*3 + i).PerspectiveDivide())
	}
	centroid = centroid.Scale(1.0 / 3)

	n := surf.PrimitiveNormal(prim)
	if n.Dot(r.camera.Position.Sub(centroid)) < 0 {
		n = n.Negate()
	}
	k := s.Lighting.Intensity(centroid, n)
	for ch := range 3 {
		c[ch] *= k
	}
	return c
}

// edgeCoeffs returns A, B, C for the edge function A*x + B*y + C, which is
// positive to the left of the edge, negative to the right and zero on it.
func edgeCoeffs(v0, v1 screenVertex) (A, B, C float64) {
	A = v0.Y - v1.Y // dy
	B = v1.X - v0.X // -dx
	C = v0.X*v1.Y - v1.X*v0.Y
	return
}

// edgeFunc evaluates edge function at point (x, y)
func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

// covers applies the fill rule: pixels exactly on an edge belong to one of
// the two triangles sharing it, never both.
func covers(e, A, B float64) bool {
	return e > 0 || (e == 0 && (A > 0 || (A == 0 && B > 0)))
}

// fillTriangle rasterizes one triangle with pixel-center sampling. Edge
// functions are evaluated directly per pixel so that a shared edge yields
// exactly negated values on both sides.
func (r *Rasterizer) fillTriangle(v0, v1, v2 screenVertex, face *gputypes.StencilFaceState, src rgba, s *StateBlock) {
	area := (v1.X-v0.X)*(v2.Y-v0.Y) - (v1.Y-v0.Y)*(v2.X-v0.X)
	if area == 0 {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	invArea := 1.0 / area

	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min(v0.X, v1.X, v2.X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max(v0.X, v1.X, v2.X))))
	minY := int(math.Max(0, math.Floor(min(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max(v0.Y, v1.Y, v2.Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(v1, v2)
	A1, B1, C1 := edgeCoeffs(v2, v0)
	A2, B2, C2 := edgeCoeffs(v0, v1)

	width := r.Width()
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edgeFunc(A0, B0, C0, px, py)
			w1 := edgeFunc(A1, B1, C1, px, py)
			w2 := edgeFunc(A2, B2, C2, px, py)
			if !covers(w0, A0, B0) || !covers(w1, A1, B1) || !covers(w2, A2, B2) {
				continue
			}
			z := (w0*v0.Z + w1*v1.Z + w2*v2.Z) * invArea
			r.fragment(y*width+x, z, face, src, s)
		}
	}
}

// fragment runs the stencil test, depth test, stencil update, depth write
// and color output for one covered pixel.
func (r *Rasterizer) fragment(idx int, z float64, face *gputypes.StencilFaceState, src rgba, s *StateBlock) {
	ds := &s.DepthStencil
	cur := r.stencil[idx]
	ref := s.StencilReference

	if !compare(ref&ds.StencilReadMask, uint32(cur)&ds.StencilReadMask, face.Compare) {
		r.stencil[idx] = writeStencil(cur, applyStencilOp(face.FailOp, cur, ref), ds.StencilWriteMask)
		return
	}
	if !compare(z, r.depth[idx], ds.DepthCompare) {
		r.stencil[idx] = writeStencil(cur, applyStencilOp(face.DepthFailOp, cur, ref), ds.StencilWriteMask)
		return
	}
	r.stencil[idx] = writeStencil(cur, applyStencilOp(face.PassOp, cur, ref), ds.StencilWriteMask)

	if ds.DepthWriteEnabled {
		r.depth[idx] = z
	}
	if s.Color.WriteMask == gputypes.ColorWriteMaskNone {
		return
	}
	dst := r.fb.Pixels[idx]
	out := blend(s.Color.Blend, src, toRGBA(dst), s.BlendConstant)
	r.fb.Pixels[idx] = writeColor(dst, out, s.Color.WriteMask)
}

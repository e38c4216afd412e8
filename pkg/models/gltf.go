package models

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/gogpu/gputypes"
	"github.com/qmuntal/gltf"
	"github.com/taigrr/umbra/pkg/math3d"
	"github.com/taigrr/umbra/pkg/scene"
)

// GLTFLoader converts glTF/GLB documents into scene graphs.
type GLTFLoader struct {
	// BlendMaterials maps ALPHA_BLEND materials to an alpha blend state.
	// When false every primitive is treated as opaque.
	BlendMaterials bool

	meshes map[primitiveKey]*Mesh
}

type primitiveKey struct {
	mesh, primitive int
}

// NewGLTFLoader creates a new glTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{BlendMaterials: true}
}

// LoadScene loads a glTF or GLB file and returns its default scene.
func LoadScene(path string) (*scene.Node, error) {
	return NewGLTFLoader().Load(path)
}

// Load opens path and converts its default scene.
func (l *GLTFLoader) Load(path string) (*scene.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.Convert(doc, filepath.Base(path))
}

// Convert builds a scene graph from an already decoded document. Meshes
// referenced by several nodes share one Mesh value.
func (l *GLTFLoader) Convert(doc *gltf.Document, name string) (*scene.Node, error) {
	l.meshes = make(map[primitiveKey]*Mesh)

	root := scene.NewNode(name)
	for _, idx := range rootNodes(doc) {
		child, err := l.convertNode(doc, idx, 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}
	return root, nil
}

// maxNodeDepth bounds recursion on malformed documents with cyclic children.
const maxNodeDepth = 256

func (l *GLTFLoader) convertNode(doc *gltf.Document, idx, depth int) (*scene.Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}
	src := doc.Nodes[idx]
	n := scene.NewNode(src.Name)
	n.Transform = nodeTransform(src)

	if src.Mesh != nil {
		if err := l.attachMesh(doc, *src.Mesh, n); err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
	}
	for _, c := range src.Children {
		child, err := l.convertNode(doc, c, depth+1)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// attachMesh adds one child per triangle primitive so each can carry its
// own material state.
func (l *GLTFLoader) attachMesh(doc *gltf.Document, meshIdx int, n *scene.Node) error {
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIdx)
	}
	src := doc.Meshes[meshIdx]
	for pi, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}
		key := primitiveKey{meshIdx, pi}
		mesh, ok := l.meshes[key]
		if !ok {
			var err error
			mesh, err = readPrimitive(doc, prim)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", src.Name, pi, err)
			}
			if mesh == nil {
				continue
			}
			mesh.Name = fmt.Sprintf("%s/%d", src.Name, pi)
			l.meshes[key] = mesh
		}

		child := scene.NewGeometryNode(mesh.Name, mesh, color.RGBA{255, 255, 255, 255})
		if prim.Material != nil && *prim.Material < len(doc.Materials) {
			l.applyMaterial(doc.Materials[*prim.Material], child)
		}
		n.AddChild(child)
	}
	return nil
}

func (l *GLTFLoader) applyMaterial(mat *gltf.Material, n *scene.Node) {
	if mat == nil {
		return
	}
	if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		n.Color = factorToRGBA(*pbr.BaseColorFactor)
	}
	if mat.DoubleSided {
		none := gputypes.CullModeNone
		n.StateSetOrCreate().CullMode = &none
	}
	if l.BlendMaterials && mat.AlphaMode == gltf.AlphaBlend {
		blend := gputypes.BlendStateAlpha()
		n.StateSetOrCreate().Blend = &blend
	}
}

// readPrimitive extracts positions and triangle indices. glTF front faces
// are counter-clockwise, matching Mesh, so winding is kept as is.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	positions, err := readVec3Accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	mesh := NewMesh("")
	mesh.Positions = positions

	if prim.Indices != nil {
		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return nil, fmt.Errorf("index out of range in triangle %d", i/3)
			}
			mesh.AddTriangle(a, b, c)
		}
	} else {
		// No indices, assume sequential triangles
		for i := 0; i+2 < len(positions); i += 3 {
			mesh.AddTriangle(i, i+1, i+2)
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// rootNodes returns the node indices of the default scene, falling back to
// every node that is nobody's child when the document has no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeTransform returns the local matrix of a node. A non-identity Matrix
// wins; otherwise TRS is composed with zero values read as defaults.
func nodeTransform(n *gltf.Node) math3d.Mat4 {
	m := math3d.Mat4(n.Matrix)
	if m != (math3d.Mat4{}) && !m.IsIdentity() {
		return m
	}

	t := math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2])

	rot := math3d.Identity()
	if q := n.Rotation; q != [4]float64{} {
		rot = math3d.FromQuat(q[0], q[1], q[2], q[3])
	}

	s := math3d.V3(1, 1, 1)
	if n.Scale != [3]float64{} {
		s = math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	}
	return math3d.TRS(t, rot, s)
}

func factorToRGBA(f [4]float64) color.RGBA {
	c := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{c(f[0]), c(f[1]), c(f[2]), c(f[3])}
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", accessor.Type, accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return result, nil
}

// readIndices reads unsigned index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index component type: %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		off := i * stride
		switch size {
		case 1:
			result[i] = int(data[off])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(data[off:]))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return result, nil
}

// accessorBytes returns the bytes backing an accessor, starting at its first
// element, and the stride between elements. The slice is bounds-checked so
// callers can index count*stride without panicking.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	view := doc.BufferViews[*accessor.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	buf := doc.Buffers[view.Buffer].Data
	if buf == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	if accessor.Count == 0 {
		return nil, stride, nil
	}
	end := start + (accessor.Count-1)*stride + elemSize
	if start < 0 || end > len(buf) {
		return nil, 0, fmt.Errorf("accessor range [%d, %d) exceeds buffer of %d bytes", start, end, len(buf))
	}
	return buf[start:end], stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

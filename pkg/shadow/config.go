// Package shadow renders stencil shadow volumes. It collects triangles from
// a scene graph, finds the silhouette of the casting geometry as seen from a
// light, extrudes it to infinity and submits the ambient, volume and light
// passes to a render queue.
package shadow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/umbra/pkg/scene"
)

// ErrUnknownOption is returned when an option name cannot be parsed.
var ErrUnknownOption = errors.New("unknown option")

// Mode selects where silhouettes are found and where they are extruded.
type Mode int

const (
	// ModeCPUSilhouette finds silhouette edges and extrudes them on the CPU.
	ModeCPUSilhouette Mode = iota
	// ModeCPUPerTriangle extrudes every edge of every lit triangle on the
	// CPU. Interior quads cancel in the stencil buffer.
	ModeCPUPerTriangle
	// ModeGPUPerTriangle uploads three gated quads per triangle; the vertex
	// stage decides which ones extrude.
	ModeGPUPerTriangle
	// ModeGPUSilhouette uploads two gated quads per edge; the vertex stage
	// extrudes the one that lies on the silhouette.
	ModeGPUSilhouette
	// ModeCPUFindGPUExtrude finds the silhouette on the CPU and leaves the
	// projection to infinity to the vertex stage.
	ModeCPUFindGPUExtrude
	// ModeDebugSilhouette draws the silhouette as lines and casts nothing.
	ModeDebugSilhouette
)

var modes = []Mode{
	ModeCPUSilhouette, ModeCPUPerTriangle, ModeGPUPerTriangle,
	ModeGPUSilhouette, ModeCPUFindGPUExtrude, ModeDebugSilhouette,
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCPUSilhouette:
		return "cpu-silhouette"
	case ModeCPUPerTriangle:
		return "cpu-per-triangle"
	case ModeGPUPerTriangle:
		return "gpu-per-triangle"
	case ModeGPUSilhouette:
		return "gpu-silhouette"
	case ModeCPUFindGPUExtrude:
		return "cpu-find-gpu-extrude"
	case ModeDebugSilhouette:
		return "debug-silhouette"
	default:
		return "unknown"
	}
}

// Method selects the stencil counting direction.
type Method int

const (
	// ZPass counts volume faces in front of the visible surface. It needs
	// no caps but breaks when the eye is inside a volume.
	ZPass Method = iota
	// ZFail counts volume faces behind the visible surface and needs caps.
	ZFail
)

var methods = []Method{ZPass, ZFail}

// String returns the method name.
func (m Method) String() string {
	switch m {
	case ZPass:
		return "zpass"
	case ZFail:
		return "zfail"
	default:
		return "unknown"
	}
}

// StencilImplementation selects between the single-pass and two-pass
// volume rendering paths.
type StencilImplementation int

const (
	// StencilAuto uses two-sided stencil when the device supports it.
	StencilAuto StencilImplementation = iota
	// StencilOneSided always renders volumes in two culled passes.
	StencilOneSided
	// StencilTwoSided renders volumes in one pass with per-face ops.
	StencilTwoSided
)

var stencilImplementations = []StencilImplementation{StencilAuto, StencilOneSided, StencilTwoSided}

// String returns the implementation name.
func (s StencilImplementation) String() string {
	switch s {
	case StencilAuto:
		return "auto"
	case StencilOneSided:
		return "one-sided"
	case StencilTwoSided:
		return "two-sided"
	default:
		return "unknown"
	}
}

// UpdateStrategy decides when cached geometry is rebuilt.
type UpdateStrategy int

const (
	// EachFrame rebuilds on every Process call.
	EachFrame UpdateStrategy = iota
	// ManualInvalidate rebuilds after MarkDirty or SetConfig, or when a
	// light-dependent mode sees a different light.
	ManualInvalidate
)

var updateStrategies = []UpdateStrategy{EachFrame, ManualInvalidate}

// String returns the strategy name.
func (u UpdateStrategy) String() string {
	switch u {
	case EachFrame:
		return "each-frame"
	case ManualInvalidate:
		return "manual"
	default:
		return "unknown"
	}
}

// FaceOrdering forces the winding that marks front faces.
type FaceOrdering int

const (
	// OrderAuto inherits the winding from the scene state.
	OrderAuto FaceOrdering = iota
	// OrderCCW treats counter-clockwise triangles as front faces.
	OrderCCW
	// OrderCW treats clockwise triangles as front faces.
	OrderCW
)

var faceOrderings = []FaceOrdering{OrderAuto, OrderCCW, OrderCW}

// String returns the ordering name.
func (o FaceOrdering) String() string {
	switch o {
	case OrderAuto:
		return "auto"
	case OrderCCW:
		return "ccw"
	case OrderCW:
		return "cw"
	default:
		return "unknown"
	}
}

var castFaces = []scene.CastFace{scene.CastAuto, scene.CastFront, scene.CastBack, scene.CastFrontAndBack}

// Config is the option surface of the shadow controller.
type Config struct {
	Mode                  Mode
	Method                Method
	StencilImplementation StencilImplementation
	UpdateStrategy        UpdateStrategy
	ShadowCastingFace     scene.CastFace
	FaceOrdering          FaceOrdering

	AmbientPass     bool // render base illumination before the volumes
	ClearStencil    bool // clear the stencil buffer once per frame
	SkipTransparent bool // blended geometry casts no shadow

	// Ambient is the light level of the ambient pass.
	Ambient float64
}

// DefaultConfig returns silhouette extrusion on the CPU with z-fail
// counting, auto-detected stencil support and per-frame rebuilds.
func DefaultConfig() Config {
	return Config{
		Mode:                  ModeCPUSilhouette,
		Method:                ZFail,
		StencilImplementation: StencilAuto,
		UpdateStrategy:        EachFrame,
		ShadowCastingFace:     scene.CastAuto,
		FaceOrdering:          OrderAuto,
		AmbientPass:           true,
		ClearStencil:          true,
		SkipTransparent:       true,
		Ambient:               0.3,
	}
}

type named interface {
	~int
	String() string
}

func parseNamed[T named](kind, s string, values []T) (T, error) {
	for _, v := range values {
		if strings.EqualFold(v.String(), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", kind, s, ErrUnknownOption)
}

// ParseMode parses a mode name as returned by Mode.String.
func ParseMode(s string) (Mode, error) { return parseNamed("mode", s, modes) }

// ParseMethod parses "zpass" or "zfail".
func ParseMethod(s string) (Method, error) { return parseNamed("method", s, methods) }

// ParseStencilImplementation parses "auto", "one-sided" or "two-sided".
func ParseStencilImplementation(s string) (StencilImplementation, error) {
	return parseNamed("stencil implementation", s, stencilImplementations)
}

// ParseUpdateStrategy parses "each-frame" or "manual".
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	return parseNamed("update strategy", s, updateStrategies)
}

// ParseFaceOrdering parses "auto", "ccw" or "cw".
func ParseFaceOrdering(s string) (FaceOrdering, error) {
	return parseNamed("face ordering", s, faceOrderings)
}

// ParseCastFace parses "auto", "front", "back" or "front-and-back".
func ParseCastFace(s string) (scene.CastFace, error) {
	return parseNamed("shadow casting face", s, castFaces)
}

package render

import (
	"math"

	"github.com/gogpu/gputypes"
)

// compare evaluates "a fn b". Undefined behaves like Always so zero-valued
// state does not reject fragments.
func compare[T ~uint32 | ~float64](a, b T, fn gputypes.CompareFunction) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return a < b
	case gputypes.CompareFunctionEqual:
		return a == b
	case gputypes.CompareFunctionLessEqual:
		return a <= b
	case gputypes.CompareFunctionGreater:
		return a > b
	case gputypes.CompareFunctionNotEqual:
		return a != b
	case gputypes.CompareFunctionGreaterEqual:
		return a >= b
	}
	return true
}

// applyStencilOp returns the new 8-bit stencil value. Undefined keeps the
// current value.
func applyStencilOp(op gputypes.StencilOperation, cur uint8, ref uint32) uint8 {
	switch op {
	case gputypes.StencilOperationZero:
		return 0
	case gputypes.StencilOperationReplace:
		return uint8(ref)
	case gputypes.StencilOperationInvert:
		return ^cur
	case gputypes.StencilOperationIncrementClamp:
		if cur == math.MaxUint8 {
			return cur
		}
		return cur + 1
	case gputypes.StencilOperationDecrementClamp:
		if cur == 0 {
			return 0
		}
		return cur - 1
	case gputypes.StencilOperationIncrementWrap:
		return cur + 1
	case gputypes.StencilOperationDecrementWrap:
		return cur - 1
	}
	return cur
}

// writeStencil merges next into cur under the write mask.
func writeStencil(cur, next uint8, mask uint32) uint8 {
	m := uint8(mask)
	return cur&^m | next&m
}

// rgba is a color with channels in [0, 1].
type rgba [4]float64

func blendFactor(f gputypes.BlendFactor, src, dst rgba, constant [4]float64, ch int) float64 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return math.Min(src[3], 1-dst[3])
	case gputypes.BlendFactorConstant:
		return constant[ch]
	case gputypes.BlendFactorOneMinusConstant:
		return 1 - constant[ch]
	}
	return 1
}

func blendComponent(c gputypes.BlendComponent, src, dst rgba, constant [4]float64, ch int) float64 {
	s := src[ch] * blendFactor(c.SrcFactor, src, dst, constant, ch)
	d := dst[ch] * blendFactor(c.DstFactor, src, dst, constant, ch)
	switch c.Operation {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	case gputypes.BlendOperationMin:
		return math.Min(src[ch], dst[ch])
	case gputypes.BlendOperationMax:
		return math.Max(src[ch], dst[ch])
	}
	return s + d
}

// blend combines src over dst. A nil state replaces dst.
func blend(b *gputypes.BlendState, src, dst rgba, constant [4]float64) rgba {
	if b == nil {
		return src
	}
	var out rgba
	for ch := range 3 {
		out[ch] = blendComponent(b.Color, src, dst, constant, ch)
	}
	out[3] = blendComponent(b.Alpha, src, dst, constant, 3)
	return out
}

var channelMasks = [4]gputypes.ColorWriteMask{
	gputypes.ColorWriteMaskRed,
	gputypes.ColorWriteMaskGreen,
	gputypes.ColorWriteMaskBlue,
	gputypes.ColorWriteMaskAlpha,
}

// writeColor stores the channels of next enabled by mask over cur.
func writeColor(cur Color, next rgba, mask gputypes.ColorWriteMask) Color {
	out := [4]uint8{cur.R, cur.G, cur.B, cur.A}
	for ch, bit := range channelMasks {
		if mask&bit != 0 {
			out[ch] = toByte(next[ch])
		}
	}
	return Color{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func toRGBA(c Color) rgba {
	return rgba{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255}
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

package shadow

import (
	"sync"

	"github.com/taigrr/umbra/pkg/render"
)

// probed caches device capabilities. Devices must be comparable, which
// pointer implementations are.
var probed sync.Map // render.Device -> render.Capabilities

// capabilities returns the capabilities of dev, asking the device only the
// first time it is seen.
func capabilities(dev render.Device) render.Capabilities {
	if c, ok := probed.Load(dev); ok {
		return c.(render.Capabilities)
	}
	c, loaded := probed.LoadOrStore(dev, dev.Capabilities())
	caps := c.(render.Capabilities)
	if !loaded {
		Logger().Debug("probed device",
			"two_sided_stencil", caps.TwoSidedStencil,
			"stencil_bits", caps.StencilBits)
	}
	return caps
}

// twoSided decides whether volumes are drawn in a single pass.
func twoSided(impl StencilImplementation, caps render.Capabilities) bool {
	switch impl {
	case StencilOneSided:
		return false
	case StencilTwoSided:
		if !caps.TwoSidedStencil {
			Logger().Warn("two-sided stencil unsupported, using one-sided passes")
			return false
		}
		return true
	}
	return caps.TwoSidedStencil
}

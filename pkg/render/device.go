package render

// Capabilities describes what a device supports.
type Capabilities struct {
	// TwoSidedStencil reports whether front and back faces can use
	// different stencil operations in a single draw.
	TwoSidedStencil bool
	// StencilBits is the depth of the stencil buffer.
	StencilBits int
}

// Device executes draws against color, depth and stencil buffers.
type Device interface {
	Capabilities() Capabilities
	ClearStencil(value uint32)
	Draw(d Drawable, s StateBlock)
}

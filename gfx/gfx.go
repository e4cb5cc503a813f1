// Package gfx defines the rendering backend contract the scene core draws through.
// Concrete GPU bindings implement Context; the core never calls the GPU otherwise.
package gfx

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Releasable defines any GPU-memory-occupying item that can be freed.
type Releasable interface {

	// Release frees the backend objects owned by the implementing structure.
	// Must be called on the GL thread.
	Release(ctx Context)
}

// BufferTarget manages buffer objects bound to one target
// (array or element).
type BufferTarget interface {
	// Create allocates a new buffer object and returns its handle.
	Create() uint32

	// UploadFloats replaces the contents of the buffer with data.
	UploadFloats(handle uint32, data []float32)

	// UploadIndices replaces the contents of the buffer with data.
	UploadIndices(handle uint32, data []uint16)

	Bind(handle uint32)
	Delete(handle uint32)
}

// FramebufferTarget manages framebuffer bindings and clears.
type FramebufferTarget interface {
	// Bind binds the framebuffer, 0 is the default surface.
	Bind(handle uint32)

	// Clear clears the bound framebuffer's color, and depth when asked.
	Clear(color glm.Vec4, depth bool)
}

// TextureUnits manages texture objects and unit bindings.
type TextureUnits interface {
	Create() uint32

	// Upload replaces the texture image with tightly packed RGBA pixels.
	Upload(handle uint32, width, height int, pixels []uint8)

	Bind(unit int, handle uint32)
	Delete(handle uint32)
}

// State is a full set of fixed-function render state.
type State struct {
	DepthTest bool
	Blend     bool
	CullFace  bool
}

// RenderStateManager applies render state, skipping what is already set.
type RenderStateManager interface {
	Apply(s State)
	Current() State
}

// DrawCall describes one indexed draw.
type DrawCall struct {
	ViewProjection glm.Mat4
	Model          glm.Mat4
	VertexBuffer   uint32
	IndexBuffer    uint32
	Texture        uint32
	Stride         int
	Count          int
}

// Context is the capability bundle handed to GL-thread action handling and renderers.
// It is passed through the core unchanged.
type Context interface {
	Arrays() BufferTarget
	Elements() BufferTarget
	Framebuffers() FramebufferTarget
	TextureUnits() TextureUnits
	RenderState() RenderStateManager

	// DrawElements issues one indexed triangle draw.
	DrawElements(call DrawCall)

	// Error returns the pending backend error, if any, and clears it.
	Error() error
}

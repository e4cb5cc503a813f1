// Package gfxtest provides a recording gfx.Context for tests and headless hosts.
package gfxtest

import (
	"fmt"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/gfx"
)

// Call is a single recorded backend operation.
type Call struct {
	Op     string
	Handle uint32
	Len    int
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%d,%d)", c.Op, c.Handle, c.Len)
}

// Recorder implements gfx.Context by recording every call.
// Handles are allocated from a single counter starting at 1.
type Recorder struct {
	mutex sync.Mutex

	next  uint32
	calls []Call
	draws []gfx.DrawCall
	state gfx.State
	err   error

	textures map[uint32][]uint8
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		textures: make(map[uint32][]uint8),
	}
}

var _ gfx.Context = (*Recorder)(nil)

// SetError makes the next Error call report err.
func (r *Recorder) SetError(err error) {
	r.mutex.Lock()
	r.err = err
	r.mutex.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns recorded operation names in order.
func (r *Recorder) Ops() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (r *Recorder) Count(op string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var n int
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Draws returns a copy of the recorded draw calls.
func (r *Recorder) Draws() []gfx.DrawCall {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]gfx.DrawCall(nil), r.draws...)
}

// TexturePixels returns the pixels last uploaded to a texture handle.
func (r *Recorder) TexturePixels(handle uint32) []uint8 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.textures[handle]
}

// Reset forgets all recorded calls, keeping handle allocation monotonic.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	r.calls = r.calls[:0]
	r.draws = r.draws[:0]
	r.mutex.Unlock()
}

func (r *Recorder) record(op string, handle uint32, n int) {
	r.mutex.Lock()
	r.calls = append(r.calls, Call{Op: op, Handle: handle, Len: n})
	r.mutex.Unlock()
}

func (r *Recorder) create(op string) uint32 {
	r.mutex.Lock()
	r.next++
	handle := r.next
	r.calls = append(r.calls, Call{Op: op, Handle: handle})
	r.mutex.Unlock()
	return handle
}

// Arrays implements gfx.Context
func (r *Recorder) Arrays() gfx.BufferTarget { return buffers{r, "array"} }

// Elements implements gfx.Context
func (r *Recorder) Elements() gfx.BufferTarget { return buffers{r, "element"} }

// Framebuffers implements gfx.Context
func (r *Recorder) Framebuffers() gfx.FramebufferTarget { return framebuffers{r} }

// TextureUnits implements gfx.Context
func (r *Recorder) TextureUnits() gfx.TextureUnits { return textures{r} }

// RenderState implements gfx.Context
func (r *Recorder) RenderState() gfx.RenderStateManager { return state{r} }

// DrawElements implements gfx.Context
func (r *Recorder) DrawElements(call gfx.DrawCall) {
	r.mutex.Lock()
	r.draws = append(r.draws, call)
	r.calls = append(r.calls, Call{Op: "draw", Handle: call.VertexBuffer, Len: call.Count})
	r.mutex.Unlock()
}

// Error implements gfx.Context
func (r *Recorder) Error() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	err := r.err
	r.err = nil
	return err
}

type buffers struct {
	r      *Recorder
	target string
}

func (b buffers) Create() uint32 { return b.r.create(b.target + ".create") }

func (b buffers) UploadFloats(handle uint32, data []float32) {
	b.r.record(b.target+".upload", handle, len(data))
}

func (b buffers) UploadIndices(handle uint32, data []uint16) {
	b.r.record(b.target+".upload", handle, len(data))
}

func (b buffers) Bind(handle uint32)   { b.r.record(b.target+".bind", handle, 0) }
func (b buffers) Delete(handle uint32) { b.r.record(b.target+".delete", handle, 0) }

type framebuffers struct{ r *Recorder }

func (f framebuffers) Bind(handle uint32) { f.r.record("framebuffer.bind", handle, 0) }

func (f framebuffers) Clear(color glm.Vec4, depth bool) {
	n := 0
	if depth {
		n = 1
	}
	f.r.record("framebuffer.clear", 0, n)
}

type textures struct{ r *Recorder }

func (t textures) Create() uint32 { return t.r.create("texture.create") }

func (t textures) Upload(handle uint32, width, height int, pixels []uint8) {
	t.r.mutex.Lock()
	t.r.textures[handle] = append([]uint8(nil), pixels...)
	t.r.calls = append(t.r.calls, Call{Op: "texture.upload", Handle: handle, Len: width * height})
	t.r.mutex.Unlock()
}

func (t textures) Bind(unit int, handle uint32) { t.r.record("texture.bind", handle, unit) }
func (t textures) Delete(handle uint32)         { t.r.record("texture.delete", handle, 0) }

type state struct{ r *Recorder }

func (s state) Apply(st gfx.State) {
	s.r.mutex.Lock()
	defer s.r.mutex.Unlock()
	if s.r.state == st {
		return
	}
	s.r.state = st
	s.r.calls = append(s.r.calls, Call{Op: "state.apply"})
}

func (s state) Current() gfx.State {
	s.r.mutex.Lock()
	defer s.r.mutex.Unlock()
	return s.r.state
}

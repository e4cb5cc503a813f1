package scene

import (
	"fmt"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// MeshBuffersChanged is raised on the GL thread when vertex or index data changed.
const MeshBuffersChanged action.ID = "mesh.buffers"

// Mesh holds interleaved vertex data and triangle indices. The first three
// floats of every vertex are its position. GPU buffers are created lazily,
// the first time MeshBuffersChanged is handled on the GL thread.
type Mesh struct {
	notifier       action.Notifier
	buffersChanged *action.Action

	mutex    sync.RWMutex
	vertices []float32
	indices  []uint16
	stride   int
	bounds   Box

	vertexBuffer uint32
	indexBuffer  uint32
}

// NewMesh creates an empty mesh.
func NewMesh(g *action.Graph) *Mesh {
	m := &Mesh{bounds: EmptyBox()}
	m.notifier = g.NewNotifier(m)
	m.buffersChanged = action.New(m.notifier, MeshBuffersChanged, action.GL)
	return m
}

// Notifier returns the mesh's notifier.
func (m *Mesh) Notifier() action.Notifier { return m.notifier }

// SetData replaces the mesh data. stride is the number of floats per vertex
// and must be at least 3; vertices must hold a whole number of vertices and
// indices must address existing vertices.
func (m *Mesh) SetData(vertices []float32, stride int, indices []uint16) {
	if stride < 3 || len(vertices)%stride != 0 {
		panic(fmt.Sprintf("scene: %d floats do not form vertices of stride %d", len(vertices), stride))
	}
	count := len(vertices) / stride
	for _, idx := range indices {
		if int(idx) >= count {
			panic(fmt.Sprintf("scene: index %d out of range of %d vertices", idx, count))
		}
	}

	bounds := EmptyBox()
	for i := 0; i < len(vertices); i += stride {
		bounds = bounds.Extend(glm.Vec3{vertices[i], vertices[i+1], vertices[i+2]})
	}

	m.mutex.Lock()
	m.vertices = vertices
	m.indices = indices
	m.stride = stride
	m.bounds = bounds
	m.mutex.Unlock()

	m.buffersChanged.Raise()
}

// Bounds returns the local bounding box, empty when no data was set.
func (m *Mesh) Bounds() Box {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.bounds
}

// Stride returns the number of floats per vertex.
func (m *Mesh) Stride() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.stride
}

// Count returns the number of indices.
func (m *Mesh) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.indices)
}

// Buffers returns the vertex and index buffer handles, zero until uploaded.
func (m *Mesh) Buffers() (vertex, index uint32) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.vertexBuffer, m.indexBuffer
}

// HandleAction implements action.Handler
func (m *Mesh) HandleAction(*action.Action) bool {
	return false
}

// HandleGLAction implements action.Handler
func (m *Mesh) HandleGLAction(ctx gfx.Context, a *action.Action) bool {
	if a != m.buffersChanged {
		return false
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.vertexBuffer == 0 {
		m.vertexBuffer = ctx.Arrays().Create()
	}
	if m.indexBuffer == 0 {
		m.indexBuffer = ctx.Elements().Create()
	}
	ctx.Arrays().UploadFloats(m.vertexBuffer, m.vertices)
	ctx.Elements().UploadIndices(m.indexBuffer, m.indices)
	return true
}

// Release deletes the GPU buffers. When data is still held the mesh is
// marked changed again so it is recreated on next use.
func (m *Mesh) Release(ctx gfx.Context) {
	m.mutex.Lock()
	if m.vertexBuffer != 0 {
		ctx.Arrays().Delete(m.vertexBuffer)
		m.vertexBuffer = 0
	}
	if m.indexBuffer != 0 {
		ctx.Elements().Delete(m.indexBuffer)
		m.indexBuffer = 0
	}
	hasData := len(m.vertices) > 0
	m.mutex.Unlock()

	if hasData {
		m.buffersChanged.Raise()
	}
}

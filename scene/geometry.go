package scene

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// connectResource swaps the notifier of a resource owned by n.
func (n *Node) connectResource(old, next action.Notifier) {
	if !old.IsZero() {
		n.notifier.Disconnect(old)
	}
	if !next.IsZero() {
		if err := n.notifier.Connect(next); err != nil {
			panic(err)
		}
	}
}

// SetMesh sets the mesh drawn by a geometry. Pending mesh actions drain
// through the geometry.
func (n *Node) SetMesh(mesh *Mesh) {
	n.mustKind(KindGeometry)
	n.mutex.Lock()
	old := n.geometry.mesh
	n.geometry.mesh = mesh
	n.mutex.Unlock()

	var oldNotifier, nextNotifier action.Notifier
	if old != nil {
		oldNotifier = old.Notifier()
	}
	if mesh != nil {
		nextNotifier = mesh.Notifier()
	}
	n.connectResource(oldNotifier, nextNotifier)
}

// Mesh returns the mesh of a geometry, nil for other kinds.
func (n *Node) Mesh() *Mesh {
	if n.kind != KindGeometry {
		return nil
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.geometry.mesh
}

// SetTexture sets the texture a geometry is drawn with.
func (n *Node) SetTexture(texture *Texture) {
	n.mustKind(KindGeometry)
	n.mutex.Lock()
	old := n.geometry.texture
	n.geometry.texture = texture
	n.mutex.Unlock()

	var oldNotifier, nextNotifier action.Notifier
	if old != nil {
		oldNotifier = old.Notifier()
	}
	if texture != nil {
		nextNotifier = texture.Notifier()
	}
	n.connectResource(oldNotifier, nextNotifier)
}

// Texture returns the texture of a geometry, nil when unset.
func (n *Node) Texture() *Texture {
	if n.kind != KindGeometry {
		return nil
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.geometry.texture
}

// WorldBounds returns the mesh bounds in world space. It is empty for
// geometries without mesh data and for other kinds.
func (n *Node) WorldBounds() Box {
	mesh := n.Mesh()
	if mesh == nil {
		return EmptyBox()
	}
	return mesh.Bounds().Transform(n.World())
}

// Draw issues the draw call of a geometry whose buffers are uploaded.
// Other kinds draw nothing.
func (n *Node) Draw(ctx gfx.Context, viewProjection glm.Mat4) {
	mesh := n.Mesh()
	if mesh == nil {
		return
	}
	vertex, index := mesh.Buffers()
	count := mesh.Count()
	if vertex == 0 || index == 0 || count == 0 {
		return
	}

	var texture uint32
	if t := n.Texture(); t != nil {
		texture = t.Handle()
	}
	if texture != 0 {
		ctx.TextureUnits().Bind(0, texture)
	}
	ctx.Arrays().Bind(vertex)
	ctx.Elements().Bind(index)
	ctx.DrawElements(gfx.DrawCall{
		ViewProjection: viewProjection,
		Model:          n.World(),
		VertexBuffer:   vertex,
		IndexBuffer:    index,
		Texture:        texture,
		Stride:         mesh.Stride(),
		Count:          count,
	})
}

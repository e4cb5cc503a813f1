package scene

import "github.com/devblok/koru/action"

// SetRenderer sets the renderer of a render node. nil disables drawing.
func (n *Node) SetRenderer(r Renderer) {
	n.mustKind(KindRenderNode)
	n.mutex.Lock()
	n.render.renderer = r
	n.mutex.Unlock()
}

// Renderer returns the renderer of a render node, nil when unset.
func (n *Node) Renderer() Renderer {
	if n.kind != KindRenderNode {
		return nil
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.render.renderer
}

// SetViewFrustumCulling enables culling of geometries outside the camera
// frustum during content collection.
func (n *Node) SetViewFrustumCulling(enabled bool) {
	n.mustKind(KindRenderNode)
	n.mutex.Lock()
	n.render.culling = enabled
	n.mutex.Unlock()
}

// ViewFrustumCulling reports whether culling is enabled.
func (n *Node) ViewFrustumCulling() bool {
	if n.kind != KindRenderNode {
		return false
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.render.culling
}

// SetCamera sets the camera of a render node. Camera updates drain through
// the render node.
func (n *Node) SetCamera(c *Camera) {
	n.mustKind(KindRenderNode)
	n.mutex.Lock()
	old := n.render.camera
	n.render.camera = c
	n.mutex.Unlock()

	var oldNotifier, nextNotifier action.Notifier
	if old != nil {
		oldNotifier = old.Notifier()
	}
	if c != nil {
		nextNotifier = c.Notifier()
	}
	n.connectResource(oldNotifier, nextNotifier)
}

// Camera returns the camera set on a render node.
func (n *Node) Camera() *Camera {
	if n.kind != KindRenderNode {
		return nil
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.render.camera
}

// SetSettings sets the render settings of a render node.
func (n *Node) SetSettings(s *RenderSettings) {
	n.mustKind(KindRenderNode)
	n.mutex.Lock()
	old := n.render.settings
	n.render.settings = s
	n.mutex.Unlock()

	var oldNotifier, nextNotifier action.Notifier
	if old != nil {
		oldNotifier = old.Notifier()
	}
	if s != nil {
		nextNotifier = s.Notifier()
	}
	n.connectResource(oldNotifier, nextNotifier)
}

// Settings returns the render settings of a render node, nil when unset.
func (n *Node) Settings() *RenderSettings {
	if n.kind != KindRenderNode {
		return nil
	}
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.render.settings
}

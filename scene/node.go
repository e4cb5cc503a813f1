// Package scene implements the retained scene graph: plain nodes, geometries
// and render nodes, the resources they own, view-frustum culling and the
// per-frame content collection that turns a graph into draw lists.
package scene

import (
	"fmt"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/gfx"
)

// Kind tags the variant of a Node.
type Kind int

// Node kinds
const (
	// KindNode is a plain grouping/transform node
	KindNode Kind = iota
	// KindGeometry draws a mesh
	KindGeometry
	// KindRenderNode owns a renderer and partitions content collection
	KindRenderNode
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindGeometry:
		return "geometry"
	case KindRenderNode:
		return "render node"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Renderer draws the flat node list collected for one render node.
type Renderer interface {
	Render(ctx gfx.Context, nodes []*Node)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(ctx gfx.Context, nodes []*Node)

// Render implements Renderer
func (f RendererFunc) Render(ctx gfx.Context, nodes []*Node) { f(ctx, nodes) }

// Controller is attached to a node and updated once per frame.
// Returning false detaches the controller.
type Controller interface {
	Update(n *Node, dt float32) bool
}

// ControllerFunc adapts a function to a Controller.
type ControllerFunc func(n *Node, dt float32) bool

// Update implements Controller
func (f ControllerFunc) Update(n *Node, dt float32) bool { return f(n, dt) }

type geometry struct {
	mesh    *Mesh
	texture *Texture
}

type renderNode struct {
	renderer Renderer
	culling  bool
	camera   *Camera
	settings *RenderSettings
}

// Node is a scene graph node. Its Kind selects which payload is used:
// geometries carry a mesh and texture, render nodes a renderer, camera and
// render settings. The graph must be a tree.
type Node struct {
	kind     Kind
	name     string
	notifier action.Notifier

	mutex       sync.RWMutex
	parent      *Node
	children    []*Node
	controllers []Controller
	local       glm.Mat4
	world       glm.Mat4

	geometry *geometry
	render   *renderNode
}

func newNode(g *action.Graph, kind Kind, name string) *Node {
	n := &Node{
		kind:  kind,
		name:  name,
		local: glm.Ident4(),
		world: glm.Ident4(),
	}
	n.notifier = g.NewNotifier(n)
	return n
}

// NewNode creates a plain node.
func NewNode(g *action.Graph, name string) *Node {
	return newNode(g, KindNode, name)
}

// NewGeometry creates a geometry drawing mesh, which may be nil.
func NewGeometry(g *action.Graph, name string, mesh *Mesh) *Node {
	n := newNode(g, KindGeometry, name)
	n.geometry = &geometry{}
	n.SetMesh(mesh)
	return n
}

// NewRenderNode creates a render node drawn by renderer, which may be nil
// for render nodes that only group or carry a camera. Culling is disabled.
func NewRenderNode(g *action.Graph, name string, renderer Renderer) *Node {
	n := newNode(g, KindRenderNode, name)
	n.render = &renderNode{renderer: renderer}
	return n
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Notifier returns the node's notifier.
func (n *Node) Notifier() action.Notifier { return n.notifier }

func (n *Node) String() string {
	return fmt.Sprintf("%s %q", n.kind, n.name)
}

func (n *Node) mustKind(kind Kind) {
	if n.kind != kind {
		panic(fmt.Sprintf("scene: %s used as %s", n, kind))
	}
}

// AddChild appends child to the children of n. child must not already have
// a parent and must not be an ancestor of n.
func (n *Node) AddChild(child *Node) {
	if child.Parent() != nil {
		panic(fmt.Sprintf("scene: %s already has a parent", child))
	}
	for anc := n; anc != nil; anc = anc.Parent() {
		if anc == child {
			panic(fmt.Sprintf("scene: adding %s under %s creates a cycle", child, n))
		}
	}

	child.mutex.Lock()
	child.parent = n
	child.mutex.Unlock()

	n.mutex.Lock()
	n.children = append(n.children, child)
	n.mutex.Unlock()
}

// RemoveChild detaches child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	n.mutex.Lock()
	found := false
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			found = true
			break
		}
	}
	n.mutex.Unlock()

	if found {
		child.mutex.Lock()
		child.parent = nil
		child.mutex.Unlock()
	}
	return found
}

// Parent returns the parent node, nil for roots.
func (n *Node) Parent() *Node {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.parent
}

// Children returns a snapshot of the children.
func (n *Node) Children() []*Node {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return append([]*Node(nil), n.children...)
}

// pushChildren appends the children of n to stack in reverse order, so
// popping visits them first to last.
func (n *Node) pushChildren(stack []*Node) []*Node {
	n.mutex.RLock()
	for i := len(n.children) - 1; i >= 0; i-- {
		stack = append(stack, n.children[i])
	}
	n.mutex.RUnlock()
	return stack
}

// AddController attaches c to be updated every frame.
func (n *Node) AddController(c Controller) {
	n.mutex.Lock()
	n.controllers = append(n.controllers, c)
	n.mutex.Unlock()
}

// SetTransform sets the transform relative to the parent. The world
// transform follows on the next Update.
func (n *Node) SetTransform(m glm.Mat4) {
	n.mutex.Lock()
	n.local = m
	n.mutex.Unlock()
}

// Transform returns the transform relative to the parent.
func (n *Node) Transform() glm.Mat4 {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.local
}

// World returns the world transform computed by the last Update.
func (n *Node) World() glm.Mat4 {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.world
}

// Update runs the controllers of n and its subtree and recomputes world
// transforms depth-first. It reports whether the node should be kept.
func (n *Node) Update(dt float32) bool {
	base := glm.Ident4()
	if p := n.Parent(); p != nil {
		base = p.World()
	}
	n.update(base, dt)
	return true
}

func (n *Node) update(parentWorld glm.Mat4, dt float32) {
	n.mutex.RLock()
	controllers := append([]Controller(nil), n.controllers...)
	n.mutex.RUnlock()

	kept := make([]Controller, 0, len(controllers))
	for _, c := range controllers {
		if c.Update(n, dt) {
			kept = append(kept, c)
		}
	}

	n.mutex.Lock()
	if len(kept) != len(controllers) {
		// controllers attached during the update follow the snapshot
		n.controllers = append(kept, n.controllers[len(controllers):]...)
	}
	n.world = parentWorld.Mul4(n.local)
	world := n.world
	children := append([]*Node(nil), n.children...)
	n.mutex.Unlock()

	for _, child := range children {
		child.update(world, dt)
	}
}

// FindCamera returns the camera of the closest render node at or above n.
func (n *Node) FindCamera() *Camera {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.kind == KindRenderNode {
			if c := cur.Camera(); c != nil {
				return c
			}
		}
	}
	return nil
}

// HandleAction implements action.Handler. Nodes own no actions themselves,
// so anything reaching here is left pending.
func (n *Node) HandleAction(*action.Action) bool {
	return false
}

// HandleGLAction implements action.Handler
func (n *Node) HandleGLAction(gfx.Context, *action.Action) bool {
	return false
}

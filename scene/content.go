package scene

import "fmt"

// GraphContent is the result of one graph collection pass. It is pooled
// and reused across frames.
type GraphContent struct {
	// Nodes holds every collected node that is not a render node.
	Nodes []*Node
	// RenderNodes holds every collected render node.
	RenderNodes []*Node

	stack []*Node
}

// NewGraphContent creates empty content.
func NewGraphContent() *GraphContent {
	return &GraphContent{}
}

// Reset clears the content, keeping capacity.
func (c *GraphContent) Reset() {
	clearNodes(c.Nodes)
	clearNodes(c.RenderNodes)
	c.Nodes = c.Nodes[:0]
	c.RenderNodes = c.RenderNodes[:0]
	c.stack = c.stack[:0]
}

// Len returns the total number of collected nodes.
func (c *GraphContent) Len() int {
	return len(c.Nodes) + len(c.RenderNodes)
}

func clearNodes(nodes []*Node) {
	for i := range nodes {
		nodes[i] = nil
	}
}

// GraphContentCollector buckets a whole graph into plain nodes and render nodes.
type GraphContentCollector struct{}

// Collect walks root depth-first in pre-order, appending every node to into.
// Render nodes are walked through as well. No culling is applied.
func (GraphContentCollector) Collect(root *Node, into *GraphContent) {
	stack := append(into.stack[:0], root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack[len(stack)-1] = nil
		stack = stack[:len(stack)-1]

		switch n.Kind() {
		case KindRenderNode:
			into.RenderNodes = append(into.RenderNodes, n)
		case KindNode, KindGeometry:
			into.Nodes = append(into.Nodes, n)
		}
		stack = n.pushChildren(stack)
	}
	into.stack = stack
}

// RenderNodeContentCollector collects the draw list of a single render node.
// Collection stops at nested render nodes, which are collected on their own.
type RenderNodeContentCollector struct {
	result []*Node
	stack  []*Node
}

// Collect appends renderNode and its draw-relevant descendants to the result.
// With culling enabled on renderNode, geometries outside the frustum of
// their camera, or without a camera, are left out; their children are still
// visited.
func (c *RenderNodeContentCollector) Collect(renderNode *Node) {
	if renderNode.Kind() != KindRenderNode {
		panic(fmt.Sprintf("scene: collecting render content of %s", renderNode))
	}
	c.result = append(c.result, renderNode)

	culling := renderNode.ViewFrustumCulling()
	stack := renderNode.pushChildren(c.stack[:0])
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack[len(stack)-1] = nil
		stack = stack[:len(stack)-1]

		switch n.Kind() {
		case KindRenderNode:
			continue
		case KindGeometry:
			if !culling || isCollectable(n) {
				c.result = append(c.result, n)
			}
		case KindNode:
			c.result = append(c.result, n)
		}
		stack = n.pushChildren(stack)
	}
	c.stack = stack
}

func isCollectable(g *Node) bool {
	camera := g.FindCamera()
	return camera != nil && IsGeometryVisible(g, camera)
}

// Result returns the collected nodes. The slice is reused after Reset.
func (c *RenderNodeContentCollector) Result() []*Node {
	return c.result
}

// Reset clears the result for the next render node.
func (c *RenderNodeContentCollector) Reset() {
	clearNodes(c.result)
	c.result = c.result[:0]
}

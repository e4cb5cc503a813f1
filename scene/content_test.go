package scene_test

import (
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/scene"
)

// nested builds
//
//	root(rn) -> a -> inner(rn) -> b -> c(geometry)
//	         -> d(geometry) -> e
func nested(g *action.Graph) (root, inner *scene.Node) {
	root = scene.NewRenderNode(g, "root", nil)
	inner = scene.NewRenderNode(g, "inner", nil)
	a := scene.NewNode(g, "a")
	b := scene.NewNode(g, "b")
	c := scene.NewGeometry(g, "c", nil)
	d := scene.NewGeometry(g, "d", nil)
	e := scene.NewNode(g, "e")

	root.AddChild(a)
	a.AddChild(inner)
	inner.AddChild(b)
	b.AddChild(c)
	root.AddChild(d)
	d.AddChild(e)
	return root, inner
}

func TestGraphContentCollectsEveryNode(t *testing.T) {
	g := action.NewGraph()
	root, _ := nested(g)

	content := scene.NewGraphContent()
	var collector scene.GraphContentCollector
	collector.Collect(root, content)

	assert.Equal(t, 7, content.Len())
	assert.Equal(t, []string{"root", "inner"}, names(content.RenderNodes))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(content.Nodes))

	content.Reset()
	assert.Equal(t, 0, content.Len())

	collector.Collect(root, content)
	assert.Equal(t, 7, content.Len())
	assert.Len(t, content.RenderNodes, 2)
}

func TestRenderNodeContentStopsAtNestedRenderNodes(t *testing.T) {
	g := action.NewGraph()
	root, inner := nested(g)

	var collector scene.RenderNodeContentCollector
	collector.Collect(root)
	assert.Equal(t, []string{"root", "a", "d", "e"}, names(collector.Result()))

	collector.Reset()
	assert.Empty(t, collector.Result())

	collector.Collect(inner)
	assert.Equal(t, []string{"inner", "b", "c"}, names(collector.Result()))
}

func TestRenderNodeContentRejectsOtherKinds(t *testing.T) {
	g := action.NewGraph()
	var collector scene.RenderNodeContentCollector
	assert.Panics(t, func() { collector.Collect(scene.NewNode(g, "plain")) })
}

func TestRenderNodeContentCulling(t *testing.T) {
	g := action.NewGraph()
	camera := scene.NewCamera(g)

	rn := scene.NewRenderNode(g, "rn", nil)
	rn.SetCamera(camera)
	rn.SetViewFrustumCulling(true)

	near := geometryAt(g, "near", glm.Vec3{0, 0, -5})
	far := geometryAt(g, "far", glm.Vec3{0, 0, -200})
	plain := scene.NewNode(g, "plain")
	child := scene.NewNode(g, "child-of-far")
	rn.AddChild(plain)
	rn.AddChild(far)
	far.AddChild(child)
	rn.AddChild(near)
	rn.Update(0)

	var collector scene.RenderNodeContentCollector
	collector.Collect(rn)
	assert.Equal(t, []string{"rn", "plain", "child-of-far", "near"}, names(collector.Result()))

	collector.Reset()
	rn.SetViewFrustumCulling(false)
	collector.Collect(rn)
	assert.Equal(t, []string{"rn", "plain", "far", "child-of-far", "near"}, names(collector.Result()))
}

func TestRenderNodeContentCullingWithoutCamera(t *testing.T) {
	g := action.NewGraph()
	rn := scene.NewRenderNode(g, "rn", nil)
	rn.SetViewFrustumCulling(true)
	rn.AddChild(geometryAt(g, "geo", glm.Vec3{0, 0, -5}))
	rn.Update(0)

	var collector scene.RenderNodeContentCollector
	collector.Collect(rn)
	assert.Equal(t, []string{"rn"}, names(collector.Result()))
}

func TestRenderNodeContentEmptyBoundsFailOpen(t *testing.T) {
	g := action.NewGraph()
	rn := scene.NewRenderNode(g, "rn", nil)
	rn.SetCamera(scene.NewCamera(g))
	rn.SetViewFrustumCulling(true)

	unmeasured := scene.NewGeometry(g, "unmeasured", scene.NewMesh(g))
	unmeasured.SetTransform(glm.Translate3D(0, 0, 500))
	rn.AddChild(unmeasured)
	rn.Update(0)

	var collector scene.RenderNodeContentCollector
	collector.Collect(rn)
	require.Len(t, collector.Result(), 2)
	assert.Same(t, unmeasured, collector.Result()[1])
}

func TestCollectorsReuseMemoryOnceWarm(t *testing.T) {
	g := action.NewGraph()
	root, inner := nested(g)

	content := scene.NewGraphContent()
	var graph scene.GraphContentCollector
	var render scene.RenderNodeContentCollector
	renderNodes := []*scene.Node{root, inner}
	collect := func() {
		content.Reset()
		graph.Collect(root, content)
		for _, rn := range renderNodes {
			render.Collect(rn)
			render.Reset()
		}
	}
	collect()

	assert.Zero(t, testing.AllocsPerRun(100, collect))
}

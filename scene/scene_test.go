package scene_test

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/action"
	"github.com/devblok/koru/scene"
)

// cube returns a unit cube mesh centered on the origin.
func cube(g *action.Graph) *scene.Mesh {
	m := scene.NewMesh(g)
	m.SetData([]float32{
		-0.5, -0.5, -0.5,
		0.5, -0.5, -0.5,
		0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5,
		-0.5, -0.5, 0.5,
		0.5, -0.5, 0.5,
		0.5, 0.5, 0.5,
		-0.5, 0.5, 0.5,
	}, 3, []uint16{
		0, 1, 2, 2, 3, 0,
		4, 5, 6, 6, 7, 4,
		0, 4, 7, 7, 3, 0,
		1, 5, 6, 6, 2, 1,
		3, 2, 6, 6, 7, 3,
		0, 1, 5, 5, 4, 0,
	})
	return m
}

func geometryAt(g *action.Graph, name string, pos glm.Vec3) *scene.Node {
	n := scene.NewGeometry(g, name, cube(g))
	n.SetTransform(glm.Translate3D(pos[0], pos[1], pos[2]))
	return n
}

func names(nodes []*scene.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func drainMain(n action.Notifier) {
	action.NewDispatcher(action.Main, nil).Dispatch(nil, n)
}

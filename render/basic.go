package render

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/scene"
)

// BasicRenderer draws every geometry of a task with the camera of its
// render node.
type BasicRenderer struct{}

var _ scene.Renderer = BasicRenderer{}

// Render implements scene.Renderer. nodes starts with the render node, as
// collected by scene.RenderNodeContentCollector.
func (BasicRenderer) Render(ctx gfx.Context, nodes []*scene.Node) {
	if len(nodes) == 0 {
		return
	}

	rn := nodes[0]
	if settings := rn.Settings(); settings != nil {
		ctx.RenderState().Apply(settings.State())
		settings.Clear(ctx)
	}

	viewProjection := glm.Ident4()
	if camera := rn.FindCamera(); camera != nil {
		viewProjection = camera.ViewProjection()
	}
	for _, n := range nodes[1:] {
		if n.Kind() == scene.KindGeometry {
			n.Draw(ctx, viewProjection)
		}
	}
}

package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx/gfxtest"
	"github.com/devblok/koru/render"
	"github.com/devblok/koru/scene"
)

func triangleScene(e *Engine) *scene.Mesh {
	g := e.Graph()
	mesh := scene.NewMesh(g)
	mesh.SetData([]float32{0, 0, -5, 1, 0, -5, 0, 1, -5}, 3, []uint16{0, 1, 2})

	rn := scene.NewRenderNode(g, "main", render.BasicRenderer{})
	rn.SetCamera(scene.NewCamera(g))
	rn.AddChild(scene.NewGeometry(g, "triangle", mesh))
	e.Root().AddChild(rn)
	return mesh
}

func fastConfiguration() core.Configuration {
	cfg := core.DefaultConfiguration()
	cfg.Time.FramesPerSecond = 0
	cfg.Time.UpdatesPerSecond = 0
	return cfg
}

func TestSurfaceLifecycle(t *testing.T) {
	log, hook := test.NewNullLogger()
	var initialized, changed int
	var e *Engine
	app := core.ApplicationFuncs{
		Initialized: func(root *scene.Node, w, h int) {
			initialized++
			assert.Same(t, e.Root(), root)
			assert.Equal(t, 640, w)
			assert.Equal(t, 480, h)
		},
		SurfaceChanged: func(w, h int) { changed++ },
	}
	e = New(core.DefaultConfiguration(), app, log)

	assert.Equal(t, ErrNoSurface, e.DrawFrame(gfxtest.NewRecorder()))

	e.OnSurfaceCreated(640, 480)
	e.OnSurfaceCreated(640, 480)
	assert.Equal(t, 1, initialized)

	e.OnSurfaceChanged(1024, 768)
	assert.Equal(t, 1, changed)
	w, h := e.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, "surface created", hook.Entries[0].Message)
}

func TestDrawFrame(t *testing.T) {
	rec := gfxtest.NewRecorder()
	var updates int
	var e *Engine
	e = New(core.DefaultConfiguration(), core.ApplicationFuncs{
		Initialized: func(*scene.Node, int, int) { triangleScene(e) },
		Update:      func(float32) { updates++ },
	}, nil)
	e.OnSurfaceCreated(800, 600)

	require.NoError(t, e.DrawFrame(rec))
	require.NoError(t, e.DrawFrame(rec))
	assert.Equal(t, 2, updates)
	assert.Equal(t, 2, rec.Count("draw"))
	assert.Equal(t, 1, rec.Count("array.create"))

	rec.Reset()
	e.OnSurfaceLost(rec)
	assert.Equal(t, []string{"array.delete", "element.delete"}, rec.Ops())

	require.NoError(t, e.DrawFrame(rec))
	assert.Equal(t, 1, rec.Count("array.create"))
}

func TestRunPipelinesFrames(t *testing.T) {
	rec := gfxtest.NewRecorder()
	var updates int64
	var e *Engine
	e = New(fastConfiguration(), core.ApplicationFuncs{
		Initialized: func(*scene.Node, int, int) { triangleScene(e) },
		Update:      func(float32) { atomic.AddInt64(&updates, 1) },
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.Equal(t, ErrNoSurface, e.Run(ctx, rec, nil))

	e.OnSurfaceCreated(800, 600)
	var presents, created int
	var draws []int
	err := e.Run(ctx, rec, func() {
		presents++
		draws = append(draws, rec.Count("draw"))
		created += rec.Count("array.create")
		rec.Reset()
		if presents == 10 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, presents)
	// one frame per present even when updates ran ahead
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, draws)

	// updates may run ahead of rendering by the frames in flight
	n := atomic.LoadInt64(&updates)
	assert.GreaterOrEqual(t, n, int64(10))
	assert.LessOrEqual(t, n, int64(10+fastConfiguration().Renderer.MaxFramesInFlight))
	assert.Equal(t, 1, created)
}
